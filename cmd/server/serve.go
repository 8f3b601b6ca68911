package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/caixinha-backend/internal/adapter/api"
	grpcadapter "github.com/simaogato/caixinha-backend/internal/adapter/grpc"
	httpadapter "github.com/simaogato/caixinha-backend/internal/adapter/http"
	"github.com/simaogato/caixinha-backend/internal/adapter/metrics"
	"github.com/simaogato/caixinha-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/caixinha-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/caixinha-backend/internal/auth"
	"github.com/simaogato/caixinha-backend/internal/config"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
	"github.com/simaogato/caixinha-backend/internal/usecase/application"
	"github.com/simaogato/caixinha-backend/internal/usecase/export"
	"github.com/simaogato/caixinha-backend/internal/usecase/history"
	"github.com/simaogato/caixinha-backend/internal/usecase/seeder"
	"github.com/simaogato/caixinha-backend/internal/usecase/user"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
	shutdownTimeout = 10 * time.Second
)

func loadConfig(envFile string) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// store bundles the repositories of one storage backend
type store struct {
	users        domain.UserRepository
	applications domain.ApplicationRepository
	history      domain.HistoryRepository
	close        func() error
}

func openStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, migrate bool) (*store, error) {
	if cfg.StorageDriver == config.DriverSQLite {
		// the SQLite schema is migrated on open
		db, err := sqlite.NewDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.WithField("path", cfg.SQLitePath).Info("Using SQLite storage")
		return &store{
			users:        sqlite.NewUserRepository(db),
			applications: sqlite.NewApplicationRepository(db),
			history:      sqlite.NewHistoryRepository(db),
			close:        db.Close,
		}, nil
	}

	db, err := connectPostgres(ctx, cfg.PostgresConnString(), log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := postgres.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return nil, err
		}
	}
	log.Info("Using PostgreSQL storage")

	return &store{
		users:        postgres.NewUserRepository(db),
		applications: postgres.NewApplicationRepository(db),
		history:      postgres.NewHistoryRepository(db),
		close:        db.Close,
	}, nil
}

// connectPostgres retries while the database container is still starting
func connectPostgres(ctx context.Context, connStr string, log logrus.FieldLogger) (*postgres.DB, error) {
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := postgres.NewDB(ctx, connStr)
		if err == nil {
			return db, nil
		}
		lastErr = err
		log.WithError(err).WithField("attempt", attempt).Warn("Database not ready")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(connectBackoff):
		}
	}
	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectAttempts, lastErr)
}

func runServe(ctx context.Context, cfg *config.Config, log *logrus.Logger, migrate bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// 1. Storage
	st, err := openStore(ctx, cfg, log, migrate)
	if err != nil {
		return err
	}
	defer st.close()

	// 2. Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	policy := history.DuplicateAllow
	if cfg.HistoryDuplicateGuard {
		policy = history.DuplicateReject
	}

	userService := user.NewUserService(st.users, tokens)
	applicationService := application.NewApplicationService(st.applications)
	historyService := history.NewHistoryService(st.applications, st.history, policy)
	analyticsService := analytics.NewAnalyticsService(st.applications, st.history)
	exportService := export.NewExportService(st.applications, st.history)

	// 3. Bootstrap account
	if cfg.AdminUsername != "" {
		created, err := seeder.NewUserSeeder(st.users, userService).Seed(ctx, []seeder.BootstrapUser{
			{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		})
		if err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}
		log.WithField("created", created).Info("Bootstrap users seeded")
	}

	m := metrics.New()
	a := api.New(userService, applicationService, historyService, analyticsService, exportService, m)

	// 4. gRPC
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(log),
			grpcadapter.MetricsInterceptor(m),
			grpcadapter.AuthInterceptor(tokens),
		),
	)
	grpcadapter.Register(grpcServer, grpcadapter.NewServer(a, log))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
	}

	// 5. REST
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpadapter.NewServer(a, tokens, m, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 2)
	go func() {
		log.WithField("addr", cfg.GRPCAddr).Info("gRPC server listening")
		if err := grpcServer.Serve(lis); err != nil {
			serveErr <- fmt.Errorf("gRPC server: %w", err)
		}
	}()
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	return waitForShutdown(log, grpcServer, httpServer, serveErr)
}

// waitForShutdown blocks until SIGTERM, SIGINT or a server failure, then stops both servers
func waitForShutdown(log logrus.FieldLogger, grpcServer *grpclib.Server, httpServer *http.Server, serveErr <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	var err error
	select {
	case sig := <-sigChan:
		log.WithField("signal", sig.String()).Info("Shutting down gracefully")
	case err = <-serveErr:
		log.WithError(err).Error("Server failed, shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpServer.Shutdown(ctx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP server did not shut down cleanly")
	}

	grpcServer.GracefulStop()
	log.Info("Servers stopped")

	return err
}

package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/caixinha-backend/internal/adapter/api"
	grpcadapter "github.com/simaogato/caixinha-backend/internal/adapter/grpc"
	"github.com/simaogato/caixinha-backend/internal/adapter/metrics"
	"github.com/simaogato/caixinha-backend/internal/adapter/repository/sqlite"
	"github.com/simaogato/caixinha-backend/internal/auth"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
	"github.com/simaogato/caixinha-backend/internal/usecase/application"
	"github.com/simaogato/caixinha-backend/internal/usecase/export"
	"github.com/simaogato/caixinha-backend/internal/usecase/history"
	"github.com/simaogato/caixinha-backend/internal/usecase/user"
)

// client drives the service over an in-memory listener
type client struct {
	t    *testing.T
	conn *grpc.ClientConn
}

func startServer(t *testing.T) *client {
	t.Helper()

	db, err := sqlite.NewDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := sqlite.NewUserRepository(db)
	applications := sqlite.NewApplicationRepository(db)
	entries := sqlite.NewHistoryRepository(db)

	tokens := auth.NewTokenManager("e2e-secret", time.Hour)
	userService := user.NewUserService(users, tokens)
	userService.HashCost = bcrypt.MinCost

	m := metrics.New()
	a := api.New(
		userService,
		application.NewApplicationService(applications),
		history.NewHistoryService(applications, entries, history.DuplicateReject),
		analytics.NewAnalyticsService(applications, entries),
		export.NewExportService(applications, entries),
		m,
	)

	log, _ := logtest.NewNullLogger()
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpcadapter.LoggingInterceptor(log),
		grpcadapter.MetricsInterceptor(m),
		grpcadapter.AuthInterceptor(tokens),
	))
	grpcadapter.Register(srv, grpcadapter.NewServer(a, log))

	lis := bufconn.Listen(1 << 20)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &client{t: t, conn: conn}
}

// call invokes method with req and decodes the reply into resp (when non-nil)
func (c *client) call(token, method string, req, resp interface{}) error {
	c.t.Helper()

	in, err := grpcadapter.ToStruct(req)
	require.NoError(c.t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
	}

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, grpcadapter.FullMethod(method), in, out); err != nil {
		return err
	}
	if resp != nil {
		require.NoError(c.t, grpcadapter.FromStruct(out, resp))
	}
	return nil
}

func (c *client) session(username string) string {
	c.t.Helper()
	creds := api.CredentialsRequest{Username: username, Password: "s3cret-pass"}
	require.NoError(c.t, c.call("", "Register", creds, nil))

	var session api.SessionDTO
	require.NoError(c.t, c.call("", "Login", creds, &session))
	require.NotEmpty(c.t, session.Token)
	return session.Token
}

func assertCode(t *testing.T, want codes.Code, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, status.Code(err), "unexpected status: %v", err)
}

// TestEndToEndFlow covers Register -> Login -> Application -> History -> Reports -> Delete
func TestEndToEndFlow(t *testing.T) {
	c := startServer(t)
	token := c.session("alice")

	var me api.UserDTO
	require.NoError(t, c.call(token, "Me", api.Empty{}, &me))
	assert.Equal(t, "alice", me.Username)

	// Step A: create the application
	var app api.ApplicationDTO
	require.NoError(t, c.call(token, "CreateApplication", api.CreateApplicationRequest{
		Name:         "CDB Banco X",
		InitialValue: decimal.NewFromInt(1000),
		StartDate:    "2024-01-01",
	}, &app))
	require.NotEmpty(t, app.ID)
	assert.Equal(t, "2024-01-01", app.StartDate)

	// Step B: record two snapshots; the second one carries no net value
	net := decimal.NewFromInt(1040)
	var first api.HistoryEntryDTO
	require.NoError(t, c.call(token, "CreateHistoryEntry", api.CreateHistoryEntryRequest{
		ApplicationID: app.ID,
		Date:          "2024-02-01",
		GrossValue:    decimal.NewFromInt(1050),
		NetValue:      &net,
	}, &first))
	require.NotNil(t, first.NetValue)
	assert.True(t, net.Equal(*first.NetValue))

	require.NoError(t, c.call(token, "CreateHistoryEntry", api.CreateHistoryEntryRequest{
		ApplicationID: app.ID,
		Date:          "2024-03-01",
		GrossValue:    decimal.NewFromInt(1100),
	}, nil))

	// Repeating the latest values is rejected
	err := c.call(token, "CreateHistoryEntry", api.CreateHistoryEntryRequest{
		ApplicationID: app.ID,
		Date:          "2024-03-02",
		GrossValue:    decimal.NewFromInt(1100),
	}, nil)
	assertCode(t, codes.InvalidArgument, err)

	var list api.ListHistoryResponse
	require.NoError(t, c.call(token, "ListHistory", api.ListHistoryRequest{ApplicationID: app.ID}, &list))
	require.Len(t, list.Entries, 2)
	assert.Equal(t, "2024-02-01", list.Entries[0].Date)
	assert.Nil(t, list.Entries[1].NetValue)

	// Step C: reports
	var summary api.ApplicationSummaryDTO
	require.NoError(t, c.call(token, "GetApplicationSummary", api.IDRequest{ID: app.ID}, &summary))
	assert.True(t, decimal.NewFromInt(1100).Equal(summary.CurrentValue))
	assert.True(t, decimal.NewFromInt(100).Equal(summary.Gain.Absolute))
	assert.True(t, decimal.NewFromInt(10).Equal(summary.Gain.Percentage))
	assert.Equal(t, 2, summary.EntryCount)

	var portfolio api.PortfolioSummaryDTO
	require.NoError(t, c.call(token, "GetPortfolioSummary", api.Empty{}, &portfolio))
	assert.True(t, decimal.NewFromInt(1000).Equal(portfolio.TotalInitial))
	assert.True(t, decimal.NewFromInt(1100).Equal(portfolio.TotalCurrent))
	require.Len(t, portfolio.Applications, 1)

	var perf api.PerformanceDTO
	require.NoError(t, c.call(token, "GetPerformance", api.PerformanceRequest{
		ApplicationID: app.ID,
		Start:         "2024-02-01",
		End:           "2024-03-31",
	}, &perf))
	require.True(t, perf.HasData)
	require.NotNil(t, perf.Gain)
	assert.True(t, decimal.NewFromInt(50).Equal(perf.Gain.Absolute))
	assert.Len(t, perf.Points, 2)

	var series api.TimeSeriesResponse
	require.NoError(t, c.call(token, "GetTimeSeries", api.TimeSeriesRequest{ApplicationID: app.ID}, &series))
	assert.Len(t, series.Points, 2)

	var dump api.ExportDTO
	require.NoError(t, c.call(token, "ExportData", api.Empty{}, &dump))
	assert.Equal(t, api.ExportFormatVersion, dump.Version)
	require.Len(t, dump.Applications, 1)
	assert.Equal(t, app.ID, dump.Applications[0].ID)
	require.Len(t, dump.Applications[0].History, 2)
	assert.Equal(t, "2024-02-01", dump.Applications[0].History[0].Date)

	// Step D: deleting the application removes its history
	require.NoError(t, c.call(token, "DeleteApplication", api.IDRequest{ID: app.ID}, nil))
	assertCode(t, codes.NotFound, c.call(token, "GetApplication", api.IDRequest{ID: app.ID}, nil))
	assertCode(t, codes.NotFound, c.call(token, "ListHistory", api.ListHistoryRequest{ApplicationID: app.ID}, nil))

	dump = api.ExportDTO{}
	require.NoError(t, c.call(token, "ExportData", api.Empty{}, &dump))
	assert.Empty(t, dump.Applications)
}

func TestEndToEndAuthAndIsolation(t *testing.T) {
	c := startServer(t)
	alice := c.session("alice")
	bob := c.session("bob")

	var app api.ApplicationDTO
	require.NoError(t, c.call(alice, "CreateApplication", api.CreateApplicationRequest{
		Name:         "Tesouro Selic",
		InitialValue: decimal.NewFromInt(500),
		StartDate:    "2024-01-10",
	}, &app))

	tests := []struct {
		name   string
		token  string
		method string
		req    interface{}
		want   codes.Code
	}{
		{name: "no token", token: "", method: "ListApplications", req: api.Empty{}, want: codes.Unauthenticated},
		{name: "forged token", token: "not-a-jwt", method: "ListApplications", req: api.Empty{}, want: codes.Unauthenticated},
		{name: "foreign application", token: bob, method: "GetApplication", req: api.IDRequest{ID: app.ID}, want: codes.NotFound},
		{name: "foreign delete", token: bob, method: "DeleteApplication", req: api.IDRequest{ID: app.ID}, want: codes.NotFound},
		{name: "bad id", token: alice, method: "GetApplication", req: api.IDRequest{ID: "nope"}, want: codes.InvalidArgument},
		{name: "taken username", token: "", method: "Register", req: api.CredentialsRequest{Username: "alice", Password: "another-pass"}, want: codes.AlreadyExists},
		{name: "wrong password", token: "", method: "Login", req: api.CredentialsRequest{Username: "alice", Password: "wrong-pass"}, want: codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, tt.want, c.call(tt.token, tt.method, tt.req, nil))
		})
	}

	// Bob sees an empty portfolio
	var list api.ListApplicationsResponse
	require.NoError(t, c.call(bob, "ListApplications", api.Empty{}, &list))
	assert.Empty(t, list.Applications)
}

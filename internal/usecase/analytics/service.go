package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// ApplicationSummary is the derived view of a single application
type ApplicationSummary struct {
	Application  *domain.Application
	Latest       *domain.HistoryEntry // nil when the application has no history
	CurrentValue decimal.Decimal
	Gain         Gain
	EntryCount   int
}

// PortfolioReport is the derived view of every application of a user
type PortfolioReport struct {
	Summary      PortfolioSummary
	Applications []ApplicationSummary
}

// AnalyticsService loads a user's snapshot and derives figures from it.
// All arithmetic happens in the pure functions of this package.
type AnalyticsService struct {
	ApplicationRepo domain.ApplicationRepository
	HistoryRepo     domain.HistoryRepository
}

// NewAnalyticsService creates a new AnalyticsService instance
func NewAnalyticsService(applicationRepo domain.ApplicationRepository, historyRepo domain.HistoryRepository) *AnalyticsService {
	return &AnalyticsService{
		ApplicationRepo: applicationRepo,
		HistoryRepo:     historyRepo,
	}
}

// GetApplicationSummary computes current value and total gain of one application
func (s *AnalyticsService) GetApplicationSummary(ctx context.Context, ownerID, applicationID uuid.UUID) (*ApplicationSummary, error) {
	app, history, err := s.loadApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	summary := summarize(app, history)
	return &summary, nil
}

// GetPortfolioSummary computes totals across every application of the user
// Logic:
//   - TotalInitial: sum of initial values
//   - TotalCurrent: sum of each application's latest gross value (or initial value without history)
//   - TotalGain / TotalGainPercentage: derived from the two totals
func (s *AnalyticsService) GetPortfolioSummary(ctx context.Context, ownerID uuid.UUID) (*PortfolioReport, error) {
	apps, err := s.ApplicationRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	history, err := s.HistoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	byApp := GroupByApplication(history)
	report := &PortfolioReport{
		Summary:      Aggregate(apps, history),
		Applications: make([]ApplicationSummary, 0, len(apps)),
	}
	for _, app := range apps {
		report.Applications = append(report.Applications, summarize(app, byApp[app.ID]))
	}

	return report, nil
}

// GetPerformance computes the windowed gain of one application.
// ok is false when no entry falls inside the window.
func (s *AnalyticsService) GetPerformance(ctx context.Context, ownerID, applicationID uuid.UUID, start, end time.Time) (WindowPerformance, bool, error) {
	if domain.DateOf(end).Before(domain.DateOf(start)) {
		return WindowPerformance{}, false, domain.NewValidationError("end", "must not be before start")
	}

	app, history, err := s.loadApplication(ctx, ownerID, applicationID)
	if err != nil {
		return WindowPerformance{}, false, err
	}

	perf, ok := PerformanceOverWindow(app, history, start, end)
	return perf, ok, nil
}

// GetTimeSeries builds chart points. With a nil applicationID the series spans
// every application of the user; otherwise only the given application.
func (s *AnalyticsService) GetTimeSeries(ctx context.Context, ownerID uuid.UUID, applicationID *uuid.UUID, grouping Grouping) ([]Point, error) {
	if applicationID != nil {
		_, history, err := s.loadApplication(ctx, ownerID, *applicationID)
		if err != nil {
			return nil, err
		}
		return TimeSeries(history, grouping), nil
	}

	history, err := s.HistoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return TimeSeries(history, grouping), nil
}

// loadApplication fetches an owned application together with its history
func (s *AnalyticsService) loadApplication(ctx context.Context, ownerID, applicationID uuid.UUID) (*domain.Application, []*domain.HistoryEntry, error) {
	app, err := s.ApplicationRepo.GetByID(ctx, ownerID, applicationID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.HistoryRepo.ListByApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list history: %w", err)
	}

	return app, history, nil
}

func summarize(app *domain.Application, history []*domain.HistoryEntry) ApplicationSummary {
	return ApplicationSummary{
		Application:  app,
		Latest:       LatestEntry(history),
		CurrentValue: CurrentValue(app, history),
		Gain:         TotalGain(app, history),
		EntryCount:   len(history),
	}
}

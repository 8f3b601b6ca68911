package export

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
)

// ApplicationHistory is one application together with its entries
type ApplicationHistory struct {
	Application *domain.Application
	History     []*domain.HistoryEntry
}

// Snapshot is everything a user owns at ExportedAt
type Snapshot struct {
	ExportedAt   time.Time
	Applications []ApplicationHistory
}

// ExportService builds owner-scoped backups on request
type ExportService struct {
	ApplicationRepo domain.ApplicationRepository
	HistoryRepo     domain.HistoryRepository
	Now             func() time.Time
}

// NewExportService creates a new ExportService instance
func NewExportService(applicationRepo domain.ApplicationRepository, historyRepo domain.HistoryRepository) *ExportService {
	return &ExportService{
		ApplicationRepo: applicationRepo,
		HistoryRepo:     historyRepo,
		Now:             time.Now,
	}
}

// Export collects the owner's applications, each with its history in (date, sequence) order.
// Applications keep the repository's listing order. Entries whose application is
// not listed are left out.
func (s *ExportService) Export(ctx context.Context, ownerID uuid.UUID) (*Snapshot, error) {
	apps, err := s.ApplicationRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	entries, err := s.HistoryRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	grouped := analytics.GroupByApplication(entries)

	snapshot := &Snapshot{
		ExportedAt:   s.Now().UTC(),
		Applications: make([]ApplicationHistory, 0, len(apps)),
	}
	for _, app := range apps {
		snapshot.Applications = append(snapshot.Applications, ApplicationHistory{
			Application: app,
			History:     analytics.SortHistory(grouped[app.ID]),
		})
	}

	return snapshot, nil
}

package history

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
)

// DuplicatePolicy decides whether a new entry may repeat the latest entry's values
type DuplicatePolicy int

const (
	// DuplicateAllow accepts entries identical to the latest one
	DuplicateAllow DuplicatePolicy = iota
	// DuplicateReject rejects new entries whose gross and net values equal the latest entry's
	DuplicateReject
)

// CreateHistoryEntryInput represents the input for recording a value snapshot
type CreateHistoryEntryInput struct {
	ApplicationID uuid.UUID
	Date          time.Time
	GrossValue    decimal.Decimal
	NetValue      *decimal.Decimal
}

// UpdateHistoryEntryInput carries the fields to change; nil fields are kept.
// ClearNetValue removes a recorded net value.
type UpdateHistoryEntryInput struct {
	Date          *time.Time
	GrossValue    *decimal.Decimal
	NetValue      *decimal.Decimal
	ClearNetValue bool
}

// HistoryService handles history entry lifecycle operations
type HistoryService struct {
	ApplicationRepo domain.ApplicationRepository
	HistoryRepo     domain.HistoryRepository
	Policy          DuplicatePolicy
	Now             func() time.Time
}

// NewHistoryService creates a new HistoryService instance
func NewHistoryService(applicationRepo domain.ApplicationRepository, historyRepo domain.HistoryRepository, policy DuplicatePolicy) *HistoryService {
	return &HistoryService{
		ApplicationRepo: applicationRepo,
		HistoryRepo:     historyRepo,
		Policy:          policy,
		Now:             time.Now,
	}
}

// CreateHistoryEntry records a new value snapshot for an owned application
// Logic:
//  1. Validate values and date (no repository access on invalid input)
//  2. Verify the application is owned by ownerID (NotFoundError otherwise)
//  3. With DuplicateReject, compare against the latest existing entry
//  4. Persist; the repository assigns the insertion sequence
func (s *HistoryService) CreateHistoryEntry(ctx context.Context, ownerID uuid.UUID, input CreateHistoryEntryInput) (*domain.HistoryEntry, error) {
	entry := &domain.HistoryEntry{
		ID:            uuid.New(),
		ApplicationID: input.ApplicationID,
		OwnerID:       ownerID,
		Date:          domain.DateOf(input.Date),
		GrossValue:    input.GrossValue,
		NetValue:      input.NetValue,
		CreatedAt:     s.Now().UTC(),
	}

	if err := entry.Validate(s.Now()); err != nil {
		return nil, err
	}

	if _, err := s.ApplicationRepo.GetByID(ctx, ownerID, input.ApplicationID); err != nil {
		return nil, err
	}

	if s.Policy == DuplicateReject {
		existing, err := s.HistoryRepo.ListByApplication(ctx, ownerID, input.ApplicationID)
		if err != nil {
			return nil, err
		}
		if entry.SameValues(analytics.LatestEntry(existing)) {
			return nil, domain.NewValidationError("gross_value", "values must differ from the latest entry")
		}
	}

	if err := s.HistoryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListHistory retrieves the entries of an owned application in chronological order
func (s *HistoryService) ListHistory(ctx context.Context, ownerID, applicationID uuid.UUID) ([]*domain.HistoryEntry, error) {
	if _, err := s.ApplicationRepo.GetByID(ctx, ownerID, applicationID); err != nil {
		return nil, err
	}

	entries, err := s.HistoryRepo.ListByApplication(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	return analytics.SortHistory(entries), nil
}

// UpdateHistoryEntry applies the given fields to an owned entry.
// The duplicate guard does not apply to edits.
func (s *HistoryService) UpdateHistoryEntry(ctx context.Context, ownerID, id uuid.UUID, input UpdateHistoryEntryInput) (*domain.HistoryEntry, error) {
	current, err := s.HistoryRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Date != nil {
		updated.Date = domain.DateOf(*input.Date)
	}
	if input.GrossValue != nil {
		updated.GrossValue = *input.GrossValue
	}
	if input.ClearNetValue {
		updated.NetValue = nil
	} else if input.NetValue != nil {
		net := *input.NetValue
		updated.NetValue = &net
	}

	if err := updated.Validate(s.Now()); err != nil {
		return nil, err
	}

	rows, err := s.HistoryRepo.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.NewNotFoundError("history entry", id)
	}

	return &updated, nil
}

// DeleteHistoryEntry removes a single owned entry. Other entries are untouched.
func (s *HistoryService) DeleteHistoryEntry(ctx context.Context, ownerID, id uuid.UUID) error {
	rows, err := s.HistoryRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFoundError("history entry", id)
	}
	return nil
}

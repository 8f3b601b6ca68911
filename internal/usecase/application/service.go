package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// CreateApplicationInput represents the input for creating an application
type CreateApplicationInput struct {
	Name         string
	InitialValue decimal.Decimal
	StartDate    time.Time
}

// UpdateApplicationInput carries the fields to change; nil fields are kept
type UpdateApplicationInput struct {
	Name         *string
	InitialValue *decimal.Decimal
	StartDate    *time.Time
}

// ApplicationService handles application lifecycle operations
type ApplicationService struct {
	ApplicationRepo domain.ApplicationRepository
	Now             func() time.Time
}

// NewApplicationService creates a new ApplicationService instance
func NewApplicationService(applicationRepo domain.ApplicationRepository) *ApplicationService {
	return &ApplicationService{
		ApplicationRepo: applicationRepo,
		Now:             time.Now,
	}
}

// CreateApplication validates and persists a new application for ownerID
func (s *ApplicationService) CreateApplication(ctx context.Context, ownerID uuid.UUID, input CreateApplicationInput) (*domain.Application, error) {
	app := &domain.Application{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         strings.TrimSpace(input.Name),
		InitialValue: input.InitialValue,
		StartDate:    domain.DateOf(input.StartDate),
		CreatedAt:    s.Now().UTC(),
	}

	if err := app.Validate(s.Now()); err != nil {
		return nil, err
	}

	if err := s.ApplicationRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	return app, nil
}

// GetApplication retrieves an application owned by ownerID
func (s *ApplicationService) GetApplication(ctx context.Context, ownerID, id uuid.UUID) (*domain.Application, error) {
	return s.ApplicationRepo.GetByID(ctx, ownerID, id)
}

// ListApplications retrieves every application owned by ownerID
func (s *ApplicationService) ListApplications(ctx context.Context, ownerID uuid.UUID) ([]*domain.Application, error) {
	return s.ApplicationRepo.ListByOwner(ctx, ownerID)
}

// UpdateApplication applies the given fields to an owned application.
// Logic:
//  1. Fetch the application scoped by owner (NotFoundError otherwise)
//  2. Merge the supplied fields and re-validate as on creation
//  3. Persist; zero affected rows means it vanished meanwhile (NotFoundError)
func (s *ApplicationService) UpdateApplication(ctx context.Context, ownerID, id uuid.UUID, input UpdateApplicationInput) (*domain.Application, error) {
	current, err := s.ApplicationRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	updated := *current
	if input.Name != nil {
		updated.Name = strings.TrimSpace(*input.Name)
	}
	if input.InitialValue != nil {
		updated.InitialValue = *input.InitialValue
	}
	if input.StartDate != nil {
		updated.StartDate = domain.DateOf(*input.StartDate)
	}

	if err := updated.Validate(s.Now()); err != nil {
		return nil, err
	}

	rows, err := s.ApplicationRepo.Update(ctx, &updated)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, domain.NewNotFoundError("application", id)
	}

	return &updated, nil
}

// DeleteApplication removes an owned application together with its history.
// The repository performs both deletions in one transaction.
func (s *ApplicationService) DeleteApplication(ctx context.Context, ownerID, id uuid.UUID) error {
	rows, err := s.ApplicationRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFoundError("application", id)
	}
	return nil
}

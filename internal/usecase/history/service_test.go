package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockApplicationRepository is a mock implementation of domain.ApplicationRepository
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) Create(ctx context.Context, app *domain.Application) error {
	args := m.Called(ctx, app)
	return args.Error(0)
}

func (m *MockApplicationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Application, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Application, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Application), args.Error(1)
}

func (m *MockApplicationRepository) Update(ctx context.Context, app *domain.Application) (int64, error) {
	args := m.Called(ctx, app)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockApplicationRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(int64), args.Error(1)
}

// MockHistoryRepository is a mock implementation of domain.HistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.HistoryEntry, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) ListByApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, ownerID, applicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

func (m *MockHistoryRepository) Update(ctx context.Context, entry *domain.HistoryEntry) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockHistoryRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(int64), args.Error(1)
}

var fixedNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func newService(policy DuplicatePolicy) (*HistoryService, *MockApplicationRepository, *MockHistoryRepository) {
	appRepo := new(MockApplicationRepository)
	historyRepo := new(MockHistoryRepository)
	service := NewHistoryService(appRepo, historyRepo, policy)
	service.Now = func() time.Time { return fixedNow }
	return service, appRepo, historyRepo
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func ownedApplication() *domain.Application {
	return &domain.Application{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Name:         "Caixinha",
		InitialValue: dec("1000"),
		StartDate:    time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateHistoryEntry_Success(t *testing.T) {
	ctx := context.Background()
	service, appRepo, historyRepo := newService(DuplicateAllow)
	app := ownedApplication()

	appRepo.On("GetByID", ctx, app.OwnerID, app.ID).Return(app, nil)
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.ApplicationID == app.ID &&
			e.OwnerID == app.OwnerID &&
			e.GrossValue.Equal(dec("1050")) &&
			e.NetValue != nil && e.NetValue.Equal(dec("1025")) &&
			e.Date.Equal(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC))
	})).Return(nil)

	entry, err := service.CreateHistoryEntry(ctx, app.OwnerID, CreateHistoryEntryInput{
		ApplicationID: app.ID,
		Date:          time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC),
		GrossValue:    dec("1050"),
		NetValue:      decPtr("1025"),
	})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	appRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
	historyRepo.AssertNotCalled(t, "ListByApplication")
}

func TestCreateHistoryEntry_ValidationErrors(t *testing.T) {
	appID := uuid.New()
	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		input  CreateHistoryEntryInput
		errMsg string
	}{
		{"zero gross value", CreateHistoryEntryInput{ApplicationID: appID, Date: feb, GrossValue: decimal.Zero}, "invalid gross_value"},
		{"negative gross value", CreateHistoryEntryInput{ApplicationID: appID, Date: feb, GrossValue: dec("-10")}, "invalid gross_value"},
		{"zero net value", CreateHistoryEntryInput{ApplicationID: appID, Date: feb, GrossValue: dec("10"), NetValue: decPtr("0")}, "invalid net_value"},
		{"future date", CreateHistoryEntryInput{ApplicationID: appID, Date: fixedNow.AddDate(0, 0, 2), GrossValue: dec("10")}, "must not be in the future"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, appRepo, historyRepo := newService(DuplicateReject)

			entry, err := service.CreateHistoryEntry(ctx, uuid.New(), tt.input)

			assert.Nil(t, entry)
			assert.True(t, domain.IsValidation(err))
			assert.Contains(t, err.Error(), tt.errMsg)
			appRepo.AssertNotCalled(t, "GetByID")
			historyRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestCreateHistoryEntry_ApplicationNotOwned(t *testing.T) {
	ctx := context.Background()
	service, appRepo, historyRepo := newService(DuplicateAllow)
	ownerID, appID := uuid.New(), uuid.New()

	appRepo.On("GetByID", ctx, ownerID, appID).Return(nil, domain.NewNotFoundError("application", appID))

	entry, err := service.CreateHistoryEntry(ctx, ownerID, CreateHistoryEntryInput{
		ApplicationID: appID,
		Date:          fixedNow,
		GrossValue:    dec("1050"),
	})

	assert.Nil(t, entry)
	assert.True(t, domain.IsNotFound(err))
	historyRepo.AssertNotCalled(t, "Create")
}

func TestCreateHistoryEntry_DuplicateGuard(t *testing.T) {
	feb := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	march := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		policy    DuplicatePolicy
		gross     string
		net       *decimal.Decimal
		wantErr   bool
		listCalls bool
	}{
		{name: "reject identical values", policy: DuplicateReject, gross: "1100", net: decPtr("1080"), wantErr: true, listCalls: true},
		{name: "accept different net", policy: DuplicateReject, gross: "1100", net: decPtr("1081"), listCalls: true},
		{name: "accept values of an older entry", policy: DuplicateReject, gross: "1050", net: decPtr("1025"), listCalls: true},
		{name: "allow identical values when disabled", policy: DuplicateAllow, gross: "1100", net: decPtr("1080")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			service, appRepo, historyRepo := newService(tt.policy)
			app := ownedApplication()
			existing := []*domain.HistoryEntry{
				{ID: uuid.New(), ApplicationID: app.ID, OwnerID: app.OwnerID, Date: march, GrossValue: dec("1100"), NetValue: decPtr("1080"), Sequence: 2},
				{ID: uuid.New(), ApplicationID: app.ID, OwnerID: app.OwnerID, Date: feb, GrossValue: dec("1050"), NetValue: decPtr("1025"), Sequence: 1},
			}

			appRepo.On("GetByID", ctx, app.OwnerID, app.ID).Return(app, nil)
			historyRepo.On("ListByApplication", ctx, app.OwnerID, app.ID).Return(existing, nil).Maybe()
			historyRepo.On("Create", ctx, mock.Anything).Return(nil).Maybe()

			entry, err := service.CreateHistoryEntry(ctx, app.OwnerID, CreateHistoryEntryInput{
				ApplicationID: app.ID,
				Date:          fixedNow,
				GrossValue:    dec(tt.gross),
				NetValue:      tt.net,
			})

			if tt.wantErr {
				assert.Nil(t, entry)
				assert.True(t, domain.IsValidation(err))
				assert.Contains(t, err.Error(), "latest entry")
				historyRepo.AssertNotCalled(t, "Create", ctx, mock.Anything)
			} else {
				require.NoError(t, err)
				historyRepo.AssertCalled(t, "Create", ctx, mock.Anything)
			}
			if tt.listCalls {
				historyRepo.AssertCalled(t, "ListByApplication", ctx, app.OwnerID, app.ID)
			} else {
				historyRepo.AssertNotCalled(t, "ListByApplication", ctx, app.OwnerID, app.ID)
			}
		})
	}
}

func TestListHistory_SortsChronologically(t *testing.T) {
	ctx := context.Background()
	service, appRepo, historyRepo := newService(DuplicateAllow)
	app := ownedApplication()

	march := &domain.HistoryEntry{ID: uuid.New(), ApplicationID: app.ID, Date: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), GrossValue: dec("1100"), Sequence: 1}
	feb := &domain.HistoryEntry{ID: uuid.New(), ApplicationID: app.ID, Date: time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), GrossValue: dec("1050"), Sequence: 2}

	appRepo.On("GetByID", ctx, app.OwnerID, app.ID).Return(app, nil)
	historyRepo.On("ListByApplication", ctx, app.OwnerID, app.ID).Return([]*domain.HistoryEntry{march, feb}, nil)

	entries, err := service.ListHistory(ctx, app.OwnerID, app.ID)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Same(t, feb, entries[0])
	assert.Same(t, march, entries[1])
}

func TestUpdateHistoryEntry(t *testing.T) {
	ctx := context.Background()
	service, _, historyRepo := newService(DuplicateReject)
	ownerID := uuid.New()
	current := &domain.HistoryEntry{
		ID:            uuid.New(),
		ApplicationID: uuid.New(),
		OwnerID:       ownerID,
		Date:          time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC),
		GrossValue:    dec("1050"),
		NetValue:      decPtr("1025"),
		Sequence:      4,
	}

	historyRepo.On("GetByID", ctx, ownerID, current.ID).Return(current, nil)
	historyRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.ID == current.ID && e.GrossValue.Equal(dec("1060")) && e.NetValue == nil && e.Sequence == 4
	})).Return(int64(1), nil)

	gross := dec("1060")
	updated, err := service.UpdateHistoryEntry(ctx, ownerID, current.ID, UpdateHistoryEntryInput{
		GrossValue:    &gross,
		ClearNetValue: true,
	})

	require.NoError(t, err)
	assert.Nil(t, updated.NetValue)
	assert.NotNil(t, current.NetValue, "stored snapshot must not be mutated in place")
	historyRepo.AssertNotCalled(t, "ListByApplication")
}

func TestUpdateHistoryEntry_Errors(t *testing.T) {
	ctx := context.Background()
	ownerID, id := uuid.New(), uuid.New()

	t.Run("not owned", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("GetByID", ctx, ownerID, id).Return(nil, domain.NewNotFoundError("history entry", id))

		gross := dec("10")
		_, err := service.UpdateHistoryEntry(ctx, ownerID, id, UpdateHistoryEntryInput{GrossValue: &gross})

		assert.True(t, domain.IsNotFound(err))
		historyRepo.AssertNotCalled(t, "Update")
	})

	t.Run("invalid net value", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("GetByID", ctx, ownerID, id).Return(&domain.HistoryEntry{
			ID: id, ApplicationID: uuid.New(), OwnerID: ownerID, Date: fixedNow, GrossValue: dec("10"),
		}, nil)

		_, err := service.UpdateHistoryEntry(ctx, ownerID, id, UpdateHistoryEntryInput{NetValue: decPtr("-1")})

		assert.True(t, domain.IsValidation(err))
		historyRepo.AssertNotCalled(t, "Update")
	})

	t.Run("zero rows affected", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("GetByID", ctx, ownerID, id).Return(&domain.HistoryEntry{
			ID: id, ApplicationID: uuid.New(), OwnerID: ownerID, Date: fixedNow, GrossValue: dec("10"),
		}, nil)
		historyRepo.On("Update", ctx, mock.Anything).Return(int64(0), nil)

		gross := dec("11")
		_, err := service.UpdateHistoryEntry(ctx, ownerID, id, UpdateHistoryEntryInput{GrossValue: &gross})

		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDeleteHistoryEntry(t *testing.T) {
	ctx := context.Background()
	ownerID, id := uuid.New(), uuid.New()

	t.Run("deleted", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("Delete", ctx, ownerID, id).Return(int64(1), nil)

		assert.NoError(t, service.DeleteHistoryEntry(ctx, ownerID, id))
	})

	t.Run("absent or not owned", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("Delete", ctx, ownerID, id).Return(int64(0), nil)

		assert.True(t, domain.IsNotFound(service.DeleteHistoryEntry(ctx, ownerID, id)))
	})

	t.Run("storage failure", func(t *testing.T) {
		service, _, historyRepo := newService(DuplicateAllow)
		historyRepo.On("Delete", ctx, ownerID, id).Return(int64(0), domain.NewStorageError("delete history entry", errors.New("broken pipe")))

		assert.True(t, domain.IsStorage(service.DeleteHistoryEntry(ctx, ownerID, id)))
	})
}

package domain

import (
	"context"

	"github.com/google/uuid"
)

// Every lookup below is scoped by owner. A row owned by somebody else is
// reported exactly like a missing row (*NotFoundError or zero rows affected).
// Adapter failures surface as *StorageError.

// ApplicationRepository defines the interface for application persistence operations
type ApplicationRepository interface {
	// Create inserts a new application
	Create(ctx context.Context, app *Application) error

	// GetByID retrieves an application owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Application, error)

	// ListByOwner retrieves all applications of a user ordered by start date
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*Application, error)

	// Update rewrites name, initial value and start date.
	// Returns the number of rows affected.
	Update(ctx context.Context, app *Application) (int64, error)

	// Delete removes the application and all of its history entries in a single
	// transaction. Returns the number of application rows affected.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
}

// HistoryRepository defines the interface for history entry persistence operations
type HistoryRepository interface {
	// Create inserts a new entry and assigns its Sequence
	Create(ctx context.Context, entry *HistoryEntry) error

	// GetByID retrieves an entry owned by ownerID
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*HistoryEntry, error)

	// ListByApplication retrieves the entries of one application ordered by date and sequence
	ListByApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]*HistoryEntry, error)

	// ListByOwner retrieves the entries of every application of a user
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*HistoryEntry, error)

	// Update rewrites date, gross and net values. Returns the number of rows affected.
	Update(ctx context.Context, entry *HistoryEntry) (int64, error)

	// Delete removes a single entry. Returns the number of rows affected.
	Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error)
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	// Create inserts a new user. A taken username yields *ConflictError.
	Create(ctx context.Context, user *User) error

	// GetByUsername retrieves a user by username
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByID retrieves a user by ID
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

// applicationRepository implements domain.ApplicationRepository
type applicationRepository struct {
	db *DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB) domain.ApplicationRepository {
	return &applicationRepository{db: db}
}

const applicationColumns = `id, owner_id, name, initial_value, start_date, created_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var app domain.Application
	var initialValueStr string

	if err := row.Scan(
		&app.ID,
		&app.OwnerID,
		&app.Name,
		&initialValueStr,
		&app.StartDate,
		&app.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse initial_value (NUMERIC)
	initialValue, err := decimal.NewFromString(initialValueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial_value: %w", err)
	}
	app.InitialValue = initialValue
	app.StartDate = domain.DateOf(app.StartDate)

	return &app, nil
}

// Create inserts a new application
func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	query := `
		INSERT INTO applications (id, owner_id, name, initial_value, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		app.ID,
		app.OwnerID,
		app.Name,
		app.InitialValue.String(),
		app.StartDate,
		app.CreatedAt,
	)
	if err != nil {
		if parentMissing(err) {
			return domain.NewNotFoundError("user", app.OwnerID)
		}
		return storageError("insert application", err)
	}

	return nil
}

// GetByID retrieves an application owned by ownerID
func (r *applicationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE id = $1 AND owner_id = $2
	`

	app, err := scanApplication(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("application", id)
		}
		return nil, storageError("get application", err)
	}

	return app, nil
}

// ListByOwner retrieves all applications of a user ordered by start date
func (r *applicationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Application, error) {
	query := `SELECT ` + applicationColumns + `
		FROM applications
		WHERE owner_id = $1
		ORDER BY start_date ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, storageError("list applications", err)
	}
	defer rows.Close()

	apps := make([]*domain.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, storageError("scan application", err)
		}
		apps = append(apps, app)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterate applications", err)
	}

	return apps, nil
}

// Update rewrites name, initial value and start date of an owned application
func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) (int64, error) {
	query := `
		UPDATE applications
		SET name = $1, initial_value = $2, start_date = $3
		WHERE id = $4 AND owner_id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		app.Name,
		app.InitialValue.String(),
		app.StartDate,
		app.ID,
		app.OwnerID,
	)
	if err != nil {
		return 0, storageError("update application", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("update application", err)
	}

	return rows, nil
}

// Delete removes the application and its history in one database transaction
func (r *applicationRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	// Start a database transaction
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageError("begin delete application", err)
	}
	defer dbTx.Rollback()

	// History first so no entry can outlive its application
	_, err = dbTx.ExecContext(ctx, `DELETE FROM history WHERE application_id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return 0, storageError("delete application history", err)
	}

	result, err := dbTx.ExecContext(ctx, `DELETE FROM applications WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return 0, storageError("delete application", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("delete application", err)
	}
	if rows == 0 {
		return 0, nil
	}

	// Commit the transaction
	if err := dbTx.Commit(); err != nil {
		return 0, storageError("commit delete application", err)
	}

	return rows, nil
}

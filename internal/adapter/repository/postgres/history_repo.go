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

// historyRepository implements domain.HistoryRepository
type historyRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) domain.HistoryRepository {
	return &historyRepository{db: db}
}

const historyColumns = `id, seq, application_id, owner_id, date, gross_value, net_value, created_at`

func scanHistoryEntry(row rowScanner) (*domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var grossValueStr string
	var netValue sql.NullString

	if err := row.Scan(
		&entry.ID,
		&entry.Sequence,
		&entry.ApplicationID,
		&entry.OwnerID,
		&entry.Date,
		&grossValueStr,
		&netValue,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse gross_value (NUMERIC)
	gross, err := decimal.NewFromString(grossValueStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gross_value: %w", err)
	}
	entry.GrossValue = gross

	// Parse net_value (nullable NUMERIC)
	if netValue.Valid {
		net, err := decimal.NewFromString(netValue.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net_value: %w", err)
		}
		entry.NetValue = &net
	}

	entry.Date = domain.DateOf(entry.Date)

	return &entry, nil
}

func netValueArg(entry *domain.HistoryEntry) interface{} {
	if entry.NetValue == nil {
		return nil
	}
	return entry.NetValue.String()
}

// Create inserts a new entry and reads back its insertion sequence
func (r *historyRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO history (id, application_id, owner_id, date, gross_value, net_value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING seq
	`

	err := r.db.QueryRowContext(ctx, query,
		entry.ID,
		entry.ApplicationID,
		entry.OwnerID,
		entry.Date,
		entry.GrossValue.String(),
		netValueArg(entry),
		entry.CreatedAt,
	).Scan(&entry.Sequence)
	if err != nil {
		// the application was deleted between the ownership check and the insert
		if parentMissing(err) {
			return domain.NewNotFoundError("application", entry.ApplicationID)
		}
		return storageError("insert history entry", err)
	}

	return nil
}

// GetByID retrieves an entry owned by ownerID
func (r *historyRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
		FROM history
		WHERE id = $1 AND owner_id = $2
	`

	entry, err := scanHistoryEntry(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNotFoundError("history entry", id)
		}
		return nil, storageError("get history entry", err)
	}

	return entry, nil
}

// ListByApplication retrieves the entries of one application ordered by date and sequence
func (r *historyRepository) ListByApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]*domain.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
		FROM history
		WHERE application_id = $1 AND owner_id = $2
		ORDER BY date ASC, seq ASC
	`

	return r.list(ctx, query, applicationID, ownerID)
}

// ListByOwner retrieves the entries of every application of a user
func (r *historyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.HistoryEntry, error) {
	query := `SELECT ` + historyColumns + `
		FROM history
		WHERE owner_id = $1
		ORDER BY date ASC, seq ASC
	`

	return r.list(ctx, query, ownerID)
}

func (r *historyRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageError("list history", err)
	}
	defer rows.Close()

	entries := make([]*domain.HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, storageError("scan history entry", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storageError("iterate history", err)
	}

	return entries, nil
}

// Update rewrites date, gross and net values of an owned entry
func (r *historyRepository) Update(ctx context.Context, entry *domain.HistoryEntry) (int64, error) {
	query := `
		UPDATE history
		SET date = $1, gross_value = $2, net_value = $3
		WHERE id = $4 AND owner_id = $5
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.Date,
		entry.GrossValue.String(),
		netValueArg(entry),
		entry.ID,
		entry.OwnerID,
	)
	if err != nil {
		return 0, storageError("update history entry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("update history entry", err)
	}

	return rows, nil
}

// Delete removes a single owned entry
func (r *historyRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM history WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return 0, storageError("delete history entry", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, storageError("delete history entry", err)
	}

	return rows, nil
}

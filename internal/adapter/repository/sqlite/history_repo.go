package sqlite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *DB) domain.HistoryRepository {
	return &historyRepository{db: db.db}
}

// Create inserts the entry; the autoincrement key becomes its Sequence
func (r *historyRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	m := toHistoryModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if parentMissing(err) {
			return domain.NewNotFoundError("application", entry.ApplicationID)
		}
		return storageError("insert history entry", err)
	}
	entry.Sequence = m.Seq
	return nil
}

func (r *historyRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.HistoryEntry, error) {
	var m historyModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("history entry", id)
		}
		return nil, storageError("get history entry", err)
	}

	entry, err := m.toDomain()
	if err != nil {
		return nil, storageError("get history entry", err)
	}
	return entry, nil
}

func (r *historyRepository) ListByApplication(ctx context.Context, ownerID, applicationID uuid.UUID) ([]*domain.HistoryEntry, error) {
	return r.list(ctx, r.db.Where("application_id = ? AND owner_id = ?", applicationID.String(), ownerID.String()))
}

func (r *historyRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.HistoryEntry, error) {
	return r.list(ctx, r.db.Where("owner_id = ?", ownerID.String()))
}

func (r *historyRepository) list(ctx context.Context, scope *gorm.DB) ([]*domain.HistoryEntry, error) {
	var models []historyModel
	if err := scope.WithContext(ctx).Order("date ASC").Order("seq ASC").Find(&models).Error; err != nil {
		return nil, storageError("list history", err)
	}

	entries := make([]*domain.HistoryEntry, 0, len(models))
	for i := range models {
		entry, err := models[i].toDomain()
		if err != nil {
			return nil, storageError("scan history entry", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *historyRepository) Update(ctx context.Context, entry *domain.HistoryEntry) (int64, error) {
	m := toHistoryModel(entry)
	result := r.db.WithContext(ctx).
		Model(&historyModel{}).
		Where("id = ? AND owner_id = ?", m.ID, m.OwnerID).
		Updates(map[string]interface{}{
			"date":        m.Date,
			"gross_value": m.GrossValue,
			"net_value":   m.NetValue,
		})
	if result.Error != nil {
		return 0, storageError("update history entry", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *historyRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		Delete(&historyModel{})
	if result.Error != nil {
		return 0, storageError("delete history entry", result.Error)
	}
	return result.RowsAffected, nil
}

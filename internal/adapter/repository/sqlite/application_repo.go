package sqlite

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository
func NewApplicationRepository(db *DB) domain.ApplicationRepository {
	return &applicationRepository{db: db.db}
}

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if err := r.db.WithContext(ctx).Create(toApplicationModel(app)).Error; err != nil {
		if parentMissing(err) {
			return domain.NewNotFoundError("user", app.OwnerID)
		}
		return storageError("insert application", err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Application, error) {
	var m applicationModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("application", id)
		}
		return nil, storageError("get application", err)
	}

	app, err := m.toDomain()
	if err != nil {
		return nil, storageError("get application", err)
	}
	return app, nil
}

func (r *applicationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Application, error) {
	var models []applicationModel
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("start_date ASC").Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, storageError("list applications", err)
	}

	apps := make([]*domain.Application, 0, len(models))
	for i := range models {
		app, err := models[i].toDomain()
		if err != nil {
			return nil, storageError("scan application", err)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func (r *applicationRepository) Update(ctx context.Context, app *domain.Application) (int64, error) {
	m := toApplicationModel(app)
	result := r.db.WithContext(ctx).
		Model(&applicationModel{}).
		Where("id = ? AND owner_id = ?", m.ID, m.OwnerID).
		Updates(map[string]interface{}{
			"name":          m.Name,
			"initial_value": m.InitialValue,
			"start_date":    m.StartDate,
		})
	if result.Error != nil {
		return 0, storageError("update application", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes the application and its history in one transaction
func (r *applicationRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (int64, error) {
	var rows int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("application_id = ? AND owner_id = ?", id.String(), ownerID.String()).
			Delete(&historyModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND owner_id = ?", id.String(), ownerID.String()).
			Delete(&applicationModel{})
		if result.Error != nil {
			return result.Error
		}
		rows = result.RowsAffected
		if rows == 0 {
			return errNothingDeleted
		}
		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return 0, nil
	}
	if err != nil {
		return 0, storageError("delete application", err)
	}
	return rows, nil
}

// errNothingDeleted rolls back a cascade that matched no application
var errNothingDeleted = errors.New("nothing deleted")

package sqlite

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/caixinha-backend/internal/domain"
)

// Monetary columns are TEXT so no precision is lost to SQLite's REAL affinity.

type userModel struct {
	ID           string    `gorm:"type:text;primaryKey"`
	Username     string    `gorm:"not null;uniqueIndex"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

type applicationModel struct {
	ID           string    `gorm:"type:text;primaryKey"`
	OwnerID      string    `gorm:"type:text;not null;index:idx_applications_owner"`
	Name         string    `gorm:"not null"`
	InitialValue string    `gorm:"type:text;not null"`
	StartDate    time.Time `gorm:"not null;index:idx_applications_owner"`
	CreatedAt    time.Time `gorm:"not null"`

	Owner *userModel `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
}

func (applicationModel) TableName() string { return "applications" }

type historyModel struct {
	Seq           int64     `gorm:"primaryKey;autoIncrement"`
	ID            string    `gorm:"type:text;not null;uniqueIndex"`
	ApplicationID string    `gorm:"type:text;not null;index:idx_history_application"`
	OwnerID       string    `gorm:"type:text;not null;index"`
	Date          time.Time `gorm:"not null;index:idx_history_application"`
	GrossValue    string    `gorm:"type:text;not null"`
	NetValue      *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"not null"`

	// An entry cannot outlive its application
	Application *applicationModel `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE"`
	Owner       *userModel        `gorm:"foreignKey:OwnerID;references:ID;constraint:OnDelete:CASCADE"`
}

func (historyModel) TableName() string { return "history" }

func toUserModel(user *domain.User) *userModel {
	return &userModel{
		ID:           user.ID.String(),
		Username:     user.Username,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
}

func (m *userModel) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id: %w", err)
	}
	return &domain.User{
		ID:           id,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}, nil
}

func toApplicationModel(app *domain.Application) *applicationModel {
	return &applicationModel{
		ID:           app.ID.String(),
		OwnerID:      app.OwnerID.String(),
		Name:         app.Name,
		InitialValue: app.InitialValue.String(),
		StartDate:    domain.DateOf(app.StartDate),
		CreatedAt:    app.CreatedAt,
	}
}

func (m *applicationModel) toDomain() (*domain.Application, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse application id: %w", err)
	}
	ownerID, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner id: %w", err)
	}
	initialValue, err := decimal.NewFromString(m.InitialValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse initial_value: %w", err)
	}
	return &domain.Application{
		ID:           id,
		OwnerID:      ownerID,
		Name:         m.Name,
		InitialValue: initialValue,
		StartDate:    domain.DateOf(m.StartDate),
		CreatedAt:    m.CreatedAt,
	}, nil
}

func toHistoryModel(entry *domain.HistoryEntry) *historyModel {
	m := &historyModel{
		ID:            entry.ID.String(),
		ApplicationID: entry.ApplicationID.String(),
		OwnerID:       entry.OwnerID.String(),
		Date:          domain.DateOf(entry.Date),
		GrossValue:    entry.GrossValue.String(),
		CreatedAt:     entry.CreatedAt,
	}
	if entry.NetValue != nil {
		net := entry.NetValue.String()
		m.NetValue = &net
	}
	return m
}

func (m *historyModel) toDomain() (*domain.HistoryEntry, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse history id: %w", err)
	}
	applicationID, err := uuid.Parse(m.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse application id: %w", err)
	}
	ownerID, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse owner id: %w", err)
	}
	gross, err := decimal.NewFromString(m.GrossValue)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gross_value: %w", err)
	}

	entry := &domain.HistoryEntry{
		ID:            id,
		ApplicationID: applicationID,
		OwnerID:       ownerID,
		Date:          domain.DateOf(m.Date),
		GrossValue:    gross,
		Sequence:      m.Seq,
		CreatedAt:     m.CreatedAt,
	}
	if m.NetValue != nil {
		net, err := decimal.NewFromString(*m.NetValue)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net_value: %w", err)
		}
		entry.NetValue = &net
	}
	return entry, nil
}

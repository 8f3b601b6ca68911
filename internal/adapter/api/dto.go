package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
	"github.com/simaogato/caixinha-backend/internal/usecase/export"
	"github.com/simaogato/caixinha-backend/internal/usecase/user"
)

// Monetary fields travel as decimal strings and dates as YYYY-MM-DD.
// decimal.Decimal also accepts bare JSON numbers on input.

// Empty is the request or response of operations without a payload
type Empty struct{}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserDTO struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

type IDRequest struct {
	ID string `json:"id"`
}

type ApplicationDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	InitialValue decimal.Decimal `json:"initialValue"`
	StartDate    string          `json:"startDate"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type CreateApplicationRequest struct {
	Name         string          `json:"name"`
	InitialValue decimal.Decimal `json:"initialValue"`
	StartDate    string          `json:"startDate"`
}

// UpdateApplicationRequest changes only the fields present
type UpdateApplicationRequest struct {
	ID           string           `json:"id"`
	Name         *string          `json:"name,omitempty"`
	InitialValue *decimal.Decimal `json:"initialValue,omitempty"`
	StartDate    *string          `json:"startDate,omitempty"`
}

type ListApplicationsResponse struct {
	Applications []ApplicationDTO `json:"applications"`
}

type HistoryEntryDTO struct {
	ID            string           `json:"id"`
	ApplicationID string           `json:"applicationId"`
	Date          string           `json:"date"`
	GrossValue    decimal.Decimal  `json:"grossValue"`
	NetValue      *decimal.Decimal `json:"netValue,omitempty"`
	Sequence      int64            `json:"sequence"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// ExportFormatVersion is bumped whenever ExportDTO changes shape
const ExportFormatVersion = 1

// ExportDTO is a self-contained copy of everything a user owns.
// Credentials are never included.
type ExportDTO struct {
	Version      int                    `json:"version"`
	ExportedAt   time.Time              `json:"exportedAt"`
	Applications []ApplicationExportDTO `json:"applications"`
}

type ApplicationExportDTO struct {
	ApplicationDTO
	History []HistoryEntryDTO `json:"history"`
}

type CreateHistoryEntryRequest struct {
	ApplicationID string           `json:"applicationId"`
	Date          string           `json:"date"`
	GrossValue    decimal.Decimal  `json:"grossValue"`
	NetValue      *decimal.Decimal `json:"netValue,omitempty"`
}

// UpdateHistoryEntryRequest changes only the fields present.
// ClearNetValue drops a recorded net value.
type UpdateHistoryEntryRequest struct {
	ID            string           `json:"id"`
	Date          *string          `json:"date,omitempty"`
	GrossValue    *decimal.Decimal `json:"grossValue,omitempty"`
	NetValue      *decimal.Decimal `json:"netValue,omitempty"`
	ClearNetValue bool             `json:"clearNetValue,omitempty"`
}

type ListHistoryRequest struct {
	ApplicationID string `json:"applicationId"`
}

type ListHistoryResponse struct {
	Entries []HistoryEntryDTO `json:"entries"`
}

type GainDTO struct {
	Absolute   decimal.Decimal `json:"absolute"`
	Percentage decimal.Decimal `json:"percentage"`
}

type ApplicationSummaryDTO struct {
	Application  ApplicationDTO   `json:"application"`
	Latest       *HistoryEntryDTO `json:"latest,omitempty"`
	CurrentValue decimal.Decimal  `json:"currentValue"`
	Gain         GainDTO          `json:"gain"`
	EntryCount   int              `json:"entryCount"`
}

type PortfolioSummaryDTO struct {
	TotalInitial        decimal.Decimal         `json:"totalInitial"`
	TotalCurrent        decimal.Decimal         `json:"totalCurrent"`
	TotalGain           decimal.Decimal         `json:"totalGain"`
	TotalGainPercentage decimal.Decimal         `json:"totalGainPercentage"`
	Applications        []ApplicationSummaryDTO `json:"applications"`
}

// PerformanceRequest takes either a preset or an explicit start/end pair
type PerformanceRequest struct {
	ApplicationID string `json:"applicationId"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	Preset        string `json:"preset,omitempty"`
}

type PerformanceDTO struct {
	HasData bool              `json:"hasData"`
	Start   string            `json:"start"`
	End     string            `json:"end"`
	First   *HistoryEntryDTO  `json:"first,omitempty"`
	Last    *HistoryEntryDTO  `json:"last,omitempty"`
	Gain    *GainDTO          `json:"gain,omitempty"`
	Points  []HistoryEntryDTO `json:"points"`
}

// TimeSeriesRequest spans every application when ApplicationID is empty
type TimeSeriesRequest struct {
	ApplicationID string `json:"applicationId,omitempty"`
	Grouping      string `json:"grouping,omitempty"`
}

type PointDTO struct {
	Date          string          `json:"date"`
	ApplicationID string          `json:"applicationId,omitempty"`
	GrossValue    decimal.Decimal `json:"grossValue"`
	NetValue      decimal.Decimal `json:"netValue"`
	Entries       int             `json:"entries"`
}

type TimeSeriesResponse struct {
	Points []PointDTO `json:"points"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:        u.ID.String(),
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}

func toSessionDTO(s *user.Session) SessionDTO {
	return SessionDTO{
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
		User:      toUserDTO(s.User),
	}
}

func toApplicationDTO(app *domain.Application) ApplicationDTO {
	return ApplicationDTO{
		ID:           app.ID.String(),
		Name:         app.Name,
		InitialValue: app.InitialValue,
		StartDate:    domain.FormatDate(app.StartDate),
		CreatedAt:    app.CreatedAt,
	}
}

func toHistoryEntryDTO(entry *domain.HistoryEntry) HistoryEntryDTO {
	return HistoryEntryDTO{
		ID:            entry.ID.String(),
		ApplicationID: entry.ApplicationID.String(),
		Date:          domain.FormatDate(entry.Date),
		GrossValue:    entry.GrossValue,
		NetValue:      entry.NetValue,
		Sequence:      entry.Sequence,
		CreatedAt:     entry.CreatedAt,
	}
}

func toHistoryEntryDTOs(entries []*domain.HistoryEntry) []HistoryEntryDTO {
	out := make([]HistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, toHistoryEntryDTO(entry))
	}
	return out
}

func toExportDTO(snapshot *export.Snapshot) *ExportDTO {
	apps := make([]ApplicationExportDTO, 0, len(snapshot.Applications))
	for _, a := range snapshot.Applications {
		apps = append(apps, ApplicationExportDTO{
			ApplicationDTO: toApplicationDTO(a.Application),
			History:        toHistoryEntryDTOs(a.History),
		})
	}
	return &ExportDTO{
		Version:      ExportFormatVersion,
		ExportedAt:   snapshot.ExportedAt,
		Applications: apps,
	}
}

func optionalEntryDTO(entry *domain.HistoryEntry) *HistoryEntryDTO {
	if entry == nil {
		return nil
	}
	dto := toHistoryEntryDTO(entry)
	return &dto
}

// Percentages are rounded to two places for display; absolute values stay exact
func toGainDTO(g analytics.Gain) GainDTO {
	return GainDTO{
		Absolute:   g.Absolute,
		Percentage: g.Percentage.Round(2),
	}
}

func toApplicationSummaryDTO(s analytics.ApplicationSummary) ApplicationSummaryDTO {
	return ApplicationSummaryDTO{
		Application:  toApplicationDTO(s.Application),
		Latest:       optionalEntryDTO(s.Latest),
		CurrentValue: s.CurrentValue,
		Gain:         toGainDTO(s.Gain),
		EntryCount:   s.EntryCount,
	}
}

func toPointDTO(p analytics.Point) PointDTO {
	dto := PointDTO{
		Date:       domain.FormatDate(p.Date),
		GrossValue: p.GrossValue,
		NetValue:   p.NetValue,
		Entries:    p.Entries,
	}
	if p.ApplicationID != uuid.Nil {
		dto.ApplicationID = p.ApplicationID.String()
	}
	return dto
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// HistoryEntry is a dated snapshot of an application's value.
// GrossValue is the pre-tax/fee value, NetValue the post-tax/fee value.
type HistoryEntry struct {
	ID            uuid.UUID
	ApplicationID uuid.UUID
	OwnerID       uuid.UUID
	Date          time.Time        // Calendar date (00:00 UTC)
	GrossValue    decimal.Decimal  // Always positive
	NetValue      *decimal.Decimal // nil when not recorded; positive otherwise
	Sequence      int64            // Insertion order assigned by the store
	CreatedAt     time.Time
}

// Validate ensures the entry adheres to domain rules
func (h *HistoryEntry) Validate(today time.Time) error {
	if h.ApplicationID == uuid.Nil {
		return NewValidationError("application_id", "must reference an application")
	}

	if h.GrossValue.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("gross_value", "must be positive")
	}

	if h.NetValue != nil && h.NetValue.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("net_value", "must be positive")
	}

	if err := validateDate("date", h.Date, today); err != nil {
		return err
	}

	if h.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", "must reference a user")
	}

	return nil
}

// SameValues reports whether h records exactly the same gross and net values as other.
// Two absent net values count as equal.
func (h *HistoryEntry) SameValues(other *HistoryEntry) bool {
	if other == nil || !h.GrossValue.Equal(other.GrossValue) {
		return false
	}
	if h.NetValue == nil || other.NetValue == nil {
		return h.NetValue == nil && other.NetValue == nil
	}
	return h.NetValue.Equal(*other.NetValue)
}

package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinApplicationNameLength is the minimum number of characters in an application name
const MinApplicationNameLength = 2

// Application represents a savings/investment bucket owned by a single user
type Application struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Name         string
	InitialValue decimal.Decimal // Amount invested at StartDate, always positive
	StartDate    time.Time       // Calendar date (00:00 UTC)
	CreatedAt    time.Time
}

// Validate ensures the application adheres to domain rules.
// today bounds the start date; future dates are rejected.
func (a *Application) Validate(today time.Time) error {
	if utf8.RuneCountInString(strings.TrimSpace(a.Name)) < MinApplicationNameLength {
		return NewValidationError("name", "must be at least 2 characters")
	}

	if a.InitialValue.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("initial_value", "must be positive")
	}

	if err := validateDate("start_date", a.StartDate, today); err != nil {
		return err
	}

	if a.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", "must reference a user")
	}

	return nil
}

package domain

import "time"

// DateLayout is the ISO calendar date format used on the wire
const DateLayout = "2006-01-02"

// MinDate is the earliest calendar date accepted for start dates and history entries
var MinDate = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// DateOf truncates t to its calendar date at 00:00 UTC.
// The calendar date is taken in t's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD)
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders t as an ISO calendar date
func FormatDate(t time.Time) string {
	return DateOf(t).Format(DateLayout)
}

// validateDate checks that date lies within [MinDate, today]
func validateDate(field string, date, today time.Time) error {
	if date.IsZero() {
		return NewValidationError(field, "date is required")
	}
	d := DateOf(date)
	if d.Before(MinDate) {
		return NewValidationError(field, "date must not be before 1900-01-01")
	}
	if d.After(DateOf(today)) {
		return NewValidationError(field, "date must not be in the future")
	}
	return nil
}

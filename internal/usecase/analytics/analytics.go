package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/caixinha-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Gain is an absolute and percentage change relative to a baseline
type Gain struct {
	Absolute   decimal.Decimal
	Percentage decimal.Decimal
}

// WindowPerformance is the gain between the first and last entry inside a date window
type WindowPerformance struct {
	Start  time.Time
	End    time.Time
	First  *domain.HistoryEntry
	Last   *domain.HistoryEntry
	Gain   Gain
	Points []*domain.HistoryEntry // Entries inside the window, ascending
}

// PortfolioSummary aggregates every application of a user
type PortfolioSummary struct {
	TotalInitial        decimal.Decimal
	TotalCurrent        decimal.Decimal
	TotalGain           decimal.Decimal
	TotalGainPercentage decimal.Decimal
}

// Grouping selects how TimeSeries folds entries into points
type Grouping string

const (
	// GroupingPerEntry emits one point per history entry
	GroupingPerEntry Grouping = "per-entry"
	// GroupingByDate sums all entries sharing a calendar date across applications
	GroupingByDate Grouping = "by-date"
)

// Point is one sample of a chart series.
// ApplicationID is uuid.Nil for by-date points, which span applications.
type Point struct {
	Date          time.Time
	ApplicationID uuid.UUID
	GrossValue    decimal.Decimal
	NetValue      decimal.Decimal
	Entries       int
}

// Preset names a report window relative to now
type Preset string

const (
	PresetLast7Days   Preset = "last-7-days"
	PresetMonthToDate Preset = "month-to-date"
)

// percentage returns part/base*100, or zero when base is zero
func percentage(part, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return part.Div(base).Mul(hundred)
}

// later reports whether a should be preferred over b as the most recent entry.
// Dates are compared first; on the same date the higher insertion sequence wins.
func later(a, b *domain.HistoryEntry) bool {
	da, db := domain.DateOf(a.Date), domain.DateOf(b.Date)
	if !da.Equal(db) {
		return da.After(db)
	}
	return a.Sequence >= b.Sequence
}

// LatestEntry returns the entry with the greatest date, or nil for an empty history.
// Ties on date go to the highest Sequence, then to the entry appearing last.
func LatestEntry(history []*domain.HistoryEntry) *domain.HistoryEntry {
	var latest *domain.HistoryEntry
	for _, entry := range history {
		if entry == nil {
			continue
		}
		if latest == nil || later(entry, latest) {
			latest = entry
		}
	}
	return latest
}

// CurrentValue returns the latest gross value, falling back to the initial value
func CurrentValue(app *domain.Application, history []*domain.HistoryEntry) decimal.Decimal {
	if latest := LatestEntry(history); latest != nil {
		return latest.GrossValue
	}
	return app.InitialValue
}

// TotalGain computes the gain of an application relative to its initial value.
// Percentage is zero when the initial value is zero.
func TotalGain(app *domain.Application, history []*domain.HistoryEntry) Gain {
	absolute := CurrentValue(app, history).Sub(app.InitialValue)
	return Gain{
		Absolute:   absolute,
		Percentage: percentage(absolute, app.InitialValue),
	}
}

// SortHistory returns a copy of entries ordered by date, then sequence.
// The input slice is not modified.
func SortHistory(entries []*domain.HistoryEntry) []*domain.HistoryEntry {
	out := make([]*domain.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := domain.DateOf(out[i].Date), domain.DateOf(out[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// PerformanceOverWindow computes the gain between the first and last entries
// dated within [start, end] (calendar days, inclusive). The baseline is the
// first entry in the window, not the application's initial value.
// ok is false when the window holds no entries.
func PerformanceOverWindow(app *domain.Application, history []*domain.HistoryEntry, start, end time.Time) (WindowPerformance, bool) {
	from, to := domain.DateOf(start), domain.DateOf(end)

	var inWindow []*domain.HistoryEntry
	for _, entry := range history {
		if entry == nil || !belongsTo(app, entry) {
			continue
		}
		d := domain.DateOf(entry.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		inWindow = append(inWindow, entry)
	}

	if len(inWindow) == 0 {
		return WindowPerformance{Start: from, End: to}, false
	}

	points := SortHistory(inWindow)
	first, last := points[0], points[len(points)-1]
	gain := last.GrossValue.Sub(first.GrossValue)

	return WindowPerformance{
		Start:  from,
		End:    to,
		First:  first,
		Last:   last,
		Gain:   Gain{Absolute: gain, Percentage: percentage(gain, first.GrossValue)},
		Points: points,
	}, true
}

// belongsTo reports whether entry can be part of app's history.
// Entries or applications without an ID are not filtered.
func belongsTo(app *domain.Application, entry *domain.HistoryEntry) bool {
	if app == nil || app.ID == uuid.Nil || entry.ApplicationID == uuid.Nil {
		return true
	}
	return entry.ApplicationID == app.ID
}

// PresetWindow resolves a named report window ending at now.
// ok is false for an unknown preset.
func PresetWindow(preset Preset, now time.Time) (start, end time.Time, ok bool) {
	end = domain.DateOf(now)
	switch preset {
	case PresetLast7Days:
		return end.AddDate(0, 0, -7), end, true
	case PresetMonthToDate:
		return time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC), end, true
	default:
		return time.Time{}, time.Time{}, false
	}
}

// GroupByApplication buckets history entries by their application ID
func GroupByApplication(history []*domain.HistoryEntry) map[uuid.UUID][]*domain.HistoryEntry {
	grouped := make(map[uuid.UUID][]*domain.HistoryEntry)
	for _, entry := range history {
		if entry == nil {
			continue
		}
		grouped[entry.ApplicationID] = append(grouped[entry.ApplicationID], entry)
	}
	return grouped
}

// Aggregate sums initial and current values across applications.
// Entries referencing applications outside the list are ignored.
func Aggregate(applications []*domain.Application, history []*domain.HistoryEntry) PortfolioSummary {
	byApp := GroupByApplication(history)

	totalInitial := decimal.Zero
	totalCurrent := decimal.Zero
	for _, app := range applications {
		if app == nil {
			continue
		}
		totalInitial = totalInitial.Add(app.InitialValue)
		totalCurrent = totalCurrent.Add(CurrentValue(app, byApp[app.ID]))
	}

	totalGain := totalCurrent.Sub(totalInitial)

	return PortfolioSummary{
		TotalInitial:        totalInitial,
		TotalCurrent:        totalCurrent,
		TotalGain:           totalGain,
		TotalGainPercentage: percentage(totalGain, totalInitial),
	}
}

// TimeSeries turns history into ordered chart points.
// Absent net values contribute zero. An unknown grouping is treated as per-entry.
func TimeSeries(history []*domain.HistoryEntry, grouping Grouping) []Point {
	sorted := SortHistory(history)

	if grouping != GroupingByDate {
		points := make([]Point, 0, len(sorted))
		for _, entry := range sorted {
			points = append(points, Point{
				Date:          domain.DateOf(entry.Date),
				ApplicationID: entry.ApplicationID,
				GrossValue:    entry.GrossValue,
				NetValue:      netOrZero(entry),
				Entries:       1,
			})
		}
		return points
	}

	points := make([]Point, 0)
	for _, entry := range sorted {
		d := domain.DateOf(entry.Date)
		if n := len(points); n > 0 && points[n-1].Date.Equal(d) {
			points[n-1].GrossValue = points[n-1].GrossValue.Add(entry.GrossValue)
			points[n-1].NetValue = points[n-1].NetValue.Add(netOrZero(entry))
			points[n-1].Entries++
			continue
		}
		points = append(points, Point{
			Date:       d,
			GrossValue: entry.GrossValue,
			NetValue:   netOrZero(entry),
			Entries:    1,
		})
	}
	return points
}

func netOrZero(entry *domain.HistoryEntry) decimal.Decimal {
	if entry.NetValue == nil {
		return decimal.Zero
	}
	return *entry.NetValue
}

package api

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
)

func (a *API) GetApplicationSummary(ctx context.Context, req *IDRequest) (*ApplicationSummaryDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	summary, err := a.Analytics.GetApplicationSummary(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	dto := toApplicationSummaryDTO(*summary)
	return &dto, nil
}

func (a *API) GetPortfolioSummary(ctx context.Context, _ *Empty) (*PortfolioSummaryDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	report, err := a.Analytics.GetPortfolioSummary(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dto := &PortfolioSummaryDTO{
		TotalInitial:        report.Summary.TotalInitial,
		TotalCurrent:        report.Summary.TotalCurrent,
		TotalGain:           report.Summary.TotalGain,
		TotalGainPercentage: report.Summary.TotalGainPercentage.Round(2),
		Applications:        make([]ApplicationSummaryDTO, 0, len(report.Applications)),
	}
	for _, s := range report.Applications {
		dto.Applications = append(dto.Applications, toApplicationSummaryDTO(s))
	}
	return dto, nil
}

// GetPerformance reports the gain inside a window. A named preset wins over
// explicit start and end dates. An empty window is not an error: HasData is false.
func (a *API) GetPerformance(ctx context.Context, req *PerformanceRequest) (*PerformanceDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	applicationID, err := parseID("application_id", req.ApplicationID)
	if err != nil {
		return nil, err
	}

	start, end, err := a.window(req)
	if err != nil {
		return nil, err
	}

	perf, ok, err := a.Analytics.GetPerformance(ctx, ownerID, applicationID, start, end)
	if err != nil {
		return nil, err
	}

	dto := &PerformanceDTO{
		HasData: ok,
		Start:   domain.FormatDate(start),
		End:     domain.FormatDate(end),
		Points:  []HistoryEntryDTO{},
	}
	if ok {
		gain := toGainDTO(perf.Gain)
		dto.First = optionalEntryDTO(perf.First)
		dto.Last = optionalEntryDTO(perf.Last)
		dto.Gain = &gain
		dto.Points = toHistoryEntryDTOs(perf.Points)
	}
	return dto, nil
}

func (a *API) window(req *PerformanceRequest) (time.Time, time.Time, error) {
	if req.Preset != "" {
		start, end, ok := analytics.PresetWindow(analytics.Preset(req.Preset), a.Now())
		if !ok {
			return time.Time{}, time.Time{}, domain.NewValidationError("preset", "must be last-7-days or month-to-date")
		}
		return start, end, nil
	}

	start, err := parseDate("start", req.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDate("end", req.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, domain.NewValidationError("start", "is required without a preset")
	}
	if end.IsZero() {
		return time.Time{}, time.Time{}, domain.NewValidationError("end", "is required without a preset")
	}
	return start, end, nil
}

// GetTimeSeries returns chart points for one application or the whole portfolio
func (a *API) GetTimeSeries(ctx context.Context, req *TimeSeriesRequest) (*TimeSeriesResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	grouping := analytics.Grouping(req.Grouping)
	switch grouping {
	case "":
		grouping = analytics.GroupingPerEntry
	case analytics.GroupingPerEntry, analytics.GroupingByDate:
	default:
		return nil, domain.NewValidationError("grouping", "must be per-entry or by-date")
	}

	var applicationID *uuid.UUID
	if req.ApplicationID != "" {
		id, err := parseID("application_id", req.ApplicationID)
		if err != nil {
			return nil, err
		}
		applicationID = &id
	}

	points, err := a.Analytics.GetTimeSeries(ctx, ownerID, applicationID, grouping)
	if err != nil {
		return nil, err
	}

	resp := &TimeSeriesResponse{Points: make([]PointDTO, 0, len(points))}
	for _, p := range points {
		resp.Points = append(resp.Points, toPointDTO(p))
	}
	return resp, nil
}

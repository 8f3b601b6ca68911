package api

import (
	"context"

	"github.com/simaogato/caixinha-backend/internal/usecase/history"
)

func (a *API) CreateHistoryEntry(ctx context.Context, req *CreateHistoryEntryRequest) (*HistoryEntryDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	applicationID, err := parseID("application_id", req.ApplicationID)
	if err != nil {
		return nil, err
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return nil, err
	}

	entry, err := a.History.CreateHistoryEntry(ctx, ownerID, history.CreateHistoryEntryInput{
		ApplicationID: applicationID,
		Date:          date,
		GrossValue:    req.GrossValue,
		NetValue:      req.NetValue,
	})
	if err != nil {
		return nil, err
	}
	a.recordMutation("history", "create")

	dto := toHistoryEntryDTO(entry)
	return &dto, nil
}

// ListHistory returns the entries of one application, oldest first
func (a *API) ListHistory(ctx context.Context, req *ListHistoryRequest) (*ListHistoryResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	applicationID, err := parseID("application_id", req.ApplicationID)
	if err != nil {
		return nil, err
	}

	entries, err := a.History.ListHistory(ctx, ownerID, applicationID)
	if err != nil {
		return nil, err
	}

	return &ListHistoryResponse{Entries: toHistoryEntryDTOs(entries)}, nil
}

func (a *API) UpdateHistoryEntry(ctx context.Context, req *UpdateHistoryEntryRequest) (*HistoryEntryDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	input := history.UpdateHistoryEntryInput{
		GrossValue:    req.GrossValue,
		NetValue:      req.NetValue,
		ClearNetValue: req.ClearNetValue,
	}
	if req.Date != nil {
		date, err := parseDate("date", *req.Date)
		if err != nil {
			return nil, err
		}
		input.Date = &date
	}

	entry, err := a.History.UpdateHistoryEntry(ctx, ownerID, id, input)
	if err != nil {
		return nil, err
	}
	a.recordMutation("history", "update")

	dto := toHistoryEntryDTO(entry)
	return &dto, nil
}

func (a *API) DeleteHistoryEntry(ctx context.Context, req *IDRequest) (*Empty, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	if err := a.History.DeleteHistoryEntry(ctx, ownerID, id); err != nil {
		return nil, err
	}
	a.recordMutation("history", "delete")

	return &Empty{}, nil
}

package api

import (
	"context"

	"github.com/simaogato/caixinha-backend/internal/usecase/application"
)

func (a *API) CreateApplication(ctx context.Context, req *CreateApplicationRequest) (*ApplicationDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	startDate, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return nil, err
	}

	app, err := a.Applications.CreateApplication(ctx, ownerID, application.CreateApplicationInput{
		Name:         req.Name,
		InitialValue: req.InitialValue,
		StartDate:    startDate,
	})
	if err != nil {
		return nil, err
	}
	a.recordMutation("application", "create")

	dto := toApplicationDTO(app)
	return &dto, nil
}

func (a *API) GetApplication(ctx context.Context, req *IDRequest) (*ApplicationDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	app, err := a.Applications.GetApplication(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	dto := toApplicationDTO(app)
	return &dto, nil
}

func (a *API) ListApplications(ctx context.Context, _ *Empty) (*ListApplicationsResponse, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	apps, err := a.Applications.ListApplications(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	resp := &ListApplicationsResponse{Applications: make([]ApplicationDTO, 0, len(apps))}
	for _, app := range apps {
		resp.Applications = append(resp.Applications, toApplicationDTO(app))
	}
	return resp, nil
}

func (a *API) UpdateApplication(ctx context.Context, req *UpdateApplicationRequest) (*ApplicationDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	input := application.UpdateApplicationInput{
		Name:         req.Name,
		InitialValue: req.InitialValue,
	}
	if req.StartDate != nil {
		startDate, err := parseDate("start_date", *req.StartDate)
		if err != nil {
			return nil, err
		}
		input.StartDate = &startDate
	}

	app, err := a.Applications.UpdateApplication(ctx, ownerID, id, input)
	if err != nil {
		return nil, err
	}
	a.recordMutation("application", "update")

	dto := toApplicationDTO(app)
	return &dto, nil
}

// DeleteApplication removes the application and all of its history
func (a *API) DeleteApplication(ctx context.Context, req *IDRequest) (*Empty, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("id", req.ID)
	if err != nil {
		return nil, err
	}

	if err := a.Applications.DeleteApplication(ctx, ownerID, id); err != nil {
		return nil, err
	}
	a.recordMutation("application", "delete")

	return &Empty{}, nil
}

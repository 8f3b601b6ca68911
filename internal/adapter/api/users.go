package api

import (
	"context"
)

// Register creates an account. Public.
func (a *API) Register(ctx context.Context, req *CredentialsRequest) (*UserDTO, error) {
	u, err := a.Users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	a.recordMutation("user", "create")

	dto := toUserDTO(u)
	return &dto, nil
}

// Login exchanges credentials for a bearer token. Public.
func (a *API) Login(ctx context.Context, req *CredentialsRequest) (*SessionDTO, error) {
	session, err := a.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	dto := toSessionDTO(session)
	return &dto, nil
}

// Me returns the authenticated user
func (a *API) Me(ctx context.Context, _ *Empty) (*UserDTO, error) {
	ownerID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	u, err := a.Users.GetUser(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dto := toUserDTO(u)
	return &dto, nil
}

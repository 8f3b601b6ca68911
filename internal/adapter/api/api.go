// Package api is the transport-neutral request layer. Both the gRPC and the
// REST adapters decode into these request types and call the same methods.
package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/caixinha-backend/internal/auth"
	"github.com/simaogato/caixinha-backend/internal/domain"
	"github.com/simaogato/caixinha-backend/internal/usecase/analytics"
	"github.com/simaogato/caixinha-backend/internal/usecase/application"
	"github.com/simaogato/caixinha-backend/internal/usecase/export"
	"github.com/simaogato/caixinha-backend/internal/usecase/history"
	"github.com/simaogato/caixinha-backend/internal/usecase/user"
)

// ErrUnauthenticated is returned when a protected operation runs without an owner in context
var ErrUnauthenticated = errors.New("authentication required")

// MutationRecorder counts successful writes
type MutationRecorder interface {
	RecordMutation(entity, op string)
}

// API wires the use case services behind a single request surface
type API struct {
	Users        *user.UserService
	Applications *application.ApplicationService
	History      *history.HistoryService
	Analytics    *analytics.AnalyticsService
	Export       *export.ExportService
	Mutations    MutationRecorder
	Now          func() time.Time
}

// New creates a new API instance
func New(
	users *user.UserService,
	applications *application.ApplicationService,
	historyService *history.HistoryService,
	analyticsService *analytics.AnalyticsService,
	exporter *export.ExportService,
	mutations MutationRecorder,
) *API {
	return &API{
		Users:        users,
		Applications: applications,
		History:      historyService,
		Analytics:    analyticsService,
		Export:       exporter,
		Mutations:    mutations,
		Now:          time.Now,
	}
}

func (a *API) recordMutation(entity, op string) {
	if a.Mutations != nil {
		a.Mutations.RecordMutation(entity, op)
	}
}

// owner extracts the authenticated user id placed in ctx by the transport
func owner(ctx context.Context) (uuid.UUID, error) {
	ownerID, ok := auth.OwnerFrom(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return ownerID, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a valid UUID")
	}
	return id, nil
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp. An empty string
// yields the zero time so domain validation reports the missing date.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := domain.ParseDate(raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return domain.DateOf(t), nil
	}
	return time.Time{}, domain.NewValidationError(field, "must be a YYYY-MM-DD date")
}

// Code is the transport-neutral classification of an error
type Code int

const (
	CodeInternal Code = iota
	CodeInvalidArgument
	CodeNotFound
	CodeConflict
	CodeUnauthenticated
)

// Classify maps an error returned by an API method to a Code
func Classify(err error) Code {
	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, user.ErrInvalidCredentials):
		return CodeUnauthenticated
	case domain.IsValidation(err):
		return CodeInvalidArgument
	case domain.IsNotFound(err):
		return CodeNotFound
	case domain.IsConflict(err):
		return CodeConflict
	default:
		return CodeInternal
	}
}

// PublicMessage returns the message safe to show a client.
// Internal failures are opaque; their detail belongs in the server log.
func PublicMessage(err error) string {
	if Classify(err) == CodeInternal {
		return "internal error"
	}
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict.Message
	}
	return err.Error()
}

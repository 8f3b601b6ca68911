// Package http exposes the api package as a JSON REST surface.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/simaogato/caixinha-backend/internal/adapter/api"
	"github.com/simaogato/caixinha-backend/internal/adapter/metrics"
)

// TokenVerifier resolves a bearer token to a user id
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// Server routes REST requests to the api package
type Server struct {
	API      *api.API
	Verifier TokenVerifier
	Metrics  *metrics.Metrics
	Log      logrus.FieldLogger
}

// NewServer creates a new REST server
func NewServer(a *api.API, verifier TokenVerifier, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	return &Server{API: a, Verifier: verifier, Metrics: m, Log: log}
}

// Routes builds the router
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.Log))
	if s.Metrics != nil {
		r.Use(metricsMiddleware(s.Metrics))
		r.Handle("/metrics", s.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	// Public
	r.HandleFunc("/api/users", endpoint(s, (*api.API).Register, http.StatusCreated, bindBody[api.CredentialsRequest])).Methods(http.MethodPost)
	r.HandleFunc("/api/auth", endpoint(s, (*api.API).Login, http.StatusOK, bindBody[api.CredentialsRequest])).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(authMiddleware(s.Verifier))

	protected.HandleFunc("/users/me", endpoint(s, (*api.API).Me, http.StatusOK, nil)).Methods(http.MethodGet)

	protected.HandleFunc("/applications", endpoint(s, (*api.API).CreateApplication, http.StatusCreated, bindBody[api.CreateApplicationRequest])).Methods(http.MethodPost)
	protected.HandleFunc("/applications", endpoint(s, (*api.API).ListApplications, http.StatusOK, nil)).Methods(http.MethodGet)
	protected.HandleFunc("/applications/{id}", endpoint(s, (*api.API).GetApplication, http.StatusOK, bindID)).Methods(http.MethodGet)
	protected.HandleFunc("/applications/{id}", endpoint(s, (*api.API).UpdateApplication, http.StatusOK,
		bindBodyWithID(func(req *api.UpdateApplicationRequest, id string) { req.ID = id }))).Methods(http.MethodPut)
	protected.HandleFunc("/applications/{id}", endpoint(s, (*api.API).DeleteApplication, http.StatusNoContent, bindID)).Methods(http.MethodDelete)
	protected.HandleFunc("/applications/{id}/history", endpoint(s, (*api.API).ListHistory, http.StatusOK, bindListHistory)).Methods(http.MethodGet)
	protected.HandleFunc("/applications/{id}/summary", endpoint(s, (*api.API).GetApplicationSummary, http.StatusOK, bindID)).Methods(http.MethodGet)
	protected.HandleFunc("/applications/{id}/performance", endpoint(s, (*api.API).GetPerformance, http.StatusOK, bindPerformance)).Methods(http.MethodGet)

	protected.HandleFunc("/history", endpoint(s, (*api.API).CreateHistoryEntry, http.StatusCreated, bindBody[api.CreateHistoryEntryRequest])).Methods(http.MethodPost)
	protected.HandleFunc("/history/{id}", endpoint(s, (*api.API).UpdateHistoryEntry, http.StatusOK,
		bindBodyWithID(func(req *api.UpdateHistoryEntryRequest, id string) { req.ID = id }))).Methods(http.MethodPut)
	protected.HandleFunc("/history/{id}", endpoint(s, (*api.API).DeleteHistoryEntry, http.StatusNoContent, bindID)).Methods(http.MethodDelete)

	protected.HandleFunc("/portfolio/summary", endpoint(s, (*api.API).GetPortfolioSummary, http.StatusOK, nil)).Methods(http.MethodGet)
	protected.HandleFunc("/timeseries", endpoint(s, (*api.API).GetTimeSeries, http.StatusOK, bindTimeSeries)).Methods(http.MethodGet)

	protected.HandleFunc("/export", s.exportData).Methods(http.MethodGet)

	return r
}

// endpoint binds the request, calls the api method and writes the JSON result
func endpoint[Req, Resp any](
	s *Server,
	call func(*api.API, context.Context, *Req) (*Resp, error),
	successStatus int,
	bind func(*http.Request, *Req) error,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if bind != nil {
			if err := bind(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "malformed request: "+err.Error())
				return
			}
		}

		resp, err := call(s.API, r.Context(), &req)
		if err != nil {
			s.writeAPIError(w, r, err)
			return
		}

		if successStatus == http.StatusNoContent {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, successStatus, resp)
	}
}

// exportData serves the caller's data as a downloadable JSON file
func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	dump, err := s.API.ExportData(r.Context(), &api.Empty{})
	if err != nil {
		s.writeAPIError(w, r, err)
		return
	}

	filename := fmt.Sprintf("caixinha-export-%s.json", dump.ExportedAt.Format("2006-01-02"))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeJSON(w, http.StatusOK, dump)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func bindBody[Req any](r *http.Request, req *Req) error {
	return decodeJSON(r, req)
}

func bindBodyWithID[Req any](setID func(*Req, string)) func(*http.Request, *Req) error {
	return func(r *http.Request, req *Req) error {
		if err := decodeJSON(r, req); err != nil {
			return err
		}
		setID(req, mux.Vars(r)["id"])
		return nil
	}
}

func bindID(r *http.Request, req *api.IDRequest) error {
	req.ID = mux.Vars(r)["id"]
	return nil
}

func bindListHistory(r *http.Request, req *api.ListHistoryRequest) error {
	req.ApplicationID = mux.Vars(r)["id"]
	return nil
}

func bindPerformance(r *http.Request, req *api.PerformanceRequest) error {
	q := r.URL.Query()
	req.ApplicationID = mux.Vars(r)["id"]
	req.Start = q.Get("start")
	req.End = q.Get("end")
	req.Preset = q.Get("preset")
	return nil
}

func bindTimeSeries(r *http.Request, req *api.TimeSeriesRequest) error {
	q := r.URL.Query()
	req.ApplicationID = q.Get("applicationId")
	req.Grouping = q.Get("grouping")
	return nil
}

func (s *Server) writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	code := api.Classify(err)
	if code == api.CodeInternal && s.Log != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	writeError(w, httpStatus(code), api.PublicMessage(err))
}

func httpStatus(code api.Code) int {
	switch code {
	case api.CodeInvalidArgument:
		return http.StatusBadRequest
	case api.CodeNotFound:
		return http.StatusNotFound
	case api.CodeConflict:
		return http.StatusConflict
	case api.CodeUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Package serverapp exposes generate, fetch and history over HTTP.
package serverapp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"sosfetch/core/internal/audit"
	"sosfetch/core/internal/sosreport"
	"sosfetch/log"
)

type Config struct {
	PSK string
}

// Tools is the subset of *sosreport.Service the server calls.
type Tools interface {
	Generate(ctx context.Context, req sosreport.GenerateRequest) (sosreport.GenerateResult, error)
	Fetch(ctx context.Context, req sosreport.FetchRequest) (sosreport.FetchResult, error)
}

// History lists audit records. May be nil.
type History interface {
	Recent(host string, limit int) ([]audit.Record, error)
	Get(id string) (*audit.Record, error)
}

type Server struct {
	cfg     Config
	tools   Tools
	history History
}

type errorBody struct {
	Error string         `json:"error"`
	Kind  sosreport.Kind `json:"kind,omitempty"`
}

func New(cfg Config, tools Tools, history History) *Server {
	return &Server{cfg: cfg, tools: tools, history: history}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/sosreports", s.handleGenerate)
	mux.HandleFunc("/v1/sosreports/fetch", s.handleFetch)
	mux.HandleFunc("/v1/history", s.handleHistory)
	mux.HandleFunc("/v1/history/", s.handleHistoryRecord)
	return requestID(mux)
}

// requestID tags every response with an X-Request-ID, reusing the caller's.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		log.With(log.Fields{"request_id": id, "method": r.Method, "path": r.URL.Path}).Debug("HTTP request")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requirePSK(r *http.Request) bool {
	if s.cfg.PSK == "" {
		return true
	}
	psk := r.Header.Get("X-PSK")
	return subtle.ConstantTimeCompare([]byte(psk), []byte(s.cfg.PSK)) == 1
}

// guard checks method and PSK and writes the error response itself.
func (s *Server) guard(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return false
	}
	if !s.requirePSK(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or missing X-PSK"})
		return false
	}
	return true
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}
	var req sosreport.GenerateRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.tools.Generate(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodPost) {
		return
	}
	var req sosreport.FetchRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.tools.Fetch(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "history is not enabled"})
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be a non-negative integer", Kind: sosreport.InvalidInput})
			return
		}
		limit = n
	}
	recs, err := s.history.Recent(r.URL.Query().Get("host"), limit)
	if err != nil {
		log.Check(log.WarnLevel, "Reading history", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	if recs == nil {
		recs = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// handleHistoryRecord serves /v1/history/{id}.
func (s *Server) handleHistoryRecord(w http.ResponseWriter, r *http.Request) {
	if !s.guard(w, r, http.MethodGet) {
		return
	}
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "history is not enabled"})
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/history/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	rec, err := s.history.Get(id)
	if errors.Is(err, audit.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
		return
	}
	if err != nil {
		log.Check(log.WarnLevel, "Reading history record "+id, err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body: " + err.Error(), Kind: sosreport.InvalidInput})
		return false
	}
	return true
}

// StatusFor maps an error kind to the HTTP status returned for it.
func StatusFor(kind sosreport.Kind) int {
	switch kind {
	case sosreport.InvalidInput:
		return http.StatusBadRequest
	case sosreport.DependencyMissing:
		return http.StatusFailedDependency
	case sosreport.InsufficientPrivilege:
		return http.StatusForbidden
	case sosreport.Timeout:
		return http.StatusGatewayTimeout
	case sosreport.PathNotFound, sosreport.UnexpectedOutput, sosreport.CommandFailure, sosreport.TransportFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	kind := sosreport.KindOf(err)
	writeJSON(w, StatusFor(kind), errorBody{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

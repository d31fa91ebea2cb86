// Package api exposes HTTP handlers for the journal service.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
)

// Fixed client-facing error messages.
const (
	msgMissingData    = "Missing data"
	msgInvalidBody    = "Invalid request body"
	msgInternalError  = "Internal server error"
	msgMethodNotAllow = "Method not allowed"
	msgBodyTooLarge   = "Request body too large"
)

// maxRequestBytes caps POST bodies; a journal entry is two short strings.
const maxRequestBytes = 64 << 10

var errInvalidField = errors.New("field is not a string")

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
	logger  *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{
		service: service,
		logger:  log.New(log.Writer(), "[api] ", log.LstdFlags),
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/logs", h.logs)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) logs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createLogEntry(w, r)
	case http.MethodGet:
		h.listLogEntries(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllow)
	}
}

func (h *Handler) listLogEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.ListLogEntries(r.Context())
	if err != nil {
		h.logger.Printf("list log entries: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	items := make([]LogEntryView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toLogEntryView(entry))
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) createLogEntry(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))

	var req CreateLogEntryRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	input, err := req.input()
	if err != nil {
		if errors.Is(err, domain.ErrMissingData) {
			writeError(w, http.StatusBadRequest, msgMissingData)
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}

	entry, err := h.service.CreateLogEntry(r.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrMissingData) {
			writeError(w, http.StatusBadRequest, msgMissingData)
			return
		}
		h.logger.Printf("create log entry: %v", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	writeJSON(w, http.StatusCreated, toLogEntryView(*entry))
}

// CreateLogEntryRequest is the payload for POST /api/logs. Fields stay raw so
// that any falsy JSON value reads as missing before its type is checked.
type CreateLogEntryRequest struct {
	Activity json.RawMessage `json:"activity"`
	SlotTime json.RawMessage `json:"slot_time"`
}

func (req CreateLogEntryRequest) input() (domain.CreateLogEntryInput, error) {
	if isFalsy(req.Activity) || isFalsy(req.SlotTime) {
		return domain.CreateLogEntryInput{}, domain.ErrMissingData
	}
	activity, err := stringField(req.Activity)
	if err != nil {
		return domain.CreateLogEntryInput{}, err
	}
	slotTime, err := stringField(req.SlotTime)
	if err != nil {
		return domain.CreateLogEntryInput{}, err
	}
	return domain.CreateLogEntryInput{Activity: activity, SlotTime: slotTime}, nil
}

// isFalsy reports an absent field or one holding null, false, zero, "", [] or {}.
func isFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func stringField(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", errInvalidField
	}
	return s, nil
}

// LogEntryView is the wire representation of a journal entry.
type LogEntryView struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Activity  string    `json:"activity"`
	SlotTime  string    `json:"slot_time"`
}

// ErrorResponse is returned for every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toLogEntryView(entry domain.LogEntry) LogEntryView {
	return LogEntryView{
		ID:        entry.ID,
		Timestamp: entry.Timestamp.UTC(),
		Activity:  entry.Activity,
		SlotTime:  entry.SlotTime,
	}
}

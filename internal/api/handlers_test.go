package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/domain"
	"github.com/Sifael/15-Minute-Time-Keeper-App/internal/persistence/memory"
)

func newTestHandler(t *testing.T, repo domain.LogRepository) (*Handler, *http.ServeMux) {
	t.Helper()
	start := time.Date(2026, time.October, 15, 20, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Minute)
	}

	handler := NewHandler(domain.NewService(repo, domain.WithClock(clock)))
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	return handler, mux
}

func doRequest(mux *http.ServeMux, method, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/logs", nil)
	} else {
		req = httptest.NewRequest(method, "/api/logs", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestListEmptyStore(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	rr := doRequest(mux, http.MethodGet, "")

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.JSONEq(t, `[]`, rr.Body.String())
}

func TestCreateLogEntry(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	rr := doRequest(mux, http.MethodPost, `{"activity": "Read book", "slot_time": "20:15"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "Read book", body["activity"])
	require.Equal(t, "20:15", body["slot_time"])
	require.IsType(t, float64(0), body["id"])

	raw, ok := body["timestamp"].(string)
	require.True(t, ok, "timestamp should be a string")
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	require.NoError(t, err)
	require.True(t, time.Date(2026, time.October, 15, 20, 1, 0, 0, time.UTC).Equal(parsed))
	require.True(t, strings.HasSuffix(raw, "Z"), "timestamps are rendered in UTC")
}

func TestCreateRejectsMissingData(t *testing.T) {
	cases := map[string]string{
		"missing slot_time": `{"activity": "Read book"}`,
		"missing activity":  `{"slot_time": "20:15"}`,
		"empty activity":    `{"activity": "", "slot_time": "20:15"}`,
		"empty slot_time":   `{"activity": "Read book", "slot_time": ""}`,
		"null activity":     `{"activity": null, "slot_time": "20:15"}`,
		"empty object":      `{}`,
		"json null":         `null`,
		"false activity":    `{"activity": false, "slot_time": "20:15"}`,
		"zero slot_time":    `{"activity": "Read book", "slot_time": 0}`,
		"float zero":        `{"activity": "Read book", "slot_time": 0.0}`,
		"empty array":       `{"activity": [], "slot_time": "20:15"}`,
		"empty object slot": `{"activity": "Read book", "slot_time": {}}`,
		"falsy beats type":  `{"activity": 5, "slot_time": ""}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			repo := memory.NewRepository()
			_, mux := newTestHandler(t, repo)

			rr := doRequest(mux, http.MethodPost, payload)
			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.JSONEq(t, `{"error": "Missing data"}`, rr.Body.String())

			entries, err := repo.ListAll(context.Background())
			require.NoError(t, err)
			require.Empty(t, entries, "rejected requests must not persist anything")
		})
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	cases := map[string]string{
		"not json":          `activity=Read`,
		"empty body":        ``,
		"non-string fields": `{"activity": 5, "slot_time": "20:15"}`,
		"true activity":     `{"activity": true, "slot_time": "20:15"}`,
		"array slot_time":   `{"activity": "Read", "slot_time": ["20:15"]}`,
		"array":             `[]`,
		"trailing garbage":  `{"activity":"Read","slot_time":"20:15"} trailing-garbage`,
		"two objects":       `{"activity":"Read","slot_time":"20:15"}{"activity":"Run","slot_time":"20:30"}`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			repo := memory.NewRepository()
			_, mux := newTestHandler(t, repo)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(payload))
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			require.JSONEq(t, `{"error": "Invalid request body"}`, rr.Body.String())

			entries, err := repo.ListAll(context.Background())
			require.NoError(t, err)
			require.Empty(t, entries)
		})
	}
}

func TestCreateAcceptsTrailingWhitespace(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	rr := doRequest(mux, http.MethodPost, "{\"activity\": \"Read\", \"slot_time\": \"20:15\"}\n\n")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	repo := memory.NewRepository()
	_, mux := newTestHandler(t, repo)

	payload := `{"activity": "` + strings.Repeat("a", maxRequestBytes) + `", "slot_time": "20:15"}`
	rr := doRequest(mux, http.MethodPost, payload)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.JSONEq(t, `{"error": "Request body too large"}`, rr.Body.String())

	entries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestListReturnsNewestFirst(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	var ids []float64
	for _, activity := range []string{"A", "B", "C"} {
		rr := doRequest(mux, http.MethodPost, `{"activity": "`+activity+`", "slot_time": "20:15"}`)
		require.Equal(t, http.StatusCreated, rr.Code)

		var created LogEntryView
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
		if len(ids) > 0 {
			require.Greater(t, float64(created.ID), ids[len(ids)-1])
		}
		ids = append(ids, float64(created.ID))
	}

	rr := doRequest(mux, http.MethodGet, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var items []LogEntryView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &items))
	require.Len(t, items, 3)
	require.Equal(t, "C", items[0].Activity)
	require.Equal(t, "B", items[1].Activity)
	require.Equal(t, "A", items[2].Activity)
	for i := 1; i < len(items); i++ {
		require.False(t, items[i].Timestamp.After(items[i-1].Timestamp), "timestamps must be non-increasing")
	}
}

func TestStorageFailureReturns500(t *testing.T) {
	_, mux := newTestHandler(t, brokenRepo{err: errors.New("database is locked")})

	rr := doRequest(mux, http.MethodGet, "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.JSONEq(t, `{"error": "Internal server error"}`, rr.Body.String())

	rr = doRequest(mux, http.MethodPost, `{"activity": "Read book", "slot_time": "20:15"}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "database is locked", "store details stay in the logs")
}

func TestUnsupportedMethod(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	rr := doRequest(mux, http.MethodDelete, "")
	require.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	require.Equal(t, "GET, POST", rr.Header().Get("Allow"))
}

func TestHealthz(t *testing.T) {
	_, mux := newTestHandler(t, memory.NewRepository())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestToLogEntryViewNormalisesToUTC(t *testing.T) {
	local := time.Date(2026, time.October, 15, 22, 15, 0, 0, time.FixedZone("CEST", 2*60*60))
	view := toLogEntryView(domain.LogEntry{ID: 7, Timestamp: local, Activity: "Read", SlotTime: "22:15"})

	require.Equal(t, int64(7), view.ID)
	require.Equal(t, time.UTC, view.Timestamp.Location())
	require.True(t, local.Equal(view.Timestamp))
}

type brokenRepo struct {
	err error
}

func (b brokenRepo) Create(ctx context.Context, entry domain.LogEntry) (domain.LogEntry, error) {
	return domain.LogEntry{}, b.err
}

func (b brokenRepo) ListAll(ctx context.Context) ([]domain.LogEntry, error) {
	return nil, b.err
}

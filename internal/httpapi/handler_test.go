package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusnest/seeding-service/internal/badge"
	"github.com/focusnest/seeding-service/internal/journal"
	"github.com/focusnest/seeding-service/pkg/auth"
	"github.com/focusnest/seeding-service/pkg/logging"
)

type brokenRepo struct {
	journal.Repository
}

func (brokenRepo) ListActivities(context.Context, string) ([]journal.Activity, error) {
	return nil, errors.New("datastore unavailable")
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouterWithRepo(t, journal.NewMemoryRepository())
}

func newRouterWithRepo(t *testing.T, repo journal.Repository) http.Handler {
	t.Helper()
	svc, err := journal.NewService(
		repo,
		journal.NewSystemClock(),
		journal.NewUUIDGenerator(),
		badge.NewEvaluator(),
	)
	require.NoError(t, err)

	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		RegisterRoutes(r, svc, logging.Discard())
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer user-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRoutes_RequireAuth(t *testing.T) {
	h := newTestRouter(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/activities", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServiceFailure_IsInternalError(t *testing.T) {
	h := newRouterWithRepo(t, brokenRepo{Repository: journal.NewMemoryRepository()})

	rec := do(t, h, http.MethodGet, "/v1/activities", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "internal_server_error", resp.Code)
	assert.NotContains(t, resp.Message, "datastore")
}

func TestCreateActivity_UnlocksFirstStep(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/activities", `{"note":"walk","categories":["physical"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decodeBody[journal.ActivityResult](t, rec)
	assert.Equal(t, "user-1", res.Activity.UserID)
	assert.Equal(t, []string{"physical"}, res.Activity.Categories)
	ids := make([]string, 0, len(res.NewlyUnlocked))
	for _, d := range res.NewlyUnlocked {
		ids = append(ids, d.ID)
	}
	assert.Contains(t, ids, "first_step")

	rec = do(t, h, http.MethodGet, "/v1/activities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[struct {
		Items      []journal.Activity `json:"items"`
		TotalItems int                `json:"total_items"`
	}](t, rec)
	assert.Equal(t, 1, list.TotalItems)
}

func TestCreateActivity_Validation(t *testing.T) {
	h := newTestRouter(t)

	tests := map[string]string{
		"bad timestamp":   `{"timestamp":"yesterday","categories":["physical"]}`,
		"unknown field":   `{"mood":"great"}`,
		"too many labels": `{"categories":["a","b","c","d","e","f"]}`,
		"not json":        `{`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/v1/activities", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decodeBody[errorResponse](t, rec)
			assert.Equal(t, "bad_request", resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestDeleteActivity(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/activities", `{"categories":["creative"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody[journal.ActivityResult](t, rec).Activity.ID

	rec = do(t, h, http.MethodDelete, "/v1/activities/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/v1/activities/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[errorResponse](t, rec).Code)
}

func TestJourney(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/journey", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	start := time.Now().Add(-72 * time.Hour).UTC().Format(time.RFC3339)
	rec = do(t, h, http.MethodPut, "/v1/journey", `{"started_at":"`+start+`","timezone":"Asia/Jakarta"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	j := decodeBody[journal.Journey](t, rec)
	assert.Equal(t, "Asia/Jakarta", j.Timezone)

	rec = do(t, h, http.MethodPut, "/v1/journey", `{"timezone":"Nowhere/Land"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	future := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	rec = do(t, h, http.MethodPut, "/v1/journey", `{"started_at":"`+future+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/stats/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[journal.StatsReport](t, rec)
	assert.Equal(t, 3, report.CurrentStreak)
	assert.Equal(t, "Seedling", report.Growth.Current.Name)
}

func TestRelapsesAndUrges(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/relapses", `{"note":"tired","tags":["stress"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rel := decodeBody[journal.Relapse](t, rec)
	assert.Equal(t, []string{"stress"}, rel.Tags)

	rec = do(t, h, http.MethodPost, "/v1/urges", `{"intensity":11}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/v1/urges", `{"intensity":4}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/urges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_items":1`)

	rec = do(t, h, http.MethodDelete, "/v1/relapses/"+rel.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestBadgeEndpoints(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/v1/badges", "")
	require.Equal(t, http.StatusOK, rec.Code)
	catalog := decodeBody[struct {
		Items []badge.Definition `json:"items"`
	}](t, rec)
	assert.NotEmpty(t, catalog.Items)
	for _, d := range catalog.Items {
		assert.False(t, d.IsHidden, d.ID)
	}

	rec = do(t, h, http.MethodPost, "/v1/activities", `{"categories":["mindfulness"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/badges/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[journal.BadgeReport](t, rec)
	assert.Empty(t, report.NewlyUnlocked)
	require.NotEmpty(t, report.Earned)

	rec = do(t, h, http.MethodGet, "/v1/badges/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	progress := decodeBody[struct {
		Items []badge.Progress `json:"items"`
	}](t, rec)
	assert.NotEmpty(t, progress.Items)
}

func TestExportAndReset(t *testing.T) {
	h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/v1/activities", `{"categories":["social"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decodeBody[journal.Snapshot](t, rec)
	assert.Equal(t, "user-1", snap.UserID)
	assert.Len(t, snap.Activities, 1)
	assert.NotEmpty(t, snap.Earned)

	rec = do(t, h, http.MethodDelete, "/v1/data", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/data", "")
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decodeBody[journal.Snapshot](t, rec)
	assert.Empty(t, snap.Activities)
	assert.Empty(t, snap.Earned)
}

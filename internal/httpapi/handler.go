package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/focusnest/seeding-service/internal/badge"
	"github.com/focusnest/seeding-service/internal/journal"
	"github.com/focusnest/seeding-service/pkg/logging"
)

const (
	serviceTimeout  = 10 * time.Second
	maxPayloadBytes = 1 << 16 // 64KB
)

type handler struct {
	service *journal.Service
	logger  *slog.Logger
}

type journeyRequest struct {
	StartedAt string `json:"started_at"`
	Timezone  string `json:"timezone"`
}

type activityRequest struct {
	Timestamp  string   `json:"timestamp"`
	Note       string   `json:"note"`
	Categories []string `json:"categories"`
}

type relapseRequest struct {
	Timestamp string   `json:"timestamp"`
	Note      string   `json:"note"`
	Tags      []string `json:"tags"`
}

type urgeRequest struct {
	Timestamp string `json:"timestamp"`
	Intensity int    `json:"intensity"`
	Note      string `json:"note"`
}

// RegisterRoutes mounts the journal API. Callers wrap it with auth.Middleware.
func RegisterRoutes(r chi.Router, svc *journal.Service, logger *slog.Logger) {
	if logger == nil {
		logger = logging.Discard()
	}
	h := &handler{service: svc, logger: logger}

	r.Route("/v1/journey", func(r chi.Router) {
		r.Get("/", h.getJourney)
		r.Put("/", h.putJourney)
	})
	r.Route("/v1/activities", func(r chi.Router) {
		r.Get("/", h.listActivities)
		r.Post("/", h.createActivity)
		r.Delete("/{id}", h.deleteActivity)
	})
	r.Route("/v1/relapses", func(r chi.Router) {
		r.Get("/", h.listRelapses)
		r.Post("/", h.createRelapse)
		r.Delete("/{id}", h.deleteRelapse)
	})
	r.Route("/v1/urges", func(r chi.Router) {
		r.Get("/", h.listUrges)
		r.Post("/", h.createUrge)
		r.Delete("/{id}", h.deleteUrge)
	})
	r.Route("/v1/badges", func(r chi.Router) {
		r.Get("/", h.listCatalog)
		r.Get("/me", h.checkBadges)
		r.Get("/progress", h.badgeProgress)
	})
	r.Get("/v1/stats/me", h.stats)
	r.Route("/v1/data", func(r chi.Router) {
		r.Get("/", h.exportData)
		r.Delete("/", h.resetData)
	})
}

// ===== Journey =====

func (h *handler) getJourney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	j, err := h.service.GetJourney(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

func (h *handler) putJourney(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req journeyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	startedAt, err := parseRFC3339Pointer(req.StartedAt, "started_at")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	j, err := h.service.StartJourney(ctx, journal.JourneyInput{
		UserID:    userID,
		StartedAt: startedAt,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// ===== Activities =====

func (h *handler) listActivities(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, err := h.service.ListActivities(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total_items": len(items)})
}

func (h *handler) createActivity(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req activityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ts, err := parseRFC3339Pointer(req.Timestamp, "timestamp")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	res, err := h.service.LogActivity(ctx, journal.ActivityInput{
		UserID:     userID,
		Timestamp:  ts,
		Note:       req.Note,
		Categories: req.Categories,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *handler) deleteActivity(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "activity", h.service.DeleteActivity)
}

// ===== Relapses =====

func (h *handler) listRelapses(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, err := h.service.ListRelapses(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total_items": len(items)})
}

func (h *handler) createRelapse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req relapseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ts, err := parseRFC3339Pointer(req.Timestamp, "timestamp")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	rel, err := h.service.LogRelapse(ctx, journal.RelapseInput{
		UserID:    userID,
		Timestamp: ts,
		Note:      req.Note,
		Tags:      req.Tags,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rel)
}

func (h *handler) deleteRelapse(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "relapse", h.service.DeleteRelapse)
}

// ===== Urges =====

func (h *handler) listUrges(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	items, err := h.service.ListUrges(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "total_items": len(items)})
}

func (h *handler) createUrge(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req urgeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	ts, err := parseRFC3339Pointer(req.Timestamp, "timestamp")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	u, err := h.service.LogUrge(ctx, journal.UrgeInput{
		UserID:    userID,
		Timestamp: ts,
		Intensity: req.Intensity,
		Note:      req.Note,
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *handler) deleteUrge(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, "urge", h.service.DeleteUrge)
}

func (h *handler) deleteByID(w http.ResponseWriter, r *http.Request, kind string, del func(ctx context.Context, userID, id string) error) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, kind+" ID required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := del(ctx, userID, id); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ===== Badges =====

func (h *handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	defs, err := h.service.Catalog(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": defs})
}

func (h *handler) checkBadges(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	report, err := h.service.CheckBadges(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) badgeProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	progress, err := h.service.BadgeProgress(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if progress == nil {
		progress = []badge.Progress{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": progress})
}

// ===== Stats & data =====

func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	report, err := h.service.Stats(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *handler) exportData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	snap, err := h.service.Export(ctx, userID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *handler) resetData(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	if err := h.service.Reset(ctx, userID); err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

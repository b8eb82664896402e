package meetings

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleSuggest — propose the next free slot for an owner.
func (h *Handler) HandleSuggest(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner")
	if ownerID == "" {
		http.Error(w, "missing owner", http.StatusBadRequest)
		return
	}

	start, duration, err := h.svc.Suggest(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"start":            start.Format(time.RFC3339),
		"duration_minutes": int(duration.Minutes()),
	})
}

// HandleBook — book a slot. With an explicit start this books exactly that
// slot; without one it suggests and books with bounded retries.
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		OwnerID         string `json:"owner_id"`
		Start           string `json:"start"`
		DurationMinutes int    `json:"duration_minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if payload.OwnerID == "" {
		http.Error(w, "missing owner_id", http.StatusBadRequest)
		return
	}

	var m Meeting
	var err error
	if payload.Start == "" {
		m, err = h.svc.BookNext(r.Context(), payload.OwnerID)
	} else {
		var start time.Time
		start, err = time.Parse(time.RFC3339, payload.Start)
		if err != nil {
			http.Error(w, "invalid start, want RFC3339", http.StatusBadRequest)
			return
		}
		if payload.DurationMinutes <= 0 {
			http.Error(w, "missing duration_minutes", http.StatusBadRequest)
			return
		}
		m, err = h.svc.Book(r.Context(), payload.OwnerID, start, time.Duration(payload.DurationMinutes)*time.Minute)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               m.ID.String(),
		"owner_id":         m.OwnerID,
		"start":            m.StartTime.Format(time.RFC3339),
		"duration_minutes": int(m.Duration.Minutes()),
		"status":           string(m.Status),
	})
}

func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid meeting id", http.StatusBadRequest)
		return
	}
	if err := h.svc.Cancel(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrConflict):
		http.Error(w, "slot already taken", http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "meeting not found", http.StatusNotFound)
	case errors.Is(err, ErrNoAvailability):
		http.Error(w, "no availability within lookahead window", http.StatusConflict)
	default:
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}

package outreach

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vovarama1992/outreach-engine/internal/ai"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// HandleRecalculateAll — manual trigger for a full sweep.
func (h *Handler) HandleRecalculateAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.RecalculateAll(r.Context())
	if err != nil {
		http.Error(w, "sweep failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"processed":   report.Processed,
		"transitions": report.Transitions,
		"failed":      report.Failed,
	})
}

func (h *Handler) HandleRecalculateContact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.svc.RecalculateContact(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"state":       string(d.State),
		"stage":       string(d.Stage),
		"next_action": string(d.NextAction),
	})
}

func (h *Handler) HandleContactsByStage(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.svc.ContactsByStage(r.Context(), r.URL.Query().Get("stage"))
	if err != nil {
		writeError(w, err)
		return
	}

	type item struct {
		ID         string    `json:"id"`
		Name       string    `json:"name"`
		State      string    `json:"state"`
		Stage      string    `json:"stage"`
		NextAction string    `json:"next_action"`
		UpdatedAt  time.Time `json:"updated_at"`
	}
	out := make([]item, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, item{
			ID:         c.ID,
			Name:       c.Name,
			State:      string(c.State),
			Stage:      string(c.Stage),
			NextAction: string(c.NextAction),
			UpdatedAt:  c.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleTransitions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	transitions, err := h.svc.Transitions(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	type item struct {
		From string    `json:"from"`
		To   string    `json:"to"`
		At   time.Time `json:"at"`
	}
	out := make([]item, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, item{From: string(t.From), To: string(t.To), At: t.At})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	draft, err := h.svc.DraftFollowUp(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"draft": draft})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "contact not found", http.StatusNotFound)
	case errors.Is(err, ErrValidation):
		http.Error(w, "invalid timeline", http.StatusBadRequest)
	case errors.Is(err, ai.ErrDisabled):
		http.Error(w, "draft generation disabled", http.StatusServiceUnavailable)
	default:
		http.Error(w, "processing error", http.StatusInternalServerError)
	}
}

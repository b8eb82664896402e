package outreach

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/recalculate", h.HandleRecalculateAll)
	r.Get("/contacts", h.HandleContactsByStage)
	r.Post("/contacts/{id}/recalculate", h.HandleRecalculateContact)
	r.Get("/contacts/{id}/transitions", h.HandleTransitions)
	r.Post("/contacts/{id}/draft", h.HandleDraft)
}

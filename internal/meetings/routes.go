package meetings

import "github.com/go-chi/chi/v5"

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/meetings/suggest", h.HandleSuggest)
	r.Post("/meetings", h.HandleBook)
	r.Post("/meetings/{id}/cancel", h.HandleCancel)
}

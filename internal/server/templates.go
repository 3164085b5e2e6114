package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TickerBoard/internal/store"
)

type templateHandlers struct {
	store *store.Store
	log   *zap.SugaredLogger
}

func (h *templateHandlers) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/{id}/apply", h.apply)
	return r
}

func (h *templateHandlers) list(w http.ResponseWriter, r *http.Request) {
	all, err := store.Templates()
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, all)
}

func (h *templateHandlers) apply(w http.ResponseWriter, r *http.Request) {
	widgets, err := h.store.ApplyTemplate(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, widgets)
}

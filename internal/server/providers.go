package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TickerBoard/internal/model"
	"TickerBoard/internal/provider"
)

type providerHandlers struct {
	registry *provider.Registry
	log      *zap.SugaredLogger
}

// providerView never carries the full API key.
type providerView struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	BaseURL   string            `json:"baseUrl"`
	APIKey    string            `json:"apiKey"`
	HasKey    bool              `json:"hasKey"`
	Enabled   bool              `json:"enabled"`
	Usable    bool              `json:"usable"`
	Endpoints map[string]string `json:"endpoints"`
}

func viewOf(p model.ProviderConfig) providerView {
	return providerView{
		ID: p.ID, Name: p.Name, BaseURL: p.BaseURL, APIKey: maskKey(p.APIKey), HasKey: p.APIKey != "",
		Enabled: p.Enabled, Usable: p.Usable(), Endpoints: p.Endpoints,
	}
}

func maskKey(k string) string {
	if k == "" {
		return ""
	}
	if len(k) <= 4 {
		return "****"
	}
	return "****" + k[len(k)-4:]
}

func (h *providerHandlers) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.add)
	r.Get("/stats", h.stats)
	r.Post("/reset", h.reset)
	r.Patch("/{id}", h.update)
	r.Post("/{id}/toggle", h.toggle)
	return r
}

func (h *providerHandlers) list(w http.ResponseWriter, r *http.Request) {
	providers := h.registry.List()
	out := make([]providerView, len(providers))
	for i, p := range providers {
		out[i] = viewOf(p)
	}
	writeJSON(w, h.log, http.StatusOK, out)
}

func (h *providerHandlers) add(w http.ResponseWriter, r *http.Request) {
	var p model.ProviderConfig
	if err := decode(r, &p); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.registry.Add(p); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	added, _ := h.registry.Get(p.ID)
	writeJSON(w, h.log, http.StatusCreated, viewOf(added))
}

func (h *providerHandlers) update(w http.ResponseWriter, r *http.Request) {
	var patch provider.Patch
	if err := decode(r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	p, err := h.registry.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, viewOf(p))
}

func (h *providerHandlers) toggle(w http.ResponseWriter, r *http.Request) {
	p, err := h.registry.Toggle(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, viewOf(p))
}

func (h *providerHandlers) reset(w http.ResponseWriter, r *http.Request) {
	h.registry.Reset()
	h.list(w, r)
}

func (h *providerHandlers) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.registry.Stats())
}

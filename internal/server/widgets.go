package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"TickerBoard/internal/errs"
	"TickerBoard/internal/format"
	"TickerBoard/internal/model"
	"TickerBoard/internal/store"
)

type widgetHandlers struct {
	store     *store.Store
	refresher Refresher
	log       *zap.SugaredLogger
}

type createWidgetRequest struct {
	Type   model.WidgetType   `json:"type"`
	Title  string             `json:"title"`
	Config model.WidgetConfig `json:"config"`
}

type fieldsResponse struct {
	Rendered  []format.RenderedField `json:"rendered"`
	Available []format.FieldInfo     `json:"available"`
}

func (h *widgetHandlers) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Patch("/{id}/config", h.updateConfig)
	r.Post("/{id}/refresh", h.refresh)
	r.Get("/{id}/fields", h.fields)
	return r
}

func (h *widgetHandlers) list(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.store.List())
}

func (h *widgetHandlers) create(w http.ResponseWriter, r *http.Request) {
	var req createWidgetRequest
	if err := decode(r, &req); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	widget, err := h.store.Add(req.Type, req.Title, req.Config)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusCreated, widget)
}

func (h *widgetHandlers) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widget, ok := h.store.Get(id)
	if !ok {
		handleError(w, r, h.log, errs.NewNotFoundError("widget "+id+" not found"))
		return
	}
	writeJSON(w, h.log, http.StatusOK, widget)
}

func (h *widgetHandlers) update(w http.ResponseWriter, r *http.Request) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	widget, err := h.store.Update(chi.URLParam(r, "id"), patch)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, widget)
}

func (h *widgetHandlers) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Remove(chi.URLParam(r, "id")); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateConfig merges the JSON body into the current config: fields that
// are present replace, absent ones are kept.
func (h *widgetHandlers) updateConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		handleError(w, r, h.log, errs.NewValidationError("read body: "+err.Error()))
		return
	}
	// decode into a scratch copy first so a bad body changes nothing
	var scratch model.WidgetConfig
	if err := json.Unmarshal(body, &scratch); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	widget, err := h.store.UpdateConfig(chi.URLParam(r, "id"), func(c *model.WidgetConfig) {
		_ = json.Unmarshal(body, c)
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, widget)
}

func (h *widgetHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.refresher.RefreshOne(r.Context(), id); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	h.get(w, r)
}

func (h *widgetHandlers) refreshAll(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshAll(r.Context()); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, h.store.List())
}

func (h *widgetHandlers) fields(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	widget, ok := h.store.Get(id)
	if !ok {
		handleError(w, r, h.log, errs.NewNotFoundError("widget "+id+" not found"))
		return
	}
	resp := fieldsResponse{Rendered: format.RenderFields(widget), Available: format.Fields(widget.Data)}
	if resp.Rendered == nil {
		resp.Rendered = []format.RenderedField{}
	}
	if resp.Available == nil {
		resp.Available = []format.FieldInfo{}
	}
	writeJSON(w, h.log, http.StatusOK, resp)
}

func (h *widgetHandlers) export(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.log, http.StatusOK, h.store.Export())
}

func (h *widgetHandlers) importDashboard(w http.ResponseWriter, r *http.Request) {
	var widgets []model.Widget
	if err := decode(r, &widgets); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	if err := h.store.Import(widgets); err != nil {
		handleError(w, r, h.log, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, h.store.List())
}

func (h *widgetHandlers) clear(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	w.WriteHeader(http.StatusNoContent)
}

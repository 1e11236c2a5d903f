package httpx

import (
	"net/http"
)

// Home renders the landing page with the camps still taking enrollments.
func (h *UIHandlers) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}
	camps, err := h.Camps.List(r.Context(), true)
	if err != nil {
		h.logger().WarnContext(r.Context(), "home camp list failed", "error", err)
		camps = nil
	}
	data := NewTemplateData(r, PageMeta{Title: "Campi estivi", CurrentPage: PageHome}).
		With("Camps", camps).
		Build()
	h.render(w, r, RenderOpts{Page: PageHome, Data: data})
}

// About renders the static presentation page.
func (h *UIHandlers) About(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Chi siamo", CurrentPage: PageAbout}).Build()
	h.render(w, r, RenderOpts{Page: PageAbout, Data: data})
}

// CampsPage lists every camp with its free places.
func (h *UIHandlers) CampsPage(w http.ResponseWriter, r *http.Request) {
	camps, err := h.Camps.List(r.Context(), false)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "I nostri campi", CurrentPage: PageCamps}).
		With("Camps", camps).
		Build()
	h.render(w, r, RenderOpts{Page: PageCamps, Data: data})
}

// CampsAPI returns the open camps as JSON.
// GET /api/camps.
func (h *UIHandlers) CampsAPI(w http.ResponseWriter, r *http.Request) {
	camps, err := h.Camps.List(r.Context(), r.URL.Query().Get("all") != "true")
	if err != nil {
		h.logger().ErrorContext(r.Context(), "camp list failed", "error", err)
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"camps": camps})
}

// Maintenance renders the maintenance page. It serves both the direct route
// and the guard's rewrite, so it always answers 503 with Retry-After.
func (h *UIHandlers) Maintenance(w http.ResponseWriter, r *http.Request) {
	setNoStore(w)
	w.Header().Set("Retry-After", maintenanceRetrySec)
	data := NewTemplateData(r, PageMeta{Title: "Sito in manutenzione", CurrentPage: PageMaintenance}).Build()
	h.render(w, r, RenderOpts{Page: PageMaintenance, Status: http.StatusServiceUnavailable, Data: data})
}

package httpx

import (
	"net/http"
	"strconv"

	"github.com/campiestivi/campi/internal/domain/model"
)

const adminCampsPath = "/admin/Campi"

// AdminDashboard renders counts and the latest accounts and enrollments.
// GET /admin/Dashboard.
func (h *UIHandlers) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	dash, err := h.Dashboard.Load(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := NewTemplateData(r, PageMeta{Title: "Dashboard", CurrentPage: PageAdminDashboard}).
		With("Stats", dash.Stats).
		With("RecentUsers", dash.RecentUsers).
		With("RecentEnrollments", dash.RecentEnrollments).
		With("Statuses", []model.EnrollmentStatus{model.EnrollmentPending, model.EnrollmentConfirmed, model.EnrollmentCancelled}).
		WithFlash(flashFor(r)).
		Build()
	h.render(w, r, RenderOpts{Page: PageAdminDashboard, Data: data})
}

// AdminCamps lists every camp for management.
// GET /admin/Campi.
func (h *UIHandlers) AdminCamps(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	h.renderAdminCamps(w, withActor(r, actor), http.StatusOK, "")
}

func (h *UIHandlers) renderAdminCamps(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	camps, err := h.Camps.List(r.Context(), false)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	b := NewTemplateData(r, PageMeta{Title: "Gestione campi", CurrentPage: PageAdminCamps}).
		With("Camps", camps).
		WithFlash(flashFor(r))
	if errMsg != "" {
		b.WithError(errMsg)
	}
	h.render(w, r, RenderOpts{Page: PageAdminCamps, Status: status, Data: b.Build()})
}

// NewCampForm renders an empty camp form.
// GET /admin/Campi/nuovo.
func (h *UIHandlers) NewCampForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	h.renderCampForm(w, withActor(r, actor), campFormView{mode: FormModeCreate, form: map[string]string{"open": "on"}})
}

// EditCampForm renders the form for an existing camp.
// GET /admin/Campi/{id}.
func (h *UIHandlers) EditCampForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	camp, err := h.Camps.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	form := map[string]string{
		"name":      camp.Name,
		"location":  camp.Location,
		"starts_on": camp.StartsOn.Format(model.DateLayout),
		"ends_on":   camp.EndsOn.Format(model.DateLayout),
		"capacity":  strconv.Itoa(camp.Capacity),
		"price":     formatPriceInput(camp.PriceCents),
	}
	if camp.Open {
		form["open"] = "on"
	}
	h.renderCampForm(w, r, campFormView{mode: FormModeEdit, id: camp.ID, form: form, enrolled: camp.Enrolled})
}

type campFormView struct {
	mode     FormMode
	id       string
	status   int
	form     map[string]string
	errs     map[string]string
	msg      string
	enrolled int
}

func (h *UIHandlers) renderCampForm(w http.ResponseWriter, r *http.Request, v campFormView) {
	title := "Nuovo campo"
	action := adminCampsPath
	if v.mode == FormModeEdit {
		title = "Modifica campo"
		action = adminCampsPath + "/" + v.id
	}
	b := NewTemplateData(r, PageMeta{Title: title, CurrentPage: PageAdminCampForm}).
		With("Mode", string(v.mode)).
		With("Action", action).
		With("CampID", v.id).
		With("Enrolled", v.enrolled).
		WithForm(v.form).
		WithFieldErrors(v.errs)
	if v.msg != "" {
		b.WithError(v.msg)
	}
	h.render(w, r, RenderOpts{Page: PageAdminCampForm, Status: v.status, Data: b.Build()})
}

var campFields = []string{"name", "location", "starts_on", "ends_on", "capacity", "price", "open"}

func parseCampForm(r *http.Request) (model.CampRequest, map[string]string) {
	p := newFormParser(r)
	req := model.CampRequest{
		Name:       p.text("name"),
		Location:   p.text("location"),
		StartsOn:   p.date("starts_on"),
		EndsOn:     p.date("ends_on"),
		Capacity:   p.integer("capacity"),
		PriceCents: p.cents("price"),
		Open:       p.checkbox("open"),
	}
	return req, p.errors
}

// CreateCamp stores a new camp.
// POST /admin/Campi.
func (h *UIHandlers) CreateCamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	h.saveCamp(w, r, campFormView{mode: FormModeCreate})
}

// UpdateCamp edits an existing camp.
// POST /admin/Campi/{id}.
func (h *UIHandlers) UpdateCamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	h.saveCamp(w, r, campFormView{mode: FormModeEdit, id: r.PathValue("id")})
}

func (h *UIHandlers) saveCamp(w http.ResponseWriter, r *http.Request, v campFormView) {
	req, errs := parseCampForm(r)
	if len(errs) > 0 {
		v.status, v.form, v.errs, v.msg = formStatus(r, nil), formValues(r, campFields...), errs, errMsgFixBelow
		h.renderCampForm(w, r, v)
		return
	}

	var err error
	if v.mode == FormModeEdit {
		_, err = h.Camps.Update(r.Context(), v.id, req)
	} else {
		_, err = h.Camps.Create(r.Context(), req)
	}
	if err == nil {
		postRedirect(w, r, adminCampsPath+"?esito=salvato")
		return
	}
	if !isFormFailure(err) {
		h.renderError(w, r, err)
		return
	}
	v.status, v.form = formStatus(r, err), formValues(r, campFields...)
	v.errs, v.msg = formErrors(err)
	h.renderCampForm(w, r, v)
}

// DeleteCamp removes a camp without enrollments.
// POST /admin/Campi/{id}/elimina.
func (h *UIHandlers) DeleteCamp(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	if err := h.Camps.Delete(r.Context(), r.PathValue("id")); err != nil {
		if isFormFailure(err) {
			_, msg := formErrors(err)
			h.renderAdminCamps(w, r, formStatus(r, err), msg)
			return
		}
		h.renderError(w, r, err)
		return
	}
	postRedirect(w, r, adminCampsPath+"?esito=eliminato")
}

// SetEnrollmentStatus confirms or cancels an enrollment.
// POST /admin/Iscrizioni/{id}/stato.
func (h *UIHandlers) SetEnrollmentStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireAdminPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	status := model.EnrollmentStatus(r.PostFormValue("status"))
	if err := h.Enrollments.SetStatus(r.Context(), r.PathValue("id"), status); err != nil {
		h.renderError(w, r, err)
		return
	}
	postRedirect(w, r, "/admin/Dashboard?esito=salvato")
}

// formatPriceInput renders cents for the price input, e.g. 25050 -> "250,50".
func formatPriceInput(cents int) string {
	return strconv.Itoa(cents/100) + "," + leftPad2(cents%100)
}

func leftPad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

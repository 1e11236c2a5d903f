package httpx

import (
	"net/http"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
)

const accountPath = "/Utente"

// flashFor turns the ?esito= marker of a post-redirect-get into a message.
func flashFor(r *http.Request) string {
	switch r.URL.Query().Get("esito") {
	case "salvato":
		return msgSaved
	case "eliminato":
		return msgDeleted
	case "iscritto":
		return msgEnrollmentSent
	}
	return ""
}

// Account renders the parent area: profile, children and enrollment history.
// GET /Utente.
func (h *UIHandlers) Account(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	h.renderAccount(w, r, actor, accountView{flash: flashFor(r)})
}

type accountView struct {
	status int
	form   map[string]string
	errs   map[string]string
	msg    string
	flash  string
}

func (h *UIHandlers) renderAccount(w http.ResponseWriter, r *http.Request, actor domainauth.Actor, v accountView) {
	ctx := r.Context()
	userID := actor.UserID()

	profile, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	children, err := h.Children.List(ctx, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	history, err := h.Enrollments.History(ctx, userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	form := v.form
	if form == nil {
		form = map[string]string{"phone": profile.Phone, "address": profile.Address, "city": profile.City}
	}
	b := NewTemplateData(r, PageMeta{Title: "Area personale", CurrentPage: PageAccount}).
		With("Principal", actor.Principal).
		With("Profile", profile).
		With("Children", children).
		With("History", history).
		WithForm(form).
		WithFieldErrors(v.errs).
		WithFlash(v.flash)
	if v.msg != "" {
		b.WithError(v.msg)
	}
	h.render(w, r, RenderOpts{Page: PageAccount, Status: v.status, Data: b.Build()})
}

// UpdateProfile saves the contact details.
// POST /Utente/profilo.
func (h *UIHandlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	req := model.UpdateProfileRequest{
		Phone:   r.PostFormValue("phone"),
		Address: r.PostFormValue("address"),
		City:    r.PostFormValue("city"),
	}
	if err := h.Profiles.Update(r.Context(), actor.UserID(), req); err != nil {
		if !isFormFailure(err) {
			h.renderError(w, r, err)
			return
		}
		fields, msg := formErrors(err)
		h.renderAccount(w, r, actor, accountView{
			status: formStatus(r, err),
			form:   formValues(r, "phone", "address", "city"),
			errs:   fields,
			msg:    msg,
		})
		return
	}
	postRedirect(w, r, accountPath+"?esito=salvato")
}

// NewChildForm renders an empty child form.
// GET /Utente/figli/nuovo.
func (h *UIHandlers) NewChildForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	h.renderChildForm(w, withActor(r, actor), childFormView{mode: FormModeCreate})
}

// EditChildForm renders the form for one of the caller's children.
// GET /Utente/figli/{id}.
func (h *UIHandlers) EditChildForm(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	child, err := h.Children.Get(r.Context(), actor.UserID(), r.PathValue("id"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	h.renderChildForm(w, r, childFormView{
		mode: FormModeEdit,
		id:   child.ID,
		form: map[string]string{
			"first_name": child.FirstName,
			"last_name":  child.LastName,
			"birth_date": child.BirthDate.Format(model.DateLayout),
			"notes":      child.Notes,
		},
	})
}

type childFormView struct {
	mode   FormMode
	id     string
	status int
	form   map[string]string
	errs   map[string]string
	msg    string
}

func (h *UIHandlers) renderChildForm(w http.ResponseWriter, r *http.Request, v childFormView) {
	title := "Nuovo figlio"
	action := accountPath + "/figli"
	if v.mode == FormModeEdit {
		title = "Modifica figlio"
		action = accountPath + "/figli/" + v.id
	}
	b := NewTemplateData(r, PageMeta{Title: title, CurrentPage: PageChildForm}).
		With("Mode", string(v.mode)).
		With("Action", action).
		With("ChildID", v.id).
		WithForm(v.form).
		WithFieldErrors(v.errs)
	if v.msg != "" {
		b.WithError(v.msg)
	}
	h.render(w, r, RenderOpts{Page: PageChildForm, Status: v.status, Data: b.Build()})
}

func parseChildForm(r *http.Request) (model.ChildRequest, map[string]string) {
	p := newFormParser(r)
	req := model.ChildRequest{
		FirstName: p.text("first_name"),
		LastName:  p.text("last_name"),
		BirthDate: p.date("birth_date"),
		Notes:     p.text("notes"),
	}
	return req, p.errors
}

var childFields = []string{"first_name", "last_name", "birth_date", "notes"}

// CreateChild adds a child to the caller's account.
// POST /Utente/figli.
func (h *UIHandlers) CreateChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	req, errs := parseChildForm(r)
	if len(errs) == 0 {
		_, err := h.Children.Create(r.Context(), actor.UserID(), req)
		if err == nil {
			postRedirect(w, r, accountPath+"?esito=salvato")
			return
		}
		if !isFormFailure(err) {
			h.renderError(w, r, err)
			return
		}
		var msg string
		errs, msg = formErrors(err)
		h.renderChildForm(w, r, childFormView{mode: FormModeCreate, status: formStatus(r, err),
			form: formValues(r, childFields...), errs: errs, msg: msg})
		return
	}
	h.renderChildForm(w, r, childFormView{mode: FormModeCreate, status: formStatus(r, nil),
		form: formValues(r, childFields...), errs: errs, msg: errMsgFixBelow})
}

// UpdateChild edits one of the caller's children.
// POST /Utente/figli/{id}.
func (h *UIHandlers) UpdateChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	id := r.PathValue("id")
	req, errs := parseChildForm(r)
	if len(errs) == 0 {
		err := h.Children.Update(r.Context(), actor.UserID(), id, req)
		if err == nil {
			postRedirect(w, r, accountPath+"?esito=salvato")
			return
		}
		if !isFormFailure(err) {
			h.renderError(w, r, err)
			return
		}
		var msg string
		errs, msg = formErrors(err)
		h.renderChildForm(w, r, childFormView{mode: FormModeEdit, id: id, status: formStatus(r, err),
			form: formValues(r, childFields...), errs: errs, msg: msg})
		return
	}
	h.renderChildForm(w, r, childFormView{mode: FormModeEdit, id: id, status: formStatus(r, nil),
		form: formValues(r, childFields...), errs: errs, msg: errMsgFixBelow})
}

// DeleteChild removes one of the caller's children.
// POST /Utente/figli/{id}/elimina.
func (h *UIHandlers) DeleteChild(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	if err := h.Children.Delete(r.Context(), actor.UserID(), r.PathValue("id")); err != nil {
		h.renderError(w, r, err)
		return
	}
	postRedirect(w, r, accountPath+"?esito=eliminato")
}

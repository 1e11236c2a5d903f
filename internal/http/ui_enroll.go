package httpx

import (
	"net/http"
	"strconv"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/service"
)

// stepForField maps a draft field to the form step that collects it.
var stepForField = map[string]model.EnrollmentStep{
	"child_id":     model.StepChild,
	"camp_id":      model.StepCamp,
	"health_notes": model.StepHealth,
	"accept_terms": model.StepReview,
}

// EnrollPage starts the enrollment form. ?campo=<id> preselects a camp.
// GET /Iscrizione.
func (h *UIHandlers) EnrollPage(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	draft := model.EnrollmentDraft{CampID: r.URL.Query().Get("campo")}
	h.renderEnroll(w, r, actor, enrollView{step: model.StepChild, draft: draft})
}

// EnrollStep advances, goes back or submits. Every POST re-validates all
// steps up to the current one, since the draft travels in hidden fields.
// POST /Iscrizione.
func (h *UIHandlers) EnrollStep(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Gate.RequireUserPage(w, r)
	if !ok {
		return
	}
	r = withActor(r, actor)
	ctx := r.Context()
	draft := parseDraft(r)
	step := parseStep(r.PostFormValue("step"))

	if r.PostFormValue("action") == "back" {
		prev := step - 1
		if prev < model.StepChild {
			prev = model.StepChild
		}
		h.renderEnroll(w, r, actor, enrollView{step: prev, draft: draft})
		return
	}

	if step < model.StepReview {
		review, err := h.Enrollments.Validate(ctx, actor.UserID(), &draft, step)
		if err != nil {
			h.enrollFailure(w, r, actor, enrollView{step: step, draft: draft}, err)
			return
		}
		h.renderEnroll(w, r, actor, enrollView{step: step + 1, draft: draft, review: review})
		return
	}

	if _, err := h.Enrollments.Submit(ctx, actor.UserID(), draft); err != nil {
		h.enrollFailure(w, r, actor, enrollView{step: model.StepReview, draft: draft}, err)
		return
	}
	postRedirect(w, r, accountPath+"?esito=iscritto")
}

func (h *UIHandlers) enrollFailure(w http.ResponseWriter, r *http.Request, actor domainauth.Actor, v enrollView, err error) {
	if !isFormFailure(err) {
		h.renderError(w, r, err)
		return
	}
	if s, ok := stepForField[apperrors.GetField(err)]; ok && s < v.step {
		v.step = s
	}
	v.status = formStatus(r, err)
	v.errs, v.msg = formErrors(err)
	if v.step == model.StepReview {
		// The review needs the resolved child and camp again.
		if review, verr := h.Enrollments.Validate(r.Context(), actor.UserID(), &v.draft, model.StepHealth); verr == nil {
			v.review = review
		}
	}
	h.renderEnroll(w, r, actor, v)
}

type enrollView struct {
	step   model.EnrollmentStep
	draft  model.EnrollmentDraft
	review *service.Review
	status int
	errs   map[string]string
	msg    string
}

func (h *UIHandlers) renderEnroll(w http.ResponseWriter, r *http.Request, actor domainauth.Actor, v enrollView) {
	opts, err := h.Enrollments.Options(r.Context(), actor.UserID())
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	b := NewTemplateData(r, PageMeta{Title: "Iscrizione", CurrentPage: PageEnroll}).
		With("Step", int(v.step)).
		With("Draft", v.draft).
		With("Children", opts.Children).
		With("Camps", opts.Camps).
		With("Review", v.review).
		WithFieldErrors(v.errs)
	if v.msg != "" {
		b.WithError(v.msg)
	}
	h.render(w, r, RenderOpts{Page: PageEnroll, Status: v.status, Data: b.Build()})
}

func parseDraft(r *http.Request) model.EnrollmentDraft {
	p := newFormParser(r)
	return model.EnrollmentDraft{
		ChildID:      p.text("child_id"),
		CampID:       p.text("camp_id"),
		HealthNotes:  p.text("health_notes"),
		Allergies:    p.checkbox("allergies"),
		AcceptTerms:  p.checkbox("accept_terms"),
		ConsentPhoto: p.checkbox("consent_photo"),
	}
}

func parseStep(v string) model.EnrollmentStep {
	n, err := strconv.Atoi(v)
	if err != nil || n < int(model.StepChild) {
		return model.StepChild
	}
	if n > int(model.StepReview) {
		return model.StepReview
	}
	return model.EnrollmentStep(n)
}

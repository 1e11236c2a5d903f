package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/service"
)

const errMsgFixBelow = "Correggi gli errori evidenziati."

// CampsService is a minimal interface for camp pages.
type CampsService interface {
	List(ctx context.Context, onlyOpen bool) ([]*model.Camp, error)
	Get(ctx context.Context, id string) (*model.Camp, error)
	Create(ctx context.Context, req model.CampRequest) (*model.Camp, error)
	Update(ctx context.Context, id string, req model.CampRequest) (*model.Camp, error)
	Delete(ctx context.Context, id string) error
}

// ChildrenService is a minimal interface for the children pages.
type ChildrenService interface {
	List(ctx context.Context, ownerID string) ([]*model.Child, error)
	Get(ctx context.Context, ownerID, childID string) (*model.Child, error)
	Create(ctx context.Context, ownerID string, req model.ChildRequest) (*model.Child, error)
	Update(ctx context.Context, ownerID, childID string, req model.ChildRequest) error
	Delete(ctx context.Context, ownerID, childID string) error
}

// ProfileService is a minimal interface for the profile form.
type ProfileService interface {
	Get(ctx context.Context, userID string) (*model.Profile, error)
	Update(ctx context.Context, userID string, req model.UpdateProfileRequest) error
}

// EnrollmentsService is a minimal interface for the enrollment form and history.
type EnrollmentsService interface {
	Options(ctx context.Context, ownerID string) (*service.FormOptions, error)
	Validate(ctx context.Context, ownerID string, draft *model.EnrollmentDraft, step model.EnrollmentStep) (*service.Review, error)
	Submit(ctx context.Context, ownerID string, draft model.EnrollmentDraft) (*model.Enrollment, error)
	History(ctx context.Context, ownerID string) ([]*model.EnrollmentView, error)
	SetStatus(ctx context.Context, id string, status model.EnrollmentStatus) error
}

// DashboardService is a minimal interface for the admin landing page.
type DashboardService interface {
	Load(ctx context.Context) (*service.Dashboard, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ CampsService       = (*service.CampService)(nil)
	_ ChildrenService    = (*service.ChildService)(nil)
	_ ProfileService     = (*service.ProfileService)(nil)
	_ EnrollmentsService = (*service.EnrollmentService)(nil)
	_ DashboardService   = (*service.DashboardService)(nil)
)

// UIHandlers serves the HTML pages.
type UIHandlers struct {
	T           *TemplateRenderer
	Gate        *PageGate
	Camps       CampsService
	Children    ChildrenService
	Profiles    ProfileService
	Enrollments EnrollmentsService
	Dashboard   DashboardService
	Logger      *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// render writes a page; failures are already logged and answered by the renderer.
func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, opts RenderOpts) {
	_ = h.T.Render(w, r, opts)
}

// renderError shows the error page without leaking internal messages.
func (h *UIHandlers) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger().ErrorContext(r.Context(), "page failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	page := PageError
	if status == http.StatusNotFound {
		page = PageNotFound
	}
	data := NewTemplateData(r, PageMeta{Title: "Errore", CurrentPage: page}).
		WithError(apperrors.UserMessage(err, msgGenericError)).
		Build()
	h.render(w, r, RenderOpts{Page: page, Status: status, Data: data})
}

// NotFound renders the 404 page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, apperrors.NotFound("Pagina non trovata."))
}

// withActor makes the re-verified actor visible to the layout.
func withActor(r *http.Request, actor domainauth.Actor) *http.Request {
	return r.WithContext(SetActorInContext(r.Context(), actor))
}

// formErrors splits a service error into field errors and a general message.
// Validation and conflict errors naming a field attach to that field.
func formErrors(err error) (map[string]string, string) {
	if err == nil {
		return nil, ""
	}
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeConflict:
		if field := apperrors.GetField(err); field != "" {
			return map[string]string{field: apperrors.UserMessage(err, msgGenericError)}, errMsgFixBelow
		}
	}
	return nil, apperrors.UserMessage(err, msgGenericError)
}

// isFormFailure reports whether err should re-render the form rather than the error page.
func isFormFailure(err error) bool {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeValidation, apperrors.ErrCodeConflict, apperrors.ErrCodeForeignKey:
		return true
	}
	return false
}

// postRedirect finishes a successful form post.
func postRedirect(w http.ResponseWriter, r *http.Request, target string) {
	if IsHTMX(r) {
		SetHXRedirect(w, target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

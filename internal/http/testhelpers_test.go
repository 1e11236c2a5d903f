package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/campiestivi/campi/internal/domain/access"
	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	authmocks "github.com/campiestivi/campi/internal/mocks/auth"
	"github.com/campiestivi/campi/internal/service"
	"github.com/stretchr/testify/require"
)

const testCSRFToken = "test-csrf-token"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestGuard(maintenance bool) *access.Guard {
	return access.NewGuard(access.GuardConfig{
		Policy: access.NewPolicy(access.PolicyConfig{
			LoginPath:    "/Login",
			AdminPrefix:  "/admin",
			UserPrefixes: []string{"/Utente", "/Iscrizione"},
		}),
		Maintenance:      maintenance,
		MaintenancePath:  "/manutenzione",
		AdminLanding:     "/admin/Dashboard",
		UserLanding:      "/",
		StaticPrefix:     "/static/",
		APIPrefix:        "/api/",
		ExtraSystemPaths: []string{"/healthz", "/readyz", "/metrics"},
	})
}

// fakeAuthService is a hand-written double for AuthServiceInterface.
type fakeAuthService struct {
	mu            sync.Mutex
	signUpFn      func(req model.SignUpRequest) (*model.User, error)
	signInFn      func(req model.SignInRequest) (*domainauth.Session, error)
	beginFn       func(redirect string) (*service.BeginLoginResult, error)
	completeFn    func(in service.CompleteLoginInput) (*domainauth.Session, error)
	loggedOut     []string
	signInCalls   int
	lastRedirects []string
}

func (f *fakeAuthService) SignUp(_ context.Context, req model.SignUpRequest) (*model.User, error) {
	if f.signUpFn != nil {
		return f.signUpFn(req)
	}
	return &model.User{ID: "u-new", Email: req.Email}, nil
}

func (f *fakeAuthService) SignIn(_ context.Context, req model.SignInRequest) (*domainauth.Session, error) {
	f.mu.Lock()
	f.signInCalls++
	f.mu.Unlock()
	if f.signInFn != nil {
		return f.signInFn(req)
	}
	return &domainauth.Session{ID: "sess-1", UserID: "u1", Email: req.Email, ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuthService) BeginLogin(_ context.Context, redirect string) (*service.BeginLoginResult, error) {
	f.mu.Lock()
	f.lastRedirects = append(f.lastRedirects, redirect)
	f.mu.Unlock()
	if f.beginFn != nil {
		return f.beginFn(redirect)
	}
	return &service.BeginLoginResult{AuthURL: "https://idp.example.org/authorize", State: "st", Nonce: "nc"}, nil
}

func (f *fakeAuthService) CompleteLogin(_ context.Context, in service.CompleteLoginInput) (*domainauth.Session, error) {
	if f.completeFn != nil {
		return f.completeFn(in)
	}
	return &domainauth.Session{ID: "sess-oidc", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (f *fakeAuthService) Logout(_ context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, sessionID)
	return nil
}

type fakeCamps struct {
	camps     []*model.Camp
	created   []model.CampRequest
	deleteErr error
	listErr   error
}

func (f *fakeCamps) List(_ context.Context, onlyOpen bool) ([]*model.Camp, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !onlyOpen {
		return f.camps, nil
	}
	var out []*model.Camp
	for _, c := range f.camps {
		if c.Open {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCamps) Get(_ context.Context, id string) (*model.Camp, error) {
	for _, c := range f.camps {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.NotFound("Campo non trovato.")
}

func (f *fakeCamps) Create(_ context.Context, req model.CampRequest) (*model.Camp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f.created = append(f.created, req)
	return &model.Camp{ID: "c-new", Name: req.Name}, nil
}

func (f *fakeCamps) Update(_ context.Context, id string, req model.CampRequest) (*model.Camp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &model.Camp{ID: id, Name: req.Name}, nil
}

func (f *fakeCamps) Delete(context.Context, string) error { return f.deleteErr }

// fakeChildren stores children per owner and refuses access across owners.
type fakeChildren struct {
	children map[string]*model.Child
}

func (f *fakeChildren) List(_ context.Context, ownerID string) ([]*model.Child, error) {
	var out []*model.Child
	for _, c := range f.children {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChildren) Get(_ context.Context, ownerID, childID string) (*model.Child, error) {
	c, ok := f.children[childID]
	if !ok || c.OwnerID != ownerID {
		return nil, apperrors.Forbidden("Non puoi accedere a questo profilo.")
	}
	return c, nil
}

func (f *fakeChildren) Create(_ context.Context, ownerID string, req model.ChildRequest) (*model.Child, error) {
	if err := req.Validate(time.Now()); err != nil {
		return nil, err
	}
	c := &model.Child{ID: "ch-new", OwnerID: ownerID, FirstName: req.FirstName, LastName: req.LastName, BirthDate: req.BirthDate}
	f.children[c.ID] = c
	return c, nil
}

func (f *fakeChildren) Update(ctx context.Context, ownerID, childID string, req model.ChildRequest) error {
	if _, err := f.Get(ctx, ownerID, childID); err != nil {
		return err
	}
	return req.Validate(time.Now())
}

func (f *fakeChildren) Delete(ctx context.Context, ownerID, childID string) error {
	if _, err := f.Get(ctx, ownerID, childID); err != nil {
		return err
	}
	delete(f.children, childID)
	return nil
}

type fakeProfiles struct{}

func (fakeProfiles) Get(_ context.Context, userID string) (*model.Profile, error) {
	return &model.Profile{UserID: userID, City: "Trento"}, nil
}

func (fakeProfiles) Update(_ context.Context, _ string, req model.UpdateProfileRequest) error {
	return req.Validate()
}

// fakeEnrollments validates drafts against the fake children and camps.
type fakeEnrollments struct {
	children  *fakeChildren
	camps     *fakeCamps
	submitted []model.EnrollmentDraft
}

func (f *fakeEnrollments) Options(ctx context.Context, ownerID string) (*service.FormOptions, error) {
	children, _ := f.children.List(ctx, ownerID)
	camps, _ := f.camps.List(ctx, true)
	return &service.FormOptions{Children: children, Camps: camps}, nil
}

func (f *fakeEnrollments) Validate(ctx context.Context, ownerID string, draft *model.EnrollmentDraft, step model.EnrollmentStep) (*service.Review, error) {
	if err := draft.ValidateThrough(step); err != nil {
		return nil, err
	}
	review := &service.Review{Draft: *draft}
	child, err := f.children.Get(ctx, ownerID, draft.ChildID)
	if err != nil {
		return nil, apperrors.ValidationField("child_id", "Seleziona un figlio valido.")
	}
	review.Child = child
	if step >= model.StepCamp {
		camp, err := f.camps.Get(ctx, draft.CampID)
		if err != nil || !camp.AcceptsEnrollments() {
			return nil, apperrors.ValidationField("camp_id", "Il campo è chiuso o al completo.")
		}
		review.Camp = camp
	}
	return review, nil
}

func (f *fakeEnrollments) Submit(ctx context.Context, ownerID string, draft model.EnrollmentDraft) (*model.Enrollment, error) {
	if _, err := f.Validate(ctx, ownerID, &draft, model.StepReview); err != nil {
		return nil, err
	}
	f.submitted = append(f.submitted, draft)
	return &model.Enrollment{ID: "e-new", ChildID: draft.ChildID, CampID: draft.CampID, Status: model.EnrollmentPending}, nil
}

func (f *fakeEnrollments) History(context.Context, string) ([]*model.EnrollmentView, error) {
	return nil, nil
}

func (f *fakeEnrollments) SetStatus(context.Context, string, model.EnrollmentStatus) error { return nil }

type fakeDashboard struct{}

func (fakeDashboard) Load(context.Context) (*service.Dashboard, error) {
	return &service.Dashboard{Stats: &model.DashboardStats{Users: 3, Camps: 2}}, nil
}

// routerFixture is a full router over in-memory doubles.
type routerFixture struct {
	resolver    *authmocks.FixedResolver
	auth        *fakeAuthService
	camps       *fakeCamps
	children    *fakeChildren
	enrollments *fakeEnrollments
	handler     http.Handler
}

type fixtureOptions struct {
	maintenance   bool
	externalLogin bool
}

func newRouterFixture(t *testing.T, opts fixtureOptions) *routerFixture {
	t.Helper()
	start := time.Now().AddDate(0, 1, 0)
	camps := &fakeCamps{camps: []*model.Camp{
		{ID: "c1", Name: "Campo Lago", Location: "Molveno", StartsOn: start, EndsOn: start.AddDate(0, 0, 6), Capacity: 20, PriceCents: 25000, Open: true},
		{ID: "c2", Name: "Campo Monte", Location: "Pinzolo", StartsOn: start, EndsOn: start.AddDate(0, 0, 6), Capacity: 10, Enrolled: 10, Open: false},
	}}
	children := &fakeChildren{children: map[string]*model.Child{
		"ch1": {ID: "ch1", OwnerID: "u1", FirstName: "Anna", LastName: "Rossi", BirthDate: time.Date(2015, 3, 2, 0, 0, 0, 0, time.UTC)},
		"ch9": {ID: "ch9", OwnerID: "u9", FirstName: "Luca", LastName: "Bianchi", BirthDate: time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC)},
	}}
	fx := &routerFixture{
		resolver:    &authmocks.FixedResolver{},
		auth:        &fakeAuthService{},
		camps:       camps,
		children:    children,
		enrollments: &fakeEnrollments{children: children, camps: camps},
	}
	h, err := NewRouter(RouterServices{
		Auth:          fx.auth,
		Resolver:      fx.resolver,
		Guard:         newTestGuard(opts.maintenance),
		Camps:         camps,
		Children:      children,
		Profiles:      fakeProfiles{},
		Enrollments:   fx.enrollments,
		Dashboard:     fakeDashboard{},
		ExternalLogin: opts.externalLogin,
		AdminLanding:  "/admin/Dashboard",
		Logger:        discardLogger(),
	})
	require.NoError(t, err)
	fx.handler = h
	return fx
}

// as makes every request resolve to actor.
func (fx *routerFixture) as(actor domainauth.Actor) *routerFixture {
	fx.resolver.Actor = actor
	return fx
}

func (fx *routerFixture) get(t *testing.T, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	setHeaders(req, headers)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)
	return w
}

// postForm sends a form with a matching CSRF cookie and field.
func (fx *routerFixture) postForm(t *testing.T, target string, form url.Values, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set(CSRFFormField, testCSRFToken)
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: testCSRFToken})
	setHeaders(req, headers)
	w := httptest.NewRecorder()
	fx.handler.ServeHTTP(w, req)
	return w
}

func setHeaders(req *http.Request, kv []string) {
	for i := 0; i+1 < len(kv); i += 2 {
		req.Header.Set(kv[i], kv[i+1])
	}
}

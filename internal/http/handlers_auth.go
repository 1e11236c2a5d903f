package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
	"github.com/campiestivi/campi/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	oauthCookieMaxAge   = 600
	redirectParam       = "redirect"
	defaultUserLanding  = "/"
	defaultAdminLanding = "/admin/Dashboard"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.User, error)
	SignIn(ctx context.Context, req model.SignInRequest) (*domainauth.Session, error)
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc      AuthServiceInterface
	Resolver ports.RoleResolver
	T        *TemplateRenderer
	// ExternalLogin shows the identity-provider button on the sign-in page.
	ExternalLogin bool
	CookieDomain  string
	LoginPath     string
	AdminLanding  string
	Logger        *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) loginPath() string {
	if h.LoginPath != "" {
		return h.LoginPath
	}
	return "/Login"
}

// LoginPage renders the sign-in form. Signed-in callers never reach it: the
// route guard sends them to their landing page first.
// GET /Login?redirect=<path>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, loginView{redirect: r.URL.Query().Get(redirectParam)})
}

type loginView struct {
	status   int
	redirect string
	email    string
	err      error
}

func (h *AuthHandlers) renderLogin(w http.ResponseWriter, r *http.Request, v loginView) {
	b := NewTemplateData(r, PageMeta{Title: "Accedi", CurrentPage: PageLogin}).
		WithForm(map[string]string{"email": v.email}).
		With("Redirect", h.redirectTarget(v.redirect)).
		With("ExternalLogin", h.ExternalLogin)
	if v.err != nil {
		fields, msg := formErrors(v.err)
		b.WithFieldErrors(fields).WithError(msg)
	}
	setNoStore(w)
	_ = h.T.Render(w, r, RenderOpts{Page: PageLogin, Status: v.status, Data: b.Build()})
}

// Login signs in with email and password.
// POST /Login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	req := model.SignInRequest{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	redirect := r.PostFormValue(redirectParam)

	sess, err := h.Svc.SignIn(r.Context(), req)
	if err != nil {
		h.renderLogin(w, r, loginView{
			status:   formStatus(r, err),
			redirect: redirect,
			email:    model.NormalizeEmail(req.Email),
			err:      err,
		})
		return
	}
	h.finishSignIn(w, r, sess, redirect)
}

// RegisterPage renders the sign-up form.
// GET /Register.
func (h *AuthHandlers) RegisterPage(w http.ResponseWriter, r *http.Request) {
	data := NewTemplateData(r, PageMeta{Title: "Registrati", CurrentPage: PageRegister}).Build()
	setNoStore(w)
	_ = h.T.Render(w, r, RenderOpts{Page: PageRegister, Data: data})
}

// Register creates an account and signs it in.
// POST /Register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	req := model.SignUpRequest{
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
		FirstName:       r.PostFormValue("first_name"),
		LastName:        r.PostFormValue("last_name"),
	}
	if _, err := h.Svc.SignUp(r.Context(), req); err != nil {
		fields, msg := formErrors(err)
		data := NewTemplateData(r, PageMeta{Title: "Registrati", CurrentPage: PageRegister}).
			WithForm(formValues(r, "email", "first_name", "last_name")).
			WithFieldErrors(fields).
			WithError(msg).
			Build()
		setNoStore(w)
		_ = h.T.Render(w, r, RenderOpts{Page: PageRegister, Status: formStatus(r, err), Data: data})
		return
	}

	sess, err := h.Svc.SignIn(r.Context(), model.SignInRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		h.logger().WarnContext(r.Context(), "sign-in after registration failed", "error", err)
		writeRedirect(w, r, h.loginPath())
		return
	}
	h.finishSignIn(w, r, sess, "/Utente")
}

// ExternalLoginStart begins the identity-provider flow.
// GET /auth/login?redirect=<path>.
func (h *AuthHandlers) ExternalLoginStart(w http.ResponseWriter, r *http.Request) {
	redirect := safeRedirectPath(r.URL.Query().Get(redirectParam))
	result, err := h.Svc.BeginLogin(r.Context(), redirect)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin external login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("external sign-in is unavailable"),
		})
		return
	}

	h.setTempCookie(w, r, oauthStateCookie, result.State)
	h.setTempCookie(w, r, oauthNonceCookie, result.Nonce)
	h.setTempCookie(w, r, postLoginCookie, redirect)
	setNoStore(w)
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// ExternalLoginCallback completes the identity-provider flow.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) ExternalLoginCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_callback",
			Err:     errors.New("code and state are required"),
		})
		return
	}
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value != state {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_state",
			Err:     errors.New("invalid or missing state parameter"),
		})
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_nonce",
			Err:     errors.New("missing nonce parameter"),
		})
		return
	}

	sess, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	h.clearCookie(w, r, oauthStateCookie)
	h.clearCookie(w, r, oauthNonceCookie)
	if err != nil {
		h.logger().WarnContext(r.Context(), "external login failed", "error", err)
		writeRedirect(w, r, h.loginPath())
		return
	}

	redirect := ""
	if c, err := r.Cookie(postLoginCookie); err == nil {
		redirect = c.Value
	}
	h.clearCookie(w, r, postLoginCookie)
	h.finishSignIn(w, r, sess, redirect)
}

// Logout deletes the server session and clears the cookie.
// POST /Logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		if err := h.Svc.Logout(r.Context(), c.Value); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	h.clearCookie(w, r, SessionCookieName)
	setNoStore(w)

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_out", "redirect_to": "/"})
		return
	}
	writeRedirect(w, r, "/")
}

// Role reports the caller's role, resolved fresh.
// GET /api/auth/role.
func (h *AuthHandlers) Role(w http.ResponseWriter, r *http.Request) {
	actor := h.Resolver.ResolveActor(r.Context(), credentialsFrom(r))
	body := map[string]any{
		"role":          string(actor.Role),
		"authenticated": !actor.IsGuest(),
	}
	if actor.Principal != nil {
		body["name"] = actor.Principal.DisplayName()
	}
	setNoStore(w)
	WriteJSON(w, http.StatusOK, body)
}

// finishSignIn sets the session cookie and sends the caller to the
// remembered page, or to the landing page for the role it now has.
func (h *AuthHandlers) finishSignIn(w http.ResponseWriter, r *http.Request, sess *domainauth.Session, redirect string) {
	h.setSessionCookie(w, r, sess)

	target := h.redirectTarget(redirect)
	if target == "" {
		target = defaultUserLanding
		if h.Resolver != nil {
			actor := h.Resolver.ResolveActor(r.Context(), domainauth.Credentials{SessionID: sess.ID})
			if actor.Role == domainauth.RoleAdmin {
				target = h.adminLanding()
			}
		}
	}
	if wantsJSON(r) {
		setNoStore(w)
		WriteJSON(w, http.StatusOK, map[string]string{"status": "signed_in", "redirect_to": target})
		return
	}
	writeRedirect(w, r, target)
}

// redirectTarget validates a remembered path. The sign-in page itself is
// dropped so a successful sign-in can never loop back to it.
func (h *AuthHandlers) redirectTarget(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return ""
	}
	safe := safeRedirectPath(candidate)
	if safe == "/" && candidate != "/" {
		return ""
	}
	path, _, _ := strings.Cut(safe, "?")
	if path == h.loginPath() {
		return ""
	}
	return safe
}

func (h *AuthHandlers) adminLanding() string {
	if h.AdminLanding != "" {
		return h.AdminLanding
	}
	return defaultAdminLanding
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, s *domainauth.Session) {
	maxAge := int(time.Until(s.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    s.ID,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (h *AuthHandlers) setTempCookie(w http.ResponseWriter, r *http.Request, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   oauthCookieMaxAge,
	})
}

// clearCookie mirrors the attributes used when setting so every browser drops it.
func (h *AuthHandlers) clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// wantsJSON is true for API clients; htmx and browsers get redirects.
func wantsJSON(r *http.Request) bool {
	return !IsHTMX(r) && strings.Contains(r.Header.Get("Accept"), "application/json")
}

// formStatus keeps htmx swaps working (htmx ignores 4xx bodies by default).
// A nil err means the form failed to parse before reaching the service.
func formStatus(r *http.Request, err error) int {
	if IsHTMX(r) {
		return http.StatusOK
	}
	if err == nil {
		return http.StatusBadRequest
	}
	status := apperrors.HTTPStatus(err)
	if status == http.StatusConflict {
		return http.StatusUnprocessableEntity
	}
	return status
}

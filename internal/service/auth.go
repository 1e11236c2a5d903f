package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/campiestivi/campi/internal/core"
	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/ports"
)

// Auth event names reported to the recorder.
const (
	EventSignUp  = "sign_up"
	EventSignIn  = "sign_in"
	EventOAuth   = "oauth"
	EventSignOut = "sign_out"
)

const msgBadCredentials = "Email o password non corretti."

// AuthEventRecorder receives one observation per account event.
type AuthEventRecorder interface {
	ObserveAuthEvent(event, result string, err error)
}

// AuthServiceConfig holds tunables for AuthService.
type AuthServiceConfig struct {
	SessionTTL time.Duration // 12h when zero
	BcryptCost int           // bcrypt.DefaultCost when out of range
	Now        func() time.Time
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Users    core.UserRepository // Required
	Sessions ports.SessionStore  // Required
	Provider ports.AuthProvider  // Optional: external sign-in
	Config   AuthServiceConfig
	Logger   *slog.Logger
	Events   AuthEventRecorder
}

// AuthService owns accounts and sessions. It also answers "who is signed in"
// for the role resolver, so it implements ports.IdentityProvider.
type AuthService struct {
	users    core.UserRepository
	sessions ports.SessionStore
	provider ports.AuthProvider
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *slog.Logger
	events   AuthEventRecorder

	// dummyHash keeps sign-in timing similar whether or not the email exists.
	dummyHash []byte
}

var _ ports.IdentityProvider = (*AuthService)(nil)

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Users == nil {
		panic("UserRepository is required")
	}
	if opts.Sessions == nil {
		panic("SessionStore is required")
	}
	cfg := opts.Config
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("campi-timing-equaliser"), cfg.BcryptCost)
	if err != nil {
		panic(fmt.Sprintf("bcrypt: %v", err))
	}
	return &AuthService{
		users:     opts.Users,
		sessions:  opts.Sessions,
		provider:  opts.Provider,
		ttl:       cfg.SessionTTL,
		cost:      cfg.BcryptCost,
		now:       cfg.Now,
		logger:    logger.With("component", "auth_service"),
		events:    opts.Events,
		dummyHash: dummy,
	}
}

// SignUp creates a password account. It does not sign the new user in.
func (s *AuthService) SignUp(ctx context.Context, req model.SignUpRequest) (user *model.User, err error) {
	defer func() { s.observe(EventSignUp, err) }()

	req.Normalize()
	if err = req.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err = s.users.Create(ctx, &model.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.ConflictField("email", "Esiste già un account con questa email.")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.InfoContext(ctx, "account created", "user_id", user.ID)
	return user, nil
}

// SignIn checks a password and opens a session.
func (s *AuthService) SignIn(ctx context.Context, req model.SignInRequest) (sess *domainauth.Session, err error) {
	defer func() { s.observe(EventSignIn, err) }()

	email := model.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	switch {
	case apperrors.IsNotFound(err):
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, apperrors.Unauthorized(msgBadCredentials)
	case err != nil:
		return nil, fmt.Errorf("load user: %w", err)
	}

	// accounts created through an external provider have no password
	if user.PasswordHash == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, apperrors.Unauthorized(msgBadCredentials)
	}
	return s.openSession(ctx, user)
}

// BeginLoginResult contains the result of beginning an external login flow.
type BeginLoginResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginLogin starts the external provider flow.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (*BeginLoginResult, error) {
	if s.provider == nil {
		return nil, errors.New("external sign-in is not configured")
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	authURL, state, nonce, err := s.provider.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginLoginResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteLoginInput groups parameters for completing an external login flow.
type CompleteLoginInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteLogin exchanges the code, links or creates the local account by
// email and opens a session for it.
func (s *AuthService) CompleteLogin(ctx context.Context, in CompleteLoginInput) (sess *domainauth.Session, err error) {
	defer func() { s.observe(EventOAuth, err) }()

	if s.provider == nil {
		return nil, errors.New("external sign-in is not configured")
	}
	switch {
	case in.Code == "":
		return nil, errors.New("authorization code is required")
	case in.State == "":
		return nil, errors.New("state parameter is required")
	case in.Nonce == "":
		return nil, errors.New("nonce parameter is required")
	}

	ident, err := s.provider.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	email := model.NormalizeEmail(ident.Email)
	if err = model.ValidateEmail(email); err != nil {
		return nil, fmt.Errorf("provider identity: %w", err)
	}

	user, err := s.users.EnsureExternal(ctx, &model.User{
		Email:     email,
		FirstName: strings.TrimSpace(ident.FirstName),
		LastName:  strings.TrimSpace(ident.LastName),
	})
	if err != nil {
		return nil, fmt.Errorf("link account: %w", err)
	}
	return s.openSession(ctx, user)
}

func (s *AuthService) openSession(ctx context.Context, user *model.User) (*domainauth.Session, error) {
	sess := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	s.logger.InfoContext(ctx, "session opened", "user_id", user.ID)
	return &sess, nil
}

// CurrentPrincipal implements ports.IdentityProvider. A session only counts
// while it is unexpired and its account still exists.
func (s *AuthService) CurrentPrincipal(ctx context.Context, creds domainauth.Credentials) domainauth.PrincipalLookup {
	if creds.Empty() {
		return domainauth.NoPrincipal()
	}

	sess, err := s.sessions.Get(ctx, creds.SessionID)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		return domainauth.NoPrincipal()
	case err != nil:
		return domainauth.PrincipalFailed(fmt.Errorf("get session: %w", err))
	case sess.UserID == "" || sess.Expired(s.now()):
		return domainauth.NoPrincipal()
	}

	user, err := s.users.GetByID(ctx, sess.UserID)
	switch {
	case apperrors.IsNotFound(err):
		return domainauth.NoPrincipal()
	case err != nil:
		return domainauth.PrincipalFailed(fmt.Errorf("load user: %w", err))
	}
	return domainauth.PrincipalFound(domainauth.Principal{
		UserID:    user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

// Logout removes a session. An empty id is a no-op.
func (s *AuthService) Logout(ctx context.Context, sessionID string) (err error) {
	if sessionID == "" {
		return nil
	}
	defer func() { s.observe(EventSignOut, err) }()

	if err = s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// sessionRevoker is implemented by session stores that index sessions per user.
type sessionRevoker interface {
	DeleteForUser(ctx context.Context, userID string) (int, error)
}

// RevokeAllSessions signs userID out everywhere, when the store supports it.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) (int, error) {
	r, ok := s.sessions.(sessionRevoker)
	if !ok {
		return 0, errors.New("session store cannot revoke by user")
	}
	n, err := r.DeleteForUser(ctx, userID)
	if err != nil {
		return n, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}

func (s *AuthService) observe(event string, err error) {
	if s.events == nil {
		return
	}
	result := "success"
	switch {
	case err == nil:
	case apperrors.IsUnauthorized(err), apperrors.IsValidation(err), apperrors.IsConflict(err):
		result = "denied"
	default:
		result = "error"
	}
	s.events.ObserveAuthEvent(event, result, err)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
	"github.com/campiestivi/campi/internal/mocks"
	authmocks "github.com/campiestivi/campi/internal/mocks/auth"
)

var authNow = time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)

type recordedEvent struct{ event, result string }

type fakeEvents struct {
	mu   sync.Mutex
	seen []recordedEvent
}

func (f *fakeEvents) ObserveAuthEvent(event, result string, _ error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, recordedEvent{event, result})
}

type authFixture struct {
	svc      *AuthService
	users    *mocks.MockUserRepository
	sessions *authmocks.MemorySessionStore
	provider *authmocks.MockAuthProvider
	events   *fakeEvents
}

func newAuthFixture(t *testing.T) authFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := authFixture{
		users:    mocks.NewMockUserRepository(ctrl),
		sessions: authmocks.NewMemorySessionStore(),
		provider: &authmocks.MockAuthProvider{AuthURL: "https://idp.example/authorize", State: "st", Nonce: "no"},
		events:   &fakeEvents{},
	}
	f.svc = NewAuthService(AuthServiceOptions{
		Users:    f.users,
		Sessions: f.sessions,
		Provider: f.provider,
		Config:   AuthServiceConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost, Now: func() time.Time { return authNow }},
		Events:   f.events,
	})
	return f
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_SignUp(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *model.User) (*model.User, error) {
		assert.Equal(t, "maria@example.org", u.Email)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("segreta123")))
		out := *u
		out.ID = "u-1"
		return &out, nil
	})

	user, err := f.svc.SignUp(ctx, model.SignUpRequest{
		Email: " Maria@Example.org ", Password: "segreta123", ConfirmPassword: "segreta123",
		FirstName: "Maria", LastName: "Rossi",
	})
	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, []recordedEvent{{EventSignUp, "success"}}, f.events.seen)
}

func TestAuthService_SignUp_Errors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.SignUp(ctx, model.SignUpRequest{Email: "bad", Password: "x"})
	assert.True(t, apperrors.IsValidation(err))

	f.users.EXPECT().Create(ctx, gomock.Any()).Return(nil, apperrors.ConflictField("email", "dup"))
	_, err = f.svc.SignUp(ctx, model.SignUpRequest{
		Email: "a@b.it", Password: "segreta123", ConfirmPassword: "segreta123", FirstName: "A", LastName: "B",
	})
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, "email", apperrors.GetField(err))
	assert.Equal(t, []recordedEvent{{EventSignUp, "denied"}, {EventSignUp, "denied"}}, f.events.seen)
}

func TestAuthService_SignIn(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user := &model.User{ID: "u-1", Email: "maria@example.org", PasswordHash: hashed(t, "segreta123"), FirstName: "Maria"}

	f.users.EXPECT().GetByEmail(ctx, "maria@example.org").Return(user, nil).Times(2)

	sess, err := f.svc.SignIn(ctx, model.SignInRequest{Email: "MARIA@example.org", Password: "segreta123"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", sess.UserID)
	assert.Equal(t, authNow.Add(time.Hour), sess.ExpiresAt)
	assert.Equal(t, 1, f.sessions.Len())

	_, err = f.svc.SignIn(ctx, model.SignInRequest{Email: "maria@example.org", Password: "sbagliata"})
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestAuthService_SignIn_UnknownAndPasswordless(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	f.users.EXPECT().GetByEmail(ctx, "ghost@example.org").Return(nil, apperrors.NotFound("no"))
	_, err := f.svc.SignIn(ctx, model.SignInRequest{Email: "ghost@example.org", Password: "whatever1"})
	assert.True(t, apperrors.IsUnauthorized(err))

	f.users.EXPECT().GetByEmail(ctx, "sso@example.org").Return(&model.User{ID: "u-2", Email: "sso@example.org"}, nil)
	_, err = f.svc.SignIn(ctx, model.SignInRequest{Email: "sso@example.org", Password: "whatever1"})
	assert.True(t, apperrors.IsUnauthorized(err))

	_, err = f.svc.SignIn(ctx, model.SignInRequest{})
	assert.True(t, apperrors.IsUnauthorized(err))

	f.users.EXPECT().GetByEmail(ctx, "down@example.org").Return(nil, errors.New("db down"))
	_, err = f.svc.SignIn(ctx, model.SignInRequest{Email: "down@example.org", Password: "whatever1"})
	require.Error(t, err)
	assert.False(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, recordedEvent{EventSignIn, "error"}, f.events.seen[len(f.events.seen)-1])
	assert.Equal(t, 0, f.sessions.Len())
}

func TestAuthService_ExternalLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.provider.Identity = domainauth.Identity{UserID: "sub-1", Email: "Luca@Example.org", FirstName: "Luca", LastName: "Bianchi"}

	begin, err := f.svc.BeginLogin(ctx, "/Utente")
	require.NoError(t, err)
	assert.Equal(t, "st", begin.State)

	f.users.EXPECT().EnsureExternal(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, u *model.User) (*model.User, error) {
		assert.Equal(t, "luca@example.org", u.Email)
		assert.Empty(t, u.PasswordHash)
		out := *u
		out.ID = "u-9"
		return &out, nil
	})

	sess, err := f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "st", Nonce: "no"})
	require.NoError(t, err)
	assert.Equal(t, "u-9", sess.UserID)
	assert.Equal(t, "c", f.provider.LastExchange.Code)

	_, err = f.svc.CompleteLogin(ctx, CompleteLoginInput{State: "st", Nonce: "no"})
	assert.Error(t, err)

	f.provider.ExchErr = errors.New("invalid_grant")
	_, err = f.svc.CompleteLogin(ctx, CompleteLoginInput{Code: "c", State: "st", Nonce: "no"})
	assert.Error(t, err)
}

func TestAuthService_ExternalLogin_NotConfigured(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := NewAuthService(AuthServiceOptions{
		Users:    mocks.NewMockUserRepository(ctrl),
		Sessions: authmocks.NewMemorySessionStore(),
		Config:   AuthServiceConfig{BcryptCost: bcrypt.MinCost},
	})
	_, err := svc.BeginLogin(context.Background(), "/")
	assert.Error(t, err)
	_, err = svc.CompleteLogin(context.Background(), CompleteLoginInput{Code: "c", State: "s", Nonce: "n"})
	assert.Error(t, err)
}

func TestAuthService_CurrentPrincipal(t *testing.T) {
	ctx := context.Background()
	live := domainauth.Session{ID: "s-live", UserID: "u-1", ExpiresAt: authNow.Add(time.Minute)}
	stale := domainauth.Session{ID: "s-stale", UserID: "u-1", ExpiresAt: authNow.Add(-time.Minute)}
	gone := domainauth.Session{ID: "s-gone", UserID: "u-gone", ExpiresAt: authNow.Add(time.Minute)}
	flaky := domainauth.Session{ID: "s-flaky", UserID: "u-flaky", ExpiresAt: authNow.Add(time.Minute)}

	f := newAuthFixture(t)
	for _, s := range []domainauth.Session{live, stale, gone, flaky} {
		require.NoError(t, f.sessions.Save(ctx, s))
	}
	f.users.EXPECT().GetByID(ctx, "u-1").Return(&model.User{ID: "u-1", Email: "maria@example.org", FirstName: "Maria"}, nil)
	f.users.EXPECT().GetByID(ctx, "u-gone").Return(nil, apperrors.NotFound("no"))
	f.users.EXPECT().GetByID(ctx, "u-flaky").Return(nil, errors.New("timeout"))

	got := f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "s-live"})
	assert.Equal(t, domainauth.LookupFound, got.Status)
	assert.Equal(t, "Maria", got.Principal.FirstName)

	assert.Equal(t, domainauth.LookupAbsent, f.svc.CurrentPrincipal(ctx, domainauth.Credentials{}).Status)
	assert.Equal(t, domainauth.LookupAbsent, f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "nope"}).Status)
	assert.Equal(t, domainauth.LookupAbsent, f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "s-stale"}).Status)
	assert.Equal(t, domainauth.LookupAbsent, f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "s-gone"}).Status)

	failed := f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "s-flaky"})
	assert.Equal(t, domainauth.LookupFailed, failed.Status)
	assert.Error(t, failed.Err)

	f.sessions.Err = errors.New("redis down")
	assert.Equal(t, domainauth.LookupFailed, f.svc.CurrentPrincipal(ctx, domainauth.Credentials{SessionID: "s-live"}).Status)
}

func TestAuthService_Logout(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, domainauth.Session{ID: "s-1", UserID: "u-1", ExpiresAt: authNow.Add(time.Hour)}))

	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "s-1"))
	assert.Equal(t, 0, f.sessions.Len())
	assert.Equal(t, []recordedEvent{{EventSignOut, "success"}}, f.events.seen)

	_, err := f.svc.RevokeAllSessions(ctx, "u-1")
	assert.Error(t, err)
}

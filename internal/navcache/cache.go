// Package navcache keeps the role a client believes it has so navigation can
// be drawn without asking the site on every render.
//
// The cache is UI state and nothing more. It is never consulted for access
// decisions: the site resolves the role again on every request, and the
// server-side guard properties do not depend on anything stored here. A stale
// or wrong value only changes which links are shown.
package navcache

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/campiestivi/campi/internal/domain/access"
	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/siteclient"
	"golang.org/x/sync/singleflight"
)

// RoleSource looks up the role of the current session.
type RoleSource interface {
	Role(ctx context.Context) (siteclient.RoleInfo, error)
}

// SignOutNotifier announces completed sign-outs.
type SignOutNotifier interface {
	OnSignOut(fn func()) (unsubscribe func())
}

// SignerOut ends the current session.
type SignerOut interface {
	SignOut(ctx context.Context) error
}

// Navigator performs a full navigation, discarding any client state.
type Navigator interface {
	FullNavigate(path string)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(path string)

// FullNavigate calls f(path).
func (f NavigatorFunc) FullNavigate(path string) { f(path) }

// Options configures a Cache.
type Options struct {
	Source    RoleSource
	Notifier  SignOutNotifier
	SignerOut SignerOut
	Navigator Navigator
	Logger    *slog.Logger
	// LookupTimeout bounds a shared role lookup. 10s when zero.
	LookupTimeout time.Duration
}

const defaultLookupTimeout = 10 * time.Second

// Cache holds the last role seen for this client.
type Cache struct {
	source    RoleSource
	signerOut SignerOut
	navigator Navigator
	logger    *slog.Logger
	timeout   time.Duration

	group    singleflight.Group
	inFlight atomic.Bool

	mu   sync.RWMutex
	role domainauth.Role
	// gen changes on every downgrade so a lookup started before a sign-out
	// cannot restore the old role when it finishes.
	gen uint64

	unsubscribe func()
}

// New builds a Cache starting at guest and subscribes it to sign-out events.
func New(opts Options) *Cache {
	if opts.Source == nil {
		panic("navcache: RoleSource is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	c := &Cache{
		source:      opts.Source,
		timeout:     timeout,
		signerOut:   opts.SignerOut,
		navigator:   opts.Navigator,
		logger:      logger.With("component", "navcache"),
		role:        domainauth.RoleGuest,
		unsubscribe: func() {},
	}
	if opts.Notifier != nil {
		c.unsubscribe = opts.Notifier.OnSignOut(c.downgrade)
	}
	return c
}

// Close stops listening for sign-out events.
func (c *Cache) Close() { c.unsubscribe() }

// Mount refreshes the role from the source. Concurrent calls share a single
// lookup. A failed lookup leaves the cache at guest.
//
// The shared lookup runs detached from any one caller, bounded by the lookup
// timeout. A caller whose ctx ends first gets the cached role back and the
// others still receive the lookup's result.
func (c *Cache) Mount(ctx context.Context) domainauth.Role {
	c.mu.RLock()
	gen := c.gen
	c.mu.RUnlock()

	lookupCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan("role", func() (any, error) {
		c.inFlight.Store(true)
		defer c.inFlight.Store(false)

		lctx, cancel := context.WithTimeout(lookupCtx, c.timeout)
		defer cancel()
		info, err := c.source.Role(lctx)
		if err != nil {
			c.logger.WarnContext(lctx, "role lookup failed, showing guest navigation", "error", err)
			return domainauth.RoleGuest, nil
		}
		return info.Role, nil
	})

	var v any
	select {
	case <-ctx.Done():
		return c.Role()
	case res := <-ch:
		v = res.Val
	}
	role, ok := v.(domainauth.Role)
	if !ok || !role.Valid() {
		role = domainauth.RoleGuest
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return c.role
	}
	c.role = role
	return role
}

// Loading reports whether a role lookup is in flight.
func (c *Cache) Loading() bool { return c.inFlight.Load() }

// Role returns the cached role.
func (c *Cache) Role() domainauth.Role {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.role
}

// Links returns the navigation for the cached role.
func (c *Cache) Links() []access.MenuLink {
	return access.MenuFor(c.Role())
}

// SignOut ends the session, drops to guest and navigates home. The cache is
// downgraded even when the site call fails.
func (c *Cache) SignOut(ctx context.Context) error {
	var err error
	if c.signerOut != nil {
		err = c.signerOut.SignOut(ctx)
		if err != nil {
			c.logger.WarnContext(ctx, "sign-out failed", "error", err)
		}
	}
	c.downgrade()
	if c.navigator != nil {
		c.navigator.FullNavigate("/")
	}
	return err
}

func (c *Cache) downgrade() {
	c.mu.Lock()
	c.role = domainauth.RoleGuest
	c.gen++
	c.mu.Unlock()
}

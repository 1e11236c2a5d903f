// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Status is the readiness document.
type Status struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Version      string                      `json:"version,omitempty"`
	Dependencies map[string]DependencyStatus `json:"dependencies,omitempty"`
}

// DependencyStatus is the outcome of probing one dependency.
type DependencyStatus struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// Probe checks one dependency. A nil error means healthy.
type Probe func(ctx context.Context) error

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// DatabaseProbe pings Postgres.
func DatabaseProbe(db DBPinger) Probe {
	return db.PingContext
}

// RedisProbe pings Redis.
func RedisProbe(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

// Checker runs every registered probe concurrently. Sessions live in Redis and
// accounts in Postgres, so either one being down makes the site not ready.
type Checker struct {
	probes  map[string]Probe
	timeout time.Duration
	version string
	now     func() time.Time
}

// Options configures a Checker.
type Options struct {
	Probes  map[string]Probe
	Timeout time.Duration // 3s when zero
	Version string
}

// NewChecker builds a Checker. Nil probes are dropped.
func NewChecker(opts Options) *Checker {
	probes := make(map[string]Probe, len(opts.Probes))
	for name, p := range opts.Probes {
		if p != nil {
			probes[name] = p
		}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Checker{probes: probes, timeout: timeout, version: opts.Version, now: time.Now}
}

// Check runs all probes and aggregates the result.
func (c *Checker) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	names := make([]string, 0, len(c.probes))
	for name := range c.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	var mu sync.Mutex
	deps := make(map[string]DependencyStatus, len(names))

	// probes report failure through deps, never through the group error
	var g errgroup.Group
	for _, name := range names {
		probe := c.probes[name]
		g.Go(func() error {
			start := time.Now()
			err := probe(ctx)
			ds := DependencyStatus{Status: StatusHealthy, LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				ds.Status = StatusUnhealthy
				ds.Message = err.Error()
			}
			mu.Lock()
			deps[name] = ds
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	st := Status{Status: StatusHealthy, Timestamp: c.now().UTC(), Version: c.version, Dependencies: deps}
	for _, d := range deps {
		if d.Status == StatusUnhealthy {
			st.Status = StatusUnhealthy
		}
	}
	return st
}

// Liveness answers 200 while the process can serve requests.
func (c *Checker) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, Status{Status: StatusHealthy, Timestamp: c.now().UTC(), Version: c.version})
}

// Readiness answers 503 when any dependency is unhealthy.
func (c *Checker) Readiness(w http.ResponseWriter, r *http.Request) {
	st := c.Check(r.Context())
	code := http.StatusOK
	if st.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, r, code, st)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	// Nothing more to do if the client connection is gone.
	_ = json.NewEncoder(w).Encode(v)
}

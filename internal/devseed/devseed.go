// Package devseed fills a development database with demo camps and two
// accounts: one admin and one parent.
package devseed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/data"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

// DefaultPassword is used for seeded accounts when none is given.
const DefaultPassword = "campi-dev-password"

// Services bundles the repositories needed for development seeding.
type Services struct {
	Users  core.UserRepository
	Admins core.AdminRepository
	Camps  core.CampRepository
	// Now anchors the demo camp dates. Defaults to time.Now.
	Now func() time.Time
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
}

// NewServices constructs the seeding dependencies on db.
func NewServices(db *sql.DB) Services {
	return Services{
		Users:  data.NewUserRepo(db),
		Admins: data.NewAdminRepo(db),
		Camps:  data.NewCampRepo(db),
	}
}

// Options selects the seeded accounts.
type Options struct {
	AdminEmail string
	UserEmail  string
	Password   string
}

func (o *Options) defaults() {
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@campi.local"
	}
	if o.UserEmail == "" {
		o.UserEmail = "genitore@campi.local"
	}
	if o.Password == "" {
		o.Password = DefaultPassword
	}
}

// Run seeds accounts, the admin grant and demo camps. It is idempotent:
// existing accounts and camps with the same name are left alone.
func Run(ctx context.Context, svcs Services, logger *slog.Logger, opts Options) error {
	if svcs.Users == nil || svcs.Admins == nil || svcs.Camps == nil {
		return errors.New("devseed: users, admins and camps are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if svcs.Now == nil {
		svcs.Now = time.Now
	}
	if svcs.BcryptCost == 0 {
		svcs.BcryptCost = bcrypt.DefaultCost
	}
	opts.defaults()

	admin, err := ensureAccount(ctx, svcs, accountSeed{Email: opts.AdminEmail, FirstName: "Admin", LastName: "Campi"}, opts.Password, logger)
	if err != nil {
		return err
	}
	if err := svcs.Admins.Grant(ctx, admin.ID); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	logger.InfoContext(ctx, "admin granted", "email", admin.Email)

	if _, err := ensureAccount(ctx, svcs, accountSeed{Email: opts.UserEmail, FirstName: "Giulia", LastName: "Bianchi"}, opts.Password, logger); err != nil {
		return err
	}

	failures := seedCamps(ctx, svcs, logger)
	if failures > 0 {
		return fmt.Errorf("%d seed errors; check logs", failures)
	}
	return nil
}

type accountSeed struct {
	Email     string
	FirstName string
	LastName  string
}

func ensureAccount(ctx context.Context, svcs Services, seed accountSeed, password string, logger *slog.Logger) (*model.User, error) {
	existing, err := svcs.Users.GetByEmail(ctx, seed.Email)
	if err == nil {
		logger.InfoContext(ctx, "account already exists", "email", existing.Email)
		return existing, nil
	}
	if !apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("lookup %s: %w", seed.Email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), svcs.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user, err := svcs.Users.Create(ctx, &model.User{
		Email:        seed.Email,
		PasswordHash: string(hash),
		FirstName:    seed.FirstName,
		LastName:     seed.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", seed.Email, err)
	}
	logger.InfoContext(ctx, "account created", "email", user.Email)
	return user, nil
}

// defaultCamps returns demo camps starting a few weeks after now. The last
// one is closed so the public list and the admin list differ.
func defaultCamps(now time.Time) []model.CampRequest {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 21)
	week := func(offset int) (time.Time, time.Time) {
		s := start.AddDate(0, 0, 7*offset)
		return s, s.AddDate(0, 0, 6)
	}

	s1, e1 := week(0)
	s2, e2 := week(1)
	s3, e3 := week(3)
	return []model.CampRequest{
		{Name: "Campo Mare", Location: "Cesenatico", StartsOn: s1, EndsOn: e1, Capacity: 40, PriceCents: 32000, Open: true},
		{Name: "Campo Montagna", Location: "Pinzolo", StartsOn: s2, EndsOn: e2, Capacity: 30, PriceCents: 35000, Open: true},
		{Name: "Campo Lago", Location: "Bardolino", StartsOn: s3, EndsOn: e3, Capacity: 25, PriceCents: 29000, Open: false},
	}
}

func seedCamps(ctx context.Context, svcs Services, logger *slog.Logger) int {
	existing, err := svcs.Camps.List(ctx, core.CampListOptions{})
	if err != nil {
		logger.ErrorContext(ctx, "failed to list camps", "error", err)
		return 1
	}
	byName := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		byName[c.Name] = struct{}{}
	}

	failures := 0
	for _, req := range defaultCamps(svcs.Now()) {
		if _, ok := byName[req.Name]; ok {
			logger.InfoContext(ctx, "camp already exists", "name", req.Name)
			continue
		}
		if err := req.Validate(); err != nil {
			logger.ErrorContext(ctx, "invalid seed camp", "name", req.Name, "error", err)
			failures++
			continue
		}
		if _, err := svcs.Camps.Create(ctx, &req); err != nil {
			logger.ErrorContext(ctx, "failed to create camp", "name", req.Name, "error", err)
			failures++
			continue
		}
		logger.InfoContext(ctx, "camp created", "name", req.Name)
	}
	return failures
}

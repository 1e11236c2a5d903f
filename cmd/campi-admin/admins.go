package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	redisadapter "github.com/campiestivi/campi/internal/adapters/redis"
	"github.com/campiestivi/campi/internal/core"
	"github.com/campiestivi/campi/internal/data"
	"github.com/campiestivi/campi/internal/domain/model"
	apperrors "github.com/campiestivi/campi/internal/errors"
)

type accountLookup interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type userSessionRevoker interface {
	DeleteForUser(ctx context.Context, userID string) (int, error)
}

type adminDeps struct {
	Users  accountLookup
	Admins core.AdminRepository
	Out    io.Writer
}

func runGrantAdmin(cmdCtx *commandContext, args []string) error {
	email, err := parseEmailArg("grant-admin", args)
	if err != nil {
		return err
	}
	return withAdminDeps(cmdCtx, func(ctx context.Context, deps adminDeps) error {
		return grantAdmin(ctx, deps, email)
	})
}

func runRevokeAdmin(cmdCtx *commandContext, args []string) error {
	email, err := parseEmailArg("revoke-admin", args)
	if err != nil {
		return err
	}
	return withAdminDeps(cmdCtx, func(ctx context.Context, deps adminDeps) error {
		return revokeAdmin(ctx, deps, email)
	})
}

func runListAdmins(cmdCtx *commandContext, _ []string) error {
	return withAdminDeps(cmdCtx, func(ctx context.Context, deps adminDeps) error {
		return listAdmins(ctx, deps)
	})
}

func withAdminDeps(cmdCtx *commandContext, f func(context.Context, adminDeps) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	return f(ctx, adminDeps{
		Users:  data.NewUserRepo(db),
		Admins: data.NewAdminRepo(db),
		Out:    cmdCtx.Out,
	})
}

func lookupAccount(ctx context.Context, users accountLookup, email string) (*model.User, error) {
	user, err := users.GetByEmail(ctx, email)
	if apperrors.IsNotFound(err) {
		return nil, fmt.Errorf("no account with email %q", email)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return user, nil
}

func grantAdmin(ctx context.Context, deps adminDeps, email string) error {
	user, err := lookupAccount(ctx, deps.Users, email)
	if err != nil {
		return err
	}
	if err := deps.Admins.Grant(ctx, user.ID); err != nil {
		return fmt.Errorf("grant admin: %w", err)
	}
	return writef(deps.Out, "%s is now an admin\n", user.Email)
}

func revokeAdmin(ctx context.Context, deps adminDeps, email string) error {
	user, err := lookupAccount(ctx, deps.Users, email)
	if err != nil {
		return err
	}
	removed, err := deps.Admins.Revoke(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("revoke admin: %w", err)
	}
	if !removed {
		return writef(deps.Out, "%s was not an admin\n", user.Email)
	}
	return writef(deps.Out, "%s is no longer an admin\n", user.Email)
}

func listAdmins(ctx context.Context, deps adminDeps) error {
	admins, err := deps.Admins.List(ctx)
	if err != nil {
		return err
	}
	if len(admins) == 0 {
		return writeln(deps.Out, "(no admins)")
	}

	tw := tabwriter.NewWriter(deps.Out, 0, 4, 2, ' ', 0)
	if err := writef(tw, "EMAIL\tNAME\tID\n"); err != nil {
		return err
	}
	for _, u := range admins {
		name := strings.TrimSpace(u.FirstName + " " + u.LastName)
		if name == "" {
			name = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\n", u.Email, name, u.ID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// runRevokeSessions deletes every stored session of one account. Roles are
// resolved per request, so the account is a guest on its next page load.
func runRevokeSessions(cmdCtx *commandContext, args []string) error {
	email, err := parseEmailArg("revoke-sessions", args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infra failed", "error", cerr)
		}
	}()

	return revokeSessions(ctx, data.NewUserRepo(db), redisadapter.NewSessionStore(redisClient), email, cmdCtx.Out)
}

func revokeSessions(
	ctx context.Context,
	users accountLookup,
	sessions userSessionRevoker,
	email string,
	out io.Writer,
) error {
	user, err := lookupAccount(ctx, users, email)
	if err != nil {
		return err
	}
	n, err := sessions.DeleteForUser(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	return writef(out, "revoked %d session(s) for %s\n", n, user.Email)
}

func parseEmailArg(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	email := fs.String("email", "", "Account email")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *email == "" && fs.NArg() > 0 {
		*email = fs.Arg(0)
	}
	*email = model.NormalizeEmail(*email)
	if *email == "" {
		return "", errors.New("an account email is required")
	}
	return *email, nil
}

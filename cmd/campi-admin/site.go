package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	domainauth "github.com/campiestivi/campi/internal/domain/auth"
	"github.com/campiestivi/campi/internal/navcache"
	"github.com/campiestivi/campi/internal/siteclient"
)

type siteOptions struct {
	BaseURL  string
	Session  string
	Email    string
	Password string
	Timeout  time.Duration
}

type siteSubcommand func(ctx context.Context, sess *siteSession) error

var siteSubcommands = map[string]siteSubcommand{
	"whoami": siteWhoami,
	"menu":   siteMenu,
	"logout": siteLogout,
}

// siteSession is one browser-like identity on a running site with its
// navigation cache mounted.
type siteSession struct {
	client *siteclient.Client
	cache  *navcache.Cache
	out    io.Writer
}

func (s *siteSession) Close() { s.cache.Close() }

func runSite(cmdCtx *commandContext, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: campi-admin site <whoami|menu|logout> [flags]")
	}
	sub, ok := siteSubcommands[args[0]]
	if !ok {
		return fmt.Errorf("unknown site command %q", args[0])
	}
	opts, err := parseSiteFlags(args[0], args[1:], cmdCtx.Config.HTTP.BaseURL)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	sess, err := openSiteSession(ctx, opts, cmdCtx.Out, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer sess.Close()
	return sub(ctx, sess)
}

func parseSiteFlags(name string, args []string, defaultBase string) (siteOptions, error) {
	fs := flag.NewFlagSet("site "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := siteOptions{}
	fs.StringVar(&opts.BaseURL, "base-url", defaultBase, "Site base URL")
	fs.StringVar(&opts.Session, "session", os.Getenv("CAMPI_SESSION"), "Existing session id (env CAMPI_SESSION)")
	fs.StringVar(&opts.Email, "email", "", "Sign in with this email before running the command")
	fs.StringVar(&opts.Password, "password", os.Getenv("CAMPI_PASSWORD"), "Password for --email (env CAMPI_PASSWORD)")
	fs.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Overall request timeout")

	if err := fs.Parse(args); err != nil {
		return siteOptions{}, err
	}
	if opts.Timeout <= 0 {
		return siteOptions{}, errors.New("--timeout must be greater than zero")
	}
	if opts.Email != "" && opts.Password == "" {
		return siteOptions{}, errors.New("--password (or CAMPI_PASSWORD) is required with --email")
	}
	return opts, nil
}

func openSiteSession(ctx context.Context, opts siteOptions, out io.Writer, logger *slog.Logger) (*siteSession, error) {
	client, err := siteclient.New(siteclient.Config{BaseURL: opts.BaseURL, Logger: logger})
	if err != nil {
		return nil, err
	}
	if opts.Session != "" {
		client.UseSession(opts.Session)
	}
	if opts.Email != "" {
		landing, signErr := client.SignIn(ctx, opts.Email, opts.Password)
		if signErr != nil {
			return nil, fmt.Errorf("sign in: %w", signErr)
		}
		logger.Debug("signed in", "email", opts.Email, "landing", landing)
	}

	cache := navcache.New(navcache.Options{
		Source:    client,
		Notifier:  client,
		SignerOut: client,
		Navigator: navcache.NavigatorFunc(func(path string) {
			if err := writef(out, "navigate %s\n", path); err != nil {
				logger.Warn("print navigation failed", "error", err)
			}
		}),
		Logger: logger,
	})
	cache.Mount(ctx)
	return &siteSession{client: client, cache: cache, out: out}, nil
}

// siteWhoami asks the site for the live role. The cached role only decides
// what is printed as the menu, never what the account may do.
func siteWhoami(ctx context.Context, sess *siteSession) error {
	info, err := sess.client.Role(ctx)
	if err != nil {
		return fmt.Errorf("resolve role: %w", err)
	}
	name := info.Name
	if name == "" {
		name = "-"
	}
	if err := writef(sess.out, "role: %s\nauthenticated: %t\nname: %s\n", info.Role, info.Authenticated, name); err != nil {
		return err
	}
	if sid := sess.client.Session(); sid != "" && info.Role != domainauth.RoleGuest {
		return writef(sess.out, "session: %s\n", sid)
	}
	return nil
}

func siteMenu(_ context.Context, sess *siteSession) error {
	if err := writef(sess.out, "menu for %s\n", sess.cache.Role()); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(sess.out, 0, 4, 2, ' ', 0)
	for _, link := range sess.cache.Links() {
		method := "GET"
		if link.Post {
			method = "POST"
		}
		if err := writef(tw, "  %s\t%s\t%s\n", link.Label, method, link.Path); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func siteLogout(ctx context.Context, sess *siteSession) error {
	if err := sess.cache.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return writef(sess.out, "signed out; menu is now %s\n", sess.cache.Role())
}

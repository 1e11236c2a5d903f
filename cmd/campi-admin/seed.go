package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/campiestivi/campi/internal/bootstrap"
	"github.com/campiestivi/campi/internal/devseed"
)

type dbSeedOptions struct {
	Timeout     time.Duration
	AllowRemote bool
	Seed        devseed.Options
}

func runDBSeed(cmdCtx *commandContext, args []string) error {
	opts, err := parseDBSeedFlags(args)
	if err != nil {
		return err
	}

	host := cmdCtx.Config.Postgres.Host
	if isLikelyRemoteHost(host) {
		if !opts.AllowRemote {
			return fmt.Errorf(
				"refusing to seed potentially remote database host %q; re-run with --allow-remote if this is intentional",
				host,
			)
		}
		if confirmErr := requireRemoteHostConfirmation(os.Stdin, os.Stderr, host); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := connectDB(cmdCtx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}()

	cmdCtx.Logger.Info("ensuring database migrations are current")
	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}

	svcs := devseed.NewServices(db)
	svcs.BcryptCost = cmdCtx.Config.Auth.BcryptCost
	if seedErr := devseed.Run(ctx, svcs, cmdCtx.Logger, opts.Seed); seedErr != nil {
		return fmt.Errorf("seed data: %w", seedErr)
	}
	cmdCtx.Logger.Info("database seeding completed successfully")
	return nil
}

func parseDBSeedFlags(args []string) (dbSeedOptions, error) {
	fs := flag.NewFlagSet("db-seed", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := dbSeedOptions{}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "Maximum duration for migrations and seeding")
	fs.BoolVar(&opts.AllowRemote, "allow-remote", false, "Allow seeding a database that does not look local")
	fs.StringVar(&opts.Seed.AdminEmail, "admin-email", "", "Email of the seeded admin account")
	fs.StringVar(&opts.Seed.UserEmail, "user-email", "", "Email of the seeded parent account")
	fs.StringVar(&opts.Seed.Password, "password", os.Getenv("CAMPI_SEED_PASSWORD"), "Password for new seeded accounts (env CAMPI_SEED_PASSWORD)")

	if err := fs.Parse(args); err != nil {
		return dbSeedOptions{}, err
	}
	if opts.Timeout <= 0 {
		return dbSeedOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func isLikelyRemoteHost(host string) bool {
	h := strings.ToLower(strings.TrimSpace(host))
	if h == "" {
		return false
	}
	if h == "localhost" || h == "127.0.0.1" || h == "::1" {
		return false
	}
	if strings.HasSuffix(h, ".local") {
		return false
	}
	if ip := net.ParseIP(h); ip != nil {
		return !ip.IsLoopback()
	}
	return true
}

func requireRemoteHostConfirmation(in io.Reader, out io.Writer, host string) error {
	if err := writef(out, "\nWARNING: database host %q does not look like a local address.\n"+
		"This will create demo accounts and camps.\n", host); err != nil {
		return fmt.Errorf("print remote host warning: %w", err)
	}
	if err := writef(out, "Type %q to continue or press enter to abort: ", host); err != nil {
		return fmt.Errorf("print remote host prompt: %w", err)
	}
	resp, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if strings.TrimSpace(resp) != host {
		return errors.New("aborted by user")
	}
	return nil
}

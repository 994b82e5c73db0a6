// Command fintrack-admin runs maintenance tasks against the configured store.
//
//	fintrack-admin seed-categories --user 3
//	fintrack-admin seed-categories --all
//	fintrack-admin set-role --user 3 --role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"fintrack/internal/cli"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/ports"
	"fintrack/internal/services"
)

var errUsage = errors.New("usage: fintrack-admin <seed-categories|set-role> [flags]")

func main() {
	cfg, logger := cli.Bootstrap(log.ComponentAdmin)
	cfg.AMQPURL = ""

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	be := cli.OpenBackend(ctx, logger, cfg, false)
	err := run(ctx, os.Args[1:], be.Store, os.Stdout)
	cli.Close(logger.Logger, "backend", be.Cleanup)
	if err != nil {
		logger.Error("Admin command failed", log.FieldError, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, store ports.Store, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "seed-categories":
		return seedCategories(ctx, args[1:], services.NewRegistration(store), out)
	case "set-role":
		admin := services.NewAdminService(store, nil)
		return setRole(ctx, args[1:], admin, out)
	default:
		return fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

func seedCategories(ctx context.Context, args []string, reg *services.Registration, out io.Writer) error {
	fs := flag.NewFlagSet("seed-categories", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.Int64("user", 0, "seed the default categories of this user")
	all := fs.Bool("all", false, "seed every user without categories")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case *all && *userID != 0:
		return errors.New("--user and --all are mutually exclusive")
	case *all:
		n, err := reg.SeedAllCategories(ctx)
		fmt.Fprintf(out, "seeded default categories for %d users\n", n)
		return err
	case *userID > 0:
		seeded, err := reg.SeedCategories(ctx, *userID)
		if err != nil {
			return err
		}
		if !seeded {
			fmt.Fprintf(out, "user %d already has categories, nothing to do\n", *userID)
			return nil
		}
		fmt.Fprintf(out, "seeded default categories for user %d\n", *userID)
		return nil
	default:
		return errors.New("one of --user or --all is required")
	}
}

func setRole(ctx context.Context, args []string, admin *services.AdminService, out io.Writer) error {
	fs := flag.NewFlagSet("set-role", flag.ContinueOnError)
	fs.SetOutput(out)
	userID := fs.Int64("user", 0, "user to update")
	role := fs.String("role", "", "new role: user or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID <= 0 {
		return errors.New("--user is required")
	}

	p, err := admin.SetRole(ctx, *userID, core.Role(*role))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "user %d now has role %s\n", p.UserID, p.Role)
	return nil
}

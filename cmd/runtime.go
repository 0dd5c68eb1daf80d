package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rana718/pbinit/internal/config"
	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/password"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/provision"
	"github.com/Rana718/pbinit/internal/report"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/spf13/cobra"
)

// session bundles what a provisioning command needs once config is loaded.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	printer *report.Printer
	prov    *provision.Provisioner
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Init(&logger.Config{
		Level:      logger.ParseLevel(cfg.Log.Level),
		Output:     os.Stderr,
		JSON:       cfg.Log.JSON,
		TimeFormat: "15:04:05",
	})
	return cfg, nil
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.Default()

	defs, err := schema.Load(cfg.Schema.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}

	client := pocketbase.New(pocketbase.Options{
		URL:     cfg.URL,
		Timeout: cfg.HTTP.Timeout,
		Retries: cfg.HTTP.Retries,
		Logger:  log,
	})

	prov := provision.New(client, provision.Options{
		Definitions:   defs,
		Order:         cfg.Schema.Order,
		AdminEmail:    cfg.Admin.Email,
		AdminPassword: cfg.Admin.Password,
		Emails:        cfg.GodMode.Emails,
		Collection:    cfg.GodMode.Collection,
		TempPassword:  cfg.GodMode.TempPassword,
		Hasher:        password.NewBcrypt(cfg.GodMode.BcryptCost),
	}, nil)

	return &session{
		cfg:     cfg,
		log:     log,
		printer: report.New(cmd.OutOrStdout()),
		prov:    prov,
	}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runPhases is shared by apply, collections and godmode.
func runPhases(cmd *cobra.Command, phases provision.Phases) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()
	ctx = logger.ContextWithLogger(ctx, s.log)

	s.printer.Start(s.cfg.URL)
	res, err := s.prov.Run(ctx, phases)
	if res != nil {
		s.printer.AdminAuth(res.AdminSkipped, res.AdminErr)
		if phases.Collections {
			s.printer.Collections(res.Collections)
		}
		if phases.GodMode {
			s.printer.Identities(res.Identities)
		}
	}
	if err != nil {
		return fmt.Errorf("PocketBase initialization failed: %w", err)
	}

	s.printer.Summary(s.cfg.URL, res.Collections, res.Identities)

	if strict, _ := cmd.Flags().GetBool("strict"); strict && res.Failed() {
		return fmt.Errorf("%d item(s) failed", report.Failures(res.Collections, res.Identities))
	}
	return nil
}

func addStrictFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("strict", false, "exit non-zero when any collection or account failed")
}

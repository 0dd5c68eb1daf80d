// Package provision runs the bootstrap phases against one PocketBase instance:
// health check, optional admin login, collection reconcile and god mode
// seeding.
package provision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/password"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/reconciler"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/Rana718/pbinit/internal/seeder"
	"github.com/Rana718/pbinit/internal/types"
)

// Client is everything the phases need from PocketBase. *pocketbase.Client
// satisfies it.
type Client interface {
	Health(ctx context.Context) error
	AuthAdmin(ctx context.Context, email, password string) error
	reconciler.Service
	seeder.Store
}

type Options struct {
	Definitions   []types.CollectionDefinition
	Order         string
	AdminEmail    string
	AdminPassword string
	Emails        []string
	Collection    string
	TempPassword  string
	Hasher        password.Hasher
}

// Phases selects which parts of a run execute.
type Phases struct {
	Collections bool
	GodMode     bool
}

var All = Phases{Collections: true, GodMode: true}

type Result struct {
	AdminSkipped bool
	AdminErr     error
	Collections  []types.CollectionOutcome
	Identities   []types.IdentityOutcome
}

// Failed reports whether any per-item outcome missed its goal state.
func (r *Result) Failed() bool {
	for _, c := range r.Collections {
		if !c.OK() {
			return true
		}
	}
	for _, i := range r.Identities {
		if !i.OK() {
			return true
		}
	}
	return false
}

type Provisioner struct {
	client Client
	opts   Options
	log    logger.Logger
}

// New builds a Provisioner. A nil log defers to the logger carried by the
// context of each call.
func New(client Client, opts Options, log logger.Logger) *Provisioner {
	if opts.Definitions == nil {
		opts.Definitions = schema.Builtin()
	}
	if opts.Hasher == nil {
		opts.Hasher = password.NewBcrypt(0)
	}
	return &Provisioner{client: client, opts: opts, log: log}
}

// Run executes the selected phases in order. Only an unreachable service is
// fatal; every other failure is recorded in the result.
func (p *Provisioner) Run(ctx context.Context, phases Phases) (*Result, error) {
	if err := p.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach PocketBase: %w", err)
	}

	log := p.logger(ctx)
	res := &Result{}
	res.AdminSkipped, res.AdminErr = p.authenticate(ctx)

	if phases.Collections {
		steps := schema.Plan(p.opts.Definitions, p.opts.Order)
		log.Debug("collection plan ready", "steps", len(steps), "order", p.opts.Order)
		res.Collections = reconciler.New(p.client, log).Reconcile(ctx, steps)
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	if phases.GodMode {
		s := seeder.New(p.client, p.opts.Hasher, seeder.Options{
			Collection:   p.opts.Collection,
			TempPassword: p.opts.TempPassword,
		}, log)
		res.Identities = s.Seed(ctx, p.opts.Emails)
	}
	return res, ctx.Err()
}

// authenticate logs in as admin when credentials are configured. A failed
// login is a warning; the run continues unauthenticated.
func (p *Provisioner) authenticate(ctx context.Context) (bool, error) {
	log := p.logger(ctx)
	if p.opts.AdminEmail == "" || p.opts.AdminPassword == "" {
		log.Debug("admin credentials not configured, skipping auth")
		return true, nil
	}
	if err := p.client.AuthAdmin(ctx, p.opts.AdminEmail, p.opts.AdminPassword); err != nil {
		log.Warn("admin authentication failed, continuing unauthenticated", "email", p.opts.AdminEmail, "err", err)
		return false, err
	}
	log.Info("admin authenticated", "email", p.opts.AdminEmail)
	return false, nil
}

// StatusReport is the read-only view produced by Status.
type StatusReport struct {
	AdminSkipped bool
	AdminErr     error
	Collections  []types.CollectionPresence
	Identities   []types.IdentityState
}

// Status inspects the remote instance without mutating it. A failed admin
// login is kept on the report so a later list rejection can be explained.
func (p *Provisioner) Status(ctx context.Context) (*StatusReport, error) {
	if err := p.client.Health(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach PocketBase: %w", err)
	}
	rep := &StatusReport{}
	rep.AdminSkipped, rep.AdminErr = p.authenticate(ctx)

	remote, err := p.client.ListCollections(ctx)
	if err != nil {
		return rep, fmt.Errorf("failed to list collections: %w", err)
	}
	ids := make(map[string]string, len(remote))
	for _, c := range remote {
		ids[strings.ToLower(c.Name)] = c.ID
	}

	collections := make([]types.CollectionPresence, 0, len(p.opts.Definitions))
	for _, d := range p.opts.Definitions {
		id, ok := ids[strings.ToLower(d.Name)]
		collections = append(collections, types.CollectionPresence{Name: d.Name, Exists: ok, ID: id})
	}

	authCollection := p.opts.Collection
	if authCollection == "" {
		authCollection = seeder.DefaultCollection
	}
	emails := seeder.Normalize(p.opts.Emails)
	identities := make([]types.IdentityState, 0, len(emails))
	for _, email := range emails {
		state := types.IdentityState{Email: email}
		rec, err := p.client.FindFirstRecord(ctx, authCollection, pocketbase.EqualsFilter("email", email))
		switch {
		case err == nil:
			state.Found = true
			state.Elevated = rec.IsGodMode() && rec.Role() == seeder.GodRole
		case !errors.Is(err, pocketbase.ErrNotFound):
			state.Err = err
		}
		identities = append(identities, state)
	}
	rep.Collections = collections
	rep.Identities = identities
	return rep, nil
}

func (p *Provisioner) logger(ctx context.Context) logger.Logger {
	if p.log != nil {
		return p.log
	}
	return logger.FromContext(ctx)
}

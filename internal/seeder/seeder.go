// Package seeder makes sure every configured identity owns an elevated
// ("god mode") account.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/password"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/types"
)

type Seeder struct {
	store        Store
	hasher       password.Hasher
	collection   string
	tempPassword string
	log          logger.Logger
}

func New(store Store, hasher password.Hasher, opts Options, log logger.Logger) *Seeder {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	if opts.TempPassword == "" {
		opts.TempPassword = DefaultTempPassword
	}
	if log == nil {
		log = logger.Default()
	}
	return &Seeder{
		store:        store,
		hasher:       hasher,
		collection:   opts.Collection,
		tempPassword: opts.TempPassword,
		log:          log,
	}
}

// Seed processes each identity once, in order. A failure on one identity is
// recorded in its outcome and the rest still run.
func (s *Seeder) Seed(ctx context.Context, emails []string) []types.IdentityOutcome {
	identities := Normalize(emails)
	outcomes := make([]types.IdentityOutcome, 0, len(identities))
	for _, email := range identities {
		out := s.seedOne(ctx, email)
		if out.Err != nil {
			s.log.Error("god mode seeding failed", "email", email, "err", out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

func (s *Seeder) seedOne(ctx context.Context, email string) types.IdentityOutcome {
	out := types.IdentityOutcome{Email: email}

	existing, err := s.store.FindFirstRecord(ctx, s.collection, pocketbase.EqualsFilter("email", email))
	switch {
	case err == nil:
		return s.verify(ctx, existing, out)
	case errors.Is(err, pocketbase.ErrNotFound):
		return s.create(ctx, out)
	default:
		out.Status = types.IdentityFailed
		out.Err = fmt.Errorf("failed to look up %s: %w", email, err)
		return out
	}
}

func (s *Seeder) create(ctx context.Context, out types.IdentityOutcome) types.IdentityOutcome {
	hash, err := s.hasher.Hash(s.tempPassword)
	if err != nil {
		out.Status = types.IdentityFailed
		out.Err = err
		return out
	}

	username := Username(out.Email)
	rec, err := s.store.CreateRecord(ctx, s.collection, map[string]any{
		"email":           out.Email,
		"username":        username,
		"password":        hash,
		"passwordConfirm": hash,
		"isGodMode":       true,
		"role":            GodRole,
		"verified":        true,
	})
	if err != nil {
		out.Status = types.IdentityFailed
		out.Err = fmt.Errorf("failed to create account for %s: %w", out.Email, err)
		return out
	}

	out.Status = types.IdentityCreated
	out.AccountID = rec.ID()
	out.Username = username
	out.TempPassword = s.tempPassword
	s.log.Info("god mode account created", "email", out.Email, "id", out.AccountID)
	return out
}

func (s *Seeder) verify(ctx context.Context, rec pocketbase.Record, out types.IdentityOutcome) types.IdentityOutcome {
	out.AccountID = rec.ID()
	out.Username = rec.Username()

	if rec.IsGodMode() && rec.Role() == GodRole {
		out.Status = types.IdentitySatisfied
		s.log.Info("god mode already granted", "email", out.Email, "id", out.AccountID)
		return out
	}

	_, err := s.store.UpdateRecord(ctx, s.collection, out.AccountID, map[string]any{
		"isGodMode": true,
		"role":      GodRole,
	})
	if err != nil {
		out.Status = types.IdentityFailed
		out.Err = fmt.Errorf("failed to elevate %s: %w", out.Email, err)
		return out
	}

	out.Status = types.IdentityElevated
	s.log.Info("god mode granted", "email", out.Email, "id", out.AccountID)
	return out
}

// Normalize trims identities, drops blanks and removes case-insensitive
// duplicates, keeping the first spelling.
func Normalize(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.TrimSpace(e)
		key := strings.ToLower(e)
		if e == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// Username is the local part of an email address.
func Username(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

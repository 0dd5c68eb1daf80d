// Package report renders provisioning outcomes for the operator.
package report

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/types"
	"github.com/fatih/color"
)

var (
	cyan   = color.New(color.FgCyan, color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	white  = color.New(color.FgWhite, color.Bold)
)

type Printer struct {
	w io.Writer
}

// New returns a Printer writing to w, or to stdout when w is nil.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{w: w}
}

func (p *Printer) Start(serviceURL string) {
	cyan.Fprintf(p.w, "🚀 Initializing PocketBase at %s...\n", serviceURL)
}

// AdminAuth reports the outcome of the optional admin login. A failure is
// not fatal and is shown as a warning.
func (p *Printer) AdminAuth(skipped bool, err error) {
	switch {
	case skipped:
		yellow.Fprintln(p.w, "⚠️  No admin credentials configured, continuing unauthenticated")
	case errors.Is(err, pocketbase.ErrUnsupportedVersion):
		red.Fprintf(p.w, "❌ This PocketBase version is not supported: %v\n", err)
	case err != nil:
		yellow.Fprintf(p.w, "⚠️  Admin not found or authentication failed (expected on first run): %v\n", err)
	default:
		green.Fprintln(p.w, "✅ Admin authenticated")
	}
}

func (p *Printer) Collections(outcomes []types.CollectionOutcome) {
	fmt.Fprintln(p.w)
	cyan.Fprintln(p.w, "📦 Creating collections...")
	for _, o := range outcomes {
		switch o.Status {
		case types.CollectionCreated:
			green.Fprintf(p.w, "✅ Created collection: %s\n", o.Name)
			if len(o.Deferred) > 0 {
				green.Fprintf(p.w, "   ↳ linked %s after creation\n", strings.Join(o.Deferred, ", "))
			}
		case types.CollectionExists:
			yellow.Fprintf(p.w, "⚠️  Collection %s already exists\n", o.Name)
		case types.CollectionPartial:
			yellow.Fprintf(p.w, "⚠️  Created collection %s without some relations: %v\n", o.Name, o.Err)
		default:
			red.Fprintf(p.w, "❌ Failed to create collection %s: %v\n", o.Name, o.Err)
		}
	}
}

func (p *Printer) Identities(outcomes []types.IdentityOutcome) {
	fmt.Fprintln(p.w)
	cyan.Fprintln(p.w, "👑 Setting up God Mode users...")
	if len(outcomes) == 0 {
		yellow.Fprintln(p.w, "⚠️  No God Mode emails configured (set god_mode.emails)")
		return
	}
	for _, o := range outcomes {
		switch o.Status {
		case types.IdentityCreated:
			green.Fprintf(p.w, "✅ Created God Mode user: %s\n", o.Email)
			yellow.Fprintf(p.w, "🔑 Temporary password: %s (please change immediately)\n", o.TempPassword)
		case types.IdentityElevated:
			green.Fprintf(p.w, "✅ Updated %s to God Mode\n", o.Email)
		case types.IdentitySatisfied:
			yellow.Fprintf(p.w, "⚠️  God Mode user %s already exists\n", o.Email)
		default:
			red.Fprintf(p.w, "❌ Failed to setup God Mode user %s: %v\n", o.Email, o.Err)
		}
	}
}

// Summary closes a run with counts, next steps and the elevated identities.
func (p *Printer) Summary(serviceURL string, collections []types.CollectionOutcome, identities []types.IdentityOutcome) {
	fmt.Fprintln(p.w)
	if failed := Failures(collections, identities); failed > 0 {
		yellow.Fprintf(p.w, "⚠️  PocketBase initialization completed with %d failure(s)\n", failed)
	} else {
		green.Fprintln(p.w, "🎉 PocketBase initialization completed!")
	}
	if len(collections) > 0 {
		fmt.Fprintf(p.w, "   collections: %s\n", collectionCounts(collections))
	}
	if len(identities) > 0 {
		fmt.Fprintf(p.w, "   god mode users: %s\n", identityCounts(identities))
	}

	p.NextSteps(serviceURL)

	if len(identities) == 0 {
		return
	}
	fmt.Fprintln(p.w)
	white.Fprintln(p.w, "🔐 God Mode users:")
	rotate := false
	for _, o := range identities {
		switch {
		case o.TempPassword != "":
			rotate = true
			fmt.Fprintf(p.w, "   - %s (password: %s)\n", o.Email, o.TempPassword)
		case o.OK():
			fmt.Fprintf(p.w, "   - %s\n", o.Email)
		default:
			red.Fprintf(p.w, "   - %s (not provisioned)\n", o.Email)
		}
	}
	if rotate {
		red.Fprintln(p.w, "⚠️  All new accounts share one temporary password: rotate it immediately")
	}
}

func (p *Printer) NextSteps(serviceURL string) {
	fmt.Fprintln(p.w)
	white.Fprintln(p.w, "📋 Next steps:")
	fmt.Fprintf(p.w, "1. Start PocketBase: pocketbase serve --http=%s\n", hostPort(serviceURL))
	fmt.Fprintf(p.w, "2. Access admin panel: %s/_/\n", serviceURL)
	fmt.Fprintln(p.w, "3. Change God Mode user passwords")
}

// Status renders the read-only view produced by the status command.
func (p *Printer) Status(serviceURL string, collections []types.CollectionPresence, identities []types.IdentityState) {
	cyan.Fprintf(p.w, "🔍 PocketBase at %s\n", serviceURL)

	fmt.Fprintln(p.w)
	white.Fprintln(p.w, "📦 Collections:")
	for _, c := range collections {
		if c.Exists {
			green.Fprintf(p.w, "   ✓ %-20s %s\n", c.Name, c.ID)
		} else {
			red.Fprintf(p.w, "   ✗ %-20s missing\n", c.Name)
		}
	}

	fmt.Fprintln(p.w)
	white.Fprintln(p.w, "👑 God Mode users:")
	if len(identities) == 0 {
		yellow.Fprintln(p.w, "   none configured")
	}
	for _, id := range identities {
		switch {
		case id.Err != nil:
			red.Fprintf(p.w, "   ✗ %-30s %v\n", id.Email, id.Err)
		case !id.Found:
			red.Fprintf(p.w, "   ✗ %-30s no account\n", id.Email)
		case !id.Elevated:
			yellow.Fprintf(p.w, "   ⚠ %-30s account is not god mode\n", id.Email)
		default:
			green.Fprintf(p.w, "   ✓ %s\n", id.Email)
		}
	}
}

// Failures counts outcomes that did not reach their goal state.
func Failures(collections []types.CollectionOutcome, identities []types.IdentityOutcome) int {
	n := 0
	for _, c := range collections {
		if !c.OK() {
			n++
		}
	}
	for _, i := range identities {
		if !i.OK() {
			n++
		}
	}
	return n
}

func collectionCounts(outcomes []types.CollectionOutcome) string {
	counts := map[types.CollectionStatus]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return fmt.Sprintf("%d created, %d existing, %d partial, %d failed",
		counts[types.CollectionCreated], counts[types.CollectionExists],
		counts[types.CollectionPartial], counts[types.CollectionFailed])
}

func identityCounts(outcomes []types.IdentityOutcome) string {
	counts := map[types.IdentityStatus]int{}
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return fmt.Sprintf("%d created, %d elevated, %d already set, %d failed",
		counts[types.IdentityCreated], counts[types.IdentityElevated],
		counts[types.IdentitySatisfied], counts[types.IdentityFailed])
}

func hostPort(serviceURL string) string {
	u, err := url.Parse(serviceURL)
	if err != nil || u.Host == "" {
		return "localhost:8090"
	}
	return u.Host
}

package provision

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/password"
	"github.com/Rana718/pbinit/internal/pbtest"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/Rana718/pbinit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail    = "root@x.com"
	adminPassword = "root-secret-1"
)

func newServer(t *testing.T) *pbtest.Server {
	t.Helper()
	srv := pbtest.NewServer()
	t.Cleanup(srv.Close)
	srv.AdminEmail = adminEmail
	srv.AdminPassword = adminPassword
	srv.RequireAdmin = true
	return srv
}

func newProvisioner(srv *pbtest.Server, opts Options) *Provisioner {
	client := pocketbase.New(pocketbase.Options{URL: srv.URL, Logger: logger.Discard()})
	if opts.AdminEmail == "" {
		opts.AdminEmail = adminEmail
		opts.AdminPassword = adminPassword
	}
	opts.Hasher = password.NewBcrypt(bcrypt.MinCost)
	return New(client, opts, logger.Discard())
}

func TestRunTwice(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	p := newProvisioner(srv, Options{
		Definitions: schema.Builtin(),
		Order:       "dependency",
		Emails:      []string{"a@x.com", "b@x.com"},
	})

	first, err := p.Run(ctx, All)
	require.NoError(t, err)
	require.NoError(t, first.AdminErr)
	assert.False(t, first.AdminSkipped)
	assert.False(t, first.Failed())
	require.Len(t, first.Collections, 12)
	for _, c := range first.Collections {
		assert.Equal(t, types.CollectionCreated, c.Status, "%s: %v", c.Name, c.Err)
	}
	require.Len(t, first.Identities, 2)
	for _, i := range first.Identities {
		assert.Equal(t, types.IdentityCreated, i.Status, "%s: %v", i.Email, i.Err)
		assert.Equal(t, "TempPassword123!", i.TempPassword)
	}

	srv.ResetRequests()
	second, err := p.Run(ctx, All)
	require.NoError(t, err)
	assert.False(t, second.Failed())
	for _, c := range second.Collections {
		assert.Equal(t, types.CollectionExists, c.Status, c.Name)
	}
	for _, i := range second.Identities {
		assert.Equal(t, types.IdentitySatisfied, i.Status, i.Email)
	}
	assert.Zero(t, srv.Mutations())
	assert.Len(t, srv.CollectionNames(), 12)
	assert.Len(t, srv.Records("users"), 2)
}

func TestRunPhases(t *testing.T) {
	ctx := context.Background()

	t.Run("collections only", func(t *testing.T) {
		srv := newServer(t)
		p := newProvisioner(srv, Options{Emails: []string{"a@x.com"}})

		res, err := p.Run(ctx, Phases{Collections: true})
		require.NoError(t, err)
		assert.Len(t, res.Collections, 12)
		assert.Empty(t, res.Identities)
		assert.Empty(t, srv.Records("users"))
	})

	t.Run("god mode only", func(t *testing.T) {
		srv := newServer(t)
		srv.AddCollection(types.CollectionDefinition{Name: "users", Kind: types.KindAuth})
		p := newProvisioner(srv, Options{Emails: []string{"a@x.com"}})

		res, err := p.Run(ctx, Phases{GodMode: true})
		require.NoError(t, err)
		assert.Empty(t, res.Collections)
		require.Len(t, res.Identities, 1)
		assert.Equal(t, types.IdentityCreated, res.Identities[0].Status)
		assert.Equal(t, []string{"users"}, srv.CollectionNames())
	})
}

func TestRunAdminAuth(t *testing.T) {
	ctx := context.Background()

	t.Run("failed login is not fatal", func(t *testing.T) {
		srv := newServer(t)
		srv.RequireAdmin = false
		p := newProvisioner(srv, Options{AdminEmail: adminEmail, AdminPassword: "wrong-password"})

		res, err := p.Run(ctx, All)
		require.NoError(t, err)
		assert.Error(t, res.AdminErr)
		assert.False(t, res.AdminSkipped)
		assert.False(t, res.Failed())
	})

	t.Run("unauthenticated creates are per-item failures", func(t *testing.T) {
		srv := newServer(t)
		p := newProvisioner(srv, Options{AdminEmail: adminEmail, AdminPassword: "wrong-password"})

		res, err := p.Run(ctx, Phases{Collections: true})
		require.NoError(t, err)
		assert.True(t, res.Failed())
		for _, c := range res.Collections {
			assert.Equal(t, types.CollectionFailed, c.Status)
		}
	})

	t.Run("newer servers fail loudly instead of creating empty collections", func(t *testing.T) {
		srv := newServer(t)
		srv.Superusers = true
		p := newProvisioner(srv, Options{})

		res, err := p.Run(ctx, Phases{Collections: true})
		require.NoError(t, err)
		require.Error(t, res.AdminErr)
		assert.True(t, errors.Is(res.AdminErr, pocketbase.ErrUnsupportedVersion))
		assert.True(t, res.Failed())
		assert.Empty(t, srv.CollectionNames())
	})

	t.Run("skipped without credentials", func(t *testing.T) {
		srv := newServer(t)
		srv.RequireAdmin = false
		client := pocketbase.New(pocketbase.Options{URL: srv.URL, Logger: logger.Discard()})
		p := New(client, Options{Hasher: password.NewBcrypt(bcrypt.MinCost)}, logger.Discard())

		res, err := p.Run(ctx, All)
		require.NoError(t, err)
		assert.True(t, res.AdminSkipped)
		assert.NoError(t, res.AdminErr)
	})
}

func TestRunUnreachable(t *testing.T) {
	srv := pbtest.NewServer()
	url := srv.URL
	srv.Close()

	client := pocketbase.New(pocketbase.Options{URL: url, Logger: logger.Discard()})
	p := New(client, Options{}, logger.Discard())

	res, err := p.Run(context.Background(), All)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pocketbase.ErrUnreachable))
	assert.Contains(t, err.Error(), "failed to reach PocketBase")
}

func TestRunCancelled(t *testing.T) {
	srv := newServer(t)
	p := newProvisioner(srv, Options{Emails: []string{"a@x.com"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx, All)
	assert.Error(t, err)
	assert.Empty(t, srv.CollectionNames())
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	srv.AddCollection(types.CollectionDefinition{Name: "users", Kind: types.KindAuth})
	srv.AddRecord("users", map[string]any{"email": "a@x.com", "isGodMode": true, "role": "god"})
	srv.AddRecord("users", map[string]any{"email": "b@x.com", "isGodMode": false, "role": "user"})
	p := newProvisioner(srv, Options{Emails: []string{"a@x.com", "b@x.com", "c@x.com", "A@x.com"}})

	srv.ResetRequests()
	rep, err := p.Status(ctx)
	require.NoError(t, err)
	assert.NoError(t, rep.AdminErr)
	collections, identities := rep.Collections, rep.Identities

	require.Len(t, collections, 12)
	assert.True(t, collections[0].Exists)
	assert.NotEmpty(t, collections[0].ID)
	for _, c := range collections[1:] {
		assert.False(t, c.Exists, c.Name)
	}

	assert.Equal(t, []types.IdentityState{
		{Email: "a@x.com", Found: true, Elevated: true},
		{Email: "b@x.com", Found: true},
		{Email: "c@x.com"},
	}, identities)
	assert.Zero(t, srv.Mutations())
}

func TestStatusKeepsAdminFailure(t *testing.T) {
	srv := newServer(t)
	p := newProvisioner(srv, Options{AdminEmail: adminEmail, AdminPassword: "wrong-password"})

	rep, err := p.Status(context.Background())
	require.Error(t, err)
	require.NotNil(t, rep)
	require.Error(t, rep.AdminErr)
	assert.Contains(t, rep.AdminErr.Error(), "Failed to authenticate")
	assert.False(t, rep.AdminSkipped)
	assert.Contains(t, err.Error(), "failed to list collections")
}

func TestRunUsesContextLogger(t *testing.T) {
	srv := newServer(t)
	srv.RequireAdmin = false
	client := pocketbase.New(pocketbase.Options{URL: srv.URL, Logger: logger.Discard()})
	p := New(client, Options{Definitions: schema.Builtin()[:1]}, nil)

	var buf bytes.Buffer
	ctx := logger.ContextWithLogger(context.Background(), logger.New(&logger.Config{Level: logger.InfoLevel, Output: &buf}))

	_, err := p.Run(ctx, Phases{Collections: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "collection created")
	assert.Contains(t, buf.String(), "collection=users")
}

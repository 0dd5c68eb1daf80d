package reconciler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/pbtest"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/Rana718/pbinit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Reconciler, *pbtest.Server) {
	t.Helper()
	srv := pbtest.NewServer()
	t.Cleanup(srv.Close)
	client := pocketbase.New(pocketbase.Options{URL: srv.URL, Logger: logger.Discard()})
	return New(client, logger.Discard()), srv
}

func statuses(outcomes []types.CollectionOutcome) map[string]types.CollectionStatus {
	out := make(map[string]types.CollectionStatus, len(outcomes))
	for _, o := range outcomes {
		out[o.Name] = o.Status
	}
	return out
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	r, srv := setup(t)
	steps := schema.Plan(schema.Builtin(), "dependency")

	first := r.Reconcile(ctx, steps)
	require.Len(t, first, 12)
	for _, o := range first {
		assert.Equal(t, types.CollectionCreated, o.Status, "collection %s: %v", o.Name, o.Err)
		assert.NoError(t, o.Err)
		assert.NotEmpty(t, o.ID)
	}
	assert.Len(t, srv.CollectionNames(), 12)

	srv.ResetRequests()
	second := r.Reconcile(ctx, steps)
	for _, o := range second {
		assert.Equal(t, types.CollectionExists, o.Status, "collection %s", o.Name)
		assert.NoError(t, o.Err)
	}
	assert.Len(t, srv.CollectionNames(), 12)

	for _, req := range srv.Requests() {
		assert.NotEqual(t, http.MethodPatch, req.Method, "existing collections must not be updated")
	}
}

func TestReconcileCompletesDeferredRelations(t *testing.T) {
	ctx := context.Background()
	r, srv := setup(t)

	outcomes := r.Reconcile(ctx, schema.Plan(schema.Builtin(), "dependency"))

	byName := map[string]types.CollectionOutcome{}
	for _, o := range outcomes {
		byName[o.Name] = o
	}
	assert.Equal(t, []string{"reply_to"}, byName["messages"].Deferred)
	assert.Equal(t, []string{"world_id"}, byName["credits"].Deferred)

	messages := srv.Collection("messages")
	require.NotNil(t, messages)
	require.Len(t, messages.Schema, 7)
	replyTo := messages.Schema[6]
	assert.Equal(t, "reply_to", replyTo.Name)
	assert.Equal(t, messages.ID, replyTo.Options.CollectionID)

	credits := srv.Collection("credits")
	worlds := srv.Collection("worlds")
	require.NotNil(t, credits)
	require.NotNil(t, worlds)
	var worldID string
	for _, f := range credits.Schema {
		if f.Name == "world_id" {
			worldID = f.Options.CollectionID
		}
	}
	assert.Equal(t, worlds.ID, worldID)
}

func TestReconcileResolvesRelationIDs(t *testing.T) {
	ctx := context.Background()
	r, srv := setup(t)
	existing := srv.AddCollection(types.CollectionDefinition{Name: "users", Kind: types.KindAuth})

	defs := []types.CollectionDefinition{
		{Name: "posts", Kind: types.KindBase, Fields: []types.FieldSpec{
			{Name: "author", Type: types.FieldRelation, Options: types.FieldOptions{CollectionID: "users"}},
		}},
	}
	outcomes := r.Reconcile(ctx, schema.Plan(defs, "dependency"))
	require.Equal(t, types.CollectionCreated, outcomes[0].Status)

	posts := srv.Collection("posts")
	require.NotNil(t, posts)
	assert.Equal(t, existing.ID, posts.Schema[0].Options.CollectionID)
}

func TestReconcileIsolatesFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("a malformed definition does not block the rest", func(t *testing.T) {
		r, srv := setup(t)
		defs := []types.CollectionDefinition{
			{Name: "users", Kind: types.KindAuth},
			{Name: "broken", Kind: types.KindBase, Fields: []types.FieldSpec{
				{Name: "ghost", Type: types.FieldRelation, Options: types.FieldOptions{CollectionID: "does_not_exist"}},
			}},
			{Name: "posts", Kind: types.KindBase, Fields: []types.FieldSpec{
				{Name: "author", Type: types.FieldRelation, Options: types.FieldOptions{CollectionID: "users"}},
			}},
		}

		outcomes := r.Reconcile(ctx, schema.Plan(defs, "dependency"))

		assert.Equal(t, map[string]types.CollectionStatus{
			"users":  types.CollectionCreated,
			"broken": types.CollectionFailed,
			"posts":  types.CollectionCreated,
		}, statuses(outcomes))
		assert.Error(t, outcomes[1].Err)
		assert.ElementsMatch(t, []string{"users", "posts"}, srv.CollectionNames())
	})

	t.Run("declared order surfaces forward references as remote errors", func(t *testing.T) {
		r, _ := setup(t)

		outcomes := r.Reconcile(ctx, schema.Plan(schema.Builtin(), "declared"))

		got := statuses(outcomes)
		assert.Equal(t, types.CollectionFailed, got["messages"])
		assert.Equal(t, types.CollectionFailed, got["credits"])
		assert.Equal(t, types.CollectionFailed, got["worlds"])
		assert.Equal(t, types.CollectionCreated, got["media"])
		assert.Equal(t, types.CollectionCreated, got["beta_access"])
	})

	t.Run("a failed completion is reported as partial", func(t *testing.T) {
		r, srv := setup(t)
		srv.AddFault(pbtest.Fault{Method: http.MethodPatch, PathContains: "/api/collections/", Status: http.StatusBadRequest, Message: "Failed to update collection."})

		outcomes := r.Reconcile(ctx, schema.Plan(schema.Builtin(), "dependency"))

		got := statuses(outcomes)
		assert.Equal(t, types.CollectionPartial, got["messages"])
		assert.Equal(t, types.CollectionPartial, got["credits"])
		assert.Equal(t, types.CollectionCreated, got["worlds"])
		for _, o := range outcomes {
			if o.Status == types.CollectionPartial {
				assert.Contains(t, o.Err.Error(), "created without")
			}
		}
	})
}

func TestReconcileLeavesExistingCollectionsAlone(t *testing.T) {
	ctx := context.Background()
	r, srv := setup(t)
	srv.AddCollection(types.CollectionDefinition{Name: "messages", Kind: types.KindBase})

	defs := []types.CollectionDefinition{schema.Builtin()[0], schema.Builtin()[4]}
	outcomes := r.Reconcile(ctx, schema.Plan(defs, "dependency"))

	assert.Equal(t, map[string]types.CollectionStatus{
		"users":    types.CollectionCreated,
		"messages": types.CollectionExists,
	}, statuses(outcomes))
	assert.Empty(t, srv.Collection("messages").Schema)
	assert.Empty(t, outcomes[1].Deferred)
}

type stubService struct {
	listErr  error
	failures map[string]error
	created  []string
}

func (s *stubService) ListCollections(context.Context) ([]pocketbase.CollectionInfo, error) {
	return nil, s.listErr
}

func (s *stubService) CreateCollection(_ context.Context, def types.CollectionDefinition) (pocketbase.CollectionInfo, error) {
	if err := s.failures[def.Name]; err != nil {
		return pocketbase.CollectionInfo{}, err
	}
	s.created = append(s.created, def.Name)
	return pocketbase.CollectionInfo{ID: def.Name + "_id", Name: def.Name}, nil
}

func (s *stubService) UpdateCollection(context.Context, string, types.CollectionDefinition) (pocketbase.CollectionInfo, error) {
	return pocketbase.CollectionInfo{}, nil
}

func TestReconcileWithTransportErrors(t *testing.T) {
	ctx := context.Background()
	svc := &stubService{
		listErr: errors.New("unauthorized"),
		failures: map[string]error{
			"b": pocketbase.ErrUnreachable,
			"c": &pocketbase.APIError{Status: 400, Message: "Collection c already exists."},
		},
	}
	r := New(svc, logger.Discard())

	defs := []types.CollectionDefinition{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}
	outcomes := r.Reconcile(ctx, schema.Plan(defs, "declared"))

	assert.Equal(t, map[string]types.CollectionStatus{
		"a": types.CollectionCreated,
		"b": types.CollectionFailed,
		"c": types.CollectionExists,
		"d": types.CollectionCreated,
	}, statuses(outcomes))
	assert.True(t, errors.Is(outcomes[1].Err, pocketbase.ErrUnreachable))
	assert.Equal(t, []string{"a", "d"}, svc.created)
}

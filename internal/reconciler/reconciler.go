// Package reconciler applies a collection plan to a PocketBase instance.
// Creating a collection that already exists is a no-op, and a failure on
// one collection never stops the others.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Rana718/pbinit/internal/logger"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/schema"
	"github.com/Rana718/pbinit/internal/types"
)

// Service is the slice of the PocketBase API the reconciler needs.
type Service interface {
	ListCollections(ctx context.Context) ([]pocketbase.CollectionInfo, error)
	CreateCollection(ctx context.Context, def types.CollectionDefinition) (pocketbase.CollectionInfo, error)
	UpdateCollection(ctx context.Context, idOrName string, def types.CollectionDefinition) (pocketbase.CollectionInfo, error)
}

type Reconciler struct {
	svc Service
	log logger.Logger
}

func New(svc Service, log logger.Logger) *Reconciler {
	if log == nil {
		log = logger.Default()
	}
	return &Reconciler{svc: svc, log: log}
}

// Reconcile attempts every step exactly once, in order, and returns one
// outcome per step.
func (r *Reconciler) Reconcile(ctx context.Context, steps []schema.Step) []types.CollectionOutcome {
	ids := r.remoteIDs(ctx)
	outcomes := make([]types.CollectionOutcome, len(steps))

	for i, step := range steps {
		name := step.Definition.Name
		outcomes[i] = types.CollectionOutcome{Name: name}

		info, err := r.svc.CreateCollection(ctx, resolveRelations(step.Initial(), ids))
		switch {
		case err == nil:
			ids[strings.ToLower(name)] = info.ID
			outcomes[i].Status = types.CollectionCreated
			outcomes[i].ID = info.ID
			r.log.Info("collection created", "collection", name, "id", info.ID)
		case errors.Is(err, pocketbase.ErrAlreadyExists):
			outcomes[i].Status = types.CollectionExists
			r.log.Info("collection already exists", "collection", name)
		default:
			outcomes[i].Status = types.CollectionFailed
			outcomes[i].Err = err
			r.log.Error("collection create failed", "collection", name, "err", err)
		}
	}

	// Deferred relations are only completed on collections this run created,
	// so pre-existing schemas are never touched.
	for i, step := range steps {
		if len(step.Deferred) == 0 || outcomes[i].Status != types.CollectionCreated {
			continue
		}
		outcomes[i].Deferred = step.Deferred
		_, err := r.svc.UpdateCollection(ctx, outcomes[i].ID, resolveRelations(step.Definition, ids))
		if err != nil {
			outcomes[i].Status = types.CollectionPartial
			outcomes[i].Err = fmt.Errorf("created without %s: %w", strings.Join(step.Deferred, ", "), err)
			r.log.Error("deferred relations failed", "collection", step.Definition.Name, "fields", step.Deferred, "err", err)
			continue
		}
		r.log.Info("deferred relations added", "collection", step.Definition.Name, "fields", step.Deferred)
	}

	return outcomes
}

// remoteIDs maps lowercased collection names to ids. Listing usually needs
// admin rights; without them relations are sent by name.
func (r *Reconciler) remoteIDs(ctx context.Context) map[string]string {
	ids := map[string]string{}
	remote, err := r.svc.ListCollections(ctx)
	if err != nil {
		r.log.Warn("could not list remote collections, relations will reference names", "err", err)
		return ids
	}
	for _, c := range remote {
		ids[strings.ToLower(c.Name)] = c.ID
	}
	return ids
}

// resolveRelations returns a copy of def with relation targets replaced by
// known collection ids.
func resolveRelations(def types.CollectionDefinition, ids map[string]string) types.CollectionDefinition {
	out := types.CollectionDefinition{Name: def.Name, Kind: def.Kind, Fields: make([]types.FieldSpec, len(def.Fields))}
	copy(out.Fields, def.Fields)
	for i, f := range out.Fields {
		if f.Type != types.FieldRelation {
			continue
		}
		if id, ok := ids[strings.ToLower(f.Options.CollectionID)]; ok && id != "" {
			out.Fields[i].Options.CollectionID = id
		}
	}
	return out
}

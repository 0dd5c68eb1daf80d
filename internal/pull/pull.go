// Package pull turns the collections of a live PocketBase instance into a
// schema document usable as schema.file.
package pull

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Rana718/pbinit/internal/export"
	"github.com/Rana718/pbinit/internal/pocketbase"
	"github.com/Rana718/pbinit/internal/types"
)

type Lister interface {
	ListCollections(ctx context.Context) ([]pocketbase.CollectionInfo, error)
}

type Options struct {
	Backup     bool
	OutputPath string
	Format     string
	// System includes collections whose name starts with "_".
	System bool
}

type Service struct {
	lister Lister
}

func NewService(lister Lister) *Service {
	return &Service{lister: lister}
}

// PullSchema writes the remote collections and returns the written path.
// An empty path means the instance had nothing to pull.
func (s *Service) PullSchema(ctx context.Context, opts Options) (string, []types.CollectionDefinition, error) {
	remote, err := s.lister.ListCollections(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list collections: %w", err)
	}

	defs := Definitions(remote, opts.System)
	if len(defs) == 0 {
		return "", nil, nil
	}

	if opts.Backup && opts.OutputPath != "" {
		if err := createBackup(opts.OutputPath); err != nil {
			return "", nil, fmt.Errorf("failed to create backup: %w", err)
		}
	}

	path, err := export.PerformExport(defs, opts.OutputPath, opts.Format)
	if err != nil {
		return "", nil, err
	}
	return path, defs, nil
}

// Definitions converts remote collections to definitions. Relation targets
// are written as collection names so the document works on any instance.
// View collections are skipped.
func Definitions(remote []pocketbase.CollectionInfo, system bool) []types.CollectionDefinition {
	names := make(map[string]string, len(remote))
	for _, c := range remote {
		names[c.ID] = c.Name
	}

	var defs []types.CollectionDefinition
	for _, c := range remote {
		if !system && strings.HasPrefix(c.Name, "_") {
			continue
		}
		kind := types.CollectionKind(c.Type)
		if kind != types.KindAuth && kind != types.KindBase {
			continue
		}

		fields := make([]types.FieldSpec, len(c.Schema))
		copy(fields, c.Schema)
		for i, f := range fields {
			if f.Type != types.FieldRelation {
				continue
			}
			if name, ok := names[f.Options.CollectionID]; ok {
				fields[i].Options.CollectionID = name
			}
		}
		defs = append(defs, types.CollectionDefinition{Name: c.Name, Kind: kind, Fields: fields})
	}
	return defs
}

// createBackup copies an existing file to <path>.backup. A missing file is
// not an error.
func createBackup(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.WriteFile(path+".backup", content, 0644)
}

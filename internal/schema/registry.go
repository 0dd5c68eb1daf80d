// Package schema declares the collection set pbinit provisions and plans the
// order in which it is created.
package schema

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Rana718/pbinit/internal/types"
)

type builder func() types.CollectionDefinition

var (
	mu       sync.Mutex
	builders []builder
)

// Register adds a collection to the built-in set. Registration order is
// declaration order.
func Register(b builder) {
	mu.Lock()
	defer mu.Unlock()
	builders = append(builders, b)
}

// Builtin returns a fresh copy of the built-in collection set.
func Builtin() []types.CollectionDefinition {
	mu.Lock()
	defer mu.Unlock()
	defs := make([]types.CollectionDefinition, 0, len(builders))
	for _, b := range builders {
		defs = append(defs, b())
	}
	return defs
}

// Validate checks unique collection names, unique field names and that every
// relation targets a collection in defs or in known.
func Validate(defs []types.CollectionDefinition, known ...string) error {
	names := make(map[string]bool, len(defs)+len(known))
	for _, k := range known {
		names[strings.ToLower(k)] = true
	}
	var problems []string
	seen := map[string]bool{}
	for _, d := range defs {
		if d.Name == "" {
			problems = append(problems, "collection with empty name")
			continue
		}
		key := strings.ToLower(d.Name)
		if seen[key] {
			problems = append(problems, fmt.Sprintf("duplicate collection %q", d.Name))
		}
		seen[key] = true
		names[key] = true
		if d.Kind != types.KindAuth && d.Kind != types.KindBase {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", d.Name, d.Kind))
		}
	}

	for _, d := range defs {
		fields := map[string]bool{}
		for _, f := range d.Fields {
			if fields[f.Name] {
				problems = append(problems, fmt.Sprintf("%s: duplicate field %q", d.Name, f.Name))
			}
			fields[f.Name] = true
			if !validFieldTypes[f.Type] {
				problems = append(problems, fmt.Sprintf("%s.%s: unknown field type %q", d.Name, f.Name, f.Type))
			}
			if f.Type == types.FieldRelation {
				target := f.Options.CollectionID
				if target == "" {
					problems = append(problems, fmt.Sprintf("%s.%s: relation without collectionId", d.Name, f.Name))
				} else if !names[strings.ToLower(target)] {
					problems = append(problems, fmt.Sprintf("%s.%s: relation target %q is not declared", d.Name, f.Name, target))
				}
			}
			if f.Type == types.FieldSelect && len(f.Options.Values) == 0 {
				problems = append(problems, fmt.Sprintf("%s.%s: select without values", d.Name, f.Name))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid collection definitions: %s", strings.Join(problems, "; "))
	}
	return nil
}

var validFieldTypes = map[types.FieldType]bool{
	types.FieldText: true, types.FieldBool: true, types.FieldNumber: true,
	types.FieldDate: true, types.FieldJSON: true, types.FieldURL: true,
	types.FieldFile: true, types.FieldRelation: true, types.FieldSelect: true,
}

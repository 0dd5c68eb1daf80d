package schema

import (
	"strings"

	"github.com/Rana718/pbinit/internal/types"
)

// Step is one create in a creation plan. Deferred lists relation fields that
// must be left out of the initial create because their target does not
// exist yet (self-references and edges that close a cycle).
type Step struct {
	Definition types.CollectionDefinition
	Deferred   []string
}

// Initial is the payload sent on create.
func (s Step) Initial() types.CollectionDefinition {
	if len(s.Deferred) == 0 {
		return s.Definition
	}
	return s.Definition.Without(s.Deferred...)
}

type DependencyGraph struct {
	defs  []types.CollectionDefinition
	index map[string]int
}

func NewDependencyGraph(defs []types.CollectionDefinition) *DependencyGraph {
	g := &DependencyGraph{defs: defs, index: make(map[string]int, len(defs))}
	for i, d := range defs {
		key := strings.ToLower(d.Name)
		if _, dup := g.index[key]; !dup {
			g.index[key] = i
		}
	}
	return g
}

// dependencies returns the declared collections d references, excluding itself.
func (g *DependencyGraph) dependencies(d types.CollectionDefinition) []int {
	var deps []int
	self := strings.ToLower(d.Name)
	for _, target := range d.Relations() {
		key := strings.ToLower(target)
		if key == self {
			continue
		}
		if i, ok := g.index[key]; ok {
			deps = append(deps, i)
		}
	}
	return deps
}

// BuildCreationOrder returns a stable topological plan. When declaration
// order already satisfies every relation it is kept as is. A cycle is
// broken at the earliest declared collection still waiting, whose
// unsatisfied relations are deferred.
func (g *DependencyGraph) BuildCreationOrder() []Step {
	placed := make([]bool, len(g.defs))
	steps := make([]Step, 0, len(g.defs))

	ready := func(i int) bool {
		for _, dep := range g.dependencies(g.defs[i]) {
			if !placed[dep] {
				return false
			}
		}
		return true
	}

	place := func(i int) {
		d := g.defs[i]
		self := strings.ToLower(d.Name)
		step := Step{Definition: d}
		for _, f := range d.Fields {
			if f.Type != types.FieldRelation || f.Options.CollectionID == "" {
				continue
			}
			key := strings.ToLower(f.Options.CollectionID)
			if key == self {
				step.Deferred = append(step.Deferred, f.Name)
				continue
			}
			if dep, ok := g.index[key]; ok && !placed[dep] {
				step.Deferred = append(step.Deferred, f.Name)
			}
		}
		placed[i] = true
		steps = append(steps, step)
	}

	for len(steps) < len(g.defs) {
		progressed := false
		for i := range g.defs {
			if !placed[i] && ready(i) {
				place(i)
				progressed = true
				break
			}
		}
		if progressed {
			continue
		}
		for i := range g.defs {
			if !placed[i] {
				place(i)
				break
			}
		}
	}

	return steps
}

// DeclaredOrder returns one step per definition, unchanged and undeferred.
func DeclaredOrder(defs []types.CollectionDefinition) []Step {
	steps := make([]Step, 0, len(defs))
	for _, d := range defs {
		steps = append(steps, Step{Definition: d})
	}
	return steps
}

// Plan builds the creation plan for the configured order.
func Plan(defs []types.CollectionDefinition, order string) []Step {
	if order == "declared" {
		return DeclaredOrder(defs)
	}
	return NewDependencyGraph(defs).BuildCreationOrder()
}

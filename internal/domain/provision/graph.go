package provision

import (
	"errors"
	"fmt"
)

// Errors for Graph operations.
var (
	ErrDuplicatePhase   = errors.New("phase with this name already exists")
	ErrCyclicDependency = errors.New("cyclic phase dependency detected")
	ErrMissingDep       = errors.New("phase depends on nonexistent phase")
)

// Graph tracks phase dependencies and yields a deterministic execution order.
type Graph struct {
	phases     map[string]Phase
	order      []string // insertion order, used to break topological ties
	dependedBy map[string][]string
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		phases:     make(map[string]Phase),
		dependedBy: make(map[string][]string),
	}
}

// Len returns the number of phases in the graph.
func (g *Graph) Len() int {
	return len(g.phases)
}

// Add adds a phase to the graph.
// Returns ErrDuplicatePhase if a phase with the same name already exists.
func (g *Graph) Add(phase Phase) error {
	if _, exists := g.phases[phase.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicatePhase, phase.Name)
	}

	g.phases[phase.Name] = phase
	g.order = append(g.order, phase.Name)
	for _, dep := range phase.DependsOn {
		g.dependedBy[dep] = append(g.dependedBy[dep], phase.Name)
	}
	return nil
}

// Get retrieves a phase by name.
func (g *Graph) Get(name string) (Phase, bool) {
	phase, ok := g.phases[name]
	return phase, ok
}

// Validate checks that every declared dependency exists.
func (g *Graph) Validate() error {
	for _, name := range g.order {
		for _, dep := range g.phases[name].DependsOn {
			if _, exists := g.phases[dep]; !exists {
				return fmt.Errorf("%w: phase %q depends on %q", ErrMissingDep, name, dep)
			}
		}
	}
	return nil
}

// TopologicalSort returns phases in dependency order using Kahn's
// algorithm. Ties are broken by insertion order so repeated runs execute
// phases in the same sequence.
// Returns ErrCyclicDependency if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]Phase, error) {
	inDegree := make(map[string]int, len(g.phases))
	for _, name := range g.order {
		inDegree[name] = 0
	}
	for _, name := range g.order {
		for _, dep := range g.phases[name].DependsOn {
			if _, exists := g.phases[dep]; exists {
				inDegree[name]++
			}
		}
	}

	queue := make([]string, 0, len(g.phases))
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	sorted := make([]Phase, 0, len(g.phases))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		sorted = append(sorted, g.phases[name])

		// Preserve insertion order among newly unblocked phases.
		unblocked := make(map[string]bool)
		for _, dependent := range g.dependedBy[name] {
			if _, exists := g.phases[dependent]; !exists {
				continue
			}
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				unblocked[dependent] = true
			}
		}
		for _, candidate := range g.order {
			if unblocked[candidate] {
				queue = append(queue, candidate)
			}
		}
	}

	if len(sorted) != len(g.phases) {
		return nil, ErrCyclicDependency
	}

	return sorted, nil
}

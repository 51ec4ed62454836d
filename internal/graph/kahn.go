package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrCycleDetected is returned when the dependency graph contains a cycle,
// making topological processing impossible.
var ErrCycleDetected = errors.New("cycle detected in relation graph")

// CycleInfo describes a detected cycle and its fallout.
type CycleInfo struct {
	TotalTables   int
	OrderedCount  int      // tables that could still be ordered
	Unprocessed   []string // tables in or blocked by the cycle
	Path          []string // ordered cycle path, first table repeated at the end
	SelfReference string   // a self-referencing relation, when one is the cycle
}

// CycleError is the fatal error for a cyclic relation graph. No row
// ordering can satisfy a circular dependency; the user has to break the
// cycle with IGNORE_RELATIONS.
type CycleError struct {
	Info *CycleInfo
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("cycle detected in relation graph: %d of %d tables could not be ordered",
		len(e.Info.Unprocessed), e.Info.TotalTables)
	if e.Info.SelfReference != "" {
		msg += fmt.Sprintf("\nSelf-referencing relation: %s", e.Info.SelfReference)
	} else if len(e.Info.Path) > 0 {
		msg += fmt.Sprintf("\nCycle: %s", strings.Join(e.Info.Path, " -> "))
	}
	if len(e.Info.Unprocessed) > 0 {
		msg += fmt.Sprintf("\nTables involved or blocked: %s", strings.Join(e.Info.Unprocessed, ", "))
	}
	msg += "\nBreak the cycle with an IGNORE_RELATIONS entry for one of its edges."
	return msg
}

func (e *CycleError) Is(target error) bool { return target == ErrCycleDetected }

// TopologicalOrder returns the tables ordered so that every parent comes
// before all tables referencing it, using Kahn's algorithm. Ties between
// tables with no relative constraint are broken lexicographically, so the
// order is deterministic for a given graph. Returns a CycleError when no
// such order exists.
func (g *SchemaGraph) TopologicalOrder() ([]string, error) {
	// In-degree in scheduling orientation: one per foreign key the table
	// holds. A table is ready once every relation it holds points at an
	// already-ordered parent.
	inDegree := make(map[string]int, g.NodeCount())
	for _, name := range g.TableNames() {
		inDegree[name] = len(g.outgoing[name])
	}

	var ready []string
	for _, name := range g.TableNames() {
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, g.NodeCount())
	for len(ready) > 0 {
		table := ready[0]
		ready = ready[1:]
		order = append(order, table)

		var unlocked []string
		for _, rel := range g.incoming[table] {
			inDegree[rel.Child]--
			if inDegree[rel.Child] == 0 {
				unlocked = append(unlocked, rel.Child)
			}
		}
		if len(unlocked) > 0 {
			ready = append(ready, unlocked...)
			sort.Strings(ready)
		}
	}

	if len(order) != g.NodeCount() {
		return nil, &CycleError{Info: g.cycleInfo(order)}
	}

	return order, nil
}

// HasCycle reports whether the graph contains a dependency cycle.
func (g *SchemaGraph) HasCycle() bool {
	_, err := g.TopologicalOrder()
	return err != nil
}

// cycleInfo collects the unprocessed tables and hunts for a concrete cycle
// path among them for the error message.
func (g *SchemaGraph) cycleInfo(ordered []string) *CycleInfo {
	done := make(map[string]bool, len(ordered))
	for _, t := range ordered {
		done[t] = true
	}

	var unprocessed []string
	for _, name := range g.TableNames() {
		if !done[name] {
			unprocessed = append(unprocessed, name)
		}
	}
	sort.Strings(unprocessed)

	info := &CycleInfo{
		TotalTables:  g.NodeCount(),
		OrderedCount: len(ordered),
		Unprocessed:  unprocessed,
	}

	// A self-referencing relation is the tightest possible cycle; name it
	// directly instead of printing a one-table path.
	for _, t := range unprocessed {
		for _, rel := range g.outgoing[t] {
			if rel.SelfReferencing() {
				info.SelfReference = rel.String()
				info.Path = []string{t, t}
				return info
			}
		}
	}

	remaining := make(map[string]bool, len(unprocessed))
	for _, t := range unprocessed {
		remaining[t] = true
	}
	for _, start := range unprocessed {
		if path := g.findCyclePath(start, remaining); path != nil {
			info.Path = path
			break
		}
	}

	return info
}

// findCyclePath walks foreign key edges (child to parent) within the
// remaining set, returning the first cycle found as a closed path.
func (g *SchemaGraph) findCyclePath(start string, remaining map[string]bool) []string {
	onStack := make(map[string]int) // table -> position in path
	var path []string

	var dfs func(table string) []string
	dfs = func(table string) []string {
		if pos, ok := onStack[table]; ok {
			cycle := append([]string{}, path[pos:]...)
			return append(cycle, table)
		}
		onStack[table] = len(path)
		path = append(path, table)

		for _, rel := range g.outgoing[table] {
			if !remaining[rel.Parent] {
				continue
			}
			if cycle := dfs(rel.Parent); cycle != nil {
				return cycle
			}
		}

		delete(onStack, table)
		path = path[:len(path)-1]
		return nil
	}

	return dfs(start)
}

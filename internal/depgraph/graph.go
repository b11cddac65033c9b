// Package depgraph holds the directed-graph primitives behind task
// dependencies. An edge A -> B means "A is blocked by B". Graphs are
// materialized per call from each task's stored dependency ids; nothing
// here is cached or persisted.
package depgraph

import (
	"strings"

	"dequeue/internal/model"
)

type Graph map[string][]string

// Build materializes the blocks graph from the non-deleted tasks.
func Build(tasks []model.Task) Graph {
	g := Graph{}
	for _, t := range tasks {
		if t.IsDeleted {
			continue
		}
		for _, dep := range t.DependencyIDs {
			if strings.TrimSpace(dep) == "" {
				continue
			}
			g[t.ID] = append(g[t.ID], dep)
		}
	}
	return g
}

// Reachable reports whether to can be reached from from by following
// dependency edges. Depth-first, O(V+E).
func (g Graph) Reachable(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{}
	var dfs func(n string) bool
	dfs = func(n string) bool {
		if n == to {
			return true
		}
		if seen[n] {
			return false
		}
		seen[n] = true
		for _, m := range g[n] {
			if dfs(m) {
				return true
			}
		}
		return false
	}
	return dfs(from)
}

// WouldCycle reports whether adding the edge task -> blocker would close a
// cycle, i.e. task is already reachable from blocker.
func (g Graph) WouldCycle(taskID, blockerID string) bool {
	if taskID == blockerID {
		return true
	}
	return g.Reachable(blockerID, taskID)
}

// Cycles returns every distinct cycle currently present. The mutation layer
// never creates one; this exists for diagnostics (`dequeue deps cycles`).
func (g Graph) Cycles() [][]string {
	visited := map[string]bool{}
	onStack := map[string]bool{}
	var stack []string
	var cycles [][]string
	seenKey := map[string]bool{}

	var dfs func(n string)
	dfs = func(n string) {
		visited[n] = true
		onStack[n] = true
		stack = append(stack, n)

		for _, m := range g[n] {
			if !visited[m] {
				dfs(m)
				continue
			}
			if onStack[m] {
				// Extract cycle from stack starting at m.
				var cycle []string
				for i := len(stack) - 1; i >= 0; i-- {
					cycle = append([]string{stack[i]}, cycle...)
					if stack[i] == m {
						break
					}
				}
				cycle = append(cycle, m)
				key := strings.Join(cycle, "->")
				if !seenKey[key] {
					seenKey[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		onStack[n] = false
	}

	for n := range g {
		if !visited[n] {
			dfs(n)
		}
	}
	return cycles
}

// Dependents returns the ids of tasks whose dependency list names target.
// Full scan of non-deleted tasks; the graph is not indexed by target.
func Dependents(tasks []model.Task, targetID string) []string {
	var out []string
	for _, t := range tasks {
		if t.IsDeleted {
			continue
		}
		for _, dep := range t.DependencyIDs {
			if dep == targetID {
				out = append(out, t.ID)
				break
			}
		}
	}
	return out
}

package graph

import (
	"sort"
)

// SCCs returns the strongly connected components found by Tarjan's
// algorithm. Roots are tried in declaration order, and members within a
// component are sorted by declaration order.
func (g *Graph) SCCs() [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Slice(scc, func(i, j int) bool { return g.index[scc[i]] < g.index[scc[j]] })
			sccs = append(sccs, scc)
		}
	}

	for _, n := range g.nodes {
		if _, visited := indices[n]; !visited {
			strongConnect(n)
		}
	}
	return sccs
}

// Cycles returns one closed path per cyclic component: an SCC with more
// than one member, or a single node with a self-loop. Each path starts and
// ends at the earliest declared member, so A -> B -> C -> A is reported as
// [A B C A]. Paths are ordered by their start node.
func (g *Graph) Cycles() [][]string {
	var cycles [][]string
	for _, scc := range g.SCCs() {
		if len(scc) == 1 && !g.HasEdge(scc[0], scc[0]) {
			continue
		}
		cycles = append(cycles, g.cyclePath(scc))
	}
	sort.Slice(cycles, func(i, j int) bool { return g.index[cycles[i][0]] < g.index[cycles[j][0]] })
	return cycles
}

// Cyclic returns the set of nodes that sit on some cycle.
func (g *Graph) Cyclic() map[string]bool {
	out := make(map[string]bool)
	for _, scc := range g.SCCs() {
		if len(scc) == 1 && !g.HasEdge(scc[0], scc[0]) {
			continue
		}
		for _, n := range scc {
			out[n] = true
		}
	}
	return out
}

// cyclePath walks edges inside the component depth first, in edge order,
// until it gets back to the start node.
func (g *Graph) cyclePath(scc []string) []string {
	start := scc[0]
	if len(scc) == 1 {
		return []string{start, start}
	}

	member := make(map[string]bool, len(scc))
	for _, n := range scc {
		member[n] = true
	}

	visited := map[string]bool{start: true}
	path := []string{start}

	var walk func(string) bool
	walk = func(v string) bool {
		for _, w := range g.edges[v] {
			if !member[w] {
				continue
			}
			if w == start {
				path = append(path, w)
				return true
			}
			if visited[w] {
				continue
			}
			visited[w] = true
			path = append(path, w)
			if walk(w) {
				return true
			}
			path = path[:len(path)-1]
		}
		return false
	}
	walk(start)
	return path
}

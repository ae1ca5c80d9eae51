package graph

// DependencyOrder returns every node after all of its successors, reading an
// edge from -> to as "from depends on to". Among ready nodes the earliest
// declared goes first, so an edge-free graph keeps declaration order.
//
// ok is false when a cycle prevents a full order; order then holds the
// nodes that could be placed.
func (g *Graph) DependencyOrder() (order []string, ok bool) {
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string)
	for _, n := range g.nodes {
		pending[n] = len(g.edges[n])
		for _, dep := range g.edges[n] {
			dependents[dep] = append(dependents[dep], n)
		}
	}

	placed := make(map[string]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := ""
		for _, n := range g.nodes {
			if !placed[n] && pending[n] == 0 {
				next = n
				break
			}
		}
		if next == "" {
			return order, false
		}
		placed[next] = true
		order = append(order, next)
		for _, d := range dependents[next] {
			pending[d]--
		}
	}
	return order, true
}

// Reachable returns the nodes reachable from n, depth first in edge order,
// excluding n itself unless it sits on a cycle through n.
func (g *Graph) Reachable(n string) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(string)
	walk = func(v string) {
		for _, w := range g.edges[v] {
			if seen[w] {
				continue
			}
			seen[w] = true
			out = append(out, w)
			walk(w)
		}
	}
	walk(n)
	return out
}

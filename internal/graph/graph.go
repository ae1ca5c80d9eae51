// Package graph is a small directed graph over string nodes with
// deterministic iteration: nodes and edges are visited in the order they
// were added, never in map order.
//
// It backs both preload-cycle detection at activation time and the
// package group ordering of the resolver.
package graph

import (
	"slices"
)

// Graph is a directed graph. The zero value is not usable; call New.
type Graph struct {
	nodes []string
	index map[string]int
	edges map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index: make(map[string]int),
		edges: make(map[string][]string),
	}
}

// AddNode adds n if absent. Declaration order is the order of first add.
func (g *Graph) AddNode(n string) {
	if _, ok := g.index[n]; ok {
		return
	}
	g.index[n] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

// AddEdge adds from -> to, adding both nodes if needed. Duplicate edges
// are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.edges[from], to) {
		return
	}
	g.edges[from] = append(g.edges[from], to)
}

// HasNode reports whether n was added.
func (g *Graph) HasNode(n string) bool {
	_, ok := g.index[n]
	return ok
}

// HasEdge reports whether from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.Contains(g.edges[from], to)
}

// Nodes returns the nodes in declaration order.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Successors returns the targets of n in insertion order.
func (g *Graph) Successors(n string) []string {
	return slices.Clone(g.edges[n])
}

// Order returns the declaration index of n, or -1.
func (g *Graph) Order(n string) int {
	if i, ok := g.index[n]; ok {
		return i
	}
	return -1
}

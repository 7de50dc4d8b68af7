package gen

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
)

// BreakCycles annotates the reference graph made of nodes and edges.
//
// Strongly connected components are found with Tarjan's algorithm. Every edge
// inside a component with more than one node, and every self-loop, is marked
// InCycle. Within each such component the remaining cycles are broken one at
// a time by deferring one edge of the cycle: array edges are preferred over
// optional edges, then the smallest source name, then the smallest attribute
// name. A cycle made only of required scalar-valued references cannot be
// deferred and yields a CycleError.
//
// The returned order is a topological order of all nodes over the eager
// (non-deferred) edges, dependencies first, with ties broken by name.
func BreakCycles(nodes []string, edges []Edge) ([]CycleAnnotation, []string, error) {
	c := newCycleGraph(nodes, edges)
	anns := make([]CycleAnnotation, len(edges))
	for i, e := range edges {
		anns[i].Edge = e
	}
	for _, comp := range c.components() {
		if !c.cyclic(comp) {
			continue
		}
		member := make(map[string]bool, len(comp))
		for _, n := range comp {
			member[n] = true
		}
		for i, e := range edges {
			if member[e.From] && member[e.To] {
				anns[i].InCycle = true
			}
		}
		if err := c.breakComponent(comp, member); err != nil {
			return nil, nil, err
		}
	}
	for i := range edges {
		anns[i].Deferred = c.deferred[i]
	}
	order, err := c.topological()
	if err != nil {
		return nil, nil, err
	}
	return anns, order, nil
}

type cycleGraph struct {
	nodes    []string
	edges    []Edge
	out      map[string][]int // edge indexes by source, sorted by (To, Attr)
	deferred map[int]bool
}

func newCycleGraph(nodes []string, edges []Edge) *cycleGraph {
	c := &cycleGraph{
		nodes:    slices.Clone(nodes),
		edges:    edges,
		out:      make(map[string][]int, len(nodes)),
		deferred: make(map[int]bool),
	}
	sort.Strings(c.nodes)
	for i, e := range edges {
		c.out[e.From] = append(c.out[e.From], i)
	}
	for _, idx := range c.out {
		slices.SortFunc(idx, func(a, b int) int {
			return cmp.Or(
				cmp.Compare(edges[a].To, edges[b].To),
				cmp.Compare(edges[a].Attr, edges[b].Attr),
			)
		})
	}
	return c
}

// components returns the strongly connected components, each sorted by name,
// in order of their smallest member.
func (c *cycleGraph) components() [][]string {
	var (
		index   = 0
		indexes = make(map[string]int, len(c.nodes))
		low     = make(map[string]int, len(c.nodes))
		onStack = make(map[string]bool, len(c.nodes))
		stack   []string
		comps   [][]string
	)
	var connect func(v string)
	connect = func(v string) {
		indexes[v] = index
		low[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true
		for _, i := range c.out[v] {
			w := c.edges[i].To
			if _, seen := indexes[w]; !seen {
				connect(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], indexes[w])
			}
		}
		if low[v] != indexes[v] {
			return
		}
		var comp []string
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			comp = append(comp, w)
			if w == v {
				break
			}
		}
		sort.Strings(comp)
		comps = append(comps, comp)
	}
	for _, n := range c.nodes {
		if _, seen := indexes[n]; !seen {
			connect(n)
		}
	}
	slices.SortFunc(comps, func(a, b []string) int { return cmp.Compare(a[0], b[0]) })
	return comps
}

// cyclic reports whether a component contains a cycle.
func (c *cycleGraph) cyclic(comp []string) bool {
	if len(comp) > 1 {
		return true
	}
	for _, i := range c.out[comp[0]] {
		if c.edges[i].To == comp[0] {
			return true
		}
	}
	return false
}

// breakComponent defers edges of the component until it has no cycle left.
func (c *cycleGraph) breakComponent(comp []string, member map[string]bool) error {
	for {
		cycle := c.findCycle(comp, member)
		if cycle == nil {
			return nil
		}
		best := -1
		for _, i := range cycle {
			if !c.edges[i].Deferrable() {
				continue
			}
			if best < 0 || preferDeferred(c.edges[i], c.edges[best]) {
				best = i
			}
		}
		if best < 0 {
			names := make([]string, 0, len(cycle)+1)
			for _, i := range cycle {
				names = append(names, c.edges[i].From)
			}
			names = append(names, c.edges[cycle[0]].From)
			return NewCycleError(names, "every reference on the cycle is required and single-valued")
		}
		c.deferred[best] = true
	}
}

// preferDeferred reports whether a is a better edge to defer than b.
func preferDeferred(a, b Edge) bool {
	rank := func(e Edge) int {
		switch {
		case e.Array:
			return 0
		case e.Optional:
			return 1
		}
		return 2
	}
	return cmp.Or(
		cmp.Compare(rank(a), rank(b)),
		cmp.Compare(a.From, b.From),
		cmp.Compare(a.Attr, b.Attr),
		cmp.Compare(a.To, b.To),
	) < 0
}

// findCycle returns the edge indexes of one cycle made of eager edges inside
// the component, or nil. The search is a depth-first traversal in name order,
// so the same cycle is found on every run.
func (c *cycleGraph) findCycle(comp []string, member map[string]bool) []int {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(comp))
	var path []int // edges from the root to the current node
	var found []int
	var visit func(v string) bool
	visit = func(v string) bool {
		color[v] = gray
		for _, i := range c.out[v] {
			e := c.edges[i]
			if c.deferred[i] || !member[e.To] {
				continue
			}
			switch color[e.To] {
			case gray:
				// The cycle starts at the first path edge leaving e.To.
				start := len(path)
				for j := len(path) - 1; j >= 0; j-- {
					if c.edges[path[j]].From == e.To {
						start = j
						break
					}
				}
				found = append(slices.Clone(path[start:]), i)
				return true
			case white:
				path = append(path, i)
				if visit(e.To) {
					return true
				}
				path = path[:len(path)-1]
			}
		}
		color[v] = black
		return false
	}
	for _, n := range comp {
		if color[n] == white && visit(n) {
			return found
		}
	}
	return nil
}

// topological orders the nodes over eager edges with Kahn's algorithm.
func (c *cycleGraph) topological() ([]string, error) {
	pending := make(map[string]int, len(c.nodes))
	dependents := make(map[string][]string)
	for i, e := range c.edges {
		if c.deferred[i] {
			continue
		}
		pending[e.From]++
		dependents[e.To] = append(dependents[e.To], e.From)
	}
	var ready []string
	for _, n := range c.nodes {
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}
	order := make([]string, 0, len(c.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, d := range dependents[n] {
			pending[d]--
			if pending[d] == 0 {
				i, _ := slices.BinarySearch(ready, d)
				ready = slices.Insert(ready, i, d)
			}
		}
	}
	if len(order) != len(c.nodes) {
		var stuck []string
		for _, n := range c.nodes {
			if pending[n] > 0 {
				stuck = append(stuck, n)
			}
		}
		return nil, NewCycleError(stuck, fmt.Sprintf("%d entities still have unresolved forward references", len(stuck)))
	}
	return order, nil
}

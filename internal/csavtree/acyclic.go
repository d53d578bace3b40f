package csavtree

import (
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// verifyAcyclic is a defensive check run before the recursive unflatten
// walk: a cyclic first_child_idx/next_sibling_idx chain (corrupt or
// adversarial input) would otherwise hang that walk. Mirrors
// internal/ardb's gonum-backed topological check on the same kind of flat
// parent-pointer table.
func verifyAcyclic(descs []nodeDesc) error {
	g := simple.NewDirectedGraph()
	for i := range descs {
		g.AddNode(simple.Node(i))
	}
	for i, d := range descs {
		if int(d.FirstChildIdx) == i || int(d.NextSiblingIdx) == i {
			return fmt.Errorf("csavtree: node descriptor table is not acyclic: node %d references itself", i)
		}
		if d.FirstChildIdx != noIndex {
			g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(d.FirstChildIdx)})
		}
		if d.NextSiblingIdx != noIndex {
			g.SetEdge(simple.Edge{F: simple.Node(i), T: simple.Node(d.NextSiblingIdx)})
		}
	}
	if _, err := topo.Sort(g); err != nil {
		return fmt.Errorf("csavtree: node descriptor table is not acyclic: %w", err)
	}
	return nil
}

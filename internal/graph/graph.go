package graph

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/weft-sim/weft/internal/sparse"
)

// NodeID identifies an inserted node.
type NodeID int

const uncolored = -1

type node[N any] struct {
	payload N
	edges   *roaring.Bitmap
	color   int
}

// Graph partitions payloads of type N into conflict-free groups using
// a caller-supplied conflict predicate. Not safe for concurrent use.
type Graph[N any] struct {
	conflicts func(a, b N) bool
	nodes     *sparse.Set[*node[N]]
}

// New returns an empty graph over the given conflict predicate. The
// predicate is expected to be symmetric.
func New[N any](conflicts func(a, b N) bool) *Graph[N] {
	return &Graph[N]{
		conflicts: conflicts,
		nodes:     sparse.New[*node[N]](),
	}
}

// Insert adds a payload node. Edges are not recomputed until the next
// Cliques call. Fails only when the node store cannot grow.
func (g *Graph[N]) Insert(payload N) (NodeID, error) {
	key, err := g.nodes.InsertAuto(&node[N]{
		payload: payload,
		edges:   roaring.New(),
		color:   uncolored,
	})
	if err != nil {
		return 0, fmt.Errorf("graph: insert: %w", err)
	}
	return NodeID(key), nil
}

// Len returns the number of nodes.
func (g *Graph[N]) Len() int {
	return g.nodes.Len()
}

// Cliques rebuilds the edge relation, colors the graph, and returns
// the nodes grouped by color. Every node appears in exactly one group.
// Group order follows color assignment order and is deterministic for
// a given insertion sequence. Calling Cliques again recomputes from
// scratch and yields the same partition if nothing changed.
func (g *Graph[N]) Cliques() ([][]N, error) {
	g.rebuild()
	palette, err := g.color()
	if err != nil {
		return nil, err
	}
	groups := make([][]N, palette)
	for _, n := range g.nodes.Values() {
		groups[n.color] = append(groups[n.color], n.payload)
	}
	return groups, nil
}

// rebuild clears all edges and colors, then re-adds an edge for every
// ordered pair of distinct nodes the predicate reports as conflicting.
func (g *Graph[N]) rebuild() {
	vals := g.nodes.Values()
	keys := g.nodes.Keys()
	for _, n := range vals {
		n.edges.Clear()
		n.color = uncolored
	}
	for i, ni := range vals {
		for j, nj := range vals {
			if keys[i] == keys[j] {
				continue
			}
			if g.conflicts(ni.payload, nj.payload) {
				ni.edges.Add(uint32(keys[j]))
			}
		}
	}
}

// color assigns every node the smallest color unused by its neighbors.
// Selection order is max-saturation: the uncolored node with the most
// distinct neighbor colors goes first, ties broken by the most
// uncolored neighbors, then by insertion order. Returns the palette
// size.
func (g *Graph[N]) color() (int, error) {
	vals := g.nodes.Values()
	palette := 0
	for remaining := len(vals); remaining > 0; remaining-- {
		var best *node[N]
		bestSat, bestOpen := -1, -1
		for _, n := range vals {
			if n.color != uncolored {
				continue
			}
			sat, open, err := g.saturation(n)
			if err != nil {
				return 0, err
			}
			if sat > bestSat || (sat == bestSat && open > bestOpen) {
				best, bestSat, bestOpen = n, sat, open
			}
		}

		forbidden := make([]bool, palette)
		it := best.edges.Iterator()
		for it.HasNext() {
			adj, ok := g.nodes.Get(int(it.Next()))
			if !ok {
				return 0, ErrMissingNode
			}
			if c := (*adj).color; c != uncolored {
				forbidden[c] = true
			}
		}
		assigned := palette
		for c := 0; c < palette; c++ {
			if !forbidden[c] {
				assigned = c
				break
			}
		}
		if assigned == palette {
			palette++
		}
		best.color = assigned
	}
	return palette, nil
}

// saturation counts the distinct colors among n's colored neighbors
// and its number of uncolored neighbors.
func (g *Graph[N]) saturation(n *node[N]) (int, int, error) {
	seen := make(map[int]struct{})
	open := 0
	it := n.edges.Iterator()
	for it.HasNext() {
		adj, ok := g.nodes.Get(int(it.Next()))
		if !ok {
			return 0, 0, ErrMissingNode
		}
		if c := (*adj).color; c == uncolored {
			open++
		} else {
			seen[c] = struct{}{}
		}
	}
	return len(seen), open, nil
}

// Verify re-checks the coloring invariant: every node colored, no two
// adjacent nodes sharing a color. A failure indicates a defect in the
// algorithm or a non-symmetric predicate and must be treated as fatal
// by callers.
func (g *Graph[N]) Verify() error {
	keys := g.nodes.Keys()
	vals := g.nodes.Values()
	for i, n := range vals {
		if n.color == uncolored {
			return fmt.Errorf("%w: node %d", ErrUncoloredNode, keys[i])
		}
		it := n.edges.Iterator()
		for it.HasNext() {
			k := int(it.Next())
			adj, ok := g.nodes.Get(k)
			if !ok {
				return fmt.Errorf("%w: node %d -> %d", ErrMissingNode, keys[i], k)
			}
			if (*adj).color == n.color {
				return fmt.Errorf("%w: nodes %d and %d both color %d", ErrColorConflict, keys[i], k, n.color)
			}
		}
	}
	return nil
}

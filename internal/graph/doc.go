// Package graph partitions payload nodes into conflict-free groups.
//
// A [Graph] holds caller payloads and a conflict predicate. [Graph.Cliques]
// rebuilds the edge relation from the predicate, colors the graph with a
// max-saturation heuristic, and groups same-colored nodes. Nodes sharing
// a group are guaranteed pairwise conflict-free; nodes in different
// groups may or may not conflict (the coloring is valid, not minimal).
//
// The rebuild is O(n²) in node count and is intended to run only when
// the node set or its conflict profile changes, not on every use.
package graph

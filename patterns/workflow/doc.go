// Package workflow implements the directed multigraph a simulation routes
// tokens through. Edges are keyed by (source node, source handle): a handle
// is a named port whose id encodes its direction with an -in or -out suffix,
// and at most one edge may leave any (node, handle) pair, which makes route
// lookups deterministic.
//
// Cycles are legal — tokens may revisit nodes at run time — so the
// topological ordering is only available when the graph happens to be
// acyclic.
package workflow

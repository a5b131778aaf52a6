// Package graph builds the connectivity graph of a set of drawing
// segments. Endpoints closer than a tolerance merge into one node, every
// segment becomes an edge, and connected components are classified as
// closed loops, open chains or branching networks and traced into
// ordered segment chains.
//
// A graph is built and discarded per call; nodes and edges live in
// slices indexed by their ids.
package graph

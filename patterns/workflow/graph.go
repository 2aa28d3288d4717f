package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Edge is one directed connection of the workflow: a (source node, source
// handle) pair wired to a (target node, target handle) pair. Source handles
// must end in -out and target handles in -in.
type Edge struct {
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle"`
	ID           string `json:"id"`
}

// Route is the destination half of an edge, as returned by RouteFrom.
type Route struct {
	Comp   string
	Handle string
}

// routeKey identifies the outgoing side of an edge.
type routeKey struct {
	source string
	handle string
}

// Graph is a workflow graph built from an edge list. Nodes come into
// existence by appearing as an edge endpoint; node enumeration preserves
// first-appearance order so results are deterministic.
type Graph struct {
	edges     []Edge
	routes    map[routeKey]Route
	incoming  map[string][]Edge
	outgoing  map[string][]Edge
	nodeOrder []string
	nodeSet   map[string]struct{}

	// handles tracks each node's known handle ids with their direction
	// ("in" or "out").
	handles map[string]map[string]string
}

// ErrDuplicateRoute is returned when two edges share a (source, sourceHandle)
// pair, which would make routing ambiguous.
var ErrDuplicateRoute = errors.New("workflow: duplicate (source, sourceHandle) edge key")

// New builds a graph from an edge list, validating handle suffixes and route
// uniqueness. A nil or empty edge list yields a valid empty graph.
func New(edges []Edge) (*Graph, error) {
	graph := &Graph{
		edges:    make([]Edge, 0, len(edges)),
		routes:   make(map[routeKey]Route, len(edges)),
		incoming: make(map[string][]Edge),
		outgoing: make(map[string][]Edge),
		nodeSet:  make(map[string]struct{}),
		handles:  make(map[string]map[string]string),
	}
	for _, edge := range edges {
		if err := graph.addEdge(edge); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

func (g *Graph) addEdge(edge Edge) error {
	if edge.Source == "" || edge.Target == "" {
		return fmt.Errorf("workflow: edge %q has empty endpoint (source=%q, target=%q)",
			edge.ID, edge.Source, edge.Target)
	}
	if !strings.HasSuffix(edge.SourceHandle, "-out") {
		return fmt.Errorf("workflow: edge %q source handle %q must end in -out", edge.ID, edge.SourceHandle)
	}
	if !strings.HasSuffix(edge.TargetHandle, "-in") {
		return fmt.Errorf("workflow: edge %q target handle %q must end in -in", edge.ID, edge.TargetHandle)
	}

	key := routeKey{source: edge.Source, handle: edge.SourceHandle}
	if _, exists := g.routes[key]; exists {
		return fmt.Errorf("%w: (%s, %s)", ErrDuplicateRoute, edge.Source, edge.SourceHandle)
	}

	g.addNode(edge.Source)
	g.addNode(edge.Target)
	g.edges = append(g.edges, edge)
	g.routes[key] = Route{Comp: edge.Target, Handle: edge.TargetHandle}
	g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
	g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
	g.handles[edge.Source][edge.SourceHandle] = "out"
	g.handles[edge.Target][edge.TargetHandle] = "in"
	return nil
}

func (g *Graph) addNode(node string) {
	if _, seen := g.nodeSet[node]; seen {
		return
	}
	g.nodeSet[node] = struct{}{}
	g.nodeOrder = append(g.nodeOrder, node)
	g.handles[node] = make(map[string]string)
}

// RouteFrom resolves the single edge leaving (source, sourceHandle). This is
// the hot path of token forwarding; it is a single map lookup.
func (g *Graph) RouteFrom(source, sourceHandle string) (Route, bool) {
	route, ok := g.routes[routeKey{source: source, handle: sourceHandle}]
	return route, ok
}

// HasNode reports whether the node appears in any edge.
func (g *Graph) HasNode(node string) bool {
	_, ok := g.nodeSet[node]
	return ok
}

// Nodes returns every node in first-appearance order.
func (g *Graph) Nodes() []string {
	nodes := make([]string, len(g.nodeOrder))
	copy(nodes, g.nodeOrder)
	return nodes
}

// Roots returns the nodes with no incoming edges, in first-appearance order.
func (g *Graph) Roots() []string {
	var roots []string
	for _, node := range g.nodeOrder {
		if len(g.incoming[node]) == 0 {
			roots = append(roots, node)
		}
	}
	return roots
}

// Leaves returns the nodes with no outgoing edges, in first-appearance order.
func (g *Graph) Leaves() []string {
	var leaves []string
	for _, node := range g.nodeOrder {
		if len(g.outgoing[node]) == 0 {
			leaves = append(leaves, node)
		}
	}
	return leaves
}

// Incoming returns the edges arriving at a node.
func (g *Graph) Incoming(node string) []Edge {
	return append([]Edge(nil), g.incoming[node]...)
}

// Outgoing returns the edges leaving a node.
func (g *Graph) Outgoing(node string) []Edge {
	return append([]Edge(nil), g.outgoing[node]...)
}

// Handles returns a node's known handle ids mapped to their direction.
func (g *Graph) Handles(node string) map[string]string {
	out := make(map[string]string, len(g.handles[node]))
	for id, dir := range g.handles[node] {
		out[id] = dir
	}
	return out
}

// HandleChannel strips the direction suffix from a handle id, returning the
// semantic channel name both sides of a connection share.
func HandleChannel(handleID string) string {
	if channel, ok := strings.CutSuffix(handleID, "-in"); ok {
		return channel
	}
	if channel, ok := strings.CutSuffix(handleID, "-out"); ok {
		return channel
	}
	return handleID
}

// TopologicalOrder returns the nodes in a valid execution order, computed
// with Kahn's algorithm. Within a frontier, nodes keep first-appearance order
// so the result is deterministic. If the graph contains a cycle the order is
// undefined and the result is empty.
func (g *Graph) TopologicalOrder() []string {
	inDegree := make(map[string]int, len(g.nodeOrder))
	for _, node := range g.nodeOrder {
		inDegree[node] = len(g.incoming[node])
	}

	position := make(map[string]int, len(g.nodeOrder))
	for index, node := range g.nodeOrder {
		position[node] = index
	}

	var frontier []string
	for _, node := range g.nodeOrder {
		if inDegree[node] == 0 {
			frontier = append(frontier, node)
		}
	}

	order := make([]string, 0, len(g.nodeOrder))
	for len(frontier) > 0 {
		sort.Slice(frontier, func(i, j int) bool {
			return position[frontier[i]] < position[frontier[j]]
		})
		node := frontier[0]
		frontier = frontier[1:]
		order = append(order, node)
		for _, edge := range g.outgoing[node] {
			inDegree[edge.Target]--
			if inDegree[edge.Target] == 0 {
				frontier = append(frontier, edge.Target)
			}
		}
	}

	if len(order) != len(g.nodeOrder) {
		return nil
	}
	return order
}

// HasCycles reports whether the graph contains at least one directed cycle.
func (g *Graph) HasCycles() bool {
	return len(g.nodeOrder) > 0 && g.TopologicalOrder() == nil
}

// PathBetween returns a shortest node path from source to target, inclusive,
// or nil when no path exists.
func (g *Graph) PathBetween(source, target string) []string {
	if !g.HasNode(source) || !g.HasNode(target) {
		return nil
	}
	if source == target {
		return []string{source}
	}

	previous := map[string]string{source: source}
	queue := []string{source}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, edge := range g.outgoing[node] {
			if _, visited := previous[edge.Target]; visited {
				continue
			}
			previous[edge.Target] = node
			if edge.Target == target {
				return buildPath(previous, source, target)
			}
			queue = append(queue, edge.Target)
		}
	}
	return nil
}

func buildPath(previous map[string]string, source, target string) []string {
	var reversed []string
	for node := target; node != source; node = previous[node] {
		reversed = append(reversed, node)
	}
	reversed = append(reversed, source)
	path := make([]string, len(reversed))
	for i, node := range reversed {
		path[len(reversed)-1-i] = node
	}
	return path
}

// Edges returns a copy of the edge list in load order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// MarshalEdges serialises the graph back to its edge-list JSON form.
// Re-parsing the result yields a graph with the same routes.
func (g *Graph) MarshalEdges() ([]byte, error) {
	return json.Marshal(g.edges)
}

package schema

// Multiplicity is one side of a relation: "1" or "N".
type Multiplicity string

const (
	One  Multiplicity = "1"
	Many Multiplicity = "N"
)

// Cardinality is the (own, foreign) pair carried by a directed relation edge.
type Cardinality struct {
	Own     Multiplicity
	Foreign Multiplicity
}

// Edge is a directed relation between two tables.
type Edge struct {
	From string
	To   string
	Cardinality
}

// Label renders the edge as 1:1, N:M, 1:N or N:1.
func (e Edge) Label() string {
	switch {
	case e.From == e.To:
		return "1:1"
	case e.Own == e.Foreign:
		return "N:M"
	}
	return string(e.Foreign) + ":" + string(e.Own)
}

// Graph holds the relations between all tables of a registry, direct and
// bridged. Nodes and each node's edges keep insertion order.
type Graph struct {
	nodes columns[*columns[Cardinality]]
}

func newGraph() *Graph {
	return &Graph{nodes: newColumns[*columns[Cardinality]]()}
}

func (g *Graph) addNode(name string) {
	if _, ok := g.nodes.get(name); ok {
		return
	}
	adj := newColumns[Cardinality]()
	adj.set(name, Cardinality{Own: One, Foreign: One})
	g.nodes.set(name, &adj)
}

func (g *Graph) set(from, to string, c Cardinality) {
	g.addNode(from)
	g.addNode(to)
	adj, _ := g.nodes.get(from)
	adj.set(to, c)
}

// Edge returns the relation from -> to.
func (g *Graph) Edge(from, to string) (Edge, bool) {
	adj, ok := g.nodes.get(from)
	if !ok {
		return Edge{}, false
	}
	c, ok := adj.get(to)
	if !ok {
		return Edge{}, false
	}
	return Edge{From: from, To: to, Cardinality: c}, true
}

// Nodes returns the table names of the graph.
func (g *Graph) Nodes() []string {
	return g.nodes.keys()
}

// Edges returns every relation leaving from, the self relation first.
func (g *Graph) Edges(from string) []Edge {
	adj, ok := g.nodes.get(from)
	if !ok {
		return nil
	}
	out := make([]Edge, 0, len(adj.names))
	for _, to := range adj.names {
		out = append(out, Edge{From: from, To: to, Cardinality: adj.vals[to]})
	}
	return out
}

// Size returns the number of directed edges, self relations included.
func (g *Graph) Size() int {
	n := 0
	for _, from := range g.nodes.names {
		adj, _ := g.nodes.get(from)
		n += len(adj.names)
	}
	return n
}

// Relations computes the cardinality of every pair of tables related directly
// by a foreign key or indirectly through bridge tables. reg is only read.
func Relations(reg *Registry) *Graph {
	g := newGraph()
	for _, name := range reg.Names() {
		g.addNode(name)
	}
	seed(g, reg)

	// Every productive pass adds at least one edge and there are at most n*n.
	n := g.nodes.len()
	for pass := 0; pass <= n*n; pass++ {
		collapse(g)
		if compose(g) == 0 {
			break
		}
	}
	return g
}

// seed adds the direct relations: an owner holding a foreign key is N:1 to the
// referenced table, and two tables referencing each other are N:M.
func seed(g *Graph, reg *Registry) {
	for _, t := range reg.Tables() {
		for _, ref := range t.ForeignKeys() {
			if ref == t.Name {
				continue
			}
			if _, ok := g.Edge(t.Name, ref); ok {
				g.set(t.Name, ref, Cardinality{Own: Many, Foreign: Many})
				g.set(ref, t.Name, Cardinality{Own: Many, Foreign: Many})
				continue
			}
			g.set(t.Name, ref, Cardinality{Own: One, Foreign: Many})
			g.set(ref, t.Name, Cardinality{Own: Many, Foreign: One})
		}
	}
}

// collapse turns every (1,1) edge between distinct tables into (N,N).
func collapse(g *Graph) {
	for _, from := range g.nodes.names {
		adj, _ := g.nodes.get(from)
		for _, to := range adj.names {
			if to == from {
				continue
			}
			if c := adj.vals[to]; c.Own == One && c.Foreign == One {
				adj.vals[to] = Cardinality{Own: Many, Foreign: Many}
			}
		}
	}
}

// compose derives a -> b through every bridge table over adjacent to both,
// reading the graph as it was at the start of the pass. Existing edges are
// never overwritten; for a new edge the last bridge visited wins.
// It returns the number of edges added.
func compose(g *Graph) int {
	pending := newColumns[*columns[Cardinality]]()
	for _, over := range g.nodes.names {
		adj, _ := g.nodes.get(over)
		for _, a := range adj.names {
			for _, b := range adj.names {
				if a == b {
					continue
				}
				toOver, _ := g.Edge(a, over)
				fromOver := adj.vals[b]
				cand, ok := pending.get(a)
				if !ok {
					c := newColumns[Cardinality]()
					cand = &c
					pending.set(a, cand)
				}
				cand.set(b, Cardinality{Own: toOver.Own, Foreign: fromOver.Foreign})
			}
		}
	}

	added := 0
	for _, a := range g.nodes.names {
		cand, ok := pending.get(a)
		if !ok {
			continue
		}
		for _, b := range cand.names {
			if _, ok := g.Edge(a, b); ok {
				continue
			}
			g.set(a, b, cand.vals[b])
			added++
		}
	}
	return added
}

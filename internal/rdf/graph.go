package rdf

import "strconv"

// Graph is an append-only multiset of triples. It also owns the blank node
// allocator for one transformation session. A Graph is not safe for
// concurrent mutation; the transformer appends from a single goroutine.
type Graph struct {
	triples []Triple
	nextID  int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{} }

// NewBlankNode allocates a blank node unique within this graph.
func (g *Graph) NewBlankNode() BlankNode {
	id := "b" + strconv.Itoa(g.nextID)
	g.nextID++
	return BlankNode{ID: id}
}

// Add appends a statement.
func (g *Graph) Add(s Term, p IRI, o Term) {
	g.triples = append(g.triples, Triple{S: s, P: p, O: o})
}

// Len reports the number of appended statements, duplicates included.
func (g *Graph) Len() int { return len(g.triples) }

// Triples returns the statements in append order. The slice must not be
// modified.
func (g *Graph) Triples() []Triple { return g.triples }

// Unique returns distinct statements in first-seen order.
func (g *Graph) Unique() []Triple {
	seen := make(map[string]struct{}, len(g.triples))
	out := make([]Triple, 0, len(g.triples))
	for _, t := range g.triples {
		k := t.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Has reports whether the graph contains the statement.
func (g *Graph) Has(s Term, p IRI, o Term) bool {
	want := Triple{S: s, P: p, O: o}.key()
	for _, t := range g.triples {
		if t.key() == want {
			return true
		}
	}
	return false
}

// Match returns all statements matching the pattern; nil positions match
// anything.
func (g *Graph) Match(s Term, p *IRI, o Term) []Triple {
	var out []Triple
	for _, t := range g.triples {
		if s != nil && termKey(s) != termKey(t.S) {
			continue
		}
		if p != nil && p.Value != t.P.Value {
			continue
		}
		if o != nil && termKey(o) != termKey(t.O) {
			continue
		}
		out = append(out, t)
	}
	return out
}

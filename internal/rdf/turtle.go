package rdf

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteTurtle writes the distinct statements of g as Turtle, grouping
// consecutive statements by subject. A nil prefixes map selects
// DefaultPrefixes.
func WriteTurtle(w io.Writer, g *Graph, prefixes map[string]string) error {
	if prefixes == nil {
		prefixes = DefaultPrefixes
	}
	bw := bufio.NewWriter(w)
	for _, p := range sortedPrefixKeys(prefixes) {
		if _, err := fmt.Fprintf(bw, "@prefix %s: <%s> .\n", p, prefixes[p]); err != nil {
			return fmt.Errorf("turtle: write prefix: %w", err)
		}
	}
	if len(prefixes) > 0 {
		_ = bw.WriteByte('\n')
	}

	var (
		open bool
		last Term
	)
	for _, t := range g.Unique() {
		if open && termKey(last) == termKey(t.S) {
			fmt.Fprintf(bw, " ;\n    %s %s", renderPredicate(t.P, prefixes), renderTerm(t.O, prefixes))
			continue
		}
		if open {
			bw.WriteString(" .\n")
		}
		fmt.Fprintf(bw, "%s %s %s", renderTerm(t.S, prefixes), renderPredicate(t.P, prefixes), renderTerm(t.O, prefixes))
		open, last = true, t.S
	}
	if open {
		bw.WriteString(" .\n")
	}
	return bw.Flush()
}

func renderPredicate(p IRI, prefixes map[string]string) string {
	if p == RDFType {
		return "a"
	}
	return renderTerm(p, prefixes)
}

func sortedPrefixKeys(prefixes map[string]string) []string {
	keys := make([]string, 0, len(prefixes))
	for key := range prefixes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// abbreviateQName picks the longest matching namespace.
func abbreviateQName(iri string, prefixes map[string]string) (string, bool) {
	bestNS, bestPrefix := "", ""
	for prefix, ns := range prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) {
			continue
		}
		if !isQNameLocal(iri[len(ns):]) {
			continue
		}
		if len(ns) > len(bestNS) {
			bestNS, bestPrefix = ns, prefix
		}
	}
	if bestNS == "" {
		return "", false
	}
	return bestPrefix + ":" + iri[len(bestNS):], true
}

// isQNameLocal is a conservative PN_LOCAL check: letters, digits, '_' and
// '-', not starting with '-'.
func isQNameLocal(local string) bool {
	if local == "" {
		return false
	}
	for i, r := range local {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' && i > 0:
		default:
			return false
		}
	}
	return true
}

// Package diag accumulates the recoverable conditions raised while
// building a model. Hand-edited input files are the norm in this
// domain, so everything short of an undecodable file is collected
// here and reported next to the artifacts instead of aborting the
// run.
package diag

import (
	"fmt"
	"strings"
	"sync"
)

type Kind uint8

const (
	UnparsedLine Kind = iota
	DanglingReference
	UnknownGroupReference
	UnresolvedAnchorNode
)

func (k Kind) String() string {
	return [...]string{
		"UnparsedLine",
		"DanglingReference",
		"UnknownGroupReference",
		"UnresolvedAnchorNode",
	}[k]
}

// Entry describes one skipped or dropped item. Line is the 1-based
// source line for parse-time findings and zero otherwise; NodeID and
// Coord are set for constraint-time findings so a human can locate
// the node for manual follow-up.
type Entry struct {
	Kind   Kind
	Line   int
	NodeID int
	Coord  [3]float64
	Detail string
}

func (e Entry) String() string {
	switch {
	case e.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", e.Kind, e.Line, e.Detail)
	case e.NodeID > 0:
		return fmt.Sprintf("%s: node %d at (%.6g, %.6g, %.6g): %s",
			e.Kind, e.NodeID, e.Coord[0], e.Coord[1], e.Coord[2], e.Detail)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
}

// Report is safe for concurrent use; the constraint generator appends
// from several workers.
type Report struct {
	mu      sync.Mutex
	entries []Entry
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Add(e Entry) {
	r.mu.Lock()
	r.entries = append(r.entries, e)
	r.mu.Unlock()
}

func (r *Report) Addf(kind Kind, line int, format string, args ...interface{}) {
	r.Add(Entry{Kind: kind, Line: line, Detail: fmt.Sprintf(format, args...)})
}

// Entries returns a copy of the collected entries in insertion order.
func (r *Report) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Report) Count(kind Kind) (n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.Kind == kind {
			n++
		}
	}
	return
}

func (r *Report) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Report) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) == 0 {
		return "no diagnostics"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d diagnostics:\n", len(r.entries))
	for _, e := range r.entries {
		sb.WriteString("  ")
		sb.WriteString(e.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

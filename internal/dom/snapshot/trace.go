package snapshot

import (
	"strings"

	"github.com/ajramos/mailkeys/internal/dom"
)

// Entry is one recorded side effect
type Entry struct {
	Op     string
	Target *Element
	Detail string
}

// String renders the entry as "op target detail"
func (e Entry) String() string {
	parts := []string{e.Op}
	if e.Target != nil {
		parts = append(parts, dom.Describe(e.Target))
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	return strings.Join(parts, " ")
}

func (d *Document) record(op string, target *Element, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = append(d.trace, Entry{Op: op, Target: target, Detail: detail})
}

// Trace returns a copy of every side effect recorded so far
func (d *Document) Trace() []Entry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Entry(nil), d.trace...)
}

// TraceOps returns the recorded entries whose Op is one of ops
func (d *Document) TraceOps(ops ...string) []Entry {
	var out []Entry
	for _, e := range d.Trace() {
		for _, op := range ops {
			if e.Op == op {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// ResetTrace drops the recorded side effects
func (d *Document) ResetTrace() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.trace = nil
}

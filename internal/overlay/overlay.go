// Package overlay wires the cursor, the action sequencer and the key dispatcher
// onto a host document, and owns the listeners and timers that keep them alive.
package overlay

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/ajramos/mailkeys/internal/actions"
	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/cursor"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/interact"
	"github.com/ajramos/mailkeys/internal/keys"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/ajramos/mailkeys/internal/rows"
	"github.com/ajramos/mailkeys/internal/style"
)

// ErrInactive is returned by Start when the page is not the configured host or
// the overlay is disabled
var ErrInactive = errors.New("overlay inactive for this page")

// Counter persists operation counts. Only operation names ever reach it.
type Counter interface {
	Increment(op string) error
}

// Active reports whether the overlay should run on a page served from host
func Active(cfg *config.Config, host string) bool {
	if cfg == nil || !cfg.Enabled || strings.TrimSpace(cfg.Domain) == "" {
		return false
	}
	return strings.Contains(strings.ToLower(host), strings.ToLower(cfg.Domain))
}

// Overlay is one running instance bound to a document
type Overlay struct {
	cfg    *config.Config
	doc    dom.Document
	sched  loop.Scheduler
	logger *log.Logger

	Locator    *locator.Service
	Marker     *style.Marker
	Cursor     *cursor.Cursor
	Sequencer  *actions.Sequencer
	Dispatcher *keys.Dispatcher

	counter Counter
	counts  map[string]int

	running bool
	stops   []func()
	refresh loop.Timer
}

// New builds the component graph for doc. A nil logger keeps every component
// silent; verbose logging is decided by the caller.
func New(doc dom.Document, table *locator.Table, sched loop.Scheduler, cfg *config.Config, logger *log.Logger) *Overlay {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	loc := locator.New(doc, table, logger)
	act := interact.New(logger)
	marker := style.NewMarker(doc)
	cur := cursor.New(rows.NewView(loc), loc, marker, act, sched, cfg.Delays, logger)
	seq := actions.NewSequencer(cur, loc, act, sched, cfg.Delays, logger)
	o := &Overlay{
		cfg:        cfg,
		doc:        doc,
		sched:      sched,
		logger:     logger,
		Locator:    loc,
		Marker:     marker,
		Cursor:     cur,
		Sequencer:  seq,
		Dispatcher: keys.NewDispatcher(doc, cur, seq, sched, cfg.Keys, logger),
		counts:     map[string]int{},
	}
	o.Dispatcher.OnCommand(o.count)
	return o
}

// SetCounter attaches a persistent counter; nil detaches it
func (o *Overlay) SetCounter(c Counter) {
	o.counter = c
}

func (o *Overlay) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}

func (o *Overlay) count(op string) {
	o.counts[op]++
	if o.counter == nil {
		return
	}
	if err := o.counter.Increment(op); err != nil {
		o.logf("stats: %v", err)
	}
}

// Counts returns how often each operation fired since New
func (o *Overlay) Counts() map[string]int {
	out := make(map[string]int, len(o.counts))
	for k, v := range o.counts {
		out[k] = v
	}
	return out
}

// Running reports whether Start succeeded and Stop has not been called
func (o *Overlay) Running() bool { return o.running }

// Start injects the marker style, attaches the capture-phase key listener and
// the mutation observer, and starts the periodic marker refresh. Outside the
// configured host it touches nothing and returns ErrInactive.
func (o *Overlay) Start() error {
	if o.running {
		return nil
	}
	if !Active(o.cfg, o.doc.Host()) {
		return fmt.Errorf("%s: %w", o.doc.Host(), ErrInactive)
	}
	if err := o.Marker.Inject(); err != nil {
		return fmt.Errorf("inject style: %w", err)
	}
	o.stops = append(o.stops,
		o.doc.AddKeyListener(true, o.onKey),
		o.doc.Observe(o.Cursor.Invalidate),
	)
	o.running = true
	o.scheduleRefresh()
	o.logf("overlay started")
	return nil
}

func (o *Overlay) onKey(ev *dom.KeyEvent) {
	if !o.running {
		return
	}
	o.Dispatcher.Handle(ev)
}

func (o *Overlay) scheduleRefresh() {
	o.refresh = o.sched.After(o.cfg.Delays.MarkerRefresh(), func() {
		if !o.running {
			return
		}
		o.Cursor.Reassert()
		o.scheduleRefresh()
	})
}

// Stop detaches everything Start attached. Continuations already scheduled by an
// action still run; they only touch the page through fresh lookups.
func (o *Overlay) Stop() {
	if !o.running {
		return
	}
	o.running = false
	for _, stop := range o.stops {
		stop()
	}
	o.stops = nil
	if o.refresh != nil {
		o.refresh.Stop()
		o.refresh = nil
	}
	o.logf("overlay stopped: %s", o.summary())
}

func (o *Overlay) summary() string {
	names := make([]string, 0, len(o.counts))
	for k := range o.counts {
		names = append(names, k)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, k := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", k, o.counts[k]))
	}
	if len(parts) == 0 {
		return "no operations"
	}
	return strings.Join(parts, " ")
}

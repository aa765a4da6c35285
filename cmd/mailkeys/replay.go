package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/loop"
	"github.com/ajramos/mailkeys/internal/overlay"
	"github.com/spf13/cobra"
)

// step is one entry of a --keys script: a key press or a pause
type step struct {
	key  *dom.KeyEvent
	wait time.Duration
}

// parseKeys reads a whitespace separated key script. Tokens are single
// characters ("j", "#", "I"), key names ("Escape", "Enter"), modifier
// combinations ("ctrl+e", "alt+shift+x") and pauses ("wait:500ms").
func parseKeys(script string) ([]step, error) {
	var steps []step
	for _, tok := range strings.Fields(script) {
		if rest, ok := strings.CutPrefix(tok, "wait:"); ok {
			d, err := time.ParseDuration(rest)
			if err != nil || d < 0 {
				return nil, fmt.Errorf("bad pause %q", tok)
			}
			steps = append(steps, step{wait: d})
			continue
		}
		var ctrl, alt, meta, shift bool
		key := tok
		for len(key) > 1 {
			mod, rest, found := strings.Cut(key, "+")
			if !found || rest == "" {
				break
			}
			switch strings.ToLower(mod) {
			case "ctrl":
				ctrl = true
			case "alt":
				alt = true
			case "meta", "cmd":
				meta = true
			case "shift":
				shift = true
			default:
				return nil, fmt.Errorf("unknown modifier in %q", tok)
			}
			key = rest
		}
		if key == "space" {
			key = " "
		}
		ev := dom.NewKeyEvent(key)
		ev.Ctrl, ev.Alt, ev.Meta = ctrl, alt, meta
		ev.Shift = ev.Shift || shift
		steps = append(steps, step{key: ev})
	}
	if len(steps) == 0 {
		return nil, errors.New("no keys to replay")
	}
	return steps, nil
}

type replayOptions struct {
	page     pageFlags
	keys     string
	gap      time.Duration
	settle   time.Duration
	realtime bool
	ops      []string
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Run a key sequence against a saved page and print what the overlay did",
		Long: heredoc.Doc(`
			Loads a page, starts the overlay on it and presses the given keys. Every side
			effect on the page (clicks, dispatched events, focus moves, checkbox writes)
			is printed in order.

			By default time is simulated: delays between steps elapse instantly and the
			run is deterministic. --realtime runs the overlay on a live event loop
			instead.
		`),
		Example: heredoc.Doc(`
			mailkeys replay --demo 5 --keys "j j x j x #"
			mailkeys replay --snapshot inbox.html --keys "g wait:1500ms i" --ops click
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), cmd.OutOrStdout(), root, opts)
		},
	}

	opts.page.register(cmd)
	cmd.Flags().StringVarP(&opts.keys, "keys", "k", "", "Keys to press, separated by spaces")
	cmd.Flags().DurationVar(&opts.gap, "gap", 50*time.Millisecond, "Time between two key presses")
	cmd.Flags().DurationVar(&opts.settle, "settle", 3*time.Second, "Time allowed for pending steps after the last key")
	cmd.Flags().BoolVar(&opts.realtime, "realtime", false, "Run on a real-time event loop instead of a simulated clock")
	cmd.Flags().StringSliceVar(&opts.ops, "ops", nil, "Only print these effects (click, dispatch, focus, scroll, select, checked, class+, class-)")
	_ = cmd.MarkFlagRequired("keys")
	return cmd
}

func runReplay(ctx context.Context, out io.Writer, root *rootOptions, opts *replayOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	steps, err := parseKeys(opts.keys)
	if err != nil {
		return err
	}
	doc, err := opts.page.document(root.cfg)
	if err != nil {
		return err
	}
	table, err := root.table(opts.page.locators)
	if err != nil {
		return err
	}

	var counts map[string]int
	if opts.realtime {
		counts, err = replayRealtime(ctx, doc, root, table, steps, opts)
	} else {
		counts, err = replayVirtual(doc, root, table, steps, opts)
	}
	if err != nil {
		return err
	}
	printTrace(out, doc, opts.ops)
	printCounts(out, counts)
	return nil
}

func replayVirtual(doc *snapshot.Document, root *rootOptions, table *locator.Table, steps []step, opts *replayOptions) (map[string]int, error) {
	clock := loop.NewVirtual(time.Now())
	ov := overlay.New(doc, table, clock, root.cfg, root.logger)
	if err := ov.Start(); err != nil {
		return nil, err
	}
	doc.ResetTrace()
	for _, s := range steps {
		if s.key == nil {
			clock.Advance(s.wait)
			continue
		}
		doc.PressKey(s.key)
		clock.Advance(opts.gap)
	}
	clock.Advance(opts.settle)
	ov.Stop()
	return ov.Counts(), nil
}

func replayRealtime(ctx context.Context, doc *snapshot.Document, root *rootOptions, table *locator.Table, steps []step, opts *replayOptions) (map[string]int, error) {
	ctx, cancel := context.WithCancel(ctx)
	l := loop.New()
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	ov := overlay.New(doc, table, l, root.cfg, root.logger)
	var startErr error
	if err := loop.Sync(ctx, l, func() {
		startErr = ov.Start()
		doc.ResetTrace()
	}); err != nil {
		return nil, err
	}
	if startErr != nil {
		return nil, startErr
	}

	for _, s := range steps {
		if s.key == nil {
			if err := sleep(ctx, s.wait); err != nil {
				return nil, err
			}
			continue
		}
		ev := s.key
		if err := loop.Sync(ctx, l, func() { doc.PressKey(ev) }); err != nil {
			return nil, err
		}
		if err := sleep(ctx, opts.gap); err != nil {
			return nil, err
		}
	}
	if err := sleep(ctx, opts.settle); err != nil {
		return nil, err
	}

	var counts map[string]int
	if err := loop.Sync(ctx, l, func() {
		ov.Stop()
		counts = ov.Counts()
	}); err != nil {
		return nil, err
	}
	return counts, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func printTrace(out io.Writer, doc *snapshot.Document, ops []string) {
	entries := doc.Trace()
	if len(ops) > 0 {
		entries = doc.TraceOps(ops...)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "no page effects")
		return
	}
	for i, e := range entries {
		fmt.Fprintf(out, "%4d  %s\n", i+1, e)
	}
}

func printCounts(out io.Writer, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "operations:")
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-14s %d\n", name, counts[name])
	}
}

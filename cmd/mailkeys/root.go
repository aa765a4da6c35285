package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ajramos/mailkeys/internal/config"
	"github.com/ajramos/mailkeys/internal/db"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/dom/snapshot/snapshottest"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/logging"
	"github.com/ajramos/mailkeys/internal/overlay"
	"github.com/ajramos/mailkeys/internal/version"
	"github.com/spf13/cobra"
)

// rootOptions is the state shared by every subcommand
type rootOptions struct {
	configPath string

	cfg      *config.Config
	logger   *log.Logger
	closeLog func()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{closeLog: func() {}}

	cmd := &cobra.Command{
		Use:   "mailkeys",
		Short: "Gmail-style keyboard shortcuts for web mail, plus tools to try them offline",
		Long: heredoc.Doc(`
			mailkeys drives a web mail client from the keyboard: j/k move a cursor over
			the message list, x selects, e archives, # deletes, g then i goes to the inbox.

			The overlay itself runs in the browser (see cmd/mailkeys-wasm). This command
			replays key sequences against saved pages, previews them in the terminal and
			checks locator tables against new versions of the mail client.
		`),
		Version:       version.GetVersionString(),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			opts.closeLog()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"Path to JSON configuration file (default: ~/.config/mailkeys/config.json)")

	cmd.AddCommand(
		newReplayCmd(opts),
		newPreviewCmd(opts),
		newLocatorsCmd(opts),
		newStatsCmd(opts),
		newInitCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the configuration and opens the log. A config that cannot be loaded
// falls back to the defaults with a warning.
func (o *rootOptions) load(cmd *cobra.Command) error {
	path := getConfigPath(o.configPath)
	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load configuration: %v\n", err)
		cfg = config.DefaultConfig()
	}
	o.cfg = cfg
	o.configPath = path

	logger, closeLog, err := logging.ForConfig(cfg)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not open log file: %v\n", err)
	}
	o.logger = logger
	o.closeLog = closeLog
	return nil
}

// table returns the locator table named by override, the config, or the
// embedded default
func (o *rootOptions) table(override string) (*locator.Table, error) {
	path := override
	if path == "" {
		path = config.ResolvePath(o.cfg.LocatorFile)
	}
	return locator.LoadTable(expandPath(path))
}

// pageFlags selects the page a command runs against
type pageFlags struct {
	snapshot string
	demo     int
	host     string
	locators string
}

func (p *pageFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.snapshot, "snapshot", "", "Saved HTML page to load")
	cmd.Flags().IntVar(&p.demo, "demo", 0, "Use a generated demo inbox with this many messages instead of --snapshot")
	cmd.Flags().StringVar(&p.host, "host", "", "Host name the page reports (default: the configured domain)")
	cmd.Flags().StringVar(&p.locators, "locators", "", "Locator table to use instead of the configured one")
}

// document loads the page p selects
func (p *pageFlags) document(cfg *config.Config) (*snapshot.Document, error) {
	switch {
	case p.snapshot != "" && p.demo > 0:
		return nil, fmt.Errorf("--snapshot and --demo are mutually exclusive")
	case p.demo > 0:
		doc, err := snapshot.ParseString(snapshottest.HTML(snapshottest.Options{Rows: p.demo}), p.hostFor(cfg))
		if err != nil {
			return nil, err
		}
		snapshottest.Install(doc, snapshottest.Options{Rows: p.demo})
		return doc, nil
	case p.snapshot != "":
		return snapshot.Open(expandPath(p.snapshot), p.hostFor(cfg))
	}
	return nil, fmt.Errorf("one of --snapshot or --demo is required")
}

func (p *pageFlags) hostFor(cfg *config.Config) string {
	if h := strings.TrimSpace(p.host); h != "" {
		return h
	}
	return cfg.Domain
}

// attachStats wires the persistent usage counters into ov when enabled. The
// returned func closes the store.
func (o *rootOptions) attachStats(ctx context.Context, ov *overlay.Overlay) (func(), error) {
	if !o.cfg.Stats.Enabled {
		return func() {}, nil
	}
	store, err := db.Open(ctx, o.cfg.StatsPath())
	if err != nil {
		return func() {}, fmt.Errorf("open stats store: %w", err)
	}
	ov.SetCounter(db.NewStatsStore(store).Recorder(ctx))
	return func() { _ = store.Close() }, nil
}

package main

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ajramos/mailkeys/internal/overlay"
	"github.com/ajramos/mailkeys/internal/tui"
	"github.com/spf13/cobra"
)

func newPreviewCmd(root *rootOptions) *cobra.Command {
	page := &pageFlags{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Try the shortcuts on a saved page in the terminal",
		Long: heredoc.Doc(`
			Draws the message rows of a page and sends every key you press to the
			overlay, exactly as the browser would. The lower pane lists the clicks and
			events the overlay produced. Home and End jump to the first and last row;
			q or Ctrl+C quits.
		`),
		Example: heredoc.Doc(`
			mailkeys preview --demo 12
			mailkeys preview --snapshot ~/Downloads/inbox.html --locators ./locators.yaml
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := page.document(root.cfg)
			if err != nil {
				return err
			}
			table, err := root.table(page.locators)
			if err != nil {
				return err
			}

			app := tui.NewApp(doc, root.logger)
			ov := overlay.New(doc, table, app.Scheduler(), root.cfg, root.logger)
			if err := ov.Start(); err != nil {
				return fmt.Errorf("start overlay: %w", err)
			}
			defer ov.Stop()

			closeStats, err := root.attachStats(cmd.Context(), ov)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			defer closeStats()

			app.Attach(ov)
			app.ApplyColors(root.cfg.Preview)
			if err := app.Run(); err != nil {
				return fmt.Errorf("run preview: %w", err)
			}
			return nil
		},
	}

	page.register(cmd)
	return cmd
}

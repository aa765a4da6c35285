package main

import (
	"fmt"
	"io"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/ajramos/mailkeys/internal/dom"
	"github.com/ajramos/mailkeys/internal/dom/snapshot"
	"github.com/ajramos/mailkeys/internal/locator"
	"github.com/ajramos/mailkeys/internal/render"
	"github.com/ajramos/mailkeys/internal/rows"
	"github.com/spf13/cobra"
)

func newLocatorsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "locators",
		Short: "Inspect the locator table",
		Long: heredoc.Doc(`
			The locator table maps each role the overlay needs (archive button, inbox
			link, message rows, ...) to an ordered list of lookup strategies. These
			commands show the table in effect and check it against a page.
		`),
	}
	cmd.AddCommand(newLocatorsCheckCmd(root), newLocatorsDumpCmd(root))
	return cmd
}

func newLocatorsCheckCmd(root *rootOptions) *cobra.Command {
	page := &pageFlags{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve every role against a page",
		Long: heredoc.Doc(`
			Loads a page and resolves every role in the locator table, printing the
			element each one found. Roles that find nothing are listed as missing;
			run this against a fresh snapshot after the mail client ships a new UI.
		`),
		Example: heredoc.Doc(`
			mailkeys locators check --snapshot inbox.html
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
			missing := checkLocators(cmd.OutOrStdout(), doc, table, root)
			if missing > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d role(s) not found\n", missing)
			}
			return nil
		},
	}

	page.register(cmd)
	return cmd
}

// checkLocators prints one line per role and a summary of the list state. It
// returns the number of roles that resolved to nothing.
func checkLocators(out io.Writer, doc *snapshot.Document, table *locator.Table, root *rootOptions) int {
	loc := locator.New(doc, table, root.logger)
	view := rows.NewView(loc)

	all := view.Current()
	fmt.Fprintf(out, "rows: %d  selected: %d  toolbars: %d\n\n", len(all), len(view.Selected()), len(loc.Toolbars()))

	missing := 0
	for _, role := range table.RoleNames() {
		found := "-"
		if el := loc.Locate(role); el != nil {
			found = dom.Describe(el)
		} else {
			missing++
		}
		fmt.Fprintf(out, "%s %s\n", render.FitWidth(string(role), 14), found)
	}
	return missing
}

func newLocatorsDumpCmd(root *rootOptions) *cobra.Command {
	var override string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the locator table in effect as YAML",
		Long: heredoc.Doc(`
			Prints the merged locator table: the built-in defaults plus any overrides
			from the configured locator file. The output is a valid locator file and
			a good starting point for local edits.
		`),
		Example: heredoc.Doc(`
			mailkeys locators dump > ~/.config/mailkeys/locators.yaml
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := root.table(override)
			if err != nil {
				return err
			}
			data, err := table.Marshal()
			if err != nil {
				return fmt.Errorf("encode locator table: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&override, "locators", "", "Locator table to use instead of the configured one")
	return cmd
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/brynix/brynixbot/internal/config"
	"github.com/brynix/brynixbot/internal/links"
	"github.com/brynix/brynixbot/internal/sheets"
	"github.com/spf13/cobra"
)

var linksCmd = &cobra.Command{
	Use:   "links",
	Short: "Inspect and edit group to spreadsheet links",
}

var linksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List linked groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, done, err := openRegistry()
		if err != nil {
			return err
		}
		defer done()
		all, err := reg.Links(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(all) == 0 {
			fmt.Fprintln(out, "No linked groups.")
			return nil
		}
		for _, l := range all {
			name := l.ProjectName
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(out, "%s  %s  %s  %s\n", l.ChatID, l.SheetID, name, l.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var linksSetCmd = &cobra.Command{
	Use:   "set <chat-id> <sheet-url-or-id> [project name]",
	Short: "Link a group to a spreadsheet",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sheetID, err := sheets.ExtractSheetID(args[1])
		if err != nil {
			return err
		}
		reg, done, err := openRegistry()
		if err != nil {
			return err
		}
		defer done()
		l, err := reg.SetLink(cmd.Context(), args[0], sheetID, strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s → %s\n", l.ChatID, l.SheetID)
		return nil
	},
}

var linksRemoveCmd = &cobra.Command{
	Use:     "remove <chat-id>",
	Aliases: []string{"rm"},
	Short:   "Unlink a group",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, done, err := openRegistry()
		if err != nil {
			return err
		}
		defer done()
		if err := reg.RemoveLink(cmd.Context(), args[0]); err != nil {
			if errors.Is(err, links.ErrNotFound) {
				return fmt.Errorf("%s is not linked", args[0])
			}
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s unlinked\n", args[0])
		return nil
	},
}

func openRegistry() (*links.Registry, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	kv, closeKV, err := links.Open(cfg.Storage.LinksBackend, cfg.Storage.SQLiteDriver, cfg.Storage.LinksPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open links: %w", err)
	}
	return links.NewRegistry(kv), closeKV, nil
}

func init() {
	linksCmd.AddCommand(linksListCmd)
	linksCmd.AddCommand(linksSetCmd)
	linksCmd.AddCommand(linksRemoveCmd)
}

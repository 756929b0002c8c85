// Package cli implements the brynixbot command line.
package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// version can be overridden at build time via:
	// go build -ldflags "-X github.com/brynix/brynixbot/internal/cli.version=1.2.3"
	version = "1.4.0"
	logo    = "\n" +
		"  ____  ______   ___   _ _____  __\n" +
		" | __ )|  _ \\ \\ / / \\ | |_ _\\ \\/ /\n" +
		" |  _ \\| |_) \\ V /|  \\| || | \\  /\n" +
		" | |_) |  _ < | | | |\\  || | /  \\\n" +
		" |____/|_| \\_\\|_| |_| \\_|___/_/\\_\\\n"
)

var rootCmd = &cobra.Command{
	Use:   "brynixbot",
	Short: "BRYNIX WhatsApp project assistant",
	Long:  color.CyanString(logo) + "\nAlice answers project questions in WhatsApp groups from the linked Google Sheet.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func printHeader(cmd *cobra.Command, title string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, color.CyanString(logo))
	fmt.Fprintln(out, title)
	fmt.Fprintln(out, "─────────────────────")
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(linksCmd)
	rootCmd.AddCommand(sheetsCheckCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(secretsCmd)
}

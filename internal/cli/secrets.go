package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/brynix/brynixbot/internal/secrets"
	"github.com/spf13/cobra"
)

var secretsService string

var secretsCmd = &cobra.Command{
	Use:   "secrets",
	Short: "Store credentials in the OS keyring (enable with SECRETS_KEYRING=true)",
}

var secretsSetCmd = &cobra.Command{
	Use:   "set <NAME>",
	Short: "Store a secret read from stdin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.ErrOrStderr(), "Value for %s: ", args[0])
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read value: %w", err)
		}
		if err := secrets.NewKeyring(secretsService).Set(args[0], strings.TrimRight(line, "\r\n")); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s stored\n", args[0])
		return nil
	},
}

var secretsDeleteCmd = &cobra.Command{
	Use:   "delete <NAME>",
	Short: "Remove a stored secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		err := secrets.NewKeyring(secretsService).Delete(args[0])
		if errors.Is(err, secrets.ErrNotFound) {
			return fmt.Errorf("%s is not stored", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s removed\n", args[0])
		return nil
	},
}

var secretsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show which secrets are stored",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		k := secrets.NewKeyring(secretsService)
		out := cmd.OutOrStdout()
		for _, name := range secrets.Names {
			_, err := k.Get(name)
			switch {
			case err == nil:
				fmt.Fprintf(out, "✓ %s\n", name)
			case errors.Is(err, secrets.ErrNotFound):
				fmt.Fprintf(out, "- %s\n", name)
			default:
				return err
			}
		}
		return nil
	},
}

func init() {
	secretsCmd.PersistentFlags().StringVar(&secretsService, "service", secrets.DefaultService, "keyring service name")
	secretsCmd.AddCommand(secretsSetCmd)
	secretsCmd.AddCommand(secretsDeleteCmd)
	secretsCmd.AddCommand(secretsListCmd)
}

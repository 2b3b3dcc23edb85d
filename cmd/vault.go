package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formscript/internal/observability"
)

// newVaultCmd groups access to the Bitwarden credential vault.
func newVaultCmd() *cobra.Command {
	vaultCmd := &cobra.Command{
		Use:   "vault",
		Short: "Use the Bitwarden credential vault",
	}
	vaultCmd.AddCommand(newVaultUnlockCmd(), newVaultLookupCmd())
	return vaultCmd
}

func newVaultUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock",
		Short: "Unlock the vault and print a session token",
		Long: `Reads the master password from the first line of stdin and prints the
session token. Export it as FORMSCRIPT_VAULT_SESSION for later commands.`,
		Example: `  export FORMSCRIPT_VAULT_SESSION=$(formscript vault unlock < master.txt)`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			password := strings.TrimRight(line, "\r\n")
			if password == "" {
				if err != nil {
					return fmt.Errorf("failed to read master password: %w", err)
				}
				return fmt.Errorf("empty master password")
			}

			v, err := openVault(cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			if err := v.Unlock(ctx, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.Session())
			return nil
		},
	}
}

func newVaultLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <url>",
		Short: "List vault logins stored for a URL (passwords are not shown)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			v, err := openVault(cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			creds, err := v.CredentialsFor(ctx, args[0])
			if err != nil {
				return err
			}
			if len(creds) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no matching logins")
				return nil
			}

			for _, c := range creds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", c.Name, c.Username, c.URI)
			}
			return nil
		},
	}
}

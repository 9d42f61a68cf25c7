package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thruflo/inject/internal/credentials"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the identifiers in the credentials file",
	Long: `Print each distinct identifier from the credentials file in the order
inject will prompt for them. Nothing is prompted and nothing is sent.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(settings, configPath)
	if err != nil {
		return err
	}

	ids, err := credentials.ReadIdentifiers(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	secrets := credentials.NewSecretMap()
	for _, id := range ids {
		secrets.Ensure(id)
	}

	out := cmd.OutOrStdout()
	for _, id := range secrets.Keys() {
		fmt.Fprintln(out, id)
	}
	fmt.Fprintf(out, "\n%d identifiers (%d lines) in %s\n", secrets.Len(), len(ids), cfg.CredentialsFile)
	return nil
}

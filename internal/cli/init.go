package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default .inject/config.yaml",
	Long: `Creates .inject/config.yaml in the current directory with the default
receiving service address, timings and credentials file path.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	injectDir := filepath.Join(cwd, ".inject")
	configFile := filepath.Join(injectDir, "config.yaml")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFile)
	}

	if err := os.MkdirAll(injectDir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", injectDir, err)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configFile)
	return nil
}

const defaultConfigYAML = `# inject configuration
# Flags and INJECT_* environment variables override these values.

# Receiving service
host: 127.0.0.1
port: 8000

# Time between resends of the full key map
interval: 10s

# Wait after a failed send or connect
retry_delay: 2s

# fixed: always retry_delay; exponential: doubles up to max_retry_delay
backoff: fixed
max_retry_delay: 1m

# One identifier per line, relative to the working directory
credentials_file: cmd/.env

# none, newline or length (4-byte big-endian prefix)
framing: none

dial_timeout: 5s
write_timeout: 5s

log_level: info
`

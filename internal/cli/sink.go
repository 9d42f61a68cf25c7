package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thruflo/inject/internal/logging"
	"github.com/thruflo/inject/internal/receiver"
	"github.com/thruflo/inject/internal/transport"
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Run a local receiver that logs injected key fingerprints",
	Long: `Listen on the configured host and port and accept inject payloads the
way the signing service does. Identifiers are lowercased and only key
fingerprints are logged, so the output can be compared against the
fingerprints 'inject run' prints.

Example:
  inject sink --port 9000 --framing newline`,
	Args: cobra.NoArgs,
	RunE: runSink,
}

func init() {
	rootCmd.AddCommand(sinkCmd)
}

func runSink(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(settings, configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	framing, err := transport.ParseFraming(cfg.Framing)
	if err != nil {
		return err
	}

	r, err := receiver.Listen(cfg.Address(), framing, logging.Default())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.Serve(ctx)
}

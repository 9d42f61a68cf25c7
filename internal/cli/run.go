package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thruflo/inject/internal/config"
	"github.com/thruflo/inject/internal/credentials"
	"github.com/thruflo/inject/internal/logging"
	"github.com/thruflo/inject/internal/prompt"
	"github.com/thruflo/inject/internal/resend"
	"github.com/thruflo/inject/internal/transport"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect keys and keep the receiving service supplied",
	Long: `Load identifiers from the credentials file, prompt for every key that is
still missing, then connect to the receiving service and re-send the full
map every interval until interrupted.

Example:
  inject run -f cmd/.env
  INJECT_PORT=9000 inject run --backoff exponential`,
	Args: cobra.NoArgs,
	RunE: runInject,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runInject(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(settings, configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)
	logger := logging.Default()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	return runWith(ctx, cfg, prompt.Stdio(logger), logger, func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	})
}

// runWith loads credentials through p and then runs the resend loop. The
// loop context comes from loopCtx, which is only applied once prompting is
// over so an interrupt during the prompt still kills the process.
func runWith(ctx context.Context, cfg *config.Config, p credentials.Prompter, logger *logging.Logger,
	loopCtx func(context.Context) (context.Context, context.CancelFunc)) error {

	secrets := credentials.NewSecretMap()
	loader := credentials.NewLoader(p, logger)
	if _, err := loader.Load(ctx, cfg.CredentialsFile, secrets); err != nil {
		return err
	}
	if secrets.Len() == 0 {
		logger.Warn("credentials file has no identifiers", "path", cfg.CredentialsFile)
	}

	framing, err := transport.ParseFraming(cfg.Framing)
	if err != nil {
		return err
	}

	dialer := transport.NewDialer(cfg.Address(),
		transport.WithFraming(framing),
		transport.WithDialTimeout(cfg.DialTimeout),
		transport.WithWriteTimeout(cfg.WriteTimeout),
	)

	loop := resend.New(resend.Options{
		Connector: resend.FromDialer(dialer),
		Source:    secrets,
		Interval:  cfg.Interval,
		BackOff:   resend.NewBackOff(cfg.Backoff, cfg.RetryDelay, cfg.MaxRetryDelay),
		Logger:    logger.With("remote", cfg.Address()),
	})

	if loopCtx != nil {
		var cancel context.CancelFunc
		ctx, cancel = loopCtx(ctx)
		defer cancel()
	}

	logger.Info("starting resend loop",
		"remote", cfg.Address(),
		"identifiers", secrets.Len(),
		"interval", cfg.Interval,
		"framing", framing)

	err = loop.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resend loop: %w", err)
	}
	return nil
}

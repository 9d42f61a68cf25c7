package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/thruflo/inject/internal/config"
)

// Version is set at build time via ldflags.
var Version = "dev"

// configPath is the --config flag.
var configPath string

// settings layers INJECT_* environment variables and flags over the config
// file.
var settings = viper.New()

var rootCmd = &cobra.Command{
	Use:   "inject",
	Short: "Push operator-entered wallet keys to a local signing service",
	Long: `Inject reads wallet identifiers from a credentials file, asks for each
key without echoing it, and keeps the receiving service supplied with the
full identifier -> key map over TCP. The map is re-sent every interval and
the connection is re-established whenever a send fails.

Running inject without a subcommand is the same as 'inject run'.`,
	SilenceUsage: true,
	RunE:         runInject,
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("inject version {{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "config file (default .inject/config.yaml)")
	addSettingsFlags(pf)

	bindSettings(settings, rootCmd)
}

// addSettingsFlags defines one flag per overridable config field.
func addSettingsFlags(pf *pflag.FlagSet) {
	pf.String("host", config.DefaultHost, "receiving service host")
	pf.Int("port", config.DefaultPort, "receiving service port")
	pf.Duration("interval", config.DefaultInterval, "time between resends")
	pf.Duration("retry-delay", config.DefaultRetryDelay, "wait after a failed send or connect")
	pf.Duration("max-retry-delay", config.DefaultMaxRetryDelay, "cap for exponential backoff")
	pf.String("backoff", config.BackoffFixed, "retry strategy: fixed or exponential")
	pf.StringP("credentials", "f", config.DefaultCredentialsFile, "file with one identifier per line")
	pf.String("framing", config.FramingNone, "payload framing: none, newline or length")
	pf.Duration("dial-timeout", config.DefaultDialTimeout, "timeout for each connect attempt")
	pf.Duration("write-timeout", config.DefaultWriteTimeout, "timeout for each send")
	pf.String("log-level", config.DefaultLogLevel, "debug, info, warn or error")
}

// bindSettings wires v to cmd's persistent flags and INJECT_* variables.
func bindSettings(v *viper.Viper, cmd *cobra.Command) {
	v.SetEnvPrefix("INJECT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(cmd.PersistentFlags())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

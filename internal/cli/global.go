package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/Sternrassler/lol-series-fetcher/pkg/config"
	"github.com/Sternrassler/lol-series-fetcher/pkg/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// GlobalOptions are shared by every command.
type GlobalOptions struct {
	ConfigFile string
	OutputDir  string
	LogLevel   string
	LogPretty  bool

	// Set by Complete.
	Config    *config.Config
	LogConfig logging.Config
	Logger    zerolog.Logger
	SessionID string
	In        io.Reader
	Out       io.Writer
	Err       io.Writer

	now func() time.Time
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		LogLevel:  string(logging.LevelInfo),
		LogPretty: true,
		now:       time.Now,
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Path to a config.yaml (default: ./configs/config.yaml or ./config.yaml)")
	fs.StringVarP(&o.OutputDir, "output", "o", o.OutputDir, "Output directory holding run directories (default from config: ./outputs)")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "Log level. One of: (debug, info, warn, error).")
	fs.BoolVar(&o.LogPretty, "log-pretty", o.LogPretty, "Human-readable console logs instead of JSON")
}

// Complete loads the configuration, lets explicitly set flags override it
// and sets up logging for this invocation.
func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(o.ConfigFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output.Dir = o.OutputDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.LogLevel
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = o.LogPretty
	}
	o.Config = cfg

	o.In = cmd.InOrStdin()
	o.Out = cmd.OutOrStdout()
	o.Err = cmd.ErrOrStderr()
	if o.now == nil {
		o.now = time.Now
	}

	o.LogConfig = logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: o.Err,
	}
	logging.Setup(o.LogConfig)

	o.SessionID = uuid.NewString()
	o.Logger = logging.NewLogger(cmd.Name()).With().Str("session_id", o.SessionID).Logger()
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.Config == nil {
		return fmt.Errorf("configuration not loaded")
	}
	if o.Config.Output.Dir == "" {
		return fmt.Errorf("output directory must not be empty")
	}
	return nil
}

// OutputRoot returns the directory holding run directories.
func (o *GlobalOptions) OutputRoot() string {
	return o.Config.Output.Dir
}

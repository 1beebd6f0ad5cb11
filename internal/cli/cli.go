package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/elcairo-events/internal/config"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
	"github.com/pfrederiksen/elcairo-events/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options is the state shared by every command of one invocation
type options struct {
	configPath string
	dataDir    string
	verbose    bool

	now     func() time.Time
	cfg     *config.Config
	metrics *logger.Metrics
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{now: time.Now})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "elcairo",
		Short: "Browse the programme of Cine El Cairo",
		Long: `A CLI tool to browse the programme of Cine El Cairo (Rosario).
Walks the cinema's monthly calendar feeds, enriches every showing with the
details of its page and keeps the result in a local database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd.ErrOrStderr())
		},
	}

	// Define flags
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ./elcairo.yaml or ~/.config/elcairo/elcairo.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "Data directory for the database and images (default ~/.local/share/elcairo)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newDatabaseCmd(opts),
		newShowsCmd(opts),
		newExportCmd(opts),
	)
	return cmd
}

// load reads the configuration and installs the default logger
func (o *options) load(stderr io.Writer) error {
	v := config.New()
	if o.dataDir != "" {
		v.Set("storage.datadir", o.dataDir)
	}
	cfg, err := config.Load(v, o.configPath)
	if err != nil {
		return err
	}

	dataDir, err := storage.ExpandDir(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	cfg.Storage.DataDir = dataDir

	level := logger.ParseLevel(cfg.Log.Level)
	if o.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, stderr))

	o.cfg = cfg
	o.metrics = logger.NewMetrics()
	if o.now == nil {
		o.now = time.Now
	}

	logger.Debug("Configuration loaded", logger.Fields{
		"data_dir": cfg.Storage.DataDir,
		"feed":     cfg.Feed.BaseURL,
		"timezone": cfg.Timezone,
	})
	return nil
}

// clock returns the current time in the configured timezone
func (o *options) clock() time.Time {
	return o.now().In(o.cfg.Location())
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Error: interrupted")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitError)
	}
}

// Command buylist manages Magic: The Gathering card buylists: import deck
// lists, track prices and purchases, and export what is left to buy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/config"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
)

// app carries state shared by every command.
type app struct {
	configPath string
	logLevel   string
	listName   string

	cfg *config.Config
	log logger.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "buylist",
		Short:         "Build and track Magic: The Gathering card buylists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.mtg-buylist/config.toml)")
	flags.StringVar(&a.logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")
	flags.StringVarP(&a.listName, "list", "l", "", "list to work on (default: the selected list)")

	root.AddCommand(
		newServeCmd(a),
		newListsCmd(a),
		newCreateCmd(a),
		newSelectCmd(a),
		newDeleteCmd(a),
		newImportCmd(a),
		newShowCmd(a),
		newExportCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newChartCmd(a),
		newCacheCmd(a),
		newVersionCmd(),
	)

	return root
}

// init loads the configuration and builds the logger.
func (a *app) init() error {
	if a.configPath == "" {
		path, err := config.DefaultPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}

	cfg, err := config.LoadFrom(a.configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", a.configPath, err)
	}
	level := cfg.App.LogLevel
	if a.logLevel != "" {
		level = a.logLevel
	}

	a.cfg = cfg
	a.log = logger.New(level, cfg.App.PrettyLogs)
	return nil
}

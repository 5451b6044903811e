// Package cli wires breathr's cobra commands.
package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sadopc/breathr/internal/config"
	"github.com/sadopc/breathr/internal/logging"
	"github.com/sadopc/breathr/internal/store"
	"github.com/sadopc/breathr/internal/tui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// Global flags
	configPath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "breathr",
	Short: "Box breathing pacer for the terminal",
	Long: `breathr paces box breathing: inhale, hold, exhale and hold again for
equal lengths, for as many cycles as fit in the session.

Run without arguments to open the interactive pacer.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runTUI,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the config file and builds the logger.
func setup() error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Enabled = true
		cfg.Logging.Level = "debug"
	}
	logger, err = logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	return nil
}

func openStore() (*store.Store, error) {
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	app := tui.NewApp(s, tui.Options{
		Defaults: cfg.Pacer.SessionConfig(),
		Logger:   logger,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if w, err := config.NewWatcher(configPath, logger); err != nil {
		logger.Warn("config hot reload disabled", zap.Error(err))
	} else {
		g.Go(func() error {
			return w.Run(ctx, func(c *config.Config) {
				p.Send(tui.ConfigReloadedMsg{Config: c})
			})
		})
	}

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		return err
	})
	return g.Wait()
}

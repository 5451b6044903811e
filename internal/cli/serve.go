package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadopc/breathr/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pacer over HTTP",
	Long: `Starts an HTTP API for driving sessions remotely. Sessions are paced on
the server and streamed to clients as server-sent events; finished sessions
are recorded in the history.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	defaults, err := s.PacerConfig(cfg.Pacer.SessionConfig())
	if err != nil {
		logger.Warn("load preferences", zap.Error(err))
	}

	mgr := server.NewManager(
		server.WithRecorder(s),
		server.WithLogger(logger),
	)
	srv := server.New(mgr, defaults, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", addr)
	return srv.Run(ctx, addr)
}

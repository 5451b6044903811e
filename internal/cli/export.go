package cli

import (
	"fmt"
	"io"

	"github.com/sadopc/breathr/internal/export"
	"github.com/sadopc/breathr/internal/store"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history as CSV or JSON",
	Long: `Writes every recorded session to --output, or to stdout when no output
file is given.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "Output format: csv or json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown format %q (want csv or json)", exportFormat)
	}

	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	sessions, err := s.ListSessions(store.SessionFilter{})
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	return writeExport(cmd.OutOrStdout(), sessions)
}

func writeExport(out io.Writer, sessions []store.BreathingSession) error {
	switch {
	case exportOutput == "" && exportFormat == "json":
		return export.WriteJSON(out, sessions)
	case exportOutput == "":
		return export.WriteCSV(out, sessions)
	case exportFormat == "json":
		if err := export.ToJSON(sessions, exportOutput); err != nil {
			return err
		}
	default:
		if err := export.ToCSV(sessions, exportOutput); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "Exported %d sessions to %s\n", len(sessions), exportOutput)
	return nil
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/breathr/internal/store"
)

var csvHeader = []string{
	"ID", "Started", "Ended", "Phase (s)", "Total (min)", "Theme", "Sound",
	"Cycles", "Elapsed (s)", "Elapsed", "Completed",
}

// ToCSV writes sessions to a new file at path.
func ToCSV(sessions []store.BreathingSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()
	return WriteCSV(f, sessions)
}

func WriteCSV(out io.Writer, sessions []store.BreathingSession) error {
	w := csv.NewWriter(out)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, s := range sessions {
		row := []string{
			s.UUID,
			s.StartedAt.Local().Format(time.RFC3339),
			s.EndedAt.Local().Format(time.RFC3339),
			strconv.Itoa(s.PhaseSeconds),
			strconv.Itoa(s.TotalMinutes),
			s.Theme,
			s.Sound,
			strconv.Itoa(s.Cycles),
			strconv.FormatInt(s.ElapsedSeconds, 10),
			formatDuration(s.ElapsedSeconds),
			strconv.FormatBool(s.Completed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatDuration(secs int64) string {
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

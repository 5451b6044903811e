package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sadopc/breathr/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID           string `json:"id"`
	StartedAt    string `json:"started_at"`
	EndedAt      string `json:"ended_at"`
	PhaseSeconds int    `json:"phase_seconds"`
	TotalMinutes int    `json:"total_minutes"`
	Theme        string `json:"theme,omitempty"`
	Sound        string `json:"sound,omitempty"`
	Cycles       int    `json:"cycles"`
	ElapsedSec   int64  `json:"elapsed_seconds"`
	Elapsed      string `json:"elapsed"`
	Completed    bool   `json:"completed"`
}

// ToJSON writes sessions to a new file at path.
func ToJSON(sessions []store.BreathingSession, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}
	defer f.Close()
	if err := WriteJSON(f, sessions); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, sessions []store.BreathingSession) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
		Sessions:   []jsonSession{},
	}

	for _, s := range sessions {
		export.Sessions = append(export.Sessions, jsonSession{
			ID:           s.UUID,
			StartedAt:    s.StartedAt.Local().Format(time.RFC3339),
			EndedAt:      s.EndedAt.Local().Format(time.RFC3339),
			PhaseSeconds: s.PhaseSeconds,
			TotalMinutes: s.TotalMinutes,
			Theme:        s.Theme,
			Sound:        s.Sound,
			Cycles:       s.Cycles,
			ElapsedSec:   s.ElapsedSeconds,
			Elapsed:      formatDuration(s.ElapsedSeconds),
			Completed:    s.Completed,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return nil
}

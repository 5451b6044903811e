package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/sadopc/breathr/internal/pacer"
)

const (
	KeyPhaseSeconds = "phase_seconds"
	KeyTotalMinutes = "total_minutes"
	KeyTheme        = "theme"
	KeySound        = "sound"
)

// GetSetting returns the stored value, or "" with no error if key is unset.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, nil
}

func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

func (s *Store) GetAllSettings() ([]Setting, error) {
	rows, err := s.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// PacerConfig overlays saved preferences on fallback. Unset or unparsable
// values keep the fallback.
func (s *Store) PacerConfig(fallback pacer.Config) (pacer.Config, error) {
	all, err := s.GetAllSettings()
	if err != nil {
		return fallback, err
	}
	cfg := fallback
	for _, st := range all {
		switch st.Key {
		case KeyPhaseSeconds:
			if n, err := strconv.Atoi(st.Value); err == nil && n > 0 {
				cfg.PhaseDurationSeconds = n
			}
		case KeyTotalMinutes:
			if n, err := strconv.Atoi(st.Value); err == nil && n > 0 {
				cfg.TotalDurationMinutes = n
			}
		case KeyTheme:
			if st.Value != "" {
				cfg.Theme = st.Value
			}
		case KeySound:
			if st.Value != "" {
				cfg.SoundType = st.Value
			}
		}
	}
	return cfg, nil
}

// SavePacerConfig validates cfg and stores it as the user's preferences.
func (s *Store) SavePacerConfig(cfg pacer.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	pairs := []Setting{
		{KeyPhaseSeconds, strconv.Itoa(cfg.PhaseDurationSeconds)},
		{KeyTotalMinutes, strconv.Itoa(cfg.TotalDurationMinutes)},
		{KeyTheme, cfg.Theme},
		{KeySound, cfg.SoundType},
	}
	for _, p := range pairs {
		if err := s.SetSetting(p.Key, p.Value); err != nil {
			return fmt.Errorf("save %s: %w", p.Key, err)
		}
	}
	return nil
}

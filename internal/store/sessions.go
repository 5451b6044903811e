package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/breathr/internal/pacer"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

const dayLayout = "2006-01-02"

// FromSummary converts a pacer summary into a row ready to save.
func FromSummary(sum pacer.Summary, endedAt time.Time) BreathingSession {
	return BreathingSession{
		UUID:           sum.ID,
		PhaseSeconds:   sum.Config.PhaseDurationSeconds,
		TotalMinutes:   sum.Config.TotalDurationMinutes,
		Theme:          sum.Config.Theme,
		Sound:          sum.Config.SoundType,
		Cycles:         sum.Cycles,
		ElapsedSeconds: int64(sum.Elapsed / time.Second),
		Completed:      sum.Completed,
		StartedAt:      sum.StartedAt,
		EndedAt:        endedAt,
	}
}

// SaveSession inserts bs, or updates the row with the same UUID.
func (s *Store) SaveSession(bs BreathingSession) (*BreathingSession, error) {
	if bs.UUID == "" {
		return nil, fmt.Errorf("save session: empty uuid")
	}
	_, err := s.db.Exec(`
		INSERT INTO breathing_sessions
			(uuid, phase_seconds, total_minutes, theme, sound, cycles, elapsed_seconds, completed, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			cycles = excluded.cycles,
			elapsed_seconds = excluded.elapsed_seconds,
			completed = excluded.completed,
			ended_at = excluded.ended_at`,
		bs.UUID, bs.PhaseSeconds, bs.TotalMinutes, bs.Theme, bs.Sound, bs.Cycles,
		bs.ElapsedSeconds, boolToInt(bs.Completed),
		bs.StartedAt.UTC().Format(time.RFC3339), bs.EndedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return s.GetSession(bs.UUID)
}

const sessionColumns = `id, uuid, phase_seconds, total_minutes, theme, sound, cycles, elapsed_seconds, completed, started_at, ended_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (BreathingSession, error) {
	var bs BreathingSession
	var completed int
	var startedAt, endedAt string
	err := sc.Scan(&bs.ID, &bs.UUID, &bs.PhaseSeconds, &bs.TotalMinutes, &bs.Theme, &bs.Sound,
		&bs.Cycles, &bs.ElapsedSeconds, &completed, &startedAt, &endedAt)
	if err != nil {
		return bs, err
	}
	bs.Completed = completed != 0
	bs.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	bs.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
	return bs, nil
}

func (s *Store) GetSession(uuid string) (*BreathingSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM breathing_sessions WHERE uuid = ?`, uuid)
	bs, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get session %s: %w", uuid, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", uuid, err)
	}
	return &bs, nil
}

// ListSessions returns sessions newest first.
func (s *Store) ListSessions(f SessionFilter) ([]BreathingSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM breathing_sessions WHERE 1=1`
	var args []any

	if f.From != nil {
		query += ` AND started_at >= ?`
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		query += ` AND started_at < ?`
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}
	if f.CompletedOnly {
		query += ` AND completed = 1`
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, f.Limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []BreathingSession
	for rows.Next() {
		bs, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, bs)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(uuid string) error {
	res, err := s.db.Exec(`DELETE FROM breathing_sessions WHERE uuid = ?`, uuid)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete session %s: %w", uuid, ErrNotFound)
	}
	return nil
}

// GetDailySummary aggregates sessions started in [from, to) by UTC day.
func (s *Store) GetDailySummary(from, to time.Time) ([]DailySummary, error) {
	rows, err := s.db.Query(`
		SELECT date(started_at) AS day,
		       COALESCE(SUM(elapsed_seconds), 0), COUNT(*), COALESCE(SUM(cycles), 0)
		FROM breathing_sessions
		WHERE started_at >= ? AND started_at < ?
		GROUP BY day
		ORDER BY day`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var ds DailySummary
		if err := rows.Scan(&ds.Date, &ds.TotalSeconds, &ds.SessionCount, &ds.Cycles); err != nil {
			return nil, err
		}
		summaries = append(summaries, ds)
	}
	return summaries, rows.Err()
}

func (s *Store) GetStats() (Stats, error) {
	return s.StatsAt(time.Now())
}

// StatsAt computes the stats with streaks counted relative to now.
func (s *Store) StatsAt(now time.Time) (Stats, error) {
	var st Stats
	err := s.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(completed), 0),
		       COALESCE(SUM(elapsed_seconds), 0), COALESCE(SUM(cycles), 0)
		FROM breathing_sessions`,
	).Scan(&st.Sessions, &st.Completed, &st.TotalSeconds, &st.TotalCycles)
	if err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}

	rows, err := s.db.Query(`SELECT DISTINCT date(started_at) AS day FROM breathing_sessions ORDER BY day`)
	if err != nil {
		return st, fmt.Errorf("stats days: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return st, err
		}
		t, err := time.Parse(dayLayout, d)
		if err != nil {
			continue
		}
		days = append(days, t)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	st.CurrentStreak, st.LongestStreak = streaks(days, now.UTC())
	return st, nil
}

// streaks expects days sorted ascending and deduplicated. The current
// streak counts back from today, or from yesterday if today has no session
// yet.
func streaks(days []time.Time, now time.Time) (current, longest int) {
	run := 0
	for i, d := range days {
		if i > 0 && d.Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	if len(days) == 0 {
		return 0, 0
	}

	today, _ := time.Parse(dayLayout, now.Format(dayLayout))
	last := days[len(days)-1]
	if gap := today.Sub(last); gap != 0 && gap != 24*time.Hour {
		return 0, longest
	}
	current = 1
	for i := len(days) - 1; i > 0; i-- {
		if days[i].Sub(days[i-1]) != 24*time.Hour {
			break
		}
		current++
	}
	return current, longest
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

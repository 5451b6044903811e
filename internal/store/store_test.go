package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/sadopc/breathr/internal/pacer"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// insertSession saves a session started at start and lasting secs.
func insertSession(t *testing.T, s *Store, id string, start time.Time, secs int64, completed bool) {
	t.Helper()
	_, err := s.SaveSession(BreathingSession{
		UUID:           id,
		PhaseSeconds:   4,
		TotalMinutes:   3,
		Theme:          "ocean",
		Sound:          "bell",
		Cycles:         int(secs / 16),
		ElapsedSeconds: secs,
		Completed:      completed,
		StartedAt:      start,
		EndedAt:        start.Add(time.Duration(secs) * time.Second),
	})
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
}

func day(s string) time.Time {
	t, err := time.Parse(dayLayout, s)
	if err != nil {
		panic(err)
	}
	return t.Add(9 * time.Hour)
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "breathr.db")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	insertSession(t, s, "persisted", day("2026-01-01"), 60, true)
	s.Close()

	// Reopen: data survives and migration is not rerun.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetSession("persisted"); err != nil {
		t.Fatalf("expected persisted session: %v", err)
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

func TestSettingsStartEmpty(t *testing.T) {
	s := newTestStore(t)
	all, err := s.GetAllSettings()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no seeded settings, got %v", all)
	}
}

// ============================================================
// Sessions
// ============================================================

func TestFromSummary(t *testing.T) {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sum := pacer.Summary{
		ID:        "abc",
		Config:    pacer.Config{PhaseDurationSeconds: 5, TotalDurationMinutes: 2, Theme: "forest", SoundType: "none"},
		StartedAt: start,
		Elapsed:   90*time.Second + 400*time.Millisecond,
		Cycles:    4,
		Completed: false,
	}
	bs := FromSummary(sum, start.Add(2*time.Minute))
	if bs.UUID != "abc" || bs.PhaseSeconds != 5 || bs.TotalMinutes != 2 {
		t.Fatalf("unexpected row: %+v", bs)
	}
	if bs.Theme != "forest" || bs.Sound != "none" {
		t.Fatalf("unexpected tags: %+v", bs)
	}
	if bs.ElapsedSeconds != 90 {
		t.Fatalf("expected 90s elapsed, got %d", bs.ElapsedSeconds)
	}
	if bs.Cycles != 4 || bs.Completed {
		t.Fatalf("unexpected result: %+v", bs)
	}
}

func TestSaveAndGetSession(t *testing.T) {
	s := newTestStore(t)
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	got, err := s.SaveSession(BreathingSession{
		UUID: "s1", PhaseSeconds: 4, TotalMinutes: 3, Theme: "ocean", Sound: "bell",
		Cycles: 11, ElapsedSeconds: 180, Completed: true,
		StartedAt: start, EndedAt: start.Add(3 * time.Minute),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if !got.Completed || got.Cycles != 11 || got.ElapsedSeconds != 180 {
		t.Fatalf("unexpected session: %+v", got)
	}
	if !got.StartedAt.Equal(start) || !got.EndedAt.Equal(start.Add(3*time.Minute)) {
		t.Fatalf("times not preserved: %v %v", got.StartedAt, got.EndedAt)
	}
}

func TestSaveSessionUpsert(t *testing.T) {
	s := newTestStore(t)
	start := day("2026-03-01")
	insertSession(t, s, "s1", start, 30, false)
	insertSession(t, s, "s1", start, 180, true)

	all, err := s.ListSessions(SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 row after upsert, got %d", len(all))
	}
	if !all[0].Completed || all[0].ElapsedSeconds != 180 {
		t.Fatalf("upsert did not update: %+v", all[0])
	}
}

func TestSaveSessionEmptyUUID(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SaveSession(BreathingSession{}); err == nil {
		t.Fatal("expected error for empty uuid")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSession("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestStore(t)
	insertSession(t, s, "gone", day("2026-03-01"), 60, true)
	if err := s.DeleteSession("gone"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteSession("gone"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListSessionsFilter(t *testing.T) {
	s := newTestStore(t)
	insertSession(t, s, "a", day("2026-03-01"), 180, true)
	insertSession(t, s, "b", day("2026-03-02"), 40, false)
	insertSession(t, s, "c", day("2026-03-03"), 180, true)

	all, err := s.ListSessions(SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].UUID != "c" || all[2].UUID != "a" {
		t.Fatalf("expected newest first, got %+v", all)
	}

	from, to := day("2026-03-02"), day("2026-03-04")
	ranged, _ := s.ListSessions(SessionFilter{From: &from, To: &to})
	if len(ranged) != 2 {
		t.Fatalf("expected 2 in range, got %d", len(ranged))
	}

	done, _ := s.ListSessions(SessionFilter{CompletedOnly: true})
	if len(done) != 2 {
		t.Fatalf("expected 2 completed, got %d", len(done))
	}

	limited, _ := s.ListSessions(SessionFilter{Limit: 1})
	if len(limited) != 1 || limited[0].UUID != "c" {
		t.Fatalf("expected limit 1 newest, got %+v", limited)
	}
}

func TestGetDailySummary(t *testing.T) {
	s := newTestStore(t)
	insertSession(t, s, "a", day("2026-03-01"), 180, true)
	insertSession(t, s, "b", day("2026-03-01").Add(time.Hour), 60, false)
	insertSession(t, s, "c", day("2026-03-03"), 120, true)

	sums, err := s.GetDailySummary(day("2026-03-01").Add(-9*time.Hour), day("2026-03-04"))
	if err != nil {
		t.Fatal(err)
	}
	if len(sums) != 2 {
		t.Fatalf("expected 2 days, got %d", len(sums))
	}
	if sums[0].Date != "2026-03-01" || sums[0].TotalSeconds != 240 || sums[0].SessionCount != 2 {
		t.Fatalf("unexpected first day: %+v", sums[0])
	}
	if sums[1].Date != "2026-03-03" || sums[1].TotalSeconds != 120 {
		t.Fatalf("unexpected second day: %+v", sums[1])
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	insertSession(t, s, "a", day("2026-03-01"), 180, true)
	insertSession(t, s, "b", day("2026-03-02"), 60, false)
	insertSession(t, s, "c", day("2026-03-03"), 180, true)
	insertSession(t, s, "d", day("2026-03-05"), 180, true)
	insertSession(t, s, "e", day("2026-03-06"), 180, true)

	st, err := s.StatsAt(day("2026-03-06"))
	if err != nil {
		t.Fatal(err)
	}
	if st.Sessions != 5 || st.Completed != 4 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if st.TotalSeconds != 780 {
		t.Fatalf("expected 780s, got %d", st.TotalSeconds)
	}
	if st.CurrentStreak != 2 || st.LongestStreak != 3 {
		t.Fatalf("unexpected streaks: current=%d longest=%d", st.CurrentStreak, st.LongestStreak)
	}
}

func TestStreaks(t *testing.T) {
	tests := []struct {
		name             string
		days             []string
		today            string
		current, longest int
	}{
		{"empty", nil, "2026-03-01", 0, 0},
		{"today only", []string{"2026-03-01"}, "2026-03-01", 1, 1},
		{"yesterday keeps streak", []string{"2026-02-27", "2026-02-28"}, "2026-03-01", 2, 2},
		{"gap breaks current", []string{"2026-02-20", "2026-02-21", "2026-02-22"}, "2026-03-01", 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var days []time.Time
			for _, d := range tt.days {
				parsed, _ := time.Parse(dayLayout, d)
				days = append(days, parsed)
			}
			cur, long := streaks(days, day(tt.today))
			if cur != tt.current || long != tt.longest {
				t.Fatalf("got current=%d longest=%d, want %d/%d", cur, long, tt.current, tt.longest)
			}
		})
	}
}

// ============================================================
// Settings
// ============================================================

func TestSetAndGetSetting(t *testing.T) {
	s := newTestStore(t)
	if v, err := s.GetSetting("theme"); err != nil || v != "" {
		t.Fatalf("expected empty unset value, got %q %v", v, err)
	}
	if err := s.SetSetting("theme", "forest"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting("theme", "sunset"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("theme")
	if err != nil {
		t.Fatal(err)
	}
	if v != "sunset" {
		t.Fatalf("expected sunset, got %q", v)
	}
}

func TestPacerConfigFallback(t *testing.T) {
	s := newTestStore(t)
	fallback := pacer.DefaultConfig()
	cfg, err := s.PacerConfig(fallback)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != fallback {
		t.Fatalf("expected fallback, got %+v", cfg)
	}
}

func TestSavePacerConfig(t *testing.T) {
	s := newTestStore(t)
	want := pacer.Config{PhaseDurationSeconds: 6, TotalDurationMinutes: 10, Theme: "lavender", SoundType: "none"}
	if err := s.SavePacerConfig(want); err != nil {
		t.Fatal(err)
	}
	got, err := s.PacerConfig(pacer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestSavePacerConfigRejectsInvalid(t *testing.T) {
	s := newTestStore(t)
	err := s.SavePacerConfig(pacer.Config{PhaseDurationSeconds: 0, TotalDurationMinutes: 3})
	if !errors.Is(err, pacer.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestPacerConfigIgnoresBadValues(t *testing.T) {
	s := newTestStore(t)
	s.SetSetting(KeyPhaseSeconds, "abc")
	s.SetSetting(KeyTotalMinutes, "-4")
	cfg, err := s.PacerConfig(pacer.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.PhaseDurationSeconds != pacer.DefaultPhaseSeconds || cfg.TotalDurationMinutes != pacer.DefaultTotalMinutes {
		t.Fatalf("bad values should keep fallback: %+v", cfg)
	}
}

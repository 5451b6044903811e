package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/breathr/internal/store"
)

func sampleData() []store.BreathingSession {
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return []store.BreathingSession{
		{
			ID: 1, UUID: "a1", PhaseSeconds: 4, TotalMinutes: 3,
			Theme: "ocean", Sound: "bell", Cycles: 11, ElapsedSeconds: 180, Completed: true,
			StartedAt: start, EndedAt: start.Add(3 * time.Minute),
		},
		{
			ID: 2, UUID: "b2", PhaseSeconds: 5, TotalMinutes: 10,
			Theme: "forest", Sound: "none", Cycles: 2, ElapsedSeconds: 45,
			StartedAt: start.Add(time.Hour), EndedAt: start.Add(time.Hour + 45*time.Second),
		},
	}
}

// ============================================================
// CSV
// ============================================================

func TestToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.csv")

	if err := ToCSV(sampleData(), path); err != nil {
		t.Fatalf("ToCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 rows (1 header + 2 data), got %d", len(records))
	}

	for i, h := range csvHeader {
		if records[0][i] != h {
			t.Fatalf("header[%d] = %q, want %q", i, records[0][i], h)
		}
	}

	row := records[1]
	if row[0] != "a1" {
		t.Fatalf("ID = %q, want a1", row[0])
	}
	if row[3] != "4" || row[4] != "3" {
		t.Fatalf("config columns = %q/%q", row[3], row[4])
	}
	if row[7] != "11" {
		t.Fatalf("Cycles = %q, want 11", row[7])
	}
	if row[8] != "180" || row[9] != "00:03:00" {
		t.Fatalf("Elapsed = %q/%q", row[8], row[9])
	}
	if row[10] != "true" {
		t.Fatalf("Completed = %q, want true", row[10])
	}
	if records[2][10] != "false" {
		t.Fatalf("second row Completed = %q, want false", records[2][10])
	}
}

func TestToCSVEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")

	if err := ToCSV(nil, path); err != nil {
		t.Fatal(err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	records, _ := csv.NewReader(f).ReadAll()
	if len(records) != 1 {
		t.Fatalf("expected 1 row (header only), got %d", len(records))
	}
}

func TestToCSVBadPath(t *testing.T) {
	if err := ToCSV(nil, "/nonexistent/dir/file.csv"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteCSVSpecialCharacters(t *testing.T) {
	sessions := sampleData()[:1]
	sessions[0].Theme = `deep "blue", calm`

	var buf bytes.Buffer
	if err := WriteCSV(&buf, sessions); err != nil {
		t.Fatal(err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("CSV should be valid even with special chars: %v", err)
	}
	if records[1][5] != `deep "blue", calm` {
		t.Fatalf("theme mangled: %q", records[1][5])
	}
}

// ============================================================
// JSON
// ============================================================

func TestToJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.json")

	if err := ToJSON(sampleData(), path); err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var result jsonExport
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if result.Count != 2 || len(result.Sessions) != 2 {
		t.Fatalf("count = %d, sessions = %d, want 2", result.Count, len(result.Sessions))
	}
	if result.ExportedAt == "" {
		t.Fatal("exported_at should not be empty")
	}

	s := result.Sessions[0]
	if s.ID != "a1" || s.PhaseSeconds != 4 || s.TotalMinutes != 3 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if s.ElapsedSec != 180 || s.Elapsed != "00:03:00" {
		t.Fatalf("elapsed = %d/%q", s.ElapsedSec, s.Elapsed)
	}
	if !s.Completed || result.Sessions[1].Completed {
		t.Fatal("completed flags not preserved")
	}
}

func TestToJSONEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := ToJSON(nil, path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"sessions": []`) {
		t.Fatalf("empty export should contain an empty array, got %s", data)
	}
}

func TestToJSONBadPath(t *testing.T) {
	if err := ToJSON(nil, "/nonexistent/dir/file.json"); err == nil {
		t.Fatal("expected error for bad path")
	}
}

func TestWriteJSONPrettyPrinted(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleData())

	if !strings.Contains(buf.String(), "\n  ") {
		t.Fatal("JSON should be indented")
	}
}

func TestWriteJSONValidTimestamps(t *testing.T) {
	var buf bytes.Buffer
	WriteJSON(&buf, sampleData())

	var result jsonExport
	json.Unmarshal(buf.Bytes(), &result)

	if _, err := time.Parse(time.RFC3339, result.ExportedAt); err != nil {
		t.Fatalf("exported_at is not valid RFC3339: %q", result.ExportedAt)
	}
	for _, s := range result.Sessions {
		if _, err := time.Parse(time.RFC3339, s.StartedAt); err != nil {
			t.Fatalf("started_at is not valid RFC3339: %q", s.StartedAt)
		}
		if _, err := time.Parse(time.RFC3339, s.EndedAt); err != nil {
			t.Fatalf("ended_at is not valid RFC3339: %q", s.EndedAt)
		}
	}
}

// ============================================================
// formatDuration (internal helper)
// ============================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{1, "00:00:01"},
		{60, "00:01:00"},
		{3600, "01:00:00"},
		{3661, "01:01:01"},
		{86400, "24:00:00"},
	}

	for _, tt := range tests {
		got := formatDuration(tt.secs)
		if got != tt.want {
			t.Errorf("formatDuration(%d) = %q, want %q", tt.secs, got, tt.want)
		}
	}
}

package store

import "time"

// BreathingSession is one finished or stopped session.
type BreathingSession struct {
	ID             int64
	UUID           string
	PhaseSeconds   int
	TotalMinutes   int
	Theme          string
	Sound          string
	Cycles         int
	ElapsedSeconds int64
	Completed      bool
	StartedAt      time.Time
	EndedAt        time.Time
}

type Setting struct {
	Key   string
	Value string
}

// SessionFilter is used to filter sessions in queries.
type SessionFilter struct {
	From          *time.Time
	To            *time.Time
	CompletedOnly bool
	Limit         int
}

// DailySummary represents aggregated breathing time per day.
type DailySummary struct {
	Date         string
	TotalSeconds int64
	SessionCount int
	Cycles       int
}

// Stats are lifetime totals.
type Stats struct {
	Sessions      int
	Completed     int
	TotalSeconds  int64
	TotalCycles   int
	CurrentStreak int // consecutive days up to today with at least one session
	LongestStreak int
}

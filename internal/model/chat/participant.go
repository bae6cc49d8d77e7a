package chat

import "time"

// Participant is a named chat actor kept alive by its LastSeen timestamp.
type Participant struct {
	Name     string    `json:"name"`
	LastSeen time.Time `json:"lastSeen"`
}

// StaleAt reports whether the participant has been idle for longer than
// threshold at the instant now.
func (p Participant) StaleAt(now time.Time, threshold time.Duration) bool {
	return now.Sub(p.LastSeen) > threshold
}

// ParticipantQuery filters participant scans. A zero SeenBefore lists everyone.
type ParticipantQuery struct {
	SeenBefore time.Time
}

// Matches evaluates the query against a single participant.
func (q ParticipantQuery) Matches(p Participant) bool {
	return q.SeenBefore.IsZero() || p.LastSeen.Before(q.SeenBefore)
}

package chat

import "time"

// Broadcast is the recipient that addresses every participant.
const Broadcast = "Todos"

// TimeLayout renders Message.Time as HH:mm:ss.
const TimeLayout = "15:04:05"

// Kind classifies a message.
type Kind string

const (
	KindMessage        Kind = "message"
	KindPrivateMessage Kind = "private_message"
	KindStatus         Kind = "status"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindMessage, KindPrivateMessage, KindStatus:
		return true
	default:
		return false
	}
}

// Message is one immutable entry of the append-only message log.
type Message struct {
	ID        string    `json:"id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Text      string    `json:"text"`
	Kind      Kind      `json:"type"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"-"`
}

// Draft is a user-submitted message before it is stamped and stored.
type Draft struct {
	To   string `json:"to"`
	Text string `json:"text"`
	Kind Kind   `json:"type"`
}

// MessageQuery selects messages whose recipient is one of To or whose sender is
// From. The zero value matches every message.
type MessageQuery struct {
	To   []string
	From string
}

// Empty reports whether the query matches everything.
func (q MessageQuery) Empty() bool {
	return len(q.To) == 0 && q.From == ""
}

// Matches evaluates the query against a single message.
func (q MessageQuery) Matches(m Message) bool {
	if q.Empty() {
		return true
	}
	if q.From != "" && m.From == q.From {
		return true
	}
	for _, to := range q.To {
		if m.To == to {
			return true
		}
	}
	return false
}

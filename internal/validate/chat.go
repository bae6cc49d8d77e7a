package validate

import (
	"errors"
	"math"
	"regexp"
	"strconv"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

var limitPattern = regexp.MustCompile(`^[1-9]\d*$`)

// ParticipantSchema describes the join request body.
var ParticipantSchema = Schema{
	{Name: "name", Rules: []Rule{Required(), String()}},
}

// MessageSchema describes a user-submitted message body. Status messages are
// system generated and cannot be submitted.
var MessageSchema = Schema{
	{Name: "to", Rules: []Rule{Required(), String()}},
	{Name: "text", Rules: []Rule{Required(), String()}},
	{Name: "type", Rules: []Rule{Required(), String(), OneOf(string(chat.KindMessage), string(chat.KindPrivateMessage))}},
}

// ParseParticipant validates a join body and returns the requested name.
func ParseParticipant(record Record) (string, error) {
	if err := ParticipantSchema.Validate(record); err != nil {
		return "", err
	}
	return record["name"].(string), nil
}

// CheckName validates a participant name that is already typed.
func CheckName(name string) error {
	return ParticipantSchema.Validate(Record{"name": name})
}

// ParseMessage validates a message body and returns the typed draft.
func ParseMessage(record Record) (chat.Draft, error) {
	if err := MessageSchema.Validate(record); err != nil {
		return chat.Draft{}, err
	}
	return chat.Draft{
		To:   record["to"].(string),
		Text: record["text"].(string),
		Kind: chat.Kind(record["type"].(string)),
	}, nil
}

// CheckDraft validates a typed draft against MessageSchema.
func CheckDraft(d chat.Draft) error {
	return MessageSchema.Validate(Record{"to": d.To, "text": d.Text, "type": string(d.Kind)})
}

// Header validates that a required header carries a value.
func Header(name, value string) error {
	return Value(name, value, value != "", Required(), String())
}

// Limit parses the optional limit query parameter. An empty raw value means no
// limit and returns 0. Values too large for int clamp to math.MaxInt.
func Limit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	if err := Value("limit", raw, true, String(), Pattern(limitPattern)); err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) {
		return math.MaxInt, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

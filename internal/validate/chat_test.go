package validate

import (
	"math"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GustavoHenriqe/projeto13-batepapo-uol-api/internal/model/chat"
)

func TestParseParticipant(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		want    string
		wantErr string
	}{
		{"valid", Record{"name": "ana"}, "ana", ""},
		{"missing", Record{}, "", `"name" is required`},
		{"null", Record{"name": nil}, "", `"name" is required`},
		{"number", Record{"name": 42.0}, "", `"name" must be a string`},
		{"empty", Record{"name": ""}, "", `"name" is not allowed to be empty`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParticipant(tt.record)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}

			var fieldErrs criterio.FieldErrors
			require.ErrorAs(t, err, &fieldErrs)
			require.Len(t, fieldErrs, 1)
			assert.Equal(t, "name", fieldErrs[0].Field)
			assert.Equal(t, tt.wantErr, fieldErrs[0].Err.Error())
		})
	}
}

func TestParseMessage(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		got, err := ParseMessage(Record{"to": "Todos", "text": "oi", "type": "message"})
		require.NoError(t, err)
		assert.Equal(t, chat.Draft{To: "Todos", Text: "oi", Kind: chat.KindMessage}, got)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		_, err := ParseMessage(Record{"text": 3.0, "type": "status"})

		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs)
		require.Len(t, fieldErrs, 3)
		assert.Equal(t, "to", fieldErrs[0].Field)
		assert.Equal(t, "text", fieldErrs[1].Field)
		assert.Equal(t, "type", fieldErrs[2].Field)
		assert.Contains(t, fieldErrs[2].Err.Error(), "must be one of [message, private_message]")
	})
}

func TestCheckDraft(t *testing.T) {
	assert.NoError(t, CheckDraft(chat.Draft{To: "bia", Text: "psiu", Kind: chat.KindPrivateMessage}))
	assert.Error(t, CheckDraft(chat.Draft{To: "bia", Text: "psiu", Kind: chat.KindStatus}))
	assert.Error(t, CheckDraft(chat.Draft{To: "", Text: "psiu", Kind: chat.KindMessage}))
}

func TestLimit(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"1", 1, false},
		{"25", 25, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"01", 0, true},
		{"abc", 0, true},
		{"2.5", 0, true},
		{"99999999999999999999999", math.MaxInt, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Limit(tt.raw)
			if tt.wantErr {
				var fieldErrs criterio.FieldErrors
				require.ErrorAs(t, err, &fieldErrs)
				assert.Equal(t, "limit", fieldErrs[0].Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeader(t *testing.T) {
	assert.NoError(t, Header("user", "ana"))

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, Header("user", ""), &fieldErrs)
	assert.Equal(t, `"user" is required`, fieldErrs[0].Err.Error())
}

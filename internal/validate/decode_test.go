package validate

import (
	"strings"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRecord(t *testing.T) {
	record, err := DecodeRecord(strings.NewReader(`{"name": "ana", "age": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "ana", record["name"])

	for _, body := range []string{``, `null`, `[]`, `"ana"`, `{"name":`} {
		_, err := DecodeRecord(strings.NewReader(body))
		var fieldErrs criterio.FieldErrors
		require.ErrorAs(t, err, &fieldErrs, body)
		assert.Equal(t, "body", fieldErrs[0].Field)
	}
}

package validate

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/hay-kot/criterio"
)

// DecodeRecord reads a JSON object from r. Anything else, including an empty
// body, is reported as a field error on "body".
func DecodeRecord(r io.Reader) (Record, error) {
	var record Record
	if err := json.NewDecoder(r).Decode(&record); err != nil {
		return nil, criterio.NewFieldErrors("body", errors.New(`"body" must be a JSON object`))
	}
	if record == nil {
		return nil, criterio.NewFieldErrors("body", errors.New(`"body" must be a JSON object`))
	}
	return record, nil
}

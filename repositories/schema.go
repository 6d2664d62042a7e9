package repositories

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dosada05/mergington-activities/models"
	"github.com/xeipuuv/gojsonschema"
)

// rosterSchema constrains only what the service reads: a top-level object of
// objects whose participants, when present, is a list of strings. Every other
// key is descriptive and passed through untouched.
const rosterSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": {
		"type": "object",
		"properties": {
			"participants": {
				"type": "array",
				"items": {"type": "string"}
			}
		}
	}
}`

func compileRosterSchema() (*gojsonschema.Schema, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(rosterSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile roster schema: %w", err)
	}
	return schema, nil
}

// decodeRoster validates a roster document and decodes it. Blank input is an empty roster.
func decodeRoster(data []byte, schema *gojsonschema.Schema) (models.Roster, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.Roster{}, nil
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStore, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, fmt.Errorf("%w: %s", ErrMalformedStore, strings.Join(msgs, "; "))
	}

	var roster models.Roster
	if err := json.Unmarshal(data, &roster); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedStore, err)
	}
	if roster == nil {
		roster = models.Roster{}
	}
	return roster, nil
}

// encodeRoster renders the document the way it is kept on disk.
func encodeRoster(roster models.Roster) ([]byte, error) {
	if roster == nil {
		roster = models.Roster{}
	}
	data, err := json.MarshalIndent(roster, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode roster: %w", err)
	}
	return append(data, '\n'), nil
}

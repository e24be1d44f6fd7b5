package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/voter-roll-extractor/internal/common"
)

// recordsSchema describes the extracted_json column: an array of eight-field records.
var recordsSchema = map[string]any{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "array",
	"items": map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"serial", "name", "voter_number", "father_name",
			"mother_name", "occupation", "date_of_birth", "address",
		},
		"properties": map[string]any{
			"serial":        map[string]any{"type": "integer", "minimum": 0, "maximum": 9999},
			"name":          map[string]any{"type": "string"},
			"voter_number":  map[string]any{"type": "string"},
			"father_name":   map[string]any{"type": "string"},
			"mother_name":   map[string]any{"type": "string"},
			"occupation":    map[string]any{"type": "string"},
			"date_of_birth": map[string]any{"type": "string", "pattern": "^[0-9/]*$"},
			"address":       map[string]any{"type": "string"},
		},
	},
}

// RecordsSchema validates serialized records before they are stored.
type RecordsSchema struct {
	schema *jsonschema.Schema
}

func NewRecordsSchema() (*RecordsSchema, error) {
	b, err := json.Marshal(recordsSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("records.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("records.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &RecordsSchema{schema: schema}, nil
}

var (
	compiledOnce   sync.Once
	compiledSchema *RecordsSchema
)

// MustRecordsSchema compiles the schema once per process.
func MustRecordsSchema() *RecordsSchema {
	compiledOnce.Do(func() {
		s, err := NewRecordsSchema()
		if err != nil {
			panic(err)
		}
		compiledSchema = s
	})
	return compiledSchema
}

func (s *RecordsSchema) Validate(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: unmarshal records: %v", common.ErrValidation, err)
	}
	if err := s.schema.Validate(v); err != nil {
		return fmt.Errorf("%w: records do not match schema: %v", common.ErrValidation, err)
	}
	return nil
}

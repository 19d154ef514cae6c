package classify

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed partition.schema.json
var partitionSchemaJSON string

// ErrInvalidPartition marks a classifier response that is not a valid index
// partition. Callers must treat it as a hard failure: nothing derived from
// the response may be persisted.
var ErrInvalidPartition = errors.New("classifier response is not a valid partition")

var (
	compileOnce       sync.Once
	compiledSchema    *jsonschema.Schema
	compiledSchemaErr error
)

// ParsePartition validates raw classifier output as a partition of the input
// indices: an array of arrays of integers in [0, size), each index appearing
// at most once. Any deviation returns ErrInvalidPartition.
func ParsePartition(raw []byte, size int) ([][]int, error) {
	value, err := decodeStrictJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: decode JSON: %v", ErrInvalidPartition, err)
	}

	schema, err := loadSchema()
	if err != nil {
		return nil, fmt.Errorf("load partition schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: schema validation: %v", ErrInvalidPartition, err)
	}

	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: normalize JSON: %v", ErrInvalidPartition, err)
	}

	var partition [][]int
	if err := json.Unmarshal(normalized, &partition); err != nil {
		return nil, fmt.Errorf("%w: unmarshal partition: %v", ErrInvalidPartition, err)
	}

	seen := make(map[int]struct{}, size)
	for _, group := range partition {
		for _, idx := range group {
			if idx < 0 || idx >= size {
				return nil, fmt.Errorf("%w: index %d out of bounds [0, %d)", ErrInvalidPartition, idx, size)
			}
			if _, dup := seen[idx]; dup {
				return nil, fmt.Errorf("%w: index %d appears more than once", ErrInvalidPartition, idx)
			}
			seen[idx] = struct{}{}
		}
	}

	return partition, nil
}

// ExtractJSONArray trims chat-completion prose around the partition payload:
// code fences and any text before the first '[' or after the last ']'.
func ExtractJSONArray(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty response", ErrInvalidPartition)
	}

	start := strings.IndexByte(trimmed, '[')
	end := strings.LastIndexByte(trimmed, ']')
	if start < 0 || end < start {
		return "", fmt.Errorf("%w: no JSON array in response", ErrInvalidPartition)
	}
	return trimmed[start : end+1], nil
}

func loadSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020

		if err := compiler.AddResource("partition.schema.json", strings.NewReader(partitionSchemaJSON)); err != nil {
			compiledSchemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}

		schema, err := compiler.Compile("partition.schema.json")
		if err != nil {
			compiledSchemaErr = fmt.Errorf("compile schema: %w", err)
			return
		}

		compiledSchema = schema
	})

	if compiledSchemaErr != nil {
		return nil, compiledSchemaErr
	}
	if compiledSchema == nil {
		return nil, fmt.Errorf("schema not initialized")
	}
	return compiledSchema, nil
}

func decodeStrictJSON(raw []byte) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("payload is empty")
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("payload contains trailing content")
	}

	return value, nil
}

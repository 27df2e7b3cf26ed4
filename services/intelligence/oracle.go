// Package ai wraps the language-understanding oracle behind a narrow, schema-driven interface.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNullResult means the oracle answered with nothing usable.
	ErrNullResult = errors.New("oracle returned a null result")
	// ErrMalformed means the oracle answer did not parse into the requested shape.
	ErrMalformed = errors.New("oracle returned malformed JSON")
	// ErrTimeout means the oracle did not answer within its deadline.
	ErrTimeout = errors.New("oracle timed out")
)

// SchemaType names a JSON type in a response schema.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeInteger SchemaType = "integer"
	TypeNumber  SchemaType = "number"
	TypeBoolean SchemaType = "boolean"
)

// Schema declares the JSON shape a completion must return.
type Schema struct {
	Type        SchemaType
	Description string
	Nullable    bool
	Enum        []string
	Items       *Schema
	Properties  map[string]*Schema
	Required    []string
}

// Request is one structured completion.
type Request struct {
	Name        string // call site, used in logs and errors
	Prompt      string
	Temperature float32
	Schema      *Schema
}

// Oracle completes a prompt into a JSON value decoded into out.
type Oracle interface {
	Complete(ctx context.Context, req Request, out any) error
}

// DecodeJSON strips markdown fences and decodes raw into out, mapping empty and null answers
// to ErrNullResult and parse failures to ErrMalformed.
func DecodeJSON(raw string, out any) error {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	if s == "" || s == "null" {
		return ErrNullResult
	}
	if err := json.Unmarshal([]byte(s), out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// IsFailure reports whether err is one of the oracle failure sentinels.
func IsFailure(err error) bool {
	return errors.Is(err, ErrNullResult) || errors.Is(err, ErrMalformed) || errors.Is(err, ErrTimeout)
}

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/kaptinlin/jsonrepair"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// GenerateSchema creates a JSON Schema for the type of value, suitable for
// structured-output response formats.
func GenerateSchema(value any) any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	t := reflect.TypeOf(value)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return reflector.Reflect(reflect.New(t).Interface())
}

// DecodeStrict parses model output into out and fails closed.
//
// Markdown code fences are stripped and syntactically broken JSON is repaired,
// but the repaired document must still decode without unknown fields and pass
// the struct's validate tags. Any mismatch returns ErrLLMParseFailed and out
// must then be treated as unset.
func DecodeStrict(raw string, out any) error {
	body := stripCodeFence(raw)
	if body == "" {
		return fmt.Errorf("%w: empty output", ErrLLMParseFailed)
	}

	if !json.Valid([]byte(body)) {
		repaired, err := jsonrepair.JSONRepair(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLLMParseFailed, err)
		}
		body = repaired
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrLLMParseFailed, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fmt.Errorf("%w: trailing data after JSON value", ErrLLMParseFailed)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", ErrLLMParseFailed, err)
	}
	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

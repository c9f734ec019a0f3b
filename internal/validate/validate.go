// Package validate decodes and checks todo payloads.
//
// Create requests arrive form-encoded and update requests arrive as JSON;
// DecodeTitle accepts either and runs both through the same JSON Schema.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

const titleSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["title"],
	"properties": {
		"title": {
			"type": "string",
			"minLength": 1,
			"format": "nonblank"
		}
	}
}`

const maxMultipartMemory = 1 << 20

var schema = compileSchema()

func compileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = map[string]func(any) bool{}
	}
	compiler.Formats["nonblank"] = isNonBlank
	if err := compiler.AddResource("todo-title.json", strings.NewReader(titleSchema)); err != nil {
		panic(err)
	}
	return compiler.MustCompile("todo-title.json")
}

// isNonBlank rejects strings made only of Unicode white space (U+3000, NBSP,
// \v, ...) or byte order marks. Non-strings are left to the type keyword.
func isNonBlank(v any) bool {
	s, ok := v.(string)
	if !ok {
		return true
	}
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	}) != ""
}

// ValidationError names the payload field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
	}
	return "invalid payload: " + e.Message
}

// BodyError is returned when the payload cannot be decoded at all.
type BodyError struct {
	Err error
}

func (e *BodyError) Error() string {
	return "invalid body: " + e.Err.Error()
}

func (e *BodyError) Unwrap() error {
	return e.Err
}

// DecodeTitle reads the request body (JSON or form-encoded) and returns the
// validated title exactly as submitted.
func DecodeTitle(r *http.Request) (string, error) {
	payload, err := decodePayload(r)
	if err != nil {
		return "", err
	}
	if err := Payload(payload); err != nil {
		return "", err
	}
	title, _ := payload["title"].(string)
	return title, nil
}

// Payload validates an already decoded payload.
func Payload(payload map[string]any) error {
	if err := schema.Validate(payload); err != nil {
		return toValidationError(err)
	}
	return nil
}

func decodePayload(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		defer r.Body.Close()
		payload := map[string]any{}
		decoder := json.NewDecoder(r.Body)
		if err := decoder.Decode(&payload); err != nil {
			return nil, &BodyError{Err: err}
		}
		return payload, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, &BodyError{Err: err}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, &BodyError{Err: err}
	}
	payload := map[string]any{}
	if values, ok := r.PostForm["title"]; ok && len(values) > 0 {
		payload["title"] = values[0]
	}
	return payload, nil
}

func toValidationError(err error) error {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &ValidationError{Message: err.Error()}
	}
	leaf := firstLeaf(ve)
	field := strings.TrimPrefix(leaf.InstanceLocation, "/")
	if field == "" && strings.HasSuffix(leaf.KeywordLocation, "/required") {
		field = "title"
	}
	return &ValidationError{Field: field, Message: leaf.Message}
}

func firstLeaf(err *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(err.Causes) > 0 {
		err = err.Causes[0]
	}
	return err
}

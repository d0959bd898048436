package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Form names with built-in schemas.
const (
	FormProject = "project"
	FormVideo   = "video"
)

var builtinFormSchemas = map[string]map[string]any{
	FormProject: {
		"type":     "object",
		"required": []string{"title", "goalAmount", "endDate"},
		"properties": map[string]any{
			"title":       map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
			"description": map[string]any{"type": "string"},
			"goalAmount":  map[string]any{"type": "number", "exclusiveMinimum": 0},
			"endDate":     map[string]any{"type": "string", "minLength": 1},
		},
	},
	FormVideo: {
		"type":     "object",
		"required": []string{"title", "price"},
		"properties": map[string]any{
			"title":     map[string]any{"type": "string", "minLength": 1, "maxLength": 200},
			"price":     map[string]any{"type": "number", "minimum": 0},
			"isVisible": map[string]any{"type": "boolean"},
		},
	},
}

// FormValidator validates admin form payloads against JSON schemas.
type FormValidator struct {
	mu       sync.RWMutex
	schemas  map[string]map[string]any
	compiled map[string]*jsonschema.Schema
}

// NewFormValidator builds a validator preloaded with the project and video schemas.
func NewFormValidator() *FormValidator {
	schemas := make(map[string]map[string]any, len(builtinFormSchemas))
	for name, schema := range builtinFormSchemas {
		schemas[name] = schema
	}
	return &FormValidator{
		schemas:  schemas,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// RegisterSchema adds or replaces the schema for a form.
func (v *FormValidator) RegisterSchema(form string, schema map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[form] = schema
	delete(v.compiled, form)
}

// Validate checks payload against the form schema. Violations are returned as
// *ValidationError naming the first offending field.
func (v *FormValidator) Validate(form string, payload any) error {
	schema, err := v.schemaFor(form)
	if err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("dashboard: marshal %s form: %w", form, err)
	}
	var normalized any
	if err := json.Unmarshal(data, &normalized); err != nil {
		return fmt.Errorf("dashboard: normalize %s form: %w", form, err)
	}
	if err := schema.Validate(normalized); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			leaf := verr
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			return &ValidationError{
				Field:   strings.TrimPrefix(leaf.InstanceLocation, "/"),
				Message: leaf.Message,
			}
		}
		return fmt.Errorf("dashboard: validate %s form: %w", form, err)
	}
	return nil
}

func (v *FormValidator) schemaFor(form string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[form]
	raw, known := v.schemas[form]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	if !known {
		return nil, fmt.Errorf("dashboard: unknown form %q", form)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", form, err)
	}
	compiler := jsonschema.NewCompiler()
	name := form + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", form, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", form, err)
	}
	v.mu.Lock()
	v.compiled[form] = compiled
	v.mu.Unlock()
	return compiled, nil
}

// ValidateCard checks card input before it is handed to the payment form.
func ValidateCard(number string, expMonth, expYear int, cvc string, now time.Time) error {
	digits := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, number)
	if !allDigits(digits) || len(digits) < 14 || len(digits) > 19 {
		return &ValidationError{Field: "number", Message: "カード番号は14〜19桁の数字で入力してください"}
	}
	if expMonth < 1 || expMonth > 12 {
		return &ValidationError{Field: "expMonth", Message: "有効期限の月が正しくありません"}
	}
	if expYear < 100 {
		expYear += 2000
	}
	// A card is valid through the last day of its expiry month.
	expiry := time.Date(expYear, time.Month(expMonth)+1, 1, 0, 0, 0, 0, now.Location())
	if !now.Before(expiry) {
		return &ValidationError{Field: "expYear", Message: "カードの有効期限が切れています"}
	}
	if !allDigits(cvc) || len(cvc) < 3 || len(cvc) > 4 {
		return &ValidationError{Field: "cvc", Message: "セキュリティコードは3〜4桁の数字で入力してください"}
	}
	return nil
}

// ValidateEndDate rejects project end dates in the past or more than a year out.
func ValidateEndDate(end, now time.Time) error {
	if end.Before(now) {
		return &ValidationError{Field: "endDate", Message: "終了日は未来の日付を指定してください"}
	}
	if end.After(now.AddDate(1, 0, 0)) {
		return &ValidationError{Field: "endDate", Message: "終了日は1年以内で指定してください"}
	}
	return nil
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

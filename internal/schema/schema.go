// Package schema checks that a JSON document decodes into a Go struct and passes its validate tags.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

var ErrInvalidSchema = errors.New("schema must be a struct or a pointer to a struct")

type translatedValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var newTranslatedValidator = sync.OnceValues(func() (*translatedValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &translatedValidator{
		validate:   validate,
		translator: trans,
	}, nil
})

// Validate decodes actual into a new value of the schema type and validates it.
// Keys must match the json names exactly; other keys are ignored.
func Validate(actual string, schema any) error {
	return validate(actual, schema, false)
}

// ValidateStrict is Validate but fails on fields the schema does not declare
func ValidateStrict(actual string, schema any) error {
	return validate(actual, schema, true)
}

func validate(actual string, schema any, strict bool) error {
	schemaType := reflect.TypeOf(schema)
	if schemaType != nil && schemaType.Kind() == reflect.Pointer {
		schemaType = schemaType.Elem()
	}
	if schemaType == nil || schemaType.Kind() != reflect.Struct {
		return fmt.Errorf("%w: got %T", ErrInvalidSchema, schema)
	}

	var raw json.RawMessage
	decoder := json.NewDecoder(strings.NewReader(actual))
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errors.New("invalid JSON: unexpected data after the top-level value")
	}

	cleaned, err := filterKeys(raw, schemaType, strict, "")
	if err != nil {
		return err
	}
	value := reflect.New(schemaType).Interface()
	if err := json.Unmarshal(cleaned, value); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	v, err := newTranslatedValidator()
	if err != nil {
		return err
	}
	if err := v.validate.Struct(value); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return fmt.Errorf("validate.Struct > %w", err)
		}

		messages := make([]string, 0, len(validationErrors))
		for _, fieldError := range validationErrors {
			messages = append(messages, fieldError.Translate(v.translator))
		}
		return fmt.Errorf("schema mismatch: %s", strings.Join(messages, "; "))
	}
	return nil
}

var (
	jsonUnmarshalerType = reflect.TypeFor[json.Unmarshaler]()
	jsonNull            = []byte("null")
)

// filterKeys walks raw along schemaType and drops object keys that are not spelled exactly
// like a json field name, so encoding/json cannot fill a field from a key with another case.
// In strict mode such keys are an error instead.
func filterKeys(raw json.RawMessage, schemaType reflect.Type, strict bool, path string) (json.RawMessage, error) {
	nullable := false
	for schemaType.Kind() == reflect.Pointer {
		schemaType = schemaType.Elem()
		nullable = true
	}
	if reflect.PointerTo(schemaType).Implements(jsonUnmarshalerType) {
		return raw, nil
	}

	switch schemaType.Kind() {
	case reflect.Struct:
		if bytes.Equal(bytes.TrimSpace(raw), jsonNull) {
			if nullable && path != "" {
				return raw, nil
			}
			return nil, fmt.Errorf("invalid JSON: %s must be an object, got null", fieldPath(path))
		}
		var object map[string]json.RawMessage
		if err := json.Unmarshal(raw, &object); err != nil {
			return nil, fmt.Errorf("invalid JSON: %s must be an object", fieldPath(path))
		}
		fields := jsonFields(schemaType)
		for key, value := range object {
			fieldType, ok := fields[key]
			if !ok {
				if strict {
					return nil, fmt.Errorf("invalid JSON: unknown field %q", joinPath(path, key))
				}
				delete(object, key)
				continue
			}
			cleaned, err := filterKeys(value, fieldType, strict, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			object[key] = cleaned
		}
		return json.Marshal(object)
	case reflect.Slice, reflect.Array:
		if schemaType.Elem().Kind() == reflect.Uint8 {
			return raw, nil
		}
		var elements []json.RawMessage
		if err := json.Unmarshal(raw, &elements); err != nil || elements == nil {
			return raw, nil
		}
		for i, element := range elements {
			cleaned, err := filterKeys(element, schemaType.Elem(), strict, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			elements[i] = cleaned
		}
		return json.Marshal(elements)
	case reflect.Map:
		if schemaType.Key().Kind() != reflect.String {
			return raw, nil
		}
		var object map[string]json.RawMessage
		if err := json.Unmarshal(raw, &object); err != nil || object == nil {
			return raw, nil
		}
		for key, value := range object {
			cleaned, err := filterKeys(value, schemaType.Elem(), strict, joinPath(path, key))
			if err != nil {
				return nil, err
			}
			object[key] = cleaned
		}
		return json.Marshal(object)
	}
	return raw, nil
}

// jsonFields maps the exact json names of a struct's fields to their types,
// flattening untagged embedded structs the way encoding/json does
func jsonFields(structType reflect.Type) map[string]reflect.Type {
	fields := make(map[string]reflect.Type)
	for i := range structType.NumField() {
		field := structType.Field(i)
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if field.Anonymous && name == "" {
			embedded := field.Type
			if embedded.Kind() == reflect.Pointer {
				embedded = embedded.Elem()
			}
			if embedded.Kind() == reflect.Struct {
				for embeddedName, embeddedType := range jsonFields(embedded) {
					if _, ok := fields[embeddedName]; !ok {
						fields[embeddedName] = embeddedType
					}
				}
				continue
			}
		}
		if !field.IsExported() {
			continue
		}
		if name == "" {
			name = field.Name
		}
		fields[name] = field.Type
	}
	return fields
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func fieldPath(path string) string {
	if path == "" {
		return "value"
	}
	return path
}

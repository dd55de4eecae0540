package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"latitude": Number(), "title": Optional(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema.
// Returns an *AggregateError with every failure found, ordered by field name.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		// No schema = no validation
		return nil
	}

	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, fieldName := range keys {
		fieldType := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			if _, optional := fieldType.(*OptionalType); optional {
				continue
			}
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: "required",
				Value:  nil,
			})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}

	return nil
}

// Merge returns a schema holding the fields of every argument.
// Later schemas override earlier ones on duplicate keys.
func Merge(schemas ...Schema) Schema {
	out := make(Schema)
	for _, s := range schemas {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

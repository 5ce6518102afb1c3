package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// NewTool creates a Tool with an auto-generated JSON schema from a typed
// function. The input parameter T must be a struct with json tags.
//
// Example:
//
//	type QueryInput struct {
//	    SQL string `json:"sql" description:"SQL SELECT query to execute"`
//	}
//
//	tool := ai.NewTool(
//	    "run_query",
//	    "Execute a read-only SQL SELECT against the database",
//	    func(ctx context.Context, input QueryInput) (string, error) {
//	        return store.RunQueryJSON(ctx, input.SQL)
//	    },
//	)
//
// Panics if the struct has exported fields without json tags.
func NewTool[T any](name, description string, fn func(context.Context, T) (string, error)) *Tool {
	var zero T
	typ := reflect.TypeOf(zero)

	if err := validateStructTags(typ); err != nil {
		panic(fmt.Sprintf("NewTool(%s): %v", name, err))
	}

	return &Tool{
		Name:        name,
		Description: description,
		InputSchema: generateSchema(typ),
		Execute: func(ctx context.Context, args map[string]interface{}) (*ToolResult, error) {
			// Marshal args to JSON and back to get proper types
			jsonData, err := json.Marshal(args)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal arguments: %w", err)
			}

			var params T
			if err := json.Unmarshal(jsonData, &params); err != nil {
				return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
			}

			result, err := fn(ctx, params)
			if err != nil {
				return nil, err
			}

			return &ToolResult{
				Content: []ToolContent{{Type: "text", Content: result}},
			}, nil
		},
	}
}

// validateStructTags checks that all exported fields carry json tags.
func validateStructTags(typ reflect.Type) error {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}

	var missing []string
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Tag.Get("json") == "" {
			missing = append(missing, field.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("struct %s has exported fields without json tags: %v", typ.Name(), missing)
	}
	return nil
}

// generateSchema creates a JSON schema from a reflect.Type.
func generateSchema(typ reflect.Type) map[string]interface{} {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return map[string]interface{}{"type": "object"}
	}

	properties := make(map[string]interface{})
	var required []string

	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		parts := strings.Split(jsonTag, ",")
		fieldName := parts[0]
		omitempty := len(parts) > 1 && parts[1] == "omitempty"

		properties[fieldName] = buildPropertySchema(field)
		if !omitempty {
			required = append(required, fieldName)
		}
	}

	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// buildPropertySchema creates the schema for a single field.
func buildPropertySchema(field reflect.StructField) map[string]interface{} {
	schema := make(map[string]interface{})

	if desc := field.Tag.Get("description"); desc != "" {
		schema["description"] = desc
	}

	fieldType := field.Type
	if fieldType.Kind() == reflect.Ptr {
		fieldType = fieldType.Elem()
	}

	switch fieldType.Kind() {
	case reflect.String:
		schema["type"] = "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		schema["type"] = "integer"
	case reflect.Float32, reflect.Float64:
		schema["type"] = "number"
	case reflect.Bool:
		schema["type"] = "boolean"
	case reflect.Slice, reflect.Array:
		schema["type"] = "array"
		if fieldType.Elem().Kind() == reflect.String {
			schema["items"] = map[string]interface{}{"type": "string"}
		} else if fieldType.Elem().Kind() == reflect.Struct {
			schema["items"] = generateSchema(fieldType.Elem())
		}
	case reflect.Map:
		schema["type"] = "object"
	case reflect.Struct:
		return generateSchema(fieldType)
	default:
		schema["type"] = "string"
	}

	return schema
}

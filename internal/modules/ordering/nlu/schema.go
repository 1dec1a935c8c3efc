package nlu

import (
	"encoding/json"
	"sync"

	types "github.com/yungbote/barista-backend/internal/domain"
	"github.com/yungbote/barista-backend/internal/modules/ordering/steps"
)

const SchemaName = "barista_turn"

func nullable(kind string) map[string]any {
	return map[string]any{"type": []any{kind, "null"}}
}

func object(props map[string]any) map[string]any {
	required := make([]any, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func enumOf[T ~string](vals []T) []any {
	out := make([]any, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

func customizationsSchema() map[string]any {
	props := map[string]any{}
	for _, k := range types.AllCustomizationKeys() {
		props[string(k)] = nullable("string")
	}
	return object(props)
}

func itemSchema() map[string]any {
	return object(map[string]any{
		"drink_name":     map[string]any{"type": "string"},
		"size":           nullable("string"),
		"quantity":       map[string]any{"type": "integer"},
		"customizations": customizationsSchema(),
		"confidence":     map[string]any{"type": "number"},
	})
}

func modificationSchema() map[string]any {
	return object(map[string]any{
		"action":     map[string]any{"type": "string", "enum": []any{string(steps.ModificationModify), string(steps.ModificationRemove)}},
		"item_index": nullable("integer"),
		"drink_name": nullable("string"),
		"changes": object(map[string]any{
			"quantity":           nullable("integer"),
			"size":               nullable("string"),
			"add_customizations": customizationsSchema(),
			"remove_customizations": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string", "enum": enumOf(types.AllCustomizationKeys())},
			},
		}),
		"confidence": map[string]any{"type": "number"},
	})
}

var (
	schemaOnce sync.Once
	schema     map[string]any
	schemaText string
)

// Schema is the strict json_schema every adapter asks the model to follow.
func Schema() map[string]any {
	schemaOnce.Do(func() {
		action := object(map[string]any{
			"type":          map[string]any{"type": "string", "enum": enumOf(steps.AllActionTypes())},
			"drink_name":    nullable("string"),
			"query":         nullable("string"),
			"items":         map[string]any{"type": "array", "items": itemSchema()},
			"modifications": map[string]any{"type": "array", "items": modificationSchema()},
		})
		legacy := itemSchema()
		legacy["type"] = []any{"object", "null"}
		schema = object(map[string]any{
			"reply":             map[string]any{"type": "string"},
			"intent":            map[string]any{"type": "string", "enum": enumOf(steps.AllIntents())},
			"suggested_actions": map[string]any{"type": "array", "items": action},
			"extracted_order":   legacy,
		})
		b, _ := json.Marshal(schema)
		schemaText = string(b)
	})
	return schema
}

// SchemaText is Schema rendered as JSON for providers without native schema support.
func SchemaText() string {
	Schema()
	return schemaText
}

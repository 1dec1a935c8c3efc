package qdrant

import (
	"fmt"
	"sort"
	"strings"
)

// translateFilter turns a flat metadata filter into qdrant "must" conditions.
// Values match exactly; {"$in": [...]} matches any and {"$ne": v} excludes.
func translateFilter(filter map[string]any) (must []any, mustNot []any, err error) {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		k := strings.TrimSpace(key)
		if k == "" {
			continue
		}
		if strings.HasPrefix(k, "$") {
			return nil, nil, opErr("filter_translate", OperationErrorUnsupportedFilter, fmt.Sprintf("unsupported top-level operator %s", k), nil)
		}
		switch v := filter[key].(type) {
		case map[string]any:
			for op, arg := range v {
				switch strings.ToLower(op) {
				case "$eq":
					must = append(must, matchValue(k, arg))
				case "$ne":
					mustNot = append(mustNot, matchValue(k, arg))
				case "$in":
					vals, ok := arg.([]any)
					if !ok || len(vals) == 0 {
						return nil, nil, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("%s: $in expects a non-empty array", k), nil)
					}
					must = append(must, map[string]any{"key": k, "match": map[string]any{"any": vals}})
				default:
					return nil, nil, opErr("filter_translate", OperationErrorUnsupportedFilter, fmt.Sprintf("%s: unsupported operator %s", k, op), nil)
				}
			}
		case []any:
			return nil, nil, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("%s: use $in for array values", k), nil)
		default:
			must = append(must, matchValue(k, v))
		}
	}
	return must, mustNot, nil
}

func matchValue(key string, v any) map[string]any {
	return map[string]any{"key": key, "match": map[string]any{"value": v}}
}

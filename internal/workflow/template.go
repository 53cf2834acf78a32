package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// applyVars replaces every "{{name}}" occurrence in input with vars[name],
// leaving unrecognized placeholders untouched.
func applyVars(input string, vars map[string]string) string {
	out := input
	for k, v := range vars {
		out = strings.ReplaceAll(out, "{{"+k+"}}", v)
	}
	return out
}

// jsonPathString walks value along a dotted path (e.g. "data.user.id") and
// stringifies the scalar found there. Returns false if the path is missing
// or resolves to a non-scalar (object/array/null).
func jsonPathString(value interface{}, path string) (string, bool) {
	cur := value
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]interface{})
		if !ok {
			return "", false
		}
		next, ok := obj[seg]
		if !ok {
			return "", false
		}
		cur = next
	}

	switch v := cur.(type) {
	case string:
		return v, true
	case bool:
		return fmt.Sprint(v), true
	case float64:
		return formatJSONNumber(v), true
	default:
		return "", false
	}
}

// formatJSONNumber renders a float64 decoded from JSON as a plain integer when
// it has no fractional part, so 10000000 renders as "10000000", not "1e+07".
func formatJSONNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// decodeJSON parses body as JSON, returning nil (not an error) when body is
// not valid JSON — §4.8's http node stores raw text regardless and only
// best-effort parses a structured last_response.
func decodeJSON(body string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil
	}
	return v
}

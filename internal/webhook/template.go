package webhook

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fieldRef = regexp.MustCompile(`\{([a-zA-Z0-9_]+(?:\.[a-zA-Z0-9_]+)*)\}`)

// renderTemplate substitutes every `{field.subfield}` reference in tmpl with
// the matching value from body's JSON, walking nested objects one dotted
// segment at a time. A reference that resolves to nothing is left as an
// empty string rather than erroring, since a webhook body's shape is the
// caller's, not the definition author's, to fully control.
func renderTemplate(tmpl string, body []byte) (string, error) {
	var data map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &data); err != nil {
			return "", fmt.Errorf("webhook: body is not a JSON object: %w", err)
		}
	}

	out := fieldRef.ReplaceAllStringFunc(tmpl, func(match string) string {
		path := fieldRef.FindStringSubmatch(match)[1]
		v, ok := lookup(data, strings.Split(path, "."))
		if !ok {
			return ""
		}
		return fmt.Sprint(v)
	})
	return out, nil
}

func lookup(data map[string]interface{}, path []string) (interface{}, bool) {
	if len(path) == 0 {
		return nil, false
	}
	v, ok := data[path[0]]
	if !ok {
		return nil, false
	}
	if len(path) == 1 {
		return v, true
	}
	next, ok := v.(map[string]interface{})
	if !ok {
		return nil, false
	}
	return lookup(next, path[1:])
}

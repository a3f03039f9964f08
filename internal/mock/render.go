package mock

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// renderString executes tpl as a text/template over params. Strings without
// template actions are returned as-is.
func renderString(tpl string, params map[string]string) (string, error) {
	if !strings.Contains(tpl, "{{") {
		return tpl, nil
	}

	t, err := template.New("body").
		Option("missingkey=zero").
		Parse(tpl)
	if err != nil {
		return "", fmt.Errorf("parsing template %q: %w", tpl, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("executing template %q: %w", tpl, err)
	}
	return buf.String(), nil
}

// renderBody returns a copy of body with every string leaf rendered. Nested
// maps and lists are walked; other values are copied unchanged.
func renderBody(body map[string]any, params map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(body))
	for k, v := range body {
		r, err := renderValue(v, params)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = r
	}
	return out, nil
}

func renderValue(v any, params map[string]string) (any, error) {
	switch x := v.(type) {
	case string:
		return renderString(x, params)
	case map[string]any:
		return renderBody(x, params)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			r, err := renderValue(item, params)
			if err != nil {
				return nil, err
			}
			out[i] = r
		}
		return out, nil
	default:
		return v, nil
	}
}

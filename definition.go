package apibind

import (
	"fmt"
	"strings"
)

// Definition is the canonical description of one HTTP operation.
type Definition struct {
	Method string `json:"method" yaml:"method"`
	URL    string `json:"url" yaml:"url"`
}

// Table maps operation names to definitions in any of the accepted shapes:
// a bare URL string, a [method, url] pair, or an explicit Definition.
type Table map[string]any

// allowedMethods is the set of recognized HTTP methods, keyed by their
// canonical (upper-case) spelling.
var allowedMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"DELETE":  {},
	"PATCH":   {},
	"OPTIONS": {},
	"HEAD":    {},
}

// canonicalMethod upper-cases method and validates it against the allowed
// set. The empty string reports an error.
func canonicalMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := allowedMethods[m]; !ok {
		return "", &IllegalMethodError{Method: method}
	}
	return m, nil
}

// NormalizeTable converts a mixed-shape table into canonical definitions.
// Every entry must normalize or the whole table fails; this front-loads
// validation so misconfiguration surfaces at startup.
func NormalizeTable(table Table) (map[string]Definition, error) {
	defs := make(map[string]Definition, len(table))
	for name, raw := range table {
		def, err := normalizeDefinition(name, raw)
		if err != nil {
			return nil, err
		}
		defs[name] = def
	}
	return defs, nil
}

func normalizeDefinition(name string, raw any) (Definition, error) {
	var method, rawURL string

	switch v := raw.(type) {
	case nil:
		return Definition{}, &InvalidDefinitionError{Name: name, Reason: "definition is empty"}
	case string:
		method, rawURL = "GET", v
	case Definition:
		method, rawURL = v.Method, v.URL
		if method == "" {
			method = "GET"
		}
	case *Definition:
		if v == nil {
			return Definition{}, &InvalidDefinitionError{Name: name, Reason: "definition is empty"}
		}
		method, rawURL = v.Method, v.URL
		if method == "" {
			method = "GET"
		}
	case [2]string:
		method, rawURL = v[0], v[1]
	case []string:
		if len(v) != 2 {
			return Definition{}, &InvalidDefinitionError{
				Name:   name,
				Reason: fmt.Sprintf("pair must have exactly 2 elements, got %d", len(v)),
			}
		}
		method, rawURL = v[0], v[1]
	case []any:
		// Pairs decoded from JSON or YAML arrive as []any.
		if len(v) != 2 {
			return Definition{}, &InvalidDefinitionError{
				Name:   name,
				Reason: fmt.Sprintf("pair must have exactly 2 elements, got %d", len(v)),
			}
		}
		m, mok := v[0].(string)
		u, uok := v[1].(string)
		if !mok || !uok {
			return Definition{}, &InvalidDefinitionError{Name: name, Reason: "pair elements must be strings"}
		}
		method, rawURL = m, u
	case map[string]any:
		// Explicit object shape decoded from JSON or YAML.
		method, _ = v["method"].(string)
		rawURL, _ = v["url"].(string)
		if method == "" && rawURL == "" {
			return Definition{}, &InvalidDefinitionError{Name: name, Reason: "definition is empty"}
		}
		if method == "" {
			method = "GET"
		}
	case map[string]string:
		method = v["method"]
		rawURL = v["url"]
		if method == "" && rawURL == "" {
			return Definition{}, &InvalidDefinitionError{Name: name, Reason: "definition is empty"}
		}
		if method == "" {
			method = "GET"
		}
	default:
		return Definition{}, &InvalidDefinitionError{
			Name:   name,
			Reason: fmt.Sprintf("unsupported definition type %T", raw),
		}
	}

	if strings.TrimSpace(rawURL) == "" {
		return Definition{}, &InvalidDefinitionError{Name: name, Reason: "url must not be empty"}
	}
	canonical, err := canonicalMethod(method)
	if err != nil {
		return Definition{}, &InvalidDefinitionError{
			Name:   name,
			Reason: fmt.Sprintf("unrecognized method %q", method),
		}
	}
	return Definition{Method: canonical, URL: rawURL}, nil
}

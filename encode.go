package apibind

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// QueryEncoder serializes a payload into query string values. It is the
// pluggable "stringify" collaborator of the binder; the default encoder
// handles maps and url.Values directly and delegates structs to
// go-querystring.
type QueryEncoder interface {
	Encode(v any) (url.Values, error)
}

type formEncoder struct{}

func (formEncoder) Encode(v any) (url.Values, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case url.Values:
		return t, nil
	case map[string]string:
		values := make(url.Values, len(t))
		for k, s := range t {
			values.Set(k, s)
		}
		return values, nil
	case map[string]any:
		values := make(url.Values, len(t))
		for k, raw := range t {
			switch vv := raw.(type) {
			case []string:
				values[k] = append([]string(nil), vv...)
			case []any:
				for _, item := range vv {
					values.Add(k, fmt.Sprint(item))
				}
			default:
				values.Set(k, fmt.Sprint(raw))
			}
		}
		return values, nil
	default:
		values, err := query.Values(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query payload: %w", err)
		}
		return values, nil
	}
}

package apibind

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Headers holds default header layers. Values are either a plain string
// (a header applied to every request) or a map[string]string stored under
// one of the bookkeeping keys: "common" or a lower-case method name. The
// bookkeeping keys are folded into the flat header map at resolve time and
// never reach the transport.
type Headers map[string]any

// headerGroupKeys are the bookkeeping keys stripped from resolved headers.
var headerGroupKeys = map[string]struct{}{
	"common":  {},
	"get":     {},
	"post":    {},
	"put":     {},
	"delete":  {},
	"patch":   {},
	"options": {},
	"head":    {},
}

// RequestConfig carries per-module defaults and per-call overrides.
// A resolved config (the output of ResolveConfig) contains only flat
// string-valued headers.
type RequestConfig struct {
	BaseURL string
	Headers Headers
	Query   url.Values
	Timeout time.Duration
}

func (c *RequestConfig) empty() bool {
	return c == nil ||
		(c.BaseURL == "" && len(c.Headers) == 0 && len(c.Query) == 0 && c.Timeout == 0)
}

// Clone returns a deep copy so resolved configs never alias caller maps.
func (c *RequestConfig) Clone() *RequestConfig {
	if c == nil {
		return nil
	}
	out := &RequestConfig{
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	}
	if c.Headers != nil {
		out.Headers = make(Headers, len(c.Headers))
		for k, v := range c.Headers {
			switch sub := v.(type) {
			case map[string]string:
				subCopy := make(map[string]string, len(sub))
				for sk, sv := range sub {
					subCopy[sk] = sv
				}
				out.Headers[k] = subCopy
			case map[string]any:
				subCopy := make(map[string]any, len(sub))
				for sk, sv := range sub {
					subCopy[sk] = sv
				}
				out.Headers[k] = subCopy
			default:
				out.Headers[k] = v
			}
		}
	}
	if c.Query != nil {
		out.Query = make(url.Values, len(c.Query))
		for k, vs := range c.Query {
			out.Query[k] = append([]string(nil), vs...)
		}
	}
	return out
}

// ResolveConfig merges defaults and override into a flat per-call config.
//
// Merge order, later wins: defaults' flat headers, defaults' "common"
// sub-map, defaults' method sub-map, then the override's layers in the same
// order. The bookkeeping keys never appear in the result. When both inputs
// are empty the resolver short-circuits to an empty config without building
// a header map.
func ResolveConfig(method string, defaults, override *RequestConfig) (*RequestConfig, error) {
	canonical, err := canonicalMethod(method)
	if err != nil {
		return nil, err
	}

	if defaults.empty() && override.empty() {
		return &RequestConfig{}, nil
	}

	resolved := &RequestConfig{}
	if defaults != nil {
		resolved.BaseURL = defaults.BaseURL
		resolved.Timeout = defaults.Timeout
	}
	if override != nil {
		if override.BaseURL != "" {
			resolved.BaseURL = override.BaseURL
		}
		if override.Timeout != 0 {
			resolved.Timeout = override.Timeout
		}
	}

	flat := map[string]string{}
	if defaults != nil {
		foldHeaders(flat, defaults.Headers, canonical)
	}
	if override != nil {
		foldHeaders(flat, override.Headers, canonical)
	}
	if len(flat) > 0 {
		resolved.Headers = make(Headers, len(flat))
		for k, v := range flat {
			resolved.Headers[k] = v
		}
	}

	query := url.Values{}
	if defaults != nil {
		mergeQuery(query, defaults.Query)
	}
	if override != nil {
		mergeQuery(query, override.Query)
	}
	if len(query) > 0 {
		resolved.Query = query
	}

	return resolved, nil
}

// foldHeaders applies one Headers layer onto dst: flat keys first, then the
// "common" sub-map, then the method-specific sub-map.
func foldHeaders(dst map[string]string, h Headers, canonical string) {
	if len(h) == 0 {
		return
	}
	for k, v := range h {
		if _, grouped := headerGroupKeys[strings.ToLower(k)]; grouped {
			continue
		}
		dst[k] = headerValue(v)
	}
	foldGroup(dst, h, "common")
	foldGroup(dst, h, strings.ToLower(canonical))
}

func foldGroup(dst map[string]string, h Headers, key string) {
	raw, ok := h[key]
	if !ok {
		return
	}
	switch sub := raw.(type) {
	case map[string]string:
		for k, v := range sub {
			dst[k] = v
		}
	case map[string]any:
		for k, v := range sub {
			dst[k] = headerValue(v)
		}
	}
}

func headerValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func mergeQuery(dst url.Values, src url.Values) {
	for k, vs := range src {
		dst[k] = append([]string(nil), vs...)
	}
}

// FlatHeaders returns the resolved headers as a plain string map. It is only
// meaningful on configs produced by ResolveConfig.
func (c *RequestConfig) FlatHeaders() map[string]string {
	if c == nil || len(c.Headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(c.Headers))
	for k, v := range c.Headers {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

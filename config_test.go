package apibind

import (
	"errors"
	"net/url"
	"testing"
	"time"
)

func TestResolveConfig_HeaderFolding(t *testing.T) {
	defaults := &RequestConfig{
		Headers: Headers{
			"common": map[string]string{"A": "1"},
			"post":   map[string]string{"B": "2"},
		},
	}
	override := &RequestConfig{
		Headers: Headers{"C": "3"},
	}

	resolved, err := ResolveConfig("post", defaults, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	flat := resolved.FlatHeaders()
	want := map[string]string{"A": "1", "B": "2", "C": "3"}
	if len(flat) != len(want) {
		t.Fatalf("got headers %v, want %v", flat, want)
	}
	for k, v := range want {
		if flat[k] != v {
			t.Errorf("header %s = %q, want %q", k, flat[k], v)
		}
	}
	for _, key := range []string{"common", "post", "get", "put", "delete", "patch", "options", "head"} {
		if _, ok := resolved.Headers[key]; ok {
			t.Errorf("bookkeeping key %q leaked into resolved headers", key)
		}
	}
}

func TestResolveConfig_MethodSubMapOnlyForMatchingMethod(t *testing.T) {
	defaults := &RequestConfig{
		Headers: Headers{
			"common": map[string]string{"X-Common": "yes"},
			"post":   map[string]string{"X-Post": "yes"},
			"get":    map[string]string{"X-Get": "yes"},
		},
	}

	resolved, err := ResolveConfig("GET", defaults, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	flat := resolved.FlatHeaders()
	if flat["X-Common"] != "yes" || flat["X-Get"] != "yes" {
		t.Errorf("missing expected headers: %v", flat)
	}
	if _, ok := flat["X-Post"]; ok {
		t.Error("post sub-map applied to a GET request")
	}
}

func TestResolveConfig_Precedence(t *testing.T) {
	defaults := &RequestConfig{
		Headers: Headers{
			"X-Layer": "flat-default",
			"common":  map[string]string{"X-Layer": "common-default"},
			"get":     map[string]string{"X-Layer": "method-default"},
		},
	}
	override := &RequestConfig{
		Headers: Headers{
			"X-Layer": "flat-override",
			"common":  map[string]string{"X-Layer": "common-override"},
			"get":     map[string]string{"X-Layer": "method-override"},
		},
	}

	resolved, err := ResolveConfig("get", defaults, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resolved.FlatHeaders()["X-Layer"]; got != "method-override" {
		t.Errorf("X-Layer = %q, want method-override (later layers win)", got)
	}
}

func TestResolveConfig_CaseInsensitiveMethod(t *testing.T) {
	defaults := &RequestConfig{Headers: Headers{"get": map[string]string{"X-G": "1"}}}

	lower, err := ResolveConfig("get", defaults, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper, err := ResolveConfig("GET", defaults, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lower.FlatHeaders()["X-G"] != "1" || upper.FlatHeaders()["X-G"] != "1" {
		t.Error("method sub-map resolution should be case-insensitive")
	}
}

func TestResolveConfig_IllegalMethod(t *testing.T) {
	for _, method := range []string{"FETCH", "", "TRACE", "get post"} {
		_, err := ResolveConfig(method, nil, nil)
		if err == nil {
			t.Fatalf("method %q: expected error", method)
		}
		var methodErr *IllegalMethodError
		if !errors.As(err, &methodErr) {
			t.Fatalf("method %q: expected IllegalMethodError, got %T", method, err)
		}
	}
}

func TestResolveConfig_EmptyFastPath(t *testing.T) {
	resolved, err := ResolveConfig("get", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Headers != nil {
		t.Errorf("expected no headers map, got %v", resolved.Headers)
	}
	if resolved.Query != nil {
		t.Errorf("expected no query, got %v", resolved.Query)
	}
}

func TestResolveConfig_DoesNotMutateInputs(t *testing.T) {
	defaults := &RequestConfig{
		Headers: Headers{"common": map[string]string{"A": "1"}},
	}
	override := &RequestConfig{Headers: Headers{"B": "2"}}

	if _, err := ResolveConfig("post", defaults, override); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(defaults.Headers) != 1 {
		t.Errorf("defaults mutated: %v", defaults.Headers)
	}
	if sub, ok := defaults.Headers["common"].(map[string]string); !ok || sub["A"] != "1" {
		t.Errorf("defaults common sub-map mutated: %v", defaults.Headers)
	}
	if len(override.Headers) != 1 || override.Headers["B"] != "2" {
		t.Errorf("override mutated: %v", override.Headers)
	}
}

func TestResolveConfig_BaseURLAndTimeout(t *testing.T) {
	defaults := &RequestConfig{BaseURL: "https://a.example.com", Timeout: time.Second}
	override := &RequestConfig{BaseURL: "https://b.example.com", Timeout: 2 * time.Second}

	resolved, err := ResolveConfig("get", defaults, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.BaseURL != "https://b.example.com" {
		t.Errorf("BaseURL = %q, want override value", resolved.BaseURL)
	}
	if resolved.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want override value", resolved.Timeout)
	}

	resolved, err = ResolveConfig("get", defaults, &RequestConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.BaseURL != "https://a.example.com" || resolved.Timeout != time.Second {
		t.Error("empty override fields should fall back to defaults")
	}
}

func TestResolveConfig_QueryMerge(t *testing.T) {
	defaults := &RequestConfig{Query: url.Values{"page": {"1"}, "per": {"10"}}}
	override := &RequestConfig{Query: url.Values{"page": {"2"}}}

	resolved, err := ResolveConfig("get", defaults, override)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resolved.Query.Get("page"); got != "2" {
		t.Errorf("page = %q, want 2", got)
	}
	if got := resolved.Query.Get("per"); got != "10" {
		t.Errorf("per = %q, want 10", got)
	}
}

func TestRequestConfigClone(t *testing.T) {
	orig := &RequestConfig{
		BaseURL: "https://example.com",
		Headers: Headers{"common": map[string]string{"A": "1"}, "B": "2"},
		Query:   url.Values{"x": {"1"}},
	}
	clone := orig.Clone()

	clone.Headers["B"] = "changed"
	clone.Headers["common"].(map[string]string)["A"] = "changed"
	clone.Query.Set("x", "changed")

	if orig.Headers["B"] != "2" {
		t.Error("clone shares flat header storage with original")
	}
	if orig.Headers["common"].(map[string]string)["A"] != "1" {
		t.Error("clone shares sub-map storage with original")
	}
	if orig.Query.Get("x") != "1" {
		t.Error("clone shares query storage with original")
	}
}

func TestRequestConfigClone_AnySubMap(t *testing.T) {
	// Sub-maps decoded from JSON/YAML arrive as map[string]any; Clone must
	// detach those the same way it detaches map[string]string.
	orig := &RequestConfig{
		Headers: Headers{"common": map[string]any{"A": "1"}},
	}
	clone := orig.Clone()

	clone.Headers["common"].(map[string]any)["A"] = "changed"

	if orig.Headers["common"].(map[string]any)["A"] != "1" {
		t.Error("clone shares any-valued sub-map storage with original")
	}
}

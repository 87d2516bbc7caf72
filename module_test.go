package apibind

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// recordedRequest captures what the test server saw.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
	Header http.Header
}

func newRecordingServer(t *testing.T) (*httptest.Server, *[]recordedRequest, *sync.Mutex) {
	t.Helper()
	var mu sync.Mutex
	var seen []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen = append(seen, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Body:   body,
			Header: r.Header.Clone(),
		})
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	t.Cleanup(server.Close)
	return server, &seen, &mu
}

func testTable() Table {
	return Table{
		"listTags":  "/tags",
		"getTag":    "/tags/:id",
		"createTag": []string{"post", "/tags"},
		"updateTag": []string{"put", "/tags/:id"},
		"deleteTag": []string{"delete", "/tags/:id"},
	}
}

func TestNew_FactoryTimeFailure(t *testing.T) {
	_, err := New(Table{"bad": map[string]any{}})
	if !IsInvalidDefinition(err) {
		t.Fatalf("expected InvalidDefinitionError at factory time, got %v", err)
	}
}

func TestModule_Names(t *testing.T) {
	mod, err := New(testTable())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names := mod.Names()
	want := []string{"createTag", "deleteTag", "getTag", "listTags", "updateTag"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
}

func TestOperation_PathSubstitution(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, err := New(testTable(), WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := mod.MustOperation("getTag").CallWithParams(context.Background(), Params{"id": 7}, nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(*seen) != 1 {
		t.Fatalf("expected 1 request, got %d", len(*seen))
	}
	got := (*seen)[0]
	if got.Method != http.MethodGet || got.Path != "/tags/7" {
		t.Errorf("got %s %s, want GET /tags/7", got.Method, got.Path)
	}
	if got.Query != "" {
		t.Errorf("unexpected query string %q", got.Query)
	}
}

func TestOperation_PathSubstitutionWithQueryPayload(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	_, err := mod.MustOperation("getTag").CallWithParams(context.Background(),
		Params{"id": 7}, map[string]any{"x": 1}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	got := (*seen)[0]
	if got.Path != "/tags/7" || got.Query != "x=1" {
		t.Errorf("got %s?%s, want /tags/7?x=1", got.Path, got.Query)
	}
}

func TestOperation_BodyDispatchForPut(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	_, err := mod.MustOperation("updateTag").CallWithParams(context.Background(),
		Params{"id": 7}, map[string]any{"name": "x"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	got := (*seen)[0]
	if got.Method != http.MethodPut || got.Path != "/tags/7" {
		t.Errorf("got %s %s, want PUT /tags/7", got.Method, got.Path)
	}
	if got.Query != "" {
		t.Errorf("PUT payload leaked into query string: %q", got.Query)
	}
	var body map[string]string
	if err := json.Unmarshal(got.Body, &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body["name"] != "x" {
		t.Errorf("body = %v, want {name: x}", body)
	}
}

func TestOperation_QueryDispatchForDelete(t *testing.T) {
	// Only POST and PUT carry a body; DELETE payloads go to the query string.
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	_, err := mod.MustOperation("deleteTag").CallWithParams(context.Background(),
		Params{"id": 3}, map[string]any{"force": true}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	got := (*seen)[0]
	if got.Method != http.MethodDelete || got.Path != "/tags/3" {
		t.Errorf("got %s %s, want DELETE /tags/3", got.Method, got.Path)
	}
	if got.Query != "force=true" {
		t.Errorf("query = %q, want force=true", got.Query)
	}
	if len(got.Body) != 0 {
		t.Errorf("DELETE should not carry a body, got %q", got.Body)
	}
}

func TestOperation_MissingParamLeavesPlaceholder(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	_, err := mod.MustOperation("getTag").CallWithParams(context.Background(), Params{}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := (*seen)[0].Path; got != "/tags/:id" {
		t.Errorf("path = %q, want literal /tags/:id", got)
	}
}

func TestOperation_HeadersReachTransport(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(),
		WithBaseURL(server.URL),
		WithHeaders(Headers{
			"X-Token": "abc",
			"common":  map[string]string{"X-Common": "1"},
			"post":    map[string]string{"X-Post": "1"},
		}),
	)

	_, err := mod.MustOperation("createTag").Call(context.Background(),
		map[string]any{"title": "t"},
		&RequestConfig{Headers: Headers{"X-Call": "1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	h := (*seen)[0].Header
	for _, key := range []string{"X-Token", "X-Common", "X-Post", "X-Call"} {
		if h.Get(key) == "" {
			t.Errorf("header %s missing from request", key)
		}
	}
	if h.Get("Common") != "" || h.Get("Post") != "" {
		t.Error("bookkeeping keys leaked into HTTP headers")
	}
}

func TestWithHeaders_DetachedFromCallerMap(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	headers := Headers{
		"X-Token": "abc",
		"common":  map[string]string{"X-Common": "1"},
	}
	mod, _ := New(testTable(), WithBaseURL(server.URL), WithHeaders(headers))

	// Mutations after construction must not reach the module.
	headers["X-Token"] = "changed"
	headers["common"].(map[string]string)["X-Common"] = "changed"

	if _, err := mod.MustOperation("listTags").Call(context.Background(), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	h := (*seen)[0].Header
	if h.Get("X-Token") != "abc" {
		t.Errorf("X-Token = %q, want value from construction time", h.Get("X-Token"))
	}
	if h.Get("X-Common") != "1" {
		t.Errorf("X-Common = %q, want value from construction time", h.Get("X-Common"))
	}
}

func TestOperation_IndependentCalls(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	override := &RequestConfig{Headers: Headers{"X-N": "1"}}
	op := mod.MustOperation("listTags")
	if _, err := op.Call(context.Background(), nil, override); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := op.Call(context.Background(), nil, override); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Neither call may have mutated the shared override.
	if len(override.Headers) != 1 || override.Headers["X-N"] != "1" {
		t.Errorf("override mutated across calls: %v", override.Headers)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(*seen) != 2 {
		t.Fatalf("expected 2 independent requests, got %d", len(*seen))
	}
}

func TestOperation_StartReturnsPendingImmediately(t *testing.T) {
	server, _, _ := newRecordingServer(t)
	mod, _ := New(testTable(), WithBaseURL(server.URL))

	a := mod.MustOperation("listTags").Start(context.Background(), nil, nil)
	b := mod.MustOperation("getTag").StartWithParams(context.Background(), Params{"id": 1}, nil, nil)

	for _, p := range []*Pending{a, b} {
		resp, err := p.Wait(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var out map[string]bool
		if err := resp.JSON(&out); err != nil || !out["ok"] {
			t.Errorf("unexpected response: %s (%v)", resp.Body, err)
		}
	}
}

func TestPending_WaitRespectsContext(t *testing.T) {
	blocked := make(chan struct{})
	p := start(func() (*Response, error) {
		<-blocked
		return &Response{StatusCode: 200}, nil
	})
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); err == nil {
		t.Fatal("expected context error from cancelled Wait")
	}
}

func TestModule_BaseQueryAppliedToEveryCall(t *testing.T) {
	server, seen, mu := newRecordingServer(t)
	mod, _ := New(testTable(), WithConfig(RequestConfig{
		BaseURL: server.URL,
		Query:   map[string][]string{"api_key": {"k"}},
	}))

	if _, err := mod.MustOperation("listTags").Call(context.Background(), map[string]any{"x": "1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	q := (*seen)[0].Query
	if q != "api_key=k&x=1" && q != "x=1&api_key=k" {
		t.Errorf("query = %q, want api_key and x merged", q)
	}
}

func TestMustOperation_PanicsOnUnknown(t *testing.T) {
	mod := MustNew(testTable())
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown operation")
		}
	}()
	mod.MustOperation("nope")
}

func TestSubstitutePath(t *testing.T) {
	tests := []struct {
		template string
		params   Params
		want     string
	}{
		{"/tags/:id", Params{"id": 7}, "/tags/7"},
		{"/a/:x/b/:y", Params{"x": "1", "y": "2"}, "/a/1/b/2"},
		{"/a/:x/b/:x", Params{"x": "1"}, "/a/1/b/1"},
		{"/tags/:id", Params{}, "/tags/:id"},
		{"/tags/:id/sub", Params{"id": "raw/slash"}, "/tags/raw/slash/sub"}, // values are inserted verbatim, no escaping
		{"/plain", Params{"id": 7}, "/plain"},
	}
	for _, tt := range tests {
		if got := substitutePath(tt.template, tt.params); got != tt.want {
			t.Errorf("substitutePath(%q, %v) = %q, want %q", tt.template, tt.params, got, tt.want)
		}
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"https://x.example.com", "/tags", "https://x.example.com/tags"},
		{"https://x.example.com/", "/tags", "https://x.example.com/tags"},
		{"https://x.example.com/v1", "tags", "https://x.example.com/v1/tags"},
		{"", "/tags", "/tags"},
	}
	for _, tt := range tests {
		if got := joinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("joinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

package apibind

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

// Module exposes one bound Operation per definition table entry. It holds
// only configuration; each call builds its own request config, so a single
// Module is safe for concurrent use and is commonly a process-wide
// singleton per logical API group.
type Module struct {
	defs      map[string]Definition
	ops       map[string]*Operation
	defaults  *RequestConfig
	transport Transport
	encoder   QueryEncoder
}

// Option configures a Module at construction time.
type Option func(*Module)

// WithBaseURL sets the base URL prepended to every operation's URL template.
func WithBaseURL(base string) Option {
	return func(m *Module) { m.defaults.BaseURL = base }
}

// WithHeaders sets the module-level default headers. The map may contain
// flat string values plus "common" and per-method sub-maps. The map is
// copied; later caller mutations do not reach the module.
func WithHeaders(h Headers) Option {
	return func(m *Module) {
		m.defaults.Headers = (&RequestConfig{Headers: h}).Clone().Headers
	}
}

// WithConfig replaces the module-level default config wholesale.
func WithConfig(cfg RequestConfig) Option {
	return func(m *Module) { m.defaults = cfg.Clone() }
}

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(m *Module) { m.transport = t }
}

// WithQueryEncoder replaces the default query string encoder.
func WithQueryEncoder(e QueryEncoder) Option {
	return func(m *Module) { m.encoder = e }
}

// New builds a Module from a definition table. The table is normalized and
// validated eagerly: any malformed entry fails here with
// *InvalidDefinitionError, before a single operation is bound.
func New(table Table, opts ...Option) (*Module, error) {
	defs, err := NormalizeTable(table)
	if err != nil {
		return nil, err
	}

	m := &Module{
		defs:     defs,
		defaults: &RequestConfig{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.transport == nil {
		m.transport = NewHTTPTransport()
	}
	if m.encoder == nil {
		m.encoder = formEncoder{}
	}

	m.ops = make(map[string]*Operation, len(defs))
	for name, def := range defs {
		// Placeholder detection happens once here, not per call.
		m.ops[name] = &Operation{
			name:      name,
			def:       def,
			hasParams: pathParamPattern.MatchString(def.URL),
			module:    m,
		}
	}
	return m, nil
}

// MustNew is New but panics on a malformed table. Intended for static
// tables initialized at package scope.
func MustNew(table Table, opts ...Option) *Module {
	m, err := New(table, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Operation returns the bound operation for name.
func (m *Module) Operation(name string) (*Operation, bool) {
	op, ok := m.ops[name]
	return op, ok
}

// MustOperation returns the bound operation for name, panicking if the
// table has no such entry.
func (m *Module) MustOperation(name string) *Operation {
	op, ok := m.ops[name]
	if !ok {
		panic(fmt.Sprintf("apibind: unknown operation %q", name))
	}
	return op
}

// Names returns all operation names in sorted order.
func (m *Module) Names() []string {
	names := make([]string, 0, len(m.ops))
	for name := range m.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Definition returns the canonical definition for name.
func (m *Module) Definition(name string) (Definition, bool) {
	def, ok := m.defs[name]
	return def, ok
}

// Params supplies values for :name path placeholders. Values are
// stringified verbatim; no escaping or encoding is performed.
type Params map[string]any

// Operation is one bound, callable API operation.
type Operation struct {
	name      string
	def       Definition
	hasParams bool
	module    *Module
}

// Name returns the operation's table key.
func (op *Operation) Name() string { return op.name }

// Method returns the canonical HTTP method.
func (op *Operation) Method() string { return op.def.Method }

// URLTemplate returns the raw URL template, placeholders included.
func (op *Operation) URLTemplate() string { return op.def.URL }

// HasParams reports whether the URL template contains path placeholders.
func (op *Operation) HasParams() bool { return op.hasParams }

// Call invokes the operation without path parameters. For POST and PUT the
// payload becomes the JSON request body; for every other method it is
// serialized as a query string and appended to the URL. If the template
// contains placeholders they are left unsubstituted and the failure
// surfaces from the transport.
func (op *Operation) Call(ctx context.Context, payload any, override *RequestConfig) (*Response, error) {
	return op.invoke(ctx, nil, payload, override)
}

// CallWithParams substitutes every :name placeholder in the URL template
// with params[name] before dispatching. A missing key leaves its
// placeholder token in place; the malformed URL then fails at the server
// rather than here.
func (op *Operation) CallWithParams(ctx context.Context, params Params, payload any, override *RequestConfig) (*Response, error) {
	return op.invoke(ctx, params, payload, override)
}

// Start issues Call on a new goroutine and returns the pending result
// immediately.
func (op *Operation) Start(ctx context.Context, payload any, override *RequestConfig) *Pending {
	return start(func() (*Response, error) {
		return op.Call(ctx, payload, override)
	})
}

// StartWithParams issues CallWithParams on a new goroutine and returns the
// pending result immediately.
func (op *Operation) StartWithParams(ctx context.Context, params Params, payload any, override *RequestConfig) *Pending {
	return start(func() (*Response, error) {
		return op.CallWithParams(ctx, params, payload, override)
	})
}

func (op *Operation) invoke(ctx context.Context, params Params, payload any, override *RequestConfig) (*Response, error) {
	cfg, err := ResolveConfig(op.def.Method, op.module.defaults, override)
	if err != nil {
		return nil, err
	}

	path := op.def.URL
	if params != nil {
		path = substitutePath(path, params)
	}
	reqURL := joinURL(cfg.BaseURL, path)

	var body any
	queryValues := cfg.Query
	if payload != nil {
		if op.def.Method == http.MethodPost || op.def.Method == http.MethodPut {
			body = payload
		} else {
			encoded, err := op.module.encoder.Encode(payload)
			if err != nil {
				return nil, err
			}
			queryValues = mergedValues(queryValues, encoded)
		}
	}
	if len(queryValues) > 0 {
		reqURL = appendQuery(reqURL, queryValues.Encode())
	}

	req := &Request{
		Method:  op.def.Method,
		URL:     reqURL,
		Headers: cfg.FlatHeaders(),
		Body:    body,
		Timeout: cfg.Timeout,
	}
	// Transport result passes through unchanged: no retry, no
	// transformation, no logging at this layer.
	return op.module.transport.Do(ctx, req)
}

// pathParamPattern matches :name placeholder tokens in URL templates.
var pathParamPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// substitutePath replaces each :name token with params[name], stringified
// verbatim. Tokens without a matching key are left as-is.
func substitutePath(template string, params Params) string {
	return pathParamPattern.ReplaceAllStringFunc(template, func(token string) string {
		value, ok := params[token[1:]]
		if !ok {
			return token
		}
		return fmt.Sprint(value)
	})
}

func joinURL(base, path string) string {
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

func appendQuery(rawURL, encoded string) string {
	if encoded == "" {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + encoded
}

func mergedValues(base, extra url.Values) url.Values {
	if len(base) == 0 {
		return extra
	}
	merged := make(url.Values, len(base)+len(extra))
	for k, vs := range base {
		merged[k] = append([]string(nil), vs...)
	}
	for k, vs := range extra {
		merged[k] = append([]string(nil), vs...)
	}
	return merged
}

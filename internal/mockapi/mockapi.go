// Package mockapi serves mock API responses from JSON-with-comments fixture
// files, so frontend work can start before the real endpoints exist. The
// interface definition and its sample data live together in one annotated
// fixture file.
//
// A fixtures directory contains:
//
//	routes.json     - maps "METHOD /path/:param" to fixture keys
//	mock_data.json  - keyed mock responses (JSONC), searched first
//	mock.json       - optional fallback fixture file
//
// Responses use the {code, message, data} envelope.
package mockapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Fixture file names searched in order.
var fixtureFiles = []string{"mock_data.json", "mock.json"}

const routesFile = "routes.json"

// Envelope is the response wrapper for every mock endpoint.
type Envelope struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type route struct {
	method   string
	segments []string // ":name" segments match any single path segment
	key      string
}

// Server matches requests against the route table and replies with fixture
// data.
type Server struct {
	routes   []route
	fixtures map[string]any
}

// Load reads the route table and fixture files from dir.
func Load(dir string) (*Server, error) {
	routesPath := filepath.Join(dir, routesFile)
	data, err := os.ReadFile(routesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", routesFile, err)
	}
	var table map[string]string
	if err := unmarshalJSONC(data, &table); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", routesFile, err)
	}

	fixtures := map[string]any{}
	found := false
	for _, name := range fixtureFiles {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var keyed map[string]any
		if err := unmarshalJSONC(raw, &keyed); err != nil {
			return nil, fmt.Errorf("invalid fixture file %s: %w", name, err)
		}
		found = true
		// Earlier files win; mock_data.json shadows mock.json.
		for k, v := range keyed {
			if _, ok := fixtures[k]; !ok {
				fixtures[k] = v
			}
		}
	}
	if !found {
		return nil, fmt.Errorf("no fixture file found in %s (want one of %v)", dir, fixtureFiles)
	}

	return New(table, fixtures)
}

// New builds a server from an in-memory route table and fixture map.
func New(table map[string]string, fixtures map[string]any) (*Server, error) {
	s := &Server{fixtures: fixtures}
	for pattern, key := range table {
		method, path, ok := strings.Cut(strings.TrimSpace(pattern), " ")
		if !ok {
			return nil, fmt.Errorf("route %q must be \"METHOD /path\"", pattern)
		}
		method = strings.ToUpper(method)
		path = strings.TrimSpace(path)
		if !strings.HasPrefix(path, "/") {
			return nil, fmt.Errorf("route %q path must start with /", pattern)
		}
		s.routes = append(s.routes, route{
			method:   method,
			segments: splitPath(path),
			key:      key,
		})
	}
	// Longer patterns match first; at equal length, literal segments
	// outrank placeholders so "/tags/all" is never shadowed by
	// "/tags/:id". The trailing comparisons keep the order stable across
	// map iteration.
	sort.Slice(s.routes, func(i, j int) bool {
		a, b := s.routes[i], s.routes[j]
		if len(a.segments) != len(b.segments) {
			return len(a.segments) > len(b.segments)
		}
		for k := range a.segments {
			aParam := strings.HasPrefix(a.segments[k], ":")
			bParam := strings.HasPrefix(b.segments[k], ":")
			if aParam != bParam {
				return bParam
			}
		}
		if a.method != b.method {
			return a.method < b.method
		}
		return strings.Join(a.segments, "/") < strings.Join(b.segments, "/")
	})
	return s, nil
}

// Keys returns the fixture keys the server can answer with, sorted.
func (s *Server) Keys() []string {
	keys := make([]string, 0, len(s.fixtures))
	for k := range s.fixtures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Handler returns the HTTP handler, with the websocket echo endpoint
// mounted at /ws/echo.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/echo", s.handleEcho)
	mux.HandleFunc("/", s.handleMock)
	return mux
}

func (s *Server) handleMock(w http.ResponseWriter, r *http.Request) {
	key, params, ok := s.match(r.Method, r.URL.Path)
	if !ok {
		writeEnvelope(w, http.StatusNotFound, Envelope{
			Code:    "error",
			Message: fmt.Sprintf("no mock route for %s %s", r.Method, r.URL.Path),
		})
		return
	}

	data, ok := s.fixtures[key]
	if !ok {
		writeEnvelope(w, http.StatusNotImplemented, Envelope{
			Code:    "error",
			Message: fmt.Sprintf("mock key %q not found in fixtures", key),
		})
		return
	}

	slog.Debug("mock hit", "method", r.Method, "path", r.URL.Path, "key", key, "params", params)
	writeEnvelope(w, http.StatusOK, Envelope{Code: "ok", Data: data})
}

// match finds the fixture key for method+path and returns captured
// placeholder values.
func (s *Server) match(method, path string) (string, map[string]string, bool) {
	segments := splitPath(path)
	for _, rt := range s.routes {
		if rt.method != strings.ToUpper(method) {
			continue
		}
		if len(rt.segments) != len(segments) {
			continue
		}
		params := map[string]string{}
		matched := true
		for i, want := range rt.segments {
			if strings.HasPrefix(want, ":") {
				params[want[1:]] = segments[i]
				continue
			}
			if want != segments[i] {
				matched = false
				break
			}
		}
		if matched {
			return rt.key, params, true
		}
	}
	return "", nil, false
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func writeEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

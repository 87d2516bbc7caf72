// Package defsfile loads API definition tables from files. YAML and
// JSON-with-comments documents are supported; entries may use any of the
// shapes the binder accepts (bare URL string, [method, url] pair, explicit
// {method, url} object).
package defsfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/apibind/apibind"
	"github.com/apibind/apibind/internal/jsonc"
)

// File is a parsed definitions file. BaseURL and Headers are optional
// module-level defaults carried next to the table.
type File struct {
	BaseURL    string         `json:"base_url" yaml:"base_url"`
	Headers    map[string]any `json:"headers" yaml:"headers"`
	Operations map[string]any `json:"operations" yaml:"operations"`
}

// Load reads and parses path, dispatching on extension: .yaml/.yml are
// YAML, everything else is treated as JSON-with-comments. The table is
// normalized here so a malformed file fails at load time.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data using the format implied by ext.
func Parse(data []byte, ext string) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid YAML definitions: %w", err)
		}
	default:
		if err := jsonc.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid JSON definitions: %w", err)
		}
	}

	if len(f.Operations) == 0 {
		return nil, fmt.Errorf("definitions file has no operations")
	}
	if _, err := apibind.NormalizeTable(apibind.Table(f.Operations)); err != nil {
		return nil, err
	}
	return &f, nil
}

// Table returns the operations as a binder table.
func (f *File) Table() apibind.Table {
	return apibind.Table(f.Operations)
}

// ModuleHeaders converts the file's headers to the binder's Headers type,
// preserving "common" and per-method sub-maps.
func (f *File) ModuleHeaders() apibind.Headers {
	if len(f.Headers) == 0 {
		return nil
	}
	out := make(apibind.Headers, len(f.Headers))
	for k, v := range f.Headers {
		switch sub := v.(type) {
		case map[string]any:
			m := make(map[string]string, len(sub))
			for sk, sv := range sub {
				m[sk] = fmt.Sprint(sv)
			}
			out[k] = m
		default:
			out[k] = fmt.Sprint(v)
		}
	}
	return out
}

// Module builds a ready-to-call module from the file plus optional extra
// options (extra options win over file-level defaults).
func (f *File) Module(opts ...apibind.Option) (*apibind.Module, error) {
	base := []apibind.Option{}
	if f.BaseURL != "" {
		base = append(base, apibind.WithBaseURL(f.BaseURL))
	}
	if h := f.ModuleHeaders(); h != nil {
		base = append(base, apibind.WithHeaders(h))
	}
	return apibind.New(f.Table(), append(base, opts...)...)
}

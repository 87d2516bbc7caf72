// Package jsonc decodes JSON-with-comments documents: standard JSON plus
// C-style // and /* */ comments and trailing commas in objects and arrays.
// Mock fixture files use this dialect so API docs and sample data can live
// in one annotated file.
package jsonc

import (
	"encoding/json"
	"fmt"
)

// Strip removes comments and trailing commas, returning strict JSON.
// String literals are respected: comment markers and commas inside quoted
// strings are left untouched. Comment bytes are replaced in a way that
// preserves offsets of the remaining JSON as much as possible (newlines in
// block comments are kept so decode errors still point near the right line).
func Strip(src []byte) []byte {
	out := make([]byte, 0, len(src))
	i := 0
	n := len(src)

	for i < n {
		c := src[i]
		switch {
		case c == '"':
			// Copy the whole string literal, honoring escapes.
			out = append(out, c)
			i++
			for i < n {
				out = append(out, src[i])
				if src[i] == '\\' && i+1 < n {
					out = append(out, src[i+1])
					i += 2
					continue
				}
				if src[i] == '"' {
					i++
					break
				}
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i < n {
				if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					i += 2
					break
				}
				if src[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
		case c == ',':
			// Drop the comma if the next significant byte closes a
			// container.
			j := i + 1
			for j < n {
				switch src[j] {
				case ' ', '\t', '\r', '\n':
					j++
					continue
				}
				if src[j] == '/' && j+1 < n && (src[j+1] == '/' || src[j+1] == '*') {
					j = skipComment(src, j)
					continue
				}
				break
			}
			if j < n && (src[j] == '}' || src[j] == ']') {
				i++
				continue
			}
			out = append(out, c)
			i++
		default:
			out = append(out, c)
			i++
		}
	}
	return out
}

func skipComment(src []byte, i int) int {
	n := len(src)
	if src[i+1] == '/' {
		for i < n && src[i] != '\n' {
			i++
		}
		return i
	}
	i += 2
	for i < n {
		if src[i] == '*' && i+1 < n && src[i+1] == '/' {
			return i + 2
		}
		i++
	}
	return i
}

// Unmarshal strips comments and trailing commas from src and decodes the
// result into v.
func Unmarshal(src []byte, v any) error {
	if err := json.Unmarshal(Strip(src), v); err != nil {
		return fmt.Errorf("jsonc decode failed: %w", err)
	}
	return nil
}

// Package attrs parses widget definition files and attribute values.
package attrs

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/autoindex"
)

// Definition is a parsed widget definition file.
type Definition struct {
	Name       string
	Location   string
	Heading    string
	Attributes autoindex.Attributes
}

// ParseDepth reads a depth attribute the way integer attributes are read
// from markup: leading whitespace, an optional sign, then decimal digits up to
// the first non-digit. Missing digits, zero, and negative values all fall back
// to autoindex.DefaultDepth.
func ParseDepth(s string) int {
	s = strings.TrimLeft(s, " \t\r\n")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 || neg {
		return autoindex.DefaultDepth
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 1 {
		return autoindex.DefaultDepth
	}
	return n
}

// NameFor returns the widget name of a definition file: its slash-separated
// path relative to the definitions root, without extension.
func NameFor(rel string) string {
	rel = strings.ReplaceAll(rel, "\\", "/")
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// LocationFor returns the ambient page path of a definition file, used when
// the definition has no path of its own: docs/guide.yaml → /docs/guide.
func LocationFor(rel string) string {
	return "/" + NameFor(rel)
}

// Parse decodes a YAML widget definition. Recognised keys are path, depth
// (integer or string) and heading; unknown keys are ignored. A missing depth
// leaves Attributes.Depth at zero so callers can apply their own default.
func Parse(rel string, data []byte) (*Definition, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("attrs: %s: %w: %w", rel, apperr.ErrInvalidInput, err)
	}

	def := &Definition{
		Name:     NameFor(rel),
		Location: LocationFor(rel),
	}
	if v, ok := raw["path"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("attrs: %s: path must be a string: %w", rel, apperr.ErrInvalidInput)
		}
		def.Attributes.Path = s
	}
	if v, ok := raw["depth"]; ok && v != nil {
		def.Attributes.Depth = ParseDepth(fmt.Sprint(v))
	}
	if v, ok := raw["heading"]; ok && v != nil {
		def.Heading = strings.TrimSpace(fmt.Sprint(v))
	}
	return def, nil
}

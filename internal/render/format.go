// Package render turns composed index groups into HTML, text, or JSON and
// provides the sinks widgets render into.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/autoindex"
)

// DefaultHeading is the title shown above every index.
const DefaultHeading = "Index"

// Format is an output encoding.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat parses a format name; empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatText, "txt":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("render: unknown format %q: %w", s, apperr.ErrInvalidInput)
}

// ContentType returns the HTTP content type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	default:
		return "text/html; charset=utf-8"
	}
}

type jsonDocument struct {
	Heading string                           `json:"heading"`
	Index   autoindex.Maybe[autoindex.Group] `json:"index"`
}

// Encode renders g under heading in format f.
func Encode(f Format, heading string, g autoindex.Maybe[autoindex.Group]) ([]byte, error) {
	if heading == "" {
		heading = DefaultHeading
	}
	switch f {
	case FormatText:
		return []byte(Text(heading, g)), nil
	case FormatJSON:
		return json.MarshalIndent(jsonDocument{Heading: heading, Index: g}, "", "  ")
	default:
		return HTML(heading, g)
	}
}

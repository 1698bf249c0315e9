package render

import (
	"strings"

	"github.com/starford/autoindex/internal/autoindex"
)

// Text renders the index as indented plain text.
func Text(heading string, g autoindex.Maybe[autoindex.Group]) string {
	var sb strings.Builder
	sb.WriteString(heading)
	sb.WriteByte('\n')
	if v, ok := g.Get(); ok {
		writeText(&sb, v)
	}
	return sb.String()
}

func writeText(sb *strings.Builder, g autoindex.Group) {
	for _, b := range g.Blocks {
		pad := strings.Repeat("  ", b.Indent)
		switch b.Kind {
		case autoindex.KindRow:
			sb.WriteString(pad + b.Title + " (" + b.Href + ")\n")
		case autoindex.KindDescription:
			sb.WriteString(pad + "» " + b.Text + "\n")
		case autoindex.KindGroup:
			if b.Group != nil {
				writeText(sb, *b.Group)
			}
		case autoindex.KindSeparator:
			sb.WriteString("---\n")
		}
	}
}

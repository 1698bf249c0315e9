package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"

	"github.com/starford/autoindex/internal/autoindex"
)

const fragmentHTML = `<h1 style="margin: 0;">{{.Heading}}</h1>
{{- with .Group}}
{{template "group" .}}
{{- end}}
{{- define "group"}}<div>
{{- range .Blocks}}
{{- if eq .Kind "row"}}
<p style="{{rowStyle .}}"><a href="{{.Href}}">{{.Title}}</a></p>
{{- else if eq .Kind "description"}}
<sup style="{{descStyle .}}">{{.Text}}</sup>
{{- else if eq .Kind "group"}}
{{template "group" .Group}}
{{- else if eq .Kind "separator"}}
<hr>
{{- end}}
{{- end}}
</div>{{end}}`

var fragmentTmpl = template.Must(template.New("fragment").Funcs(template.FuncMap{
	"rowStyle":  rowStyle,
	"descStyle": descStyle,
}).Parse(fragmentHTML))

func rem(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "rem"
}

func rowStyle(b autoindex.Block) template.CSS {
	indent := "text-indent: " + rem(float64(b.Indent))
	if b.FontScale == 0 {
		return template.CSS(indent)
	}
	return template.CSS("font-size: " + rem(b.FontScale) + "; " + indent)
}

func descStyle(b autoindex.Block) template.CSS {
	return template.CSS("text-indent: " + rem(float64(b.Indent)) + "; display: inline-block")
}

// HTML renders the index as an HTML fragment: a heading followed by nested
// divs of linked paragraphs, superscript descriptions, and rules between
// top-level entries. An absent group renders the heading only.
func HTML(heading string, g autoindex.Maybe[autoindex.Group]) ([]byte, error) {
	data := struct {
		Heading string
		Group   *autoindex.Group
	}{Heading: heading}
	if v, ok := g.Get(); ok {
		data.Group = &v
	}

	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render: html: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

package attrs

import (
	"errors"
	"testing"

	"github.com/starford/autoindex/internal/apperr"
)

func TestParseDepth(t *testing.T) {
	cases := map[string]int{
		"":      1,
		"2":     2,
		"  3":   3,
		"4px":   4,
		"+5":    5,
		"0":     1,
		"-2":    1,
		"abc":   1,
		"2.9":   2,
		"12abc": 12,
	}
	for in, want := range cases {
		if got := ParseDepth(in); got != want {
			t.Errorf("ParseDepth(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParse(t *testing.T) {
	def, err := Parse("docs/guide.yaml", []byte("path: /en/docs\ndepth: 3\nheading: Contents\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Name != "docs/guide" || def.Location != "/docs/guide" {
		t.Errorf("name/location = %q %q", def.Name, def.Location)
	}
	if def.Attributes.Path != "/en/docs" || def.Attributes.Depth != 3 {
		t.Errorf("attributes = %+v", def.Attributes)
	}
	if def.Heading != "Contents" {
		t.Errorf("heading = %q", def.Heading)
	}
}

func TestParse_StringDepthAndDefaults(t *testing.T) {
	def, err := Parse("a.yml", []byte("depth: \"2 levels\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if def.Attributes.Depth != 2 || def.Attributes.Path != "" || def.Heading != "" {
		t.Errorf("def = %+v", def)
	}

	def, err = Parse("b.yaml", []byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if def.Attributes.Depth != 0 {
		t.Errorf("unset depth = %d, want 0", def.Attributes.Depth)
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, data := range []string{"path: [unclosed", "path:\n  - a\n  - b\n"} {
		if _, err := Parse("bad.yaml", []byte(data)); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("Parse(%q) err = %v, want ErrInvalidInput", data, err)
		}
	}
}

func TestNameFor(t *testing.T) {
	cases := map[string]string{
		"docs.yaml":         "docs",
		"team/handbook.yml": "team/handbook",
		"plain":             "plain",
	}
	for in, want := range cases {
		if got := NameFor(in); got != want {
			t.Errorf("NameFor(%q) = %q, want %q", in, got, want)
		}
	}
}

package autoindex

import (
	"context"
	"math"

	"github.com/starford/autoindex/internal/models"
)

// BlockKind identifies a block inside a composed Group.
type BlockKind string

const (
	KindRow         BlockKind = "row"
	KindDescription BlockKind = "description"
	KindGroup       BlockKind = "group"
	KindSeparator   BlockKind = "separator"
)

// Block is one visual unit of the composed index.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Title string    `json:"title,omitempty"`
	Href  string    `json:"href,omitempty"`
	Text  string    `json:"text,omitempty"`
	// Indent is the nesting level in rem units.
	Indent int `json:"indent"`
	// FontScale is the font size in rem; 0 means the default size.
	FontScale float64 `json:"font_scale,omitempty"`
	Group     *Group  `json:"group,omitempty"`
}

// Group is an ordered container of blocks. A composed Group is never empty.
type Group struct {
	Blocks []Block `json:"blocks"`
}

// Rows counts the row blocks in g and every nested group.
func (g Group) Rows() int {
	n := 0
	for _, b := range g.Blocks {
		switch b.Kind {
		case KindRow:
			n++
		case KindGroup:
			if b.Group != nil {
				n += b.Group.Rows()
			}
		}
	}
	return n
}

// FontScale returns the row font size for level: 1.4rem at the root, shrinking
// by 0.1rem per level down to 1rem. Rounded to hundredths.
func FontScale(level int) float64 {
	return math.Round(math.Max(1, 1.4-float64(level)/10)*100) / 100
}

// Composer turns a fetched tree into a Group, decorating branch nodes with
// their page description.
type Composer struct {
	src      Source
	maxDepth int
}

// NewComposer returns a Composer for trees fetched with maxDepth.
func NewComposer(src Source, maxDepth int) *Composer {
	return &Composer{src: src, maxDepth: maxDepth}
}

// Compose lays out nodes at level. It returns None when nothing would be
// shown, so empty branches leave no trace in their parent.
func (c *Composer) Compose(ctx context.Context, nodes []models.TreeNode, level int) (Maybe[Group], error) {
	var g Group
	for _, n := range nodes {
		row := Block{
			Kind:   KindRow,
			Title:  n.Title,
			Href:   "/" + n.Path,
			Indent: level,
		}
		if level != c.maxDepth {
			row.FontScale = FontScale(level)
		}
		g.Blocks = append(g.Blocks, row)

		if level != c.maxDepth && n.HasPage() && len(n.Children) > 0 {
			detail, err := FetchDetail(ctx, c.src, n.PageID)
			if err != nil {
				return None[Group](), err
			}
			if detail != nil {
				g.Blocks = append(g.Blocks, Block{
					Kind:   KindDescription,
					Text:   detail.Description,
					Indent: level,
				})
			}
		}

		if n.Expanded {
			sub, err := c.Compose(ctx, n.Children, level+1)
			if err != nil {
				return None[Group](), err
			}
			if child, ok := sub.Get(); ok {
				g.Blocks = append(g.Blocks, Block{Kind: KindGroup, Indent: level + 1, Group: &child})
			}
		}

		if level == 0 {
			g.Blocks = append(g.Blocks, Block{Kind: KindSeparator})
		}
	}
	if len(g.Blocks) == 0 {
		return None[Group](), nil
	}
	return Some(g), nil
}

// Package models defines the content-tree types shared by the autoindex pipeline.
package models

// Tree traversal modes understood by the content-tree API.
const (
	ModeAll     = "ALL"
	ModeFolders = "FOLDERS"
	ModePages   = "PAGES"
)

// PageRef is the minimal identity used when resolving a path to a page.
type PageRef struct {
	ID   int    `json:"id"`
	Path string `json:"path"`
}

// TreeNode is one entry of the content tree.
//
// Children is only meaningful when Expanded is true: an expanded node with no
// children has an empty list, an unexpanded node was never fetched.
type TreeNode struct {
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Path     string     `json:"path"`
	PageID   *int       `json:"pageId"`
	Children []TreeNode `json:"children,omitempty"`
	Expanded bool       `json:"-"`
}

// HasPage reports whether the node carries a non-zero page id.
func (n TreeNode) HasPage() bool {
	return n.PageID != nil && *n.PageID != 0
}

// PageDetail is the per-page record used to decorate branch nodes.
type PageDetail struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
}

// TreeQuery parameterizes a single content-tree request.
type TreeQuery struct {
	Parent *int
	Path   string
	Mode   string
	Locale string
}

// TreeByPath returns a whole-site query filtered by path.
func TreeByPath(path string) TreeQuery {
	return TreeQuery{Path: path, Mode: ModeAll}
}

// TreeByParent returns a query for the descendants of parent.
func TreeByParent(parent int) TreeQuery {
	return TreeQuery{Parent: &parent, Mode: ModeAll}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

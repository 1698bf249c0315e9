package autoindex

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/models"
	"github.com/starford/autoindex/internal/testutil"
)

func kinds(g Group) []BlockKind {
	var out []BlockKind
	for _, b := range g.Blocks {
		out = append(out, b.Kind)
	}
	return out
}

func composeFetched(t *testing.T, src *testutil.FakeSource, root, depth int) Maybe[Group] {
	t.Helper()
	tree, err := FetchTree(context.Background(), src, root, 0, depth)
	if err != nil {
		t.Fatalf("FetchTree: %v", err)
	}
	out, err := NewComposer(src, depth).Compose(context.Background(), tree, 0)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return out
}

func TestFontScale(t *testing.T) {
	cases := map[int]float64{0: 1.4, 1: 1.3, 2: 1.2, 4: 1, 9: 1}
	for level, want := range cases {
		if got := FontScale(level); got < want-1e-9 || got > want+1e-9 {
			t.Errorf("FontScale(%d) = %v, want %v", level, got, want)
		}
	}
}

func TestCompose_SingleLevelScenario(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(5,
			testutil.Node(10, "Intro", "docs/intro", 100),
			testutil.Node(11, "Guide", "docs/guide", 0),
		).
		Detail(models.PageDetail{ID: 100, Description: "never shown"})

	out := composeFetched(t, src, 5, 1)
	g, ok := out.Get()
	if !ok {
		t.Fatal("expected a composed group")
	}
	want := []BlockKind{KindRow, KindSeparator, KindRow, KindSeparator}
	if got := kinds(g); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if g.Blocks[0].Title != "Intro" || g.Blocks[0].Href != "/docs/intro" {
		t.Errorf("first row = %+v", g.Blocks[0])
	}
	if g.Blocks[2].Title != "Guide" {
		t.Errorf("second row = %+v", g.Blocks[2])
	}
	if g.Blocks[0].FontScale != 1.4 || g.Blocks[0].Indent != 0 {
		t.Errorf("root row style = %+v", g.Blocks[0])
	}
	for _, c := range src.Calls() {
		if c == "single:100" {
			t.Error("detail fetched for a node with no children")
		}
	}
	if g.Rows() != 2 {
		t.Errorf("rows = %d, want 2", g.Rows())
	}
}

func TestCompose_EmptyChildrenSkipsDetail(t *testing.T) {
	src := testutil.NewFakeSource().
		Detail(models.PageDetail{ID: 7, Description: "seven"})
	nodes := []models.TreeNode{{ID: 1, Title: "t", Path: "t", PageID: models.IntPtr(7), Children: []models.TreeNode{}, Expanded: true}}

	out, err := NewComposer(src, 2).Compose(context.Background(), nodes, 0)
	if err != nil {
		t.Fatal(err)
	}
	g, _ := out.Get()
	if got := kinds(g); !reflect.DeepEqual(got, []BlockKind{KindRow, KindSeparator}) {
		t.Errorf("kinds = %v", got)
	}
	if len(src.Calls()) != 0 {
		t.Errorf("calls = %v, want none", src.Calls())
	}
}

func TestCompose_BranchGetsDescription(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(5, testutil.Node(10, "Guide", "docs/guide", 100)).
		Children(10, testutil.Node(20, "Install", "docs/guide/install", 200)).
		Detail(models.PageDetail{ID: 100, Description: "How to use it"}).
		Detail(models.PageDetail{ID: 200, Description: "leaf, never shown"})

	out := composeFetched(t, src, 5, 2)
	g, ok := out.Get()
	if !ok {
		t.Fatal("expected group")
	}
	want := []BlockKind{KindRow, KindDescription, KindGroup, KindSeparator}
	if got := kinds(g); !reflect.DeepEqual(got, want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	if d := g.Blocks[1]; d.Text != "How to use it" || d.Indent != 0 {
		t.Errorf("description = %+v", d)
	}
	child := g.Blocks[2].Group
	if child == nil || len(child.Blocks) != 1 {
		t.Fatalf("child group = %+v", child)
	}
	if r := child.Blocks[0]; r.Title != "Install" || r.Indent != 1 || r.FontScale != 1.3 {
		t.Errorf("child row = %+v", r)
	}

	want2 := []string{"parent:5", "parent:10", "parent:20", "single:100"}
	if got := src.Calls(); !reflect.DeepEqual(got, want2) {
		t.Errorf("calls = %v, want %v", got, want2)
	}
}

func TestCompose_DeepestLevelIsUnscaledAndUndecorated(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(1, testutil.Node(2, "a", "a", 20)).
		Children(2, testutil.Node(3, "b", "a/b", 30)).
		Detail(models.PageDetail{ID: 20, Description: "a"}).
		Detail(models.PageDetail{ID: 30, Description: "b"})

	out := composeFetched(t, src, 1, 1)
	g, _ := out.Get()
	child := g.Blocks[2].Group
	if child == nil {
		t.Fatalf("blocks = %+v", g.Blocks)
	}
	if r := child.Blocks[0]; r.FontScale != 0 || r.Indent != 1 {
		t.Errorf("deepest row = %+v, want default font size", r)
	}
	if len(child.Blocks) != 1 {
		t.Errorf("deepest level should hold only its row: %+v", child.Blocks)
	}
	for _, c := range src.Calls() {
		if c == "single:30" {
			t.Error("detail fetched at max depth")
		}
	}
}

func TestCompose_AbsentDetailSkipped(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(1, testutil.Node(2, "a", "a", 99)).
		Children(2, testutil.Node(3, "b", "a/b", 0))

	out := composeFetched(t, src, 1, 1)
	g, _ := out.Get()
	if got := kinds(g); !reflect.DeepEqual(got, []BlockKind{KindRow, KindGroup, KindSeparator}) {
		t.Errorf("kinds = %v", got)
	}
}

func TestCompose_DetailFailureAborts(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(1, testutil.Node(2, "a", "a", 99)).
		Children(2, testutil.Node(3, "b", "a/b", 0))
	src.Fail["single:99"] = errors.New("timeout")

	tree, err := FetchTree(context.Background(), src, 1, 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	out, err := NewComposer(src, 1).Compose(context.Background(), tree, 0)
	if !errors.Is(err, apperr.ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	if out.IsSome() {
		t.Error("partial output returned on failure")
	}
}

func TestCompose_EmptyInputIsNone(t *testing.T) {
	src := testutil.NewFakeSource()
	for _, nodes := range [][]models.TreeNode{nil, {}} {
		out, err := NewComposer(src, 1).Compose(context.Background(), nodes, 0)
		if err != nil {
			t.Fatal(err)
		}
		if out.IsSome() {
			t.Error("empty input should compose to None")
		}
	}
}

func TestCompose_EmptyBranchLeavesNoTrace(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(1, testutil.Node(2, "a", "a", 0))

	out := composeFetched(t, src, 1, 3)
	g, _ := out.Get()
	if got := kinds(g); !reflect.DeepEqual(got, []BlockKind{KindRow, KindSeparator}) {
		t.Errorf("kinds = %v", got)
	}
}

func TestCompose_PreservesOrderAcrossLevels(t *testing.T) {
	src := testutil.NewFakeSource().
		Children(1, testutil.Node(3, "c", "c", 0), testutil.Node(2, "b", "b", 0)).
		Children(3, testutil.Node(9, "c2", "c/2", 0), testutil.Node(8, "c1", "c/1", 0))

	out := composeFetched(t, src, 1, 1)
	g, _ := out.Get()

	var titles []string
	var walk func(Group)
	walk = func(g Group) {
		for _, b := range g.Blocks {
			switch b.Kind {
			case KindRow:
				titles = append(titles, b.Title)
			case KindGroup:
				walk(*b.Group)
			}
		}
	}
	walk(g)
	if want := []string{"c", "c2", "c1", "b"}; !reflect.DeepEqual(titles, want) {
		t.Errorf("titles = %v, want %v", titles, want)
	}
}

func TestMaybe_JSON(t *testing.T) {
	none, _ := json.Marshal(None[Group]())
	if string(none) != "null" {
		t.Errorf("None = %s", none)
	}
	some, _ := json.Marshal(Some(Group{Blocks: []Block{{Kind: KindSeparator}}}))
	if string(some) != `{"blocks":[{"kind":"separator","indent":0}]}` {
		t.Errorf("Some = %s", some)
	}
}

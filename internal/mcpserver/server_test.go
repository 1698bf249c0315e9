package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/autoindex/internal/indexservice"
	"github.com/starford/autoindex/internal/testutil"
	"github.com/starford/autoindex/internal/widgets"
)

func testServer(t *testing.T) (*Server, *testutil.FakeSource) {
	t.Helper()
	src := testutil.NewFakeSource().
		Page(5, "docs").
		Children(5,
			testutil.Node(10, "Intro", "docs/intro", 100),
			testutil.Node(11, "Guide", "docs/guide", 0),
		)
	db := testutil.TestLog(t)
	svc := indexservice.NewService(src,
		indexservice.WithRenderLog(db),
		indexservice.WithRecorder(widgets.NewRecorder(db, nil, nil)),
	)
	return New(svc, "test"), src
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no call-tool test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "render_index":
		result, err = srv.renderIndex(ctx, req)
	case "lookup_page":
		result, err = srv.lookupPage(ctx, req)
	case "list_renders":
		result, err = srv.listRenders(ctx, req)
	case "get_index_format":
		result, err = srv.getIndexFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestRenderIndex_TextByDefault(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "render_index", map[string]any{"path": "/en/docs"})
	want := "Index\nIntro (/docs/intro)\n---\nGuide (/docs/guide)\n---\n"
	if got := resultText(r); got != want {
		t.Errorf("text =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderIndex_HTML(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "render_index", map[string]any{"path": "docs", "format": "html", "depth": "2"})
	if r.IsError || !strings.Contains(resultText(r), `<a href="/docs/guide">Guide</a>`) {
		t.Errorf("result = %q", resultText(r))
	}
}

func TestRenderIndex_NumericDepth(t *testing.T) {
	for _, depth := range []any{float64(2), "2"} {
		srv, src := testServer(t)
		src.Children(10, testutil.Node(20, "Setup", "docs/intro/setup", 0))

		r := callTool(t, srv, "render_index", map[string]any{"path": "docs", "depth": depth})
		if r.IsError {
			t.Fatalf("depth %v: %s", depth, resultText(r))
		}
		if !strings.Contains(resultText(r), "  Setup (/docs/intro/setup)") {
			t.Errorf("depth %v: text = %q", depth, resultText(r))
		}
		found := false
		for _, c := range src.Calls() {
			if c == "parent:20" {
				found = true
			}
		}
		if !found {
			t.Errorf("depth %v: calls = %v, want the third level fetched", depth, src.Calls())
		}
	}
}

func TestRenderIndex_Errors(t *testing.T) {
	srv, src := testServer(t)

	r := callTool(t, srv, "render_index", map[string]any{})
	if !r.IsError {
		t.Error("missing path should be an error")
	}

	r = callTool(t, srv, "render_index", map[string]any{"path": "/nowhere"})
	if !r.IsError || !strings.Contains(resultText(r), "page not found: /nowhere") {
		t.Errorf("not found = %q", resultText(r))
	}

	src.Fail["parent:5"] = errors.New("timeout")
	r = callTool(t, srv, "render_index", map[string]any{"path": "docs"})
	if !r.IsError || !strings.HasPrefix(resultText(r), "content tree unavailable") {
		t.Errorf("transport = %q", resultText(r))
	}
}

func TestLookupPage(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "lookup_page", map[string]any{"path": "/fr/docs"})
	var ref struct {
		ID   int    `json:"id"`
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &ref); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if ref.ID != 5 || ref.Path != "docs" {
		t.Errorf("ref = %+v", ref)
	}
}

func TestListRenders(t *testing.T) {
	srv, _ := testServer(t)
	_ = callTool(t, srv, "render_index", map[string]any{"path": "docs"})

	r := callTool(t, srv, "list_renders", map[string]any{"widget": indexservice.AdHocWidget, "limit": float64(5)})
	var out struct {
		Total   int `json:"total"`
		Renders []struct {
			Status string `json:"status"`
		} `json:"renders"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || out.Renders[0].Status != "ok" {
		t.Errorf("renders = %+v", out)
	}

	r = callTool(t, srv, "list_renders", map[string]any{"limit": float64(0)})
	if !r.IsError {
		t.Error("limit 0 should be rejected")
	}
}

func TestGetIndexFormat(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_index_format", nil)
	if !strings.HasPrefix(resultText(r), "# Index Output Format") {
		t.Errorf("format = %q", resultText(r))
	}

	contents, err := srv.readIndexFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != formatURI {
		t.Errorf("resource = %+v", contents[0])
	}
}

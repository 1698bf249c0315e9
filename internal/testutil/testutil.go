// Package testutil provides shared test helpers: a scripted content-tree
// source, temporary storage roots, and render log databases.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/starford/autoindex/internal/apperr"
	"github.com/starford/autoindex/internal/models"
	"github.com/starford/autoindex/internal/renderlog"
	"github.com/starford/autoindex/internal/storage"
)

// FakeSource is an in-memory content tree that records every request.
type FakeSource struct {
	mu sync.Mutex

	// ByPath maps a path filter to the entries returned for it.
	ByPath map[string][]models.TreeNode
	// ByParent maps a parent id to its direct children.
	ByParent map[int][]models.TreeNode
	// Details maps a page id to its detail record.
	Details map[int]models.PageDetail
	// Fail maps a request key ("path:docs", "parent:5", "single:7") to an error.
	Fail map[string]error

	// Entered, if set, receives a value on every Tree call before Gate is awaited.
	Entered chan struct{}
	// Gate, if set, blocks Tree calls until a value is received.
	Gate chan struct{}

	calls []string
}

// NewFakeSource returns an empty FakeSource.
func NewFakeSource() *FakeSource {
	return &FakeSource{
		ByPath:   map[string][]models.TreeNode{},
		ByParent: map[int][]models.TreeNode{},
		Details:  map[int]models.PageDetail{},
		Fail:     map[string]error{},
	}
}

// Page registers a page at path with tree id id and returns it for chaining.
func (f *FakeSource) Page(id int, path string) *FakeSource {
	f.ByPath[path] = append(f.ByPath[path], models.TreeNode{ID: id, Path: path})
	return f
}

// Children registers the children of parent.
func (f *FakeSource) Children(parent int, nodes ...models.TreeNode) *FakeSource {
	f.ByParent[parent] = append(f.ByParent[parent], nodes...)
	return f
}

// Detail registers a detail record.
func (f *FakeSource) Detail(d models.PageDetail) *FakeSource {
	f.Details[d.ID] = d
	return f
}

// Calls returns the recorded request keys in order.
func (f *FakeSource) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *FakeSource) record(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.Fail[key]; ok {
		return fmt.Errorf("fake %s: %w: %w", key, apperr.ErrTransport, err)
	}
	return nil
}

// Tree implements autoindex.Source.
func (f *FakeSource) Tree(ctx context.Context, q models.TreeQuery) ([]models.TreeNode, error) {
	if f.Entered != nil {
		f.Entered <- struct{}{}
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var key string
	var nodes []models.TreeNode
	if q.Parent != nil {
		key = fmt.Sprintf("parent:%d", *q.Parent)
		nodes = f.ByParent[*q.Parent]
	} else {
		key = "path:" + q.Path
		nodes = f.ByPath[q.Path]
	}
	if err := f.record(key); err != nil {
		return nil, err
	}
	// Callers attach children in place, so hand out a copy.
	return append([]models.TreeNode(nil), nodes...), nil
}

// Single implements autoindex.Source.
func (f *FakeSource) Single(_ context.Context, id int) (*models.PageDetail, error) {
	if err := f.record(fmt.Sprintf("single:%d", id)); err != nil {
		return nil, err
	}
	d, ok := f.Details[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// Node builds a tree node; pageID 0 means no page.
func Node(id int, title, path string, pageID int) models.TreeNode {
	n := models.TreeNode{ID: id, Title: title, Path: path}
	if pageID != 0 {
		n.PageID = models.IntPtr(pageID)
	}
	return n
}

// TestLog creates a temporary render log database that is automatically cleaned up.
func TestLog(t *testing.T) *renderlog.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "autoindex-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := renderlog.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestDir creates a temporary directory with a storage.FS limited to exts.
func TestDir(t *testing.T, exts ...string) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir, exts...)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

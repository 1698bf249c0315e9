package render

import (
	"context"
	"sync"

	"github.com/starford/autoindex/internal/autoindex"
)

// Buffer is an in-memory sink holding the last attached index.
type Buffer struct {
	mu       sync.Mutex
	attached bool
	out      autoindex.Maybe[autoindex.Group]
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Clear implements autoindex.Sink.
func (b *Buffer) Clear(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = false
	b.out = autoindex.None[autoindex.Group]()
	return nil
}

// Attach implements autoindex.Sink.
func (b *Buffer) Attach(_ context.Context, g autoindex.Maybe[autoindex.Group]) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attached = true
	b.out = g
	return nil
}

// Output returns the attached index and whether a render completed since the last Clear.
func (b *Buffer) Output() (autoindex.Maybe[autoindex.Group], bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.out, b.attached
}

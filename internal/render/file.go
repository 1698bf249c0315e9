package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/starford/autoindex/internal/autoindex"
	"github.com/starford/autoindex/internal/storage"
)

// FileSink writes each render as an HTML fragment file.
type FileSink struct {
	store storage.Provider
	path  string

	mu      sync.Mutex
	heading string
}

// NewFileSink returns a sink writing to path inside store.
func NewFileSink(store storage.Provider, path, heading string) *FileSink {
	if heading == "" {
		heading = DefaultHeading
	}
	return &FileSink{store: store, path: path, heading: heading}
}

// Path returns the snapshot path relative to the store root.
func (s *FileSink) Path() string {
	return s.path
}

// Heading returns the current heading.
func (s *FileSink) Heading() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heading
}

// SetHeading changes the heading used by subsequent writes.
func (s *FileSink) SetHeading(heading string) {
	if heading == "" {
		heading = DefaultHeading
	}
	s.mu.Lock()
	s.heading = heading
	s.mu.Unlock()
}

// Clear writes the heading-only fragment.
func (s *FileSink) Clear(ctx context.Context) error {
	return s.Attach(ctx, autoindex.None[autoindex.Group]())
}

// Attach writes the fragment for g.
func (s *FileSink) Attach(_ context.Context, g autoindex.Maybe[autoindex.Group]) error {
	data, err := HTML(s.Heading(), g)
	if err != nil {
		return err
	}
	if err := s.store.Write(s.path, data); err != nil {
		return fmt.Errorf("render: write %s: %w", s.path, err)
	}
	return nil
}

// Remove deletes the snapshot file. A missing file is not an error.
func (s *FileSink) Remove() error {
	if err := s.store.Delete(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

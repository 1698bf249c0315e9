// Package apperr holds the sentinel errors shared across autoindex packages.
package apperr

import "errors"

var (
	// ErrNotFound reports an unresolvable page path, widget, or render entry.
	ErrNotFound = errors.New("not found")
	// ErrTransport wraps every failure of the content-tree API.
	ErrTransport = errors.New("transport failure")
	// ErrRecursionAborted marks a transport failure below the root level of a tree fetch.
	ErrRecursionAborted = errors.New("recursion aborted")
	ErrInvalidInput     = errors.New("invalid input")
)

package renderlog

// Log defines the render log operations.
// Consumers should depend on this interface rather than the concrete *DB type.
type Log interface {
	Record(e Entry) (Entry, error)
	List(widget string, limit, offset int) ([]Entry, int, error)
	Last(widget string) (*Entry, error)
	Prune(keep int) (int64, error)
	Close() error
}

// Verify *DB satisfies Log at compile time.
var _ Log = (*DB)(nil)

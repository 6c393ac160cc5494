package content

import "errors"

// Standard content store errors.
//
// All Store implementations report these sentinel values for the common
// failure conditions, wrapped with context:
//
//	return fmt.Errorf("read %s: %w", id, content.ErrNotFound)
//
// Callers check with errors.Is; the tree engine maps them onto its own typed
// error codes at the boundary.
var (
	// ErrNotFound indicates the requested content object does not exist.
	//
	// Returned when Read or Open(ModeRead) is given an identifier that names
	// no committed object.
	ErrNotFound = errors.New("content not found")

	// ErrStreamMode indicates an operation incompatible with the stream's
	// direction: writing to a read stream, or committing one.
	ErrStreamMode = errors.New("operation not permitted by stream mode")

	// ErrStreamCommitted indicates a write stream was already sealed by a
	// Commit and cannot be written or committed again.
	ErrStreamCommitted = errors.New("stream already committed")

	// ErrInvalidID indicates a content identifier is malformed for the
	// backend, for example one that would escape a filesystem store's root
	// directory.
	ErrInvalidID = errors.New("invalid content ID")
)

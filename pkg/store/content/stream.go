package content

import (
	"sync"
)

// Stream is an in-flight read or write of content.
//
// A write stream accumulates staged bytes in memory until a Store commits it;
// a read stream carries the payload of a committed object. Streams exist
// independently of the filesystem tree: allocating and filling one does
// nothing to the namespace until it is injected by a create operation.
//
// Lifecycle: created → written (write mode) or read (read mode) → optionally
// committed and linked to a node → discarded.
//
// Thread Safety:
// A mutex guards the staging buffer and the committed flag, so a stream may
// be handed between goroutines. A single stream still represents one logical
// upload; interleaving concurrent Write calls gives no useful ordering.
type Stream struct {
	mu        sync.Mutex
	mode      Mode
	id        ID
	buf       []byte
	committed bool
}

// Empty is the designated empty stream sentinel: a committed read stream
// with no payload. Legacy read paths return it on permission denial so
// callers can treat "no access" and "empty file" uniformly.
var Empty = &Stream{mode: ModeRead, committed: true}

// NewWriteStream allocates a staging stream for a future Commit.
// estimatedLength pre-sizes the buffer; initial seeds it.
func NewWriteStream(estimatedLength int, initial []byte) *Stream {
	capacity := estimatedLength
	if capacity < len(initial) {
		capacity = len(initial)
	}

	buf := make([]byte, 0, capacity)
	buf = append(buf, initial...)

	return &Stream{mode: ModeWrite, buf: buf}
}

// NewReadStream wraps the payload of a committed object.
// The payload must not be mutated by the caller afterwards.
func NewReadStream(id ID, payload []byte) *Stream {
	return &Stream{mode: ModeRead, id: id, buf: payload, committed: true}
}

// Mode reports the stream's direction.
func (s *Stream) Mode() Mode {
	return s.mode
}

// ObjectID returns the committed object the stream is bound to. Zero for
// write streams that have not been committed yet.
func (s *Stream) ObjectID() ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Committed reports whether the stream has been sealed by a Commit.
func (s *Stream) Committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Len returns the current payload length in bytes.
func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.buf)
}

// Write appends staged bytes. It fails with ErrStreamMode on read streams
// and ErrStreamCommitted after a Commit. Implements io.Writer.
func (s *Stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeWrite {
		return 0, ErrStreamMode
	}
	if s.committed {
		return 0, ErrStreamCommitted
	}

	s.buf = append(s.buf, p...)
	return len(p), nil
}

// Bytes returns a copy of the payload, so callers cannot alias the staging
// buffer or a committed object's bytes.
func (s *Stream) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Seal marks a write stream committed under id and returns its staged
// payload. It is invoked by Store implementations inside Commit; after Seal
// the stream rejects further writes, so the returned slice is stable and may
// be stored without copying. Len and Bytes keep reporting the sealed payload.
func (s *Stream) Seal(id ID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeWrite {
		return nil, ErrStreamMode
	}
	if s.committed {
		return nil, ErrStreamCommitted
	}

	s.committed = true
	s.id = id

	return s.buf, nil
}

package content

import (
	"errors"
	"testing"
)

func TestWriteStreamAccumulates(t *testing.T) {
	stream := NewWriteStream(16, nil)

	for _, chunk := range []string{"alpha ", "beta ", "gamma"} {
		n, err := stream.Write([]byte(chunk))
		if err != nil {
			t.Fatalf("Write(%q) failed: %v", chunk, err)
		}
		if n != len(chunk) {
			t.Fatalf("Write(%q) = %d, want %d", chunk, n, len(chunk))
		}
	}

	if got := string(stream.Bytes()); got != "alpha beta gamma" {
		t.Errorf("Bytes() = %q", got)
	}
	if stream.Len() != 16 {
		t.Errorf("Len() = %d, want 16", stream.Len())
	}
	if stream.Committed() {
		t.Error("fresh write stream reports committed")
	}
}

func TestWriteStreamSeeded(t *testing.T) {
	stream := NewWriteStream(4, []byte("head-"))

	if _, err := stream.Write([]byte("tail")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if got := string(stream.Bytes()); got != "head-tail" {
		t.Errorf("Bytes() = %q", got)
	}
}

func TestReadStreamRejectsWrites(t *testing.T) {
	stream := NewReadStream(NewID(), []byte("payload"))

	if _, err := stream.Write([]byte("nope")); !errors.Is(err, ErrStreamMode) {
		t.Errorf("Write on read stream = %v, want ErrStreamMode", err)
	}
	if _, err := stream.Seal(NewID()); !errors.Is(err, ErrStreamMode) {
		t.Errorf("Seal on read stream = %v, want ErrStreamMode", err)
	}
}

func TestSealLifecycle(t *testing.T) {
	stream := NewWriteStream(0, nil)
	if _, err := stream.Write([]byte("content")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	id := NewID()
	payload, err := stream.Seal(id)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if string(payload) != "content" {
		t.Errorf("sealed payload = %q", payload)
	}
	if !stream.Committed() {
		t.Error("sealed stream not committed")
	}
	if stream.ObjectID() != id {
		t.Errorf("ObjectID() = %q, want %q", stream.ObjectID(), id)
	}

	if _, err := stream.Write([]byte("late")); !errors.Is(err, ErrStreamCommitted) {
		t.Errorf("Write after Seal = %v, want ErrStreamCommitted", err)
	}
	if _, err := stream.Seal(NewID()); !errors.Is(err, ErrStreamCommitted) {
		t.Errorf("second Seal = %v, want ErrStreamCommitted", err)
	}
}

func TestBytesReturnsCopy(t *testing.T) {
	stream := NewWriteStream(0, []byte("immutable"))

	out := stream.Bytes()
	out[0] = 'X'

	if got := string(stream.Bytes()); got != "immutable" {
		t.Errorf("staging buffer mutated through Bytes copy: %q", got)
	}
}

func TestEmptySentinel(t *testing.T) {
	if Empty.Mode() != ModeRead {
		t.Error("Empty must be a read stream")
	}
	if !Empty.Committed() {
		t.Error("Empty must report committed")
	}
	if Empty.Len() != 0 {
		t.Errorf("Empty.Len() = %d", Empty.Len())
	}
	if len(Empty.Bytes()) != 0 {
		t.Error("Empty must have no payload")
	}
	if Empty.ObjectID() != "" {
		t.Error("Empty must not name an object")
	}
}

package record

import "fmt"

// Triple is a per-user permission entry on a node.
//
// The three flags are independent. Read gates visibility of the node itself,
// Write gates mutation of the node itself, and Propagate extends the holder's
// write grant downward: a user may only mutate a child when they hold Write
// on the child and Propagate on its parent.
type Triple struct {
	Read      bool `json:"read"`
	Write     bool `json:"write"`
	Propagate bool `json:"propagate"`
}

// String renders the triple in the compact three-character form used in
// listings and configuration, e.g. "rwx", "r--", "-wx".
func (t Triple) String() string {
	buf := []byte{'-', '-', '-'}
	if t.Read {
		buf[0] = 'r'
	}
	if t.Write {
		buf[1] = 'w'
	}
	if t.Propagate {
		buf[2] = 'x'
	}
	return string(buf)
}

// ParseTriple parses the compact three-character form produced by
// Triple.String. Each position accepts its own letter or '-'.
func ParseTriple(s string) (Triple, error) {
	if len(s) != 3 {
		return Triple{}, fmt.Errorf("permission triple must be 3 characters, got %q", s)
	}

	var t Triple
	switch s[0] {
	case 'r':
		t.Read = true
	case '-':
	default:
		return Triple{}, fmt.Errorf("invalid read flag %q in triple %q", s[0], s)
	}
	switch s[1] {
	case 'w':
		t.Write = true
	case '-':
	default:
		return Triple{}, fmt.Errorf("invalid write flag %q in triple %q", s[1], s)
	}
	switch s[2] {
	case 'x':
		t.Propagate = true
	case '-':
	default:
		return Triple{}, fmt.Errorf("invalid propagate flag %q in triple %q", s[2], s)
	}
	return t, nil
}

// PermissionSet maps user handles to their permission triples on a node.
// A nil set behaves like an empty one for lookups.
type PermissionSet map[string]Triple

// Clone returns an independent copy of the set. Cloning a nil set yields nil.
func (p PermissionSet) Clone() PermissionSet {
	if p == nil {
		return nil
	}
	clone := make(PermissionSet, len(p))
	for handle, triple := range p {
		clone[handle] = triple
	}
	return clone
}

// Get returns the triple recorded for handle. The zero triple (no access)
// is returned when the handle has no entry.
func (p PermissionSet) Get(handle string) Triple {
	return p[handle]
}

package mawtypes

import (
	"crypto/sha1" //nolint:gosec // matches the content-addressed store's own hash, not used for security
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// ObjId identifies an immutable object in the content-addressed store: a
// blob, a tree, or a commit. Which one it names is context-dependent — the
// capability layer (pkg/objectstore) is the only place that cares.
type ObjId struct {
	hex string
}

// objIdLen is the length of a SHA-1 hex digest, the object id format of
// the underlying content-addressed store.
const objIdLen = 40

// ZeroOID is the sentinel used by ref CAS edits to mean "this ref must not
// currently exist".
var ZeroOID = ObjId{hex: strings.Repeat("0", objIdLen)}

// ParseObjId validates and constructs an ObjId from a 40-character
// lowercase hex string.
func ParseObjId(s string) (ObjId, error) {
	if len(s) != objIdLen {
		return ObjId{}, fmt.Errorf("invalid object id %q: want %d hex chars, got %d", s, objIdLen, len(s))
	}
	for _, r := range s {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			return ObjId{}, fmt.Errorf("invalid object id %q: not lowercase hex", s)
		}
	}
	return ObjId{hex: s}, nil
}

// MustObjId is ParseObjId for call sites that already know the string is
// well-formed (e.g. a constant in a test). It panics on invalid input.
func MustObjId(s string) ObjId {
	id, err := ParseObjId(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether this is the sentinel "ref does not exist" id.
func (o ObjId) IsZero() bool {
	return o.hex == ZeroOID.hex || o.hex == ""
}

// String returns the 40-character hex representation.
func (o ObjId) String() string {
	return o.hex
}

// Less provides the deterministic lexicographic tie-break spec.md uses for
// "max epoch" and for sorting conflict sides/destinations.
func (o ObjId) Less(other ObjId) bool {
	return o.hex < other.hex
}

func (o ObjId) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.hex + `"`), nil
}

func (o *ObjId) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*o = ObjId{}
		return nil
	}
	id, err := ParseObjId(s)
	if err != nil {
		return err
	}
	*o = id
	return nil
}

// EpochId names a mainline snapshot commit. It is an ObjId used in a
// specific role; the two are interchangeable at the API layer, so EpochId
// is a true alias rather than a wrapper type.
type EpochId = ObjId

// HashBytes computes the object id the content-addressed store would
// assign to loose content of the given kind using the same hashing scheme
// operations use for their own canonical-serialization identity (§4.3):
// SHA-1 over "<kind> <len>\0<data>", matching the git object model the
// capability layer delegates to.
//
// This is exposed for components (the op log writer, the patch-set diff)
// that need to predict or verify an id without a round-trip through the
// store.
func HashBytes(kind string, data []byte) ObjId {
	h := sha1.New() //nolint:gosec
	fmt.Fprintf(h, "%s %d\x00", kind, len(data))
	h.Write(data)
	sum := h.Sum(nil)
	return ObjId{hex: hex.EncodeToString(sum)}
}

// sha256Trunc16 returns the first 16 bytes of SHA-256(s), used by the
// priority-3 FileId allocation rule (new files without a path mapping).
func sha256Trunc16(s string) [16]byte {
	sum := sha256.Sum256([]byte(s))
	var out [16]byte
	copy(out[:], sum[:16])
	return out
}

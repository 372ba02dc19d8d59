// Package identifier derives and parses entity identifiers of the form
// "{shard}-{entity_type}-{digest}", where digest is the 16 hex digit xxhash64 of
// the entity's slug.
//
// The same slug always hashes to the same digest; only the shard is random.
// Ledgers key on Identifier.Key, which leaves the shard out, so allocating a
// slug twice is rejected whichever shard was drawn.
package identifier

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// ErrInvalidIdentifierFormat is returned by Parse for strings that are not
// canonical identifiers.
var ErrInvalidIdentifierFormat = errors.New("invalid identifier format")

var identifierPattern = regexp.MustCompile(`^(\d+)-(\d+)-([0-9A-Fa-f]{16})$`)

// Identifier names an entity. The zero value is not a valid identifier.
type Identifier struct {
	Shard      uint32
	EntityType int64
	Digest     [8]byte
}

// New assembles an identifier from its parts.
func New(shard uint32, entityType int64, digest [8]byte) Identifier {
	return Identifier{Shard: shard, EntityType: entityType, Digest: digest}
}

// Parse validates s in full and returns the identifier it names.
func Parse(s string) (Identifier, error) {
	m := identifierPattern.FindStringSubmatch(s)
	if m == nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifierFormat, s)
	}
	shard, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: shard out of range in %q", ErrInvalidIdentifierFormat, s)
	}
	entityType, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: entity type out of range in %q", ErrInvalidIdentifierFormat, s)
	}
	var digest [8]byte
	if _, err := hex.Decode(digest[:], []byte(m[3])); err != nil {
		return Identifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifierFormat, s)
	}
	return New(uint32(shard), entityType, digest), nil
}

// MustParse is Parse that panics on error. Intended for tests and constants.
func MustParse(s string) Identifier {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Digest returns the 8-byte xxhash64 digest of slug, big-endian.
func Digest(slug string) [8]byte {
	var digest [8]byte
	binary.BigEndian.PutUint64(digest[:], xxhash.Sum64String(slug))
	return digest
}

// DigestHex returns the digest as 16 lower-case hex digits.
func (id Identifier) DigestHex() string {
	return hex.EncodeToString(id.Digest[:])
}

// String returns the canonical form. Digests are always rendered lower-case.
func (id Identifier) String() string {
	return fmt.Sprintf("%d-%d-%s", id.Shard, id.EntityType, id.DigestHex())
}

// Key identifies the slug and entity type independent of shard.
func (id Identifier) Key() string {
	return fmt.Sprintf("%d-%s", id.EntityType, id.DigestHex())
}

// IsZero reports whether id is the zero value.
func (id Identifier) IsZero() bool {
	return id == Identifier{}
}

// MarshalText implements encoding.TextMarshaler.
func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identifier) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Package datatype provides the versioned, mergeable typed values that make up
// quire entities.
//
// # Overview
//
// Every attribute of an entity is held by a Value of one fixed Kind. The set of
// kinds is closed:
//
//	BOOLEAN, INTEGER, NUMERIC, DATETIME, MIME_TYPE, URL, EMAIL, FILE_SIZE,
//	TRANSLATION, LOCALIZED_STRING
//
// Values are validated and coerced on every write, carry an explicit version
// counter, and merge deterministically so that independent replicas editing the
// same entity converge on reconciliation.
//
// # Merge Rule
//
// Merge is a last-writer-wins register keyed by the version counter:
//
//   - other.Version() < self.Version(): no-op, the incoming value is stale
//   - other.Version() > self.Version(): adopt other's value and version, even a null
//   - equal versions: adopt other's value only if it orders greater than self's
//
// The value-ordering tie-break (null < any value) makes the outcome independent
// of the order in which a pair of values is merged.
//
// LocalizedString has no version. It merges each language's Translation
// independently, adopting languages it has not seen.
//
// # Encoding
//
// ToMap/FromMap convert to and from the structural form
//
//	{"type": "MIME_TYPE", "val": "image/png", "ver": 10}
//	{"type": "TRANSLATION", "val": "Dog", "ver": 3, "lang": "en"}
//
// A Registry maps each "type" discriminator to a constructor and is the
// dispatch table for decoding.
//
// # Concurrency
//
// Values are not safe for concurrent mutation. Hosts must serialise writes to a
// given value. Registry is safe for concurrent use.
package datatype

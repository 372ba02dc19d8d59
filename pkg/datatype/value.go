package datatype

// Kind is the stable discriminator of a typed value variant. It is the "type"
// field of the encoded form and the key of a Registry.
type Kind string

const (
	KindBoolean         Kind = "BOOLEAN"
	KindInteger         Kind = "INTEGER"
	KindNumeric         Kind = "NUMERIC"
	KindDateTime        Kind = "DATETIME"
	KindMimeType        Kind = "MIME_TYPE"
	KindURL             Kind = "URL"
	KindEmail           Kind = "EMAIL"
	KindFileSize        Kind = "FILE_SIZE"
	KindTranslation     Kind = "TRANSLATION"
	KindLocalizedString Kind = "LOCALIZED_STRING"
)

// Kinds lists the built-in discriminators in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindBoolean, KindInteger, KindNumeric, KindDateTime, KindMimeType,
		KindURL, KindEmail, KindFileSize, KindTranslation, KindLocalizedString,
	}
}

// LanguageBearing reports whether values of kind are scoped to a language.
func (k Kind) LanguageBearing() bool {
	return k == KindTranslation || k == KindLocalizedString
}

// Value is a versioned, validated, mergeable value of one fixed kind.
//
// The set of implementations is closed: Boolean, Integer, Numeric, DateTime,
// MimeType, URL, Email, FileSize, Translation and LocalizedString.
// A Value is never partially invalid: Set and FromMap either succeed or leave
// the receiver untouched.
type Value interface {
	Kind() Kind

	// Set validates and coerces input. A nil input sets the value to null.
	Set(input any, opts WriteOptions) error
	// Get returns the raw value (nil when null).
	Get(opts ReadOptions) (any, error)
	IsNull(opts ReadOptions) (bool, error)
	// IsValid reports whether Set(input, opts) would succeed.
	IsValid(input any, opts WriteOptions) bool

	// Languages returns the languages this value carries meaning for.
	// Language-neutral variants return []Lang{AnyLanguage}.
	Languages() []Lang

	Version() int
	SetVersion(v int) error

	CanMergeWith(other Value) bool
	Equal(other Value) (bool, error)
	GreaterThan(other Value) (bool, error)
	// Merge folds other into the receiver using the versioned
	// last-writer-wins rule; see mergeRegister.
	Merge(other Value) error

	// ToMap returns the structural encoding {type, val, ver?, lang?}.
	ToMap() map[string]any
	// FromMap decodes the structural encoding, revalidating the value as Set would.
	FromMap(m map[string]any) error

	Clone() Value
	String() string

	sealed()
}

package datatype

import (
	"errors"
	"fmt"
)

// Sentinel errors for typed value misuse. All of them are recoverable domain
// errors; check with errors.Is.
var (
	// ErrInvalidValue indicates an input failed variant-specific validation or coercion
	ErrInvalidValue = errors.New("invalid value")

	// ErrMissingOption indicates a required option (usually the language) was not supplied
	ErrMissingOption = errors.New("missing option")

	// ErrWildcardLanguage indicates AnyLanguage was used where a concrete language is required
	ErrWildcardLanguage = errors.New("wildcard language not allowed")

	// ErrInvalidVersion indicates a negative version number
	ErrInvalidVersion = errors.New("invalid version")

	// ErrVersionNotApplicable indicates the variant carries no top-level version
	ErrVersionNotApplicable = errors.New("version not applicable")

	// ErrLanguageImmutable indicates an attempt to re-assign a translation's language
	ErrLanguageImmutable = errors.New("language already assigned")

	// ErrMergeUnsupported indicates the operands of a merge are not the same variant
	ErrMergeUnsupported = errors.New("merge unsupported")

	// ErrComparisonUnsupported indicates the variant has no total order
	ErrComparisonUnsupported = errors.New("comparison unsupported")

	// ErrIncomparableTypes indicates a comparison across different variants
	ErrIncomparableTypes = errors.New("incomparable types")

	// ErrHydration is wrapped by every HydrationError
	ErrHydration = errors.New("hydration failed")

	// ErrUnknownType indicates a discriminator missing from the registry
	ErrUnknownType = errors.New("unknown type")

	// ErrAlreadyRegistered indicates a duplicate discriminator registration
	ErrAlreadyRegistered = errors.New("type already registered")
)

// HydrationError describes a structural decode failure.
// Field names the offending key of the encoded form ("type", "val", "ver", "lang").
type HydrationError struct {
	Discriminator Kind
	Field         string
	Detail        string
	Err           error
}

func (e *HydrationError) Error() string {
	msg := fmt.Sprintf("hydrate %s: field %q: %s", e.Discriminator, e.Field, e.Detail)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both ErrHydration and the underlying cause to errors.Is.
func (e *HydrationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrHydration}
	}
	return []error{ErrHydration, e.Err}
}

// IsHydrationError reports whether err is or wraps a *HydrationError.
func IsHydrationError(err error) bool {
	var h *HydrationError
	return errors.As(err, &h)
}

func invalidValue(kind Kind, input any) error {
	return fmt.Errorf("%w: %s cannot hold %#v", ErrInvalidValue, kind, input)
}

func mergeUnsupported(kind Kind, other Value) error {
	return fmt.Errorf("%w: %s with %s", ErrMergeUnsupported, kind, kindOf(other))
}

func incomparable(kind Kind, other Value) error {
	return fmt.Errorf("%w: %s with %s", ErrIncomparableTypes, kind, kindOf(other))
}

func kindOf(v Value) Kind {
	if v == nil {
		return "<nil>"
	}
	return v.Kind()
}

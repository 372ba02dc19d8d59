package datatype

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Lang is a BCP 47 language code such as "en" or "pt-BR".
type Lang string

// AnyLanguage is the wildcard code. Language-neutral values report it from
// Languages(); language-bearing values reject it on write.
const AnyLanguage Lang = "*"

// ParseLang validates s and returns its canonical form.
// The wildcard "*" is returned unchanged.
func ParseLang(s string) (Lang, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty language code", ErrInvalidValue)
	}
	if Lang(s) == AnyLanguage {
		return AnyLanguage, nil
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: language %q: %v", ErrInvalidValue, s, err)
	}
	return Lang(tag.String()), nil
}

// IsWildcard reports whether l is AnyLanguage.
func (l Lang) IsWildcard() bool {
	return l == AnyLanguage
}

// concreteLang resolves the language a write must target.
func concreteLang(l Lang) (Lang, error) {
	if l == "" {
		return "", fmt.Errorf("%w: lang", ErrMissingOption)
	}
	if l.IsWildcard() {
		return "", ErrWildcardLanguage
	}
	return ParseLang(string(l))
}

func sortLangs(langs []Lang) []Lang {
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

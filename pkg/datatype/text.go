package datatype

import (
	"mime"
	"net/mail"
	"net/url"
	"strings"
)

// MimeType holds a media type such as "image/png", lower-cased, with
// canonical parameters. Ordering is lexicographic.
type MimeType struct {
	scalar[string]
}

// URL holds an absolute URL with scheme and host. Ordering is lexicographic.
type URL struct {
	scalar[string]
}

// Email holds a bare e-mail address. Ordering is lexicographic.
type Email struct {
	scalar[string]
}

var mimeTypeTraits = &traits[string]{
	kind:    KindMimeType,
	coerce:  coerceMimeType,
	compare: strings.Compare,
	encode:  func(v string) any { return v },
	text:    identity,
}

var urlTraits = &traits[string]{
	kind:    KindURL,
	coerce:  coerceURL,
	compare: strings.Compare,
	encode:  func(v string) any { return v },
	text:    identity,
}

var emailTraits = &traits[string]{
	kind:    KindEmail,
	coerce:  coerceEmail,
	compare: strings.Compare,
	encode:  func(v string) any { return v },
	text:    identity,
}

// NewMimeType returns a null MimeType at version 0.
func NewMimeType() *MimeType {
	return &MimeType{scalar[string]{traits: mimeTypeTraits}}
}

// NewURL returns a null URL at version 0.
func NewURL() *URL {
	return &URL{scalar[string]{traits: urlTraits}}
}

// NewEmail returns a null Email at version 0.
func NewEmail() *Email {
	return &Email{scalar[string]{traits: emailTraits}}
}

func (m *MimeType) Clone() Value { return &MimeType{m.cloneRegister()} }
func (u *URL) Clone() Value      { return &URL{u.cloneRegister()} }
func (e *Email) Clone() Value    { return &Email{e.cloneRegister()} }

func identity(s string) string { return s }

func coerceMimeType(input any) (string, error) {
	s, ok := asString(input)
	if !ok {
		return "", invalidValue(KindMimeType, input)
	}
	mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(s))
	if err != nil {
		return "", invalidValue(KindMimeType, input)
	}
	major, minor, found := strings.Cut(mediaType, "/")
	if !found || major == "" || minor == "" || strings.Contains(minor, "/") {
		return "", invalidValue(KindMimeType, input)
	}
	formatted := mime.FormatMediaType(mediaType, params)
	if formatted == "" {
		return "", invalidValue(KindMimeType, input)
	}
	return formatted, nil
}

func coerceURL(input any) (string, error) {
	s, ok := asString(input)
	if !ok {
		return "", invalidValue(KindURL, input)
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Scheme == "" {
		return "", invalidValue(KindURL, input)
	}
	// file URLs name a local path and have no host
	if u.Host == "" && (u.Scheme != "file" || !strings.HasPrefix(u.Path, "/")) {
		return "", invalidValue(KindURL, input)
	}
	return u.String(), nil
}

func coerceEmail(input any) (string, error) {
	s, ok := asString(input)
	if !ok {
		return "", invalidValue(KindEmail, input)
	}
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return "", invalidValue(KindEmail, input)
	}
	return addr.Address, nil
}

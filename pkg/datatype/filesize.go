package datatype

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Binary multiples used for parsing and formatting file sizes.
const (
	KB int64 = 1024
	MB       = KB * 1024
	GB       = MB * 1024
)

// FileSize holds a non-negative byte count. Get with ReadOptions.Formatted
// returns the FormatFileSize rendering.
type FileSize struct {
	scalar[int64]
}

var fileSizeTraits = &traits[int64]{
	kind:    KindFileSize,
	coerce:  coerceFileSize,
	compare: cmp.Compare[int64],
	encode:  func(v int64) any { return v },
	text:    func(v int64) string { return strconv.FormatInt(v, 10) },
	human:   FormatFileSize,
}

var fileSizePattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)?)\s*([A-Za-z]*)$`)

// NewFileSize returns a null FileSize at version 0.
func NewFileSize() *FileSize {
	return &FileSize{scalar[int64]{traits: fileSizeTraits}}
}

func (f *FileSize) Clone() Value {
	return &FileSize{f.cloneRegister()}
}

// FormatFileSize renders n bytes as "0 bytes", "1 byte", "N bytes", or with two
// decimals in KB, MB or GB.
func FormatFileSize(n int64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(GB))
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/float64(KB))
	case n == 1:
		return "1 byte"
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// ParseFileSize parses "1.1 GB", "512KB", "10 bytes" or a bare byte count.
func ParseFileSize(s string) (int64, error) {
	m := fileSizePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, invalidValue(KindFileSize, s)
	}
	var multiplier int64
	switch strings.ToLower(m[2]) {
	case "", "b", "byte", "bytes":
		multiplier = 1
	case "kb":
		multiplier = KB
	case "mb":
		multiplier = MB
	case "gb":
		multiplier = GB
	default:
		return 0, invalidValue(KindFileSize, s)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, invalidValue(KindFileSize, s)
	}
	bytes := math.Round(f * float64(multiplier))
	if bytes >= math.MaxInt64 {
		return 0, invalidValue(KindFileSize, s)
	}
	return int64(bytes), nil
}

func coerceFileSize(input any) (int64, error) {
	if s, ok := asString(input); ok {
		return ParseFileSize(s)
	}
	n, ok := asInt64(input)
	if !ok || n < 0 {
		return 0, invalidValue(KindFileSize, input)
	}
	return n, nil
}

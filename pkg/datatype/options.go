package datatype

// WriteOptions parameterises Set.
type WriteOptions struct {
	// Lang is required by Translation and LocalizedString and ignored elsewhere.
	Lang Lang

	// Version, when non-nil, is applied together with the value.
	Version *int
}

// ReadOptions parameterises Get and IsNull.
type ReadOptions struct {
	// Lang selects the translation to read for language-bearing values.
	Lang Lang

	// Formatted requests a human-readable rendering where the variant has one
	// (FileSize: "1.10 GB").
	Formatted bool
}

// At returns WriteOptions targeting lang.
func At(lang Lang) WriteOptions {
	return WriteOptions{Lang: lang}
}

// AtVersion returns WriteOptions targeting lang with an explicit version.
func AtVersion(lang Lang, version int) WriteOptions {
	return WriteOptions{Lang: lang, Version: &version}
}

// In returns ReadOptions for lang.
func In(lang Lang) ReadOptions {
	return ReadOptions{Lang: lang}
}

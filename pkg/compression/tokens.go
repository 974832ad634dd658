package compression

import (
	"sort"
	"strings"

	"github.com/ajitpratap0/nebula-ftp/pkg/errors"
)

// Token describes one value of the compress option.
type Token struct {
	Name string
	// Algorithm is the codec used when writing; empty when the token is
	// read-only
	Algorithm Algorithm
	// Extension is appended to written file names
	Extension string
}

// Writable reports whether files can be produced with this token.
func (t Token) Writable() bool {
	return t.Algorithm != ""
}

var tokens = map[string]Token{
	"none":    {Name: "none", Algorithm: None},
	"gzip":    {Name: "gzip", Algorithm: Gzip, Extension: ".gz"},
	"zip":     {Name: "zip", Extension: ".zip"},
	"bzip2":   {Name: "bzip2", Extension: ".bz2"},
	"lz4":     {Name: "lz4", Algorithm: LZ4, Extension: ".lz4"},
	"zstd":    {Name: "zstd", Algorithm: Zstd, Extension: ".zst"},
	"snappy":  {Name: "snappy", Algorithm: Snappy, Extension: ".snappy"},
	"deflate": {Name: "deflate", Algorithm: Deflate, Extension: ".deflate"},
}

// LookupToken resolves a compress token case-insensitively. An empty token
// means none.
func LookupToken(name string) (Token, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		key = "none"
	}
	t, ok := tokens[key]
	if !ok {
		return Token{}, errors.Newf(errors.ErrorTypeConfig, "unknown compress %q, expected one of %s",
			name, strings.Join(TokenNames(false), ", ")).WithDetail("compress", name)
	}
	return t, nil
}

// LookupWritableToken resolves a token and rejects read-only ones.
func LookupWritableToken(name string) (Token, error) {
	t, err := LookupToken(name)
	if err != nil {
		return Token{}, err
	}
	if !t.Writable() {
		return Token{}, errors.Newf(errors.ErrorTypeConfig, "compress %q is not supported for writing, expected one of %s",
			name, strings.Join(TokenNames(true), ", ")).WithDetail("compress", name)
	}
	return t, nil
}

// TokenNames lists the known tokens in sorted order, only the writable ones
// when writable is set.
func TokenNames(writable bool) []string {
	names := make([]string, 0, len(tokens))
	for name, t := range tokens {
		if writable && !t.Writable() {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForToken returns the codec for a writable token.
func ForToken(name string) (Compressor, error) {
	t, err := LookupWritableToken(name)
	if err != nil {
		return nil, err
	}
	return NewCompressor(Config{Algorithm: t.Algorithm, Level: Default})
}

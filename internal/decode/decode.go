// Package decode enumerates the text-encoding and delimiter candidates the
// ingestion orchestrator walks when turning an uploaded byte buffer into
// parseable text.
//
// The package performs no parsing itself. It only knows how to decode a byte
// buffer under a single candidate encoding, strictly: a buffer that cannot be
// represented under an encoding is a decode failure, never silently patched
// with replacement characters.
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Auto is the delimiter sentinel meaning "sniff the delimiter from the text".
const Auto rune = 0

// ErrInvalidUTF8 is returned by the strict UTF-8 candidates for buffers that
// are not well-formed UTF-8.
var ErrInvalidUTF8 = errors.New("invalid UTF-8 byte sequence")

// ErrMissingBOM is returned by the UTF-8-with-BOM candidate for buffers that
// do not start with a byte order mark.
var ErrMissingBOM = errors.New("missing UTF-8 byte order mark")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Windows-1252 leaves five code points undefined. A buffer containing any of
// them cannot be decoded under cp1252; treating them as U+FFFD would mask a
// wrong-encoding guess, so they fail the candidate instead.
var cp1252Undefined = [...]byte{0x81, 0x8D, 0x8F, 0x90, 0x9D}

// Encoding is a named, strict byte-to-text decoder candidate.
type Encoding struct {
	Name   string
	decode func([]byte) (string, error)
}

// Decode decodes content under this candidate, or reports why it cannot.
func (e Encoding) Decode(content []byte) (string, error) {
	s, err := e.decode(content)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", e.Name, err)
	}
	return s, nil
}

// Encodings returns the encoding candidates in priority order: UTF-8 strict,
// UTF-8 with BOM, Windows-1252, Latin-1. The list is freshly allocated; the
// caller may not mutate shared state through it.
func Encodings() []Encoding {
	return []Encoding{
		{Name: "utf-8", decode: decodeUTF8},
		{Name: "utf-8-sig", decode: decodeUTF8BOM},
		{Name: "windows-1252", decode: decodeWindows1252},
		{Name: "latin-1", decode: decodeLatin1},
	}
}

// Delimiters returns the delimiter candidates in priority order. Auto comes
// first; the explicit fallbacks follow in the order comma, semicolon, tab,
// pipe.
func Delimiters() []rune {
	return []rune{Auto, ',', ';', '\t', '|'}
}

func decodeUTF8(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return "", ErrInvalidUTF8
	}
	return string(content), nil
}

func decodeUTF8BOM(content []byte) (string, error) {
	if !bytes.HasPrefix(content, utf8BOM) {
		return "", ErrMissingBOM
	}
	rest := content[len(utf8BOM):]
	if !utf8.Valid(rest) {
		return "", ErrInvalidUTF8
	}
	return string(rest), nil
}

func decodeWindows1252(content []byte) (string, error) {
	for _, b := range cp1252Undefined {
		if i := bytes.IndexByte(content, b); i >= 0 {
			return "", fmt.Errorf("byte 0x%02X at offset %d is undefined in windows-1252", b, i)
		}
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decodeLatin1 never fails: every byte value is defined in ISO 8859-1. It is
// the terminal fallback of the encoding chain.
func decodeLatin1(content []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

package savefile

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// DefaultCharset is the code page header strings are stored in.
const DefaultCharset = "windows-1252"

var charsets = map[string]encoding.Encoding{
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp866":        charmap.CodePage866,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
}

// LookupCharset returns the code page registered under name.
func LookupCharset(name string) (encoding.Encoding, error) {
	enc, ok := charsets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q", name)
	}
	return enc, nil
}

// decodeText converts a NUL-padded header field to UTF-8.
func decodeText(raw []byte, enc encoding.Encoding) (string, error) {
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decode text: %w", err)
	}
	return string(out), nil
}

// encodeText converts s to the code page. Runes the code page cannot hold
// are an error, not a replacement.
func encodeText(s string, enc encoding.Encoding) ([]byte, error) {
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode text %q: %w", s, err)
	}
	return out, nil
}

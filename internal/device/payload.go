package device

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParsePayload converts a value argument to bytes. In hex mode the input is
// cleaned of spaces, ":", "-", and "0x" separators and decoded as a hex byte
// string; odd length or non-hex digits fail with ErrInvalidHexValue.
// Otherwise the UTF-8 bytes of the literal string are returned.
func ParsePayload(value string, hexMode bool) ([]byte, error) {
	if !hexMode {
		return []byte(value), nil
	}

	cleaned := strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(value)
	data, err := hex.DecodeString(cleaned)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidHexValue, value, err)
	}
	return data, nil
}

// FormatValue renders a raw value for display: printable UTF-8 content is
// returned as the decoded string (true), anything else as a space-separated
// lowercase hex byte string (false).
func FormatValue(data []byte) (string, bool) {
	if len(data) > 0 && utf8.Valid(data) && isPrintable(data) {
		return string(data), true
	}

	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " "), false
}

// isPrintable reports whether the decoded runes are all printable or common
// whitespace. GATT string characteristics are often NUL-padded, so trailing
// NULs alone do not force hex rendering.
func isPrintable(data []byte) bool {
	s := strings.TrimRight(string(data), "\x00")
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}

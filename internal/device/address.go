package device

import (
	"fmt"
	"strings"
)

var addressSeparators = strings.NewReplacer(":", "", "-", "")

// ValidateAddress checks that input looks like a 48-bit device address:
// after stripping ":" and "-" separators exactly 12 characters must remain.
// The characters themselves are not verified, and the input is returned
// unmodified so the caller's casing is preserved for display.
func ValidateAddress(input string) (string, error) {
	stripped := addressSeparators.Replace(input)
	if len(stripped) != 12 {
		return "", fmt.Errorf("%w: %q (expected XX:XX:XX:XX:XX:XX or XX-XX-XX-XX-XX-XX)", ErrInvalidAddress, input)
	}
	return input, nil
}

// AddressEqual compares two device addresses ignoring separators and case.
func AddressEqual(a, b string) bool {
	return strings.EqualFold(addressSeparators.Replace(a), addressSeparators.Replace(b))
}

package services

import (
	"strings"

	"github.com/jbub/banking/iban"
)

// normalizeIBAN strips spaces and upper-cases s.
func normalizeIBAN(s string) string {
	return strings.ToUpper(strings.ReplaceAll(s, " ", ""))
}

// validIBAN reports whether a normalized IBAN has the length and BBAN
// structure registered for its country and a correct mod-97 checksum.
func validIBAN(s string) bool {
	return iban.Validate(s) == nil
}

func isUpperLetter(c byte) bool { return c >= 'A' && c <= 'Z' }

// Package ordercode generates and recognizes the human-typable order codes
// buyers put in their bank-transfer memos.
package ordercode

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

const (
	// Prefix starts every canonical code
	Prefix = "SN-"

	minNumber = 100000
	maxNumber = 999999
)

var (
	memoPattern      = regexp.MustCompile(`(?i)SN-?\d{6}`)
	canonicalPattern = regexp.MustCompile(`^SN-\d{6}$`)
)

// Generate returns a random code in canonical form, SN-100000 through SN-999999.
// Uniqueness is not checked here.
func Generate(rnd *rand.Rand) string {
	var n int
	if rnd == nil {
		n = minNumber + rand.Intn(maxNumber-minNumber+1)
	} else {
		n = minNumber + rnd.Intn(maxNumber-minNumber+1)
	}
	return fmt.Sprintf("%s%d", Prefix, n)
}

// Extract finds the first order code in a free-text memo and normalizes it to
// SN-######. The match is case-insensitive and the hyphen is optional.
func Extract(memo string) (string, bool) {
	match := memoPattern.FindString(memo)
	if match == "" {
		return "", false
	}
	return Normalize(match), true
}

// Normalize uppercases a matched code and inserts the hyphen when missing
func Normalize(code string) string {
	code = strings.ToUpper(code)
	if !strings.Contains(code, "-") {
		code = strings.Replace(code, "SN", Prefix, 1)
	}
	return code
}

// Valid reports whether s is already in canonical form
func Valid(s string) bool {
	return canonicalPattern.MatchString(s)
}

package common

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"golang.org/x/text/cases"
)

// MakeRandURLToken returns size random bytes encoded as unpadded base64url,
// suitable for embedding in a link query string.
func MakeRandURLToken(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// NormalizeEmail trims and case-folds an email address so that lookups and
// the unique index agree on what "the same email" means. A Caser is stateful,
// so a fresh one is built per call.
func NormalizeEmail(email string) string {
	return cases.Fold().String(strings.TrimSpace(email))
}

// WipeByteArray zeroes b in place. Used for passwords read from a terminal.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

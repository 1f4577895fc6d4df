// Package mentor implements share codes: short opaque tokens a user hands
// to a mentor so the mentor can open a read-only view of their progress.
package mentor

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/language-study/study-hub/internal/domain/shared"
)

// CodeLength is the fixed length of a share code.
const CodeLength = 5

// codeAlphabet excludes nothing: all 36 uppercase alphanumerics are valid.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var codePattern = regexp.MustCompile(`^[A-Z0-9]{5}$`)

// Code is a user's mentor share code with its enablement flag.
type Code struct {
	Code      string    `json:"code"`
	UserID    string    `json:"uid"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateCode produces a random 5-character uppercase alphanumeric code
// using crypto/rand. Uniqueness is the caller's problem.
func GenerateCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", shared.WrapError("mentor", "GenerateCode", shared.ErrExternalService, "entropy source failed", err)
	}
	out := make([]byte, CodeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// NormalizeCode trims and uppercases raw user input, then validates the
// shape. The format check happens before any storage lookup.
func NormalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if !codePattern.MatchString(code) {
		return "", shared.ErrCodeInvalidFormat
	}
	return code, nil
}

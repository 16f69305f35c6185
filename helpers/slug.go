package helpers

import (
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const slugAlphabet = "1234567890abcdefghijklmnopqrstuvwxyz"
const slugLength = 8

// slugPattern mirrors the create-API contract: 3-100 chars of letters,
// digits, hyphen, underscore.
var slugPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,100}$`)

// NewSlug generates a random slug for links created without one.
func NewSlug() (string, error) {
	return gonanoid.Generate(slugAlphabet, slugLength)
}

// ValidSlug reports whether s is an acceptable slug. Handlers call this
// before any store or cache access.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

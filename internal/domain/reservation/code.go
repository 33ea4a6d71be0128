package reservation

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const codeSuffixLen = 5

var (
	codePattern   = regexp.MustCompile(`\b[A-Z]{2,4}-[A-Z0-9]{5}\b`)
	prefixPattern = regexp.MustCompile(`^[A-Z]{2,4}$`)
)

// NewCode returns "<prefix>-XXXXX" with a random hex suffix holding at least one digit, so
// plain hyphenated words never parse as codes. Uniqueness within a restaurant is the
// caller's job; see restaurant.Restaurant.
func NewCode(prefix string) string {
	for {
		id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		suffix := id[:codeSuffixLen]
		if strings.ContainsAny(suffix, "0123456789") {
			return prefix + "-" + suffix
		}
	}
}

func ValidPrefix(p string) bool { return prefixPattern.MatchString(p) }

// FindCode extracts the first confirmation code mentioned in free text, case-insensitively.
func FindCode(text string) (string, bool) {
	for _, m := range codePattern.FindAllString(strings.ToUpper(text), -1) {
		_, suffix, _ := strings.Cut(m, "-")
		if strings.ContainsAny(suffix, "0123456789") {
			return m, true
		}
	}
	return "", false
}

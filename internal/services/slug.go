package services

import (
	"fmt"
	"strings"
	"unicode"
)

// slugify turns a title into a URL-safe slug: lowercase, hyphen-separated,
// ASCII letters and digits only.
func slugify(s string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) && r < 128, unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// uniqueSlug appends a numeric suffix until exists reports the slug free.
func uniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	slug := base
	for i := 2; ; i++ {
		taken, err := exists(slug)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

package twin

import (
	"errors"
	"regexp"
	"slices"
	"strings"
)

// ErrInvalidSlug is returned for slugs that fail format validation.
var ErrInvalidSlug = errors.New("twin: invalid slug")

// ErrReservedSlug is returned for slugs that collide with site routes.
var ErrReservedSlug = errors.New("twin: reserved slug")

var slugPattern = regexp.MustCompile(`^[a-z0-9-]{3,30}$`)

var reservedSlugs = []string{"admin", "api", "create", "login", "signup", "settings", "help", "about"}

// NormalizeSlug lowercases and trims a slug and checks its format.
func NormalizeSlug(slug string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(slug))
	if !slugPattern.MatchString(s) {
		return "", ErrInvalidSlug
	}
	if slices.Contains(reservedSlugs, s) {
		return "", ErrReservedSlug
	}
	return s, nil
}

// DisplayNameFromSlug turns "anna-rossi" into "Anna Rossi".
func DisplayNameFromSlug(slug string) string {
	words := strings.Split(slug, "-")
	out := words[:0]
	for _, w := range words {
		if w == "" {
			continue
		}
		out = append(out, strings.ToUpper(w[:1])+w[1:])
	}
	return strings.Join(out, " ")
}

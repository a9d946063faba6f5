package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons. Normalization currently trims surrounding
// whitespace and lower-cases the address.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Name trims surrounding whitespace from a display name. Case is
// preserved: "Ada" and "ada" are distinct reservations, matching how the
// directory keys usernames.
func Name(n string) string {
	return strings.TrimSpace(n)
}

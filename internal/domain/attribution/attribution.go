// Package attribution maps free play text to tracked players and resolves
// which role a matched player had.
//
// Two strategies exist, one per feed schema. The scoring summary names
// players in full and is resolved by prefix/contains rules. The drive feed
// abbreviates names as "F.Last" and is resolved by comparing the position of
// the name with the position of the TOUCHDOWN marker. Both are expressed as
// ordered lists of named rules so precedence is explicit and each rule can be
// tested on its own.
package attribution

import (
	"strings"
	"unicode/utf8"
)

// Abbreviate builds the "F.Last" form the drive feed uses for a full name:
// the first letter, a dot, then everything after the first space.
// "Deebo Samuel" and "D. Samuel" both become "D.Samuel".
func Abbreviate(fullName string) string {
	name := strings.TrimSpace(fullName)
	space := strings.IndexByte(name, ' ')
	if space < 0 {
		return name
	}
	first, _ := utf8.DecodeRuneInString(name)
	return string(first) + "." + strings.TrimSpace(name[space+1:])
}

// index returns the byte offset of sub in s, or -1.
func index(s, sub string) int {
	if sub == "" {
		return -1
	}
	return strings.Index(s, sub)
}

// trimToken strips sentence punctuation that trails an abbreviated name.
func trimToken(token string) string {
	return strings.TrimRight(token, ",.;:)")
}

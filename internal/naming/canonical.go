// Package naming derives the canonical "NN - title" file names that encode
// play order.
//
// A raw label usually carries an old ordering prefix ("10 - ", "25 = ") or
// some ASCII clutter in front of the real title. Canonicalize strips that and
// prefixes the new ordinal:
//
//	name, ok := naming.Canonicalize("25 = 34式太极", 3) // "03 - 34式太极", true
//	name, ok  = naming.Canonicalize("10 - 太极", 1)      // "01 - 太极", true
//	name, ok  = naming.Canonicalize("abc", 1)           // "01 - abc", true
//
// Canonicalize is idempotent: feeding its output back with the same ordinal
// returns the same string.
package naming

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Separator sits between the ordinal and the title.
const Separator = " - "

// prefixClass is the set of characters an ordering prefix is made of.
const prefixClass = `-= 0-9a-zA-Z`

var (
	// Titles such as "34式太极" start with a count and one of the form markers
	// 式, 路 or 套. The count belongs to the title and must survive the strip.
	formTitle = regexp.MustCompile(`^[` + prefixClass + `]*\b([0-9]+[式路套].+)$`)

	// The generic strip: everything up to the first character outside the
	// prefix class.
	afterPrefix = regexp.MustCompile(`^[` + prefixClass + `]*([^` + prefixClass + `].*)$`)

	// For labels made only of prefix characters ("abc", "01 - abc") only the
	// ordering prefixes themselves are dropped.
	orderingPrefix = regexp.MustCompile(`^[-= ]*(?:[0-9]+ *[-=][-= ]*)*`)
)

// Title returns label with any ordering prefix removed. ok is false when
// nothing with a letter or digit is left, in which case label is returned
// unchanged.
func Title(label string) (string, bool) {
	s := norm.NFC.String(label)

	var title string
	if m := formTitle.FindStringSubmatch(s); m != nil {
		title = m[1]
	} else if m := afterPrefix.FindStringSubmatch(s); m != nil {
		title = m[1]
	} else {
		title = strings.TrimPrefix(s, orderingPrefix.FindString(s))
	}

	if !hasAlnum(title) {
		return label, false
	}
	return title, true
}

// Canonicalize returns the canonical name for label at the 1-based ordinal.
// When ok is false the label is returned unchanged and must not be renamed.
func Canonicalize(label string, ordinal int) (string, bool) {
	title, ok := Title(label)
	if !ok {
		return label, false
	}
	return fmt.Sprintf("%02d%s%s", ordinal, Separator, title), true
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

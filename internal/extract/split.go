package extract

import (
	"regexp"
	"strings"
)

// Joint fields name two people in one capture: "Derek and Dana Hall",
// "7-22-60/3-23-56". Splitting walks the configured separators in priority
// order and takes the first that divides the value into two non-empty
// halves. Punctuation left stranded next to the winning separator is
// debris from the losing ones and is discarded.

// SplitPair splits value on the highest-priority separator present.
// Word separators ("and", "or") match whole words case-insensitively;
// punctuation separators match anywhere. Returns ok=false when no
// separator yields two non-empty halves.
func SplitPair(value string, seps []string) (left, right, sep string, ok bool) {
	for _, s := range seps {
		l, r, found := cutOnSeparator(value, s)
		if !found {
			continue
		}
		l = trimSeparatorDebris(l)
		r = trimSeparatorDebris(r)
		if l == "" || r == "" {
			continue
		}
		return l, r, s, true
	}
	return "", "", "", false
}

func cutOnSeparator(value, sep string) (string, string, bool) {
	if isWordSeparator(sep) {
		re := regexp.MustCompile(`(?i)(^|[\s,;/])` + regexp.QuoteMeta(sep) + `([\s,;/]|$)`)
		loc := re.FindStringSubmatchIndex(value)
		if loc == nil {
			return "", "", false
		}
		// Submatch 1 ends where the separator word starts.
		return value[:loc[3]], value[loc[4]:], true
	}
	return strings.Cut(value, sep)
}

func isWordSeparator(sep string) bool {
	for _, r := range sep {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

// trimSeparatorDebris strips whitespace and the punctuation a lower-priority
// separator left adjacent to the split point.
func trimSeparatorDebris(s string) string {
	return strings.Trim(s, " \t,;/&+")
}

// SplitNames splits a joint name line into two names. When the first half
// is a bare given name and the second carries a surname, the surname is
// shared: "Derek and Dana Hall" names Derek Hall and Dana Hall. Returns
// ok=false when the line holds no separator.
func SplitNames(line string, seps []string) (Name, Name, bool) {
	left, right, _, ok := SplitPair(line, seps)
	if !ok {
		return Name{}, Name{}, false
	}

	first := SplitFullName(left)
	second := SplitFullName(right)

	// A bare word parses as a surname; in a joint line it is a given name
	// borrowing the other half's surname.
	if first.First == "" && first.Last != "" && second.Last != "" && len(strings.Fields(left)) == 1 {
		first = Name{First: first.Last, Last: second.Last}
	}
	if second.First == "" && second.Last != "" && first.Last != "" && len(strings.Fields(right)) == 1 {
		second = Name{First: second.Last, Last: first.Last}
	}

	return first, second, true
}

// SplitDates splits a field holding two date shapes, normalizing both.
// "7-22-60/3-23-56" yields "07/22/1960" and "03/23/1956". Returns ok=false
// unless exactly two parseable dates are present.
func SplitDates(value string) (string, string, bool) {
	matches := mdyRe.FindAllString(value, -1)
	if len(matches) != 2 {
		return "", "", false
	}
	a := NormalizeDate(matches[0])
	b := NormalizeDate(matches[1])
	if a == "" || b == "" {
		return "", "", false
	}
	return a, b, true
}

// SplitPhones splits a field holding two phone numbers. Returns ok=false
// unless exactly two are present.
func SplitPhones(value string) (string, string, bool) {
	phones := ExtractPhones(value)
	if len(phones) != 2 {
		return "", "", false
	}
	return phones[0], phones[1], true
}

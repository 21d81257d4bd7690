package extract

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Name holds one person's split name.
type Name struct {
	First  string
	Middle string
	Last   string
}

// Full rejoins the parts for display.
func (n Name) Full() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{n.First, n.Middle, n.Last} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// IsZero reports whether no part is set.
func (n Name) IsZero() bool {
	return n.First == "" && n.Middle == "" && n.Last == ""
}

// SplitFullName splits "First [Middle...] Last" on whitespace. A single
// word is treated as a last name, the way the court captions single-name
// wards. "Last, First" comma order is honored.
func SplitFullName(full string) Name {
	full = strings.TrimSpace(full)
	if full == "" {
		return Name{}
	}

	if before, after, found := strings.Cut(full, ","); found {
		last := strings.TrimSpace(before)
		rest := SplitFullName(strings.TrimSpace(after))
		return Name{First: rest.First, Middle: rest.Middle, Last: last}
	}

	words := strings.Fields(full)
	switch len(words) {
	case 1:
		return Name{Last: words[0]}
	case 2:
		return Name{First: words[0], Last: words[1]}
	default:
		return Name{
			First:  words[0],
			Middle: strings.Join(words[1:len(words)-1], " "),
			Last:   words[len(words)-1],
		}
	}
}

// TitleCaseName converts an all-caps OCR or caption name to title case,
// word by word. Mixed-case input passes through unchanged.
func TitleCaseName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		if len(w) < 2 || w != strings.ToUpper(w) {
			continue
		}
		words[i] = string(w[0]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// CorrectSurname snaps a guardian surname onto the ward's surname when the
// two differ by at most maxDist edits. Family members share surnames far
// more often than OCR reads them identically, so "Pack" next to ward
// "Park" is a misread, not a different family. Exact matches and distant
// names pass through unchanged.
func CorrectSurname(surname, wardSurname string, maxDist int) (string, bool) {
	if surname == "" || wardSurname == "" || maxDist <= 0 {
		return surname, false
	}
	if strings.EqualFold(surname, wardSurname) {
		return surname, false
	}
	d := levenshtein.ComputeDistance(strings.ToLower(surname), strings.ToLower(wardSurname))
	if d > 0 && d <= maxDist {
		return wardSurname, true
	}
	return surname, false
}

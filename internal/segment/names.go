package segment

import (
	"regexp"
	"strings"
)

// nameWord matches one word of a person's name: TitleCase or ALL CAPS,
// allowing hyphens, apostrophes, and a trailing period for initials.
var nameWord = regexp.MustCompile(`^(?:[A-Z][a-zA-Z'’-]*\.?|[A-Z]{2,}[.'’-]?)$`)

// streetWords and labelWords disqualify a line from being a bare name.
var (
	streetWords = map[string]bool{
		"street": true, "st": true, "avenue": true, "ave": true,
		"drive": true, "dr": true, "road": true, "rd": true,
		"lane": true, "ln": true, "boulevard": true, "blvd": true,
		"court": true, "ct": true, "circle": true, "cir": true,
		"apt": true, "suite": true, "unit": true, "hwy": true,
		"highway": true, "loop": true, "trail": true, "cove": true,
	}
	labelWords = map[string]bool{
		"name": true, "names": true, "ward": true, "guardian": true,
		"guardians": true, "visit": true, "cause": true, "date": true,
		"time": true, "address": true, "phone": true, "telephone": true,
		"email": true, "relationship": true, "birth": true, "dob": true,
		"application": true, "review": true, "placement": true,
		"county": true, "texas": true, "no": true,
	}
)

// LooksLikePersonName reports whether a line is plausibly a bare person
// name: one to four name-shaped words, no digits, and none of the street or
// form-label vocabulary.
func LooksLikePersonName(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 60 {
		return false
	}
	if strings.ContainsAny(trimmed, "0123456789@#:") {
		return false
	}

	words := strings.Fields(trimmed)
	if len(words) < 1 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		lower := strings.ToLower(strings.Trim(w, ".,"))
		if streetWords[lower] || labelWords[lower] {
			return false
		}
		// Connectives appear in joint names ("Derek and Dana Hall").
		if lower == "and" || lower == "or" {
			continue
		}
		if !nameWord.MatchString(w) {
			return false
		}
	}
	return true
}

package segment

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// anchorDistance returns the smallest edit distance between anchor and any
// same-length window of line, both case-folded and whitespace-normalized.
// A window scan keeps OCR artifacts around the phrase (leading form
// numbers, trailing colons) from inflating the distance.
func anchorDistance(line, anchor string) int {
	line = normalizeForMatch(line)
	anchor = normalizeForMatch(anchor)
	if anchor == "" {
		return len(line)
	}
	if strings.Contains(line, anchor) {
		return 0
	}

	lineRunes := []rune(line)
	anchorRunes := []rune(anchor)
	if len(lineRunes) < len(anchorRunes) {
		return levenshtein.ComputeDistance(line, anchor)
	}

	best := len(anchorRunes)
	for i := 0; i+len(anchorRunes) <= len(lineRunes); i++ {
		window := string(lineRunes[i : i+len(anchorRunes)])
		if d := levenshtein.ComputeDistance(window, anchor); d < best {
			best = d
			if best == 0 {
				break
			}
		}
	}
	return best
}

// matchAnchor reports whether line contains anchor within maxDist edits.
func matchAnchor(line, anchor string, maxDist int) bool {
	return anchorDistance(line, anchor) <= maxDist
}

// normalizeForMatch lowercases and collapses runs of whitespace so matching
// is insensitive to OCR spacing noise.
func normalizeForMatch(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

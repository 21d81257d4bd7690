package extract

import (
	"regexp"
	"strings"
)

// Forms put values after a label on the same line or on one of the next few
// lines when the blank ran out of room. Capture takes the same-line
// remainder first and only then looks ahead, skipping other label lines so
// a blank field never steals its neighbor's value.

// lookAheadLines bounds how far below its label a value may sit.
const lookAheadLines = 4

var labelLineRe = regexp.MustCompile(`(?i)^\s*[A-Za-z][A-Za-z /()'.]{0,40}:\s*`)

// CaptureField returns the value for the first matching label in section.
// Labels are matched case-insensitively at the start of a line, colon
// optional.
func CaptureField(section string, labels ...string) string {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		for _, label := range labels {
			rest, ok := captureAfterLabel(line, label)
			if !ok {
				continue
			}
			if rest != "" {
				return rest
			}
			return lookAhead(lines, i)
		}
	}
	return ""
}

// captureAfterLabel matches label at the start of line and returns the
// remainder past the label and any colon.
func captureAfterLabel(line, label string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < len(label) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(label)], label) {
		return "", false
	}
	rest := trimmed[len(label):]
	rest = strings.TrimLeft(rest, " \t")
	rest = strings.TrimPrefix(rest, ":")
	return strings.TrimSpace(rest), true
}

// lookAhead scans below a blank label for the stranded value, skipping
// other labels.
func lookAhead(lines []string, labelIdx int) string {
	for j := labelIdx + 1; j <= labelIdx+lookAheadLines && j < len(lines); j++ {
		candidate := strings.TrimSpace(lines[j])
		if candidate == "" {
			continue
		}
		if labelLineRe.MatchString(candidate) {
			return ""
		}
		return candidate
	}
	return ""
}

var cityStateZipRe = regexp.MustCompile(`^[A-Za-z .'-]+,?\s+[A-Z]{2},?\s+\d{5}(?:-\d{4})?\b`)

// CaptureAddress captures a street address under any of the given labels
// and stitches on a trailing "City, ST ZIP" line when the form wrapped it.
func CaptureAddress(section string, labels ...string) string {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		for _, label := range labels {
			street, ok := captureAfterLabel(line, label)
			if !ok {
				continue
			}
			if street == "" {
				street = lookAhead(lines, i)
			}
			if street == "" {
				continue
			}
			if !cityStateZipRe.MatchString(street) && !zipRe.MatchString(street) {
				// Street captured without the locality; it usually sits on
				// one of the next lines.
				for j := i + 1; j <= i+lookAheadLines && j < len(lines); j++ {
					next := strings.TrimSpace(lines[j])
					if next == "" || next == street {
						continue
					}
					if labelLineRe.MatchString(next) {
						break
					}
					if cityStateZipRe.MatchString(next) {
						street = street + ", " + next
						break
					}
				}
			}
			return CleanAddress(street)
		}
	}
	return ""
}

var (
	livesWithQuestionRe = regexp.MustCompile(`(?i)live[sd]?\s+with`)
	// A checked box directly before its label. The forms print the box
	// first; matching the other direction misreads "Yes [X] No".
	checkedAnswerRe = regexp.MustCompile(`(?i)(?:☒|\[\s*[x✓]\s*\]|\(\s*[x✓]\s*\)|\bX\b)\s*(yes|no)\b`)
)

// ParseLivesWith reads the "Does the ward live with the guardian?" checkbox
// pair. Returns "Guardian" for a checked yes (or both boxes checked, which
// scanners produce on a heavy yes mark), "" for a checked no, and found
// false when the question or its answer is absent.
func ParseLivesWith(section string) (string, bool) {
	lines := strings.Split(section, "\n")
	for i, line := range lines {
		if !livesWithQuestionRe.MatchString(line) {
			continue
		}
		window := line
		for j := i + 1; j <= i+2 && j < len(lines); j++ {
			window += "\n" + lines[j]
		}
		var yes, no bool
		for _, m := range checkedAnswerRe.FindAllStringSubmatch(window, -1) {
			switch strings.ToLower(m[1]) {
			case "yes":
				yes = true
			case "no":
				no = true
			}
		}
		switch {
		case yes:
			return "Guardian", true
		case no:
			return "", true
		}
	}
	return "", false
}

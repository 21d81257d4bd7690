// Package segment locates labeled sections inside OCR'd form text. Anchors
// come from the rule table: a primary phrase, ordered fallbacks, and for the
// guardian section a final name-shape heuristic that fires when every anchor
// phrase was mangled by the scan.
package segment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"guardianintake/internal/logger"
	"guardianintake/internal/rules"
)

// ErrAnchorNotFound is returned when no anchor, fallback, or heuristic
// located the section.
var ErrAnchorNotFound = errors.New("no section anchor matched")

// Match methods recorded in Span provenance.
const (
	MethodPrimary   = "primary"
	MethodFallback  = "fallback"
	MethodNameShape = "name-shape"
)

// maxSectionLines caps a located section. Some scans lose the next heading
// entirely and the section would otherwise swallow the rest of the document.
const maxSectionLines = 360

var numberedHeading = regexp.MustCompile(`^\s*\d+\s*[.)]\s+\S`)

// Span is one located section of the document.
type Span struct {
	// StartLine and EndLine bound the section in the split text,
	// half-open, anchor line included.
	StartLine int
	EndLine   int

	// Anchor is the phrase that matched; Method says how.
	Anchor string
	Method string

	// Distance is the edit distance of the winning anchor match.
	Distance int

	// Text is the section content, newline-joined.
	Text string
}

// Segmenter locates sections using the configured anchor sets.
type Segmenter struct {
	rules rules.Ruleset
	log   zerolog.Logger
}

// NewSegmenter builds a Segmenter over the given ruleset.
func NewSegmenter(rs rules.Ruleset) *Segmenter {
	return &Segmenter{
		rules: rs,
		log:   logger.WithComponent("segment"),
	}
}

// Locate finds the section introduced by the anchor set. The primary phrase
// is tried first, then each fallback in order, all fuzzily within the
// configured edit distance. When the set allows it, a name-shaped line next
// to a "Name(s)" label stands in as a last resort. The section runs from
// the anchor line to the next numbered heading or boundary phrase.
func (s *Segmenter) Locate(text string, set rules.AnchorSet) (*Span, error) {
	lines := strings.Split(text, "\n")

	if span, ok := s.locateByAnchor(lines, set.Primary, MethodPrimary); ok {
		return span, nil
	}
	for _, fb := range set.Fallbacks {
		if span, ok := s.locateByAnchor(lines, fb, MethodFallback); ok {
			return span, nil
		}
	}
	if set.NameShape {
		if span, ok := s.locateByNameShape(lines); ok {
			return span, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrAnchorNotFound, set.Primary)
}

func (s *Segmenter) locateByAnchor(lines []string, anchor, method string) (*Span, bool) {
	if anchor == "" {
		return nil, false
	}

	bestIdx, bestDist := -1, s.rules.AnchorMaxDistance+1
	for i, line := range lines {
		if d := anchorDistance(line, anchor); d < bestDist {
			bestIdx, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	if bestIdx < 0 {
		return nil, false
	}

	span := s.spanFrom(lines, bestIdx, anchor, method)
	span.Distance = bestDist
	s.log.Debug().
		Str("anchor", anchor).
		Str("method", method).
		Int("distance", bestDist).
		Int("start", span.StartLine).
		Int("end", span.EndLine).
		Msg("section located")
	return span, true
}

// locateByNameShape fires when every anchor phrase was lost to the scan: a
// line that reads like a person's name, adjacent to a "Name(s)" label,
// marks the section start.
func (s *Segmenter) locateByNameShape(lines []string) (*Span, bool) {
	labelRe := regexp.MustCompile(`(?i)\bname\s*\(?s?\)?\s*:?`)

	for i, line := range lines {
		if !labelRe.MatchString(line) {
			continue
		}
		for _, j := range []int{i - 1, i + 1} {
			if j < 0 || j >= len(lines) {
				continue
			}
			if LooksLikePersonName(lines[j]) {
				start := i
				if j < i {
					start = j
				}
				span := s.spanFrom(lines, start, strings.TrimSpace(lines[j]), MethodNameShape)
				s.log.Debug().
					Str("name_line", strings.TrimSpace(lines[j])).
					Int("start", span.StartLine).
					Msg("section located by name shape")
				return span, true
			}
		}
	}
	return nil, false
}

// spanFrom builds the section span starting at startIdx and ending at the
// next numbered heading or boundary phrase.
func (s *Segmenter) spanFrom(lines []string, startIdx int, anchor, method string) *Span {
	end := len(lines)
	limit := startIdx + maxSectionLines
	if limit < end {
		end = limit
	}
	for i := startIdx + 1; i < end; i++ {
		if s.isBoundary(lines[i]) {
			end = i
			break
		}
	}

	return &Span{
		StartLine: startIdx,
		EndLine:   end,
		Anchor:    anchor,
		Method:    method,
		Text:      strings.Join(lines[startIdx:end], "\n"),
	}
}

func (s *Segmenter) isBoundary(line string) bool {
	if numberedHeading.MatchString(line) {
		return true
	}
	lower := strings.ToLower(line)
	for _, b := range s.rules.SectionBoundaries {
		if strings.Contains(lower, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

// FilterInstructionLines drops the boilerplate instruction lines forms carry
// inside their sections, keeping any line that holds a plausible embedded
// name. Long lowercase prose is instruction text; short label-and-value
// lines are data.
func FilterInstructionLines(text string) string {
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, line)
			continue
		}
		if isInstructionLine(trimmed) && !containsEmbeddedName(trimmed) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

var instructionWords = regexp.MustCompile(`(?i)\b(please|complete|instructions?|attach|pursuant|chapter|section\s+\d|must be filed|do not)\b`)

func isInstructionLine(line string) bool {
	if instructionWords.MatchString(line) {
		return true
	}
	// Long sentence-shaped prose with few capitals is boilerplate.
	if len(line) > 120 {
		upper := 0
		for _, r := range line {
			if r >= 'A' && r <= 'Z' {
				upper++
			}
		}
		return upper*10 < len(line)
	}
	return false
}

func containsEmbeddedName(line string) bool {
	words := strings.Fields(line)
	run := 0
	for _, w := range words {
		if nameWord.MatchString(w) {
			run++
			if run >= 2 {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

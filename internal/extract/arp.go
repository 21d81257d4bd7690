// Package extract turns OCR'd filing text into structured case fields. The
// ARP parser walks the ward and guardian sections located by the segmenter;
// the order parser reads signature and clerk-stamp dates. All captures run
// through the scoped correction rules before normalization.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"guardianintake/internal/logger"
	"guardianintake/internal/rules"
	"guardianintake/internal/segment"
)

// ARPFields is everything one Application for Review of Placement yields.
// Empty strings mean the form did not give up the value.
type ARPFields struct {
	CauseNumber string

	WardFirst  string
	WardMiddle string
	WardLast   string
	WardDOB    string
	WardPhone  string
	WardAddr   string

	// LivesWith is "Guardian" or ""; LivesWithKnown distinguishes an
	// answered no from an unanswered question.
	LivesWith      string
	LivesWithKnown bool

	VisitDate string
	VisitTime string

	Guardian1      string
	Guardian1Addr  string
	Guardian1Email string
	Guardian1Phone string
	Guardian1Rel   string
	Guardian1DOB   string

	Guardian2      string
	Guardian2Addr  string
	Guardian2Email string
	Guardian2Phone string
	Guardian2Rel   string
	Guardian2DOB   string

	// FiledDate is the clerk's file stamp, when one survived the scan.
	FiledDate string

	// GuardianSectionFound is false when no anchor or heuristic located
	// the guardian section; the caller may escalate OCR and retry.
	GuardianSectionFound bool

	// Notes is the advisory provenance trail: which corrections fired,
	// which fallbacks ran, what was mirrored or repaired.
	Notes []string
}

// Extractor parses filing text using one ruleset.
type Extractor struct {
	rules rules.Ruleset
	seg   *segment.Segmenter
	log   zerolog.Logger
	now   func() time.Time
}

// NewExtractor builds an Extractor over the given ruleset.
func NewExtractor(rs rules.Ruleset) *Extractor {
	return &Extractor{
		rules: rs,
		seg:   segment.NewSegmenter(rs),
		log:   logger.WithComponent("extract"),
		now:   time.Now,
	}
}

// ParseARP extracts the case fields from ARP text. Parsing is best-effort:
// a missing section leaves its fields empty and adds a note rather than
// failing, so one bad scan region never loses the rest of the form.
func (e *Extractor) ParseARP(text string) *ARPFields {
	out := &ARPFields{}

	text, fired := e.rules.ApplyText(text)
	for _, name := range fired {
		out.note("correction rule fired: " + name)
	}

	out.CauseNumber = e.captureCause(text, out)
	out.FiledDate = e.extractFiledDate(text)

	e.parseWardSection(text, out)
	e.parseGuardianSection(text, out)
	e.parseVisit(text, out)

	e.log.Debug().
		Str("cause", out.CauseNumber).
		Str("ward", strings.TrimSpace(out.WardFirst+" "+out.WardLast)).
		Str("guardian1", out.Guardian1).
		Str("guardian2", out.Guardian2).
		Bool("guardian_section", out.GuardianSectionFound).
		Msg("ARP parsed")
	return out
}

func (e *Extractor) captureCause(text string, out *ARPFields) string {
	raw := CaptureField(text, "Cause No.", "Cause No", "Cause Number")
	if raw != "" {
		corrected, fired := e.rules.Apply(rules.ScopeCauseNumber, raw)
		for _, name := range fired {
			out.note("cause correction: " + name)
		}
		if cause := NormalizeCauseNumber(corrected); cause != "" {
			return cause
		}
	}
	if cause := FindCauseNumber(text); cause != "" {
		out.note("cause number found outside its label")
		return cause
	}
	return ""
}

func (e *Extractor) parseWardSection(text string, out *ARPFields) {
	span, err := e.seg.Locate(text, e.rules.WardAnchors)
	if err != nil {
		out.note("ward section not located")
		if caption := CaptureWardCaption(text); !caption.IsZero() {
			out.WardFirst, out.WardMiddle, out.WardLast = caption.First, caption.Middle, caption.Last
			out.note("ward name taken from guardianship caption")
		}
		return
	}
	if span.Method != segment.MethodPrimary {
		out.note("ward section located by " + span.Method + " anchor")
	}
	section := segment.FilterInstructionLines(span.Text)

	name := SplitFullName(e.captureName(section))
	if name.IsZero() {
		if caption := CaptureWardCaption(text); !caption.IsZero() {
			name = caption
			out.note("ward name taken from guardianship caption")
		}
	}
	out.WardFirst, out.WardMiddle, out.WardLast = name.First, name.Middle, name.Last

	out.WardDOB = e.captureDate(section, out, "Date of Birth", "DOB", "Birth Date")
	out.WardAddr = CaptureAddress(section, "Address", "Residence")
	if phone := CaptureField(section, "Telephone", "Phone", "Tele"); phone != "" {
		out.WardPhone = e.capturePhone(phone, out)
	}
	out.LivesWith, out.LivesWithKnown = ParseLivesWith(span.Text)
	if !out.LivesWithKnown {
		// The question sometimes sits outside the located span.
		out.LivesWith, out.LivesWithKnown = ParseLivesWith(text)
	}
}

func (e *Extractor) parseGuardianSection(text string, out *ARPFields) {
	span, err := e.seg.Locate(text, e.rules.GuardianAnchors)
	if err != nil {
		out.note("guardian section not located")
		return
	}
	out.GuardianSectionFound = true
	if span.Method != segment.MethodPrimary {
		out.note("guardian section located by " + span.Method + " anchor")
	}
	section := segment.FilterInstructionLines(span.Text)

	nameLine := e.captureName(section)
	knownSecondary := e.preAnchorSecondary(text, span.StartLine, out)

	var g1, g2 Name
	switch {
	case nameLine == "":
		out.note("guardian name not captured")
	case knownSecondary != "":
		// The caption already named the second guardian; the name line
		// belongs to the first alone and must not be split.
		g1 = SplitFullName(nameLine)
		g2 = SplitFullName(knownSecondary)
		out.note("second guardian taken from caption: " + knownSecondary)
	default:
		var split bool
		g1, g2, split = SplitNames(nameLine, e.rules.Separators)
		if !split {
			g1 = SplitFullName(nameLine)
		}
	}

	g1 = e.correctSurname(g1, out)
	g2 = e.correctSurname(g2, out)
	out.Guardian1 = g1.Full()
	out.Guardian2 = g2.Full()

	out.Guardian1Addr = CaptureAddress(section, "Address", "Residence")
	out.Guardian1Email = FindEmail(section)

	e.assignGuardianPhones(section, out)
	e.assignGuardianDOBs(section, out)
	e.assignRelationships(section, out)
	e.mirrorAddress(out)
}

// preAnchorSecondary finds a guardian named in the caption above the
// guardian section, which the forms do when two guardians filed jointly.
func (e *Extractor) preAnchorSecondary(text string, anchorLine int, out *ARPFields) string {
	lines := strings.Split(text, "\n")
	if anchorLine > len(lines) {
		anchorLine = len(lines)
	}
	wardFull := strings.TrimSpace(out.WardFirst + " " + out.WardLast)

	for i := 0; i < anchorLine; i++ {
		if !strings.Contains(strings.ToLower(lines[i]), "guardian") {
			continue
		}
		for _, j := range []int{i, i + 1} {
			if j >= anchorLine {
				continue
			}
			candidate := strings.TrimSpace(stripGuardianLabel(lines[j]))
			if candidate == "" || len(strings.Fields(candidate)) < 2 {
				continue
			}
			if !segment.LooksLikePersonName(candidate) {
				continue
			}
			if wardFull != "" && strings.EqualFold(candidate, wardFull) {
				continue
			}
			return candidate
		}
	}
	return ""
}

var guardianLabelRe = regexp.MustCompile(`(?i)^.*guardian[s]?\s*[:,]?\s*`)

func stripGuardianLabel(line string) string {
	if strings.Contains(strings.ToLower(line), "guardian") {
		return guardianLabelRe.ReplaceAllString(line, "")
	}
	return line
}

func (e *Extractor) captureName(section string) string {
	if v := CaptureField(section, "Name(s)", "Names", "Name"); v != "" {
		return v
	}
	// Some scans drop the label; take the first name-shaped line past the
	// anchor.
	lines := strings.Split(section, "\n")
	for i := 1; i < len(lines); i++ {
		if segment.LooksLikePersonName(lines[i]) {
			return strings.TrimSpace(lines[i])
		}
	}
	return ""
}

func (e *Extractor) correctSurname(n Name, out *ARPFields) Name {
	if n.Last == "" || out.WardLast == "" {
		return n
	}
	corrected, changed := CorrectSurname(n.Last, out.WardLast, e.rules.SurnameMaxDistance)
	if changed {
		out.note("surname corrected: " + n.Last + " -> " + corrected)
		n.Last = corrected
	}
	return n
}

func (e *Extractor) assignGuardianPhones(section string, out *ARPFields) {
	raw := CaptureField(section, "Telephone", "Phone", "Tele")
	if raw == "" {
		raw = section
	}
	phones := ExtractPhones(raw)
	if len(phones) == 0 {
		return
	}
	out.Guardian1Phone = phones[0]
	if len(phones) > 1 && out.Guardian2 != "" {
		out.Guardian2Phone = phones[1]
	}
}

func (e *Extractor) assignGuardianDOBs(section string, out *ARPFields) {
	raw := CaptureField(section, "Date of Birth", "DOB", "Birth Date")
	if raw == "" {
		return
	}
	corrected, fired := e.rules.Apply(rules.ScopeDate, raw)
	for _, name := range fired {
		out.note("date correction: " + name)
	}
	if a, b, ok := SplitDates(corrected); ok && out.Guardian2 != "" {
		out.Guardian1DOB, out.Guardian2DOB = a, b
		return
	}
	out.Guardian1DOB = NormalizeDate(corrected)
}

func (e *Extractor) assignRelationships(section string, out *ARPFields) {
	raw := CaptureField(section, "Relationship to Ward", "Relationship")
	rel := SanitizeRelationship(raw)
	if rel == "" {
		return
	}
	if out.Guardian2 != "" {
		if before, after, found := strings.Cut(rel, "/"); found {
			out.Guardian1Rel = before
			out.Guardian2Rel = after
			return
		}
		// One answer for a joint filing applies to both.
		out.Guardian1Rel = rel
		out.Guardian2Rel = rel
		return
	}
	out.Guardian1Rel = rel
}

// mirrorAddress copies the first guardian's address to the second when the
// pair filed from one household. It never overwrites a captured value and
// never fires when the capture already holds two addresses.
func (e *Extractor) mirrorAddress(out *ARPFields) {
	if out.Guardian2 == "" || out.Guardian2Addr != "" || out.Guardian1Addr == "" {
		return
	}
	if LooksLikeTwoAddresses(out.Guardian1Addr) {
		out.note("two addresses captured, not mirrored")
		return
	}
	out.Guardian2Addr = out.Guardian1Addr
	out.note("guardian 2 address mirrored from guardian 1")
}

func (e *Extractor) parseVisit(text string, out *ARPFields) {
	if raw := CaptureField(text, "Visit Date"); raw != "" {
		out.VisitDate = e.normalizeAnyDate(raw)
	}
	if raw := CaptureField(text, "Visit Time"); raw != "" {
		out.VisitTime = strings.TrimSpace(raw)
	}
}

func (e *Extractor) captureDate(section string, out *ARPFields, labels ...string) string {
	raw := CaptureField(section, labels...)
	if raw == "" {
		return ""
	}
	corrected, fired := e.rules.Apply(rules.ScopeDate, raw)
	for _, name := range fired {
		out.note("date correction: " + name)
	}
	return e.normalizeAnyDate(corrected)
}

func (e *Extractor) normalizeAnyDate(raw string) string {
	if d := NormalizeDate(raw); d != "" {
		return d
	}
	return NormalizeMonthTextDate(raw)
}

func (e *Extractor) capturePhone(raw string, out *ARPFields) string {
	corrected, fired := e.rules.Apply(rules.ScopePhone, raw)
	for _, name := range fired {
		out.note("phone correction: " + name)
	}
	return NormalizePhone(corrected)
}

var filedStampRe = regexp.MustCompile(`(?i)\b(?:filed|entered\s+for\s+record)\b`)

// extractFiledDate reads the clerk's file stamp: a "Filed" or "Entered for
// Record" mark with the date within the next sixty characters. Future
// years are clamped to the current year; stamps cannot postdate intake.
func (e *Extractor) extractFiledDate(text string) string {
	for _, loc := range filedStampRe.FindAllStringIndex(text, -1) {
		end := loc[1] + 60
		if end > len(text) {
			end = len(text)
		}
		window := text[loc[1]:end]
		date := e.normalizeAnyDate(window)
		if date != "" {
			return ClampFutureYear(date, e.now())
		}
	}
	return ""
}

// GuardianSignalScore measures how much readable material surrounds the
// word "guardian" in text. The pipeline uses it to pick, among several
// engines' outputs, the one most likely to contain a usable guardian
// section.
func GuardianSignalScore(text string) int {
	lower := strings.ToLower(text)
	score := 0
	idx := 0
	for {
		rel := strings.Index(lower[idx:], "guardian")
		if rel < 0 {
			break
		}
		pos := idx + rel
		start := pos - 250
		if start < 0 {
			start = 0
		}
		end := pos + 350
		if end > len(text) {
			end = len(text)
		}
		for _, r := range text[start:end] {
			if r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
				score++
			}
		}
		idx = pos + len("guardian")
	}
	return score
}

func (f *ARPFields) note(msg string) {
	f.Notes = append(f.Notes, msg)
}

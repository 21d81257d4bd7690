package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Cause numbers print as "25-001234": a two-digit year prefix and a
// six-digit serial. Older filings carry a "C-1-PB-25-001234" docket prefix
// and some drop the leading zero of the serial.
var (
	causeFullRe  = regexp.MustCompile(`(?i)\bC-1-PB-?\s*(\d{2})\s*-\s*(\d{5,6})\b`)
	causePlainRe = regexp.MustCompile(`\b(\d{2})\s*-\s*(\d{5,6})\b`)
)

// NormalizeCauseNumber canonicalizes a cause number to "NN-NNNNNN",
// zero-filling five-digit serials. Returns "" when raw holds no cause
// number shape.
func NormalizeCauseNumber(raw string) string {
	m := causeFullRe.FindStringSubmatch(raw)
	if m == nil {
		m = causePlainRe.FindStringSubmatch(raw)
	}
	if m == nil {
		return ""
	}
	return formatCause(m[1], m[2])
}

func formatCause(year, serial string) string {
	for len(serial) < 6 {
		serial = "0" + serial
	}
	return year + "-" + serial
}

// FindCauseNumber scans whole-document text for a cause number. The docket
// prefix form is trusted anywhere; the plain form is only trusted past the
// caption lines, where stray numbers (ZIP codes, phone fragments) are rare,
// before falling back to the first plain match anywhere.
func FindCauseNumber(text string) string {
	if m := causeFullRe.FindStringSubmatch(text); m != nil {
		return formatCause(m[1], m[2])
	}

	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		body := strings.Join(lines[5:], "\n")
		if m := causePlainRe.FindStringSubmatch(body); m != nil {
			return formatCause(m[1], m[2])
		}
	}
	if m := causePlainRe.FindStringSubmatch(text); m != nil {
		return formatCause(m[1], m[2])
	}
	return ""
}

var phoneDigitsRe = regexp.MustCompile(`\d`)

// NormalizePhone canonicalizes a phone number to "(NNN) NNN-NNNN". An
// eleven-digit number starting with 1 drops the country code. Anything else
// is returned trimmed but untouched.
func NormalizePhone(raw string) string {
	digits := strings.Join(phoneDigitsRe.FindAllString(raw, -1), "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return strings.TrimSpace(raw)
	}
	return fmt.Sprintf("(%s) %s-%s", digits[:3], digits[3:6], digits[6:])
}

// ExtractPhones returns all phone-shaped substrings in order of appearance,
// canonicalized.
func ExtractPhones(text string) []string {
	re := regexp.MustCompile(`\(?\d{3}\)?[\s.-]*\d{3}[\s.-]*\d{4}`)
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		out = append(out, NormalizePhone(m))
	}
	return out
}

var mdyRe = regexp.MustCompile(`\b(\d{1,2})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{2,4})\b`)

// NormalizeDate canonicalizes an M-D-Y shaped date to "MM/DD/YYYY".
// Two-digit years pivot at 50: below it 20xx, otherwise 19xx. Years outside
// 1900-2100 or impossible month/day values return "".
func NormalizeDate(raw string) string {
	m := mdyRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])

	if len(m[3]) == 2 {
		if year < 50 {
			year += 2000
		} else {
			year += 1900
		}
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	if year < 1900 || year > 2100 {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", month, day, year)
}

var monthNames = map[string]int{
	"january": 1, "jan": 1, "february": 2, "feb": 2, "march": 3, "mar": 3,
	"april": 4, "apr": 4, "may": 5, "june": 6, "jun": 6, "july": 7, "jul": 7,
	"august": 8, "aug": 8, "september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10, "november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var (
	monthTextRe    = regexp.MustCompile(`(?i)\b([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\s*,?\s*(\d{4})\b`)
	yearFirstRe    = regexp.MustCompile(`(?i)\b(\d{4})\s+([A-Za-z]+)\.?\s+(\d{1,2})\b`)
	dayOfMonthRe   = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+day\s+of\s+([A-Za-z]+)\.?\s*,?\s*(\d{4})\b`)
)

// NormalizeMonthTextDate canonicalizes spelled-month dates such as
// "September 16, 2025", "2025 Jul 22", or "16th day of September, 2025"
// to "MM/DD/YYYY". Returns "" when no spelled-month date is present.
func NormalizeMonthTextDate(raw string) string {
	if m := dayOfMonthRe.FindStringSubmatch(raw); m != nil {
		return buildTextDate(m[2], m[1], m[3])
	}
	if m := monthTextRe.FindStringSubmatch(raw); m != nil {
		return buildTextDate(m[1], m[2], m[3])
	}
	if m := yearFirstRe.FindStringSubmatch(raw); m != nil {
		return buildTextDate(m[2], m[3], m[1])
	}
	return ""
}

func buildTextDate(monthWord, dayStr, yearStr string) string {
	month, ok := monthNames[strings.ToLower(strings.TrimSuffix(monthWord, "."))]
	if !ok {
		return ""
	}
	day, _ := strconv.Atoi(dayStr)
	year, _ := strconv.Atoi(yearStr)
	if day < 1 || day > 31 || year < 1900 || year > 2100 {
		return ""
	}
	return fmt.Sprintf("%02d/%02d/%04d", month, day, year)
}

// ClampFutureYear pulls a filing or signing date that OCR pushed into the
// future back to the current year. Birth dates must never pass through
// here.
func ClampFutureYear(date string, now time.Time) string {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return date
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return date
	}
	if year > now.Year() {
		parts[2] = strconv.Itoa(now.Year())
		return strings.Join(parts, "/")
	}
	return date
}

var (
	poBoxNoteRe     = regexp.MustCompile(`(?i)\s*\((?:mailing|po box|p\.o\. box)[^)]*\)`)
	camelRunRe      = regexp.MustCompile(`([a-z])([A-Z])`)
	houseNumRe      = regexp.MustCompile(`^(\d+)([A-Za-z]{2,})`)
	leakedHeaderRe  = regexp.MustCompile(`(?i)\b(GUARDIAN\s*\(?s?\)?|Name\s*\(?s?\)?\s*:|Visit\s+Date|Visit\s+Time|Cause\s+No).*$`)
	addressSpacesRe = regexp.MustCompile(`\s{2,}`)
)

// CleanAddress tidies an OCR'd street address: drops parenthetical mailing
// notes, re-inserts the spaces OCR swallows between camel-cased words and
// after house numbers, and truncates any form label that leaked into the
// capture.
func CleanAddress(raw string) string {
	addr := strings.TrimSpace(raw)
	addr = poBoxNoteRe.ReplaceAllString(addr, "")
	addr = leakedHeaderRe.ReplaceAllString(addr, "")
	addr = camelRunRe.ReplaceAllString(addr, "$1 $2")
	addr = houseNumRe.ReplaceAllString(addr, "$1 $2")
	addr = addressSpacesRe.ReplaceAllString(addr, " ")
	return strings.Trim(strings.TrimSpace(addr), ",")
}

var (
	zipRe        = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	streetWordRe = regexp.MustCompile(`(?i)\b(St|Street|Ave|Avenue|Dr|Drive|Rd|Road|Ln|Lane|Blvd|Ct|Court|Cir|Circle|Hwy|Loop|Trail|Cove)\b`)
	stateAbbrRe  = regexp.MustCompile(`\b(TX|OK|NM|LA|AR|CA|AZ|CO|FL|GA|NY)\b`)
)

// LooksLikeTwoAddresses reports whether a captured value plausibly holds
// two distinct addresses, which blocks address mirroring between subjects.
func LooksLikeTwoAddresses(s string) bool {
	if len(zipRe.FindAllString(s, -1)) >= 2 {
		return true
	}
	if len(stateAbbrRe.FindAllString(s, -1)) >= 2 {
		return true
	}
	if len(streetWordRe.FindAllString(s, -1)) >= 2 {
		for _, sep := range []string{" and ", "/", ";", "&"} {
			if strings.Contains(strings.ToLower(s), sep) {
				return true
			}
		}
	}
	return false
}

// relationshipWhitelist is the set of values the intake sheet accepts.
var relationshipWhitelist = map[string]string{
	"father":          "Father",
	"mother":          "Mother",
	"father/mother":   "Father/Mother",
	"parent":          "Parent",
	"parents":         "Parent",
	"son":             "Son",
	"daughter":        "Daughter",
	"public guardian": "Public Guardian",
}

// roleAliases map informal relationship words to canonical roles.
var roleAliases = map[string]string{
	"mom": "Mother", "mommy": "Mother", "mother": "Mother",
	"dad": "Father", "daddy": "Father", "father": "Father",
	"son": "Son", "daughter": "Daughter", "parent": "Parent",
}

var relationshipJunkRe = regexp.MustCompile(`(?i)\d|visit|convict|report|year`)

// SanitizeRelationship reduces a captured relationship to a whitelisted
// value. OCR frequently drags surrounding prose into this field; anything
// over 30 characters or containing filing vocabulary is discarded.
func SanitizeRelationship(raw string) string {
	val := strings.TrimSpace(strings.Trim(raw, ".,:;"))
	if val == "" || len(val) > 30 || relationshipJunkRe.MatchString(val) {
		return ""
	}
	lower := strings.ToLower(val)
	if canonical, ok := relationshipWhitelist[lower]; ok {
		return canonical
	}
	if canonical, ok := roleAliases[lower]; ok {
		return canonical
	}
	// Joint forms like "Mother and Father".
	for _, sep := range []string{" and ", "/", " & "} {
		if parts := strings.SplitN(lower, sep, 2); len(parts) == 2 {
			a, aok := roleAliases[strings.TrimSpace(parts[0])]
			b, bok := roleAliases[strings.TrimSpace(parts[1])]
			if aok && bok {
				return a + "/" + b
			}
		}
	}
	return ""
}

// NormalizeRole canonicalizes a single relationship word, returning the
// input trimmed when no alias applies.
func NormalizeRole(raw string) string {
	val := strings.TrimSpace(raw)
	if canonical, ok := roleAliases[strings.ToLower(val)]; ok {
		return canonical
	}
	return val
}

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)

// FindEmail returns the first email address in text, or "".
func FindEmail(text string) string {
	return emailRe.FindString(text)
}

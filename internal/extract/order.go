package extract

import (
	"errors"
	"regexp"
	"strings"

	"guardianintake/internal/segment"
)

// ErrOrderIncomplete is returned when an order yields no cause number or no
// signing date. The caller may escalate OCR and retry once.
var ErrOrderIncomplete = errors.New("order missing cause number or signing date")

// OrderFields is what a signed court order yields.
type OrderFields struct {
	CauseNumber string

	// OrderDate is the judge's signing date, the appointment date for the
	// case record.
	OrderDate string

	// FiledDate is the clerk's file stamp, when present.
	FiledDate string

	// WardName comes from the guardianship caption. The merge only uses it
	// to fill a ward name no application supplied.
	WardName Name

	Notes []string
}

var (
	signedRe = regexp.MustCompile(`(?i)\bsigned\b(?:\s+(?:on|and\s+entered))?(?:\s+this)?(?:\s+the)?`)
	judgeRe  = regexp.MustCompile(`(?i)\bjudge\b|\bpresiding\b`)

	captionRe = regexp.MustCompile(`(?im)\b(?:guardianship of|in re:?)\s+(?:the\s+)?(?:person\s+(?:and\s+estate\s+)?of\s+)?([A-Za-z][A-Za-z.'’ -]+?)(?:,|\s+an?\s+incapacitated|$)`)
)

// CaptureWardCaption reads the ward's name from a guardianship caption such
// as "IN THE GUARDIANSHIP OF KARISSA HALL, AN INCAPACITATED PERSON".
func CaptureWardCaption(text string) Name {
	for _, m := range captionRe.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if segment.LooksLikePersonName(candidate) {
			return SplitFullName(TitleCaseName(candidate))
		}
		// "In Re:" captions nest the style, "In Re: The Guardianship of the
		// Person of Derek Hall". The name sits after the last "of".
		if idx := strings.LastIndex(strings.ToLower(candidate), " of "); idx >= 0 {
			candidate = strings.TrimSpace(candidate[idx+4:])
			if segment.LooksLikePersonName(candidate) {
				return SplitFullName(TitleCaseName(candidate))
			}
		}
	}
	return Name{}
}

// ParseOrder extracts the cause number and signing date from order text.
// knownCauses are cause numbers already seen this run; a near-miss against
// one of them is corrected, since orders and their ARPs arrive together and
// OCR mangles one digit far more often than two filings collide.
func (e *Extractor) ParseOrder(text string, knownCauses []string) (*OrderFields, error) {
	out := &OrderFields{}

	text, fired := e.rules.ApplyText(text)
	for _, name := range fired {
		out.Notes = append(out.Notes, "correction rule fired: "+name)
	}

	out.CauseNumber = FindCauseNumber(text)
	if corrected, ok := ClosestKnownCause(out.CauseNumber, knownCauses); ok {
		out.Notes = append(out.Notes, "cause corrected against known cause: "+out.CauseNumber+" -> "+corrected)
		out.CauseNumber = corrected
	}

	out.OrderDate = e.extractOrderDate(text)
	out.FiledDate = e.extractFiledDate(text)
	out.WardName = CaptureWardCaption(text)

	if out.CauseNumber == "" || out.OrderDate == "" {
		return out, ErrOrderIncomplete
	}

	e.log.Debug().
		Str("cause", out.CauseNumber).
		Str("order_date", out.OrderDate).
		Str("filed_date", out.FiledDate).
		Msg("order parsed")
	return out, nil
}

// extractOrderDate reads the signing date. Orders write it after a "Signed"
// variant ("Signed on", "Signed this the 16th day of September, 2025") and
// always above the judge's signature block, so the signature block caps the
// search window when no stamp follows "Signed" directly.
func (e *Extractor) extractOrderDate(text string) string {
	for _, loc := range signedRe.FindAllStringIndex(text, -1) {
		end := loc[1] + 80
		if end > len(text) {
			end = len(text)
		}
		if date := e.normalizeAnyDate(text[loc[1]:end]); date != "" {
			return ClampFutureYear(date, e.now())
		}
	}

	// No date near "Signed"; take the last date above the signature block.
	if loc := judgeRe.FindStringIndex(text); loc != nil {
		start := loc[0] - 200
		if start < 0 {
			start = 0
		}
		if date := e.normalizeAnyDate(text[start:loc[0]]); date != "" {
			return ClampFutureYear(date, e.now())
		}
	}
	return ""
}

// ClosestKnownCause returns the known cause that differs from cause by a
// single character, requiring the same year prefix and tail length. More
// than one edit is a different case, not a misread.
func ClosestKnownCause(cause string, known []string) (string, bool) {
	if cause == "" {
		return "", false
	}
	for _, k := range known {
		if k == cause {
			return "", false
		}
	}
	prefix, tail, found := strings.Cut(cause, "-")
	if !found {
		return "", false
	}
	for _, k := range known {
		kPrefix, kTail, kFound := strings.Cut(k, "-")
		if !kFound || kPrefix != prefix || len(kTail) != len(tail) {
			continue
		}
		if hammingDistance(kTail, tail) == 1 {
			return k, true
		}
	}
	return "", false
}

func hammingDistance(a, b string) int {
	if len(a) != len(b) {
		return len(a) + len(b)
	}
	d := 0
	for i := range a {
		if a[i] != b[i] {
			d++
		}
	}
	return d
}

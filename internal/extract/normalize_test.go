package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCauseNumber(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"25-001234", "25-001234"},
		{"25-01234", "25-001234"},
		{"25 - 001234", "25-001234"},
		{"C-1-PB-25-01234", "25-001234"},
		{"c-1-pb 25-001234", "25-001234"},
		{"no cause here", ""},
		{"12345", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeCauseNumber(tc.in), "input %q", tc.in)
	}
}

func TestFindCauseNumberPrefersDocketPrefix(t *testing.T) {
	text := "line1\nline2 99-88888 noise\nC-1-PB-25-001234\n"
	assert.Equal(t, "25-001234", FindCauseNumber(text))
}

func TestFindCauseNumberSkipsCaptionNoise(t *testing.T) {
	// A plain cause shape in the caption loses to one in the body.
	text := "caption 11-22222\nl2\nl3\nl4\nl5\nCause No. 25-001234\n"
	assert.Equal(t, "25-001234", FindCauseNumber(text))
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"512-555-1234", "(512) 555-1234"},
		{"(512) 555 1234", "(512) 555-1234"},
		{"1-512-555-1234", "(512) 555-1234"},
		{"5125551234", "(512) 555-1234"},
		{"555-1234", "555-1234"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizePhone(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"7-22-60", "07/22/1960"},
		{"3/23/56", "03/23/1956"},
		{"1-5-02", "01/05/2002"},
		{"12/31/1999", "12/31/1999"},
		{"9.16.2025", "09/16/2025"},
		{"13-40-2025", ""},
		{"07/22/2500", ""},
		{"no date", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDate(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeMonthTextDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"September 16, 2025", "09/16/2025"},
		{"Sep 16 2025", "09/16/2025"},
		{"2025 Jul 22", "07/22/2025"},
		{"this the 16th day of September, 2025", "09/16/2025"},
		{"just words", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeMonthTextDate(tc.in), "input %q", tc.in)
	}
}

func TestClampFutureYear(t *testing.T) {
	now := time.Date(2025, 8, 25, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "09/16/2025", ClampFutureYear("09/16/2027", now))
	assert.Equal(t, "09/16/2024", ClampFutureYear("09/16/2024", now))
	assert.Equal(t, "not a date", ClampFutureYear("not a date", now))
}

func TestCleanAddress(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"804Elmwood Dr, Austin, TX 78745", "804 Elmwood Dr, Austin, TX 78745"},
		{"804 ElmwoodDr, Austin, TX 78745", "804 Elmwood Dr, Austin, TX 78745"},
		{"804 Elmwood Dr (mailing: PO Box 12), Austin, TX 78745", "804 Elmwood Dr, Austin, TX 78745"},
		{"804 Elmwood Dr Visit Date: 08/12/2025", "804 Elmwood Dr"},
		{"  804 Elmwood   Dr  ", "804 Elmwood Dr"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanAddress(tc.in), "input %q", tc.in)
	}
}

func TestLooksLikeTwoAddresses(t *testing.T) {
	assert.True(t, LooksLikeTwoAddresses("804 Elmwood Dr, Austin, TX 78745 and 12 Oak St, Waco, TX 76701"))
	assert.True(t, LooksLikeTwoAddresses("1 A St, Austin TX / 2 B Ave, Dallas TX"))
	assert.False(t, LooksLikeTwoAddresses("804 Elmwood Dr, Austin, TX 78745"))
}

func TestSanitizeRelationship(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Father", "Father"},
		{"mother", "Mother"},
		{"Mom", "Mother"},
		{"Father/Mother", "Father/Mother"},
		{"mother and father", "Mother/Father"},
		{"Public Guardian", "Public Guardian"},
		{"convicted of a felony in the last year", ""},
		{"guardian since 2019", ""},
		{"the guardian visits the ward weekly and submits reports", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, SanitizeRelationship(tc.in), "input %q", tc.in)
	}
}

func TestFindEmail(t *testing.T) {
	assert.Equal(t, "dhall@example.com", FindEmail("Email: dhall@example.com phone"))
	assert.Equal(t, "", FindEmail("no email here"))
}

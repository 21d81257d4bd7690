package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardianintake/internal/rules"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(rules.Default())
}

const jointARP = `APPLICATION FOR REVIEW OF PLACEMENT
Cause No. 25-001234

1. WARD
Name: Karissa Hall
Date of Birth: 5-14-58
Address: 804 Elmwood Dr, Austin, TX 78745
Telephone: 512-555-0100

2. GUARDIAN(s)
Name(s): Kar; and Derek Hall
Address: 804 Elmwood Dr, Austin, TX 78745
Telephone: 512-555-1234
Email: dhall@example.com
Relationship: Mother/Father
Date of Birth: 7-22-60/3-23-56

3. VISIT
Visit Date: 08/12/2025
Visit Time: 10:30 AM
`

func TestParseARPJointGuardians(t *testing.T) {
	f := newExtractor(t).ParseARP(jointARP)

	assert.Equal(t, "25-001234", f.CauseNumber)
	assert.Equal(t, "Karissa", f.WardFirst)
	assert.Equal(t, "Hall", f.WardLast)
	assert.Equal(t, "05/14/1958", f.WardDOB)
	assert.Equal(t, "(512) 555-0100", f.WardPhone)
	assert.Contains(t, f.WardAddr, "804 Elmwood Dr")

	require.True(t, f.GuardianSectionFound)
	assert.Equal(t, "Kar Hall", f.Guardian1)
	assert.Equal(t, "Derek Hall", f.Guardian2)
	assert.Equal(t, "(512) 555-1234", f.Guardian1Phone)
	assert.Equal(t, "dhall@example.com", f.Guardian1Email)
	assert.Equal(t, "Mother", f.Guardian1Rel)
	assert.Equal(t, "Father", f.Guardian2Rel)
	assert.Equal(t, "07/22/1960", f.Guardian1DOB)
	assert.Equal(t, "03/23/1956", f.Guardian2DOB)

	assert.Equal(t, "08/12/2025", f.VisitDate)
	assert.Equal(t, "10:30 AM", f.VisitTime)
}

func TestParseARPMirrorsAddressToSecondGuardian(t *testing.T) {
	f := newExtractor(t).ParseARP(jointARP)

	assert.Contains(t, f.Guardian1Addr, "804 Elmwood Dr")
	assert.Equal(t, f.Guardian1Addr, f.Guardian2Addr)
}

func TestParseARPDoesNotMirrorTwoAddresses(t *testing.T) {
	text := strings.Replace(jointARP,
		"Address: 804 Elmwood Dr, Austin, TX 78745\nTelephone: 512-555-1234",
		"Address: 804 Elmwood Dr, Austin, TX 78745 and 12 Oak St, Waco, TX 76701\nTelephone: 512-555-1234",
		1)
	// Only the guardian address line changes; the ward's stays single.
	f := newExtractor(t).ParseARP(text)

	require.Equal(t, "Derek Hall", f.Guardian2)
	assert.Empty(t, f.Guardian2Addr)
}

func TestParseARPCorrectsGuardianSurnameTowardWard(t *testing.T) {
	text := strings.Replace(jointARP, "Name: Karissa Hall", "Name: Karissa Park", 1)
	text = strings.Replace(text, "Name(s): Kar; and Derek Hall", "Name(s): Derek Pack", 1)

	f := newExtractor(t).ParseARP(text)

	assert.Equal(t, "Park", f.WardLast)
	assert.Equal(t, "Derek Park", f.Guardian1)
	assert.Contains(t, strings.Join(f.Notes, "\n"), "surname corrected")
}

func TestParseARPPreAnchorSecondarySkipsSplitting(t *testing.T) {
	text := `APPLICATION FOR REVIEW OF PLACEMENT
Cause No. 25-001234
Guardians: Dana Hall

1. WARD
Name: Karissa Hall

2. GUARDIAN(s)
Name(s): Derek Hall
Relationship: Father

3. VISIT
Visit Date: 08/12/2025
`
	f := newExtractor(t).ParseARP(text)

	assert.Equal(t, "Derek Hall", f.Guardian1, "caption-known secondary must suppress name-line splitting")
	assert.Equal(t, "Dana Hall", f.Guardian2)
}

func TestParseARPLivesWithCheckbox(t *testing.T) {
	base := `1. WARD
Name: Karissa Hall
Does the ward live with the guardian? %s

2. GUARDIAN(s)
Name(s): Derek Hall
`
	cases := []struct {
		mark  string
		want  string
		known bool
	}{
		{"[X] Yes [ ] No", "Guardian", true},
		{"[ ] Yes [X] No", "", true},
		{"[X] Yes [X] No", "Guardian", true},
		{"[ ] Yes [ ] No", "", false},
	}
	for _, tc := range cases {
		f := newExtractor(t).ParseARP(strings.Replace(base, "%s", tc.mark, 1))
		assert.Equal(t, tc.known, f.LivesWithKnown, "mark %q", tc.mark)
		assert.Equal(t, tc.want, f.LivesWith, "mark %q", tc.mark)
	}
}

func TestParseARPMissingGuardianSection(t *testing.T) {
	text := `Cause No. 25-001234

1. WARD
Name: Karissa Hall
`
	f := newExtractor(t).ParseARP(text)

	assert.False(t, f.GuardianSectionFound)
	assert.Empty(t, f.Guardian1)
	assert.Contains(t, strings.Join(f.Notes, "\n"), "guardian section not located")
}

func TestParseARPFiledStamp(t *testing.T) {
	text := "FILED 8/1/2025 3:02 PM\nCounty Clerk\n" + jointARP
	f := newExtractor(t).ParseARP(text)
	assert.Equal(t, "08/01/2025", f.FiledDate)
}

func TestGuardianSignalScore(t *testing.T) {
	rich := strings.Repeat("x", 200) + " guardian " + strings.Repeat("y", 200)
	poor := "guardian"
	assert.Greater(t, GuardianSignalScore(rich), GuardianSignalScore(poor))
	assert.Zero(t, GuardianSignalScore("nothing relevant"))
}

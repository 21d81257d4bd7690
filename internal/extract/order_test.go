package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderText = `CAUSE NO. 25-001234
IN THE GUARDIANSHIP OF KARISSA HALL, AN INCAPACITATED PERSON

ORDER APPOINTING GUARDIAN

The Court finds the appointment proper.

Signed this the 16th day of September, 2024.

_______________________
JUDGE PRESIDING
`

func TestParseOrder(t *testing.T) {
	f, err := newExtractor(t).ParseOrder(orderText, nil)
	require.NoError(t, err)

	assert.Equal(t, "25-001234", f.CauseNumber)
	assert.Equal(t, "09/16/2024", f.OrderDate)
}

func TestParseOrderSignedOnNumericDate(t *testing.T) {
	text := "CAUSE NO. 25-001234\n\nORDER\n\nSigned on 9/16/2024\nJUDGE\n"
	f, err := newExtractor(t).ParseOrder(text, nil)
	require.NoError(t, err)
	assert.Equal(t, "09/16/2024", f.OrderDate)
}

func TestParseOrderDateBeforeJudgeBlock(t *testing.T) {
	// No "Signed" survives the scan; the date above the signature block
	// still does.
	text := "CAUSE NO. 25-001234\n\nORDER\n\nSeptember 16, 2024\n\nJUDGE PRESIDING\n"
	f, err := newExtractor(t).ParseOrder(text, nil)
	require.NoError(t, err)
	assert.Equal(t, "09/16/2024", f.OrderDate)
}

func TestParseOrderCorrectsCauseAgainstKnown(t *testing.T) {
	text := "CAUSE NO. 25-001284\n\nORDER\n\nSigned on 9/16/2024\nJUDGE\n"
	f, err := newExtractor(t).ParseOrder(text, []string{"25-001234", "24-000001"})
	require.NoError(t, err)
	assert.Equal(t, "25-001234", f.CauseNumber, "single-digit misread snaps to the known cause")
}

func TestParseOrderKeepsDistinctCause(t *testing.T) {
	text := "CAUSE NO. 25-009999\n\nORDER\n\nSigned on 9/16/2024\nJUDGE\n"
	f, err := newExtractor(t).ParseOrder(text, []string{"25-001234"})
	require.NoError(t, err)
	assert.Equal(t, "25-009999", f.CauseNumber, "two or more edits is a different case")
}

func TestParseOrderIncomplete(t *testing.T) {
	_, err := newExtractor(t).ParseOrder("ORDER with no cause and no date\n", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOrderIncomplete)
}

func TestClosestKnownCause(t *testing.T) {
	got, ok := ClosestKnownCause("25-001284", []string{"25-001234"})
	assert.True(t, ok)
	assert.Equal(t, "25-001234", got)

	// Different year prefix never corrects.
	_, ok = ClosestKnownCause("24-001284", []string{"25-001234"})
	assert.False(t, ok)

	// Exact match needs no correction.
	_, ok = ClosestKnownCause("25-001234", []string{"25-001234"})
	assert.False(t, ok)
}

func TestCaptureWardCaption(t *testing.T) {
	name := CaptureWardCaption("IN THE MATTER OF THE GUARDIANSHIP OF KARISSA HALL, AN INCAPACITATED PERSON\n")
	assert.Equal(t, "Karissa", name.First)
	assert.Equal(t, "Hall", name.Last)

	name = CaptureWardCaption("In Re: The Guardianship of the Person of Derek Hall\nORDER\n")
	assert.Equal(t, "Derek", name.First)
	assert.Equal(t, "Hall", name.Last)

	assert.True(t, CaptureWardCaption("ORDER APPOINTING GUARDIAN\n").IsZero())
}

func TestParseOrderCarriesWardCaption(t *testing.T) {
	f, err := newExtractor(t).ParseOrder(orderText, nil)
	require.NoError(t, err)
	assert.Equal(t, "Hall", f.WardName.Last)
}

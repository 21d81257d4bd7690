package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaptureFieldSameLine(t *testing.T) {
	section := "Name: Karissa Hall\nAddress: 804 Elmwood Dr\n"
	assert.Equal(t, "Karissa Hall", CaptureField(section, "Name(s)", "Names", "Name"))
}

func TestCaptureFieldValueOnNextLine(t *testing.T) {
	section := "Name:\n\nKarissa Hall\nAddress: 804 Elmwood Dr\n"
	assert.Equal(t, "Karissa Hall", CaptureField(section, "Name"))
}

func TestCaptureFieldNeverStealsNextLabel(t *testing.T) {
	// A blank field must stay blank, not absorb its neighbor's value.
	section := "Name:\nAddress: 804 Elmwood Dr\n"
	assert.Equal(t, "", CaptureField(section, "Name"))
}

func TestCaptureFieldMissingLabel(t *testing.T) {
	assert.Equal(t, "", CaptureField("nothing here\n", "Name"))
}

func TestCaptureAddressStitchesCityStateZip(t *testing.T) {
	section := "Address: 804 Elmwood Dr\nAustin, TX 78745\nTelephone: 512-555-0100\n"
	assert.Equal(t, "804 Elmwood Dr, Austin, TX 78745", CaptureAddress(section, "Address"))
}

func TestCaptureAddressSingleLine(t *testing.T) {
	section := "Address: 804 Elmwood Dr, Austin, TX 78745\n"
	assert.Equal(t, "804 Elmwood Dr, Austin, TX 78745", CaptureAddress(section, "Address"))
}

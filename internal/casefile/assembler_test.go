package casefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempAssembler(t *testing.T) (*Assembler, *Store) {
	t.Helper()
	s := tempStore(t)
	a := NewAssembler(s)
	a.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	return a, s
}

func TestUpsertCreatesRecord(t *testing.T) {
	a, s := tempAssembler(t)

	res, err := a.Upsert("25-001234", map[string]string{
		ColWardLast:  "Hall",
		ColWardFirst: "Karissa",
	})
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.ElementsMatch(t, []string{ColWardLast, ColWardFirst}, res.Written)
	require.Equal(t, 1, s.Len())

	rec, _ := s.Get("25-001234")
	assert.Equal(t, "Hall", rec.Get(ColWardLast))
	assert.NotEmpty(t, rec.Get(ColLastUpdated))
}

func TestUpsertIsIdempotent(t *testing.T) {
	a, s := tempAssembler(t)
	values := map[string]string{ColWardLast: "Hall", ColWardDOB: "07/22/1960"}

	_, err := a.Upsert("25-001234", values)
	require.NoError(t, err)
	first, _ := s.Get("25-001234")
	firstRow := first.Row()

	res, err := a.Upsert("25-001234", values)
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Empty(t, res.Written)
	assert.Empty(t, res.Skipped)
	assert.Equal(t, 1, s.Len(), "same cause never grows a second row")

	second, _ := s.Get("25-001234")
	assert.Equal(t, firstRow, second.Row())
}

func TestUpsertKeepsPopulatedValues(t *testing.T) {
	a, s := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColWardPhone: "(512) 555-0100"})
	require.NoError(t, err)

	res, err := a.Upsert("25-001234", map[string]string{ColWardPhone: "(512) 555-9999"})
	require.NoError(t, err)

	assert.Equal(t, []string{ColWardPhone}, res.Skipped)
	rec, _ := s.Get("25-001234")
	assert.Equal(t, "(512) 555-0100", rec.Get(ColWardPhone))
}

func TestUpsertFillsNeedsReviewCells(t *testing.T) {
	a, s := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColWardAddr: "804 Elmwood Dr"})
	require.NoError(t, err)
	require.NoError(t, a.Flag("25-001234", ColWardAddr))

	res, err := a.Upsert("25-001234", map[string]string{ColWardAddr: "804 Elmwood Dr, Austin, TX 78745"})
	require.NoError(t, err)

	assert.Equal(t, []string{ColWardAddr}, res.Written)
	rec, _ := s.Get("25-001234")
	assert.Equal(t, "804 Elmwood Dr, Austin, TX 78745", rec.Get(ColWardAddr))
}

func TestUpsertNeverTouchesVerifiedFields(t *testing.T) {
	a, s := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColGuardian1: "Dana Hall"})
	require.NoError(t, err)
	require.NoError(t, a.Verify("25-001234", ColGuardian1))

	res, err := a.Upsert("25-001234", map[string]string{ColGuardian1: "Dane Hill"})
	require.NoError(t, err)

	assert.Equal(t, []string{ColGuardian1}, res.Protected)
	assert.Empty(t, res.Written)
	rec, _ := s.Get("25-001234")
	assert.Equal(t, "Dana Hall", rec.Get(ColGuardian1))
	assert.Equal(t, StatusVerified, rec.Status(ColGuardian1))
}

func TestUpsertReplacesAppointmentDate(t *testing.T) {
	// A later order supersedes the appointment date, unlike other fields.
	a, s := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColDateAppointed: "09/16/2024"})
	require.NoError(t, err)

	res, err := a.Upsert("25-001234", map[string]string{ColDateAppointed: "10/02/2024"})
	require.NoError(t, err)

	assert.Equal(t, []string{ColDateAppointed}, res.Written)
	rec, _ := s.Get("25-001234")
	assert.Equal(t, "10/02/2024", rec.Get(ColDateAppointed))
}

func TestUpsertRequiresCause(t *testing.T) {
	a, _ := tempAssembler(t)
	_, err := a.Upsert("", map[string]string{ColWardLast: "Hall"})
	assert.ErrorIs(t, err, ErrNoCause)
}

func TestUpsertLockedStoreChangesNothing(t *testing.T) {
	a, s := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColWardLast: "Hall"})
	require.NoError(t, err)

	// A directory at the workbook path makes every save fail.
	s.path = filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.Mkdir(s.path, 0o755))

	_, err = a.Upsert("25-001234", map[string]string{ColWardFirst: "Karissa"})
	require.Error(t, err)
	rec, _ := s.Get("25-001234")
	assert.Empty(t, rec.Get(ColWardFirst), "failed save rolls the merge back")

	_, err = a.Upsert("25-009999", map[string]string{ColWardLast: "Smith"})
	require.Error(t, err)
	_, ok := s.Get("25-009999")
	assert.False(t, ok, "failed insert leaves no row behind")
	assert.Equal(t, 1, s.Len())
}

func TestVerifyUnknownCause(t *testing.T) {
	a, _ := tempAssembler(t)
	assert.Error(t, a.Verify("25-404404", ColWardLast))
}

func TestFlagVerifiedFieldRefused(t *testing.T) {
	a, _ := tempAssembler(t)
	_, err := a.Upsert("25-001234", map[string]string{ColWardLast: "Hall"})
	require.NoError(t, err)
	require.NoError(t, a.Verify("25-001234", ColWardLast))

	assert.Error(t, a.Flag("25-001234", ColWardLast))
}

package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"guardianintake/internal/casefile"
	"guardianintake/internal/extract"
	"guardianintake/internal/ocr"
	"guardianintake/internal/rules"
)

const arpScan = `APPLICATION FOR REVIEW OF PLACEMENT
Cause No. 25-001234

1. WARD
Name: Karissa Hall
Date of Birth: 5-14-58
Address: 804 Elmwood Dr, Austin, TX 78745

2. GUARDIAN(s)
Name(s): Derek Hall
Relationship: Father

3. VISIT
Visit Date: 08/12/2025
`

const orderScan = `CAUSE NO. 25-001234

ORDER APPOINTING GUARDIAN

Signed on 9/16/2024
JUDGE PRESIDING
`

// fakeOCR returns scripted text per document path. Escalations walk the
// remainder of the script.
type fakeOCR struct {
	texts map[string][]string
	runs  int
}

func (f *fakeOCR) result(path string, idx int) (*ocr.CascadeResult, error) {
	script := f.texts[filepath.Base(path)]
	if idx >= len(script) {
		return nil, ocr.ErrCascadeExhausted
	}
	text := script[idx]
	res := &ocr.CascadeResult{
		Result: ocr.Result{Engine: "stub", Text: text, CharCount: ocr.CountSignal(text)},
	}
	res.Sufficient = res.CharCount >= 80
	for i := 0; i <= idx; i++ {
		res.Attempts = append(res.Attempts, ocr.Attempt{Engine: "stub", Try: 1})
	}
	return res, nil
}

func (f *fakeOCR) Run(_ context.Context, doc ocr.Document) (*ocr.CascadeResult, error) {
	f.runs++
	return f.result(doc.Path, 0)
}

func (f *fakeOCR) Escalate(_ context.Context, doc ocr.Document, prev *ocr.CascadeResult) (*ocr.CascadeResult, error) {
	return f.result(doc.Path, len(prev.Attempts))
}

func writePDF(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4 stub"), 0o644))
}

func newRunner(t *testing.T, texts map[string][]string) (*Runner, *casefile.Store) {
	t.Helper()
	dir := t.TempDir()
	store, err := casefile.OpenStore(filepath.Join(dir, "cases.xlsx"), dir)
	require.NoError(t, err)

	r := NewRunner(&fakeOCR{texts: texts}, extract.NewExtractor(rules.Default()), casefile.NewAssembler(store), store)
	r.now = func() time.Time { return time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC) }
	return r, store
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindARP, Classify("ARP - Hall, Karissa.pdf"))
	assert.Equal(t, KindOrder, Classify("Order Appointing Guardian - Hall.pdf"))
	assert.Equal(t, KindSkip, Classify("Visit Approval - Hall.pdf"))
	assert.Equal(t, KindSkip, Classify("Approved Visits 2025.pdf"))
	assert.Equal(t, KindSkip, Classify("notes.txt"))
}

func TestRunProcessesARPThenOrder(t *testing.T) {
	r, store := newRunner(t, map[string][]string{
		"arp hall.pdf":   {arpScan},
		"order hall.pdf": {orderScan},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")
	writePDF(t, dir, "order hall.pdf")

	report, err := r.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Processed)
	assert.Zero(t, report.Failed)
	require.Equal(t, 1, store.Len())

	rec, ok := store.Get("25-001234")
	require.True(t, ok)
	assert.Equal(t, "Hall", rec.Get(casefile.ColWardLast))
	assert.Equal(t, "Derek Hall", rec.Get(casefile.ColGuardian1))
	assert.Equal(t, "08/20/2025", rec.Get(casefile.ColDateSubmitted))
	assert.Equal(t, "09/16/2024", rec.Get(casefile.ColDateAppointed))
}

func TestRunCorrectsARPCauseAgainstOrder(t *testing.T) {
	// The scanned application misreads one digit of the cause; the typed
	// order read during the pre-pass supplies the cause it snaps to.
	misread := strings.Replace(arpScan, "Cause No. 25-001234", "Cause No. 25-001284", 1)
	r, store := newRunner(t, map[string][]string{
		"arp hall.pdf":   {misread},
		"order hall.pdf": {orderScan},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")
	writePDF(t, dir, "order hall.pdf")

	_, err := r.Run(context.Background(), dir)
	require.NoError(t, err)

	require.Equal(t, 1, store.Len(), "both filings land on the order's cause")
	rec, ok := store.Get("25-001234")
	require.True(t, ok)
	assert.Equal(t, "Hall", rec.Get(casefile.ColWardLast))
	assert.Equal(t, "09/16/2024", rec.Get(casefile.ColDateAppointed))
}

func TestRunFlagsMissingWardNameForReview(t *testing.T) {
	headless := "Cause No. 25-001234\n\n2. GUARDIAN(s)\nName(s): Derek Hall\nRelationship: Father\n"
	r, _ := newRunner(t, map[string][]string{
		"arp hall.pdf": {headless},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")

	report, err := r.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	assert.True(t, report.Reports[0].NeedsReview)
}

func TestRunEscalatesUntilGuardianSectionFound(t *testing.T) {
	headless := `Cause No. 25-001234

1. WARD
Name: Karissa Hall
`
	r, store := newRunner(t, map[string][]string{
		"arp hall.pdf": {headless, arpScan},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")

	report, err := r.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)

	rec, ok := store.Get("25-001234")
	require.True(t, ok)
	assert.Equal(t, "Derek Hall", rec.Get(casefile.ColGuardian1), "escalated text supplies the guardian")
	assert.GreaterOrEqual(t, len(report.Reports[0].Attempts), 2)
}

func TestRunKeepsBestReadingWhenEscalationExhausts(t *testing.T) {
	headless := `Cause No. 25-001234

1. WARD
Name: Karissa Hall
`
	r, store := newRunner(t, map[string][]string{
		"arp hall.pdf": {headless},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")

	report, err := r.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)

	rec, ok := store.Get("25-001234")
	require.True(t, ok)
	assert.Equal(t, "Hall", rec.Get(casefile.ColWardLast), "ward fields survive a missing guardian section")
	assert.Empty(t, rec.Get(casefile.ColGuardian1))
	assert.Contains(t, report.Reports[0].Notes, "guardian section not located")
}

func TestRunReportsMissingCause(t *testing.T) {
	r, _ := newRunner(t, map[string][]string{
		"arp hall.pdf": {"1. WARD\nName: Karissa Hall\n\n2. GUARDIAN(s)\nName(s): Derek Hall\n"},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")

	report, err := r.Run(context.Background(), dir)
	require.ErrorIs(t, err, ErrNoDocuments)
	assert.Equal(t, 1, report.Failed)
	require.Error(t, report.Reports[0].Err)
}

func TestRunEmptyFolder(t *testing.T) {
	r, _ := newRunner(t, nil)
	report, err := r.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Zero(t, report.Processed)
}

func TestRunIsIdempotent(t *testing.T) {
	r, store := newRunner(t, map[string][]string{
		"arp hall.pdf": {arpScan, arpScan},
	})
	dir := t.TempDir()
	writePDF(t, dir, "arp hall.pdf")

	_, err := r.Run(context.Background(), dir)
	require.NoError(t, err)
	first, _ := store.Get("25-001234")
	firstRow := first.Row()

	report, err := r.Run(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed)
	assert.Empty(t, report.Reports[0].Merge.Written)

	second, _ := store.Get("25-001234")
	assert.Equal(t, firstRow, second.Row())
	assert.Equal(t, 1, store.Len())
}

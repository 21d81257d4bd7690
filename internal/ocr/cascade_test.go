package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEngine scripts per-call outcomes so tests can drive the cascade
// without real PDFs or network.
type stubEngine struct {
	name  string
	cost  int
	calls int

	// outputs[i] is returned for call i; the last entry repeats.
	outputs []stubOutput
}

type stubOutput struct {
	text string
	err  error
}

func (s *stubEngine) Name() string { return s.name }
func (s *stubEngine) Cost() int    { return s.cost }

func (s *stubEngine) Extract(_ context.Context, _ Document) (*Result, error) {
	idx := s.calls
	if idx >= len(s.outputs) {
		idx = len(s.outputs) - 1
	}
	s.calls++
	out := s.outputs[idx]
	if out.err != nil {
		return nil, out.err
	}
	return &Result{
		Engine:    s.name,
		Text:      out.text,
		CharCount: CountSignal(out.text),
	}, nil
}

func text(n int) string {
	return strings.Repeat("x", n)
}

func newTestCascade(threshold int, engines ...Engine) *Cascade {
	return NewCascade(threshold, engines...).WithBackoff(0)
}

func TestCascadeStopsAtFirstSufficientEngine(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(120)}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(500)}}}

	c := newTestCascade(80, tess, native) // registration order must not matter

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	assert.True(t, res.Sufficient)
	assert.False(t, res.LowConfidence)
	assert.Equal(t, "native", res.Engine)
	assert.Equal(t, 1, native.calls)
	assert.Equal(t, 0, tess.calls, "costlier engine must not run once threshold is met")
}

func TestCascadeEscalatesPastInsufficientOutput(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(10)}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(300)}}}

	c := newTestCascade(80, native, tess)

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "tesseract", res.Engine)
	assert.True(t, res.Sufficient)
}

func TestCascadeRetriesOnceOnTransientFailure(t *testing.T) {
	flaky := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{
		{err: errors.New("transient read failure")},
		{text: text(200)},
	}}

	c := newTestCascade(80, flaky)

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 2, flaky.calls)
	assert.True(t, res.Sufficient)
	require.Len(t, res.Attempts, 2)
	assert.NotEmpty(t, res.Attempts[0].Error)
	assert.Equal(t, 2, res.Attempts[1].Try)
}

func TestCascadeTreatsPersistentFailureAsZeroChars(t *testing.T) {
	dead := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{err: ErrNoTextLayer}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(150)}}}

	c := newTestCascade(80, dead, tess)

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	assert.Equal(t, 2, dead.calls, "failed engine gets exactly one retry")
	assert.Equal(t, "tesseract", res.Engine)
}

func TestCascadeKeepsBestEffortBelowThreshold(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(20)}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(45)}}}

	c := newTestCascade(80, native, tess)

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	assert.False(t, res.Sufficient)
	assert.True(t, res.LowConfidence)
	assert.Equal(t, "tesseract", res.Engine, "longest output wins the best-effort pick")
}

func TestCascadeFailsWhenNoEngineProducesText(t *testing.T) {
	a := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{err: ErrNoTextLayer}}}
	b := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: "   \n\t "}}}

	c := newTestCascade(80, a, b)

	res, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAllEnginesFailed)
	assert.NotEmpty(t, res.Attempts, "ledger survives total failure")
}

func TestEscalateSkipsTriedEngines(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(100)}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(90)}}}
	visionStub := &stubEngine{name: "vision", cost: 2, outputs: []stubOutput{{text: text(400)}}}

	c := newTestCascade(80, native, tess, visionStub)

	first, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)
	require.Equal(t, "native", first.Engine)

	// Caller found the text unusable and asks for the next tier.
	second, err := c.Escalate(context.Background(), Document{Path: "arp.pdf"}, first)
	require.NoError(t, err)
	assert.Equal(t, "tesseract", second.Engine)
	assert.Equal(t, 1, native.calls, "tried engine is never re-invoked")

	third, err := c.Escalate(context.Background(), Document{Path: "arp.pdf"}, second)
	require.NoError(t, err)
	assert.Equal(t, "vision", third.Engine)
	assert.Equal(t, 1, tess.calls)

	_, err = c.Escalate(context.Background(), Document{Path: "arp.pdf"}, third)
	assert.ErrorIs(t, err, ErrCascadeExhausted)
	assert.Equal(t, 1, visionStub.calls)
}

func TestEscalateCarriesLedgerForward(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(100)}}}
	tess := &stubEngine{name: "tesseract", cost: 1, outputs: []stubOutput{{text: text(200)}}}

	c := newTestCascade(80, native, tess)

	first, err := c.Run(context.Background(), Document{Path: "arp.pdf"})
	require.NoError(t, err)

	second, err := c.Escalate(context.Background(), Document{Path: "arp.pdf"}, first)
	require.NoError(t, err)

	require.Len(t, second.Attempts, 2)
	assert.Equal(t, "native", second.Attempts[0].Engine)
	assert.Equal(t, "tesseract", second.Attempts[1].Engine)
	assert.True(t, second.Tried("native"))
	assert.True(t, second.Tried("tesseract"))
}

func TestCascadeHonorsContextCancellation(t *testing.T) {
	native := &stubEngine{name: "native", cost: 0, outputs: []stubOutput{{text: text(200)}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newTestCascade(80, native)

	_, err := c.Run(ctx, Document{Path: "arp.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrContextCanceled)
	assert.Equal(t, 0, native.calls)
}

func TestCountSignalIgnoresWhitespace(t *testing.T) {
	assert.Equal(t, 0, CountSignal(" \n\t\r "))
	assert.Equal(t, 10, CountSignal("Cause No.\n 12 "))
}

func TestEnginesSortedByCost(t *testing.T) {
	c := newTestCascade(80,
		&stubEngine{name: "documentai", cost: 3},
		&stubEngine{name: "native", cost: 0},
		&stubEngine{name: "vision", cost: 2},
		&stubEngine{name: "tesseract", cost: 1},
	)
	assert.Equal(t, []string{"native", "tesseract", "vision", "documentai"}, c.Engines())
}

package ocr

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"guardianintake/internal/logger"
)

// DefaultRetryBackoff is the pause before an engine's single retry.
const DefaultRetryBackoff = 500 * time.Millisecond

// Cascade walks the engines cheapest first until one of them produces
// enough text. Each engine gets at most one retry; transient failures and
// empty output are treated identically and fall through to the next tier.
type Cascade struct {
	engines   []Engine
	threshold int
	backoff   time.Duration
	log       zerolog.Logger
}

// CascadeResult is the outcome of a cascade run. It keeps the winning
// engine's Result plus the full attempt ledger and the set of engines
// already consumed, so a later Escalate never re-invokes a tried engine.
type CascadeResult struct {
	Result

	// Sufficient reports whether the text cleared the threshold.
	Sufficient bool `json:"sufficient"`

	// LowConfidence marks a best-effort result kept after every engine
	// fell short of the threshold.
	LowConfidence bool `json:"low_confidence"`

	// Attempts is the ordered ledger of every engine invocation.
	Attempts []Attempt `json:"attempts"`

	tried map[string]bool
}

// Tried reports whether the named engine has already been invoked for this
// document.
func (r *CascadeResult) Tried(engine string) bool {
	return r.tried[engine]
}

// NewCascade builds a cascade over the given engines, sorted by ascending
// cost. threshold is the minimum non-whitespace character count that counts
// as sufficient text.
func NewCascade(threshold int, engines ...Engine) *Cascade {
	sorted := make([]Engine, len(engines))
	copy(sorted, engines)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cost() < sorted[j].Cost() })

	return &Cascade{
		engines:   sorted,
		threshold: threshold,
		backoff:   DefaultRetryBackoff,
		log:       logger.WithComponent("ocr-cascade"),
	}
}

// WithBackoff overrides the retry backoff. Tests use this to avoid sleeping.
func (c *Cascade) WithBackoff(d time.Duration) *Cascade {
	c.backoff = d
	return c
}

// Engines returns the engine names in invocation order.
func (c *Cascade) Engines() []string {
	names := make([]string, len(c.engines))
	for i, e := range c.engines {
		names[i] = e.Name()
	}
	return names
}

// Run extracts text from doc, escalating through the tiers until one clears
// the threshold. If no engine does but at least one produced text, the
// longest output is returned with LowConfidence set. If every engine failed
// outright, ErrAllEnginesFailed is returned with the attempt ledger intact
// in the partial result.
func (c *Cascade) Run(ctx context.Context, doc Document) (*CascadeResult, error) {
	const op = "CascadeRun"

	out := &CascadeResult{tried: make(map[string]bool)}
	var best *Result

	for _, eng := range c.engines {
		if err := ctx.Err(); err != nil {
			return out, WrapOCRError(op, ErrContextCanceled, err.Error())
		}

		res := c.runEngine(ctx, eng, doc, out)
		out.tried[eng.Name()] = true
		if res == nil {
			continue
		}

		if best == nil || res.CharCount > best.CharCount {
			best = res
		}
		if res.CharCount >= c.threshold {
			out.Result = *res
			out.Sufficient = true
			c.log.Info().
				Str("document", doc.Path).
				Str("engine", res.Engine).
				Int("chars", res.CharCount).
				Msg("sufficient text extracted")
			return out, nil
		}

		c.log.Debug().
			Str("document", doc.Path).
			Str("engine", eng.Name()).
			Int("chars", res.CharCount).
			Int("threshold", c.threshold).
			Msg("insufficient text, escalating")
	}

	if best != nil {
		out.Result = *best
		out.LowConfidence = true
		c.log.Warn().
			Str("document", doc.Path).
			Str("engine", best.Engine).
			Int("chars", best.CharCount).
			Msg("keeping best effort text below threshold")
		return out, nil
	}

	return out, WrapOCRError(op, ErrAllEnginesFailed, doc.Path)
}

// Escalate invokes the cheapest engine not yet tried for this document and
// returns its output merged into a new result that carries the ledger
// forward. Engines recorded in prev are never re-invoked. When nothing
// untried remains, ErrCascadeExhausted is returned.
func (c *Cascade) Escalate(ctx context.Context, doc Document, prev *CascadeResult) (*CascadeResult, error) {
	const op = "CascadeEscalate"

	out := &CascadeResult{
		Result:   prev.Result,
		Attempts: prev.Attempts,
		tried:    make(map[string]bool, len(prev.tried)+1),
	}
	for name := range prev.tried {
		out.tried[name] = true
	}

	for _, eng := range c.engines {
		if out.tried[eng.Name()] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return out, WrapOCRError(op, ErrContextCanceled, err.Error())
		}

		res := c.runEngine(ctx, eng, doc, out)
		out.tried[eng.Name()] = true
		if res == nil {
			continue
		}

		out.Result = *res
		out.Sufficient = res.CharCount >= c.threshold
		out.LowConfidence = !out.Sufficient
		return out, nil
	}

	return out, WrapOCRError(op, ErrCascadeExhausted, doc.Path)
}

// runEngine invokes one engine with a single retry after backoff. Errors and
// empty output both trigger the retry; both tries land in the ledger. A nil
// return means the engine produced no text at all.
func (c *Cascade) runEngine(ctx context.Context, eng Engine, doc Document, out *CascadeResult) *Result {
	var kept *Result

	for try := 1; try <= 2; try++ {
		start := time.Now()
		res, err := eng.Extract(ctx, doc)

		attempt := Attempt{
			Engine:   eng.Name(),
			Try:      try,
			Duration: time.Since(start),
		}
		if err != nil {
			attempt.Error = err.Error()
		}
		if res != nil {
			attempt.CharCount = res.CharCount
		}
		out.Attempts = append(out.Attempts, attempt)

		if err == nil && res != nil && res.CharCount > 0 {
			if kept == nil || res.CharCount > kept.CharCount {
				kept = res
			}
			if res.CharCount >= c.threshold {
				return kept
			}
		}

		if try == 1 && kept == nil {
			c.log.Debug().
				Str("document", doc.Path).
				Str("engine", eng.Name()).
				Err(err).
				Msg("engine produced no text, retrying once")
			if !c.sleep(ctx) {
				return kept
			}
			continue
		}
		break
	}

	return kept
}

// sleep waits out the backoff, returning false if the context expired first.
func (c *Cascade) sleep(ctx context.Context) bool {
	if c.backoff <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(c.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

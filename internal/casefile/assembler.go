package casefile

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"guardianintake/internal/logger"
)

// alwaysOverwrite lists the columns extraction may replace even when
// populated: the key itself, the appointment date (a later order supersedes
// an earlier one), and the bookkeeping timestamp.
var alwaysOverwrite = map[string]bool{
	ColCauseNo:       true,
	ColDateAppointed: true,
	ColLastUpdated:   true,
}

// lastUpdatedFormat matches the sheet's timestamp convention.
const lastUpdatedFormat = "2006-01-02 15:04:05"

// UpsertResult reports what one merge did.
type UpsertResult struct {
	Cause   string
	Created bool

	// Written fields received a new value.
	Written []string

	// Skipped fields held a different populated value and were left alone.
	Skipped []string

	// Protected fields were verified and never considered.
	Protected []string
}

// Assembler merges extracted fields into the store under the record
// discipline: blanks and "needs review" cells accept values, populated
// cells are kept, verified cells are untouchable. Each merge persists
// atomically; a locked store leaves the table exactly as it was.
type Assembler struct {
	store *Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewAssembler builds an Assembler over the store.
func NewAssembler(store *Store) *Assembler {
	return &Assembler{
		store: store,
		log:   logger.WithComponent("assembler"),
		now:   time.Now,
	}
}

// Upsert merges values into the record for cause, creating the row when the
// cause is new. Re-running the same document yields the same table.
func (a *Assembler) Upsert(cause string, values map[string]string) (*UpsertResult, error) {
	if cause == "" {
		return nil, ErrNoCause
	}

	prev, existed := a.store.Get(cause)
	var rec *CaseRecord
	if existed {
		rec = prev.clone()
	} else {
		rec = NewCaseRecord(cause)
	}

	res := &UpsertResult{Cause: cause, Created: !existed}
	for _, col := range Columns {
		v, ok := values[col]
		if !ok || v == "" || col == ColCauseNo || col == ColLastUpdated {
			continue
		}
		switch {
		case rec.Status(col) == StatusVerified:
			res.Protected = append(res.Protected, col)
		case rec.Get(col) == v:
			// Same value again; nothing to do.
		case !rec.IsBlank(col) && !alwaysOverwrite[col]:
			res.Skipped = append(res.Skipped, col)
		default:
			rec.Set(col, v)
			res.Written = append(res.Written, col)
		}
	}
	if existed && len(res.Written) == 0 {
		// Nothing changed; re-running a document leaves the table alone.
		return res, nil
	}
	rec.values[ColLastUpdated] = a.now().Format(lastUpdatedFormat)

	if err := a.store.Put(rec); err != nil {
		return nil, err
	}
	if err := a.store.Save(); err != nil {
		// Nothing reached disk; undo the in-memory merge too.
		if existed {
			_ = a.store.Put(prev)
		} else {
			a.store.remove(cause)
		}
		return nil, fmt.Errorf("upsert %s: %w", cause, err)
	}

	a.log.Info().
		Str("cause", cause).
		Bool("created", res.Created).
		Strs("written", res.Written).
		Strs("skipped", res.Skipped).
		Strs("protected", res.Protected).
		Msg("case record merged")
	return res, nil
}

// Verify marks fields of a case as human-confirmed and persists.
func (a *Assembler) Verify(cause string, cols ...string) error {
	prev, ok := a.store.Get(cause)
	if !ok {
		return fmt.Errorf("verify %s: case not found", cause)
	}
	rec := prev.clone()
	rec.Verify(cols...)
	rec.values[ColLastUpdated] = a.now().Format(lastUpdatedFormat)

	if err := a.store.Put(rec); err != nil {
		return err
	}
	if err := a.store.Save(); err != nil {
		_ = a.store.Put(prev)
		return fmt.Errorf("verify %s: %w", cause, err)
	}
	return nil
}

// Flag marks a field for re-extraction by writing the review sentinel over
// it. Verified fields cannot be flagged.
func (a *Assembler) Flag(cause, col string) error {
	prev, ok := a.store.Get(cause)
	if !ok {
		return fmt.Errorf("flag %s: case not found", cause)
	}
	if prev.Status(col) == StatusVerified {
		return fmt.Errorf("flag %s: field %s is verified", cause, col)
	}
	rec := prev.clone()
	rec.Set(col, NeedsReview)
	rec.values[ColLastUpdated] = a.now().Format(lastUpdatedFormat)

	if err := a.store.Put(rec); err != nil {
		return err
	}
	if err := a.store.Save(); err != nil {
		_ = a.store.Put(prev)
		return fmt.Errorf("flag %s: %w", cause, err)
	}
	return nil
}

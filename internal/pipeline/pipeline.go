// Package pipeline drives a batch of scanned filings through OCR,
// extraction, and the case store. Court orders are read first because their
// typed cause numbers serve as correction hints for the scanned
// applications.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"guardianintake/internal/casefile"
	"guardianintake/internal/extract"
	"guardianintake/internal/logger"
	"guardianintake/internal/ocr"
)

// Kind classifies an intake file by name.
type Kind string

const (
	// KindARP is an Application for Review of Placement.
	KindARP Kind = "arp"

	// KindOrder is a signed court order.
	KindOrder Kind = "order"

	// KindSkip is a file the batch ignores, such as visit approvals.
	KindSkip Kind = "skip"
)

// Classify decides how a file is handled from its name alone. Approval
// letters share the intake folder but carry no case fields.
func Classify(path string) Kind {
	name := strings.ToLower(filepath.Base(path))
	if !strings.HasSuffix(name, ".pdf") {
		return KindSkip
	}
	if strings.Contains(name, "approv") {
		return KindSkip
	}
	if strings.Contains(name, "order") {
		return KindOrder
	}
	return KindARP
}

// OCRRunner is the slice of the cascade the pipeline needs.
type OCRRunner interface {
	Run(ctx context.Context, doc ocr.Document) (*ocr.CascadeResult, error)
	Escalate(ctx context.Context, doc ocr.Document, prev *ocr.CascadeResult) (*ocr.CascadeResult, error)
}

// DocumentReport is the provenance trail for one file: which engines ran,
// what the parser noted, and what the merge changed. It is advisory and
// never feeds back into extraction.
type DocumentReport struct {
	Path string
	Kind Kind

	Cause         string
	Engine        string
	LowConfidence bool
	Attempts      []ocr.Attempt
	Notes         []string

	// NeedsReview marks a processed document that still left a critical
	// field, the ward's name, empty.
	NeedsReview bool

	Merge *casefile.UpsertResult
	Err   error
}

// BatchReport summarizes one run over the intake folder.
type BatchReport struct {
	Reports   []DocumentReport
	Processed int
	Failed    int
	Skipped   int
}

// ErrNoDocuments is returned when the intake folder holds PDFs but none
// could be processed.
var ErrNoDocuments = errors.New("no documents processed")

// Runner wires the cascade, the extractor, and the store into one batch.
type Runner struct {
	ocr       OCRRunner
	extractor *extract.Extractor
	assembler *casefile.Assembler
	store     *casefile.Store
	log       zerolog.Logger
	now       func() time.Time
}

// NewRunner builds a Runner.
func NewRunner(o OCRRunner, ex *extract.Extractor, as *casefile.Assembler, st *casefile.Store) *Runner {
	return &Runner{
		ocr:       o,
		extractor: ex,
		assembler: as,
		store:     st,
		log:       logger.WithComponent("pipeline"),
		now:       time.Now,
	}
}

// Run processes every PDF under dir. Orders go through a read-only pre-pass
// first so their cause numbers can correct one-digit misreads in the
// applications; the applications are then processed and the orders merged
// last. Individual failures are reported, not fatal; the batch errors only
// when files were present and none went through.
func (r *Runner) Run(ctx context.Context, dir string) (*BatchReport, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read intake folder: %w", err)
	}

	var arps, orders []string
	report := &BatchReport{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		switch Classify(path) {
		case KindARP:
			arps = append(arps, path)
		case KindOrder:
			orders = append(orders, path)
		default:
			report.Skipped++
			r.log.Debug().Str("file", entry.Name()).Msg("file skipped")
		}
	}
	sort.Strings(arps)
	sort.Strings(orders)

	var hints []string
	parsed := make([]parsedOrder, 0, len(orders))
	for _, path := range orders {
		po := r.prepassOrder(ctx, path)
		if po.fields != nil && po.fields.CauseNumber != "" {
			hints = append(hints, po.fields.CauseNumber)
		}
		parsed = append(parsed, po)
	}

	for _, path := range arps {
		report.add(r.processARP(ctx, path, hints))
	}
	for _, po := range parsed {
		report.add(r.mergeOrder(po))
	}

	if report.Processed == 0 && len(arps)+len(orders) > 0 {
		return report, ErrNoDocuments
	}
	return report, nil
}

func (b *BatchReport) add(rep DocumentReport) {
	b.Reports = append(b.Reports, rep)
	if rep.Err != nil {
		b.Failed++
	} else {
		b.Processed++
	}
}

func (r *Runner) processARP(ctx context.Context, path string, hints []string) DocumentReport {
	rep := DocumentReport{Path: path, Kind: KindARP}

	doc, err := ocr.LoadDocument(path)
	if err != nil {
		rep.Err = err
		return rep
	}

	fields, res, err := r.recognizeARP(ctx, doc)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Engine = res.Engine
	rep.LowConfidence = res.LowConfidence
	rep.Attempts = res.Attempts

	if fields.CauseNumber == "" {
		rep.Notes = fields.Notes
		rep.Err = fmt.Errorf("%s: no cause number found", filepath.Base(path))
		return rep
	}
	if corrected, ok := extract.ClosestKnownCause(fields.CauseNumber, hints); ok {
		fields.Notes = append(fields.Notes,
			"cause corrected against order: "+fields.CauseNumber+" -> "+corrected)
		fields.CauseNumber = corrected
	}
	rep.Cause = fields.CauseNumber
	rep.Notes = fields.Notes
	rep.NeedsReview = fields.WardFirst == "" && fields.WardLast == ""

	merge, err := r.assembler.Upsert(fields.CauseNumber, r.arpValues(fields))
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Merge = merge
	return rep
}

// recognizeARP runs the cascade and, while the guardian section is still
// missing, escalates to engines that have not been tried yet. Each
// escalation keeps whichever reading carries the stronger guardian signal.
func (r *Runner) recognizeARP(ctx context.Context, doc ocr.Document) (*extract.ARPFields, *ocr.CascadeResult, error) {
	res, err := r.ocr.Run(ctx, doc)
	if err != nil {
		return nil, nil, err
	}

	best := r.extractor.ParseARP(res.Text)
	bestScore := extract.GuardianSignalScore(res.Text)
	cur := res

	for !best.GuardianSectionFound {
		next, err := r.ocr.Escalate(ctx, doc, cur)
		if err != nil {
			if errors.Is(err, ocr.ErrCascadeExhausted) {
				break
			}
			return nil, nil, err
		}
		cur = next

		cand := r.extractor.ParseARP(next.Text)
		score := extract.GuardianSignalScore(next.Text)
		if cand.GuardianSectionFound || score > bestScore {
			if !cand.GuardianSectionFound {
				cand.Notes = append(cand.Notes, "stronger guardian signal after escalation, section still unlocated")
			}
			best, bestScore = cand, score
			res = next
		}
	}

	// Attempts accumulate across escalations; the winning engine's text is
	// what the fields came from.
	cur.Result = res.Result
	cur.LowConfidence = res.LowConfidence
	return best, cur, nil
}

func (r *Runner) arpValues(f *extract.ARPFields) map[string]string {
	values := map[string]string{
		casefile.ColWardLast:       f.WardLast,
		casefile.ColWardFirst:      f.WardFirst,
		casefile.ColWardMiddle:     f.WardMiddle,
		casefile.ColWardDOB:        f.WardDOB,
		casefile.ColWardPhone:      f.WardPhone,
		casefile.ColWardAddr:       f.WardAddr,
		casefile.ColVisitDate:      f.VisitDate,
		casefile.ColVisitTime:      f.VisitTime,
		casefile.ColGuardian1:      f.Guardian1,
		casefile.ColGuardian1Addr:  f.Guardian1Addr,
		casefile.ColGuardian1Email: f.Guardian1Email,
		casefile.ColGuardian1Phone: f.Guardian1Phone,
		casefile.ColGuardian1Rel:   f.Guardian1Rel,
		casefile.ColGuardian1DOB:   f.Guardian1DOB,
		casefile.ColGuardian2:      f.Guardian2,
		casefile.ColGuardian2Addr:  f.Guardian2Addr,
		casefile.ColGuardian2Email: f.Guardian2Email,
		casefile.ColGuardian2Phone: f.Guardian2Phone,
		casefile.ColGuardian2Rel:   f.Guardian2Rel,
		casefile.ColGuardian2DOB:   f.Guardian2DOB,
		casefile.ColDateARPFiled:   f.FiledDate,
		casefile.ColDateSubmitted:  r.now().Format("01/02/2006"),
	}
	if f.LivesWithKnown {
		values[casefile.ColLivesWith] = f.LivesWith
	}
	return values
}

// parsedOrder is an order read during the pre-pass, held until the
// applications have been merged.
type parsedOrder struct {
	rep    DocumentReport
	fields *extract.OrderFields
}

func (r *Runner) prepassOrder(ctx context.Context, path string) parsedOrder {
	po := parsedOrder{rep: DocumentReport{Path: path, Kind: KindOrder}}

	doc, err := ocr.LoadDocument(path)
	if err != nil {
		po.rep.Err = err
		return po
	}

	res, err := r.ocr.Run(ctx, doc)
	if err != nil {
		po.rep.Err = err
		return po
	}
	po.rep.Engine = res.Engine
	po.rep.LowConfidence = res.LowConfidence
	po.rep.Attempts = res.Attempts

	fields, err := r.extractor.ParseOrder(res.Text, nil)
	// An incomplete order still contributes its cause number as a hint.
	po.fields = fields
	po.rep.Notes = fields.Notes
	po.rep.Err = err
	return po
}

// mergeOrder writes an order parsed during the pre-pass. The order's cause
// number is taken as authoritative: orders are typed documents, so their
// causes serve as correction hints for the applications, never the reverse.
func (r *Runner) mergeOrder(po parsedOrder) DocumentReport {
	rep := po.rep
	if rep.Err != nil {
		return rep
	}
	fields := po.fields
	rep.Cause = fields.CauseNumber

	appointed := fields.OrderDate
	if appointed == "" {
		appointed = fields.FiledDate
	}
	values := map[string]string{
		casefile.ColDateAppointed: appointed,
	}
	// The caption name only fills blanks; the assembler never lets it
	// replace what an application extracted.
	if !fields.WardName.IsZero() {
		values[casefile.ColWardFirst] = fields.WardName.First
		values[casefile.ColWardMiddle] = fields.WardName.Middle
		values[casefile.ColWardLast] = fields.WardName.Last
	}

	merge, err := r.assembler.Upsert(fields.CauseNumber, values)
	if err != nil {
		rep.Err = err
		return rep
	}
	rep.Merge = merge
	return rep
}

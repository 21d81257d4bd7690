package casefile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"guardianintake/internal/logger"
)

const (
	caseSheet   = "Cases"
	statusSheet = "FieldStatus"

	saveAttempts = 3
	saveRetryGap = 2 * time.Second
)

var (
	// ErrStoreLocked is returned when the workbook cannot be written
	// because another program holds it open. Nothing is persisted; the
	// caller's changes stay pending.
	ErrStoreLocked = errors.New("case store is locked by another program")

	// ErrNoCause is returned for a record without a cause number.
	ErrNoCause = errors.New("record has no cause number")
)

// Store is the xlsx-backed case table: one row per cause number plus a
// status sheet recording which fields a person verified.
type Store struct {
	path      string
	backupDir string

	records map[string]*CaseRecord
	order   []string

	backedUp   bool
	retryDelay time.Duration
	log        zerolog.Logger
}

// OpenStore loads the workbook at path, or starts an empty store when the
// file does not exist yet. backupDir defaults to the workbook's directory.
func OpenStore(path, backupDir string) (*Store, error) {
	s := &Store{
		path:       path,
		backupDir:  backupDir,
		records:    make(map[string]*CaseRecord),
		retryDelay: saveRetryGap,
		log:        logger.WithComponent("casefile"),
	}
	if s.backupDir == "" {
		s.backupDir = filepath.Dir(path)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return s, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open case store: %w", err)
	}
	defer f.Close()

	if err := s.loadRecords(f); err != nil {
		return nil, err
	}
	if err := s.loadStatuses(f); err != nil {
		return nil, err
	}

	s.log.Info().Str("path", path).Int("cases", len(s.order)).Msg("case store loaded")
	return s, nil
}

func (s *Store) loadRecords(f *excelize.File) error {
	rows, err := f.GetRows(caseSheet)
	if err != nil || len(rows) == 0 {
		// Missing sheet or empty workbook; start fresh.
		return nil
	}

	// Map header names to positions so a reordered workbook still loads.
	header := make(map[int]string, len(rows[0]))
	for i, name := range rows[0] {
		header[i] = strings.TrimSpace(name)
	}

	for _, row := range rows[1:] {
		rec := NewCaseRecord("")
		for i, cell := range row {
			col, ok := header[i]
			if !ok || col == "" {
				continue
			}
			rec.values[col] = strings.TrimSpace(cell)
		}
		cause := rec.Cause()
		if cause == "" {
			continue
		}
		if _, exists := s.records[cause]; exists {
			// The table invariant is one row per cause; keep the first.
			s.log.Warn().Str("cause", cause).Msg("duplicate cause row ignored")
			continue
		}
		s.records[cause] = rec
		s.order = append(s.order, cause)
	}
	return nil
}

func (s *Store) loadStatuses(f *excelize.File) error {
	idx, err := f.GetSheetIndex(statusSheet)
	if err != nil || idx < 0 {
		return nil
	}
	rows, err := f.GetRows(statusSheet)
	if err != nil {
		return nil
	}
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		cause, col, status := row[0], row[1], FieldStatus(row[2])
		if rec, ok := s.records[cause]; ok && status == StatusVerified {
			rec.status[col] = StatusVerified
		}
	}
	return nil
}

// Get returns the record for a cause number.
func (s *Store) Get(cause string) (*CaseRecord, bool) {
	rec, ok := s.records[cause]
	return rec, ok
}

// Put inserts or replaces the record, keyed by its cause number.
func (s *Store) Put(rec *CaseRecord) error {
	cause := rec.Cause()
	if cause == "" {
		return ErrNoCause
	}
	if _, exists := s.records[cause]; !exists {
		s.order = append(s.order, cause)
	}
	s.records[cause] = rec
	return nil
}

// remove drops a record, undoing an insert that could not be persisted.
func (s *Store) remove(cause string) {
	if _, exists := s.records[cause]; !exists {
		return
	}
	delete(s.records, cause)
	for i, c := range s.order {
		if c == cause {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of cases.
func (s *Store) Len() int {
	return len(s.order)
}

// Records returns all records in sheet order.
func (s *Store) Records() []*CaseRecord {
	out := make([]*CaseRecord, 0, len(s.order))
	for _, cause := range s.order {
		out = append(out, s.records[cause])
	}
	return out
}

// Save writes the workbook. The first save of a run snapshots the existing
// file into the backup directory. A locked workbook is retried, then
// surfaces as ErrStoreLocked with nothing persisted.
func (s *Store) Save() error {
	if err := s.backupOnce(); err != nil {
		s.log.Warn().Err(err).Msg("store backup failed, continuing")
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", caseSheet); err != nil {
		return fmt.Errorf("prepare case sheet: %w", err)
	}
	if err := s.writeRecords(f); err != nil {
		return err
	}
	if err := s.writeStatuses(f); err != nil {
		return err
	}

	var lastErr error
	for attempt := 1; attempt <= saveAttempts; attempt++ {
		lastErr = f.SaveAs(s.path)
		if lastErr == nil {
			s.log.Debug().Str("path", s.path).Int("cases", s.Len()).Msg("case store saved")
			return nil
		}
		if !isLockError(lastErr) {
			return fmt.Errorf("save case store: %w", lastErr)
		}
		s.log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Msg("case store locked, retrying")
		if attempt < saveAttempts {
			time.Sleep(s.retryDelay)
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreLocked, lastErr)
}

func (s *Store) writeRecords(f *excelize.File) error {
	header := make([]interface{}, len(Columns))
	for i, col := range Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(caseSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, cause := range s.order {
		rowVals := s.records[cause].Row()
		row := make([]interface{}, len(rowVals))
		for j, v := range rowVals {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(caseSheet, cell, &row); err != nil {
			return fmt.Errorf("write row for %s: %w", cause, err)
		}
	}
	return nil
}

func (s *Store) writeStatuses(f *excelize.File) error {
	if _, err := f.NewSheet(statusSheet); err != nil {
		return fmt.Errorf("prepare status sheet: %w", err)
	}
	rowIdx := 1
	for _, cause := range s.order {
		rec := s.records[cause]
		for _, col := range Columns {
			if rec.status[col] != StatusVerified {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, rowIdx)
			if err != nil {
				return err
			}
			row := []interface{}{cause, col, string(StatusVerified)}
			if err := f.SetSheetRow(statusSheet, cell, &row); err != nil {
				return fmt.Errorf("write status row: %w", err)
			}
			rowIdx++
		}
	}
	return nil
}

// backupOnce copies the current workbook aside before the run's first save.
func (s *Store) backupOnce() error {
	if s.backedUp {
		return nil
	}
	s.backedUp = true

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	name := fmt.Sprintf("%s.backup-%s%s", base, time.Now().Format("20060102-150405"), filepath.Ext(s.path))
	dst := filepath.Join(s.backupDir, name)
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	s.log.Info().Str("backup", dst).Msg("case store backed up")
	return nil
}

func isLockError(err error) bool {
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "permission denied") ||
		strings.Contains(msg, "being used by another process") ||
		strings.Contains(msg, "resource temporarily unavailable") ||
		strings.Contains(msg, "sharing violation")
}

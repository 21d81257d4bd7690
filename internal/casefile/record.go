// Package casefile persists structured case records keyed by cause number.
// The store is a single xlsx workbook, one row per cause, matching the
// intake sheet the court staff already work from. The assembler owns the
// merge discipline: extraction may fill blanks but never tramples values a
// person has entered or verified.
package casefile

import "strings"

// Column names of the case sheet, one per record field.
const (
	ColCauseNo = "cause_no"

	ColWardLast   = "ward_last"
	ColWardFirst  = "ward_first"
	ColWardMiddle = "ward_middle"
	ColWardDOB    = "ward_dob"
	ColWardPhone  = "ward_phone"
	ColWardAddr   = "ward_address"
	ColLivesWith  = "lives_with"

	ColVisitDate = "visit_date"
	ColVisitTime = "visit_time"

	ColGuardian1      = "guardian1"
	ColGuardian1Addr  = "guardian1_address"
	ColGuardian1Email = "guardian1_email"
	ColGuardian1Phone = "guardian1_phone"
	ColGuardian1Rel   = "guardian1_relationship"
	ColGuardian1DOB   = "guardian1_dob"

	ColGuardian2      = "guardian2"
	ColGuardian2Addr  = "guardian2_address"
	ColGuardian2Email = "guardian2_email"
	ColGuardian2Phone = "guardian2_phone"
	ColGuardian2Rel   = "guardian2_relationship"
	ColGuardian2DOB   = "guardian2_dob"

	ColDateSubmitted = "date_submitted"
	ColDateAppointed = "date_appointed"
	ColDateARPFiled  = "date_arp_filed"

	// Staff-maintained columns. Extraction never writes these.
	ColMiles            = "miles"
	ColExpenseSubmitted = "expense_submitted"
	ColExpensePaid      = "expense_paid"
	ColComments         = "comments"
	ColCVRCreated       = "cvr_created"
	ColEmailSent        = "email_sent"
	ColApptConfirmed    = "appt_confirmed"
	ColContactAdded     = "contact_added"

	ColLastUpdated = "last_updated"
)

// Columns is the sheet column order.
var Columns = []string{
	ColCauseNo,
	ColWardLast, ColWardFirst, ColWardMiddle, ColWardDOB,
	ColWardPhone, ColWardAddr, ColLivesWith,
	ColVisitDate, ColVisitTime,
	ColGuardian1, ColGuardian1Addr, ColGuardian1Email, ColGuardian1Phone,
	ColGuardian1Rel, ColGuardian1DOB,
	ColGuardian2, ColGuardian2Addr, ColGuardian2Email, ColGuardian2Phone,
	ColGuardian2Rel, ColGuardian2DOB,
	ColDateSubmitted, ColDateAppointed, ColDateARPFiled,
	ColMiles, ColExpenseSubmitted, ColExpensePaid,
	ColComments, ColCVRCreated, ColEmailSent, ColApptConfirmed, ColContactAdded,
	ColLastUpdated,
}

// NeedsReview marks a value a reviewer flagged for replacement. A cell
// holding it counts as empty for merge purposes.
const NeedsReview = "needs review"

// FieldStatus tracks a field through the record lifecycle.
type FieldStatus string

const (
	// StatusMissing means no value has ever been captured.
	StatusMissing FieldStatus = "missing"

	// StatusExtracted means the value came from a document and may be
	// replaced by a reviewer or by an explicit re-extraction of a blank.
	StatusExtracted FieldStatus = "extracted"

	// StatusVerified means a person confirmed the value. Extraction must
	// never touch it again.
	StatusVerified FieldStatus = "verified"
)

// CaseRecord is one case row.
type CaseRecord struct {
	values map[string]string
	status map[string]FieldStatus
}

// NewCaseRecord creates an empty record for a cause number.
func NewCaseRecord(cause string) *CaseRecord {
	r := &CaseRecord{
		values: make(map[string]string, len(Columns)),
		status: make(map[string]FieldStatus),
	}
	r.values[ColCauseNo] = cause
	return r
}

// Cause returns the record's cause number.
func (r *CaseRecord) Cause() string {
	return r.values[ColCauseNo]
}

// Get returns the value of a column, "" when unset.
func (r *CaseRecord) Get(col string) string {
	return r.values[col]
}

// Set writes a value and marks the field extracted.
func (r *CaseRecord) Set(col, value string) {
	r.values[col] = value
	if col != ColCauseNo && col != ColLastUpdated {
		r.status[col] = StatusExtracted
	}
}

// Status returns the field's lifecycle status.
func (r *CaseRecord) Status(col string) FieldStatus {
	if s, ok := r.status[col]; ok {
		return s
	}
	if strings.TrimSpace(r.values[col]) == "" {
		return StatusMissing
	}
	return StatusExtracted
}

// Verify marks fields as human-confirmed.
func (r *CaseRecord) Verify(cols ...string) {
	for _, col := range cols {
		if strings.TrimSpace(r.values[col]) != "" {
			r.status[col] = StatusVerified
		}
	}
}

// IsBlank reports whether the column is empty or flagged for review.
func (r *CaseRecord) IsBlank(col string) bool {
	v := strings.TrimSpace(r.values[col])
	return v == "" || strings.EqualFold(v, NeedsReview)
}

// clone copies the record so an aborted merge leaves the original intact.
func (r *CaseRecord) clone() *CaseRecord {
	c := &CaseRecord{
		values: make(map[string]string, len(r.values)),
		status: make(map[string]FieldStatus, len(r.status)),
	}
	for k, v := range r.values {
		c.values[k] = v
	}
	for k, v := range r.status {
		c.status[k] = v
	}
	return c
}

// Row renders the record in sheet column order.
func (r *CaseRecord) Row() []string {
	row := make([]string, len(Columns))
	for i, col := range Columns {
		row[i] = r.values[col]
	}
	return row
}

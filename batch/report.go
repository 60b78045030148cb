package batch

import (
	"time"

	"github.com/goliatone/go-connect-contacts/core"
)

// CallResult is the result of one API call made for a row. Exactly one of
// Outcome or Err is meaningful.
type CallResult struct {
	Advisor string
	Outcome core.Outcome
	Err     error
}

func (c CallResult) Failed() bool {
	return c.Err != nil
}

type RowResult struct {
	Number int
	Record core.ContactRecord
	State  core.RowState
	Status string
	Calls  []CallResult
}

// Err returns the first call error recorded for the row.
func (r RowResult) Err() error {
	for _, call := range r.Calls {
		if call.Err != nil {
			return call.Err
		}
	}
	return nil
}

type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       []RowResult
	Summary    core.RunSummary
}

// ReportRows pairs every processed record with its status text, in input
// order.
func (r Report) ReportRows() []core.ReportRow {
	rows := make([]core.ReportRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		rows = append(rows, core.ReportRow{Record: row.Record, Status: row.Status})
	}
	return rows
}

package sqlstore

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RunStore persists batch run history: one run per input file and one row per
// processed record.
type RunStore struct {
	db      *bun.DB
	runs    repository.Repository[*runRecord]
	rows    repository.Repository[*rowRecord]
	nowFunc func() time.Time
}

func NewRunStore(db *bun.DB) (*RunStore, error) {
	if db == nil {
		return nil, core.ConfigError("sqlstore: bun db is required", nil)
	}
	runRepo := repository.NewRepository[*runRecord](db, runHandlers())
	if validator, ok := runRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, core.WrapConfigError(err, "sqlstore: invalid run repository wiring", nil)
		}
	}
	rowRepo := repository.NewRepository[*rowRecord](db, rowHandlers())
	if validator, ok := rowRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, core.WrapConfigError(err, "sqlstore: invalid row repository wiring", nil)
		}
	}
	return &RunStore{
		db:      db,
		runs:    runRepo,
		rows:    rowRepo,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *RunStore) CreateRun(ctx context.Context, run core.Run) (core.Run, error) {
	if s == nil || s.runs == nil {
		return core.Run{}, core.ConfigError("sqlstore: run store is not configured", nil)
	}
	now := s.nowFunc()
	record := &runRecord{
		ID:         strings.TrimSpace(run.ID),
		InputPath:  strings.TrimSpace(run.InputPath),
		OutputPath: strings.TrimSpace(run.OutputPath),
		Status:     strings.TrimSpace(run.Status),
		StartedAt:  run.StartedAt.UTC(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		return core.Run{}, core.BadInputError("sqlstore: run status is required", nil)
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = now
	}
	applySummary(record, run.Summary)

	created, err := s.runs.Create(ctx, record)
	if err != nil {
		return core.Run{}, core.StorageError(err, "sqlstore: create run", map[string]any{"run_id": record.ID})
	}
	return created.toDomain(), nil
}

func (s *RunStore) AppendRow(ctx context.Context, row core.RunRow) error {
	if s == nil || s.rows == nil {
		return core.ConfigError("sqlstore: run store is not configured", nil)
	}
	runID := strings.TrimSpace(row.RunID)
	if runID == "" {
		return core.BadInputError("sqlstore: run id is required", nil)
	}
	record := &rowRecord{
		ID:               strings.TrimSpace(row.ID),
		RunID:            runID,
		LineNumber:       row.Number,
		ExternalNetwork:  row.Record.ExternalNetwork,
		ContactAction:    row.Record.ContactAction,
		ContactFirstName: row.Record.ContactFirstName,
		ContactLastName:  row.Record.ContactLastName,
		ContactCompany:   row.Record.ContactCompany,
		ContactEmail:     row.Record.ContactEmail,
		ContactPhone:     row.Record.ContactPhone,
		AdvisorEmailList: row.Record.AdvisorEmailList,
		State:            string(row.State),
		Status:           row.Status,
		Error:            row.Error,
		CreatedAt:        row.CreatedAt.UTC(),
	}
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		record.CreatedAt = s.nowFunc()
	}
	if _, err := s.rows.Create(ctx, record); err != nil {
		return core.StorageError(err, "sqlstore: append row", map[string]any{
			"run_id":      runID,
			"line_number": row.Number,
		})
	}
	return nil
}

func (s *RunStore) CompleteRun(ctx context.Context, runID string, status string, summary core.RunSummary) error {
	if s == nil || s.runs == nil {
		return core.ConfigError("sqlstore: run store is not configured", nil)
	}
	trimmedID := strings.TrimSpace(runID)
	if trimmedID == "" {
		return core.BadInputError("sqlstore: run id is required", nil)
	}
	current, err := s.runs.GetByID(ctx, trimmedID)
	if err != nil {
		return core.StorageError(err, "sqlstore: load run", map[string]any{"run_id": trimmedID})
	}
	now := s.nowFunc()
	current.Status = strings.TrimSpace(status)
	current.FinishedAt = &now
	current.UpdatedAt = now
	applySummary(current, summary)

	if _, err := s.runs.Update(ctx, current, repository.UpdateByID(trimmedID)); err != nil {
		return core.StorageError(err, "sqlstore: complete run", map[string]any{"run_id": trimmedID})
	}
	return nil
}

func (s *RunStore) GetRun(ctx context.Context, runID string) (core.Run, error) {
	if s == nil || s.runs == nil {
		return core.Run{}, core.ConfigError("sqlstore: run store is not configured", nil)
	}
	record, err := s.runs.GetByID(ctx, strings.TrimSpace(runID))
	if err != nil {
		return core.Run{}, err
	}
	return record.toDomain(), nil
}

// ListRuns returns the most recent runs first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]core.Run, error) {
	if s == nil || s.runs == nil {
		return nil, core.ConfigError("sqlstore: run store is not configured", nil)
	}
	if limit <= 0 {
		limit = 20
	}
	records, _, err := s.runs.List(ctx,
		repository.OrderBy("started_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Run, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

// ListRows returns the rows of a run in input order. A non-empty state
// narrows the result.
func (s *RunStore) ListRows(ctx context.Context, runID string, state core.RowState) ([]core.RunRow, error) {
	if s == nil || s.rows == nil {
		return nil, core.ConfigError("sqlstore: run store is not configured", nil)
	}
	criteria := []repository.SelectCriteria{
		repository.SelectBy("run_id", "=", strings.TrimSpace(runID)),
	}
	if trimmed := strings.TrimSpace(string(state)); trimmed != "" {
		criteria = append(criteria, repository.SelectBy("state", "=", trimmed))
	}
	criteria = append(criteria, repository.OrderBy("line_number ASC"))

	records, _, err := s.rows.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	out := make([]core.RunRow, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func applySummary(record *runRecord, summary core.RunSummary) {
	record.TotalRows = summary.Total
	record.OKRows = summary.OK
	record.ErrorRows = summary.Errors
	record.SkippedRows = summary.Skipped
	record.FailedRows = summary.Failed
}

func (r *runRecord) toDomain() core.Run {
	if r == nil {
		return core.Run{}
	}
	run := core.Run{
		ID:         r.ID,
		InputPath:  r.InputPath,
		OutputPath: r.OutputPath,
		StartedAt:  r.StartedAt,
		Status:     r.Status,
		Summary: core.RunSummary{
			Total:   r.TotalRows,
			OK:      r.OKRows,
			Errors:  r.ErrorRows,
			Skipped: r.SkippedRows,
			Failed:  r.FailedRows,
		},
	}
	if r.FinishedAt != nil {
		finished := *r.FinishedAt
		run.FinishedAt = &finished
	}
	return run
}

func (r *rowRecord) toDomain() core.RunRow {
	if r == nil {
		return core.RunRow{}
	}
	return core.RunRow{
		ID:     r.ID,
		RunID:  r.RunID,
		Number: r.LineNumber,
		Record: core.ContactRecord{
			Line:             r.LineNumber,
			ExternalNetwork:  r.ExternalNetwork,
			ContactAction:    r.ContactAction,
			ContactFirstName: r.ContactFirstName,
			ContactLastName:  r.ContactLastName,
			ContactCompany:   r.ContactCompany,
			ContactEmail:     r.ContactEmail,
			ContactPhone:     r.ContactPhone,
			AdvisorEmailList: r.AdvisorEmailList,
		},
		State:     core.RowState(r.State),
		Status:    r.Status,
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
	}
}

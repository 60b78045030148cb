package batch

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-connect-contacts/command"
	"github.com/goliatone/go-connect-contacts/core"
	"github.com/google/uuid"
)

const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusCancelled = "cancelled"
)

type Option func(*Orchestrator)

func WithLogger(logger core.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// WithRunRecorder persists every run and row result.
func WithRunRecorder(recorder core.RunRecorder) Option {
	return func(o *Orchestrator) {
		o.recorder = recorder
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

type Orchestrator struct {
	commands command.Commands
	recorder core.RunRecorder
	logger   core.Logger
	metrics  core.MetricsRecorder
	observer core.Observer
	now      func() time.Time
	newID    func() string
}

func NewOrchestrator(service core.ContactService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		commands: command.NewCommands(service),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	o.observer = core.NewObserver(o.logger, o.metrics)
	return o
}

// Request describes one batch run.
type Request struct {
	Records    []core.ContactRecord
	InputPath  string
	OutputPath string
}

// Run processes records in order. It only returns an error when ctx is done;
// row failures are reported per row.
func (o *Orchestrator) Run(ctx context.Context, records []core.ContactRecord) (Report, error) {
	return o.Process(ctx, Request{Records: records})
}

func (o *Orchestrator) Process(ctx context.Context, req Request) (Report, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	report := Report{
		RunID:     o.newID(),
		StartedAt: o.now(),
		Rows:      make([]RowResult, 0, len(req.Records)),
	}
	recorder := o.startRun(ctx, report, req)

	o.observer.Info(ctx, "start processing", map[string]any{
		"run_id": report.RunID,
		"rows":   len(req.Records),
	})

	status := RunStatusCompleted
	var runErr error
	for index, record := range req.Records {
		if err := ctx.Err(); err != nil {
			status = RunStatusCancelled
			runErr = err
			break
		}
		number := record.Line
		if number <= 0 {
			number = index + 1
		}
		result := o.processRecord(ctx, number, record)
		report.Rows = append(report.Rows, result)
		report.Summary.Add(result.State)
		o.observer.Counter(ctx, core.MetricRows, 1, map[string]string{"state": string(result.State)})
		o.appendRow(ctx, recorder, report.RunID, result)
	}

	report.FinishedAt = o.now()
	o.completeRun(ctx, recorder, report.RunID, status, report.Summary)
	o.observer.Info(ctx, "finished processing", map[string]any{
		"run_id":  report.RunID,
		"status":  status,
		"total":   report.Summary.Total,
		"ok":      report.Summary.OK,
		"errors":  report.Summary.Errors,
		"skipped": report.Summary.Skipped,
		"failed":  report.Summary.Failed,
	})
	return report, runErr
}

func (o *Orchestrator) processRecord(ctx context.Context, number int, raw core.ContactRecord) RowResult {
	record := NormalizeRecord(raw)
	result := RowResult{Number: number, Record: record}

	row, skipStatus, ok := ValidateRecord(number, record)
	if !ok {
		result.State = core.RowStateSkipped
		result.Status = skipStatus
		o.observer.Warn(ctx, "row skipped", map[string]any{
			"row":    number,
			"status": skipStatus,
		})
		return result
	}

	switch row.Action {
	case core.ActionAdd:
		o.observer.Info(ctx, "add contact", map[string]any{
			"row":      number,
			"email":    record.ContactEmail,
			"advisors": row.Advisors,
		})
		outcome, err := command.Run[command.AddContactMessage](ctx, o.commands.Add, command.AddContactMessage{
			Network:  row.Network,
			Contact:  row.Contact(),
			Advisors: row.Advisors,
		})
		result.Calls = append(result.Calls, CallResult{Advisor: strings.Join(row.Advisors, AdvisorSeparator), Outcome: outcome, Err: err})
	default:
		for _, advisor := range row.Advisors {
			o.observer.Info(ctx, strings.ToLower(string(row.Action))+" contact", map[string]any{
				"row":     number,
				"email":   record.ContactEmail,
				"advisor": advisor,
			})
			outcome, err := o.callForAdvisor(ctx, row, advisor)
			result.Calls = append(result.Calls, CallResult{Advisor: advisor, Outcome: outcome, Err: err})
		}
	}

	result.Status = o.composeStatus(ctx, row, result.Calls)
	result.State = rowState(result.Calls)
	return result
}

func (o *Orchestrator) callForAdvisor(ctx context.Context, row Row, advisor string) (core.Outcome, error) {
	if row.Action == core.ActionDelete {
		return command.Run[command.DeleteContactMessage](ctx, o.commands.Delete, command.DeleteContactMessage{
			Network: row.Network,
			Email:   row.Record.ContactEmail,
			Advisor: advisor,
		})
	}
	return command.Run[command.UpdateContactMessage](ctx, o.commands.Update, command.UpdateContactMessage{
		Network: row.Network,
		Contact: row.Contact(),
		Advisor: advisor,
	})
}

// composeStatus joins call results into the row status. A failed call
// replaces whatever was accumulated before it; later calls still append.
func (o *Orchestrator) composeStatus(ctx context.Context, row Row, calls []CallResult) string {
	parts := make([]string, 0, len(calls))
	for _, call := range calls {
		if call.Err != nil {
			o.observer.Error(ctx, "contact operation failed", map[string]any{
				"row":     row.Number,
				"action":  string(row.Action),
				"email":   row.Record.ContactEmail,
				"advisor": call.Advisor,
				"error":   call.Err.Error(),
			})
			parts = []string{FailureStatus(row.Action)}
			continue
		}
		if row.Action == core.ActionAdd {
			parts = append(parts, call.Outcome.String())
			continue
		}
		parts = append(parts, call.Advisor+" - "+call.Outcome.String())
	}
	return strings.Join(parts, " ")
}

func rowState(calls []CallResult) core.RowState {
	state := core.RowStateOK
	for _, call := range calls {
		if call.Err != nil {
			return core.RowStateFailed
		}
		if !call.Outcome.OK() {
			state = core.RowStateError
		}
	}
	return state
}

func (o *Orchestrator) startRun(ctx context.Context, report Report, req Request) core.RunRecorder {
	if o.recorder == nil {
		return nil
	}
	_, err := o.recorder.CreateRun(ctx, core.Run{
		ID:         report.RunID,
		InputPath:  req.InputPath,
		OutputPath: req.OutputPath,
		StartedAt:  report.StartedAt,
		Status:     RunStatusRunning,
	})
	if err != nil {
		o.observer.Error(ctx, "run history disabled: create run failed", map[string]any{
			"run_id": report.RunID,
			"error":  err.Error(),
		})
		return nil
	}
	return o.recorder
}

func (o *Orchestrator) appendRow(ctx context.Context, recorder core.RunRecorder, runID string, result RowResult) {
	if recorder == nil {
		return
	}
	row := core.RunRow{
		ID:        o.newID(),
		RunID:     runID,
		Number:    result.Number,
		Record:    result.Record,
		State:     result.State,
		Status:    result.Status,
		CreatedAt: o.now(),
	}
	if err := result.Err(); err != nil {
		row.Error = err.Error()
	}
	if err := recorder.AppendRow(ctx, row); err != nil {
		o.observer.Warn(ctx, "run history: append row failed", map[string]any{
			"run_id": runID,
			"row":    result.Number,
			"error":  err.Error(),
		})
	}
}

func (o *Orchestrator) completeRun(ctx context.Context, recorder core.RunRecorder, runID string, status string, summary core.RunSummary) {
	if recorder == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.WithoutCancel(ctx)
	}
	if err := recorder.CompleteRun(ctx, runID, status, summary); err != nil {
		o.observer.Warn(ctx, "run history: complete run failed", map[string]any{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}

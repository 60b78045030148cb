package core

import (
	"context"
	"sync"
	"testing"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFieldMap(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFieldMap(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFieldMap(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	items := *l.records
	out := make([]capturedLog, len(items))
	copy(out, items)
	return out
}

func cloneFieldMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	output := make(map[string]any, len(input))
	for key, value := range input {
		output[key] = value
	}
	return output
}

func TestObserver_LogsSortedRedactedFields(t *testing.T) {
	logger := newCaptureLogger()
	observer := NewObserver(logger, nil)

	observer.Debug(context.Background(), "contacts api call", map[string]any{
		"network":       "WECHAT",
		"authorization": "Bearer abc",
		"status_code":   200,
	})
	observer.Info(context.Background(), "re-authenticating", nil)
	observer.Warn(context.Background(), "missing key file", map[string]any{"path": "keys/bot.pem"})
	observer.Error(context.Background(), "transport failed", map[string]any{"error": "dial tcp"})

	records := logger.snapshot()
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d", len(records))
	}
	levels := []string{"debug", "info", "warn", "error"}
	for i, level := range levels {
		if records[i].level != level {
			t.Fatalf("record %d: expected level %q, got %q", i, level, records[i].level)
		}
	}
	if records[0].fields["authorization"] != RedactedValue {
		t.Fatalf("expected authorization redacted, got %#v", records[0].fields["authorization"])
	}
	if records[0].fields["status_code"] != 200 {
		t.Fatalf("expected status_code field, got %#v", records[0].fields["status_code"])
	}
}

func TestObserver_ForwardsMetricsWithCopiedTags(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	observer := NewObserver(nil, metrics)
	tags := map[string]string{"network": "WECHAT"}

	observer.Counter(context.Background(), " "+MetricAPICalls+" ", 1, tags)
	observer.Histogram(context.Background(), MetricAPICallDuration, 0.5, tags)
	tags["network"] = "mutated"

	if len(metrics.counters) != 1 || metrics.counters[0].name != MetricAPICalls {
		t.Fatalf("expected trimmed counter name, got %+v", metrics.counters)
	}
	if metrics.counters[0].tags["network"] != "WECHAT" {
		t.Fatalf("expected tags to be copied, got %+v", metrics.counters[0].tags)
	}
	if len(metrics.histograms) != 1 || metrics.histograms[0].value != 0.5 {
		t.Fatalf("expected histogram sample, got %+v", metrics.histograms)
	}
}

func TestObserver_ZeroValueDiscards(t *testing.T) {
	var observer Observer
	observer.Info(context.Background(), "ignored", map[string]any{"k": "v"})
	observer.Counter(context.Background(), MetricRows, 1, nil)
	if observer.Logger() == nil {
		t.Fatalf("expected nop logger from zero observer")
	}
}

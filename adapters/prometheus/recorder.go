package prometheus

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-connect-contacts/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements core.MetricsRecorder on a private prometheus registry.
// Collectors are registered on first use; the label set of a metric is fixed
// by its first observation and later tags outside that set are dropped.
type Recorder struct {
	mu         sync.Mutex
	registry   *prometheus.Registry
	namespace  string
	buckets    []float64
	counters   map[string]*counterEntry
	histograms map[string]*histogramEntry
}

type counterEntry struct {
	vec    *prometheus.CounterVec
	labels []string
}

type histogramEntry struct {
	vec    *prometheus.HistogramVec
	labels []string
}

type Option func(*Recorder)

func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = strings.TrimSpace(namespace)
	}
}

func WithBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

func NewRecorder(opts ...Option) *Recorder {
	recorder := &Recorder{
		registry:   prometheus.NewRegistry(),
		buckets:    prometheus.DefBuckets,
		counters:   map[string]*counterEntry{},
		histograms: map[string]*histogramEntry{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(recorder)
		}
	}
	return recorder
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || strings.TrimSpace(name) == "" || value < 0 {
		return
	}
	entry, err := r.counter(name, tags)
	if err != nil {
		return
	}
	entry.vec.With(labelValues(entry.labels, tags)).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil || strings.TrimSpace(name) == "" {
		return
	}
	entry, err := r.histogram(name, tags)
	if err != nil {
		return
	}
	entry.vec.With(labelValues(entry.labels, tags)).Observe(value)
}

// WriteTextfile dumps the registry in the text exposition format, suitable
// for the node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return core.ConfigError("prometheus: recorder is nil", nil)
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return core.ConfigError("prometheus: textfile path is required", nil)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return core.StorageError(err, "prometheus: write textfile", map[string]any{"path": path})
	}
	return nil
}

func (r *Recorder) counter(name string, tags map[string]string) (*counterEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.counters[name]; ok {
		return entry, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      helpText(name),
	}, labels)
	if err := r.registry.Register(vec); err != nil {
		return nil, err
	}
	entry := &counterEntry{vec: vec, labels: labels}
	r.counters[name] = entry
	return entry, nil
}

func (r *Recorder) histogram(name string, tags map[string]string) (*histogramEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.histograms[name]; ok {
		return entry, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      name,
		Help:      helpText(name),
		Buckets:   r.buckets,
	}, labels)
	if err := r.registry.Register(vec); err != nil {
		return nil, err
	}
	entry := &histogramEntry{vec: vec, labels: labels}
	r.histograms[name] = entry
	return entry, nil
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	for key := range tags {
		if strings.TrimSpace(key) == "" {
			continue
		}
		names = append(names, key)
	}
	sort.Strings(names)
	return names
}

func labelValues(names []string, tags map[string]string) prometheus.Labels {
	labels := make(prometheus.Labels, len(names))
	for _, name := range names {
		labels[name] = tags[name]
	}
	return labels
}

func helpText(name string) string {
	switch name {
	case core.MetricAPICalls:
		return "Connect API calls by network, operation and outcome."
	case core.MetricAPICallDuration:
		return "Connect API call latency in seconds."
	case core.MetricReauth:
		return "Token re-mints triggered by 401 responses."
	case core.MetricRows:
		return "Processed batch rows by state."
	default:
		return strings.ReplaceAll(name, "_", " ")
	}
}

var _ core.MetricsRecorder = (*Recorder)(nil)

package gologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const DefaultLoggerName = "contacts"

// Options configures the logrus backed logger. When File is set output goes
// to a size rotated file instead of Output.
type Options struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	JSON       bool
	Output     io.Writer
}

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// Provider hands out named loggers sharing one logrus instance.
type Provider struct {
	base   *logrus.Logger
	closer io.Closer
}

func NewProvider(opts Options) (*Provider, error) {
	level := strings.TrimSpace(opts.Level)
	if level == "" {
		level = "info"
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, core.WrapConfigError(err, "gologger: invalid log level", map[string]any{"level": level})
	}

	base := logrus.New()
	base.SetLevel(parsed)
	if opts.JSON {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{DisableQuote: true, FullTimestamp: true})
	}

	provider := &Provider{base: base}
	switch {
	case strings.TrimSpace(opts.File) != "":
		rotating := &lumberjack.Logger{
			Filename:   strings.TrimSpace(opts.File),
			MaxSize:    defaultInt(opts.MaxSizeMB, 10),
			MaxBackups: defaultInt(opts.MaxBackups, 5),
			MaxAge:     opts.MaxAgeDays,
		}
		base.SetOutput(rotating)
		provider.closer = rotating
	case opts.Output != nil:
		base.SetOutput(opts.Output)
	default:
		base.SetOutput(os.Stderr)
	}
	return provider, nil
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.base == nil {
		return glog.Nop()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLoggerName
	}
	return &Logger{entry: p.base.WithField("logger", name)}
}

// Close releases the rotating log file, if any.
func (p *Provider) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

type Logger struct {
	entry *logrus.Entry
}

func (l *Logger) Trace(msg string, args ...any) { l.log(logrus.TraceLevel, msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.log(logrus.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(logrus.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(logrus.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(logrus.ErrorLevel, msg, args) }

// Fatal logs at fatal level without exiting the process.
func (l *Logger) Fatal(msg string, args ...any) { l.log(logrus.FatalLevel, msg, args) }

func (l *Logger) WithContext(ctx context.Context) glog.Logger {
	if l == nil || l.entry == nil || ctx == nil {
		return l
	}
	return &Logger{entry: l.entry.WithContext(ctx)}
}

func (l *Logger) log(level logrus.Level, msg string, args []any) {
	if l == nil || l.entry == nil {
		return
	}
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	l.entry.WithFields(fieldsFromArgs(args)).Log(level, msg)
}

// fieldsFromArgs pairs key/value arguments. A trailing key without value is
// kept under "!BADKEY".
func fieldsFromArgs(args []any) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			fields["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields[key] = args[i+1]
	}
	return fields
}

func defaultInt(value int, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

var (
	_ glog.Logger         = (*Logger)(nil)
	_ glog.LoggerProvider = (*Provider)(nil)
)

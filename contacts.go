package contacts

import (
	"context"
	"strings"

	"github.com/goliatone/go-connect-contacts/auth"
	"github.com/goliatone/go-connect-contacts/batch"
	"github.com/goliatone/go-connect-contacts/core"
	"github.com/goliatone/go-connect-contacts/transport"
)

type Config = core.Config

type Network = core.Network

type Contact = core.Contact

type Outcome = core.Outcome

type ContactRecord = core.ContactRecord

type Report = batch.Report

type Request = batch.Request

const (
	NetworkWeChat   = core.NetworkWeChat
	NetworkWhatsApp = core.NetworkWhatsApp
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

type Option func(*options)

type options struct {
	loggerName     string
	logger         core.Logger
	loggerProvider core.LoggerProvider
	metrics        core.MetricsRecorder
	runRecorder    core.RunRecorder
	httpDoer       transport.HTTPDoer
	tokenCache     core.TokenCache
	keys           auth.KeySource
}

func WithLogger(logger core.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *options) {
		o.loggerProvider = provider
	}
}

func WithLoggerName(name string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			o.loggerName = trimmed
		}
	}
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = metrics
	}
}

// WithRunRecorder persists each run and its rows, see store/sql.
func WithRunRecorder(recorder core.RunRecorder) Option {
	return func(o *options) {
		o.runRecorder = recorder
	}
}

// WithHTTPDoer replaces the per-session HTTP client, mostly for tests.
func WithHTTPDoer(doer transport.HTTPDoer) Option {
	return func(o *options) {
		o.httpDoer = doer
	}
}

// WithTokenCache overrides the cache selected by Config.TokenCache.
func WithTokenCache(cache core.TokenCache) Option {
	return func(o *options) {
		o.tokenCache = cache
	}
}

// WithKeySource overrides the PEM file named by Config.BotRSAPath.
func WithKeySource(keys auth.KeySource) Option {
	return func(o *options) {
		o.keys = keys
	}
}

// LoadConfig reads the config file at path, resolves relative paths against
// baseDir and layers runtime overrides on top. Runtime values are taken as
// given.
func LoadConfig(ctx context.Context, path string, baseDir string, runtime Config, logger core.Logger) (Config, error) {
	defaults := core.DefaultConfig()
	provider := core.NewCfgxConfigProvider(core.FileConfigLoader{Path: path, Logger: logger}, baseDir)
	provider.Logger = logger
	loaded, err := provider.Load(ctx, defaults)
	if err != nil {
		return Config{}, err
	}
	return core.GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
}

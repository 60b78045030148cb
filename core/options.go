package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-config/cfgx"
	goconfig "github.com/goliatone/go-config/config"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type StaticRawConfigLoader struct {
	Values map[string]any
}

func (l StaticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

// FileConfigLoader reads a config file (JSON, YAML or TOML by extension)
// through a go-config container and returns the merged koanf values. Values
// are taken literally; no solvers or transformers run.
type FileConfigLoader struct {
	Path   string
	Logger Logger
}

func (l FileConfigLoader) LoadRaw(ctx context.Context) (map[string]any, error) {
	path := strings.TrimSpace(l.Path)
	if path == "" {
		return nil, ConfigError("core: config file path is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	container := goconfig.New(Config{}).
		WithLogger(glog.Ensure(l.Logger)).
		WithValidation(false).
		WithDefaultTransformers(false).
		WithSolvers().
		WithProvider(goconfig.FileProvider[Config](path))
	if err := container.Load(ctx); err != nil {
		return nil, WrapConfigError(err, "core: load config file", map[string]any{"path": path})
	}
	return container.K.Raw(), nil
}

// CfgxConfigProvider builds a Config from raw values and resolves relative
// paths against BaseDir.
type CfgxConfigProvider struct {
	Loader  RawConfigLoader
	BaseDir string
	Logger  Logger
}

func NewCfgxConfigProvider(loader RawConfigLoader, baseDir string) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader, BaseDir: baseDir}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = StaticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](compactValues(raw),
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, asConfigError(err)
	}
	return cfg.Resolve(p.BaseDir, p.Logger), nil
}

// Resolve prefixes API hosts with https:// and turns the key and trust store
// paths into cleaned paths relative to baseDir. Missing files are logged, not
// rejected; reading them fails later with a config error.
func (c Config) Resolve(baseDir string, logger Logger) Config {
	observer := NewObserver(logger, nil)
	resolved := c
	resolved.WeChatAPIURL = withScheme(c.WeChatAPIURL)
	resolved.WhatsAppAPIURL = withScheme(c.WhatsAppAPIURL)

	if strings.TrimSpace(c.PrivateKeyName) != "" {
		resolved.BotRSAPath = resolvePath(baseDir, filepath.Join(c.PrivateKeyPath, c.PrivateKeyName))
		warnIfAbsent(observer, resolved.BotRSAPath, "privateKeyPath, privateKeyName")
	} else if strings.TrimSpace(c.BotRSAPath) != "" {
		resolved.BotRSAPath = resolvePath(baseDir, c.BotRSAPath)
	}
	if strings.TrimSpace(c.TruststorePath) != "" {
		resolved.TruststorePath = resolvePath(baseDir, c.TruststorePath)
		warnIfAbsent(observer, resolved.TruststorePath, "truststorePath")
	}
	resolved.TokenCache = strings.ToLower(strings.TrimSpace(c.TokenCache))
	if resolved.TokenCache == "" {
		resolved.TokenCache = TokenCacheMemory
	}
	return resolved
}

func withScheme(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

func resolvePath(baseDir string, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		baseDir = "."
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}

func warnIfAbsent(observer Observer, path string, keys string) {
	if _, err := os.Stat(path); err != nil {
		observer.Warn(context.Background(), fmt.Sprintf("%s specified in config, but resolved path does not exist", keys), map[string]any{
			"path": path,
		})
	}
}

// compactValues drops nil entries so JSON nulls fall back to defaults.
func compactValues(raw map[string]any) map[string]any {
	out := make(map[string]any, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		out[key] = value
	}
	return out
}

// GoOptionsResolver layers defaults < config file < runtime overrides.
type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			configToLayerMap(defaults, true),
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			configToLayerMap(loaded, false),
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			configToLayerMap(runtime, false),
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, WrapConfigError(err, "core: options stack build failed", nil)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, WrapConfigError(err, "core: options merge failed", nil)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, asConfigError(err)
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	set := func(key string, value string) {
		if includeZero || strings.TrimSpace(value) != "" {
			layer[key] = value
		}
	}
	set("podId", cfg.PodID)
	set("wechat_apiURL", cfg.WeChatAPIURL)
	set("whatsapp_apiURL", cfg.WhatsAppAPIURL)
	set("wechat_publicKeyId", cfg.WeChatPublicKeyID)
	set("whatsapp_publicKeyId", cfg.WhatsAppPublicKeyID)
	set("privateKeyPath", cfg.PrivateKeyPath)
	set("privateKeyName", cfg.PrivateKeyName)
	set("botRSAPath", cfg.BotRSAPath)
	set("truststorePath", cfg.TruststorePath)
	set("proxyURL", cfg.ProxyURL)
	set("proxyUsername", cfg.ProxyUsername)
	set("proxyPassword", cfg.ProxyPassword)
	set("requestTimeout", cfg.RequestTimeout)
	set("tokenCache", cfg.TokenCache)
	set("historyDriver", cfg.HistoryDriver)
	set("historyDSN", cfg.HistoryDSN)
	set("logLevel", cfg.LogLevel)
	set("logFile", cfg.LogFile)
	set("metricsFile", cfg.MetricsFile)
	return layer
}

// asConfigError keeps a validation error raised by Config.Validate as the
// outermost envelope so callers can match on ErrorConfigInvalid.
func asConfigError(err error) error {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr.TextCode == ErrorConfigInvalid {
		return err
	}
	return WrapConfigError(err, "core: build config", nil)
}

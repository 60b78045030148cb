package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	TokenCacheMemory = "memory"
	TokenCacheShared = "shared"

	HistoryDriverSQLite   = "sqlite3"
	HistoryDriverPostgres = "postgres"
)

// Config holds the Connect API connection settings. Keys mirror the JSON
// config file.
type Config struct {
	PodID               string `koanf:"podId" mapstructure:"podId"`
	WeChatAPIURL        string `koanf:"wechat_apiURL" mapstructure:"wechat_apiURL"`
	WhatsAppAPIURL      string `koanf:"whatsapp_apiURL" mapstructure:"whatsapp_apiURL"`
	WeChatPublicKeyID   string `koanf:"wechat_publicKeyId" mapstructure:"wechat_publicKeyId"`
	WhatsAppPublicKeyID string `koanf:"whatsapp_publicKeyId" mapstructure:"whatsapp_publicKeyId"`
	PrivateKeyPath      string `koanf:"privateKeyPath" mapstructure:"privateKeyPath"`
	PrivateKeyName      string `koanf:"privateKeyName" mapstructure:"privateKeyName"`
	BotRSAPath          string `koanf:"botRSAPath" mapstructure:"botRSAPath"`
	TruststorePath      string `koanf:"truststorePath" mapstructure:"truststorePath"`
	ProxyURL            string `koanf:"proxyURL" mapstructure:"proxyURL"`
	ProxyUsername       string `koanf:"proxyUsername" mapstructure:"proxyUsername"`
	ProxyPassword       string `koanf:"proxyPassword" mapstructure:"proxyPassword"`
	RequestTimeout      string `koanf:"requestTimeout" mapstructure:"requestTimeout"`
	TokenCache          string `koanf:"tokenCache" mapstructure:"tokenCache"`
	HistoryDriver       string `koanf:"historyDriver" mapstructure:"historyDriver"`
	HistoryDSN          string `koanf:"historyDSN" mapstructure:"historyDSN"`
	LogLevel            string `koanf:"logLevel" mapstructure:"logLevel"`
	LogFile             string `koanf:"logFile" mapstructure:"logFile"`
	MetricsFile         string `koanf:"metricsFile" mapstructure:"metricsFile"`
}

func DefaultConfig() Config {
	return Config{
		TokenCache:    TokenCacheMemory,
		HistoryDriver: HistoryDriverSQLite,
		LogLevel:      "info",
	}
}

func (c Config) Validate() error {
	missing := []string{}
	if strings.TrimSpace(c.PodID) == "" {
		missing = append(missing, "podId")
	}
	if strings.TrimSpace(c.WeChatAPIURL) == "" {
		missing = append(missing, "wechat_apiURL")
	}
	if strings.TrimSpace(c.WhatsAppAPIURL) == "" {
		missing = append(missing, "whatsapp_apiURL")
	}
	if strings.TrimSpace(c.WeChatPublicKeyID) == "" {
		missing = append(missing, "wechat_publicKeyId")
	}
	if strings.TrimSpace(c.WhatsAppPublicKeyID) == "" {
		missing = append(missing, "whatsapp_publicKeyId")
	}
	if strings.TrimSpace(c.PrivateKeyName) == "" && strings.TrimSpace(c.BotRSAPath) == "" {
		missing = append(missing, "privateKeyName")
	}
	if len(missing) > 0 {
		return ConfigError(
			fmt.Sprintf("core: missing required config fields: %s", strings.Join(missing, ", ")),
			map[string]any{"fields": missing},
		)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.TokenCache)) {
	case "", TokenCacheMemory, TokenCacheShared:
	default:
		return ConfigError(fmt.Sprintf("core: unsupported tokenCache %q", c.TokenCache), nil)
	}
	switch strings.ToLower(strings.TrimSpace(c.HistoryDriver)) {
	case "", HistoryDriverSQLite, "sqlite", HistoryDriverPostgres:
	default:
		return ConfigError(fmt.Sprintf("core: unsupported historyDriver %q", c.HistoryDriver), nil)
	}
	return nil
}

// APIURL returns the base URL configured for network.
func (c Config) APIURL(network Network) (string, bool) {
	switch network {
	case NetworkWeChat:
		return c.WeChatAPIURL, strings.TrimSpace(c.WeChatAPIURL) != ""
	case NetworkWhatsApp:
		return c.WhatsAppAPIURL, strings.TrimSpace(c.WhatsAppAPIURL) != ""
	default:
		return "", false
	}
}

// PublicKeyID returns the key identifier used as token subject for network.
func (c Config) PublicKeyID(network Network) (string, bool) {
	switch network {
	case NetworkWeChat:
		return c.WeChatPublicKeyID, strings.TrimSpace(c.WeChatPublicKeyID) != ""
	case NetworkWhatsApp:
		return c.WhatsAppPublicKeyID, strings.TrimSpace(c.WhatsAppPublicKeyID) != ""
	default:
		return "", false
	}
}

func (c Config) Timeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.RequestTimeout)
	if raw == "" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, WrapConfigError(err, "core: invalid requestTimeout", map[string]any{"value": raw})
	}
	if timeout < 0 {
		return 0, ConfigError("core: requestTimeout must not be negative", map[string]any{"value": raw})
	}
	return timeout, nil
}

// Proxy returns the proxy URL with credentials embedded, or nil when no proxy
// is configured.
func (c Config) Proxy() (*url.URL, error) {
	raw := strings.TrimSpace(c.ProxyURL)
	if raw == "" {
		return nil, nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, WrapConfigError(err, "core: invalid proxyURL", nil)
	}
	if username := strings.TrimSpace(c.ProxyUsername); username != "" {
		parsed.User = url.UserPassword(username, c.ProxyPassword)
	}
	return parsed, nil
}

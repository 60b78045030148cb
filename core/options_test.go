package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func validRawConfig() map[string]any {
	return map[string]any{
		"podId":                "pod-1",
		"wechat_apiURL":        "wechat.example.com",
		"whatsapp_apiURL":      "http://whatsapp.local:8080/",
		"wechat_publicKeyId":   "wc-key",
		"whatsapp_publicKeyId": "wa-key",
		"privateKeyPath":       "keys",
		"privateKeyName":       "bot.pem",
	}
}

func TestCfgxConfigProvider_LoadsAndResolves(t *testing.T) {
	dir := t.TempDir()
	raw := validRawConfig()
	raw["truststorePath"] = "certs/ca.pem"
	raw["proxyPassword"] = nil

	provider := NewCfgxConfigProvider(StaticRawConfigLoader{Values: raw}, dir)
	cfg, err := provider.Load(context.Background(), DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.WeChatAPIURL != "https://wechat.example.com" {
		t.Fatalf("expected https prefix, got %q", cfg.WeChatAPIURL)
	}
	if cfg.WhatsAppAPIURL != "http://whatsapp.local:8080" {
		t.Fatalf("expected scheme kept and slash trimmed, got %q", cfg.WhatsAppAPIURL)
	}
	if cfg.BotRSAPath != filepath.Join(dir, "keys", "bot.pem") {
		t.Fatalf("expected key path joined under base dir, got %q", cfg.BotRSAPath)
	}
	if cfg.TruststorePath != filepath.Join(dir, "certs", "ca.pem") {
		t.Fatalf("expected trust store under base dir, got %q", cfg.TruststorePath)
	}
	if cfg.TokenCache != TokenCacheMemory || cfg.HistoryDriver != HistoryDriverSQLite {
		t.Fatalf("expected defaults to apply, got %+v", cfg)
	}
}

func TestCfgxConfigProvider_MissingFieldsIsConfigError(t *testing.T) {
	raw := validRawConfig()
	delete(raw, "wechat_publicKeyId")
	delete(raw, "podId")

	_, err := NewCfgxConfigProvider(StaticRawConfigLoader{Values: raw}, "").Load(context.Background(), DefaultConfig())
	if !HasTextCode(err, ErrorConfigInvalid) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestFileConfigLoader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"podId":"pod-1","logLevel":"debug"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	values, err := FileConfigLoader{Path: path}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	if values["podId"] != "pod-1" || values["logLevel"] != "debug" {
		t.Fatalf("unexpected values %#v", values)
	}

	if _, err := (FileConfigLoader{Path: filepath.Join(t.TempDir(), "missing.json")}).LoadRaw(context.Background()); !HasTextCode(err, ErrorConfigInvalid) {
		t.Fatalf("expected config error for missing file, got %v", err)
	}
	broken := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(broken, []byte(`{`), 0o600); err != nil {
		t.Fatalf("write broken config: %v", err)
	}
	if _, err := (FileConfigLoader{Path: broken}).LoadRaw(context.Background()); !HasTextCode(err, ErrorConfigInvalid) {
		t.Fatalf("expected config error for invalid json, got %v", err)
	}
}

func TestFileConfigLoader_FormatsAndLiteralValues(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(yamlPath, []byte("podId: pod-2\nproxyPassword: \"${SECRET}\"\n"), 0o600); err != nil {
		t.Fatalf("write yaml config: %v", err)
	}
	values, err := FileConfigLoader{Path: yamlPath}.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if values["podId"] != "pod-2" {
		t.Fatalf("expected podId from yaml, got %#v", values)
	}
	if values["proxyPassword"] != "${SECRET}" {
		t.Fatalf("expected literal password, got %#v", values["proxyPassword"])
	}

	if _, err := (FileConfigLoader{}).LoadRaw(context.Background()); !HasTextCode(err, ErrorConfigInvalid) {
		t.Fatalf("expected config error for empty path, got %v", err)
	}
}

func TestGoOptionsResolver_RuntimeOverridesFile(t *testing.T) {
	defaults := DefaultConfig()
	loaded := defaults
	loaded.PodID = "pod-1"
	loaded.WeChatAPIURL = "https://wechat.example.com"
	loaded.WhatsAppAPIURL = "https://whatsapp.example.com"
	loaded.WeChatPublicKeyID = "wc-key"
	loaded.WhatsAppPublicKeyID = "wa-key"
	loaded.BotRSAPath = "/keys/bot.pem"
	loaded.LogLevel = "warn"

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, Config{LogLevel: "debug", HistoryDSN: "file:history.db"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.LogLevel != "debug" {
		t.Fatalf("expected runtime log level, got %q", resolved.LogLevel)
	}
	if resolved.HistoryDSN != "file:history.db" {
		t.Fatalf("expected runtime history dsn, got %q", resolved.HistoryDSN)
	}
	if resolved.PodID != "pod-1" || resolved.BotRSAPath != "/keys/bot.pem" {
		t.Fatalf("expected file values to survive, got %+v", resolved)
	}
}

func TestConfigTimeoutAndProxy(t *testing.T) {
	cfg := Config{RequestTimeout: "15s", ProxyURL: "proxy.local:3128", ProxyUsername: "svc", ProxyPassword: "p@ss"}
	timeout, err := cfg.Timeout()
	if err != nil || timeout.Seconds() != 15 {
		t.Fatalf("expected 15s timeout, got %v (%v)", timeout, err)
	}
	proxy, err := cfg.Proxy()
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if proxy.Scheme != "http" || proxy.Host != "proxy.local:3128" {
		t.Fatalf("unexpected proxy url %v", proxy)
	}
	if password, _ := proxy.User.Password(); proxy.User.Username() != "svc" || password != "p@ss" {
		t.Fatalf("expected embedded credentials, got %v", proxy.User)
	}

	if _, err := (Config{RequestTimeout: "soon"}).Timeout(); !HasTextCode(err, ErrorConfigInvalid) {
		t.Fatalf("expected config error for bad timeout, got %v", err)
	}
	if proxy, err := (Config{}).Proxy(); err != nil || proxy != nil {
		t.Fatalf("expected no proxy, got %v (%v)", proxy, err)
	}
}

func TestConfigLookupsPerNetwork(t *testing.T) {
	cfg := Config{WeChatAPIURL: "https://wc", WeChatPublicKeyID: "wc-key"}
	if url, ok := cfg.APIURL(NetworkWeChat); !ok || url != "https://wc" {
		t.Fatalf("expected wechat url, got %q %v", url, ok)
	}
	if _, ok := cfg.APIURL(NetworkWhatsApp); ok {
		t.Fatalf("expected missing whatsapp url")
	}
	if keyID, ok := cfg.PublicKeyID(NetworkWeChat); !ok || keyID != "wc-key" {
		t.Fatalf("expected wechat key id, got %q %v", keyID, ok)
	}
	if _, ok := cfg.PublicKeyID(Network("TELEGRAM")); ok {
		t.Fatalf("expected unknown network lookup to fail")
	}
}

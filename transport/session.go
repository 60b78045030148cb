package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
	goerrors "github.com/goliatone/go-errors"
)

// SessionConfig carries the settings applied to every per-call HTTP client.
type SessionConfig struct {
	Proxy            *url.URL
	TruststorePath   string
	Timeout          time.Duration
	MaxResponseBytes int64
}

// SessionConfigFromCore derives session settings from the connection config.
func SessionConfigFromCore(cfg core.Config) (SessionConfig, error) {
	proxy, err := cfg.Proxy()
	if err != nil {
		return SessionConfig{}, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return SessionConfig{}, err
	}
	return SessionConfig{
		Proxy:          proxy,
		TruststorePath: strings.TrimSpace(cfg.TruststorePath),
		Timeout:        timeout,
	}, nil
}

type SessionOption func(*SessionFactory)

// WithHTTPDoer replaces the per-call http.Client, mostly for tests.
func WithHTTPDoer(doer HTTPDoer) SessionOption {
	return func(f *SessionFactory) {
		f.doer = doer
	}
}

// SessionFactory opens a new REST session for every call. Only the bearer
// token outlives a session.
type SessionFactory struct {
	config SessionConfig
	doer   HTTPDoer
}

func NewSessionFactory(cfg SessionConfig, opts ...SessionOption) *SessionFactory {
	factory := &SessionFactory{config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(factory)
		}
	}
	return factory
}

func (f *SessionFactory) Open(_ context.Context, token core.Token) (core.TransportAdapter, error) {
	if f == nil {
		return nil, transportError(
			"transport: session factory is nil",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if token.IsZero() {
		return nil, transportError(
			"transport: bearer token is required",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"network": string(token.Network)},
		)
	}
	client := f.doer
	if client == nil {
		httpClient, err := f.newHTTPClient()
		if err != nil {
			return nil, err
		}
		client = httpClient
	}
	adapter := NewRESTAdapter(client)
	adapter.Headers = map[string]string{
		"Authorization": "Bearer " + token.Value,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
	if f.config.MaxResponseBytes > 0 {
		adapter.MaxResponseBytes = f.config.MaxResponseBytes
	}
	return adapter, nil
}

func (f *SessionFactory) newHTTPClient() (*http.Client, error) {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}
	roundTripper := base.Clone()
	if f.config.Proxy != nil {
		roundTripper.Proxy = http.ProxyURL(f.config.Proxy)
	}
	if path := strings.TrimSpace(f.config.TruststorePath); path != "" {
		pool, err := loadTrustStore(path)
		if err != nil {
			return nil, err
		}
		roundTripper.TLSClientConfig = &tls.Config{
			RootCAs:    pool,
			MinVersion: tls.VersionTLS12,
		}
	}
	return &http.Client{
		Transport: roundTripper,
		Timeout:   f.config.Timeout,
	}, nil
}

// loadTrustStore reads a PEM bundle that replaces the system roots.
func loadTrustStore(path string) (*x509.CertPool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapConfigError(err, "transport: read trust store", map[string]any{"path": path})
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(raw) {
		return nil, core.ConfigError("transport: trust store contains no PEM certificates", map[string]any{"path": path})
	}
	return pool, nil
}

var _ core.SessionOpener = (*SessionFactory)(nil)

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
	goerrors "github.com/goliatone/go-errors"
)

const DefaultMaxAuthRetries = 1

type Option func(*Client)

func WithLogger(logger core.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetricsRecorder(metrics core.MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = metrics
	}
}

// WithMaxAuthRetries bounds how often a call is replayed after a 401.
// Negative values disable the replay.
func WithMaxAuthRetries(retries int) Option {
	return func(c *Client) {
		if retries < 0 {
			retries = 0
		}
		c.maxAuthRetries = retries
	}
}

func WithRequestTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

type Client struct {
	baseURLs       map[core.Network]string
	tokens         core.TokenSource
	sessions       core.SessionOpener
	logger         core.Logger
	metrics        core.MetricsRecorder
	observer       core.Observer
	maxAuthRetries int
	timeout        time.Duration
}

func NewClient(
	baseURLs map[core.Network]string,
	tokens core.TokenSource,
	sessions core.SessionOpener,
	opts ...Option,
) (*Client, error) {
	if tokens == nil {
		return nil, core.ConfigError("api: token source is required", nil)
	}
	if sessions == nil {
		return nil, core.ConfigError("api: session opener is required", nil)
	}
	client := &Client{
		baseURLs:       make(map[core.Network]string, len(baseURLs)),
		tokens:         tokens,
		sessions:       sessions,
		maxAuthRetries: DefaultMaxAuthRetries,
	}
	for network, baseURL := range baseURLs {
		client.baseURLs[network] = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	client.observer = core.NewObserver(client.logger, client.metrics)
	return client, nil
}

// NewClientFromConfig routes each network to the API URL configured for it.
func NewClientFromConfig(
	cfg core.Config,
	tokens core.TokenSource,
	sessions core.SessionOpener,
	opts ...Option,
) (*Client, error) {
	baseURLs := map[core.Network]string{}
	for _, network := range core.Networks() {
		if baseURL, ok := cfg.APIURL(network); ok {
			baseURLs[network] = baseURL
		}
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		opts = append([]Option{WithRequestTimeout(timeout)}, opts...)
	}
	return NewClient(baseURLs, tokens, sessions, opts...)
}

// Call describes one REST operation against the Connect API.
type Call struct {
	Operation string
	Network   core.Network
	Method    string
	Path      string
	Body      any
}

// Execute runs a REST call and normalizes the response. Transport failures
// are returned as errors; API failures are ERROR outcomes.
func (c *Client) Execute(ctx context.Context, network core.Network, method string, path string, body any) (core.Outcome, error) {
	return c.Do(ctx, Call{
		Network: network,
		Method:  method,
		Path:    path,
		Body:    body,
	})
}

func (c *Client) Do(ctx context.Context, call Call) (core.Outcome, error) {
	if c == nil {
		return core.Outcome{}, core.ConfigError("api: client is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return c.execute(ctx, call, c.maxAuthRetries)
}

func (c *Client) execute(ctx context.Context, call Call, retriesLeft int) (core.Outcome, error) {
	baseURL, ok := c.baseURLs[call.Network]
	if !ok || baseURL == "" {
		return core.Outcome{}, core.BadInputError(
			fmt.Sprintf("api: no API URL configured for network %q", call.Network),
			map[string]any{"network": string(call.Network)},
		)
	}
	body, err := encodeBody(call.Body)
	if err != nil {
		return core.Outcome{}, err
	}

	token, err := c.tokens.Token(ctx, call.Network)
	if err != nil {
		return core.Outcome{}, err
	}
	session, err := c.sessions.Open(ctx, token)
	if err != nil {
		return core.Outcome{}, err
	}

	url := baseURL + call.Path
	method := strings.ToUpper(strings.TrimSpace(call.Method))
	fields := map[string]any{
		"network":   string(call.Network),
		"operation": call.Operation,
		"method":    method,
		"url":       url,
	}
	c.observer.Debug(ctx, "invoke api url", fields)

	startedAt := time.Now()
	res, err := session.Do(ctx, core.TransportRequest{
		Method:  method,
		URL:     url,
		Body:    body,
		Timeout: c.timeout,
	})
	c.observer.Histogram(ctx, core.MetricAPICallDuration, time.Since(startedAt).Seconds(), map[string]string{
		"network":   string(call.Network),
		"operation": call.Operation,
	})
	if err != nil {
		fields["error"] = err.Error()
		c.observer.Error(ctx, "api call failed", fields)
		c.countCall(ctx, call, "transport_error")
		return core.Outcome{}, asTransportError(err, fields)
	}

	c.observer.Debug(ctx, "api response", map[string]any{
		"status_code": res.StatusCode,
		"body":        string(res.Body),
	})

	if res.StatusCode == http.StatusUnauthorized {
		if err := c.tokens.Invalidate(ctx, call.Network); err != nil {
			return core.Outcome{}, err
		}
		if retriesLeft > 0 {
			c.observer.Info(ctx, "token rejected, reauthenticating", map[string]any{
				"network":   string(call.Network),
				"operation": call.Operation,
			})
			c.observer.Counter(ctx, core.MetricReauth, 1, map[string]string{"network": string(call.Network)})
			c.countCall(ctx, call, "reauth")
			return c.execute(ctx, call, retriesLeft-1)
		}
	}

	outcome := Normalize(res.StatusCode, DecodePayload(res.StatusCode, res.Body))
	c.observer.Debug(ctx, "api output", map[string]any{
		"status":  string(outcome.Status),
		"message": outcome.Message(),
	})
	c.countCall(ctx, call, strings.ToLower(string(outcome.Status)))
	return outcome, nil
}

func (c *Client) countCall(ctx context.Context, call Call, status string) {
	c.observer.Counter(ctx, core.MetricAPICalls, 1, map[string]string{
		"network":   string(call.Network),
		"operation": call.Operation,
		"status":    status,
	})
}

func encodeBody(body any) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, core.BadInputError("api: encode request body: "+err.Error(), nil)
	}
	return raw, nil
}

func asTransportError(err error, fields map[string]any) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return err
	}
	return core.TransportError(err, "api: execute request", map[string]any{
		"url":    fields["url"],
		"method": fields["method"],
	})
}

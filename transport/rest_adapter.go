package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
	goerrors "github.com/goliatone/go-errors"
)

const defaultMaxResponseBytes int64 = 10 << 20 // 10 MiB

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTAdapter sends one JSON request per call with a fixed header set, the
// bearer headers of the session that built it.
type RESTAdapter struct {
	Client           HTTPDoer
	Headers          map[string]string
	MaxResponseBytes int64
}

func NewRESTAdapter(client HTTPDoer) *RESTAdapter {
	if client == nil {
		client = &http.Client{}
	}
	return &RESTAdapter{
		Client:           client,
		Headers:          map[string]string{},
		MaxResponseBytes: defaultMaxResponseBytes,
	}
}

func (a *RESTAdapter) Do(ctx context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil || a.Client == nil {
		return core.TransportResponse{}, transportError(
			"transport: rest adapter requires an http client",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method := strings.TrimSpace(strings.ToUpper(req.Method))
	if method == "" {
		method = http.MethodGet
	}
	target, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid request url",
			http.StatusBadRequest,
			map[string]any{"url": strings.TrimSpace(req.URL)},
		)
	}
	if target.Host == "" {
		return core.TransportResponse{}, transportError(
			"transport: request url must be absolute",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"url": target.String()},
		)
	}
	fields := map[string]any{"method": method, "url": target.String()}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create http request",
			http.StatusBadRequest,
			fields,
		)
	}
	for key, value := range a.Headers {
		if key = strings.TrimSpace(key); key != "" {
			httpReq.Header.Set(key, strings.TrimSpace(value))
		}
	}

	httpRes, err := a.Client.Do(httpReq)
	if err != nil {
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: execute http request",
			http.StatusBadGateway,
			fields,
		)
	}
	defer httpRes.Body.Close()

	limit := a.MaxResponseBytes
	if limit <= 0 {
		limit = defaultMaxResponseBytes
	}
	resBody, err := io.ReadAll(io.LimitReader(httpRes.Body, limit+1))
	if err != nil {
		fields["status_code"] = httpRes.StatusCode
		return core.TransportResponse{}, transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: read response body",
			http.StatusBadGateway,
			fields,
		)
	}
	if int64(len(resBody)) > limit {
		fields["status_code"] = httpRes.StatusCode
		fields["limit_bytes"] = limit
		return core.TransportResponse{}, transportError(
			fmt.Sprintf("transport: response body exceeds limit of %d bytes", limit),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			fields,
		)
	}

	return core.TransportResponse{
		StatusCode: httpRes.StatusCode,
		Body:       resBody,
	}, nil
}

var _ core.TransportAdapter = (*RESTAdapter)(nil)

package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

// TransportRequest is one API call. Headers come from the session.
type TransportRequest struct {
	Method  string
	URL     string
	Body    []byte
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Body       []byte
}

type TransportAdapter interface {
	Do(ctx context.Context, req TransportRequest) (TransportResponse, error)
}

// SessionOpener builds a fresh transport bound to a bearer token. Sessions are
// not reused across calls.
type SessionOpener interface {
	Open(ctx context.Context, token Token) (TransportAdapter, error)
}

type TokenIssuer interface {
	Mint(ctx context.Context, network Network) (Token, error)
}

// TokenCache holds at most one token per network.
type TokenCache interface {
	GetOrMint(ctx context.Context, network Network, mint func(context.Context) (Token, error)) (Token, error)
	Store(ctx context.Context, token Token) error
	Invalidate(ctx context.Context, network Network) error
}

type TokenSource interface {
	Token(ctx context.Context, network Network) (Token, error)
	Invalidate(ctx context.Context, network Network) error
}

type ContactService interface {
	AddContact(ctx context.Context, network Network, contact Contact, advisors []string) (Outcome, error)
	UpdateContact(ctx context.Context, network Network, contact Contact, advisor string) (Outcome, error)
	DeleteContact(ctx context.Context, network Network, email string, advisor string) (Outcome, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type RunRecorder interface {
	CreateRun(ctx context.Context, run Run) (Run, error)
	AppendRow(ctx context.Context, row RunRow) error
	CompleteRun(ctx context.Context, runID string, status string, summary RunSummary) error
}

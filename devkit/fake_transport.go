package devkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-connect-contacts/core"
)

type TransportScript struct {
	Response core.TransportResponse
	Err      error
}

type FakeTransportAdapter struct {
	mu       sync.Mutex
	scripts  []TransportScript
	requests []core.TransportRequest
}

func NewFakeTransportAdapter(scripts ...TransportScript) *FakeTransportAdapter {
	return &FakeTransportAdapter{
		scripts: append([]TransportScript(nil), scripts...),
	}
}

// Do replays scripts in order, repeating the last one once exhausted.
func (a *FakeTransportAdapter) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport adapter is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneTransportRequest(req))
	index := len(a.requests) - 1
	if index < len(a.scripts) {
		script := a.scripts[index]
		return cloneTransportResponse(script.Response), script.Err
	}
	if len(a.scripts) > 0 {
		last := a.scripts[len(a.scripts)-1]
		return cloneTransportResponse(last.Response), last.Err
	}
	return core.TransportResponse{StatusCode: 200}, nil
}

func (a *FakeTransportAdapter) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneTransportRequest(item))
	}
	return out
}

// FakeSessionOpener hands the same scripted adapter to every session and
// records the token each session was opened with.
type FakeSessionOpener struct {
	mu      sync.Mutex
	adapter *FakeTransportAdapter
	tokens  []core.Token
	err     error
}

func NewFakeSessionOpener(scripts ...TransportScript) *FakeSessionOpener {
	return &FakeSessionOpener{adapter: NewFakeTransportAdapter(scripts...)}
}

// FailOpen makes every subsequent Open return err.
func (o *FakeSessionOpener) FailOpen(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.err = err
}

func (o *FakeSessionOpener) Open(_ context.Context, token core.Token) (core.TransportAdapter, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return nil, o.err
	}
	o.tokens = append(o.tokens, token)
	return o.adapter, nil
}

func (o *FakeSessionOpener) Adapter() *FakeTransportAdapter {
	return o.adapter
}

func (o *FakeSessionOpener) Tokens() []core.Token {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]core.Token(nil), o.tokens...)
}

func cloneTransportRequest(in core.TransportRequest) core.TransportRequest {
	out := in
	out.Body = append([]byte(nil), in.Body...)
	return out
}

func cloneTransportResponse(in core.TransportResponse) core.TransportResponse {
	out := in
	out.Body = append([]byte(nil), in.Body...)
	return out
}

var (
	_ core.TransportAdapter = (*FakeTransportAdapter)(nil)
	_ core.SessionOpener    = (*FakeSessionOpener)(nil)
)

package auth

import (
	"context"

	"github.com/goliatone/go-connect-contacts/core"
)

type TokenSigner interface {
	Sign(ctx context.Context, network core.Network) (core.Token, error)
}

// Tokens hands out the cached token for a network, minting one when the slot
// is empty.
type Tokens struct {
	signer TokenSigner
	cache  core.TokenCache
}

func NewTokens(signer TokenSigner, cache core.TokenCache) *Tokens {
	if cache == nil {
		cache = NewMemoryTokenCache()
	}
	return &Tokens{signer: signer, cache: cache}
}

func (t *Tokens) Token(ctx context.Context, network core.Network) (core.Token, error) {
	if t == nil || t.signer == nil {
		return core.Token{}, core.ConfigError("auth: token signer is required", nil)
	}
	return t.cache.GetOrMint(ctx, network, func(ctx context.Context) (core.Token, error) {
		return t.signer.Sign(ctx, network)
	})
}

func (t *Tokens) Invalidate(ctx context.Context, network core.Network) error {
	if t == nil || t.cache == nil {
		return nil
	}
	return t.cache.Invalidate(ctx, network)
}

func (t *Tokens) Cache() core.TokenCache {
	if t == nil {
		return nil
	}
	return t.cache
}

var (
	_ core.TokenSource = (*Tokens)(nil)
	_ TokenSigner      = (*TokenIssuer)(nil)
)

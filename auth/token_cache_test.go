package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
)

func TestMemoryTokenCache_MintsOncePerNetwork(t *testing.T) {
	cache := NewMemoryTokenCache()
	mints := map[core.Network]int{}
	mint := func(network core.Network) func(context.Context) (core.Token, error) {
		return func(context.Context) (core.Token, error) {
			mints[network]++
			return core.Token{Value: "tok-" + string(network), Network: network}, nil
		}
	}

	for i := 0; i < 3; i++ {
		for _, network := range core.Networks() {
			token, err := cache.GetOrMint(context.Background(), network, mint(network))
			if err != nil {
				t.Fatalf("get or mint: %v", err)
			}
			if token.Value != "tok-"+string(network) {
				t.Fatalf("token for %s leaked across networks: %q", network, token.Value)
			}
		}
	}
	for _, network := range core.Networks() {
		if mints[network] != 1 {
			t.Fatalf("expected one mint for %s, got %d", network, mints[network])
		}
	}
}

func TestMemoryTokenCache_InvalidateOnlyClearsNetwork(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryTokenCache()
	_ = cache.Store(ctx, core.Token{Value: "a", Network: core.NetworkWeChat})
	_ = cache.Store(ctx, core.Token{Value: "b", Network: core.NetworkWhatsApp})

	if err := cache.Invalidate(ctx, core.NetworkWeChat); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok := cache.Load(core.NetworkWeChat); ok {
		t.Fatalf("expected wechat token cleared")
	}
	if token, ok := cache.Load(core.NetworkWhatsApp); !ok || token.Value != "b" {
		t.Fatalf("expected whatsapp token kept")
	}
}

func TestMemoryTokenCache_MintErrorLeavesSlotEmpty(t *testing.T) {
	cache := NewMemoryTokenCache()
	_, err := cache.GetOrMint(context.Background(), core.NetworkWeChat, func(context.Context) (core.Token, error) {
		return core.Token{}, errors.New("boom")
	})
	if err == nil {
		t.Fatalf("expected mint error")
	}
	if _, ok := cache.Load(core.NetworkWeChat); ok {
		t.Fatalf("expected empty slot after failed mint")
	}
}

func TestMemoryTokenCache_ConcurrentCallersShareMint(t *testing.T) {
	cache := NewMemoryTokenCache()
	var (
		mu    sync.Mutex
		mints int
		wg    sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cache.GetOrMint(context.Background(), core.NetworkWhatsApp, func(context.Context) (core.Token, error) {
				mu.Lock()
				mints++
				mu.Unlock()
				return core.Token{Value: "shared", Network: core.NetworkWhatsApp}, nil
			})
		}()
	}
	wg.Wait()
	if mints != 1 {
		t.Fatalf("expected a single mint across concurrent callers, got %d", mints)
	}
}

func TestMemoryTokenCache_StoreRejectsUnknownNetwork(t *testing.T) {
	err := NewMemoryTokenCache().Store(context.Background(), core.Token{Value: "x", Network: "TELEGRAM"})
	if !core.HasTextCode(err, core.ErrorBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
}

func TestSharedTokenCache_GetOrMintAndInvalidate(t *testing.T) {
	ctx := context.Background()
	cache, err := NewSharedTokenCacheWithTTL(time.Minute)
	if err != nil {
		t.Fatalf("new shared cache: %v", err)
	}
	mints := 0
	mint := func(context.Context) (core.Token, error) {
		mints++
		return core.Token{Value: "tok", Network: core.NetworkWeChat}, nil
	}
	for i := 0; i < 2; i++ {
		if _, err := cache.GetOrMint(ctx, core.NetworkWeChat, mint); err != nil {
			t.Fatalf("get or mint: %v", err)
		}
	}
	if mints != 1 {
		t.Fatalf("expected cached token on second call, got %d mints", mints)
	}
	if err := cache.Invalidate(ctx, core.NetworkWeChat); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, err := cache.GetOrMint(ctx, core.NetworkWeChat, mint); err != nil {
		t.Fatalf("get or mint after invalidate: %v", err)
	}
	if mints != 2 {
		t.Fatalf("expected re-mint after invalidate, got %d mints", mints)
	}
}

func TestSharedTokenCache_StoreOverwrites(t *testing.T) {
	ctx := context.Background()
	cache, err := NewSharedTokenCacheWithTTL(time.Minute)
	if err != nil {
		t.Fatalf("new shared cache: %v", err)
	}
	_ = cache.Store(ctx, core.Token{Value: "first", Network: core.NetworkWhatsApp})
	_ = cache.Store(ctx, core.Token{Value: "second", Network: core.NetworkWhatsApp})

	token, err := cache.GetOrMint(ctx, core.NetworkWhatsApp, func(context.Context) (core.Token, error) {
		t.Fatalf("unexpected mint")
		return core.Token{}, nil
	})
	if err != nil {
		t.Fatalf("get or mint: %v", err)
	}
	if token.Value != "second" {
		t.Fatalf("expected overwritten token, got %q", token.Value)
	}
}

func TestTokenCacheKey(t *testing.T) {
	if got := TokenCacheKey(" wechat "); got != "go-connect-contacts::token::v1::WECHAT" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestTokens_RemintsAfterInvalidate(t *testing.T) {
	key := generateTestRSAKey(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuer(TokenIssuerConfig{
		Keys:         StaticKeySource{Key: key},
		PublicKeyIDs: map[core.Network]string{core.NetworkWeChat: "k1"},
		Now: func() time.Time {
			now = now.Add(time.Second)
			return now
		},
	})
	tokens := NewTokens(issuer, nil)
	ctx := context.Background()

	first, err := tokens.Token(ctx, core.NetworkWeChat)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	again, _ := tokens.Token(ctx, core.NetworkWeChat)
	if again.Value != first.Value {
		t.Fatalf("expected cached token reuse")
	}
	if err := tokens.Invalidate(ctx, core.NetworkWeChat); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	fresh, err := tokens.Token(ctx, core.NetworkWeChat)
	if err != nil {
		t.Fatalf("token after invalidate: %v", err)
	}
	if fresh.Value == first.Value {
		t.Fatalf("expected a new token after invalidate")
	}
}

func TestMisconfiguredTokenPlumbingReturnsConfigErrors(t *testing.T) {
	ctx := context.Background()
	mint := func(context.Context) (core.Token, error) {
		return core.Token{Value: "tok", Network: core.NetworkWeChat}, nil
	}
	var memory *MemoryTokenCache
	var shared *SharedTokenCache
	var tokens *Tokens
	tokenErr := func(_ core.Token, err error) error { return err }
	cacheErr := func(_ *SharedTokenCache, err error) error { return err }

	cases := []struct {
		name string
		run  func() error
	}{
		{"nil memory cache", func() error { return tokenErr(memory.GetOrMint(ctx, core.NetworkWeChat, mint)) }},
		{"nil memory store", func() error { return memory.Store(ctx, core.Token{Value: "tok", Network: core.NetworkWeChat}) }},
		{"memory without mint", func() error { return tokenErr(NewMemoryTokenCache().GetOrMint(ctx, core.NetworkWeChat, nil)) }},
		{"nil cache service", func() error { return cacheErr(NewSharedTokenCache(nil)) }},
		{"nil shared cache", func() error { return tokenErr(shared.GetOrMint(ctx, core.NetworkWeChat, mint)) }},
		{"nil shared store", func() error { return shared.Store(ctx, core.Token{Value: "tok", Network: core.NetworkWeChat}) }},
		{"tokens without signer", func() error { return tokenErr(tokens.Token(ctx, core.NetworkWeChat)) }},
		{"tokens with nil signer", func() error { return tokenErr(NewTokens(nil, nil).Token(ctx, core.NetworkWeChat)) }},
	}
	for _, tc := range cases {
		if err := tc.run(); !core.HasTextCode(err, core.ErrorConfigInvalid) {
			t.Fatalf("%s: expected config error, got %v", tc.name, err)
		}
	}
}

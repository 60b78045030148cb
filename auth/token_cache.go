package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-connect-contacts/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const tokenCacheKeyPrefix = "go-connect-contacts::token::v1"

// MemoryTokenCache keeps one token per network in process memory. Tokens are
// only dropped through Invalidate; expiry is discovered by the API rejecting
// the token.
type MemoryTokenCache struct {
	mintMu sync.Mutex
	mu     sync.RWMutex
	tokens map[core.Network]core.Token
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: map[core.Network]core.Token{}}
}

func (c *MemoryTokenCache) GetOrMint(
	ctx context.Context,
	network core.Network,
	mint func(context.Context) (core.Token, error),
) (core.Token, error) {
	if c == nil {
		return core.Token{}, core.ConfigError("auth: token cache is nil", nil)
	}
	c.mintMu.Lock()
	defer c.mintMu.Unlock()

	if token, ok := c.Load(network); ok {
		return token, nil
	}
	if mint == nil {
		return core.Token{}, core.ConfigError("auth: token mint function is required", nil)
	}
	token, err := mint(ctx)
	if err != nil {
		return core.Token{}, err
	}
	if err := c.Store(ctx, token); err != nil {
		return core.Token{}, err
	}
	return token, nil
}

func (c *MemoryTokenCache) Load(network core.Network) (core.Token, bool) {
	if c == nil {
		return core.Token{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	token, ok := c.tokens[network]
	if !ok || token.IsZero() {
		return core.Token{}, false
	}
	return token, true
}

func (c *MemoryTokenCache) Store(_ context.Context, token core.Token) error {
	if c == nil {
		return core.ConfigError("auth: token cache is nil", nil)
	}
	if !token.Network.Valid() {
		return core.BadInputError(fmt.Sprintf("auth: cannot cache token for network %q", token.Network), nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tokens == nil {
		c.tokens = map[core.Network]core.Token{}
	}
	c.tokens[token.Network] = token
	return nil
}

func (c *MemoryTokenCache) Invalidate(_ context.Context, network core.Network) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, network)
	return nil
}

// SharedTokenCache stores tokens in a go-repository-cache service. Entries
// also expire with the cache TTL, so a token is re-minted before the API
// would reject it.
type SharedTokenCache struct {
	mu    sync.Mutex
	cache repositorycache.CacheService
}

func NewSharedTokenCache(cacheService repositorycache.CacheService) (*SharedTokenCache, error) {
	if cacheService == nil {
		return nil, core.ConfigError("auth: token cache service is required", nil)
	}
	return &SharedTokenCache{cache: cacheService}, nil
}

// NewSharedTokenCacheWithTTL builds a cache service whose entries live for ttl.
func NewSharedTokenCacheWithTTL(ttl time.Duration) (*SharedTokenCache, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	config := repositorycache.DefaultConfig()
	config.TTL = ttl
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return nil, core.WrapConfigError(err, "auth: new token cache service", nil)
	}
	return NewSharedTokenCache(service)
}

// TokenCacheKey returns go-connect-contacts::token::v1::<network>.
func TokenCacheKey(network core.Network) string {
	return tokenCacheKeyPrefix + "::" + url.PathEscape(strings.ToUpper(strings.TrimSpace(string(network))))
}

func (c *SharedTokenCache) GetOrMint(
	ctx context.Context,
	network core.Network,
	mint func(context.Context) (core.Token, error),
) (core.Token, error) {
	if c == nil || c.cache == nil {
		return core.Token{}, core.ConfigError("auth: shared token cache is not configured", nil)
	}
	if mint == nil {
		return core.Token{}, core.ConfigError("auth: token mint function is required", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return repositorycache.GetOrFetch(ctx, c.cache, TokenCacheKey(network), func(ctx context.Context) (core.Token, error) {
		return mint(ctx)
	})
}

func (c *SharedTokenCache) Store(ctx context.Context, token core.Token) error {
	if c == nil || c.cache == nil {
		return core.ConfigError("auth: shared token cache is not configured", nil)
	}
	if !token.Network.Valid() {
		return core.BadInputError(fmt.Sprintf("auth: cannot cache token for network %q", token.Network), nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	key := TokenCacheKey(token.Network)
	if err := c.cache.Delete(ctx, key); err != nil {
		return err
	}
	_, err := repositorycache.GetOrFetch(ctx, c.cache, key, func(context.Context) (core.Token, error) {
		return token, nil
	})
	return err
}

func (c *SharedTokenCache) Invalidate(ctx context.Context, network core.Network) error {
	if c == nil || c.cache == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Delete(ctx, TokenCacheKey(network))
}

var (
	_ core.TokenCache = (*MemoryTokenCache)(nil)
	_ core.TokenCache = (*SharedTokenCache)(nil)
)

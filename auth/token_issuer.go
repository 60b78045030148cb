package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/goliatone/go-connect-contacts/core"
)

const (
	SubjectPrefix   = "ces:customer:"
	DefaultTokenTTL = 290 * time.Second
)

type TokenIssuerConfig struct {
	Keys         KeySource
	PublicKeyIDs map[core.Network]string
	TokenTTL     time.Duration
	Cache        core.TokenCache
	Now          func() time.Time
}

// TokenIssuer mints RS512 bearer tokens whose subject identifies the
// customer key registered for a network.
type TokenIssuer struct {
	config TokenIssuerConfig
}

func NewTokenIssuer(cfg TokenIssuerConfig) *TokenIssuer {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	keyIDs := make(map[core.Network]string, len(cfg.PublicKeyIDs))
	for network, keyID := range cfg.PublicKeyIDs {
		keyIDs[network] = strings.TrimSpace(keyID)
	}
	return &TokenIssuer{
		config: TokenIssuerConfig{
			Keys:         cfg.Keys,
			PublicKeyIDs: keyIDs,
			TokenTTL:     ttl,
			Cache:        cfg.Cache,
			Now:          now,
		},
	}
}

// NewTokenIssuerFromConfig wires the issuer from the loaded connection config.
func NewTokenIssuerFromConfig(cfg core.Config, cache core.TokenCache) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		Keys: NewFileKeySource(cfg.BotRSAPath),
		PublicKeyIDs: map[core.Network]string{
			core.NetworkWeChat:   cfg.WeChatPublicKeyID,
			core.NetworkWhatsApp: cfg.WhatsAppPublicKeyID,
		},
		Cache: cache,
	})
}

// Mint signs a new token and stores it as the cached token for network.
func (i *TokenIssuer) Mint(ctx context.Context, network core.Network) (core.Token, error) {
	token, err := i.Sign(ctx, network)
	if err != nil {
		return core.Token{}, err
	}
	if i.config.Cache != nil {
		if err := i.config.Cache.Store(ctx, token); err != nil {
			return core.Token{}, err
		}
	}
	return token, nil
}

// Sign mints a token without touching the cache.
func (i *TokenIssuer) Sign(ctx context.Context, network core.Network) (core.Token, error) {
	if i == nil || i.config.Keys == nil {
		return core.Token{}, core.ConfigError("auth: token issuer is not configured", nil)
	}
	keyID, ok := i.config.PublicKeyIDs[network]
	if !ok || keyID == "" {
		return core.Token{}, core.ConfigError(
			fmt.Sprintf("auth: no public key id configured for network %q", network),
			map[string]any{"network": string(network)},
		)
	}
	key, err := i.config.Keys.PrivateKey(ctx)
	if err != nil {
		return core.Token{}, err
	}

	issuedAt := time.Unix(i.config.Now().UTC().Unix(), 0).UTC()
	expiresAt := issuedAt.Add(i.config.TokenTTL)
	claims := jwt.MapClaims{
		"sub": SubjectPrefix + keyID,
		"iat": issuedAt.Unix(),
		"exp": expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(key)
	if err != nil {
		return core.Token{}, core.SigningError(err, "auth: sign token", map[string]any{"network": string(network)})
	}
	return core.Token{
		Value:     signed,
		Network:   network,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

var _ core.TokenIssuer = (*TokenIssuer)(nil)

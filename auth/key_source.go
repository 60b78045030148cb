package auth

import (
	"context"
	"crypto/rsa"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v4"
	"github.com/goliatone/go-connect-contacts/core"
)

// KeySource yields the RSA key used to sign tokens.
type KeySource interface {
	PrivateKey(ctx context.Context) (*rsa.PrivateKey, error)
}

// FileKeySource reads a PEM encoded RSA private key (PKCS#1 or PKCS#8) from
// disk on every call, so a rotated key file is picked up on the next mint.
type FileKeySource struct {
	Path string
}

func NewFileKeySource(path string) *FileKeySource {
	return &FileKeySource{Path: strings.TrimSpace(path)}
}

func (s *FileKeySource) PrivateKey(context.Context) (*rsa.PrivateKey, error) {
	if s == nil || s.Path == "" {
		return nil, core.ConfigError("auth: private key path is required", nil)
	}
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, core.WrapConfigError(err, "auth: read private key", map[string]any{"path": s.Path})
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, core.WrapConfigError(err, "auth: parse private key", map[string]any{"path": s.Path})
	}
	return key, nil
}

type StaticKeySource struct {
	Key *rsa.PrivateKey
}

func (s StaticKeySource) PrivateKey(context.Context) (*rsa.PrivateKey, error) {
	if s.Key == nil {
		return nil, core.ConfigError("auth: private key is required", nil)
	}
	return s.Key, nil
}

var (
	_ KeySource = (*FileKeySource)(nil)
	_ KeySource = StaticKeySource{}
)

// Package keys loads the key material used to sign and verify tokens:
// the RSA key pair for access tokens and the symmetric refresh secret.
//
// Key material is loaded once at startup and is immutable afterwards,
// so a Provider is safe for concurrent use.
package keys

import (
	"crypto/rsa"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nkiryanov/identity/internal/apperrors"
)

// Refresh secret shorter than this is rejected
const MinRefreshSecretLen = 32

type Config struct {
	// Path to PEM encoded RSA private key (PKCS#1 or PKCS#8)
	PrivateKeyPath string

	// PEM encoded RSA private key itself. Takes precedence over PrivateKeyPath
	PrivateKeyPEM string

	// Paths to extra PEM encoded RSA public keys still accepted for verification
	// Used during key rollover
	VerifyKeyPaths []string

	// Secret to sign refresh tokens with
	RefreshSecret string
}

type Provider struct {
	signing       *rsa.PrivateKey
	keyID         string
	keySet        KeySet
	refreshSecret []byte
}

// Load reads and parses configured key material
// Every failure wraps apperrors.ErrKeyUnavailable and has to be treated as fatal
func Load(cfg Config) (*Provider, error) {
	privatePEM := []byte(cfg.PrivateKeyPEM)
	if len(privatePEM) == 0 {
		if cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("%w: private key is not configured", apperrors.ErrKeyUnavailable)
		}

		b, err := os.ReadFile(cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: can't read private key. Err: %w", apperrors.ErrKeyUnavailable, err)
		}
		privatePEM = b
	}

	signing, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("%w: can't parse private key. Err: %w", apperrors.ErrKeyUnavailable, err)
	}

	if cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("%w: refresh secret is not configured", apperrors.ErrKeyUnavailable)
	}
	if len(cfg.RefreshSecret) < MinRefreshSecretLen {
		return nil, fmt.Errorf("%w: refresh secret must be at least %d bytes", apperrors.ErrKeyUnavailable, MinRefreshSecretLen)
	}

	var keySet KeySet
	if err := keySet.add(&signing.PublicKey); err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrKeyUnavailable, err)
	}

	for _, path := range cfg.VerifyKeyPaths {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: can't read verification key %s. Err: %w", apperrors.ErrKeyUnavailable, path, err)
		}

		pub, err := jwt.ParseRSAPublicKeyFromPEM(b)
		if err != nil {
			return nil, fmt.Errorf("%w: can't parse verification key %s. Err: %w", apperrors.ErrKeyUnavailable, path, err)
		}

		if err := keySet.add(pub); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrKeyUnavailable, err)
		}
	}

	return &Provider{
		signing:       signing,
		keyID:         keySet.Keys[0].KeyID,
		keySet:        keySet,
		refreshSecret: []byte(cfg.RefreshSecret),
	}, nil
}

// SigningKey is used to sign access tokens only
func (p *Provider) SigningKey() *rsa.PrivateKey {
	return p.signing
}

// KeyID of the signing key, set as 'kid' header of issued access tokens
func (p *Provider) KeyID() string {
	return p.keyID
}

// VerificationKeySet contains public part of the signing key and all the rollover keys
func (p *Provider) VerificationKeySet() KeySet {
	return p.keySet
}

func (p *Provider) RefreshSecret() []byte {
	return p.refreshSecret
}

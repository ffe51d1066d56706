package keys

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// KeySet is a set of verification keys
// Marshals to JWKS document (RFC 7517)
type KeySet struct {
	jose.JSONWebKeySet
}

// Public keys in the same order as Keys
func (s KeySet) PublicKeys() []*rsa.PublicKey {
	public := make([]*rsa.PublicKey, 0, len(s.Keys))
	for _, k := range s.Keys {
		if pub, ok := k.Key.(*rsa.PublicKey); ok {
			public = append(public, pub)
		}
	}
	return public
}

// Add the key if it is not in the set already
func (s *KeySet) add(pub *rsa.PublicKey) error {
	jwk, err := NewJWK(pub)
	if err != nil {
		return err
	}

	if len(s.Key(jwk.KeyID)) > 0 {
		return nil
	}

	s.Keys = append(s.Keys, jwk)
	return nil
}

// NewJWK wraps public key to RS256 signature JWK with RFC 7638 thumbprint as key id
func NewJWK(pub *rsa.PublicKey) (jose.JSONWebKey, error) {
	jwk := jose.JSONWebKey{
		Key:       pub,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}

	thumbprint, err := jwk.Thumbprint(crypto.SHA256)
	if err != nil {
		return jose.JSONWebKey{}, fmt.Errorf("can't compute key thumbprint. Err: %w", err)
	}
	jwk.KeyID = base64.RawURLEncoding.EncodeToString(thumbprint)

	return jwk, nil
}

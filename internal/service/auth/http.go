package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
)

// Set both tokens as http only cookies living as long as the tokens do
func (s *AuthService) SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair) {
	now := s.now()
	http.SetCookie(w, s.cookie(s.accessCookieName, pair.Access.Value, pair.Access.ExpiresAt.Sub(now)))
	http.SetCookie(w, s.cookie(s.refreshCookieName, pair.Refresh.Value, pair.Refresh.ExpiresAt.Sub(now)))
}

// Ask client to drop token cookies
func (s *AuthService) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, s.cookie(s.accessCookieName, "", -1))
	http.SetCookie(w, s.cookie(s.refreshCookieName, "", -1))
}

// Get refresh token from request cookie
func (s *AuthService) GetRefreshString(r *http.Request) (string, error) {
	c, err := r.Cookie(s.refreshCookieName)
	if err != nil || c.Value == "" {
		return "", fmt.Errorf("%w: refresh token not found in request", apperrors.ErrInvalidToken)
	}
	return c.Value, nil
}

// Get access token from 'Authorization: Bearer' header or, if not set, from cookie
func (s *AuthService) GetAccessString(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, s.accessAuthScheme) || token == "" {
			return "", fmt.Errorf("%w: malformed authorization header", apperrors.ErrInvalidToken)
		}
		return token, nil
	}

	c, err := r.Cookie(s.accessCookieName)
	if err != nil || c.Value == "" {
		return "", fmt.Errorf("%w: access token not found in request", apperrors.ErrInvalidToken)
	}
	return c.Value, nil
}

// Set tokens to request the way client does. Useful for tests
func (s *AuthService) SetTokenPairToRequest(r *http.Request, pair models.TokenPair) {
	r.AddCookie(&http.Cookie{Name: s.accessCookieName, Value: pair.Access.Value})
	r.AddCookie(&http.Cookie{Name: s.refreshCookieName, Value: pair.Refresh.Value})
}

func (s *AuthService) cookie(name string, value string, ttl time.Duration) *http.Cookie {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}

	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   s.cookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

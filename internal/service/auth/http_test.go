package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/identity/internal/apperrors"
	"github.com/nkiryanov/identity/internal/models"
	"github.com/nkiryanov/identity/internal/testutil"
)

func Test_AuthHTTP(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, testutil.NewKeys(t), nil)
	s := env.s
	s.cookieDomain = "localhost"

	now := time.Now()
	s.now = func() time.Time { return now }
	pair := models.TokenPair{
		Access:  models.IssuedToken{Value: "access", ExpiresAt: now.Add(time.Hour)},
		Refresh: models.IssuedToken{Value: "refresh", ExpiresAt: now.Add(365 * 24 * time.Hour)},
	}

	t.Run("set token pair to response", func(t *testing.T) {
		w := httptest.NewRecorder()

		s.SetTokenPairToResponse(w, pair)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)

		byName := map[string]*http.Cookie{}
		for _, c := range cookies {
			byName[c.Name] = c
		}

		access := byName["accessToken"]
		require.NotNil(t, access)
		require.Equal(t, "access", access.Value)
		require.Equal(t, 3600, access.MaxAge)
		require.True(t, access.HttpOnly)
		require.Equal(t, http.SameSiteStrictMode, access.SameSite)
		require.Equal(t, "/", access.Path)
		require.Equal(t, "localhost", access.Domain)

		refresh := byName["refreshToken"]
		require.NotNil(t, refresh)
		require.Equal(t, "refresh", refresh.Value)
		require.Equal(t, 365*24*3600, refresh.MaxAge)
		require.True(t, refresh.HttpOnly)
		require.Equal(t, http.SameSiteStrictMode, refresh.SameSite)
	})

	t.Run("clear tokens", func(t *testing.T) {
		w := httptest.NewRecorder()

		s.ClearTokens(w)

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		for _, c := range cookies {
			require.Empty(t, c.Value)
			require.Equal(t, -1, c.MaxAge)
		}
	})

	t.Run("get tokens from request cookies", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", nil)
		s.SetTokenPairToRequest(r, pair)

		refresh, err := s.GetRefreshString(r)
		require.NoError(t, err)
		require.Equal(t, "refresh", refresh)

		access, err := s.GetAccessString(r)
		require.NoError(t, err)
		require.Equal(t, "access", access)
	})

	t.Run("get access from authorization header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer header-access")
		r.AddCookie(&http.Cookie{Name: "accessToken", Value: "cookie-access"})

		access, err := s.GetAccessString(r)

		require.NoError(t, err)
		require.Equal(t, "header-access", access, "header has priority over cookie")
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Basic dXNlcjpwd2Q=")

		_, err := s.GetAccessString(r)

		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("tokens not set", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		_, err := s.GetAccessString(r)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)

		_, err = s.GetRefreshString(r)
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})
}

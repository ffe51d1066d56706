package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/identity/internal/apperrors"
)

func Test_BcryptHasher(t *testing.T) {
	t.Parallel()

	h := BcryptHasher{Cost: bcrypt.MinCost}

	t.Run("hash password", func(t *testing.T) {
		got, err := h.Hash("secret123")
		require.NoError(t, err)

		require.Len(t, got, 60, "bcrypt length is 60 letters as far as i know")
		require.Equal(t, "$2a$", got[:4], "bcrypt has should have prefix '$2a$'")
		require.NotEqual(t, "secret123", got)
	})

	t.Run("default cost", func(t *testing.T) {
		got, err := BcryptHasher{}.Hash("secret123")
		require.NoError(t, err)

		cost, err := bcrypt.Cost([]byte(got))
		require.NoError(t, err)
		require.Equal(t, bcrypt.DefaultCost, cost)
	})

	t.Run("hashes differ but both verify", func(t *testing.T) {
		first, err := h.Hash("secret123")
		require.NoError(t, err)
		second, err := h.Hash("secret123")
		require.NoError(t, err)

		require.NotEqual(t, first, second, "salt has to make hashes different")

		for _, hash := range []string{first, second} {
			ok, err := h.Verify(hash, "secret123")
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	t.Run("long password not truncated", func(t *testing.T) {
		long := strings.Repeat("a", 100)
		hash, err := h.Hash(long)
		require.NoError(t, err)

		ok, err := h.Verify(hash, strings.Repeat("a", 99)+"b")
		require.NoError(t, err)
		require.False(t, ok, "difference after 72 bytes must matter")
	})

	t.Run("wrong password is not an error", func(t *testing.T) {
		hash, err := h.Hash("secret123")
		require.NoError(t, err)

		ok, err := h.Verify(hash, "wrong")

		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("malformed digest", func(t *testing.T) {
		_, err := h.Verify("not-a-bcrypt-hash", "secret123")

		require.Error(t, err)
		require.ErrorIs(t, err, apperrors.ErrInvalidDigestFormat)
	})
}

func Test_Argon2Hasher(t *testing.T) {
	t.Parallel()

	// Small parameters to keep tests fast
	h := Argon2Hasher{Memory: 8 * 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

	t.Run("hash has phc format", func(t *testing.T) {
		got, err := h.Hash("secret123")
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(got, "$argon2id$v=19$m=8192,t=1,p=1$"), "unexpected hash %s", got)
		require.Len(t, strings.Split(got, "$"), 6)
	})

	t.Run("hashes differ but both verify", func(t *testing.T) {
		first, err := h.Hash("secret123")
		require.NoError(t, err)
		second, err := h.Hash("secret123")
		require.NoError(t, err)

		require.NotEqual(t, first, second)

		for _, hash := range []string{first, second} {
			ok, err := h.Verify(hash, "secret123")
			require.NoError(t, err)
			require.True(t, ok)
		}
	})

	t.Run("verify with parameters from hash", func(t *testing.T) {
		hash, err := h.Hash("secret123")
		require.NoError(t, err)

		other := Argon2Hasher{Memory: 16 * 1024, Time: 2, Parallelism: 2, SaltLen: 16, KeyLen: 32}
		ok, err := other.Verify(hash, "secret123")

		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("wrong password is not an error", func(t *testing.T) {
		hash, err := h.Hash("secret123")
		require.NoError(t, err)

		ok, err := h.Verify(hash, "wrong")

		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("malformed digest", func(t *testing.T) {
		tests := []struct {
			name string
			hash string
		}{
			{"empty", ""},
			{"bcrypt hash", "$2a$10$abcdefghijklmnopqrstuuABCDEFGHIJKLMNOPQRSTUVWXYZ01234"},
			{"wrong version", "$argon2id$v=16$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"bad params", "$argon2id$v=19$m=x,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"version with trailing garbage", "$argon2id$v=19x$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"params with trailing garbage", "$argon2id$v=19$m=8192,t=1,p=2x$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"parallelism overflows", "$argon2id$v=19$m=8192,t=1,p=256$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"zero memory", "$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"missing param", "$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"extra param", "$argon2id$v=19$m=8192,t=1,p=1,k=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"params out of order", "$argon2id$v=19$t=1,m=8192,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"negative time", "$argon2id$v=19$m=8192,t=-1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5"},
			{"bad salt", "$argon2id$v=19$m=8192,t=1,p=1$!!!$a2V5"},
			{"empty key", "$argon2id$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := h.Verify(tt.hash, "secret123")

				require.Error(t, err)
				require.ErrorIs(t, err, apperrors.ErrInvalidDigestFormat)
			})
		}
	})
}

func Test_NewHasher(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hasher   string
		cost     int
		expected PasswordHasher
	}{
		{"default", "", 0, BcryptHasher{}},
		{"bcrypt with cost", "bcrypt", 12, BcryptHasher{Cost: 12}},
		{"argon2id", "argon2id", 0, NewArgon2Hasher()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewHasher(tt.hasher, tt.cost)

			require.NoError(t, err)
			require.Equal(t, tt.expected, got)
		})
	}

	t.Run("unknown hasher", func(t *testing.T) {
		_, err := NewHasher("md5", 0)
		require.Error(t, err)
	})

	t.Run("bcrypt cost out of range", func(t *testing.T) {
		_, err := NewHasher("bcrypt", 40)
		require.Error(t, err)
	})
}

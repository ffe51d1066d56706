package user

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/identity/internal/apperrors"
)

// Interface to create or verify user password hashes
type PasswordHasher interface {
	// Generate salted hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Mismatch is (false, nil). Error returned only if hashedPassword is malformed
	// Must be protected against timing attacks
	Verify(hashedPassword string, password string) (bool, error)
}

// Used if nothing else configured
var DefaultHasher PasswordHasher = BcryptHasher{}

// Bcrypt password hasher
// Password is prehashed with sha256, so passwords longer than bcrypt 72 bytes limit are not truncated
type BcryptHasher struct {
	// Work factor. bcrypt.DefaultCost if zero
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], cost)
	return string(hash), err
}

func (h BcryptHasher) Verify(hashedPassword string, password string) (bool, error) {
	sum := sha256.Sum256([]byte(password))
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", apperrors.ErrInvalidDigestFormat, err)
	}
}

const argon2ID = "argon2id"

// Argon2id password hasher, hashes are encoded in PHC string format
type Argon2Hasher struct {
	// Memory in KiB
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// Parameters recommended by RFC 9106 for memory constrained environments
func NewArgon2Hasher() Argon2Hasher {
	return Argon2Hasher{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLen:     16,
		KeyLen:      32,
	}
}

func (h Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("can't generate salt. Err: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Parallelism, h.KeyLen)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2ID, argon2.Version, h.Memory, h.Time, h.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify uses parameters stored in the hash, not the hasher ones
// So hashes made with older parameters still verify
func (h Argon2Hasher) Verify(hashedPassword string, password string) (bool, error) {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != argon2ID {
		return false, fmt.Errorf("%w: not an argon2id hash", apperrors.ErrInvalidDigestFormat)
	}

	if parts[2] != fmt.Sprintf("v=%d", argon2.Version) {
		return false, fmt.Errorf("%w: unsupported argon2 version", apperrors.ErrInvalidDigestFormat)
	}

	params, err := parseArgon2Params(parts[3])
	if err != nil {
		return false, fmt.Errorf("%w: %w", apperrors.ErrInvalidDigestFormat, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: invalid salt encoding", apperrors.ErrInvalidDigestFormat)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return false, fmt.Errorf("%w: invalid key encoding", apperrors.ErrInvalidDigestFormat)
	}

	computed := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Parallelism, uint32(len(key)))
	return subtle.ConstantTimeCompare(computed, key) == 1, nil
}

// Parse 'm=<uint32>,t=<uint32>,p=<uint8>' exactly, in that order and without anything else
func parseArgon2Params(s string) (Argon2Hasher, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return Argon2Hasher{}, fmt.Errorf("invalid argon2 parameters %q", s)
	}

	values := make([]uint64, len(fields))
	for i, name := range []string{"m", "t", "p"} {
		bitSize := 32
		if name == "p" {
			bitSize = 8
		}

		raw, ok := strings.CutPrefix(fields[i], name+"=")
		if !ok {
			return Argon2Hasher{}, fmt.Errorf("argon2 parameter %q expected, got %q", name, fields[i])
		}
		v, err := strconv.ParseUint(raw, 10, bitSize)
		if err != nil || v == 0 {
			return Argon2Hasher{}, fmt.Errorf("invalid argon2 parameter %q value %q", name, raw)
		}
		values[i] = v
	}

	return Argon2Hasher{
		Memory:      uint32(values[0]),
		Time:        uint32(values[1]),
		Parallelism: uint8(values[2]),
	}, nil
}

// NewHasher returns hasher by its name: 'bcrypt' (default) or 'argon2id'
func NewHasher(name string, bcryptCost int) (PasswordHasher, error) {
	switch strings.ToLower(name) {
	case "", "bcrypt":
		if bcryptCost != 0 && (bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost) {
			return nil, fmt.Errorf("bcrypt cost must be in range [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
		}
		return BcryptHasher{Cost: bcryptCost}, nil
	case argon2ID:
		return NewArgon2Hasher(), nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}

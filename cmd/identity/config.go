package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/identity/internal/logger"
	"github.com/nkiryanov/identity/internal/service/auth/tokenmanager"
)

const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreMemory   = "memory"
)

const (
	defaultListenAddr   = "localhost:5501"
	defaultLoggingLevel = logger.LevelInfo
	defaultEnvironment  = logger.EnvProd
	defaultRefreshStore = StorePostgres
	defaultHasher       = "bcrypt"
)

type Config struct {
	// Default logging level
	LogLevel string

	// Environment: 'dev' logs human readable text, 'prod' logs JSON
	Environment string

	// Address on which the identity service will be run
	ListenAddr string

	// Database to connect to. Not used with memory refresh store
	DatabaseDSN string

	// RSA private key to sign access tokens with: path to PEM file or PEM itself
	PrivateKeyPath string
	PrivateKeyPEM  string

	// Paths to PEM public keys still accepted for access token verification
	VerifyKeyPaths []string

	// Secret to sign refresh tokens with
	RefreshSecret string

	// Issuer claim of the issued tokens
	TokenIssuer string

	// Token cookie attributes
	CookieDomain string
	CookieSecure bool

	// Where refresh token records are kept: postgres, redis or memory
	// With memory every storage is in process memory, useful for local runs only
	RefreshStore string
	RedisAddr    string

	// Password hasher: bcrypt or argon2id
	Hasher     string
	BcryptCost int
}

func NewConfig() *Config {
	return &Config{
		LogLevel:     defaultLoggingLevel,
		Environment:  defaultEnvironment,
		ListenAddr:   defaultListenAddr,
		TokenIssuer:  tokenmanager.DefaultIssuer,
		RefreshStore: defaultRefreshStore,
		Hasher:       defaultHasher,
	}
}

// Load variable from '.env' file (should be located at working directory)
func (c *Config) LoadDotEnv(getwd func() (string, error)) error {
	wd, err := getwd()
	if err != nil {
		return err
	}

	envMap, err := godotenv.Read(filepath.Join(wd, ".env"))

	switch {
	case err == nil:
		return c.LoadEnv(func(key string) string {
			return envMap[key]
		})
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return err
	}
}

func (c *Config) LoadEnv(getenv func(string) string) error {
	// Set option to value if it not empty
	setString := func(o *string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = value
			}
			return nil
		}
	}
	setList := func(o *[]string) func(value string) error {
		return func(value string) error {
			if value != "" {
				*o = strings.Split(value, ",")
			}
			return nil
		}
	}
	setInt := func(o *int) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			i, err := strconv.Atoi(value)
			if err != nil {
				return err
			}
			*o = i
			return nil
		}
	}
	setBool := func(o *bool) func(value string) error {
		return func(value string) error {
			if value == "" {
				return nil
			}
			b, err := strconv.ParseBool(value)
			if err != nil {
				return err
			}
			*o = b
			return nil
		}
	}

	envMap := map[string]func(string) error{
		"LOG_LEVEL":            setString(&c.LogLevel),
		"ENVIRONMENT":          setString(&c.Environment),
		"RUN_ADDRESS":          setString(&c.ListenAddr),
		"DATABASE_URI":         setString(&c.DatabaseDSN),
		"PRIVATE_KEY_PATH":     setString(&c.PrivateKeyPath),
		"PRIVATE_KEY":          setString(&c.PrivateKeyPEM),
		"VERIFY_KEY_PATHS":     setList(&c.VerifyKeyPaths),
		"REFRESH_TOKEN_SECRET": setString(&c.RefreshSecret),
		"TOKEN_ISSUER":         setString(&c.TokenIssuer),
		"COOKIE_DOMAIN":        setString(&c.CookieDomain),
		"COOKIE_SECURE":        setBool(&c.CookieSecure),
		"REFRESH_STORE":        setString(&c.RefreshStore),
		"REDIS_ADDR":           setString(&c.RedisAddr),
		"HASHER":               setString(&c.Hasher),
		"BCRYPT_COST":          setInt(&c.BcryptCost),
	}

	for key, parseFn := range envMap {
		if err := parseFn(getenv(key)); err != nil {
			return fmt.Errorf("invalid %s value. Err: %w", key, err)
		}
	}

	return nil
}

func (c *Config) ParseFlags(args []string) error {
	fs := pflag.NewFlagSet("identity", pflag.ContinueOnError)

	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "Logging level (debug, info, warn, error)")
	fs.StringVarP(&c.Environment, "environment", "e", c.Environment, "Environment (dev, prod)")
	fs.StringVarP(&c.ListenAddr, "address", "a", c.ListenAddr, "Server listen address")
	fs.StringVarP(&c.DatabaseDSN, "database", "d", c.DatabaseDSN, "Database connection string")
	fs.StringVarP(&c.PrivateKeyPath, "private-key", "k", c.PrivateKeyPath, "Path to PEM encoded RSA private key")
	fs.StringSliceVar(&c.VerifyKeyPaths, "verify-keys", c.VerifyKeyPaths, "Paths to PEM encoded RSA public keys accepted for verification")
	fs.StringVarP(&c.RefreshSecret, "refresh-secret", "s", c.RefreshSecret, "Secret to sign refresh tokens")
	fs.StringVar(&c.TokenIssuer, "issuer", c.TokenIssuer, "Issuer of the tokens")
	fs.StringVar(&c.CookieDomain, "cookie-domain", c.CookieDomain, "Domain of the token cookies")
	fs.BoolVar(&c.CookieSecure, "cookie-secure", c.CookieSecure, "Send token cookies over HTTPS only")
	fs.StringVar(&c.RefreshStore, "refresh-store", c.RefreshStore, "Refresh token store (postgres, redis, memory)")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis address, required for redis refresh store")
	fs.StringVar(&c.Hasher, "hasher", c.Hasher, "Password hasher (bcrypt, argon2id)")
	fs.IntVar(&c.BcryptCost, "bcrypt-cost", c.BcryptCost, "Bcrypt cost, default is used if zero")

	return fs.Parse(args)
}

// Validate checks options combination is usable
func (c *Config) Validate() error {
	if !slices.Contains([]string{StorePostgres, StoreRedis, StoreMemory}, c.RefreshStore) {
		return fmt.Errorf("unknown refresh store %q", c.RefreshStore)
	}

	if c.RefreshStore != StoreMemory && c.DatabaseDSN == "" {
		return errors.New("database connection string is required")
	}

	if c.RefreshStore == StoreRedis && c.RedisAddr == "" {
		return errors.New("redis address is required for redis refresh store")
	}

	return nil
}

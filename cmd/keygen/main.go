package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/identity/internal/keys"
)

const SecretKeyBytesLen = 32

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error while generating keys: %v\n", err)
		os.Exit(1)
	}
}

// Write RSA key pair to files and print refresh secret in '.env' format
func run(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("keygen", pflag.ContinueOnError)
	privatePath := fs.StringP("out", "o", "private.pem", "Path to write PEM encoded private key to")
	publicPath := fs.StringP("public", "p", "", "Path to write PEM encoded public key to. Defaults to '<out>.pub'")
	bits := fs.IntP("bits", "b", 2048, "RSA key size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *publicPath == "" {
		*publicPath = *privatePath + ".pub"
	}
	if *bits < 2048 {
		return fmt.Errorf("key size %d is too small, use at least 2048", *bits)
	}

	key, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		return err
	}

	privateBlock := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	if err := os.WriteFile(*privatePath, pem.EncodeToMemory(privateBlock), 0o600); err != nil {
		return err
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return err
	}
	publicBlock := &pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}
	if err := os.WriteFile(*publicPath, pem.EncodeToMemory(publicBlock), 0o644); err != nil { // nolint:gosec
		return err
	}

	secret := make([]byte, SecretKeyBytesLen)
	if _, err := rand.Read(secret); err != nil {
		return err
	}

	jwk, err := keys.NewJWK(&key.PublicKey)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "# kid %s\nPRIVATE_KEY_PATH=%s\nREFRESH_TOKEN_SECRET=%s\n",
		jwk.KeyID,
		*privatePath,
		hex.EncodeToString(secret),
	)
	return err
}

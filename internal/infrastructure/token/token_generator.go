// Package token issues opaque bearer secrets. Only their SHA-256 is stored.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	PrefixRefresh = "rt_"
	PrefixReset   = "pr_"
)

const tokenRandomBytes = 32

type TokenGenerator interface {
	Generate(prefix string) (plainToken string, hash string, err error)
	Hash(plainToken string) string
	Verify(plainToken, hash string) bool
}

type tokenGenerator struct{}

func NewTokenGenerator() TokenGenerator {
	return &tokenGenerator{}
}

func (g *tokenGenerator) Generate(prefix string) (string, string, error) {
	randomBytes := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plainToken := prefix + hex.EncodeToString(randomBytes)
	return plainToken, g.Hash(plainToken), nil
}

// Hash returns the hex SHA-256 of plainToken, the form kept in storage.
func (g *tokenGenerator) Hash(plainToken string) string {
	hash := sha256.Sum256([]byte(plainToken))
	return hex.EncodeToString(hash[:])
}

func (g *tokenGenerator) Verify(plainToken, hash string) bool {
	if plainToken == "" || hash == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(g.Hash(plainToken)), []byte(hash)) == 1
}

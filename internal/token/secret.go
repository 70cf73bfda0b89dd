package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// NewRefreshSecret generates a high-entropy opaque refresh secret and its
// digest. The raw secret goes to the client exactly once; only the digest is
// ever persisted.
func NewRefreshSecret() (secret, digest string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating refresh secret: %w", err)
	}
	secret = uuid.New().String() + ":" + hex.EncodeToString(buf)
	return secret, HashSecret(secret), nil
}

// HashSecret returns the lowercase hex SHA-256 digest of a refresh secret.
// Lookups hash the presented secret and compare digests; there is no
// reverse operation.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

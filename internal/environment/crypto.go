package environment

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// SecretTokenPrefix marks a sealed value at rest. Any state value carrying
// this prefix must decrypt successfully on load.
const SecretTokenPrefix = "crypto_"

const (
	keySalt       = "appfx-env-state"
	keyIterations = 4096
	keyLength     = 32
)

// CryptoProvider seals and unseals individual secret values stored in
// environment state files.
type CryptoProvider interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(sealed string) (string, error)
}

// LocalCrypto implements CryptoProvider with AES-256-GCM. The key is derived
// from the project identifier, so state files only unseal inside the project
// that wrote them. This keeps secrets out of casual view and out of diffs;
// it is not a substitute for a real secret store.
type LocalCrypto struct {
	key []byte
}

// NewLocalCrypto derives a sealing key from the project identifier.
func NewLocalCrypto(projectID string) *LocalCrypto {
	key := pbkdf2.Key([]byte(projectID), []byte(keySalt), keyIterations, keyLength, sha256.New)
	return &LocalCrypto{key: key}
}

// Encrypt seals a plaintext secret into a crypto_<hex> token.
func (c *LocalCrypto) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return SecretTokenPrefix + hex.EncodeToString(sealed), nil
}

// Decrypt unseals a crypto_<hex> token produced by Encrypt.
func (c *LocalCrypto) Decrypt(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", fmt.Errorf("value is not a sealed secret token")
	}

	raw, err := hex.DecodeString(strings.TrimPrefix(sealed, SecretTokenPrefix))
	if err != nil {
		return "", fmt.Errorf("failed to decode sealed secret: %w", err)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return "", fmt.Errorf("sealed secret too short")
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt secret: %w", err)
	}

	return string(plaintext), nil
}

// IsSealed reports whether a value carries the sealed-secret token prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, SecretTokenPrefix)
}

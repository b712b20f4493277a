// Package fieldcrypt encrypts single sensitive column values (account
// numbers, SWIFT/BIC codes) with AES-256-GCM before they are written to
// storage.
//
// A sealed value is laid out as nonce || tag || ciphertext, so its length is
// always len(plaintext) + Overhead.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/josh-kwaku/swift-payment-portal/internal/domain"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16
	Overhead  = NonceSize + TagSize
)

type Cipher struct {
	aead cipher.AEAD
	rand io.Reader
}

func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("New: key is %d bytes, want %d: %w", len(key), KeySize, domain.ErrCipherKey)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("New: %w: %w", domain.ErrCipherKey, err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, NonceSize)
	if err != nil {
		return nil, fmt.Errorf("New: %w: %w", domain.ErrCipherKey, err)
	}

	return &Cipher{aead: aead, rand: rand.Reader}, nil
}

// FromHex builds the process-wide cipher from the hex-encoded key in
// configuration. Outside production a missing key is replaced by a random
// ephemeral one so local runs can start; anything sealed under it is lost on
// restart.
func FromHex(hexKey, appEnv string, log *slog.Logger) (*Cipher, error) {
	hexKey = strings.TrimSpace(hexKey)

	if hexKey == "" && appEnv != "production" {
		key := make([]byte, KeySize)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("FromHex: generate ephemeral key: %w", err)
		}
		log.Warn("DATA_KEY_HEX not set; using an ephemeral field encryption key, encrypted data will not survive a restart",
			"app_env", appEnv,
		)
		return New(key)
	}

	if len(hexKey) != KeySize*2 {
		return nil, fmt.Errorf("FromHex: key must be %d hex characters, got %d: %w", KeySize*2, len(hexKey), domain.ErrCipherKey)
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("FromHex: %w: %w", domain.ErrCipherKey, err)
	}
	return New(key)
}

func (c *Cipher) Encrypt(plaintext string) ([]byte, error) {
	if c == nil || c.aead == nil {
		return nil, fmt.Errorf("Encrypt: %w", domain.ErrCipherKey)
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return nil, fmt.Errorf("Encrypt: nonce: %w: %w", domain.ErrEncryption, err)
	}

	// Seal appends ciphertext||tag; the stored layout puts the tag first.
	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	ct, tag := sealed[:len(sealed)-TagSize], sealed[len(sealed)-TagSize:]

	out := make([]byte, 0, Overhead+len(ct))
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

func (c *Cipher) Decrypt(blob []byte) (string, error) {
	if c == nil || c.aead == nil {
		return "", fmt.Errorf("Decrypt: %w", domain.ErrCipherKey)
	}
	if len(blob) < Overhead {
		return "", fmt.Errorf("Decrypt: blob too short: %w", domain.ErrEncryption)
	}

	nonce := blob[:NonceSize]
	tag := blob[NonceSize:Overhead]
	ct := blob[Overhead:]

	sealed := make([]byte, 0, len(ct)+TagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("Decrypt: %w: %w", domain.ErrEncryption, err)
	}
	return string(plain), nil
}

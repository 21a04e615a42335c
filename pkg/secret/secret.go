package secret

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
)

// Errors.
var (
	ErrBadSecret = errors.New("secret: secret must be 32+ bytes")
	ErrDecrypt   = errors.New("secret: decryption failed")
)

// Codec seals and opens opaque tokens using AES-GCM with a key derived
// from a shared secret. The same codec protects session cookies and
// account records persisted to the database.
type Codec struct {
	key [32]byte
}

// New creates a Codec from a secret string.
// Returns ErrBadSecret if the secret is shorter than 32 bytes.
func New(secretKey string) (*Codec, error) {
	if len(secretKey) < 32 {
		return nil, ErrBadSecret
	}
	return &Codec{key: sha256.Sum256([]byte(secretKey))}, nil
}

// Seal encrypts plaintext and returns a base64url token suitable for a
// cookie value or a database column.
func (c *Codec) Seal(plaintext []byte) (string, error) {
	aead, err := c.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a token produced by Seal.
// Any failure (wrong key, tampering, malformed encoding) returns ErrDecrypt;
// callers must not try to distinguish the cases.
func (c *Codec) Open(token string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrDecrypt
	}

	aead, err := c.aead()
	if err != nil {
		return nil, err
	}

	if len(data) < aead.NonceSize() {
		return nil, ErrDecrypt
	}

	nonce, ciphertext := data[:aead.NonceSize()], data[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (c *Codec) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

var (
	// ErrEmptySecret is returned when no device secret was configured.
	ErrEmptySecret = errors.New("empty sealing secret")

	// ErrCiphertextTooShort is returned for blobs shorter than the GCM nonce.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// KeyParams are the Argon2id tuning parameters.
type KeyParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// DefaultKeyParams follows the OWASP recommendation for Argon2id.
var DefaultKeyParams = KeyParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// StorageLabel is the key label of the profile archive and the keychain.
// It stays fixed when the application code changes, so data of a previous
// application code can still be opened and wiped.
const StorageLabel = "profile-storage"

type aesSealer struct {
	gcm cipher.AEAD
}

// NewSealer derives a 256-bit key from secret and a fixed purpose label and
// returns an AES-256-GCM [Sealer]. Keys of different labels do not open each
// other's blobs.
func NewSealer(secret, label string, params KeyParams) (Sealer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	salt := sha256.Sum256([]byte("push-sync:" + label))
	key := argon2.IDKey([]byte(secret), salt[:16], params.Time, params.Memory, params.Threads, 32)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &aesSealer{gcm: gcm}, nil
}

// Seal implements [Sealer].
func (s *aesSealer) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return s.gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// Open implements [Sealer].
func (s *aesSealer) Open(blob []byte) ([]byte, error) {
	nonceSize := s.gcm.NonceSize()
	if len(blob) < nonceSize {
		return nil, ErrCiphertextTooShort
	}

	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := s.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt blob: %w", err)
	}
	return plaintext, nil
}

// plainSealer stores blobs unencrypted. Used by in-memory stores.
type plainSealer struct{}

// NewPlainSealer returns a [Sealer] that copies data as is.
func NewPlainSealer() Sealer {
	return plainSealer{}
}

func (plainSealer) Seal(plaintext []byte) ([]byte, error) {
	return append([]byte(nil), plaintext...), nil
}

func (plainSealer) Open(blob []byte) ([]byte, error) {
	return append([]byte(nil), blob...), nil
}

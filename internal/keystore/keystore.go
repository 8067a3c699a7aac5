// Package keystore persists at most one user-entered API credential,
// encrypted at rest, with an optional environment-provided default.
package keystore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"io"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

// Repository stores the single encrypted secret.
type Repository interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, encrypted string) error
	Delete(ctx context.Context) error
}

type Store struct {
	repo Repository
	key  []byte
	env  string
}

// New derives the encryption key from the configured passphrase. env is the
// environment-provided default credential, which a user-entered one shadows.
func New(repo Repository, encryptionKey, env string) *Store {
	hashed := sha256.Sum256([]byte(encryptionKey))
	return &Store{repo: repo, key: hashed[:], env: env}
}

// Get returns the active credential. A user-entered credential takes
// precedence over the environment default. ok is false when neither exists.
func (s *Store) Get(ctx context.Context) (domain.Credential, bool, error) {
	encrypted, err := s.repo.Get(ctx)
	switch {
	case err == nil:
		value, err := s.decrypt(encrypted)
		if err != nil {
			return domain.Credential{}, false, err
		}
		return domain.Credential{Value: value, Origin: domain.CredentialOriginUser}, true, nil
	case errors.Is(err, sql.ErrNoRows):
		if s.env != "" {
			return domain.Credential{Value: s.env, Origin: domain.CredentialOriginEnvironment}, true, nil
		}
		return domain.Credential{}, false, nil
	default:
		return domain.Credential{}, false, err
	}
}

// Set stores a user-entered credential, replacing any previous one.
func (s *Store) Set(ctx context.Context, secret string) error {
	if secret == "" {
		return errors.New("credential must not be empty")
	}
	encrypted, err := s.encrypt(secret)
	if err != nil {
		return err
	}
	return s.repo.Set(ctx, encrypted)
}

// Clear removes the user-entered credential. The environment default, if
// configured, becomes the active credential again; it cannot be cleared.
func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx)
}

func (s *Store) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (s *Store) decrypt(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(data) < gcm.NonceSize() {
		return "", errors.New("ciphertext too short")
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

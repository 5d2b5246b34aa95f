package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/ports"
)

// envelopeKey is the only slice written by the encryption middleware.
const envelopeKey = "__encrypted__"

// ErrDecrypt is returned when no configured key opens a snapshot, including
// when the snapshot was sealed for another session.
var ErrDecrypt = errors.New("decryption failed with all available keys")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey seals new snapshots. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried, in order, when the active key cannot open a snapshot.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next     ports.SnapshotStore
	active   cipher.AEAD
	fallback []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that seals each snapshot into a
// single AES-GCM envelope slice. The session ID is bound as additional data, so
// an envelope copied under another session ID does not open.
// It panics when a key is not 32 bytes long.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	active, err := newAEAD(config.ActiveKey)
	if err != nil {
		panic(fmt.Sprintf("active key: %v", err))
	}
	fallback := make([]cipher.AEAD, 0, len(config.FallbackKeys))
	for i, key := range config.FallbackKeys {
		aead, err := newAEAD(key)
		if err != nil {
			panic(fmt.Sprintf("fallback key %d: %v", i, err))
		}
		fallback = append(fallback, aead)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &encryptionMiddleware{next: next, active: active, fallback: fallback}
	}
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("must be 32 bytes (AES-256), got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	plainText, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	nonce := make([]byte, m.active.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("failed to draw nonce: %w", err)
	}
	sealed := m.active.Seal(nonce, nonce, plainText, []byte(sessionID))

	blob, err := json.Marshal(base64.StdEncoding.EncodeToString(sealed))
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	// The envelope hides slice names and contents; only timing stays visible.
	envelope := &domain.Snapshot{
		SessionID: snap.SessionID,
		Slices:    map[string]json.RawMessage{envelopeKey: blob},
		UpdatedAt: snap.UpdatedAt,
	}
	return m.next.Save(ctx, sessionID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	envelope, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	raw, ok := envelope.Slices[envelopeKey]
	if !ok {
		// A plain snapshot is never returned once encryption is configured.
		return nil, errors.New("snapshot is missing encrypted data envelope")
	}

	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := m.open(sealed, []byte(sessionID))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(plainText, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted snapshot: %w", err)
	}
	return &snap, nil
}

func (m *encryptionMiddleware) open(sealed, sessionID []byte) ([]byte, error) {
	for _, aead := range append([]cipher.AEAD{m.active}, m.fallback...) {
		n := aead.NonceSize()
		if len(sealed) < n {
			continue
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], sessionID); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}

func (m *encryptionMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// ParseKey decodes a base64 (standard or URL, padded or not) AES-256 key.
func ParseKey(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(s); err == nil {
			if len(key) != 32 {
				return nil, fmt.Errorf("encryption key must be 32 bytes, got %d", len(key))
			}
			return key, nil
		}
	}
	return nil, errors.New("encryption key is not valid base64")
}

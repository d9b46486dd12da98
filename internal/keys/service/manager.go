// Package service implements the master key lifecycle: generation on first
// use, wrapping for keychain storage, PIN-gated loading, and in-process
// caching with explicit eviction.
package service

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/json"
	"io"
	"log/slog"
	"sync"

	authDomain "github.com/allisson/credstore/internal/auth/domain"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	"github.com/allisson/credstore/internal/errors"
	"github.com/allisson/credstore/internal/keychain"
	"github.com/allisson/credstore/internal/keys/domain"
)

// PinInfo exposes the PIN facts the manager needs to gate key access. The
// manager never sees the PIN itself, only whether one exists and the salt
// used to derive the wrapping key from it.
type PinInfo interface {
	// HasPin reports whether a PIN is configured.
	HasPin() (bool, error)

	// Salt returns the PIN salt, or a not-found error when no PIN is set.
	Salt(ctx context.Context) ([]byte, error)
}

// Manager owns the master key. All key material handed out by CachedKey
// shares one backing array, so Evict can zero every outstanding reference
// at once.
type Manager struct {
	keychain       keychain.Keychain
	pins           PinInfo
	servicePrefix  string
	installationID string
	iterations     int
	logger         *slog.Logger

	mu     sync.Mutex
	cached []byte
}

// NewManager creates a master key manager for one installation.
func NewManager(
	kc keychain.Keychain,
	pins PinInfo,
	servicePrefix string,
	installationID string,
	iterations int,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		keychain:       kc,
		pins:           pins,
		servicePrefix:  servicePrefix,
		installationID: installationID,
		iterations:     iterations,
		logger:         logger,
	}
}

// CachedKey returns the master key. When the cache is cold it loads the key
// from the keychain, generating and storing a new one on first use. With a
// PIN configured a cold cache cannot be filled without the PIN, so the
// caller gets ErrPinRequired and must go through LoadForSession.
func (m *Manager) CachedKey() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cached != nil {
		return m.cached, nil
	}

	hasPin, err := m.pins.HasPin()
	if err != nil {
		return nil, errors.Wrap(err, "check PIN state")
	}
	if hasPin {
		return nil, authDomain.ErrPinRequired
	}

	key, err := m.loadOrGenerate(domain.FallbackWrappingKey())
	if err != nil {
		return nil, err
	}
	m.cached = key
	return m.cached, nil
}

// HasCachedKey reports whether the master key is currently cached.
func (m *Manager) HasCachedKey() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cached != nil
}

// LoadForSession unwraps the master key with a wrapping key derived from the
// PIN and caches it. An unwrap failure means the PIN is wrong.
func (m *Manager) LoadForSession(ctx context.Context, pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	salt, err := m.pins.Salt(ctx)
	if err != nil {
		return errors.Wrap(err, "load PIN salt")
	}

	wrappingKey := cryptoService.DeriveKey(pin, salt, m.iterations)
	defer cryptoDomain.Zero(wrappingKey)

	record, err := m.loadRecord()
	if err != nil {
		return err
	}

	key, err := unwrap(record, wrappingKey)
	if err != nil {
		return authDomain.ErrInvalidPin
	}

	cryptoDomain.Zero(m.cached)
	m.cached = key
	return nil
}

// Rewrap re-encrypts the stored master key under a new wrapping key. The
// master key itself never changes, so existing secrets stay readable.
func (m *Manager) Rewrap(oldWrappingKey, newWrappingKey []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, err := m.loadRecord()
	if err != nil {
		return err
	}

	key, err := unwrap(record, oldWrappingKey)
	if err != nil {
		return authDomain.ErrInvalidPin
	}
	defer cryptoDomain.Zero(key)

	wrapped, err := wrap(key, newWrappingKey)
	if err != nil {
		return err
	}
	if err := m.keychain.Set(m.recordService(), domain.MasterKeyAccount, wrapped); err != nil {
		return errors.Wrap(err, "store rewrapped master key")
	}
	return nil
}

// Evict zeroes the cached master key in place and drops it. Every slice
// previously returned by CachedKey goes dark at the same moment.
func (m *Manager) Evict() {
	m.mu.Lock()
	defer m.mu.Unlock()

	cryptoDomain.Zero(m.cached)
	m.cached = nil
}

// loadOrGenerate loads the wrapped master key, creating and storing a fresh
// one when no record exists yet. The caller holds m.mu.
func (m *Manager) loadOrGenerate(wrappingKey []byte) ([]byte, error) {
	record, err := m.loadRecord()
	if err == nil {
		key, unwrapErr := unwrap(record, wrappingKey)
		if unwrapErr != nil {
			return nil, errors.Wrap(unwrapErr, "unwrap master key")
		}
		return key, nil
	}
	if !errors.Is(err, domain.ErrMasterKeyNotAvailable) {
		return nil, err
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, "generate master key")
	}

	wrapped, err := wrap(key, wrappingKey)
	if err != nil {
		return nil, err
	}
	if err := m.keychain.Set(m.recordService(), domain.MasterKeyAccount, wrapped); err != nil {
		return nil, errors.Wrap(err, "store master key")
	}

	// Re-read and adopt whatever the keychain holds now. If a concurrent
	// first run won the write race, its key is the canonical one.
	stored, err := m.loadRecord()
	if err != nil {
		return nil, err
	}
	if stored != wrapped {
		m.logger.Warn("master key record changed after write, adopting stored key")
		cryptoDomain.Zero(key)
		adopted, unwrapErr := unwrap(stored, wrappingKey)
		if unwrapErr != nil {
			return nil, errors.Wrap(unwrapErr, "unwrap concurrently stored master key")
		}
		return adopted, nil
	}

	m.logger.Info("generated new master key", "service", m.recordService())
	return key, nil
}

func (m *Manager) loadRecord() (string, error) {
	record, err := m.keychain.Get(m.recordService(), domain.MasterKeyAccount)
	if err != nil {
		if errors.Is(err, keychain.ErrNotFound) {
			return "", domain.ErrMasterKeyNotAvailable
		}
		return "", errors.Wrap(err, "read master key record")
	}
	return record, nil
}

func (m *Manager) recordService() string {
	return domain.RecordService(m.servicePrefix, m.installationID)
}

// wrap compresses the master key and encrypts it under the wrapping key,
// producing the JSON record stored in the keychain.
func wrap(masterKey, wrappingKey []byte) (string, error) {
	var compressed bytes.Buffer
	gz := gzip.NewWriter(&compressed)
	if _, err := gz.Write(masterKey); err != nil {
		return "", errors.Wrap(err, "compress master key")
	}
	if err := gz.Close(); err != nil {
		return "", errors.Wrap(err, "compress master key")
	}

	cipher, err := cryptoService.NewAESGCM(wrappingKey)
	if err != nil {
		return "", err
	}
	blob, err := cipher.Encrypt(compressed.Bytes())
	if err != nil {
		return "", errors.Wrap(err, "wrap master key")
	}

	record, err := json.Marshal(blob)
	if err != nil {
		return "", errors.Wrap(err, "encode master key record")
	}
	return string(record), nil
}

// unwrap decrypts a stored record and decompresses the result. Records
// written before compression was introduced hold the raw key, so a failed
// decompression falls back to the decrypted bytes as-is.
func unwrap(record string, wrappingKey []byte) ([]byte, error) {
	var blob cryptoDomain.EncryptedBlob
	if err := json.Unmarshal([]byte(record), &blob); err != nil {
		return nil, errors.Wrap(err, "decode master key record")
	}

	cipher, err := cryptoService.NewAESGCM(wrappingKey)
	if err != nil {
		return nil, err
	}
	decrypted, err := cipher.Decrypt(blob)
	if err != nil {
		return nil, err
	}

	gz, err := gzip.NewReader(bytes.NewReader(decrypted))
	if err != nil {
		return decrypted, nil
	}
	key, err := io.ReadAll(gz)
	if err != nil {
		return decrypted, nil
	}
	if err := gz.Close(); err != nil {
		return decrypted, nil
	}
	return key, nil
}

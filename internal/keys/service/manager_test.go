package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	authDomain "github.com/allisson/credstore/internal/auth/domain"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	cryptoService "github.com/allisson/credstore/internal/crypto/service"
	"github.com/allisson/credstore/internal/errors"
	"github.com/allisson/credstore/internal/keychain"
	"github.com/allisson/credstore/internal/keys/domain"
)

const testIterations = 1_000

type fakePinInfo struct {
	hasPin bool
	salt   []byte
}

func (f *fakePinInfo) HasPin() (bool, error) {
	return f.hasPin, nil
}

func (f *fakePinInfo) Salt(_ context.Context) ([]byte, error) {
	if f.salt == nil {
		return nil, errors.Wrap(errors.ErrNotFound, "no PIN salt")
	}
	return f.salt, nil
}

func newTestManager(kc keychain.Keychain, pins PinInfo) *Manager {
	return NewManager(kc, pins, "credstore", "test-install", testIterations, slog.New(slog.DiscardHandler))
}

func TestManagerCachedKey(t *testing.T) {
	t.Run("generates a key on first use without a PIN", func(t *testing.T) {
		kc := keychain.NewMemory()
		manager := newTestManager(kc, &fakePinInfo{})

		key, err := manager.CachedKey()
		require.NoError(t, err)
		assert.Len(t, key, cryptoDomain.KeySize)
		assert.NotEqual(t, make([]byte, cryptoDomain.KeySize), key)
		assert.Equal(t, 1, kc.Len())
	})

	t.Run("loads the same key across managers", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{}

		first, err := newTestManager(kc, pins).CachedKey()
		require.NoError(t, err)

		second, err := newTestManager(kc, pins).CachedKey()
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("returns the cached key without touching the keychain", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{}
		manager := newTestManager(kc, pins)

		key, err := manager.CachedKey()
		require.NoError(t, err)

		// A configured PIN blocks cold loads but not cache hits.
		pins.hasPin = true
		again, err := manager.CachedKey()
		require.NoError(t, err)
		assert.Equal(t, key, again)
	})

	t.Run("requires a PIN when one is configured and the cache is cold", func(t *testing.T) {
		kc := keychain.NewMemory()
		manager := newTestManager(kc, &fakePinInfo{hasPin: true, salt: make([]byte, authDomain.SaltSize)})

		_, err := manager.CachedKey()
		assert.ErrorIs(t, err, authDomain.ErrPinRequired)
		assert.False(t, manager.HasCachedKey())
	})
}

func TestManagerLoadForSession(t *testing.T) {
	setup := func(t *testing.T, pin string) (*Manager, *fakePinInfo, []byte) {
		t.Helper()

		kc := keychain.NewMemory()
		pins := &fakePinInfo{salt: []byte("0123456789abcdef0123456789abcdef")}
		manager := newTestManager(kc, pins)

		key, err := manager.CachedKey()
		require.NoError(t, err)
		original := make([]byte, len(key))
		copy(original, key)

		wrappingKey := cryptoService.DeriveKey(pin, pins.salt, testIterations)
		require.NoError(t, manager.Rewrap(domain.FallbackWrappingKey(), wrappingKey))
		pins.hasPin = true
		manager.Evict()

		return manager, pins, original
	}

	t.Run("unwraps the master key with the correct PIN", func(t *testing.T) {
		manager, _, original := setup(t, "4567")

		require.NoError(t, manager.LoadForSession(context.Background(), "4567"))
		key, err := manager.CachedKey()
		require.NoError(t, err)
		assert.Equal(t, original, key)
	})

	t.Run("rejects a wrong PIN", func(t *testing.T) {
		manager, _, _ := setup(t, "4567")

		err := manager.LoadForSession(context.Background(), "9999")
		assert.ErrorIs(t, err, authDomain.ErrInvalidPin)
		assert.False(t, manager.HasCachedKey())
	})

	t.Run("fails when no master key record exists", func(t *testing.T) {
		pins := &fakePinInfo{hasPin: true, salt: make([]byte, authDomain.SaltSize)}
		manager := newTestManager(keychain.NewMemory(), pins)

		err := manager.LoadForSession(context.Background(), "4567")
		assert.ErrorIs(t, err, domain.ErrMasterKeyNotAvailable)
	})
}

func TestManagerRewrap(t *testing.T) {
	t.Run("preserves the master key across wrapping key changes", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{salt: []byte("0123456789abcdef0123456789abcdef")}
		manager := newTestManager(kc, pins)

		key, err := manager.CachedKey()
		require.NoError(t, err)
		original := make([]byte, len(key))
		copy(original, key)

		oldWrap := cryptoService.DeriveKey("1111", pins.salt, testIterations)
		newWrap := cryptoService.DeriveKey("2222", pins.salt, testIterations)

		require.NoError(t, manager.Rewrap(domain.FallbackWrappingKey(), oldWrap))
		require.NoError(t, manager.Rewrap(oldWrap, newWrap))

		pins.hasPin = true
		manager.Evict()
		require.NoError(t, manager.LoadForSession(context.Background(), "2222"))

		key, err = manager.CachedKey()
		require.NoError(t, err)
		assert.Equal(t, original, key)
	})

	t.Run("rejects a wrong old wrapping key", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{salt: []byte("0123456789abcdef0123456789abcdef")}
		manager := newTestManager(kc, pins)

		_, err := manager.CachedKey()
		require.NoError(t, err)

		wrong := cryptoService.DeriveKey("1111", pins.salt, testIterations)
		err = manager.Rewrap(wrong, domain.FallbackWrappingKey())
		assert.ErrorIs(t, err, authDomain.ErrInvalidPin)
	})
}

func TestManagerEvict(t *testing.T) {
	t.Run("zeroes every handed-out reference", func(t *testing.T) {
		manager := newTestManager(keychain.NewMemory(), &fakePinInfo{})

		key, err := manager.CachedKey()
		require.NoError(t, err)
		require.NotEqual(t, make([]byte, cryptoDomain.KeySize), key)

		manager.Evict()
		assert.Equal(t, make([]byte, cryptoDomain.KeySize), key)
		assert.False(t, manager.HasCachedKey())
	})

	t.Run("is safe on an empty cache", func(t *testing.T) {
		manager := newTestManager(keychain.NewMemory(), &fakePinInfo{})
		manager.Evict()
		assert.False(t, manager.HasCachedKey())
	})
}

func TestManagerConcurrentFirstRun(t *testing.T) {
	t.Run("adopts the key stored by a concurrent winner", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{}

		winner, err := newTestManager(kc, pins).CachedKey()
		require.NoError(t, err)
		record, err := kc.Get("credstore-test-install", domain.MasterKeyAccount)
		require.NoError(t, err)

		// The loser generates its own key, but its write is immediately
		// superseded by the record the winner already stored.
		loserKC := keychain.NewMemory()
		manager := newTestManager(&supersedingKeychain{Memory: loserKC, record: record}, pins)

		key, err := manager.CachedKey()
		require.NoError(t, err)
		assert.Equal(t, winner, key)
	})

	t.Run("parallel cold starts all obtain a usable key", func(t *testing.T) {
		kc := keychain.NewMemory()
		pins := &fakePinInfo{}

		const workers = 8
		keys := make([][]byte, workers)

		var g errgroup.Group
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				key, err := newTestManager(kc, pins).CachedKey()
				if err != nil {
					return err
				}
				keys[i] = key
				return nil
			})
		}
		require.NoError(t, g.Wait())

		assert.Equal(t, 1, kc.Len())
		for _, key := range keys {
			assert.Len(t, key, cryptoDomain.KeySize)
			assert.NotEqual(t, make([]byte, cryptoDomain.KeySize), key)
		}

		_, err := newTestManager(kc, pins).CachedKey()
		assert.NoError(t, err)
	})
}

// supersedingKeychain overwrites every stored master key record with a fixed
// competitor record, modeling another process winning the write race.
type supersedingKeychain struct {
	*keychain.Memory
	record string
}

func (s *supersedingKeychain) Set(service, account, value string) error {
	if err := s.Memory.Set(service, account, value); err != nil {
		return err
	}
	return s.Memory.Set(service, account, s.record)
}

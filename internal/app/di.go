// Package app provides the dependency injection container assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"

	authService "github.com/allisson/credstore/internal/auth/service"
	authUsecase "github.com/allisson/credstore/internal/auth/usecase"
	"github.com/allisson/credstore/internal/config"
	cryptoDomain "github.com/allisson/credstore/internal/crypto/domain"
	"github.com/allisson/credstore/internal/database"
	"github.com/allisson/credstore/internal/keychain"
	keysService "github.com/allisson/credstore/internal/keys/service"
	secretsUsecase "github.com/allisson/credstore/internal/secrets/usecase"
)

// Option customizes container construction.
type Option func(*Container)

// WithKeychain substitutes the platform keychain, mainly for tests.
func WithKeychain(kc keychain.Keychain) Option {
	return func(c *Container) {
		c.keychain = kc
	}
}

// Container holds all application dependencies and provides methods to
// access them. Components are created lazily on first access.
type Container struct {
	config *config.Config

	logger         *slog.Logger
	keychain       keychain.Keychain
	db             *sql.DB
	installationID string

	settingRepo *database.SettingRepository
	entryRepo   *database.EntryRepository
	secretRepo  *database.SecretRepository

	pinService   *authService.PinService
	sessionStore *authService.SessionStore
	keyManager   *keysService.Manager

	sessionUseCase *authUsecase.SessionUseCase
	pinUseCase     *authUsecase.PinUseCase
	entryUseCase   *secretsUsecase.EntryUseCase

	mu             sync.Mutex
	loggerInit     sync.Once
	dbInit         sync.Once
	keyManagerInit sync.Once
	sessionInit    sync.Once
	initErrors     map[string]error
}

// NewContainer creates a dependency injection container for the provided
// configuration.
func NewContainer(cfg *config.Config, opts ...Option) *Container {
	c := &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.keychain == nil {
		c.keychain = keychain.NewOSKeychain()
	}
	return c
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance. CLI output goes to stdout,
// so logs go to stderr.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// Keychain returns the platform keychain adapter.
func (c *Container) Keychain() keychain.Keychain {
	return c.keychain
}

// DB returns the database connection, opening the store and running
// migrations on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Open(c.config.DatabasePath())
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to open database: %w", err)
			return
		}
		c.db = db
		c.settingRepo = database.NewSettingRepository(db)
		c.entryRepo = database.NewEntryRepository(db)
		c.secretRepo = database.NewSecretRepository(db)
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// InstallationID returns the stable installation identifier, creating it on
// first run. It reads the database file directly so the wrapped master key
// can be located before the full store is opened.
func (c *Container) InstallationID() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.installationID != "" {
		return c.installationID, nil
	}
	id, err := database.EnsureInstallationID(c.config.DatabasePath())
	if err != nil {
		return "", fmt.Errorf("failed to resolve installation id: %w", err)
	}
	c.installationID = id
	return id, nil
}

// SettingRepository returns the settings repository.
func (c *Container) SettingRepository() (*database.SettingRepository, error) {
	if _, err := c.DB(); err != nil {
		return nil, err
	}
	return c.settingRepo, nil
}

// PinService returns the PIN credential service.
func (c *Container) PinService() (*authService.PinService, error) {
	settings, err := c.SettingRepository()
	if err != nil {
		return nil, err
	}
	return authService.NewPinService(
		c.keychain,
		settings,
		c.config.KeychainService,
		cryptoDomain.PBKDF2Iterations,
	), nil
}

// KeyManager returns the master key manager.
func (c *Container) KeyManager() (*keysService.Manager, error) {
	c.keyManagerInit.Do(func() {
		pins, err := c.PinService()
		if err != nil {
			c.initErrors["keyManager"] = err
			return
		}
		installationID, err := c.InstallationID()
		if err != nil {
			c.initErrors["keyManager"] = err
			return
		}
		c.keyManager = keysService.NewManager(
			c.keychain,
			pins,
			c.config.KeychainService,
			installationID,
			cryptoDomain.PBKDF2Iterations,
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["keyManager"]; exists {
		return nil, err
	}
	return c.keyManager, nil
}

// SessionStore returns the per-shell session state store.
func (c *Container) SessionStore() *authService.SessionStore {
	if c.sessionStore == nil {
		c.sessionStore = authService.NewSessionStore(
			c.config.SessionDir,
			c.config.KeychainService,
			authService.SignalProcessChecker{},
		)
	}
	return c.sessionStore
}

// SessionUseCase returns the session controller bound to the current shell.
func (c *Container) SessionUseCase() (*authUsecase.SessionUseCase, error) {
	c.sessionInit.Do(func() {
		pins, err := c.PinService()
		if err != nil {
			c.initErrors["session"] = err
			return
		}
		keys, err := c.KeyManager()
		if err != nil {
			c.initErrors["session"] = err
			return
		}
		c.sessionUseCase = authUsecase.NewSessionUseCase(
			pins,
			keys,
			c.SessionStore(),
			c.ShellPID(),
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["session"]; exists {
		return nil, err
	}
	return c.sessionUseCase, nil
}

// PinUseCase returns the PIN lifecycle use case.
func (c *Container) PinUseCase() (*authUsecase.PinUseCase, error) {
	if c.pinUseCase != nil {
		return c.pinUseCase, nil
	}
	pins, err := c.PinService()
	if err != nil {
		return nil, err
	}
	keys, err := c.KeyManager()
	if err != nil {
		return nil, err
	}
	c.pinUseCase = authUsecase.NewPinUseCase(pins, keys, c.Logger())
	return c.pinUseCase, nil
}

// EntryUseCase returns the entry management use case.
func (c *Container) EntryUseCase() (*secretsUsecase.EntryUseCase, error) {
	if c.entryUseCase != nil {
		return c.entryUseCase, nil
	}
	if _, err := c.DB(); err != nil {
		return nil, err
	}
	session, err := c.SessionUseCase()
	if err != nil {
		return nil, err
	}
	c.entryUseCase = secretsUsecase.NewEntryUseCase(c.entryRepo, c.secretRepo, session, c.Logger())
	return c.entryUseCase, nil
}

// Shutdown evicts the cached master key and closes the database. It is safe
// to call on a partially initialized container.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.keyManager != nil {
		c.keyManager.Evict()
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			return fmt.Errorf("database close: %w", err)
		}
	}
	return nil
}

// ShellPID resolves the owning shell's process id: the configured
// environment variable when set, the parent process otherwise.
func (c *Container) ShellPID() int {
	if raw := os.Getenv(c.config.ShellPIDVar); raw != "" {
		if pid, err := strconv.Atoi(raw); err == nil && pid > 0 {
			return pid
		}
	}
	return os.Getppid()
}

// initLogger creates and configures a structured logger based on the log
// level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// DataDir is the directory holding the database and other local state.
	DataDir string
	// DatabaseFile is the SQLite database filename inside DataDir.
	DatabaseFile string

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// KeychainService is the fixed service name used for installation-wide
	// keychain records such as the pin-set flag. Per-installation records
	// (the wrapped master key) are stored under "<KeychainService>-<id>".
	KeychainService string

	// SessionDir is the directory holding per-shell authentication state files.
	SessionDir string
	// ShellPIDVar is the environment variable consulted for the owning shell's
	// process ID before falling back to the parent process.
	ShellPIDVar string
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		DataDir:      env.GetString("CREDSTORE_DATA_DIR", defaultDataDir()),
		DatabaseFile: env.GetString("CREDSTORE_DB_FILE", "credstore.db"),

		LogLevel: env.GetString("LOG_LEVEL", "info"),

		KeychainService: env.GetString("CREDSTORE_KEYCHAIN_SERVICE", "credstore"),

		SessionDir:  env.GetString("CREDSTORE_SESSION_DIR", os.TempDir()),
		ShellPIDVar: env.GetString("CREDSTORE_SHELL_PID_VAR", "CREDSTORE_SHELL_PID"),
	}
}

// DatabasePath returns the full path to the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// defaultDataDir returns "~/.credstore", falling back to the current
// directory when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".credstore"
	}
	return filepath.Join(home, ".credstore")
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}

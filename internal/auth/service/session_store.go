package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/allisson/credstore/internal/auth/domain"
	"github.com/allisson/credstore/internal/errors"
)

// ProcessChecker reports whether a process is still alive.
type ProcessChecker interface {
	Alive(pid int) bool
}

// SignalProcessChecker probes liveness with a null signal. A permission
// error still proves the process exists.
type SignalProcessChecker struct{}

// Alive reports whether pid names a live process.
func (SignalProcessChecker) Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// SessionStore persists per-shell authentication state as one JSON file per
// shell PID. State files are advisory; a file whose owning process has died
// is stale and is discarded on read.
type SessionStore struct {
	dir     string
	prefix  string
	checker ProcessChecker
}

// NewSessionStore creates a session store writing under dir.
func NewSessionStore(dir, prefix string, checker ProcessChecker) *SessionStore {
	return &SessionStore{dir: dir, prefix: prefix, checker: checker}
}

// Load returns the session state for pid. A missing file, an unreadable
// file, or a dead owning process all yield a nil state; stale files are
// removed on the way out.
func (s *SessionStore) Load(pid int) (*domain.SessionState, error) {
	raw, err := os.ReadFile(s.path(pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "read session state")
	}

	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		_ = os.Remove(s.path(pid))
		return nil, nil
	}

	if state.PID != pid || !s.checker.Alive(state.PID) {
		_ = os.Remove(s.path(pid))
		return nil, nil
	}
	return &state, nil
}

// Save writes the session state for state.PID, readable only by the owner.
func (s *SessionStore) Save(state domain.SessionState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return errors.Wrap(err, "encode session state")
	}
	if err := os.WriteFile(s.path(state.PID), raw, 0o600); err != nil {
		return errors.Wrap(err, "write session state")
	}
	return nil
}

// Clear removes the session state for pid. Clearing a missing state is not
// an error.
func (s *SessionStore) Clear(pid int) error {
	err := os.Remove(s.path(pid))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove session state")
	}
	return nil
}

// CleanupStale removes state files whose owning process has died and
// returns how many were removed.
func (s *SessionStore) CleanupStale() (int, error) {
	pattern := filepath.Join(s.dir, s.prefix+"-auth-shell-*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return 0, errors.Wrap(err, "scan session states")
	}

	removed := 0
	for _, match := range matches {
		pid, ok := s.pidFromPath(match)
		if !ok {
			continue
		}
		if s.checker.Alive(pid) {
			continue
		}
		if err := os.Remove(match); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (s *SessionStore) path(pid int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s-auth-shell-%d.json", s.prefix, pid))
}

func (s *SessionStore) pidFromPath(path string) (int, bool) {
	name := filepath.Base(path)
	name = strings.TrimPrefix(name, s.prefix+"-auth-shell-")
	name = strings.TrimSuffix(name, ".json")

	var pid int
	if _, err := fmt.Sscanf(name, "%d", &pid); err != nil {
		return 0, false
	}
	return pid, true
}

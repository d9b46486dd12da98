package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/credstore/internal/app"
	authDomain "github.com/allisson/credstore/internal/auth/domain"
	"github.com/allisson/credstore/internal/config"
	"github.com/allisson/credstore/internal/keychain"
)

// testEnv is one installation shared by several command invocations, each
// of which gets its own container the way real CLI runs do.
type testEnv struct {
	cfg *config.Config
	kc  *keychain.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return &testEnv{
		cfg: &config.Config{
			DataDir:         t.TempDir(),
			DatabaseFile:    "credstore.db",
			LogLevel:        "error",
			KeychainService: "credstore-test",
			SessionDir:      t.TempDir(),
			ShellPIDVar:     "CREDSTORE_TEST_SHELL_PID",
		},
		kc: keychain.NewMemory(),
	}
}

func (e *testEnv) container() *app.Container {
	return app.NewContainer(e.cfg, app.WithKeychain(e.kc))
}

func (e *testEnv) io(input string) (IOTuple, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return IOTuple{Reader: strings.NewReader(input), Writer: out}, out
}

func TestRunAddAndGet(t *testing.T) {
	ctx := context.Background()

	t.Run("adds an entry with a prompted secret", func(t *testing.T) {
		env := newTestEnv(t)

		io, out := env.io("ghp_abc123\n")
		err := RunAdd(ctx, env.container(), io, "github", nil, []string{"work"}, "token for CI", true)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "added")

		io, out = env.io("")
		err = RunGet(ctx, env.container(), io, "github", true)
		require.NoError(t, err)
		assert.Contains(t, out.String(), "ghp_abc123")
		assert.Contains(t, out.String(), "work")
	})

	t.Run("get without reveal hides the secret", func(t *testing.T) {
		env := newTestEnv(t)

		io, _ := env.io("ghp_abc123\n")
		require.NoError(t, RunAdd(ctx, env.container(), io, "github", nil, nil, "", true))

		io, out := env.io("")
		require.NoError(t, RunGet(ctx, env.container(), io, "github", false))
		assert.NotContains(t, out.String(), "ghp_abc123")
	})

	t.Run("rejects malformed metadata", func(t *testing.T) {
		env := newTestEnv(t)

		io, _ := env.io("")
		err := RunAdd(ctx, env.container(), io, "github", []string{"nokey"}, nil, "", false)
		assert.Error(t, err)
	})
}

func TestRunListSearchDelete(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) *testEnv {
		t.Helper()
		env := newTestEnv(t)
		io, _ := env.io("a\n")
		require.NoError(t, RunAdd(ctx, env.container(), io, "github", nil, []string{"work"}, "", true))
		io, _ = env.io("")
		require.NoError(t, RunAdd(ctx, env.container(), io, "aws", nil, nil, "cloud account", false))
		return env
	}

	t.Run("lists entries", func(t *testing.T) {
		env := seed(t)

		io, out := env.io("")
		require.NoError(t, RunList(ctx, env.container(), io))
		assert.Contains(t, out.String(), "github")
		assert.Contains(t, out.String(), "aws")
	})

	t.Run("searches entries", func(t *testing.T) {
		env := seed(t)

		io, out := env.io("")
		require.NoError(t, RunSearch(ctx, env.container(), io, "cloud"))
		assert.Contains(t, out.String(), "aws")
		assert.NotContains(t, out.String(), "github")
	})

	t.Run("deletes an entry", func(t *testing.T) {
		env := seed(t)

		io, _ := env.io("")
		require.NoError(t, RunDelete(ctx, env.container(), io, "github"))

		io, out := env.io("")
		require.NoError(t, RunList(ctx, env.container(), io))
		assert.NotContains(t, out.String(), "github")
	})

	t.Run("reports counts", func(t *testing.T) {
		env := seed(t)

		io, out := env.io("")
		require.NoError(t, RunStats(ctx, env.container(), io))
		assert.Contains(t, out.String(), "2")
	})
}

func TestRunExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("round-trips through a file", func(t *testing.T) {
		source := newTestEnv(t)
		io, _ := source.io("token-value\n")
		require.NoError(t, RunAdd(ctx, source.container(), io, "github", nil, nil, "", true))

		path := filepath.Join(t.TempDir(), "export.json")
		io, _ = source.io("")
		require.NoError(t, RunExport(ctx, source.container(), io, path))

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "token-value")

		target := newTestEnv(t)
		io, out := target.io("")
		require.NoError(t, RunImport(ctx, target.container(), io, path, false))
		assert.Contains(t, out.String(), "imported 1")

		io, out = target.io("")
		require.NoError(t, RunGet(ctx, target.container(), io, "github", true))
		assert.Contains(t, out.String(), "token-value")
	})
}

func TestRunStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("reports an unprotected empty store", func(t *testing.T) {
		env := newTestEnv(t)

		io, out := env.io("")
		require.NoError(t, RunStatus(ctx, env.container(), io))
		assert.Contains(t, out.String(), "disabled")
		assert.Contains(t, out.String(), "entries:")
	})
}

func TestAuthFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("login without a PIN succeeds immediately", func(t *testing.T) {
		env := newTestEnv(t)

		io, out := env.io("")
		require.NoError(t, RunLogin(ctx, env.container(), io))
		assert.Contains(t, out.String(), "logged in")
	})

	t.Run("PIN gates login and secrets survive", func(t *testing.T) {
		env := newTestEnv(t)

		io, _ := env.io("token-value\n")
		require.NoError(t, RunAdd(ctx, env.container(), io, "github", nil, nil, "", true))

		io, _ = env.io("1234\n1234\n")
		require.NoError(t, RunPinSet(ctx, env.container(), io))

		io, out := env.io("0000\n1234\n")
		require.NoError(t, RunLogin(ctx, env.container(), io))
		assert.Contains(t, out.String(), "invalid PIN")
		assert.Contains(t, out.String(), "logged in")

		// Same shell, new process: the session resumes and the secret
		// prompt re-derives the key.
		io, out = env.io("1234\n")
		require.NoError(t, RunGet(ctx, env.container(), io, "github", true))
		assert.Contains(t, out.String(), "token-value")

		io, _ = env.io("")
		require.NoError(t, RunLogout(ctx, env.container(), io))

		io, out = env.io("")
		err := RunGet(ctx, env.container(), io, "github", true)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not authenticated")
	})

	t.Run("mismatched PIN confirmation fails", func(t *testing.T) {
		env := newTestEnv(t)

		io, _ := env.io("1234\n5678\n")
		err := RunPinSet(ctx, env.container(), io)
		assert.Error(t, err)
	})
}

func TestRunReset(t *testing.T) {
	ctx := context.Background()

	t.Run("aborts without confirmation", func(t *testing.T) {
		env := newTestEnv(t)
		io, _ := env.io("a\n")
		require.NoError(t, RunAdd(ctx, env.container(), io, "github", nil, nil, "", true))

		io, _ = env.io("no\n")
		require.Error(t, RunReset(ctx, env.container(), io, false))

		io, out := env.io("")
		require.NoError(t, RunList(ctx, env.container(), io))
		assert.Contains(t, out.String(), "github")
	})

	t.Run("destroys keys and entries", func(t *testing.T) {
		env := newTestEnv(t)
		io, _ := env.io("a\n")
		require.NoError(t, RunAdd(ctx, env.container(), io, "github", nil, nil, "", true))

		io, _ = env.io("yes\n")
		require.NoError(t, RunReset(ctx, env.container(), io, false))

		assert.Equal(t, 0, env.kc.Len())
		io, out := env.io("")
		require.NoError(t, RunList(ctx, env.container(), io))
		assert.Contains(t, out.String(), "no entries")
	})

	t.Run("clears the session of the overridden shell pid", func(t *testing.T) {
		env := newTestEnv(t)
		shellPID := os.Getpid()
		t.Setenv(env.cfg.ShellPIDVar, strconv.Itoa(shellPID))

		container := env.container()
		require.NoError(t, container.SessionStore().Save(authDomain.SessionState{
			Authenticated: true,
			Timestamp:     time.Now().UTC(),
			PID:           shellPID,
		}))

		io, _ := env.io("yes\n")
		require.NoError(t, RunReset(ctx, container, io, false))

		state, err := env.container().SessionStore().Load(shellPID)
		require.NoError(t, err)
		assert.Nil(t, state)
	})
}

func TestRunInit(t *testing.T) {
	ctx := context.Background()

	t.Run("prepares a fresh store", func(t *testing.T) {
		env := newTestEnv(t)

		io, out := env.io("")
		require.NoError(t, RunInit(ctx, env.container(), io))
		assert.Contains(t, out.String(), "store ready")
		assert.Equal(t, 1, env.kc.Len())
	})

	t.Run("is idempotent", func(t *testing.T) {
		env := newTestEnv(t)

		io, _ := env.io("")
		require.NoError(t, RunInit(ctx, env.container(), io))
		io, _ = env.io("")
		require.NoError(t, RunInit(ctx, env.container(), io))
		assert.Equal(t, 1, env.kc.Len())
	})
}

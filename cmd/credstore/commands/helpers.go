// Package commands contains CLI command implementations for the
// application.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/allisson/credstore/internal/app"
	authDomain "github.com/allisson/credstore/internal/auth/domain"
	"github.com/allisson/credstore/internal/errors"
)

// pinAttempts bounds interactive PIN retries per invocation.
const pinAttempts = 3

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

var (
	successText = color.New(color.FgGreen).SprintfFunc()
	warnText    = color.New(color.FgYellow).SprintfFunc()
	labelText   = color.New(color.Bold).SprintfFunc()
)

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}

// readPin reads a PIN without echo when stdin is a terminal, and as a plain
// line otherwise so scripted and test input keep working.
func readPin(io IOTuple, prompt string) (string, error) {
	fmt.Fprint(io.Writer, prompt)

	if file, ok := io.Reader.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
		raw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(io.Writer)
		if err != nil {
			return "", fmt.Errorf("failed to read PIN: %w", err)
		}
		return string(raw), nil
	}

	line, err := readLine(io.Reader)
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return line, nil
}

// readLine reads a single line one byte at a time so consecutive prompts
// sharing one reader never consume each other's input.
func readLine(r io.Reader) (string, error) {
	var line strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				break
			}
			line.WriteByte(buf[0])
		}
		if err != nil {
			if line.Len() > 0 {
				return strings.TrimRight(line.String(), "\r"), nil
			}
			return "", err
		}
	}
	return strings.TrimRight(line.String(), "\r"), nil
}

// readSecret reads a secret value the same way readPin does.
func readSecret(io IOTuple, prompt string) (string, error) {
	return readPin(io, prompt)
}

// withSession runs fn with an authenticated session, prompting for the PIN
// when the session is live but this process still needs key material.
func withSession(
	ctx context.Context,
	container *app.Container,
	io IOTuple,
	fn func(ctx context.Context) error,
) error {
	err := fn(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, authDomain.ErrNotAuthenticated) {
		return fmt.Errorf("not authenticated: run 'credstore auth login' first")
	}
	if !errors.Is(err, authDomain.ErrPinRequired) {
		return err
	}

	session, sessionErr := container.SessionUseCase()
	if sessionErr != nil {
		return sessionErr
	}

	for attempt := 0; attempt < pinAttempts; attempt++ {
		pin, readErr := readPin(io, "PIN: ")
		if readErr != nil {
			return readErr
		}
		if provideErr := session.ProvidePin(ctx, pin); provideErr != nil {
			if errors.Is(provideErr, authDomain.ErrInvalidPin) {
				fmt.Fprintln(io.Writer, warnText("invalid PIN"))
				continue
			}
			return provideErr
		}
		return fn(ctx)
	}
	return authDomain.ErrInvalidPin
}

// parseMetadata converts key=value arguments into a metadata map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid metadata %q: expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

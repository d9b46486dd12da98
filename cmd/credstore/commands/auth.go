package commands

import (
	"context"
	"fmt"

	"github.com/allisson/credstore/internal/app"
	authDomain "github.com/allisson/credstore/internal/auth/domain"
	"github.com/allisson/credstore/internal/errors"
)

// RunLogin opens a session for the current shell, prompting for the PIN
// when one is configured.
func RunLogin(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	session, err := container.SessionUseCase()
	if err != nil {
		return err
	}

	resumed, err := session.Resume(ctx)
	if err != nil {
		return err
	}
	if resumed {
		fmt.Fprintln(io.Writer, successText("already logged in"))
		return nil
	}

	pinUseCase, err := container.PinUseCase()
	if err != nil {
		return err
	}
	hasPin, err := pinUseCase.HasPin()
	if err != nil {
		return err
	}

	if !hasPin {
		if err := session.Authenticate(ctx, ""); err != nil {
			return err
		}
		fmt.Fprintln(io.Writer, successText("logged in (no PIN configured)"))
		return nil
	}

	for attempt := 0; attempt < pinAttempts; attempt++ {
		pin, err := readPin(io, "PIN: ")
		if err != nil {
			return err
		}
		err = session.Authenticate(ctx, pin)
		if err == nil {
			fmt.Fprintln(io.Writer, successText("logged in"))
			return nil
		}
		if errors.Is(err, authDomain.ErrInvalidPin) {
			fmt.Fprintln(io.Writer, warnText("invalid PIN"))
			continue
		}
		return err
	}
	return authDomain.ErrInvalidPin
}

// RunLogout closes the current shell's session and erases the cached key.
func RunLogout(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	session, err := container.SessionUseCase()
	if err != nil {
		return err
	}
	if err := session.Deauthenticate(); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("logged out"))
	return nil
}

// RunAuthStatus reports whether the current shell holds a live session.
func RunAuthStatus(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	session, err := container.SessionUseCase()
	if err != nil {
		return err
	}
	authenticated, err := session.Authenticated(ctx)
	if err != nil {
		return err
	}

	if authenticated {
		fmt.Fprintln(io.Writer, successText("authenticated"))
	} else {
		fmt.Fprintln(io.Writer, "not authenticated")
	}
	return nil
}

// RunAuthCleanup removes session state files left behind by dead shells.
func RunAuthCleanup(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	removed, err := container.SessionStore().CleanupStale()
	if err != nil {
		return err
	}

	fmt.Fprintf(io.Writer, "removed %d stale session file(s)\n", removed)
	return nil
}

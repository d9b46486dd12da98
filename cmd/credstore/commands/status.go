package commands

import (
	"context"
	"fmt"

	"github.com/allisson/credstore/internal/app"
	"github.com/allisson/credstore/internal/keychain"
)

// RunStatus reports the installation's overall state: secure storage
// availability, installation id, PIN protection, and entry counts.
func RunStatus(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	if checker, ok := container.Keychain().(keychain.Checker); ok {
		if err := checker.Check(); err != nil {
			return err
		}
	}
	fmt.Fprintf(io.Writer, "%s available\n", labelText("secure storage:"))

	installationID, err := container.InstallationID()
	if err != nil {
		return err
	}
	fmt.Fprintf(io.Writer, "%s %s\n", labelText("installation:"), installationID)

	pinUseCase, err := container.PinUseCase()
	if err != nil {
		return err
	}
	hasPin, err := pinUseCase.HasPin()
	if err != nil {
		return err
	}
	if hasPin {
		fmt.Fprintf(io.Writer, "%s enabled\n", labelText("PIN protection:"))
	} else {
		fmt.Fprintf(io.Writer, "%s disabled\n", labelText("PIN protection:"))
	}

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}
	stats, err := entryUseCase.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(io.Writer, "%s %d (%d with secret)\n", labelText("entries:"), stats.TotalCount, stats.WithSecretCount)

	session, err := container.SessionUseCase()
	if err != nil {
		return err
	}
	authenticated, err := session.Authenticated(ctx)
	if err != nil {
		return err
	}
	if authenticated {
		fmt.Fprintf(io.Writer, "%s authenticated\n", labelText("session:"))
	} else {
		fmt.Fprintf(io.Writer, "%s not authenticated\n", labelText("session:"))
	}
	return nil
}

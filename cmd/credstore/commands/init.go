package commands

import (
	"context"
	"fmt"

	"github.com/allisson/credstore/internal/app"
	"github.com/allisson/credstore/internal/keychain"
)

// RunInit prepares a fresh installation: verifies the secure-storage
// facility, creates the database, assigns the installation id, and, when no
// PIN gates it, generates the master key. Running it on an initialized store
// is harmless.
func RunInit(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	if checker, ok := container.Keychain().(keychain.Checker); ok {
		if err := checker.Check(); err != nil {
			return err
		}
	}

	if _, err := container.DB(); err != nil {
		return err
	}

	installationID, err := container.InstallationID()
	if err != nil {
		return err
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
		keys, err := container.KeyManager()
		if err != nil {
			return err
		}
		if _, err := keys.CachedKey(); err != nil {
			return err
		}
	}

	fmt.Fprintln(io.Writer, successText("store ready (installation %s)", installationID))
	return nil
}

package commands

import (
	"context"
	"fmt"

	"github.com/allisson/credstore/internal/app"
)

// RunPinSet configures a PIN for the first time.
func RunPinSet(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	pinUseCase, err := container.PinUseCase()
	if err != nil {
		return err
	}

	pin, err := readPin(io, "new PIN: ")
	if err != nil {
		return err
	}
	confirm, err := readPin(io, "confirm PIN: ")
	if err != nil {
		return err
	}
	if pin != confirm {
		return fmt.Errorf("PINs do not match")
	}

	if err := pinUseCase.Set(ctx, pin); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("PIN set"))
	return nil
}

// RunPinChange replaces the PIN, keeping all stored secrets readable.
func RunPinChange(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	pinUseCase, err := container.PinUseCase()
	if err != nil {
		return err
	}

	oldPin, err := readPin(io, "current PIN: ")
	if err != nil {
		return err
	}
	newPin, err := readPin(io, "new PIN: ")
	if err != nil {
		return err
	}
	confirm, err := readPin(io, "confirm new PIN: ")
	if err != nil {
		return err
	}
	if newPin != confirm {
		return fmt.Errorf("PINs do not match")
	}

	if err := pinUseCase.Change(ctx, oldPin, newPin); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("PIN changed, log in again to continue"))
	return nil
}

// RunPinRemove deletes the PIN, returning the store to open access.
func RunPinRemove(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	pinUseCase, err := container.PinUseCase()
	if err != nil {
		return err
	}

	pin, err := readPin(io, "current PIN: ")
	if err != nil {
		return err
	}
	if err := pinUseCase.Remove(ctx, pin); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, warnText("PIN removed, the store is no longer PIN-protected"))
	return nil
}

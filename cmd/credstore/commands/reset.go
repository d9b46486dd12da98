package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/allisson/credstore/internal/app"
	authDomain "github.com/allisson/credstore/internal/auth/domain"
	"github.com/allisson/credstore/internal/errors"
	"github.com/allisson/credstore/internal/keychain"
	keysDomain "github.com/allisson/credstore/internal/keys/domain"
)

// RunReset destroys the installation: the wrapped master key, the PIN flag,
// the database file, and this shell's session. Every stored secret becomes
// unrecoverable. Requires typing "yes" unless force is set.
func RunReset(ctx context.Context, container *app.Container, io IOTuple, force bool) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	if !force {
		fmt.Fprint(io.Writer, "this destroys every stored secret, type 'yes' to continue: ")
		answer, err := readLine(io.Reader)
		if err != nil || answer != "yes" {
			return fmt.Errorf("reset aborted: confirm with 'yes' or pass --force")
		}
	}

	cfg := container.Config()
	kc := container.Keychain()

	installationID, err := container.InstallationID()
	if err == nil {
		service := keysDomain.RecordService(cfg.KeychainService, installationID)
		if err := kc.Delete(service, keysDomain.MasterKeyAccount); err != nil &&
			!errors.Is(err, keychain.ErrNotFound) {
			return fmt.Errorf("failed to delete master key record: %w", err)
		}
	} else if !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	if err := kc.Delete(cfg.KeychainService, authDomain.PinSetFlagAccount); err != nil &&
		!errors.Is(err, keychain.ErrNotFound) {
		return fmt.Errorf("failed to delete PIN flag: %w", err)
	}

	if err := container.SessionStore().Clear(container.ShellPID()); err != nil {
		return err
	}

	if err := os.Remove(cfg.DatabasePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove database: %w", err)
	}

	fmt.Fprintln(io.Writer, warnText("store reset: all secrets are gone"))
	return nil
}

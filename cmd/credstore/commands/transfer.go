package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/allisson/credstore/internal/app"
)

// RunExport writes all entries with decrypted secrets to path, or stdout
// when path is empty.
func RunExport(ctx context.Context, container *app.Container, io IOTuple, path string) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	var doc []byte
	if err := withSession(ctx, container, io, func(ctx context.Context) error {
		doc, err = entryUseCase.Export(ctx)
		return err
	}); err != nil {
		return err
	}

	if path == "" {
		fmt.Fprintln(io.Writer, string(doc))
		return nil
	}
	if err := os.WriteFile(path, doc, 0o600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintln(io.Writer, warnText("exported plaintext secrets to %s, handle with care", path))
	return nil
}

// RunImport loads entries from an export document at path.
func RunImport(ctx context.Context, container *app.Container, io IOTuple, path string, overwrite bool) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	doc, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	var imported int
	if err := withSession(ctx, container, io, func(ctx context.Context) error {
		imported, err = entryUseCase.Import(ctx, doc, overwrite)
		return err
	}); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("imported %d entr(ies)", imported))
	return nil
}

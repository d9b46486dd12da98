package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/allisson/credstore/internal/app"
	secretsDomain "github.com/allisson/credstore/internal/secrets/domain"
)

// RunAdd creates a new entry. When withSecret is set the secret value is
// prompted for and stored encrypted.
func RunAdd(
	ctx context.Context,
	container *app.Container,
	io IOTuple,
	name string,
	metadataPairs []string,
	tags []string,
	notes string,
	withSecret bool,
) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	metadata, err := parseMetadata(metadataPairs)
	if err != nil {
		return err
	}

	secret := ""
	if withSecret {
		secret, err = readSecret(io, "secret value: ")
		if err != nil {
			return err
		}
		if metadata == nil {
			metadata = map[string]string{"value": secretsDomain.SecretPlaceholder}
		}
	}

	entry := secretsDomain.NewEntry(name, metadata)
	entry.Tags = tags
	entry.Notes = notes

	if err := withSession(ctx, container, io, func(ctx context.Context) error {
		return entryUseCase.Add(ctx, entry, secret)
	}); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("added %q", name))
	return nil
}

// RunGet shows one entry. With reveal set the secret value is decrypted and
// printed.
func RunGet(ctx context.Context, container *app.Container, io IOTuple, name string, reveal bool) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	var entry *secretsDomain.Entry
	var secret string
	if err := withSession(ctx, container, io, func(ctx context.Context) error {
		entry, secret, err = entryUseCase.Get(ctx, name, reveal)
		return err
	}); err != nil {
		return err
	}

	printEntry(io, entry)
	if reveal {
		if secret == "" {
			fmt.Fprintln(io.Writer, warnText("no secret value stored"))
		} else {
			fmt.Fprintf(io.Writer, "%s %s\n", labelText("secret:"), secret)
		}
	}
	return nil
}

// RunList prints all entries.
func RunList(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	entries, err := entryUseCase.List(ctx)
	if err != nil {
		return err
	}
	printEntryList(io, entries)
	return nil
}

// RunSearch prints entries matching the query.
func RunSearch(ctx context.Context, container *app.Container, io IOTuple, query string) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	entries, err := entryUseCase.Search(ctx, query)
	if err != nil {
		return err
	}
	printEntryList(io, entries)
	return nil
}

// RunUpdateSecret replaces the secret value of an existing entry.
func RunUpdateSecret(ctx context.Context, container *app.Container, io IOTuple, name string) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}

	secret, err := readSecret(io, "new secret value: ")
	if err != nil {
		return err
	}

	if err := withSession(ctx, container, io, func(ctx context.Context) error {
		return entryUseCase.UpdateSecret(ctx, name, secret)
	}); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("secret updated for %q", name))
	return nil
}

// RunDelete removes an entry and its secret value.
func RunDelete(ctx context.Context, container *app.Container, io IOTuple, name string) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}
	if err := entryUseCase.Delete(ctx, name); err != nil {
		return err
	}

	fmt.Fprintln(io.Writer, successText("deleted %q", name))
	return nil
}

// RunStats prints entry and secret counts.
func RunStats(ctx context.Context, container *app.Container, io IOTuple) error {
	logger := container.Logger()
	defer closeContainer(container, logger)

	entryUseCase, err := container.EntryUseCase()
	if err != nil {
		return err
	}
	stats, err := entryUseCase.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(io.Writer, "%s %d\n", labelText("entries:"), stats.TotalCount)
	fmt.Fprintf(io.Writer, "%s %d\n", labelText("with secret:"), stats.WithSecretCount)
	return nil
}

func printEntry(io IOTuple, entry *secretsDomain.Entry) {
	fmt.Fprintf(io.Writer, "%s %s\n", labelText("name:"), entry.Name)
	for key, value := range entry.Metadata {
		fmt.Fprintf(io.Writer, "  %s = %s\n", key, value)
	}
	if len(entry.Tags) > 0 {
		fmt.Fprintf(io.Writer, "%s %s\n", labelText("tags:"), strings.Join(entry.Tags, ", "))
	}
	if entry.Notes != "" {
		fmt.Fprintf(io.Writer, "%s %s\n", labelText("notes:"), entry.Notes)
	}
}

func printEntryList(io IOTuple, entries []*secretsDomain.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(io.Writer, "no entries")
		return
	}
	for _, entry := range entries {
		line := entry.Name
		if len(entry.Tags) > 0 {
			line += "  [" + strings.Join(entry.Tags, ", ") + "]"
		}
		fmt.Fprintln(io.Writer, line)
	}
}

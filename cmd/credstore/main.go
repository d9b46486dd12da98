// Package main provides the credstore CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/credstore/cmd/credstore/commands"
	"github.com/allisson/credstore/internal/app"
	"github.com/allisson/credstore/internal/config"
)

const version = "1.0.0"

func newContainer() *app.Container {
	return app.NewContainer(config.Load())
}

func run(fn func(ctx context.Context, container *app.Container, io commands.IOTuple) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return fn(ctx, newContainer(), commands.DefaultIO())
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "credstore",
		Usage:   "local credential store protected by the OS keychain and an optional PIN",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Initialize the store",
				Action: run(commands.RunInit),
			},
			{
				Name:   "status",
				Usage:  "Show store status",
				Action: run(commands.RunStatus),
			},
			{
				Name:  "auth",
				Usage: "Session management",
				Commands: []*cli.Command{
					{
						Name:   "login",
						Usage:  "Open a session for this shell",
						Action: run(commands.RunLogin),
					},
					{
						Name:   "logout",
						Usage:  "Close this shell's session",
						Action: run(commands.RunLogout),
					},
					{
						Name:   "status",
						Usage:  "Show session state",
						Action: run(commands.RunAuthStatus),
					},
					{
						Name:   "cleanup",
						Usage:  "Remove session files left by dead shells",
						Action: run(commands.RunAuthCleanup),
					},
				},
			},
			{
				Name:  "pin",
				Usage: "PIN management",
				Commands: []*cli.Command{
					{
						Name:   "set",
						Usage:  "Configure a PIN",
						Action: run(commands.RunPinSet),
					},
					{
						Name:   "change",
						Usage:  "Change the PIN",
						Action: run(commands.RunPinChange),
					},
					{
						Name:   "remove",
						Usage:  "Remove the PIN",
						Action: run(commands.RunPinRemove),
					},
				},
			},
			{
				Name:      "add",
				Usage:     "Add a new entry",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "metadata as key=value, repeatable",
					},
					&cli.StringSliceFlag{
						Name:    "tag",
						Aliases: []string{"t"},
						Usage:   "tag, repeatable",
					},
					&cli.StringFlag{
						Name:  "notes",
						Usage: "free-form notes",
					},
					&cli.BoolFlag{
						Name:    "secret",
						Aliases: []string{"s"},
						Usage:   "prompt for a secret value",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("entry name is required")
					}
					return commands.RunAdd(
						ctx,
						newContainer(),
						commands.DefaultIO(),
						name,
						cmd.StringSlice("meta"),
						cmd.StringSlice("tag"),
						cmd.String("notes"),
						cmd.Bool("secret"),
					)
				},
			},
			{
				Name:      "get",
				Usage:     "Show an entry",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "reveal",
						Aliases: []string{"r"},
						Usage:   "decrypt and print the secret value",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("entry name is required")
					}
					return commands.RunGet(ctx, newContainer(), commands.DefaultIO(), name, cmd.Bool("reveal"))
				},
			},
			{
				Name:   "list",
				Usage:  "List all entries",
				Action: run(commands.RunList),
			},
			{
				Name:      "search",
				Usage:     "Search entries",
				ArgsUsage: "QUERY",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					query := cmd.Args().First()
					if query == "" {
						return fmt.Errorf("search query is required")
					}
					return commands.RunSearch(ctx, newContainer(), commands.DefaultIO(), query)
				},
			},
			{
				Name:      "update-secret",
				Usage:     "Replace the secret value of an entry",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("entry name is required")
					}
					return commands.RunUpdateSecret(ctx, newContainer(), commands.DefaultIO(), name)
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete an entry and its secret",
				ArgsUsage: "NAME",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					name := cmd.Args().First()
					if name == "" {
						return fmt.Errorf("entry name is required")
					}
					return commands.RunDelete(ctx, newContainer(), commands.DefaultIO(), name)
				},
			},
			{
				Name:  "reset",
				Usage: "Destroy the store: master key, PIN, and all entries",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "skip the confirmation prompt",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunReset(ctx, newContainer(), commands.DefaultIO(), cmd.Bool("force"))
				},
			},
			{
				Name:   "stats",
				Usage:  "Show entry counts",
				Action: run(commands.RunStats),
			},
			{
				Name:  "export",
				Usage: "Export all entries with plaintext secrets",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "write to file instead of stdout",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunExport(ctx, newContainer(), commands.DefaultIO(), cmd.String("output"))
				},
			},
			{
				Name:      "import",
				Usage:     "Import entries from an export document",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "replace entries that already exist",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					path := cmd.Args().First()
					if path == "" {
						return fmt.Errorf("import file is required")
					}
					return commands.RunImport(ctx, newContainer(), commands.DefaultIO(), path, cmd.Bool("overwrite"))
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

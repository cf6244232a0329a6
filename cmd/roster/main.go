// Package main is the terminal client of the onboarding wizard.
package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	command := &cli.Command{
		Name:                  "roster",
		Usage:                 "Onboard employees from the terminal",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file",
				Sources: cli.EnvVars("ROSTER_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Base URL of the employee backend",
				Sources: cli.EnvVars("ROSTER_BACKEND_URL", "BACKEND_URL"),
			},
			&cli.StringFlag{
				Name:    "api-token",
				Usage:   "Bearer token sent to the employee backend",
				Sources: cli.EnvVars("API_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "draft-url",
				Usage:   "Draft storage: a directory, file://<dir> or redis://...",
				Sources: cli.EnvVars("ROSTER_DRAFT_URL", "DRAFT_URL"),
			},
			&cli.StringFlag{
				Name:    "namespace",
				Aliases: []string{"n"},
				Usage:   "Draft namespace, one per concurrent onboarding",
				Sources: cli.EnvVars("ROSTER_DRAFT_NAMESPACE"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Write logs to this file instead of discarding them",
				Sources: cli.EnvVars("ROSTER_LOG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:    "onboard",
				Aliases: []string{"o"},
				Usage:   "Run the onboarding wizard, resuming the saved draft",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "employee",
						Aliases: []string{"e"},
						Usage:   "Edit an existing employee instead of creating one",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					env, err := setup(command)
					if err != nil {
						return err
					}
					defer env.Close()

					return runOnboard(ctx, env, command.String("employee"))
				},
			},
			{
				Name:  "draft",
				Usage: "Inspect or discard the saved draft",
				Commands: []*cli.Command{
					{
						Name:  "show",
						Usage: "Print the saved draft as JSON",
						Action: func(ctx context.Context, command *cli.Command) error {
							env, err := setup(command)
							if err != nil {
								return err
							}
							defer env.Close()

							return showDraft(ctx, env.store, command.Root().Writer)
						},
					},
					{
						Name:  "clear",
						Usage: "Discard the saved draft",
						Action: func(ctx context.Context, command *cli.Command) error {
							env, err := setup(command)
							if err != nil {
								return err
							}
							defer env.Close()

							return clearDraft(ctx, env.store, command.Root().Writer)
						},
					},
				},
			},
			{
				Name:  "employee",
				Usage: "Manage employees on the backend",
				Commands: []*cli.Command{
					{
						Name:      "delete",
						Usage:     "Delete an employee and any draft editing it",
						ArgsUsage: "<employee-id>",
						Action: func(ctx context.Context, command *cli.Command) error {
							id := command.Args().First()
							if id == "" {
								return cli.Exit("an employee id is required", 1)
							}

							env, err := setup(command)
							if err != nil {
								return err
							}
							defer env.Close()

							return deleteEmployee(ctx, env.gateway, env.store, id, command.Root().Writer)
						},
					},
				},
			},
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/anilrana004/Workline/pkg/cmd"
	"github.com/anilrana004/Workline/pkg/log"
	"github.com/anilrana004/Workline/pkg/triggers/queue"
	"github.com/anilrana004/Workline/pkg/workflow"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "workline-api",
		Usage:                 "Manage approval workflows and trigger workflow actions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "queue-url",
				Usage:   "Redis address for the queue trigger; empty disables it",
				Sources: cli.EnvVars("QUEUE_URL"),
			},
			&cli.StringFlag{
				Name:    "queue-name",
				Usage:   "Redis list the queue trigger consumes",
				Value:   "workline_triggers",
				Sources: cli.EnvVars("QUEUE_NAME"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Workline API")

			persistence := cmd.NewPersistence(command.String("database-url"))

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			api := NewAPI(logger, persistence, eventBus)

			if queueURL := command.String("queue-url"); queueURL != "" {
				trigger, err := queue.NewTrigger(ctx, map[string]any{
					"queue": command.String("queue-name"),
					"connection": map[string]any{
						"addr": queueURL,
					},
				}, logger)
				if err != nil {
					return err
				}

				err = trigger.Start(ctx, func(ctx context.Context, input workflow.TriggerInput) error {
					_, err := api.Engine().TriggerAction(ctx, input)

					return err
				})
				if err != nil {
					return err
				}

				defer func() {
					if err := trigger.Stop(ctx); err != nil {
						logger.ErrorContext(ctx, "Failed to stop queue trigger", "error", err)
					}
				}()
			}

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("API server exited with error", "error", err)
		os.Exit(1)
	}
}

// Package main provides the Workline escalator, a scheduled sweep that
// applies SLA escalation actions to overdue workflow steps.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/anilrana004/Workline/pkg/cmd"
	"github.com/anilrana004/Workline/pkg/log"
	"github.com/anilrana004/Workline/pkg/notification"
	"github.com/anilrana004/Workline/pkg/workflow"
)

func main() {
	logger := log.WithModule("escalator")

	command := &cli.Command{
		Name:                  "workline-escalator",
		Usage:                 "Periodically escalate workflow steps past their SLA",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the overdue sweep",
				Value:   "0 * * * *",
				Sources: cli.EnvVars("ESCALATION_SCHEDULE"),
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

			logger.InfoContext(ctx, "Initializing Workline escalator")

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

			dispatcher := notification.NewEventBusDispatcher(eventBus, logger)
			engine := workflow.NewEngine(persistence, dispatcher, logger)

			sweep := func() {
				results, err := engine.EscalateOverdue(ctx)
				if err != nil {
					logger.ErrorContext(ctx, "Escalation sweep failed", "error", err)

					return
				}

				escalated := 0

				for _, result := range results {
					if !result.Skipped {
						escalated++
					}
				}

				logger.InfoContext(ctx, "Escalation sweep finished",
					"overdue", len(results), "escalated", escalated)
			}

			scheduler := cron.New()

			if _, err := scheduler.AddFunc(command.String("schedule"), sweep); err != nil {
				return err
			}

			// One sweep at startup so a restart never delays escalations a
			// full schedule interval.
			sweep()

			scheduler.Start()
			defer scheduler.Stop()

			logger.InfoContext(ctx, "Escalator started", "schedule", command.String("schedule"))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Escalator shutting down")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Escalator exited with error", "error", err)
		os.Exit(1)
	}
}

// Package main provides the Workline notifier, the event bus consumer
// that renders and delivers workflow notifications.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"

	"github.com/anilrana004/Workline/pkg/cmd"
	"github.com/anilrana004/Workline/pkg/events"
	"github.com/anilrana004/Workline/pkg/log"
	"github.com/anilrana004/Workline/pkg/notification"
	"github.com/anilrana004/Workline/pkg/otelhelper"
)

func main() {
	logger := log.WithModule("notifier")

	command := &cli.Command{
		Name:                  "workline-notifier",
		Usage:                 "Deliver workflow notifications from the event bus",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus transport (gochannel, kafka)",
				Value:   "kafka",
				Sources: cli.EnvVars("EVENT_BUS"),
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

			logger.InfoContext(ctx, "Initializing Workline notifier")

			tracer, err := otelhelper.NewTracer(ctx, "workline-notifier")
			if err != nil {
				return err
			}

			eventBus := cmd.NewEventBus(command.String("event-bus"), logger)
			defer func() {
				if err := eventBus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			sender := notification.NewLogSender(logger)

			handle := func(ctx context.Context, event any) error {
				message, ok := notification.Render(event)
				if !ok {
					return nil
				}

				spanCtx, span := otelhelper.StartSpan(ctx, tracer, "notifier.send",
					attribute.String(otelhelper.EventTypeKey, eventTypeOf(event)))
				defer span.End()

				if err := sender.Send(spanCtx, message); err != nil {
					otelhelper.SetError(span, err)

					return err
				}

				return nil
			}

			for _, eventType := range []events.EventType{
				events.WorkflowStartedEvent,
				events.StepAssignedEvent,
				events.WorkflowCompletedEvent,
				events.SLAEscalatedEvent,
			} {
				if err := eventBus.Handle(eventType, handle); err != nil {
					return err
				}
			}

			if err := eventBus.Subscribe(ctx); err != nil {
				return err
			}

			logger.InfoContext(ctx, "Notifier started")

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
			<-stop

			logger.InfoContext(ctx, "Notifier shutting down")

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Notifier exited with error", "error", err)
		os.Exit(1)
	}
}

func eventTypeOf(event any) string {
	if typed, ok := event.(interface{ GetType() events.EventType }); ok {
		return string(typed.GetType())
	}

	return "unknown"
}

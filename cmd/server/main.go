// Blueprint — compile-time API pipeline code generator.
//
// This is the demo host: it declares a handful of operations exercising
// the framework end to end (an operation with no validation, one with a
// required property, and a polymorphic-dispatch pair), builds their
// generated executors, compiles them, and serves them over HTTP.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blueprintapi/blueprint/internal/catalogbuilder"
	"github.com/blueprintapi/blueprint/internal/container"
	"github.com/blueprintapi/blueprint/internal/pipeline"
	"github.com/blueprintapi/blueprint/internal/taskretry"
	"github.com/blueprintapi/blueprint/pkg/host"
)

// ── Demo operations ───────────────────────────────────────────

// PingOperation has no properties and no validation — the "empty
// operation" shape: one handler, a constant result, nothing else.
type PingOperation struct{}

// CreateWidgetOperation requires Email, exercising the Validation stage's
// failure path when it's left blank.
type CreateWidgetOperation struct {
	Email string `json:"email"`
}

// NotificationOperation and EmailNotification demonstrate polymorphic
// dispatch: a handler bound to the base type runs for every concrete
// notification, and EmailNotification additionally gets its own handler.
type NotificationOperation struct {
	Message string `json:"message"`
}

type EmailNotification struct {
	NotificationOperation
	To string `json:"to"`
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	log.Info().Msg("blueprint: starting")

	cfg := host.LoadConfig()
	resolver := container.New()
	logger := host.NewZerologErrorLogger()
	router := host.NewChiRouterAdapter()

	h := host.New(resolver, router, nil, nil, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := h.Build(ctx, cfg, demoOperations()); err != nil {
		log.Fatal().Err(err).Msg("blueprint: failed to build operation assembly")
	}

	runBackgroundSweep(logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("blueprint: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = h.Shutdown(shutdownCtx)
	}()

	log.Info().Int("port", cfg.Port).Msg("blueprint: ready")

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("blueprint: server failed")
	}
}

func demoOperations() []host.OperationDefinition {
	return []host.OperationDefinition{
		{
			Spec: catalogbuilder.OperationSpec{
				Name:                "Ping",
				PayloadType:         reflect.TypeOf(PingOperation{}),
				RequiresReturnValue: true,
				Links:               []string{"/ping"},
			},
			Handlers: []host.HandlerDefinition{
				{AcceptedType: reflect.TypeOf(PingOperation{}), Handle: func(ctx context.Context, payload any) (any, error) {
					return "pong", nil
				}},
			},
			ReturnType: reflect.TypeOf(""),
		},
		{
			Spec: catalogbuilder.OperationSpec{
				Name:                "CreateWidget",
				PayloadType:         reflect.TypeOf(CreateWidgetOperation{}),
				RequiresReturnValue: true,
				Links:               []string{"/widgets"},
			},
			Handlers: []host.HandlerDefinition{
				{AcceptedType: reflect.TypeOf(CreateWidgetOperation{}), Handle: func(ctx context.Context, payload any) (any, error) {
					req := payload.(CreateWidgetOperation)
					return "widget-for-" + req.Email, nil
				}},
			},
			ReturnType: reflect.TypeOf(""),
			ValidationRules: []pipeline.Rule{
				{Property: "Email", Attribute: pipeline.Required{}},
			},
		},
		{
			Spec: catalogbuilder.OperationSpec{
				Name:        "EmailNotification",
				PayloadType: reflect.TypeOf(EmailNotification{}),
				Links:       []string{"/notifications/email"},
			},
			Handlers: []host.HandlerDefinition{
				{AcceptedType: reflect.TypeOf(NotificationOperation{}), Handle: func(ctx context.Context, payload any) (any, error) {
					log.Info().Msg("blueprint: base notification handler fired")
					return nil, nil
				}},
				{AcceptedType: reflect.TypeOf(EmailNotification{}), Handle: func(ctx context.Context, payload any) (any, error) {
					req := payload.(EmailNotification)
					log.Info().Str("to", req.To).Msg("blueprint: email notification handler fired")
					return nil, nil
				}},
			},
		},
	}
}

// runBackgroundSweep demonstrates internal/taskretry: a flaky sweep that
// fails its first two attempts and only logs once exhausted, the same
// goroutine+backoff shape the teacher's retention janitor runs on a
// ticker.
func runBackgroundSweep(logger host.ZerologErrorLogger) {
	attempt := 0
	runner := taskretry.NewRunner("demo-sweep", 3, logger)
	go func() {
		err := runner.Run(context.Background(), func(ctx context.Context) error {
			attempt++
			if attempt < 3 {
				return fmt.Errorf("sweep attempt %d failed", attempt)
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).Msg("blueprint: demo sweep did not recover")
		}
	}()
}

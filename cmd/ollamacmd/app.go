package main

import (
	"github.com/kbukum/ollamacmd/bootstrap"
	"github.com/kbukum/ollamacmd/command"
	"github.com/kbukum/ollamacmd/dispatch"
	"github.com/kbukum/ollamacmd/feedback"
	"github.com/kbukum/ollamacmd/models"
	"github.com/kbukum/ollamacmd/observability"
	"github.com/kbukum/ollamacmd/process"
)

// runtime is the wired application shared by every sub-command.
type runtime struct {
	app        *bootstrap.App[*AppConfig]
	handler    *command.Handler
	translator *feedback.Translator
}

// componentLoggers are the logger.Get names the packages fall back to when
// they are built without a logger.
var componentLoggers = []string{"process", "dispatch", "command", "bridge", "sse"}

// newRuntime builds the app and registers telemetry and the dispatcher.
// Callers add their own components before running it.
func newRuntime(cfg *AppConfig, opts ...bootstrap.Option) (*runtime, error) {
	opts = append([]bootstrap.Option{bootstrap.WithComponentLoggers(componentLoggers...)}, opts...)
	app, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	tr, err := feedback.NewTranslator(cfg.Locale)
	if err != nil {
		return nil, err
	}

	telemetry, err := observability.NewTelemetry(observability.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, cfg.Observability, app.Logger)
	if err != nil {
		return nil, err
	}
	dispatcher := dispatch.New(cfg.Dispatch, nil)

	if err := app.RegisterComponent(telemetry); err != nil {
		return nil, err
	}
	if err := app.RegisterComponent(dispatcher); err != nil {
		return nil, err
	}

	handler := command.NewHandler(command.Deps{
		Runner:   process.NewRunner(cfg.Ollama, nil),
		Registry: models.NewRegistry(),
		Queue:    dispatcher,
		Metrics:  telemetry.Metrics(),
	})

	return &runtime{app: app, handler: handler, translator: tr}, nil
}

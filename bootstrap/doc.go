// Package bootstrap runs an ollamacmd entry point: it initializes logging
// from the typed config, starts the registered components in order, runs the
// lifecycle hooks and stops everything again on exit.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(dispatcher)
//	app.RegisterComponent(server)
//	err = app.Run(ctx) // blocks until SIGINT/SIGTERM
//
// Finite work such as the console or a one-shot command uses RunTask.
package bootstrap

// Package bootstrap orchestrates the application lifecycle.
//
// It validates the typed configuration, initializes the logger, starts the
// registered components in order, runs startup hooks, prints a summary and
// stops everything in reverse on SIGINT/SIGTERM.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(storageComponent)
//	app.RegisterComponent(schedulerComponent)
//	if err := app.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package bootstrap

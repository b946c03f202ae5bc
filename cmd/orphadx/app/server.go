// Package app provides the diagnosis server application.
package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/orphadx-io/orphadx/cmd/orphadx/app/options"
	"github.com/orphadx-io/orphadx/internal/diagnosis"
	"github.com/orphadx-io/orphadx/pkg/app"
)

const commandDesc = `The orphadx server ingests a rare disease nomenclature
document into a vector index and answers free-text symptom queries with
candidate diagnoses backed by retrieved evidence.`

// NewApp creates the orphadx application.
func NewApp() *app.App {
	opts := options.NewServerOptions()

	return app.NewApp(
		app.WithName(diagnosis.Name),
		app.WithShortDescription("Rare disease diagnosis assistant server"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *options.ServerOptions) app.RunFunc {
	return func() error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := opts.Config()
		if err != nil {
			return err
		}

		srv, err := cfg.NewServer(ctx)
		if err != nil {
			return err
		}

		return srv.Run(ctx)
	}
}

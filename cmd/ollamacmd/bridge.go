package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/ollamacmd/bootstrap"
	"github.com/kbukum/ollamacmd/bridge"
	"github.com/kbukum/ollamacmd/logger"
	"github.com/kbukum/ollamacmd/server"
	"github.com/kbukum/ollamacmd/sse"
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Serve /ollama commands over HTTP with an SSE feedback stream",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd, "")
		if err != nil {
			return err
		}
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			if err := cfg.Bridge.SetAddr(v); err != nil {
				return err
			}
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		rt, err := newBridgeRuntime(cfg, bootstrap.WithSummary(os.Stderr))
		if err != nil {
			return err
		}
		return rt.app.Run(ctx)
	},
}

func init() {
	bridgeCmd.Flags().String("addr", "", "listen address host:port (overrides bridge.host and bridge.port)")
	rootCmd.AddCommand(bridgeCmd)
}

// newBridgeRuntime adds the SSE hub and the HTTP server to the base runtime.
// The server starts last so no request arrives before the hub runs.
func newBridgeRuntime(cfg *AppConfig, opts ...bootstrap.Option) (*runtime, error) {
	rt, err := newRuntime(cfg, opts...)
	if err != nil {
		return nil, err
	}
	app := rt.app

	hub := sse.NewComponent(nil)
	if err := app.RegisterComponent(hub); err != nil {
		return nil, err
	}

	srv := server.New(cfg.Bridge.Config, app.Logger)
	srv.ApplyMiddleware()

	b, err := bridge.New(cfg.Bridge, bridge.Deps{
		Handler:    rt.handler,
		Hub:        hub.Hub(),
		Translator: rt.translator,
		Health:     app.Components.HealthAll,
		Service:    app.Name,
		Version:    app.Version,
	})
	if err != nil {
		return nil, err
	}
	b.Register(srv.Engine())

	if err := app.RegisterComponent(server.NewComponent(srv)); err != nil {
		return nil, err
	}
	app.OnReady(func(context.Context) error {
		app.Logger.Info("bridge listening", logger.Fields("addr", srv.Addr()))
		return nil
	})
	// Components stop in reverse, so the server would otherwise wait on
	// open event streams until its shutdown deadline.
	app.OnStop(func(context.Context) error {
		hub.Hub().Stop()
		return nil
	})
	return rt, nil
}

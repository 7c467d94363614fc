package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bufetemejia/counsel"
	httpAdapter "github.com/bufetemejia/counsel/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the conversation orchestrator in server mode, exposing the turn, history and conversation endpoints over HTTP.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			fmt.Printf("Invalid config: %v\n", err)
			os.Exit(1)
		}

		app := counsel.New(cfg)
		defer app.Close()

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithRegistry(app.Registry),
			httpAdapter.WithServerLogger(app.Logger),
			httpAdapter.WithWatcher(app.Watcher),
		}
		if app.Provisioner != nil {
			handlerOpts = append(handlerOpts, httpAdapter.WithProvisioner(app.Provisioner))
		}
		handler := httpAdapter.NewHandler(app.Orchestrator, handlerOpts...)

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: handler,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			app.Logger.Info("counsel server listening", "addr", srv.Addr, "store", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			app.Logger.Info("shutdown started", "signal", sig.String())

			// Give outstanding turns a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					app.Logger.Error("error killing server", "err", err)
				}
			}
			app.Logger.Info("counsel server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

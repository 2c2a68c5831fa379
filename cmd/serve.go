package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/greut/picture/server"
	"github.com/greut/picture/source"
	"github.com/spf13/cobra"
)

// loadConfig reads the configuration file. A missing default file means the
// built-in configuration.
func loadConfig(cmd *cobra.Command) (*server.Config, error) {
	filename, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(filename); err != nil && !cmd.Flags().Changed("config") {
		log.FromContext(cmd.Context()).Debug("no configuration file, using defaults", "file", filename)
		return server.ParseConfig(nil, ".toml")
	}

	log.FromContext(cmd.Context()).Info("reading configuration", "file", filename)
	return server.LoadConfig(filename)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the resolved pictures over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.FromContext(cmd.Context())

			config, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("verbose") && config.LogLevel != "" {
				level, err := log.ParseLevel(config.LogLevel)
				if err != nil {
					return err
				}
				logger.SetLevel(level)
			}

			provider, err := source.NewProviderFromConfig(config.Images)
			if err != nil {
				return err
			}

			// The first peer is this server.
			peers := append([]string{fmt.Sprintf("http://%s", config.Listen())}, config.Peers...)
			srv := &http.Server{
				Addr:              config.Listen(),
				Handler:           server.NewHandler(config, provider, logger, peers...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errs := make(chan error, 1)
			go func() {
				logger.Info("server running", "listen", config.Listen(), "provider", config.Images.Provider, "peers", len(peers))
				errs <- srv.ListenAndServe()
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdown); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

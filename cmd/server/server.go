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

	"github.com/spf13/cobra"

	"github.com/marben/mandel_viewport/internal/config"
	"github.com/marben/mandel_viewport/internal/logging"
	"github.com/marben/mandel_viewport/render"
)

// main is the entry point for the render server.
// It serves the static page with the wasm client, the render endpoint and the render event feed.
func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		staticDir  string
		logFile    string
		debug      bool
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the mandelbrot viewport page and its render endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, os.Environ())
			if err != nil {
				return err
			}
			// flags take precedence over file and environment
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("static") {
				cfg.StaticDir = staticDir
			}
			if flags.Changed("log-file") {
				cfg.LogFile = logFile
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file, reloaded on change")
	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "Address to listen on")
	cmd.Flags().StringVar(&staticDir, "static", "./static", "Directory with index.html and main.wasm")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Mirror log output into this file")
	cmd.Flags().BoolVar(&debug, "debug", false, "Print debug messages")

	return cmd
}

func run(ctx context.Context, cfg config.Config, configPath string) error {
	if err := logging.Configure(cfg.LogFile, cfg.Debug); err != nil {
		return err
	}
	log := logging.New("Server")

	mandel := render.NewMandelbrot(cfg.Render)
	feed := render.NewFeed(logging.New("Feed"))
	srv := webServer(cfg, mandel, feed, logging.New("Render"))

	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, os.Environ(), func(c config.Config) {
				mandel.SetSettings(c.Render)
				log.Info(fmt.Sprintf("render settings reloaded: %dx%d, %d iterations", c.Render.Width, c.Render.Height, c.Render.MaxIterations))
			}, func(err error) {
				log.Warning(fmt.Sprintf("config reload: %v", err))
			})
			if err != nil {
				log.Error(fmt.Sprintf("config watch: %v", err))
			}
		}()
	}

	errc := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("listening on %s, serving %s", cfg.Addr, cfg.StaticDir))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("httpServer: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpServer: %w", err)
	}
	return nil
}

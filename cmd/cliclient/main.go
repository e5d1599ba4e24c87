// cliclient is a terminal client for the mandelbrot viewport.
// It drives the same viewport controller as the web page, keeping rendered images as files.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	viewport "github.com/marben/mandel_viewport"
	"github.com/marben/mandel_viewport/internal/logging"
	"github.com/marben/mandel_viewport/render"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		endpoint string
		keep     string
		debug    bool
	)

	cmd := &cobra.Command{
		Use:   "cliclient",
		Short: "Navigate the mandelbrot set from the terminal",
		Long: `cliclient pans and zooms a view of the mandelbrot set. Every move asks
the render server for a new image, which is kept as a temporary file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			surface, err := newFileSurface()
			if err != nil {
				return err
			}
			defer surface.Close()

			logger := &statusLogger{debug: debug}
			c := viewport.New(surface, render.NewClient(endpoint),
				viewport.WithLogger(logger),
				viewport.WithOnRender(func(res viewport.RenderResult) { logger.forward(renderMsg(res)) }),
			)
			defer c.Close()

			return runTUI(c, surface, logger, keep)
		},
	}

	cmd.PersistentFlags().StringVarP(&endpoint, "endpoint", "e", "http://localhost:8080/api/render", "Render endpoint")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show debug messages")
	cmd.Flags().StringVar(&keep, "keep", "", "Copy the last rendered image here on exit")

	cmd.AddCommand(newRenderCommand(&endpoint, &debug))
	cmd.AddCommand(newWatchCommand(&debug))
	return cmd
}

// newRenderCommand renders one view and saves it, to mandel.png by default.
func newRenderCommand(endpoint *string, debug *bool) *cobra.Command {
	var (
		x, y, w float64
		out     string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a single view into a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Configure("", *debug); err != nil {
				return err
			}
			log := logging.New("CliClient")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return renderOnce(ctx, render.NewClient(*endpoint), log, viewport.View{X: x, Y: y, W: w}, out)
		},
	}

	cmd.Flags().Float64Var(&x, "x", viewport.Default.X, "Center real part")
	cmd.Flags().Float64Var(&y, "y", viewport.Default.Y, "Center imaginary part")
	cmd.Flags().Float64Var(&w, "w", viewport.Default.W, "Window length")
	cmd.Flags().StringVarP(&out, "output", "o", "mandel.png", "Output file")
	return cmd
}

func renderOnce(ctx context.Context, renderer viewport.Renderer, log *logging.Logger, v viewport.View, out string) error {
	surface, err := newFileSurface()
	if err != nil {
		return err
	}
	defer surface.Close()

	var result viewport.RenderResult
	c := viewport.New(surface, renderer,
		viewport.WithLogger(log),
		viewport.WithContext(ctx),
		viewport.WithOnRender(func(res viewport.RenderResult) { result = res }),
	)
	defer c.Close()

	log.Info(fmt.Sprintf("requesting %s", v))
	c.Jump(v)
	c.Wait()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("render %s: %w", v, err)
	}
	if result.Err != nil {
		return fmt.Errorf("render %s: %w", v, result.Err)
	}

	if err := surface.Save(out); err != nil {
		return err
	}
	log.Info(fmt.Sprintf("image saved to %q", out))
	return nil
}

func newWatchCommand(debug *bool) *cobra.Command {
	var (
		feed    string
		logFile string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print every render the server reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logging.Configure(logFile, *debug); err != nil {
				return err
			}
			log := logging.New("Feed")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info(fmt.Sprintf("watching %s", feed))
			return render.Watch(ctx, feed, func(ev render.Event) {
				if ev.Error != "" {
					log.Warning(describeEvent(ev))
					return
				}
				log.Info(describeEvent(ev))
			})
		},
	}

	cmd.Flags().StringVar(&feed, "feed", "ws://localhost:8080/ws", "Render feed address")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Mirror log output into this file")
	return cmd
}

func describeEvent(ev render.Event) string {
	s := fmt.Sprintf("#%d %s x=%g y=%g w=%g %dx%d %d bytes in %dms",
		ev.Seq, ev.Time.Format("15:04:05"), ev.X, ev.Y, ev.W, ev.Width, ev.Height, ev.Bytes, ev.ElapsedMS)
	if ev.Error != "" {
		s += ": " + ev.Error
	}
	return s
}

package main

import (
	"net/http"
	"time"

	"github.com/marben/mandel_viewport/internal/config"
	"github.com/marben/mandel_viewport/internal/logging"
	"github.com/marben/mandel_viewport/render"
)

// webServer creates a server serving files in cfg.StaticDir,
// the render endpoint at /api/render and the render event feed at /ws.
func webServer(cfg config.Config, mandel *render.Mandelbrot, feed *render.Feed, log *logging.Logger) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(cfg.StaticDir, mandel, feed, log),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newMux(staticDir string, mandel *render.Mandelbrot, feed *render.Feed, log *logging.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/render", render.NewHandler(mandel, feed, log))
	mux.Handle("/ws", feed)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	return mux
}

package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"math"
	"net/http"
	"strconv"
	"time"

	viewport "github.com/marben/mandel_viewport"
	"github.com/marben/mandel_viewport/internal/logging"
)

var ErrBadParam = errors.New("bad parameter")

// Handler serves POST render requests with a PNG of the requested view.
type Handler struct {
	renderer *Mandelbrot
	feed     *Feed
	log      *logging.Logger
}

// NewHandler returns a handler rendering with m. feed may be nil.
func NewHandler(m *Mandelbrot, feed *Feed, log *logging.Logger) *Handler {
	return &Handler{renderer: m, feed: feed, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	v, err := parseView(r)
	if err != nil {
		h.log.Warning(fmt.Sprintf("rejecting render request from %s: %v", r.RemoteAddr, err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	img, err := h.renderer.Render(r.Context(), v)
	if err != nil {
		h.publish(v, 0, start, err)
		if r.Context().Err() != nil {
			h.log.Debug(fmt.Sprintf("render %s abandoned by client", v))
			return
		}
		h.log.Error(fmt.Sprintf("render %s: %v", v, err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		h.log.Error(fmt.Sprintf("encode %s: %v", v, err))
		http.Error(w, "encode failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Debug(fmt.Sprintf("write %s: %v", v, err))
	}

	h.log.Info(fmt.Sprintf("rendered %s in %s (%d bytes)", v, time.Since(start).Round(time.Millisecond), buf.Len()))
	h.publish(v, buf.Len(), start, nil)
}

func (h *Handler) publish(v viewport.View, n int, start time.Time, err error) {
	if h.feed == nil {
		return
	}
	s := h.renderer.Settings()
	ev := Event{
		X:         v.X,
		Y:         v.Y,
		W:         v.W,
		Width:     s.Width,
		Height:    s.Height,
		Bytes:     n,
		ElapsedMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	h.feed.Publish(ev)
}

func parseView(r *http.Request) (viewport.View, error) {
	if err := r.ParseMultipartForm(1 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return viewport.View{}, fmt.Errorf("parse form: %w", ErrBadParam)
	}

	var v viewport.View
	for _, p := range []struct {
		key string
		dst *float64
	}{{"x", &v.X}, {"y", &v.Y}, {"w", &v.W}} {
		raw := r.PostFormValue(p.key)
		if raw == "" {
			return v, fmt.Errorf("missing %q: %w", p.key, ErrBadParam)
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return v, fmt.Errorf("%q is not a finite number (%q): %w", p.key, raw, ErrBadParam)
		}
		*p.dst = f
	}
	if v.W <= 0 {
		return v, fmt.Errorf("window length must be positive (got %v): %w", v.W, ErrBadParam)
	}
	return v, nil
}

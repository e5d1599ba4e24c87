package viewport

import (
	"context"
	"fmt"
	"sync"
)

// DefaultAlt is the accessible description set on every rendered image.
const DefaultAlt = "Render of the mandelbrot set"

// RenderResult describes the outcome of one render request.
type RenderResult struct {
	Gen     uint64
	Payload Payload
	Bytes   int
	Err     error
	// Stale is set when a newer request was issued before this one completed.
	// Stale results never touch the image.
	Stale bool
}

// Controller owns navigation of a Surface.
// Every action reads the fields, computes the next View, writes it back and
// issues a render request. Only the response to the latest request may
// replace the displayed image.
type Controller struct {
	surface  Surface
	renderer Renderer
	log      Logger
	alt      string
	onRender func(RenderResult)

	base    context.Context
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	current ImageHandle
	closed  bool
	wg      sync.WaitGroup
	pending []func() // log lines queued under mu, emitted by unlock
}

type Option func(*Controller)

func WithLogger(l Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithAlt(alt string) Option {
	return func(c *Controller) { c.alt = alt }
}

// WithContext makes every render request derive from ctx, so cancelling ctx
// aborts the outstanding request.
func WithContext(ctx context.Context) Option {
	return func(c *Controller) { c.base = ctx }
}

// WithOnRender registers fn to be called after every render completes,
// outside the controller's lock.
func WithOnRender(fn func(RenderResult)) Option {
	return func(c *Controller) { c.onRender = fn }
}

func New(surface Surface, renderer Renderer, opts ...Option) *Controller {
	c := &Controller{
		surface:  surface,
		renderer: renderer,
		log:      nopLogger{},
		alt:      DefaultAlt,
		base:     context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// View returns the view currently held by the fields.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return readView(c.surface)
}

// Move pans the view by a quarter of the window length.
func (c *Controller) Move(d Direction) error {
	c.mu.Lock()
	defer c.unlock()

	v, err := readView(c.surface).Moved(d)
	if err != nil {
		return err
	}
	c.surface.SetFieldValue(FieldX, FormatNumber(v.X))
	c.surface.SetFieldValue(FieldY, FormatNumber(v.Y))
	c.startRender()
	return nil
}

// MoveToken is Move for the page's "left", "right", "up" and "down" tokens.
func (c *Controller) MoveToken(token string) error {
	d, err := ParseDirection(token)
	if err != nil {
		return err
	}
	return c.Move(d)
}

// Zoom scales the window length, keeping the center.
func (c *Controller) Zoom(d ZoomDirection) error {
	c.mu.Lock()
	defer c.unlock()

	v, err := readView(c.surface).Zoomed(d)
	if err != nil {
		return err
	}
	c.surface.SetFieldValue(FieldW, FormatNumber(v.W))
	c.startRender()
	return nil
}

// ZoomToken is Zoom for the page's "in" and "out" tokens.
func (c *Controller) ZoomToken(token string) error {
	d, err := ParseZoomDirection(token)
	if err != nil {
		return err
	}
	return c.Zoom(d)
}

// Reset restores Default and renders it.
func (c *Controller) Reset() {
	c.Jump(Default)
}

// Jump replaces the whole view with v and renders it.
func (c *Controller) Jump(v View) {
	c.mu.Lock()
	defer c.unlock()

	c.surface.SetFieldValue(FieldX, FormatNumber(v.X))
	c.surface.SetFieldValue(FieldY, FormatNumber(v.Y))
	c.surface.SetFieldValue(FieldW, FormatNumber(v.W))
	c.startRender()
}

// Wait blocks until every render started so far has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the outstanding request, waits for it and releases the
// displayed image handle. Actions after Close still update the fields but
// no longer render.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != "" {
		c.surface.Release(c.current)
		c.current = ""
	}
}

// unlock releases c.mu and then emits the log lines queued while it was held.
// Loggers may block or call back into the controller.
func (c *Controller) unlock() {
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, emit := range pending {
		emit()
	}
}

func (c *Controller) queue(log func(string), msg string) {
	c.pending = append(c.pending, func() { log(msg) })
}

// startRender must be called with c.mu held, after the fields are written.
func (c *Controller) startRender() {
	p := readPayload(c.surface)
	if c.closed {
		c.queue(c.log.Debug, fmt.Sprintf("controller closed, not rendering x=%s y=%s w=%s", p.X, p.Y, p.W))
		return
	}

	c.gen++
	gen := c.gen
	if c.cancel != nil {
		// superseded; its response would be discarded anyway
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.base)
	c.cancel = cancel

	c.queue(c.log.Debug, fmt.Sprintf("render #%d requested: x=%s y=%s w=%s", gen, p.X, p.Y, p.W))

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()

		data, contentType, err := c.renderer.Render(ctx, p)
		c.finish(RenderResult{Gen: gen, Payload: p, Bytes: len(data), Err: err}, data, contentType)
	}()
}

func (c *Controller) finish(res RenderResult, data []byte, contentType string) {
	c.mu.Lock()
	res.Stale = res.Gen != c.gen
	switch {
	case res.Stale:
		c.queue(c.log.Debug, fmt.Sprintf("render #%d superseded by #%d, dropped", res.Gen, c.gen))
	case res.Err != nil:
		c.queue(c.log.Error, fmt.Sprintf("render #%d failed: %v", res.Gen, res.Err))
	default:
		if err := c.show(data, contentType); err != nil {
			res.Err = err
			c.queue(c.log.Error, fmt.Sprintf("render #%d: %v", res.Gen, err))
		}
	}
	c.unlock()

	if c.onRender != nil {
		c.onRender(res)
	}
}

func (c *Controller) show(data []byte, contentType string) error {
	h, err := c.surface.CreateImage(data, contentType)
	if err != nil {
		return fmt.Errorf("create image: %w", err)
	}
	prev := c.current
	c.surface.SetImage(h, c.alt)
	c.current = h
	if prev != "" && prev != h {
		c.surface.Release(prev)
	}
	return nil
}

type nopLogger struct{}

func (nopLogger) Error(string)   {}
func (nopLogger) Warning(string) {}
func (nopLogger) Info(string)    {}
func (nopLogger) Debug(string)   {}

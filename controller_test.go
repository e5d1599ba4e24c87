package viewport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeSurface struct {
	mu       sync.Mutex
	fields   map[Field]string
	image    ImageHandle
	alt      string
	created  int
	released []ImageHandle
}

func newFakeSurface(x, y, w string) *fakeSurface {
	return &fakeSurface{fields: map[Field]string{FieldX: x, FieldY: y, FieldW: w}}
}

func (s *fakeSurface) FieldValue(f Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[f]
}

func (s *fakeSurface) SetFieldValue(f Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[f] = value
}

func (s *fakeSurface) CreateImage(data []byte, contentType string) (ImageHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}
	s.created++
	return ImageHandle(fmt.Sprintf("%s#%d", data, s.created)), nil
}

func (s *fakeSurface) SetImage(h ImageHandle, alt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = h
	s.alt = alt
}

func (s *fakeSurface) Release(h ImageHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = append(s.released, h)
}

func (s *fakeSurface) snapshot() (x, y, w string, img ImageHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[FieldX], s.fields[FieldY], s.fields[FieldW], s.image
}

// fakeRenderer answers every request with the request's w value as image bytes.
type fakeRenderer struct {
	mu       sync.Mutex
	payloads []Payload
	fail     error
}

func (r *fakeRenderer) Render(_ context.Context, p Payload) ([]byte, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, p)
	if r.fail != nil {
		return nil, "", r.fail
	}
	return []byte("w=" + p.W), "image/png", nil
}

func (r *fakeRenderer) requests() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.payloads...)
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Error(m string) {
	l.mu.Lock()
	l.errors = append(l.errors, m)
	l.mu.Unlock()
}
func (l *recordingLogger) Warning(string) {}
func (l *recordingLogger) Info(string)    {}
func (l *recordingLogger) Debug(string)   {}

func (l *recordingLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func TestZoomInFromDefaultEndToEnd(t *testing.T) {
	surface := newFakeSurface("-0.5", "0", "3")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	if err := c.Zoom(In); err != nil {
		t.Fatalf("Zoom(In): %v", err)
	}
	c.Wait()

	x, y, w, img := surface.snapshot()
	if x != "-0.5" || y != "0" || w != "2.25" {
		t.Fatalf("expected fields (-0.5, 0, 2.25), got (%s, %s, %s)", x, y, w)
	}
	reqs := renderer.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if want := (Payload{X: "-0.5", Y: "0", W: "2.25"}); reqs[0] != want {
		t.Fatalf("expected payload %+v, got %+v", want, reqs[0])
	}
	if img != "w=2.25#1" {
		t.Fatalf("expected image from the render, got %q", img)
	}
	if surface.alt != DefaultAlt {
		t.Fatalf("expected alt %q, got %q", DefaultAlt, surface.alt)
	}
}

func TestMoveSequentialComposition(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	if err := c.Move(Left); err != nil {
		t.Fatalf("Move(Left): %v", err)
	}
	if got := c.View(); got != (View{X: -1, Y: 0, W: 4}) {
		t.Fatalf("after left expected (-1, 0, 4), got %v", got)
	}
	if err := c.Move(Up); err != nil {
		t.Fatalf("Move(Up): %v", err)
	}
	if got := c.View(); got != (View{X: -1, Y: -1, W: 4}) {
		t.Fatalf("after up expected (-1, -1, 4), got %v", got)
	}
	c.Wait()

	reqs := renderer.requests()
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}
}

func TestMoveTokens(t *testing.T) {
	cases := []struct {
		token string
		want  View
	}{
		{"left", View{X: 1, Y: 2, W: 8}},
		{"right", View{X: 5, Y: 2, W: 8}},
		{"up", View{X: 3, Y: 0, W: 8}},
		{"down", View{X: 3, Y: 4, W: 8}},
	}
	for _, tc := range cases {
		t.Run(tc.token, func(t *testing.T) {
			surface := newFakeSurface("3", "2", "8")
			renderer := &fakeRenderer{}
			c := New(surface, renderer)

			if err := c.MoveToken(tc.token); err != nil {
				t.Fatalf("MoveToken(%q): %v", tc.token, err)
			}
			c.Wait()
			if got := c.View(); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			if n := len(renderer.requests()); n != 1 {
				t.Fatalf("expected 1 request, got %d", n)
			}
		})
	}
}

func TestInvalidTokensAreRejected(t *testing.T) {
	surface := newFakeSurface("3", "2", "8")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	for _, token := range []string{"", "LEFT", "sideways", "in"} {
		if err := c.MoveToken(token); !errors.Is(err, ErrInvalidDirection) {
			t.Fatalf("MoveToken(%q): expected ErrInvalidDirection, got %v", token, err)
		}
	}
	for _, token := range []string{"", "IN", "left"} {
		if err := c.ZoomToken(token); !errors.Is(err, ErrInvalidDirection) {
			t.Fatalf("ZoomToken(%q): expected ErrInvalidDirection, got %v", token, err)
		}
	}
	if err := c.Move(Direction(42)); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("Move(42): expected ErrInvalidDirection, got %v", err)
	}
	if err := c.Zoom(ZoomDirection(0)); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("Zoom(0): expected ErrInvalidDirection, got %v", err)
	}
	c.Wait()

	x, y, w, img := surface.snapshot()
	if x != "3" || y != "2" || w != "8" {
		t.Fatalf("expected fields unchanged, got (%s, %s, %s)", x, y, w)
	}
	if img != "" {
		t.Fatalf("expected no image, got %q", img)
	}
	if n := len(renderer.requests()); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestZoomFactors(t *testing.T) {
	surface := newFakeSurface("1", "1", "3")
	c := New(surface, &fakeRenderer{})

	if err := c.ZoomToken("out"); err != nil {
		t.Fatalf("ZoomToken(out): %v", err)
	}
	if got := c.View().W; got != 3.75 {
		t.Fatalf("expected w 3.75 after zoom out, got %v", got)
	}
	if err := c.ZoomToken("in"); err != nil {
		t.Fatalf("ZoomToken(in): %v", err)
	}
	// 0.75 * 1.25 != 1
	if got, want := c.View().W, 3*0.9375; got != want {
		t.Fatalf("expected w %v after out+in, got %v", want, got)
	}
	if got := c.View(); got.X != 1 || got.Y != 1 {
		t.Fatalf("expected center unchanged, got %v", got)
	}
	c.Wait()
}

func TestResetAlwaysRenders(t *testing.T) {
	surface := newFakeSurface("12.5", "-7", "0.001")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	c.Reset()
	c.Reset()
	c.Wait()

	x, y, w, _ := surface.snapshot()
	if x != "-0.5" || y != "0" || w != "3" {
		t.Fatalf("expected default fields, got (%s, %s, %s)", x, y, w)
	}
	if got := c.View(); got != Default {
		t.Fatalf("expected %v, got %v", Default, got)
	}
	if n := len(renderer.requests()); n != 2 {
		t.Fatalf("expected 2 requests, got %d", n)
	}
}

func TestRenderFailureKeepsImage(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	renderer := &fakeRenderer{}
	logger := &recordingLogger{}
	c := New(surface, renderer, WithLogger(logger))

	c.Reset()
	c.Wait()
	_, _, _, before := surface.snapshot()
	if before == "" {
		t.Fatalf("expected an image after reset")
	}

	renderer.mu.Lock()
	renderer.fail = errors.New("connection refused")
	renderer.mu.Unlock()

	if err := c.Zoom(In); err != nil {
		t.Fatalf("Zoom(In): %v", err)
	}
	c.Wait()

	_, _, w, after := surface.snapshot()
	if w != "2.25" {
		t.Fatalf("expected fields to hold the new view, got w=%s", w)
	}
	if after != before {
		t.Fatalf("expected image %q unchanged, got %q", before, after)
	}
	if logger.count() != 1 {
		t.Fatalf("expected 1 reported error, got %d", logger.count())
	}
	if len(surface.released) != 0 {
		t.Fatalf("expected no releases, got %v", surface.released)
	}
}

func TestNonImageResponseKeepsImage(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	logger := &recordingLogger{}
	results := make(chan RenderResult, 1)
	c := New(surface, rendererFunc(func(context.Context, Payload) ([]byte, string, error) {
		return []byte("<html>"), "text/html", nil
	}), WithLogger(logger), WithOnRender(func(r RenderResult) { results <- r }))

	c.Reset()
	res := <-results
	if res.Err == nil {
		t.Fatalf("expected an error for a non-image response")
	}
	if _, _, _, img := surface.snapshot(); img != "" {
		t.Fatalf("expected no image, got %q", img)
	}
	if logger.count() != 1 {
		t.Fatalf("expected 1 reported error, got %d", logger.count())
	}
}

func TestSupersededHandleIsReleased(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	c := New(surface, &fakeRenderer{})

	c.Reset()
	c.Wait()
	_, _, _, first := surface.snapshot()

	if err := c.Zoom(Out); err != nil {
		t.Fatalf("Zoom(Out): %v", err)
	}
	c.Wait()
	_, _, _, second := surface.snapshot()

	if len(surface.released) != 1 || surface.released[0] != first {
		t.Fatalf("expected %q released, got %v", first, surface.released)
	}

	c.Close()
	if len(surface.released) != 2 || surface.released[1] != second {
		t.Fatalf("expected %q released on close, got %v", second, surface.released)
	}
}

type rendererFunc func(ctx context.Context, p Payload) ([]byte, string, error)

func (f rendererFunc) Render(ctx context.Context, p Payload) ([]byte, string, error) {
	return f(ctx, p)
}

// gatedRenderer holds every response until released, ignoring cancellation
// the way a response already on the wire would.
type gatedRenderer struct {
	started chan Payload
	gates   map[string]chan struct{}
	mu      sync.Mutex
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{started: make(chan Payload, 8), gates: make(map[string]chan struct{})}
}

func (g *gatedRenderer) gate(w string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[w]
	if !ok {
		ch = make(chan struct{})
		g.gates[w] = ch
	}
	return ch
}

func (g *gatedRenderer) Render(_ context.Context, p Payload) ([]byte, string, error) {
	ch := g.gate(p.W)
	g.started <- p
	<-ch
	return []byte("w=" + p.W), "image/png", nil
}

func TestStaleResponseDoesNotReplaceLatest(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	renderer := newGatedRenderer()
	logger := &recordingLogger{}
	results := make(chan RenderResult, 2)
	c := New(surface, renderer, WithLogger(logger), WithOnRender(func(r RenderResult) { results <- r }))

	if err := c.Zoom(In); err != nil { // A: w=3
		t.Fatalf("Zoom(In): %v", err)
	}
	<-renderer.started
	if err := c.Zoom(In); err != nil { // B: w=2.25
		t.Fatalf("Zoom(In): %v", err)
	}
	<-renderer.started

	close(renderer.gate("2.25"))
	if res := <-results; res.Stale || res.Payload.W != "2.25" {
		t.Fatalf("expected B to complete as latest, got %+v", res)
	}
	close(renderer.gate("3"))
	if res := <-results; !res.Stale || res.Payload.W != "3" {
		t.Fatalf("expected A to complete stale, got %+v", res)
	}
	c.Wait()

	_, _, w, img := surface.snapshot()
	if w != "2.25" {
		t.Fatalf("expected w 2.25, got %s", w)
	}
	if img != "w=2.25#1" {
		t.Fatalf("expected image of B, got %q", img)
	}
	if surface.created != 1 {
		t.Fatalf("expected the stale response to create no handle, got %d handles", surface.created)
	}
	if logger.count() != 0 {
		t.Fatalf("expected no reported errors, got %d", logger.count())
	}
}

func TestSupersededRequestIsCanceled(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	canceled := make(chan error, 1)
	c := New(surface, rendererFunc(func(ctx context.Context, p Payload) ([]byte, string, error) {
		if p.W == "3" {
			<-ctx.Done()
			canceled <- ctx.Err()
			return nil, "", ctx.Err()
		}
		return []byte("ok"), "image/png", nil
	}))

	c.Reset()
	if err := c.Zoom(In); err != nil {
		t.Fatalf("Zoom(In): %v", err)
	}
	if err := <-canceled; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first request canceled, got %v", err)
	}
	c.Wait()
	if _, _, _, img := surface.snapshot(); img != "ok#1" {
		t.Fatalf("expected image of second request, got %q", img)
	}
}

func TestMalformedFieldPropagatesNaN(t *testing.T) {
	surface := newFakeSurface("abc", "0", "4")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	if err := c.Move(Right); err != nil {
		t.Fatalf("Move(Right): %v", err)
	}
	c.Wait()

	reqs := renderer.requests()
	if len(reqs) != 1 || reqs[0].X != "NaN" {
		t.Fatalf("expected NaN x in request, got %+v", reqs)
	}
}

// viewLogger reads the controller's view on every line, the way a UI that
// redraws from its log would.
type viewLogger struct {
	c     *Controller
	mu    sync.Mutex
	lines int
}

func (l *viewLogger) line(string) {
	l.c.View()
	l.mu.Lock()
	l.lines++
	l.mu.Unlock()
}

func (l *viewLogger) Error(m string)   { l.line(m) }
func (l *viewLogger) Warning(m string) { l.line(m) }
func (l *viewLogger) Info(m string)    { l.line(m) }
func (l *viewLogger) Debug(m string)   { l.line(m) }

func TestLoggerMayCallBackIntoController(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	renderer := &fakeRenderer{}
	logger := &viewLogger{}
	c := New(surface, renderer, WithLogger(logger))
	logger.c = c

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Zoom(In); err != nil {
			t.Errorf("Zoom(In): %v", err)
		}
		c.Wait()
		renderer.mu.Lock()
		renderer.fail = errors.New("boom")
		renderer.mu.Unlock()
		c.Reset()
		c.Wait()
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("controller deadlocked while logging")
	}
	// two requests and one failure
	logger.mu.Lock()
	defer logger.mu.Unlock()
	if logger.lines != 3 {
		t.Fatalf("expected 3 log lines, got %d", logger.lines)
	}
}

func TestClosedControllerDoesNotRender(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	renderer := &fakeRenderer{}
	c := New(surface, renderer)

	c.Reset()
	c.Wait()
	c.Close()

	if err := c.Move(Right); err != nil {
		t.Fatalf("Move(Right): %v", err)
	}
	c.Jump(SeahorseValley.View())
	c.Wait()

	if n := len(renderer.requests()); n != 1 {
		t.Fatalf("expected no requests after close, got %d", n)
	}
	if x, _, _, _ := surface.snapshot(); x != FormatNumber(SeahorseValley.View().X) {
		t.Fatalf("expected fields still written after close, got x=%s", x)
	}
}

func TestCloseWhileActionsRun(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	c := New(surface, &fakeRenderer{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if err := c.Move(Right); err != nil {
				t.Errorf("Move(Right): %v", err)
				return
			}
		}
	}()
	c.Close()
	wg.Wait()
	c.Wait()
}

func TestBaseContextCancelsRequest(t *testing.T) {
	surface := newFakeSurface("0", "0", "4")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	results := make(chan RenderResult, 1)
	c := New(surface, rendererFunc(func(ctx context.Context, p Payload) ([]byte, string, error) {
		close(started)
		<-ctx.Done()
		return nil, "", ctx.Err()
	}), WithContext(ctx), WithOnRender(func(r RenderResult) { results <- r }))

	c.Reset()
	<-started
	cancel()

	select {
	case res := <-results:
		if res.Stale || !errors.Is(res.Err, context.Canceled) {
			t.Fatalf("expected canceled latest request, got %+v", res)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("request not canceled with its base context")
	}
	c.Wait()
	if _, _, _, img := surface.snapshot(); img != "" {
		t.Fatalf("expected no image, got %q", img)
	}
}

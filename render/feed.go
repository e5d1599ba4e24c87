package render

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/mandel_viewport/internal/logging"
)

// Event describes one request served by the render Handler.
type Event struct {
	Seq       uint64    `json:"seq"`
	Time      time.Time `json:"time"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	W         float64   `json:"w"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Bytes     int       `json:"bytes"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Error     string    `json:"error,omitempty"`
}

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Feed broadcasts render events to websocket subscribers.
// Subscribers that fall behind by more than subscriberBuffer events are dropped.
type Feed struct {
	log *logging.Logger

	mu   sync.Mutex
	seq  uint64
	subs map[chan Event]struct{}
}

func NewFeed(log *logging.Logger) *Feed {
	return &Feed{log: log, subs: make(map[chan Event]struct{})}
}

// Publish stamps ev with the next sequence number and hands it to every subscriber without blocking.
func (f *Feed) Publish(ev Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	ev.Seq = f.seq
	if ev.Time.IsZero() {
		ev.Time = time.Now().UTC()
	}
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			delete(f.subs, ch)
			close(ch)
		}
	}
}

func (f *Feed) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected subscribers.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// ServeHTTP upgrades the request to a websocket and streams events as JSON.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // TODO: take allowed origins from config
	})
	if err != nil {
		f.log.Warning(fmt.Sprintf("websocket accept from %s: %v", r.RemoteAddr, err))
		return
	}
	defer c.CloseNow()

	events, unsubscribe := f.subscribe()
	defer unsubscribe()
	f.log.Info(fmt.Sprintf("feed subscriber connected: %s", r.RemoteAddr))

	// we never expect messages from subscribers
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			f.log.Info(fmt.Sprintf("feed subscriber gone: %s", r.RemoteAddr))
			return
		case ev, ok := <-events:
			if !ok {
				c.Close(websocket.StatusPolicyViolation, "subscriber too slow")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, c, ev)
			cancel()
			if err != nil {
				f.log.Debug(fmt.Sprintf("feed write to %s: %v", r.RemoteAddr, err))
				return
			}
		}
	}
}

// Watch connects to a feed at url and calls fn for every event until ctx is
// done or the server closes the connection.
func Watch(ctx context.Context, url string, fn func(Event)) error {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("watch: dial %s: %w", url, err)
	}
	defer c.CloseNow()

	for {
		var ev Event
		if err := wsjson.Read(ctx, c, &ev); err != nil {
			if ctx.Err() != nil || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		fn(ev)
	}
}

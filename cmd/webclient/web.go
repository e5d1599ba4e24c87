//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"
	"time"

	"github.com/marben/mandel_viewport/render"
)

// pageLogger writes to the browser console and appends to the #log element.
type pageLogger struct {
	console js.Value
	logElem js.Value
	debug   bool
}

func newPageLogger(doc js.Value, debug bool) *pageLogger {
	return &pageLogger{
		console: js.Global().Get("console"),
		logElem: doc.Call("getElementById", "log"),
		debug:   debug,
	}
}

func (l *pageLogger) Error(msg string)   { l.write("error", "ERROR: "+msg) }
func (l *pageLogger) Warning(msg string) { l.write("warn", "WARNING: "+msg) }
func (l *pageLogger) Info(msg string)    { l.write("info", msg) }

func (l *pageLogger) Debug(msg string) {
	if l.debug {
		l.write("debug", msg)
	}
}

func (l *pageLogger) Infof(format string, a ...any) { l.Info(fmt.Sprintf(format, a...)) }

func (l *pageLogger) write(method, msg string) {
	l.console.Call(method, msg)
	if l.logElem.IsNull() || l.logElem.IsUndefined() {
		return
	}
	l.logElem.Set("textContent", l.logElem.Get("textContent").String()+msg+"\n")
}

// hudSetLastRender shows the last render reported by the server feed.
func hudSetLastRender(doc js.Value, ev render.Event) {
	el := doc.Call("getElementById", "lastRender")
	if el.IsNull() {
		return
	}
	text := fmt.Sprintf("#%d x=%g y=%g w=%g %dx%d in %s", ev.Seq, ev.X, ev.Y, ev.W, ev.Width, ev.Height,
		time.Duration(ev.ElapsedMS)*time.Millisecond)
	if ev.Error != "" {
		text += " failed: " + ev.Error
	}
	el.Set("textContent", text)
}

// feedURL returns the websocket address of the render feed on the page's host.
func feedURL() string {
	loc := js.Global().Get("window").Get("location")
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	return proto + "://" + loc.Get("host").String() + "/ws"
}

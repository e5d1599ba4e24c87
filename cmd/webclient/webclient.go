//go:build js && wasm

// webclient.go is the WASM controller for the viewport page.
// It binds the page's buttons and keys to a viewport.Controller and shows
// every rendered image in the page's .image element.

package main

import (
	"context"
	"strings"
	"syscall/js"

	viewport "github.com/marben/mandel_viewport"
	"github.com/marben/mandel_viewport/render"
)

func main() {
	doc := js.Global().Get("document")
	debug := strings.Contains(js.Global().Get("window").Get("location").Get("search").String(), "debug")
	logger := newPageLogger(doc, debug)
	logger.Info("Starting WASM viewport controller...")

	surface, err := newDOMSurface(doc)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	c := viewport.New(surface, render.NewClient("/api/render"), viewport.WithLogger(logger))

	// js callbacks must not block, so every action runs on its own goroutine
	register := func(name string, fn func(args []js.Value) error) {
		js.Global().Set(name, js.FuncOf(func(this js.Value, args []js.Value) any {
			go func() {
				if err := fn(args); err != nil {
					logger.Error(name + ": " + err.Error())
				}
			}()
			return nil
		}))
	}
	register("move", func(args []js.Value) error {
		return c.MoveToken(argString(args))
	})
	register("zoom", func(args []js.Value) error {
		return c.ZoomToken(argString(args))
	})
	register("resetParameters", func([]js.Value) error {
		c.Reset()
		return nil
	})

	doc.Call("addEventListener", "keydown", js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		// typing into the coordinate inputs must not navigate
		if target := ev.Get("target"); !target.IsNull() && target.Get("tagName").String() == "INPUT" {
			return nil
		}
		act, ok := keyActions[ev.Get("key").String()]
		if !ok {
			return nil
		}
		ev.Call("preventDefault")
		go func() {
			if err := act(c); err != nil {
				logger.Error(err.Error())
			}
		}()
		return nil
	}))

	go func() {
		url := feedURL()
		logger.Infof("Watching render feed at %s...", url)
		if err := render.Watch(context.Background(), url, func(ev render.Event) { hudSetLastRender(doc, ev) }); err != nil {
			logger.Warning(err.Error())
		}
	}()

	c.Reset()

	// Block main goroutine to keep WASM running
	select {}
}

func argString(args []js.Value) string {
	if len(args) == 0 || args[0].Type() != js.TypeString {
		return ""
	}
	return args[0].String()
}

//go:build js && wasm

package main

import (
	"fmt"
	"syscall/js"

	viewport "github.com/marben/mandel_viewport"
)

// domSurface drives the page: three input elements and the .image element.
// Images are shown through blob object URLs.
type domSurface struct {
	fields map[viewport.Field]js.Value
	img    js.Value
	url    js.Value
}

func newDOMSurface(doc js.Value) (*domSurface, error) {
	s := &domSurface{
		fields: make(map[viewport.Field]js.Value, 3),
		img:    doc.Call("querySelector", ".image"),
		url:    js.Global().Get("URL"),
	}
	if s.img.IsNull() {
		return nil, fmt.Errorf("no element matches .image")
	}
	for _, f := range []viewport.Field{viewport.FieldX, viewport.FieldY, viewport.FieldW} {
		el := doc.Call("getElementById", f.ID())
		if el.IsNull() {
			return nil, fmt.Errorf("no element with id %q", f.ID())
		}
		s.fields[f] = el
	}
	return s, nil
}

func (s *domSurface) FieldValue(f viewport.Field) string {
	return s.fields[f].Get("value").String()
}

func (s *domSurface) SetFieldValue(f viewport.Field, value string) {
	s.fields[f].Set("value", value)
}

// CreateImage copies data into a Blob and returns its object URL.
func (s *domSurface) CreateImage(data []byte, contentType string) (viewport.ImageHandle, error) {
	u8 := js.Global().Get("Uint8Array").New(len(data))
	if n := js.CopyBytesToJS(u8, data); n != len(data) {
		return "", fmt.Errorf("copied %d of %d image bytes", n, len(data))
	}
	blob := js.Global().Get("Blob").New([]any{u8}, map[string]any{"type": contentType})
	return viewport.ImageHandle(s.url.Call("createObjectURL", blob).String()), nil
}

func (s *domSurface) SetImage(h viewport.ImageHandle, alt string) {
	s.img.Set("src", string(h))
	s.img.Set("alt", alt)
}

func (s *domSurface) Release(h viewport.ImageHandle) {
	s.url.Call("revokeObjectURL", string(h))
}

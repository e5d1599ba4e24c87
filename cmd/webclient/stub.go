//go:build !js || !wasm

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "webclient runs in the browser: GOOS=js GOARCH=wasm go build -o static/main.wasm ./cmd/webclient")
	os.Exit(1)
}

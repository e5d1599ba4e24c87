package main

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sync"

	viewport "github.com/marben/mandel_viewport"
)

// fileSurface keeps the fields in memory and every image as a file in a
// private temp directory. Releasing a handle removes its file.
type fileSurface struct {
	dir string

	mu     sync.Mutex
	fields map[viewport.Field]string
	shown  viewport.ImageHandle
	alt    string
	n      int
}

var _ viewport.Surface = (*fileSurface)(nil)

func newFileSurface() (*fileSurface, error) {
	dir, err := os.MkdirTemp("", "mandel-viewport-")
	if err != nil {
		return nil, fmt.Errorf("create image directory: %w", err)
	}
	return &fileSurface{dir: dir, fields: make(map[viewport.Field]string, 3)}, nil
}

func (s *fileSurface) FieldValue(f viewport.Field) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[f]
}

func (s *fileSurface) SetFieldValue(f viewport.Field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[f] = value
}

// CreateImage writes data to a new file named after its content type.
func (s *fileSurface) CreateImage(data []byte, contentType string) (viewport.ImageHandle, error) {
	ext := ".img"
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		ext = exts[0]
	}

	s.mu.Lock()
	s.n++
	path := filepath.Join(s.dir, fmt.Sprintf("render-%d%s", s.n, ext))
	s.mu.Unlock()

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return viewport.ImageHandle(path), nil
}

func (s *fileSurface) SetImage(h viewport.ImageHandle, alt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = h
	s.alt = alt
}

func (s *fileSurface) Release(h viewport.ImageHandle) {
	if err := os.Remove(string(h)); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "release %s: %v\n", h, err)
	}
}

// Shown returns the file currently displayed and its alt text.
func (s *fileSurface) Shown() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.shown), s.alt
}

// Save copies the displayed image to dst.
func (s *fileSurface) Save(dst string) error {
	src, _ := s.Shown()
	if src == "" {
		return errors.New("no image rendered yet")
	}
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open rendered image: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy image: %w", err)
	}
	return out.Close()
}

// Close removes the temp directory with every image still in it.
func (s *fileSurface) Close() error {
	return os.RemoveAll(s.dir)
}

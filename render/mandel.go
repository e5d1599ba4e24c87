package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"math/cmplx"
	"runtime"
	"sync"

	viewport "github.com/marben/mandel_viewport"
)

// Settings for the render service.
type Settings struct {
	Width         int `yaml:"width"`
	Height        int `yaml:"height"`
	MaxIterations int `yaml:"max_iterations"`
	TileSize      int `yaml:"tile_size"`
	Workers       int `yaml:"workers"`
}

func DefaultSettings() Settings {
	return Settings{
		Width:         800,
		Height:        600,
		MaxIterations: 1000,
		TileSize:      64,
		Workers:       runtime.GOMAXPROCS(0),
	}
}

// Validate rejects settings the renderer cannot work with.
func (s Settings) Validate() error {
	switch {
	case s.Width <= 0 || s.Height <= 0:
		return fmt.Errorf("image size must be positive (got %dx%d)", s.Width, s.Height)
	case s.MaxIterations <= 0:
		return fmt.Errorf("max iterations must be positive (got %d)", s.MaxIterations)
	case s.TileSize <= 0:
		return fmt.Errorf("tile size must be positive (got %d)", s.TileSize)
	case s.Workers < 0:
		return fmt.Errorf("workers must be >= 0 (got %d)", s.Workers)
	}
	return nil
}

// Mandelbrot renders views of the Mandelbrot set with smooth iteration
// count and orbit trap colouring.
type Mandelbrot struct {
	mu       sync.RWMutex
	settings Settings

	// OnTileRender is called for every tile before it is rendered.
	OnTileRender func(tile image.Rectangle)
}

func NewMandelbrot(s Settings) *Mandelbrot {
	return &Mandelbrot{settings: s}
}

func (m *Mandelbrot) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings replaces the settings used by subsequent renders.
func (m *Mandelbrot) SetSettings(s Settings) {
	m.mu.Lock()
	m.settings = s
	m.mu.Unlock()
}

// Render renders v into a new image. Tiles are rendered in parallel.
func (m *Mandelbrot) Render(ctx context.Context, v viewport.View) (*image.RGBA, error) {
	s := m.Settings()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	workers := s.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	region := v.Region(s.Width, s.Height)
	scheduler := newTileWorkScheduler(s.Width, s.Height, s.TileSize)
	err := scheduler.run(ctx, workers, func(tile image.Rectangle) *image.RGBA {
		if m.OnTileRender != nil {
			m.OnTileRender(tile)
		}
		return renderTile(region, tile, s.Width, s.Height, s.MaxIterations)
	})
	if err != nil {
		return nil, err
	}
	return scheduler.img, nil
}

func renderTile(r viewport.Region, tile image.Rectangle, imgW, imgH, maxIter int) *image.RGBA {
	// Image has global coordinates (tile.Min .. tile.Max)
	img := image.NewRGBA(tile)

	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		yf := r.Ymin + (float64(py)/float64(imgH))*(r.Ymax-r.Ymin)

		for px := tile.Min.X; px < tile.Max.X; px++ {
			xf := r.Xmin + (float64(px)/float64(imgW))*(r.Xmax-r.Xmin)

			mu, trap := mandelbrotOrbit(complex(xf, yf), maxIter)

			var col color.RGBA
			if mu >= float64(maxIter) {
				col = color.RGBA{A: 255}
			} else {
				tnorm := math.Exp(-5 * trap)
				hue := math.Mod(mu*0.02+tnorm*0.3, 1.0)
				col = hsv(hue, 1, 1)
			}

			img.SetRGBA(px, py, col)
		}
	}

	return img
}

// mandelbrotOrbit returns the smooth escape count of c and the minimal
// distance of its orbit to the imaginary axis.
func mandelbrotOrbit(c complex128, maxIter int) (smooth float64, trap float64) {
	z := complex(0, 0)
	minTrap := math.MaxFloat64

	for i := range maxIter {
		z = z*z + c

		if d := math.Abs(real(z)); d < minTrap {
			minTrap = d
		}

		if real(z)*real(z)+imag(z)*imag(z) > 4 {
			smooth = float64(i) + 1 - math.Log(math.Log(cmplx.Abs(z)))/math.Log(2)
			return smooth, minTrap
		}
	}

	// Inside the set
	return float64(maxIter), minTrap
}

// Simple HSV → RGB
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	if h < 0 {
		h++
	}
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

package render

import (
	"context"
	"image"
	"image/draw"
	"sync"
)

// tileWorkScheduler hands out tiles of one image to a pool of workers and
// assembles the finished tiles.
type tileWorkScheduler struct {
	img *image.RGBA

	totalPixels    int
	finishedPixels int

	unstarted []image.Rectangle
	m         sync.Mutex
}

func newTileWorkScheduler(w, h, tileSize int) *tileWorkScheduler {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return &tileWorkScheduler{
		img:         img,
		unstarted:   splitRectNoClip(img.Bounds(), tileSize, tileSize),
		totalPixels: w * h,
	}
}

func (s *tileWorkScheduler) popTile() (tile image.Rectangle, found bool) {
	s.m.Lock()
	defer s.m.Unlock()

	if len(s.unstarted) == 0 {
		return image.Rectangle{}, false
	}
	tile = s.unstarted[len(s.unstarted)-1]
	s.unstarted = s.unstarted[:len(s.unstarted)-1]
	return tile, true
}

func (s *tileWorkScheduler) tileFinished(tileImg *image.RGBA) {
	rect := tileImg.Bounds()
	s.m.Lock()
	defer s.m.Unlock()

	draw.Draw(
		s.img,
		rect,     // destination rectangle (global coords)
		tileImg,  // source image
		rect.Min, // source start
		draw.Src,
	)
	s.finishedPixels += rect.Dx() * rect.Dy()
}

func (s *tileWorkScheduler) finished() float32 {
	s.m.Lock()
	defer s.m.Unlock()
	return float32(s.finishedPixels) / float32(s.totalPixels)
}

// run renders every tile with the given number of workers.
// It returns ctx's error if ctx is done before all tiles are finished.
func (s *tileWorkScheduler) run(ctx context.Context, workers int, renderTile func(tile image.Rectangle) *image.RGBA) error {
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				tile, found := s.popTile()
				if !found {
					return
				}
				s.tileFinished(renderTile(tile))
			}
		}()
	}
	wg.Wait()

	return ctx.Err()
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tile := image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			)
			tiles = append(tiles, tile)
		}
	}

	return tiles
}

package viewport

import (
	"errors"
	"fmt"
)

// View is the visible window of the complex plane: center (X, Y) and
// window length W, the half-width of the visible region.
type View struct {
	X, Y float64
	W    float64
}

// Default is the view shown on page load and after Reset.
var Default = View{X: -0.5, Y: 0.0, W: 3.0}

const (
	moveFactor    = 0.25
	zoomInFactor  = 0.75
	zoomOutFactor = 1.25
)

var ErrInvalidDirection = errors.New("invalid direction")

// Direction is a pan direction.
type Direction int

const (
	Left Direction = iota + 1
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// ParseDirection maps the page's tokens to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, fmt.Errorf("move %q: %w", s, ErrInvalidDirection)
}

// ZoomDirection selects zooming in (shrinking the window) or out.
type ZoomDirection int

const (
	In ZoomDirection = iota + 1
	Out
)

func (d ZoomDirection) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	}
	return fmt.Sprintf("ZoomDirection(%d)", int(d))
}

func ParseZoomDirection(s string) (ZoomDirection, error) {
	switch s {
	case "in":
		return In, nil
	case "out":
		return Out, nil
	}
	return 0, fmt.Errorf("zoom %q: %w", s, ErrInvalidDirection)
}

// Moved returns v shifted by a quarter of the window length along one axis.
// Down increases Y.
func (v View) Moved(d Direction) (View, error) {
	step := v.W * moveFactor
	switch d {
	case Left:
		v.X -= step
	case Right:
		v.X += step
	case Down:
		v.Y += step
	case Up:
		v.Y -= step
	default:
		return v, fmt.Errorf("move %s: %w", d, ErrInvalidDirection)
	}
	return v, nil
}

// Zoomed returns v with the window length scaled; the center is kept.
func (v View) Zoomed(d ZoomDirection) (View, error) {
	switch d {
	case In:
		v.W *= zoomInFactor
	case Out:
		v.W *= zoomOutFactor
	default:
		return v, fmt.Errorf("zoom %s: %w", d, ErrInvalidDirection)
	}
	return v, nil
}

func (v View) String() string {
	return fmt.Sprintf("(x=%s, y=%s, w=%s)", FormatNumber(v.X), FormatNumber(v.Y), FormatNumber(v.W))
}

package viewport

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Region returns the rectangle of the plane v covers in an image of
// width × height pixels. W spans the horizontal half-width; the vertical
// extent follows the aspect ratio.
func (v View) Region(width, height int) Region {
	hw := v.W
	hh := v.W
	if width > 0 {
		hh = v.W * float64(height) / float64(width)
	}
	return Region{
		Xmin: v.X - hw,
		Xmax: v.X + hw,
		Ymin: v.Y - hh,
		Ymax: v.Y + hh,
	}
}

// View centers a view on r with the window length covering its width.
func (r Region) View() View {
	return View{
		X: (r.Xmin + r.Xmax) / 2,
		Y: (r.Ymin + r.Ymax) / 2,
		W: (r.Xmax - r.Xmin) / 2,
	}
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: 0.25,
		Xmax: 0.35,
		Ymin: -0.05,
		Ymax: 0.05,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

// Landmark is a named region a host can jump to.
type Landmark struct {
	Name   string
	Region Region
}

// Landmarks in the order hosts bind them (keys 1..6).
var Landmarks = []Landmark{
	{"Seahorse Valley", SeahorseValley},
	{"Elephant Valley", ElephantValley},
	{"Spiral Minibrot", SpiralMinibrot},
	{"Triple Spiral", TripleSpiral},
	{"Valley of the Dragon", ValleyOfTheDragon},
	{"Minibrot in a Mini-Spiral", MinibrotInMiniSpiral},
}

package viewport

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// FormatNumber prints f the way a page script would print a number into an
// input field: plain decimal from 1e-6 up to 1e21, exponent form otherwise.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	s := strconv.FormatFloat(f, 'e', -1, 64)
	// strip exponent padding: 5e-07 -> 5e-7
	mant, exp, _ := strings.Cut(s, "e")
	sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
	return mant + "e" + sign + digits
}

// ParseNumber reads a field value. Text that is not a number yields NaN;
// the controller does not validate what the user typed.
func ParseNumber(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if errors.Is(err, strconv.ErrRange) {
		return f
	}
	if err != nil {
		return math.NaN()
	}
	return f
}

func readView(s Surface) View {
	return View{
		X: ParseNumber(s.FieldValue(FieldX)),
		Y: ParseNumber(s.FieldValue(FieldY)),
		W: ParseNumber(s.FieldValue(FieldW)),
	}
}

func readPayload(s Surface) Payload {
	return Payload{
		X: s.FieldValue(FieldX),
		Y: s.FieldValue(FieldY),
		W: s.FieldValue(FieldW),
	}
}

package viewport

import "context"

// Field identifies one of the three numeric inputs holding the current View.
type Field int

const (
	FieldX Field = iota
	FieldY
	FieldW
)

// ID returns the DOM id the hosting page uses for the field.
func (f Field) ID() string {
	switch f {
	case FieldX:
		return "x-coordinate"
	case FieldY:
		return "y-coordinate"
	case FieldW:
		return "window-length"
	}
	return ""
}

func (f Field) String() string { return f.ID() }

// ImageHandle is a displayable reference to rendered image bytes,
// e.g. a blob object URL in the browser or a temp file on disk.
type ImageHandle string

// Surface is the display the controller drives: three text fields and one image element.
type Surface interface {
	FieldValue(f Field) string
	SetFieldValue(f Field, value string)

	// CreateImage turns raw image bytes into a handle that SetImage can show.
	CreateImage(data []byte, contentType string) (ImageHandle, error)
	SetImage(h ImageHandle, alt string)
	// Release frees a handle that is no longer displayed.
	Release(h ImageHandle)
}

// Payload is the render request body. Values are the field texts as sent.
type Payload struct {
	X, Y, W string
}

// Renderer fetches a rendered image for a payload.
type Renderer interface {
	Render(ctx context.Context, p Payload) (data []byte, contentType string, err error)
}

// Logger is the observability channel render outcomes are reported on.
type Logger interface {
	Error(message string)
	Warning(message string)
	Info(message string)
	Debug(message string)
}

package imagery

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// Cropped is a square PNG produced by CropToSquare.
type Cropped struct {
	Data   []byte
	Width  int
	Height int
}

// CropToSquare decodes data, scales it to cover a size x size square
// (overflow is cropped around the centre, never letterboxed) and re-encodes it as PNG.
func CropToSquare(data []byte, size int) (*Cropped, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: crop size must be positive, got %d", ErrConfiguration, size)
	}
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dst := imaging.Fill(src, size, size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG); err != nil {
		return nil, fmt.Errorf("%w: encoding png: %v", ErrDecode, err)
	}
	b := dst.Bounds()
	return &Cropped{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

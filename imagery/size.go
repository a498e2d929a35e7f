package imagery

import (
	"fmt"
	"strconv"
	"strings"
)

// Size is a square crop size accepted by the variation workflow.
type Size string

const (
	Size256  Size = "256x256"
	Size512  Size = "512x512"
	Size1024 Size = "1024x1024"

	DefaultSize = Size512
)

func ParseSize(s string) (Size, error) {
	switch Size(s) {
	case Size256, Size512, Size1024:
		return Size(s), nil
	case "":
		return DefaultSize, nil
	}
	return "", fmt.Errorf("%w: size must be one of %s, %s, %s, got %q", ErrConfiguration, Size256, Size512, Size1024, s)
}

// Dimension returns the side length in pixels.
func (s Size) Dimension() int {
	side, _, _ := strings.Cut(string(s), "x")
	n, err := strconv.Atoi(side)
	if err != nil {
		return 0
	}
	return n
}

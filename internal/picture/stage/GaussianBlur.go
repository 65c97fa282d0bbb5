package stage

import (
	"errors"
	"fmt"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

var ErrInvalidKernelSize = errors.New("kernel size must be a positive odd number")

// Pre-computed binomial kernels used for small sizes when no sigma is given
var smallGaussianKernels = map[int][]float64{
	1: {1},
	3: {0.25, 0.5, 0.25},
	5: {0.0625, 0.25, 0.375, 0.25, 0.0625},
	7: {0.03125, 0.109375, 0.21875, 0.28125, 0.21875, 0.109375, 0.03125},
}

// SigmaForSize derives a standard deviation from the kernel size, for
// when a blur is requested by size alone.
func SigmaForSize(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}

// GaussianKernel returns a normalised 1-D Gaussian of the given odd size.
// A non-positive sigma selects the size-derived default.
func GaussianKernel(size int, sigma float64) ([]float64, error) {
	if size <= 0 || size%2 == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidKernelSize, size)
	}

	if sigma <= 0 {
		if k, ok := smallGaussianKernels[size]; ok {
			return append([]float64(nil), k...), nil
		}
		sigma = SigmaForSize(size)
	}

	k := make([]float64, size)
	centre := float64(size-1) / 2
	sum := 0.0
	for i := range k {
		d := float64(i) - centre
		k[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k, nil
}

type GaussianBlurStage struct {
	Size  int
	Sigma float64
}

// Process convolves every colour channel with a separable Gaussian of
// Size x Size, replicating edge pixels beyond the image border.
// Higher Sigma values result in a more pronounced blur effect
func (s *GaussianBlurStage) Process(p *picture.Picture) error {
	k1, err := GaussianKernel(s.Size, s.Sigma)
	if err != nil {
		return err
	}

	k := convolution.NewKernel(s.Size, s.Size)
	for y, wy := range k1 {
		for x, wx := range k1 {
			k.Matrix[y*k.Width+x] = wy * wx
		}
	}

	// Convolve truncates, the bias turns that into rounding
	p.SetImage(convolution.Convolve(p.Img, k, &convolution.Options{Bias: 0.5, Wrap: false, KeepAlpha: true}))
	return nil
}

package stage

import (
	"image"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

var (
	laplacian = &convolution.Kernel{
		Matrix: []float64{
			0, 1, 0,
			1, -4, 1,
			0, 1, 0,
		},
		Width:  3,
		Height: 3,
	}
	negatedLaplacian = &convolution.Kernel{
		Matrix: []float64{
			0, -1, 0,
			-1, 4, -1,
			0, -1, 0,
		},
		Width:  3,
		Height: 3,
	}
)

type LaplacianSharpenStage struct {
	OriginalWeight float64
	EdgeWeight     float64
}

// EdgeMagnitude returns the per-channel absolute Laplacian of img,
// saturated to 8 bits. Convolution clamps negative responses to zero, so
// the magnitude is the larger of the responses to the kernel and its negation.
func EdgeMagnitude(img image.Image) *image.NRGBA {
	opts := &convolution.Options{Wrap: false, KeepAlpha: true}
	pos := convolution.Convolve(img, laplacian, opts)
	neg := convolution.Convolve(img, negatedLaplacian, opts)

	b := pos.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			pi := pos.PixOffset(b.Min.X+x, b.Min.Y+y)
			ni := neg.PixOffset(b.Min.X+x, b.Min.Y+y)
			oi := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				out.Pix[oi+c] = max(pos.Pix[pi+c], neg.Pix[ni+c])
			}
			out.Pix[oi+3] = 255
		}
	}
	return out
}

// Process blends the image with its Laplacian edge magnitude:
// out = OriginalWeight*img + EdgeWeight*|laplacian(img)|, saturated.
func (s *LaplacianSharpenStage) Process(p *picture.Picture) error {
	edges := EdgeMagnitude(p.Img)

	b := p.Img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			i := p.Img.PixOffset(b.Min.X+x, b.Min.Y+y)
			e := edges.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				p.Img.Pix[i+c] = saturate(s.OriginalWeight*float64(p.Img.Pix[i+c]) + s.EdgeWeight*float64(edges.Pix[e+c]))
			}
		}
	}
	return nil
}

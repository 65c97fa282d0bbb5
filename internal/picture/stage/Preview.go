package stage

import (
	"image"
	"math"

	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
	"golang.org/x/image/draw"
)

type PreviewStage struct {
	Width  int
	Height int
}

// Process shrinks the image to fit inside Width x Height, keeping its
// aspect ratio, using Catmull-Rom resampling.
// Images that already fit, or a zero-sized box, leave the picture unchanged
func (s *PreviewStage) Process(p *picture.Picture) error {
	w, h := p.Bounds.Dx(), p.Bounds.Dy()
	if s.Width <= 0 || s.Height <= 0 || (w <= s.Width && h <= s.Height) {
		return nil
	}

	scale := math.Min(float64(s.Width)/float64(w), float64(s.Height)/float64(h))
	size := image.Rect(0, 0,
		max(1, int(math.Round(float64(w)*scale))),
		max(1, int(math.Round(float64(h)*scale))),
	)

	scaled := image.NewNRGBA(size)
	draw.CatmullRom.Scale(scaled, size, p.Img, p.Bounds, draw.Src, nil)
	p.Img = scaled
	p.Bounds = size
	return nil
}

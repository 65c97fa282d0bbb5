package stage

import (
	"errors"
	"fmt"
	"math"

	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

var ErrInvalidClipPercent = errors.New("clip percent must be in the range [0, 100)")

// Levels describes the affine rescale chosen by the auto contrast stage:
// out = Alpha*in + Beta, for grey levels Low..High mapped onto 0..255.
type Levels struct {
	Low   int
	High  int
	Alpha float64
	Beta  float64
}

// Identity is the no-op rescale used when the histogram has no spread.
var Identity = Levels{Low: 0, High: 255, Alpha: 1, Beta: 0}

func (l Levels) String() string {
	return fmt.Sprintf("levels=[%d..%d] alpha=%.3f beta=%.3f", l.Low, l.High, l.Alpha, l.Beta)
}

// LUT tabulates the rescale for every 8-bit input value, rounding and
// saturating to 0..255. Alpha is never negative so the table is monotonic.
func (l Levels) LUT() [256]uint8 {
	var lut [256]uint8
	for v := range lut {
		lut[v] = saturate(l.Alpha*float64(v) + l.Beta)
	}
	return lut
}

// ComputeLevels finds the grey levels where the cumulative histogram
// crosses half of clipPercent at either tail.
func ComputeLevels(hist Histogram, clipPercent float64) (Levels, error) {
	if clipPercent < 0 || clipPercent >= 100 || math.IsNaN(clipPercent) {
		return Identity, fmt.Errorf("%w: got %v", ErrInvalidClipPercent, clipPercent)
	}

	acc := hist.Cumulative()
	total := float64(acc[255])
	if total == 0 {
		return Identity, nil
	}

	clip := clipPercent * total / 100.0 / 2.0

	low := 0
	for low < 255 && float64(acc[low]) <= clip {
		low++
	}

	high := 0
	for high < 255 && float64(acc[high]) < total-clip {
		high++
	}

	// Flat image, or tails clipped so far that the cuts meet
	if high <= low {
		return Levels{Low: low, High: high, Alpha: 1, Beta: 0}, nil
	}

	alpha := 255.0 / float64(high-low)
	return Levels{
		Low:   low,
		High:  high,
		Alpha: alpha,
		Beta:  -float64(low) * alpha,
	}, nil
}

type AutoContrastStage struct {
	ClipPercent float64

	// Levels holds the rescale applied by the last call to Process
	Levels Levels
}

// Process stretches the brightness range of the image so that the grey
// levels between the clipped tails of its histogram span 0..255.
// The same rescale is applied to each colour channel; alpha is kept.
func (s *AutoContrastStage) Process(p *picture.Picture) error {
	levels, err := ComputeLevels(GreyHistogram(p.Img), s.ClipPercent)
	if err != nil {
		return err
	}
	s.Levels = levels

	lut := levels.LUT()
	b := p.Img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := p.Img.Pix[p.Img.PixOffset(b.Min.X, y):p.Img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			row[i] = lut[row[i]]
			row[i+1] = lut[row[i+1]]
			row[i+2] = lut[row[i+2]]
		}
	}
	return nil
}

func saturate(v float64) uint8 {
	v = math.Round(v)
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

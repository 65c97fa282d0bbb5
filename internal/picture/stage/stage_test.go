package stage

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

func uniform(w, h int, v uint8) *picture.Picture {
	return picture.New(imaging.New(w, h, color.NRGBA{R: v, G: v, B: v, A: 255}), "uniform.png", imaging.PNG)
}

// greyRamp has one column per grey level from 0 to w-1.
func greyRamp(w, h int) *picture.Picture {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return picture.New(img, "ramp.png", imaging.PNG)
}

// step is black left of column at and v from column at onwards.
func step(w, h, at int, v uint8) *picture.Picture {
	img := imaging.New(w, h, color.NRGBA{A: 255})
	for y := 0; y < h; y++ {
		for x := at; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return picture.New(img, "step.png", imaging.PNG)
}

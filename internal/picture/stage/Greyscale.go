package stage

import (
	"image"
)

// Histogram counts pixels per 8-bit grey level.
type Histogram [256]int

// Luminance converts an RGB triple to a rounded grey level using the
// standard coefficients.
// Reference: https://en.wikipedia.org/wiki/Grayscale#Luma_coding_in_video_systems
func Luminance(r, g, b uint8) uint8 {
	lum := 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b) + 0.5
	if lum >= 255 {
		return 255
	}
	return uint8(lum)
}

// GreyHistogram builds the luminance histogram of every pixel in img,
// ignoring alpha.
func GreyHistogram(img *image.NRGBA) Histogram {
	var hist Histogram
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			hist[Luminance(row[i], row[i+1], row[i+2])]++
		}
	}
	return hist
}

// Cumulative returns the running sum of the histogram, the last entry
// being the total pixel count.
func (h Histogram) Cumulative() [256]int {
	var acc [256]int
	sum := 0
	for i, n := range h {
		sum += n
		acc[i] = sum
	}
	return acc
}

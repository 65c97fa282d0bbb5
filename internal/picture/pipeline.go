package picture

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"
)

var (
	ErrDecode            = errors.New("unable to decode image")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

type Picture struct {
	Img    *image.NRGBA
	Bounds image.Rectangle
	Name   string
	Format imaging.Format
}

type PipelineStage interface {
	Process(p *Picture) error
}

// Decode reads any format known to imaging and normalises it to an opaque
// NRGBA buffer. EXIF orientation is applied for JPEG sources.
func Decode(r io.Reader, name string) (*Picture, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrDecode, name, err)
	}

	format, err := imaging.FormatFromFilename(name)
	if err != nil {
		format = imaging.JPEG
	}

	return New(img, name, format), nil
}

// New wraps an already decoded image. Transparent areas are flattened onto
// black, the same as reading a colour image without its alpha channel.
func New(img image.Image, name string, format imaging.Format) *Picture {
	flat := imaging.Clone(img)
	if !flat.Opaque() {
		bg := imaging.New(flat.Rect.Dx(), flat.Rect.Dy(), image.Black.C)
		flat = imaging.Overlay(bg, flat, image.Pt(0, 0), 1.0)
	}
	return &Picture{
		Img:    flat,
		Bounds: flat.Bounds(),
		Name:   name,
		Format: format,
	}
}

func (p *Picture) Encode(w io.Writer, format imaging.Format, jpegQuality int) error {
	if err := imaging.Encode(w, p.Img, format, imaging.JPEGQuality(jpegQuality)); err != nil {
		return fmt.Errorf("failed to encode %s as %s: %w", p.Name, format, err)
	}
	return nil
}

func (p *Picture) Clone() *Picture {
	return &Picture{
		Img:    imaging.Clone(p.Img),
		Bounds: p.Bounds,
		Name:   p.Name,
		Format: p.Format,
	}
}

// SetImage replaces the buffer with the output of a stage, rebasing it at
// the origin.
func (p *Picture) SetImage(img image.Image) {
	p.Img = imaging.Clone(img)
	p.Bounds = p.Img.Bounds()
}

func (p *Picture) Pipeline(stages ...PipelineStage) error {
	for _, stage := range stages {
		if err := stage.Process(p); err != nil {
			return err
		}
	}
	return nil
}

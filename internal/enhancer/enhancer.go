package enhancer

import (
	"errors"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/config"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture/stage"
)

var ErrNoImage = errors.New("no image loaded")

// DefaultExt is appended to save paths without an extension.
const DefaultExt = ".jpg"

var saveFormats = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".png":  imaging.PNG,
}

// SaveExtensions lists the file extensions that Save accepts.
var SaveExtensions = lo.Keys(saveFormats)

// Result summarises the last enhancement.
type Result struct {
	Name   string
	Width  int
	Height int
	Levels stage.Levels
}

func (r Result) String() string {
	return fmt.Sprintf("%s (%dx%d) %s", r.Name, r.Width, r.Height, r.Levels)
}

// Enhancer owns the current image and runs the enhancement pipeline on it.
// A zero image means nothing is loaded.
type Enhancer struct {
	sync.Mutex
	fs      afero.Fs
	cfg     *config.Config
	logger  *zap.Logger
	current *picture.Picture
	result  Result
}

func New(fs afero.Fs, cfg *config.Config, logger *zap.Logger) *Enhancer {
	return &Enhancer{
		fs:     fs,
		cfg:    cfg,
		logger: logger.With(zap.String("via", "enhancer")),
	}
}

func (e *Enhancer) Load(path string) error {
	f, err := e.fs.Open(path)
	if err != nil {
		e.reset()
		e.logger.With(zap.String("path", path), zap.Error(err)).Info("unable to open image")
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	return e.LoadFrom(f, path)
}

// LoadFrom decodes an image, replacing the current one. On failure no image
// remains loaded.
func (e *Enhancer) LoadFrom(r io.Reader, name string) error {
	pic, err := picture.Decode(r, name)
	if err != nil {
		e.reset()
		e.logger.With(zap.String("name", name), zap.Error(err)).Info("unable to load image")
		return err
	}

	e.Lock()
	defer e.Unlock()
	e.current = pic
	e.result = Result{Name: name, Width: pic.Bounds.Dx(), Height: pic.Bounds.Dy()}
	e.logger.With(zap.String("name", name), zap.Int("width", e.result.Width), zap.Int("height", e.result.Height)).Debug("loaded")
	return nil
}

func (e *Enhancer) Stages() (*stage.AutoContrastStage, []picture.PipelineStage) {
	contrast := &stage.AutoContrastStage{ClipPercent: e.cfg.ClipPercent}
	return contrast, []picture.PipelineStage{
		contrast,
		&stage.GaussianBlurStage{Size: e.cfg.KernelSize, Sigma: e.cfg.KernelSigma},
		&stage.LaplacianSharpenStage{OriginalWeight: e.cfg.OriginalWeight, EdgeWeight: e.cfg.EdgeWeight},
	}
}

// Enhance normalises contrast, smooths and sharpens the loaded image in place.
func (e *Enhancer) Enhance() (Result, error) {
	e.Lock()
	defer e.Unlock()

	if e.current == nil {
		return Result{}, ErrNoImage
	}

	contrast, stages := e.Stages()
	if err := e.current.Pipeline(stages...); err != nil {
		return Result{}, fmt.Errorf("failed to process image pipeline: %w", err)
	}

	e.result.Levels = contrast.Levels
	e.logger.With(
		zap.String("name", e.result.Name),
		zap.Int("low", contrast.Levels.Low),
		zap.Int("high", contrast.Levels.High),
		zap.Float64("alpha", contrast.Levels.Alpha),
		zap.Float64("beta", contrast.Levels.Beta),
	).Info("enhanced")
	return e.result, nil
}

// LoadAndEnhance is the "Upload and Enhance" action.
func (e *Enhancer) LoadAndEnhance(r io.Reader, name string) (Result, error) {
	if err := e.LoadFrom(r, name); err != nil {
		return Result{}, err
	}
	return e.Enhance()
}

func (e *Enhancer) HasImage() bool {
	e.Lock()
	defer e.Unlock()
	return e.current != nil
}

// Current returns a copy of the processed image, or nil when nothing is loaded.
func (e *Enhancer) Current() *image.NRGBA {
	e.Lock()
	defer e.Unlock()
	if e.current == nil {
		return nil
	}
	return e.current.Clone().Img
}

// Preview returns a copy of the processed image scaled to fit the preview area.
func (e *Enhancer) Preview() (image.Image, error) {
	e.Lock()
	defer e.Unlock()
	if e.current == nil {
		return nil, ErrNoImage
	}

	pic := e.current.Clone()
	if err := pic.Pipeline(&stage.PreviewStage{Width: e.cfg.PreviewWidth, Height: e.cfg.PreviewHeight}); err != nil {
		return nil, err
	}
	return pic.Img, nil
}

// SavePath normalises a chosen save path: a missing extension defaults to JPEG.
func SavePath(path string) (string, imaging.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return path + DefaultExt, imaging.JPEG, nil
	}

	format, ok := saveFormats[ext]
	if !ok {
		return "", 0, fmt.Errorf("%w: %s", picture.ErrUnsupportedFormat, ext)
	}
	return path, format, nil
}

// Save writes the current image to path. Without a loaded image nothing is
// written and ErrNoImage is returned.
func (e *Enhancer) Save(path string) (string, error) {
	if !e.HasImage() {
		return "", ErrNoImage
	}

	path, format, err := SavePath(path)
	if err != nil {
		return "", err
	}

	tmpFile, err := afero.TempFile(e.fs, filepath.Dir(path), "save-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	cleanupTemp := true
	defer func() {
		_ = tmpFile.Close()
		if cleanupTemp {
			_ = e.fs.Remove(tmpFile.Name())
		}
	}()

	if err := e.SaveTo(tmpFile, format); err != nil {
		return "", err
	}

	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file before rename: %w", err)
	}

	if err := e.fs.Rename(tmpFile.Name(), path); err != nil {
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	cleanupTemp = false
	e.logger.With(zap.String("path", path), zap.Stringer("format", format)).Info("saved")
	return path, nil
}

// SaveTo encodes the current image to w in the given format.
func (e *Enhancer) SaveTo(w io.Writer, format imaging.Format) error {
	e.Lock()
	defer e.Unlock()
	if e.current == nil {
		return ErrNoImage
	}
	return e.current.Encode(w, format, e.cfg.JPEGQuality)
}

func (e *Enhancer) reset() {
	e.Lock()
	defer e.Unlock()
	e.current = nil
	e.result = Result{}
}

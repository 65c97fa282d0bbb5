package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/pflag"
)

type Config struct {
	ClipPercent    float64
	KernelSize     int
	KernelSigma    float64
	OriginalWeight float64
	EdgeWeight     float64
	JPEGQuality    int
	PreviewWidth   int
	PreviewHeight  int
}

func Default() *Config {
	return &Config{
		ClipPercent:    1,
		KernelSize:     5,
		KernelSigma:    0,
		OriginalWeight: 0.8,
		EdgeWeight:     0.2,
		JPEGQuality:    95,
		PreviewWidth:   600,
		PreviewHeight:  400,
	}
}

// FromEnv returns the defaults overridden by any ENHANCER_* environment
// variables that are set.
func FromEnv() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	floats := map[string]*float64{
		"ENHANCER_CLIP_PERCENT":    &cfg.ClipPercent,
		"ENHANCER_KERNEL_SIGMA":    &cfg.KernelSigma,
		"ENHANCER_ORIGINAL_WEIGHT": &cfg.OriginalWeight,
		"ENHANCER_EDGE_WEIGHT":     &cfg.EdgeWeight,
	}
	for key, dst := range floats {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s=%q: %w", key, v, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{
		"ENHANCER_KERNEL_SIZE":    &cfg.KernelSize,
		"ENHANCER_JPEG_QUALITY":   &cfg.JPEGQuality,
		"ENHANCER_PREVIEW_WIDTH":  &cfg.PreviewWidth,
		"ENHANCER_PREVIEW_HEIGHT": &cfg.PreviewHeight,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s=%q: %w", key, v, err)
			}
			*dst = n
		}
	}

	return cfg, nil
}

// BindFlags registers the tuning flags, using the current values as defaults.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.Float64Var(&c.ClipPercent, "clip", c.ClipPercent, "Histogram percentage clipped (half from each tail) before contrast stretching")
	fs.IntVar(&c.KernelSize, "kernel-size", c.KernelSize, "Gaussian smoothing kernel size (odd)")
	fs.Float64Var(&c.KernelSigma, "kernel-sigma", c.KernelSigma, "Gaussian sigma, 0 derives it from the kernel size")
	fs.Float64Var(&c.OriginalWeight, "original-weight", c.OriginalWeight, "Weight of the smoothed image in the sharpening blend")
	fs.Float64Var(&c.EdgeWeight, "edge-weight", c.EdgeWeight, "Weight of the Laplacian edges in the sharpening blend")
	fs.IntVar(&c.JPEGQuality, "jpeg-quality", c.JPEGQuality, "JPEG quality used when saving (1-100)")
	fs.IntVar(&c.PreviewWidth, "preview-width", c.PreviewWidth, "Width of the preview area")
	fs.IntVar(&c.PreviewHeight, "preview-height", c.PreviewHeight, "Height of the preview area")
}

func (c *Config) Validate() error {
	var errs []error
	if c.ClipPercent < 0 || c.ClipPercent >= 100 {
		errs = append(errs, fmt.Errorf("clip percent %v out of range [0, 100)", c.ClipPercent))
	}
	if c.KernelSize <= 0 || c.KernelSize%2 == 0 {
		errs = append(errs, fmt.Errorf("kernel size %d must be positive and odd", c.KernelSize))
	}
	if c.KernelSigma < 0 {
		errs = append(errs, fmt.Errorf("kernel sigma %v must not be negative", c.KernelSigma))
	}
	if c.OriginalWeight < 0 || c.EdgeWeight < 0 {
		errs = append(errs, fmt.Errorf("blend weights %v/%v must not be negative", c.OriginalWeight, c.EdgeWeight))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg quality %d out of range [1, 100]", c.JPEGQuality))
	}
	if c.PreviewWidth <= 0 || c.PreviewHeight <= 0 {
		errs = append(errs, fmt.Errorf("preview size %dx%d must be positive", c.PreviewWidth, c.PreviewHeight))
	}
	return errors.Join(errs...)
}

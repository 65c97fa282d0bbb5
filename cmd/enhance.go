package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/config"
	"github.com/rm-hull/oil-painting-enhancer/internal/enhancer"
)

// Enhance loads in, runs the enhancement pipeline and writes the result to
// out, returning the path actually written.
func Enhance(fs afero.Fs, cfg *config.Config, logger *zap.Logger, in, out string) (string, error) {
	if in == "" || out == "" {
		return "", errors.New("both --in and --out must be given")
	}

	e := enhancer.New(fs, cfg, logger)
	if err := e.Load(in); err != nil {
		return "", err
	}

	result, err := e.Enhance()
	if err != nil {
		return "", err
	}

	path, err := e.Save(out)
	if err != nil {
		return "", fmt.Errorf("failed to save %s: %w", out, err)
	}

	logger.Info("enhanced image written", zap.Stringer("result", result), zap.String("path", path))
	return path, nil
}

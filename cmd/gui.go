package cmd

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/config"
	"github.com/rm-hull/oil-painting-enhancer/internal/enhancer"
	"github.com/rm-hull/oil-painting-enhancer/internal/gui"
)

const appID = "com.github.rm-hull.oil-painting-enhancer"

func Gui(cfg *config.Config, logger *zap.Logger) {
	e := enhancer.New(afero.NewOsFs(), cfg, logger)
	previewSize := fyne.NewSize(float32(cfg.PreviewWidth), float32(cfg.PreviewHeight))
	gui.Run(app.NewWithID(appID), e, logger, previewSize)
}

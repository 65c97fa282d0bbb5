package gui

import (
	"fmt"
	"image"
	"image/color"
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/enhancer"
)

const (
	Title           = "Oil Painting Image Enhancer"
	DefaultSaveName = "enhanced.jpg"
)

var openExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff"}

type EnhancerUI struct {
	window    fyne.Window
	enhancer  *enhancer.Enhancer
	logger    *zap.Logger
	preview   *canvas.Image
	status    *widget.Label
	uploadBtn *widget.Button
	saveBtn   *widget.Button
}

func NewEnhancerUI(window fyne.Window, e *enhancer.Enhancer, logger *zap.Logger) *EnhancerUI {
	return &EnhancerUI{
		window:   window,
		enhancer: e,
		logger:   logger.With(zap.String("via", "gui")),
	}
}

// Run opens the main window and blocks until it is closed.
func Run(app fyne.App, e *enhancer.Enhancer, logger *zap.Logger, previewSize fyne.Size) {
	window := app.NewWindow(Title)
	ui := NewEnhancerUI(window, e, logger)
	window.SetContent(ui.BuildUI(previewSize))
	window.Resize(fyne.NewSize(1000, 700))
	window.CenterOnScreen()
	window.ShowAndRun()
}

func (ui *EnhancerUI) BuildUI(previewSize fyne.Size) fyne.CanvasObject {
	title := canvas.NewText(Title, color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff})
	title.TextSize = 30
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Alignment = fyne.TextAlignCenter

	ui.uploadBtn = widget.NewButtonWithIcon("Upload and Enhance Image", theme.FolderOpenIcon(), ui.openImage)
	ui.uploadBtn.Importance = widget.HighImportance

	ui.saveBtn = widget.NewButtonWithIcon("Save Enhanced Image", theme.DocumentSaveIcon(), ui.saveImage)
	ui.saveBtn.Importance = widget.HighImportance

	ui.preview = canvas.NewImageFromImage(image.NewNRGBA(image.Rect(0, 0, 1, 1)))
	ui.preview.FillMode = canvas.ImageFillContain
	ui.preview.ScaleMode = canvas.ImageScaleSmooth
	ui.preview.SetMinSize(previewSize)

	frame := canvas.NewRectangle(color.White)
	frame.StrokeColor = color.Black
	frame.StrokeWidth = 2

	ui.status = widget.NewLabel("No image loaded")
	ui.status.Alignment = fyne.TextAlignCenter

	content := container.NewVBox(
		title,
		container.NewCenter(ui.uploadBtn),
		container.NewCenter(container.NewStack(frame, container.NewPadded(ui.preview))),
		ui.status,
		container.NewCenter(ui.saveBtn),
	)
	return container.NewCenter(content)
}

func (ui *EnhancerUI) openImage() {
	d := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			ui.showError(err)
			return
		}
		if reader == nil {
			return // cancelled
		}
		defer func() {
			if err := reader.Close(); err != nil {
				ui.logger.With(zap.Error(err)).Info("close failed")
			}
		}()

		ui.EnhanceFrom(reader, reader.URI().Name())
	}, ui.window)
	d.SetFilter(storage.NewExtensionFileFilter(openExtensions))
	d.Show()
}

// EnhanceFrom loads, enhances and previews an image. On failure the preview
// is cleared and the error shown.
func (ui *EnhancerUI) EnhanceFrom(r io.Reader, name string) {
	result, err := ui.enhancer.LoadAndEnhance(r, name)
	if err != nil {
		ui.clearPreview()
		ui.showError(err)
		return
	}

	preview, err := ui.enhancer.Preview()
	if err != nil {
		ui.showError(err)
		return
	}

	ui.preview.Image = preview
	ui.preview.Refresh()
	ui.status.SetText(result.String())
	ui.window.SetTitle(fmt.Sprintf("%s - %s", Title, name))
}

func (ui *EnhancerUI) saveImage() {
	if !ui.enhancer.HasImage() {
		dialog.ShowInformation("No Image", "Please upload an image first", ui.window)
		return
	}

	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			ui.showError(err)
			return
		}
		if writer == nil {
			return // cancelled
		}

		ui.SaveToURI(writer)
	}, ui.window)
	d.SetFileName(DefaultSaveName)
	d.SetFilter(storage.NewExtensionFileFilter(lo.Uniq(append([]string{".jpg"}, enhancer.SaveExtensions...))))
	d.Show()
}

// SaveToURI saves into a file chosen in the save dialog. The dialog has
// already created the file, so it is deleted again if encoding fails.
func (ui *EnhancerUI) SaveToURI(writer fyne.URIWriteCloser) {
	uri := writer.URI()
	if err := ui.SaveTo(writer, uri.Name()); err != nil {
		if delErr := storage.Delete(uri); delErr != nil {
			ui.logger.With(zap.String("uri", uri.String()), zap.Error(delErr)).Info("unable to remove unsaved file")
		}
		ui.showError(err)
	}
}

// SaveTo encodes the current image into w, choosing the format from name,
// and closes w.
func (ui *EnhancerUI) SaveTo(w io.WriteCloser, name string) error {
	_, format, err := enhancer.SavePath(name)
	if err != nil {
		_ = w.Close()
		return err
	}

	if err := ui.enhancer.SaveTo(w, format); err != nil {
		_ = w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", name, err)
	}

	ui.logger.With(zap.String("name", name), zap.Stringer("format", format)).Info("saved")
	return nil
}

func (ui *EnhancerUI) clearPreview() {
	ui.preview.Image = image.NewNRGBA(image.Rect(0, 0, 1, 1))
	ui.preview.Refresh()
	ui.status.SetText("No image loaded")
	ui.window.SetTitle(Title)
}

func (ui *EnhancerUI) showError(err error) {
	ui.logger.With(zap.Error(err)).Info("operation failed")
	dialog.ShowError(err, ui.window)
}

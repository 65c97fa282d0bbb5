package enhancer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/config"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

// testImage is a dim diagonal gradient, so contrast stretching has work to do.
func testImage(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(60 + (x+y)*60/(w+h))
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v / 2, B: 255 - v, A: 255})
		}
	}
	return img
}

func writePNG(t *testing.T, fs afero.Fs, path string, img image.Image) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0644))
}

func newEnhancer(fs afero.Fs) *Enhancer {
	return New(fs, config.Default(), zap.NewNop())
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "/in/painting.png", testImage(40, 30))
	require.NoError(t, afero.WriteFile(fs, "/in/corrupt.jpg", []byte("garbage"), 0644))

	t.Run("valid file", func(t *testing.T) {
		e := newEnhancer(fs)
		require.NoError(t, e.Load("/in/painting.png"))
		assert.True(t, e.HasImage())
		assert.Equal(t, image.Rect(0, 0, 40, 30), e.Current().Bounds())
	})

	t.Run("missing file leaves nothing loaded", func(t *testing.T) {
		e := newEnhancer(fs)
		err := e.Load("/in/missing.png")
		assert.Error(t, err)
		assert.False(t, e.HasImage())
		assert.Nil(t, e.Current())
	})

	t.Run("corrupt file leaves nothing loaded", func(t *testing.T) {
		e := newEnhancer(fs)
		err := e.Load("/in/corrupt.jpg")
		assert.ErrorIs(t, err, picture.ErrDecode)
		assert.False(t, e.HasImage())
	})

	t.Run("failed reload discards previous image", func(t *testing.T) {
		e := newEnhancer(fs)
		require.NoError(t, e.Load("/in/painting.png"))
		assert.Error(t, e.Load("/in/corrupt.jpg"))
		assert.False(t, e.HasImage())

		_, err := e.Enhance()
		assert.ErrorIs(t, err, ErrNoImage)
	})
}

func TestEnhance(t *testing.T) {
	t.Run("without image", func(t *testing.T) {
		_, err := newEnhancer(afero.NewMemMapFs()).Enhance()
		assert.ErrorIs(t, err, ErrNoImage)
	})

	t.Run("runs the pipeline", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writePNG(t, fs, "/painting.png", testImage(64, 48))

		e := newEnhancer(fs)
		require.NoError(t, e.Load("/painting.png"))
		before := e.Current()

		result, err := e.Enhance()
		require.NoError(t, err)
		assert.Equal(t, "/painting.png", result.Name)
		assert.Equal(t, 64, result.Width)
		assert.Equal(t, 48, result.Height)
		assert.Greater(t, result.Levels.Alpha, 1.0)
		assert.Contains(t, result.String(), "64x48")

		after := e.Current()
		assert.Equal(t, before.Bounds(), after.Bounds())
		assert.NotEqual(t, before.Pix, after.Pix)
	})

	t.Run("invalid configuration surfaces stage error", func(t *testing.T) {
		cfg := config.Default()
		cfg.KernelSize = 4
		e := New(afero.NewMemMapFs(), cfg, zap.NewNop())
		require.NoError(t, e.LoadFrom(bytes.NewReader(encode(t, testImage(8, 8))), "x.png"))

		_, err := e.Enhance()
		assert.ErrorContains(t, err, "failed to process image pipeline")
	})
}

func encode(t *testing.T, img image.Image) []byte {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestLoadAndEnhance(t *testing.T) {
	e := newEnhancer(afero.NewMemMapFs())

	result, err := e.LoadAndEnhance(bytes.NewReader(encode(t, testImage(20, 10))), "upload.png")
	require.NoError(t, err)
	assert.Equal(t, 20, result.Width)

	_, err = e.LoadAndEnhance(strings.NewReader("nope"), "bad.png")
	assert.ErrorIs(t, err, picture.ErrDecode)
	assert.False(t, e.HasImage())
}

func TestPreview(t *testing.T) {
	e := newEnhancer(afero.NewMemMapFs())
	_, err := e.Preview()
	assert.ErrorIs(t, err, ErrNoImage)

	require.NoError(t, e.LoadFrom(bytes.NewReader(encode(t, testImage(1200, 600))), "big.png"))
	preview, err := e.Preview()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 300), preview.Bounds())
	assert.Equal(t, image.Rect(0, 0, 1200, 600), e.Current().Bounds())
}

func TestSavePath(t *testing.T) {
	cases := []struct {
		in       string
		expected string
		format   imaging.Format
	}{
		{"out.jpg", "out.jpg", imaging.JPEG},
		{"out.JPEG", "out.JPEG", imaging.JPEG},
		{"out.png", "out.png", imaging.PNG},
		{"out", "out.jpg", imaging.JPEG},
	}
	for _, tc := range cases {
		path, format, err := SavePath(tc.in)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, path)
		assert.Equal(t, tc.format, format)
	}

	_, _, err := SavePath("out.webp")
	assert.ErrorIs(t, err, picture.ErrUnsupportedFormat)
}

func TestSave(t *testing.T) {
	t.Run("without image writes nothing", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/out", 0755))

		_, err := newEnhancer(fs).Save("/out/result.jpg")
		assert.ErrorIs(t, err, ErrNoImage)

		entries, err := afero.ReadDir(fs, "/out")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("writes enhanced image", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, fs.MkdirAll("/out", 0755))
		writePNG(t, fs, "/in.png", testImage(30, 20))

		e := newEnhancer(fs)
		require.NoError(t, e.Load("/in.png"))
		_, err := e.Enhance()
		require.NoError(t, err)

		for _, name := range []string{"/out/result.png", "/out/result"} {
			path, err := e.Save(name)
			require.NoError(t, err)

			f, err := fs.Open(path)
			require.NoError(t, err)
			img, err := imaging.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
			require.NoError(t, f.Close())
		}

		entries, err := afero.ReadDir(fs, "/out")
		require.NoError(t, err)
		assert.Len(t, entries, 2, "temporary files should be renamed")
	})

	t.Run("png output is lossless", func(t *testing.T) {
		e := newEnhancer(afero.NewMemMapFs())
		require.NoError(t, e.LoadFrom(bytes.NewReader(encode(t, testImage(16, 16))), "x.png"))

		var buf bytes.Buffer
		require.NoError(t, e.SaveTo(&buf, imaging.PNG))
		decoded, err := imaging.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, e.Current().Pix, imaging.Clone(decoded).Pix)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		e := newEnhancer(fs)
		require.NoError(t, e.LoadFrom(bytes.NewReader(encode(t, testImage(4, 4))), "x.png"))
		_, err := e.Save("/result.gif")
		assert.ErrorIs(t, err, picture.ErrUnsupportedFormat)
	})
}

func TestConcurrentAccess(t *testing.T) {
	e := newEnhancer(afero.NewMemMapFs())
	data := encode(t, testImage(16, 16))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.LoadAndEnhance(bytes.NewReader(data), "x.png")
			_ = e.Current()
		}()
	}
	wg.Wait()
	assert.True(t, e.HasImage())
}

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Depado/ginprom"
	"github.com/disintegration/imaging"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	healthcheck "github.com/tavsec/gin-healthcheck"
	"github.com/tavsec/gin-healthcheck/checks"
	hc_config "github.com/tavsec/gin-healthcheck/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/rm-hull/oil-painting-enhancer/internal/config"
	"github.com/rm-hull/oil-painting-enhancer/internal/enhancer"
	"github.com/rm-hull/oil-painting-enhancer/internal/picture"
)

type responseFormat struct {
	format      imaging.Format
	contentType string
}

var responseFormats = map[string]responseFormat{
	"jpeg": {imaging.JPEG, "image/jpeg"},
	"jpg":  {imaging.JPEG, "image/jpeg"},
	"png":  {imaging.PNG, "image/png"},
}

func ApiServer(cfg *config.Config, logger *zap.Logger, port int, debug bool) {
	fx.New(
		fx.Supply(cfg, logger),
		fx.Provide(
			func() *http.Server {
				return &http.Server{
					Addr:              fmt.Sprintf(":%d", port),
					ReadHeaderTimeout: 10 * time.Second,
				}
			},
			func() (*gin.Engine, error) {
				return NewRouter(cfg, logger, debug)
			},
		),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Invoke(Serve),
	).Run()
}

// Serve binds the router to the HTTP server for the lifetime of the app.
func Serve(r *gin.Engine, srv *http.Server, logger *zap.Logger, lifecycle fx.Lifecycle) {
	srv.Handler = r

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting HTTP API server", zap.String("addr", srv.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal("HTTP API server failed", zap.String("addr", srv.Addr), zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func NewRouter(cfg *config.Config, logger *zap.Logger, debug bool) (*gin.Engine, error) {
	r := gin.New()

	metrics := ginprom.New(
		ginprom.Engine(r),
		ginprom.Registry(prometheus.NewRegistry()),
		ginprom.Path("/metrics"),
		ginprom.Ignore("/healthz"),
	)

	r.Use(
		gin.Recovery(),
		gin.LoggerWithWriter(gin.DefaultWriter, "/healthz", "/metrics"),
		metrics.Instrument(),
	)

	if debug {
		logger.Warn("pprof endpoints are enabled and exposed. Do not run with this flag in production.")
		pprof.Register(r)
	}

	if err := healthcheck.New(r, hc_config.DefaultConfig(), []checks.Check{}); err != nil {
		return nil, fmt.Errorf("failed to initialize healthcheck: %w", err)
	}

	r.POST("/v1/enhance", enhanceHandler(cfg, logger))
	return r, nil
}

// enhanceHandler runs the enhancement pipeline on the uploaded "image" form
// file and responds with the result.
func enhanceHandler(cfg *config.Config, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.ToLower(c.DefaultQuery("format", "jpeg"))
		out, ok := responseFormats[name]
		if !ok {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("%s: %s", picture.ErrUnsupportedFormat, name)})
			return
		}

		upload, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing image upload"})
			return
		}

		f, err := upload.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer func() {
			_ = f.Close()
		}()

		e := enhancer.New(afero.NewMemMapFs(), cfg, logger)
		result, err := e.LoadAndEnhance(f, upload.Filename)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, picture.ErrDecode) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		var buf bytes.Buffer
		if err := e.SaveTo(&buf, out.format); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.Header("X-Contrast-Low", strconv.Itoa(result.Levels.Low))
		c.Header("X-Contrast-High", strconv.Itoa(result.Levels.High))
		c.Header("X-Contrast-Alpha", strconv.FormatFloat(result.Levels.Alpha, 'f', 6, 64))
		c.Header("X-Contrast-Beta", strconv.FormatFloat(result.Levels.Beta, 'f', 6, 64))
		c.Data(http.StatusOK, out.contentType, buf.Bytes())
	}
}

package router

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/packweigh/internal/server/handlers"
)

//go:embed templates/*.html
var templateFS embed.FS

// New wires the Gin engine with required routes and middlewares. A nil
// metrics handler leaves /metrics unrouted.
func New(handler *handlers.EntryHandler, metrics http.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.SetHTMLTemplate(template.Must(template.New("").ParseFS(templateFS, "templates/*.html")))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	app := r.Group("/", handler.Session())
	app.GET("/", handler.Page)
	app.POST("/form", handler.Submit)
	app.GET("/download", handler.Download)

	api := r.Group("/api", handler.Session())
	api.GET("/session", handler.GetSession)
	api.PUT("/session/identity", handler.SetIdentity)
	api.POST("/session/actions", handler.ApplyAction)
	api.POST("/session/confirm", handler.Confirm)
	api.GET("/session/export", handler.Download)
	api.GET("/session/archive", handler.Archive)
	api.GET("/lookup/:barcode", handler.Lookup)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// Package router provides resume QA service routing.
package router

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/resume-qa/internal/qa/handler"
	"github.com/kart-io/resume-qa/internal/qa/metrics"
	"github.com/kart-io/resume-qa/pkg/infra/server"
	apierrors "github.com/kart-io/resume-qa/pkg/utils/errors"
	"github.com/kart-io/resume-qa/pkg/utils/response"
)

// MetricsNamespace prefixes every exported metric.
const MetricsNamespace = "resume_qa"

//go:embed static
var embedded embed.FS

// Config holds what the routes need.
type Config struct {
	AskHandler *handler.AskHandler
	Metrics    *metrics.QAMetrics
	// StaticDir is the static site root. Empty serves the built-in page.
	StaticDir string
}

// Register registers the resume QA routes on the manager's HTTP server.
func Register(mgr *server.Manager, cfg *Config) error {
	logger.Info("Registering resume QA routes...")

	httpServer := mgr.HTTPServer()
	if httpServer == nil {
		return fmt.Errorf("http server is not configured")
	}
	if err := RegisterRoutes(httpServer.Engine(), cfg); err != nil {
		return err
	}

	logger.Info("HTTP routes registered")
	return nil
}

// RegisterRoutes registers the routes on engine.
func RegisterRoutes(engine *gin.Engine, cfg *Config) error {
	root, err := staticRoot(cfg.StaticDir)
	if err != nil {
		return err
	}

	engine.POST("/ask", cfg.AskHandler.Ask)
	engine.GET("/healthz", handler.Health)
	if cfg.Metrics != nil {
		engine.GET("/metrics", func(c *gin.Context) {
			c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(cfg.Metrics.Export(MetricsNamespace)))
		})
	}

	engine.GET("/", func(c *gin.Context) {
		if !serveFile(c, root, "/index.html") {
			response.Fail(c, apierrors.ErrRouteNotFound)
		}
	})
	// Every other GET falls through to the static root.
	engine.NoRoute(func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			if serveFile(c, root, path.Clean("/"+c.Request.URL.Path)) {
				return
			}
		}
		response.Fail(c, apierrors.ErrRouteNotFound)
	})
	return nil
}

func staticRoot(dir string) (http.FileSystem, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "static")
		if err != nil {
			return nil, err
		}
		return http.FS(sub), nil
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static dir %s is not a directory", dir)
	}
	return http.Dir(dir), nil
}

// serveFile writes the named regular file and reports whether it existed.
func serveFile(c *gin.Context, root http.FileSystem, name string) bool {
	f, err := root.Open(name)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
	return true
}

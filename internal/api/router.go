package api

import (
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRouter mounts the controller actions. allowOrigins lists the CORS
// origins; empty or containing "*" allows any origin.
func SetupRouter(controller Controller, allowOrigins []string, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}

	router := gin.New()
	router.Use(RequestLogger(log), gin.Recovery(), cors.New(corsConfig(allowOrigins)))

	router.POST("/save", controller.SaveAction)
	router.GET("/load/:sheet_id", controller.LoadAction)
	router.POST("/evaluate", controller.EvaluateAction)

	sheets := router.Group("/sheets/:sheet_id")
	sheets.PUT("/cells/:cell_id", controller.SetCellAction)
	sheets.GET("/csv", controller.ExportCSVAction)

	router.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "health")
	})

	return router
}

func corsConfig(allowOrigins []string) cors.Config {
	config := cors.DefaultConfig()
	config.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
	}
	return config
}

// RequestLogger logs one line per request once the handlers are done.
func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		log.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

// Package logging provides structured logging with zap.
package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Zachkp/moto-portfolio/internal/metrics"
)

const requestIDKey = "request_id"

// Config holds logging configuration.
type Config struct {
	Level      string `koanf:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `koanf:"format" yaml:"format"`           // json, console
	OutputPath string `koanf:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// New builds a logger from cfg. Unknown levels fall back to info.
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var config zap.Config
	if cfg.Format == "console" {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
	}
	config.Level = zap.NewAtomicLevelAt(level)
	if cfg.OutputPath != "" {
		config.OutputPaths = []string{cfg.OutputPath}
	}

	return config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
}

// OrNop returns log, or a no-op logger when log is nil.
func OrNop(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}

// Middleware logs each request and records its metrics. A request id is
// taken from X-Request-ID or generated, and echoed back.
func Middleware(log *zap.Logger) gin.HandlerFunc {
	log = OrNop(log)
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		status := c.Writer.Status()
		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request.Method, route, status, duration)

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", duration),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Debug("request completed", fields...)
		}
	}
}

// FromContext returns log annotated with the request id of c, if any.
func FromContext(c *gin.Context, log *zap.Logger) *zap.Logger {
	log = OrNop(log)
	if id := c.GetString(requestIDKey); id != "" {
		return log.With(zap.String("request_id", id))
	}
	return log
}

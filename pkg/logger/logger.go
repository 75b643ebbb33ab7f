package logger

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig holds logger configuration
type LogConfig struct {
	Level       string
	Environment string
	ServiceName string
}

var log = zap.NewNop()

// parseLevel accepts zap level names; anything else means info
func parseLevel(name string) zapcore.Level {
	level, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

// newConfig picks JSON output for production and colored console output elsewhere
func newConfig(config *LogConfig) zap.Config {
	var zc zap.Config
	if config.Environment == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zc.Level = zap.NewAtomicLevelAt(parseLevel(config.Level))
	zc.InitialFields = map[string]interface{}{
		"service":     config.ServiceName,
		"environment": config.Environment,
	}
	return zc
}

// InitLogger builds the process logger and installs it as the zap global
func InitLogger(config *LogConfig) error {
	built, err := newConfig(config).Build()
	if err != nil {
		return err
	}

	log = built
	zap.ReplaceGlobals(log)
	return nil
}

// GetLogger returns the global logger instance. Before InitLogger it is a no-op logger.
func GetLogger() *zap.Logger {
	return log
}

// Middleware returns an Echo middleware that logs one line per request.
// Server errors log at error level and client errors at warn.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			if err := next(c); err != nil {
				// the error handler writes the status logged below
				c.Error(err)
			}

			status := c.Response().Status
			write := FromEcho(c).Info
			switch {
			case status >= http.StatusInternalServerError:
				write = FromEcho(c).Error
			case status >= http.StatusBadRequest:
				write = FromEcho(c).Warn
			}
			write("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", c.RealIP()),
			)
			return nil
		}
	}
}

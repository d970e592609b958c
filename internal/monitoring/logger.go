package monitoring

import (
	"log/slog"
	"os"
	"time"
)

// Logger provides enhanced structured logging with context
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new enhanced logger
func NewLogger() *Logger {
	return &Logger{
		Logger: slog.New(newJSONHandler(slog.LevelInfo)),
	}
}

func newJSONHandler(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Add timestamp in RFC3339 format
			if a.Key == slog.TimeKey {
				return slog.Attr{
					Key:   "timestamp",
					Value: slog.StringValue(a.Value.Time().Format(time.RFC3339)),
				}
			}
			return a
		},
	})
}

// RequestLogger logs HTTP request details
func (l *Logger) RequestLogger(method, path, ip, userAgent string, statusCode int, duration time.Duration) {
	l.Info("HTTP Request",
		"method", method,
		"path", path,
		"ip", ip,
		"user_agent", userAgent,
		"status_code", statusCode,
		"duration_ms", duration.Milliseconds(),
	)
}

// CalibrationLogger logs calibration operation details
func (l *Logger) CalibrationLogger(project, mode string, throughput, confidence float64, sprints int, lowSample bool) {
	l.Info("Calibration Completed",
		"project", project,
		"mode", mode,
		"throughput", throughput,
		"confidence", confidence,
		"sprints", sprints,
		"low_sample", lowSample,
	)
}

// ForecastLogger logs forecast run details
func (l *Logger) ForecastLogger(project string, trials int, seed int64, p50, p80 float64, duration time.Duration, cacheHit bool) {
	l.Info("Forecast Completed",
		"project", project,
		"trials", trials,
		"seed", seed,
		"p50_sprints", p50,
		"p80_sprints", p80,
		"duration_ms", duration.Milliseconds(),
		"cache_hit", cacheHit,
	)
}

// APIErrorLogger logs API errors with context
func (l *Logger) APIErrorLogger(err error, method, path, ip string, statusCode int) {
	l.Error("API Error",
		"error", err.Error(),
		"method", method,
		"path", path,
		"ip", ip,
		"status_code", statusCode,
	)
}

// CacheLogger logs cache operations
func (l *Logger) CacheLogger(operation, key string, hit bool, itemCount int) {
	display := key
	if len(display) > 8 {
		display = display[:8] + "..."
	}
	l.Debug("Cache Operation",
		"operation", operation,
		"key_hash", display,
		"hit", hit,
		"cache_size", itemCount,
	)
}

// SystemLogger logs system-level events
func (l *Logger) SystemLogger(event, details string) {
	l.Info("System Event",
		"event", event,
		"details", details,
		"uptime", time.Since(startTime).String(),
	)
}

// PerformanceLogger logs performance metrics
func (l *Logger) PerformanceLogger(metric string, value float64, unit string) {
	l.Info("Performance Metric",
		"metric", metric,
		"value", value,
		"unit", unit,
		"timestamp", time.Now().Format(time.RFC3339),
	)
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level slog.Level) {
	l.Logger = slog.New(newJSONHandler(level))
}

var startTime = time.Now()

package middleware

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
)

// AuditEntry is one recorded API request.
type AuditEntry struct {
	Action     string
	Method     string
	Path       string
	Route      string
	Status     int
	Duration   time.Duration
	IP         string
	UserAgent  string
	ResourceID string
}

// AuditWriter defines how audit records are persisted.
type AuditWriter interface {
	WriteAudit(entry AuditEntry) error
}

// SlogAuditWriter writes audit records as structured log lines.
type SlogAuditWriter struct {
	logger *slog.Logger
}

// NewSlogAuditWriter returns a writer that logs to logger, or to the default logger when nil.
func NewSlogAuditWriter(logger *slog.Logger) *SlogAuditWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditWriter{logger: logger.With("component", "audit")}
}

func (w *SlogAuditWriter) WriteAudit(e AuditEntry) error {
	level := slog.LevelInfo
	if e.Status >= fiber.StatusInternalServerError {
		level = slog.LevelError
	}
	w.logger.Log(context.Background(), level, e.Action,
		"method", e.Method,
		"path", e.Path,
		"route", e.Route,
		"status", e.Status,
		"duration_ms", e.Duration.Milliseconds(),
		"resource_id", e.ResourceID,
		"ip", e.IP,
		"user_agent", e.UserAgent,
	)
	return nil
}

// AuditMiddleware records every API request.
func AuditMiddleware(writer AuditWriter) fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		// Capture request data BEFORE handler execution (Fiber reuses context objects)
		method := c.Method()
		path := c.Path()
		ip := c.IP()
		userAgent := c.Get("User-Agent")

		err := c.Next()

		route := c.Route().Path
		entry := AuditEntry{
			Action:     actionName(method, route),
			Method:     method,
			Path:       path,
			Route:      route,
			Status:     c.Response().StatusCode(),
			Duration:   time.Since(start),
			IP:         ip,
			UserAgent:  userAgent,
			ResourceID: c.Params("id"),
		}
		if writeErr := writer.WriteAudit(entry); writeErr != nil {
			slog.Error("failed to write audit log", "error", writeErr)
		}
		return err
	}
}

// actionName derives a stable name such as "post repositories.files.sync"
// from the matched route pattern.
func actionName(method, route string) string {
	var parts []string
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "api" || strings.HasPrefix(seg, ":") {
			continue
		}
		parts = append(parts, seg)
	}
	if len(parts) == 0 {
		return strings.ToLower(method)
	}
	return strings.ToLower(method) + " " + strings.Join(parts, ".")
}

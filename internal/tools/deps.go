// Package tools provides MCP tool handlers and registration.
package tools

import (
	"log/slog"

	"github.com/sitespec/sitespec/internal/places"
	"github.com/sitespec/sitespec/internal/service"
)

// Dependencies holds shared services for tool handlers.
// Passed to handler factories via closure capture.
type Dependencies struct {
	Places  *places.Client
	Service *service.GenerationService
	Logger  *slog.Logger
}

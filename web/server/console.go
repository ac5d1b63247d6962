package server

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/df07/go-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
}

// NewWebLogger creates a new web logger for a specific render
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Progress lines rewrite themselves with \r; only complete lines reach the server log
	if strings.HasSuffix(message, "\n") {
		log.Printf("[%s] %s", wl.renderID, strings.TrimLeft(message, "\r"))
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			RenderID:  wl.renderID,
			Message:   message,
			Timestamp: time.Now(),
			Level:     levelOf(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}

// levelOf classifies a message by its leading word
func levelOf(message string) string {
	trimmed := strings.ToLower(strings.TrimSpace(message))
	switch {
	case strings.HasPrefix(trimmed, "error"):
		return "error"
	case strings.HasPrefix(trimmed, "warning"):
		return "warning"
	default:
		return "info"
	}
}

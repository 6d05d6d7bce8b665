package errors

import (
	"github.com/andrewdodd13/botologist/internal/output"
)

// Handler is the shared error handler: every recovered handler failure,
// whatever thread it happened on, funnels through here. It reports to the
// terminal logger and the rotating error log and never panics.
type Handler struct {
	output *output.Output
}

// NewHandler creates a new error handler
func NewHandler(output *output.Output) *Handler {
	return &Handler{
		output: output,
	}
}

// Handle logs an error with its kind. Safe to call from any goroutine.
func (h *Handler) Handle(err error) {
	if err == nil {
		return
	}

	if botErr, ok := AsBotError(err); ok {
		h.output.LogErrorToFile(string(botErr.Kind), botErr.Message, botErr.Err)
		return
	}

	h.output.LogErrorToFile(string(KindHandler), "unexpected error", err)
}

package output

import (
	"fmt"
)

// Output combines colored terminal logging with file-based error logging
type Output struct {
	Logger      Logger
	ErrorLogger *ErrorLogger
}

// NewOutput creates a new Output with both terminal and file logging
func NewOutput(errorLogPath string, verbose bool) (*Output, error) {
	if err := EnsureLogDirectory(errorLogPath); err != nil {
		return nil, fmt.Errorf("failed to ensure log directory: %w", err)
	}

	return &Output{
		Logger:      NewColorLogger(verbose),
		ErrorLogger: NewErrorLogger(errorLogPath),
	}, nil
}

// LogErrorToFile logs an error to the file-based error log and the terminal
func (o *Output) LogErrorToFile(errorType, errorMessage string, err error) {
	if err != nil {
		o.Logger.Error("%s: %s - %v", errorType, errorMessage, err)
	} else {
		o.Logger.Error("%s: %s", errorType, errorMessage)
	}

	if logErr := o.ErrorLogger.LogError(errorType, errorMessage, err); logErr != nil {
		o.Logger.Error("Failed to write to error log: %v", logErr)
	}
}

package output

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Logger defines the interface for colored terminal output
type Logger interface {
	Info(format string, args ...interface{})
	Success(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	Debug(format string, args ...interface{})
	ChannelMessage(channel, nick, message string)
}

// ColorLogger implements Logger with colored terminal output
type ColorLogger struct {
	verbose bool

	infoColor    *color.Color
	successColor *color.Color
	warningColor *color.Color
	errorColor   *color.Color
	debugColor   *color.Color
	channelColor *color.Color
	nickColor    *color.Color
}

// NewColorLogger creates a new ColorLogger with the default color scheme.
// When verbose is true, Debug messages (raw IRC traffic) are printed too.
func NewColorLogger(verbose bool) *ColorLogger {
	return &ColorLogger{
		verbose:      verbose,
		infoColor:    color.New(color.FgCyan),
		successColor: color.New(color.FgGreen, color.Bold),
		warningColor: color.New(color.FgYellow, color.Bold),
		errorColor:   color.New(color.FgRed, color.Bold),
		debugColor:   color.New(color.FgWhite, color.Faint),
		channelColor: color.New(color.FgBlue, color.Bold),
		nickColor:    color.New(color.FgGreen),
	}
}

func (l *ColorLogger) print(c *color.Color, level, format string, args ...interface{}) {
	timestamp := time.Now().Format("15:04:05")
	message := fmt.Sprintf(format, args...)
	_, _ = c.Printf("[%s] %s: %s\n", timestamp, level, message)
}

// Info prints an informational message in cyan
func (l *ColorLogger) Info(format string, args ...interface{}) {
	l.print(l.infoColor, "INFO", format, args...)
}

// Success prints a success message in bold green
func (l *ColorLogger) Success(format string, args ...interface{}) {
	l.print(l.successColor, "SUCCESS", format, args...)
}

// Warning prints a warning message in bold yellow
func (l *ColorLogger) Warning(format string, args ...interface{}) {
	l.print(l.warningColor, "WARNING", format, args...)
}

// Error prints an error message in bold red
func (l *ColorLogger) Error(format string, args ...interface{}) {
	l.print(l.errorColor, "ERROR", format, args...)
}

// Debug prints raw protocol traffic in faint white. No-op unless verbose.
func (l *ColorLogger) Debug(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.print(l.debugColor, "DEBUG", format, args...)
}

// ChannelMessage prints a channel message with color-coded formatting
// Format: [HH:MM:SS] #channel <nick> message
func (l *ColorLogger) ChannelMessage(channel, nick, message string) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] ", timestamp)
	_, _ = l.channelColor.Printf("%s ", channel)
	_, _ = l.nickColor.Printf("<%s> ", nick)
	fmt.Printf("%s\n", message)
}

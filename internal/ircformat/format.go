// Package ircformat provides IRC formatting control codes and stripping.
//
// IRC formatting uses control characters (0x02 for bold, 0x03 for color,
// etc.). Channels can be configured to disallow styled output; for those,
// all known codes are stripped from outgoing text before it hits the wire.
package ircformat

import (
	"regexp"
	"strings"
)

// IRC control characters
const (
	Bold          = "\x02" // 0x02 - Toggle bold
	Italic        = "\x1D" // 0x1D - Toggle italic
	Underline     = "\x1F" // 0x1F - Toggle underline
	Strikethrough = "\x1E" // 0x1E - Toggle strikethrough
	Monospace     = "\x11" // 0x11 - Toggle monospace
	Color         = "\x03" // 0x03 - Color code prefix
	HexColor      = "\x04" // 0x04 - Hex color prefix
	Reverse       = "\x16" // 0x16 - Toggle reverse colors
	Reset         = "\x0F" // 0x0F - Reset all formatting
)

// Standard IRC color codes (00-15)
const (
	ColorWhite   = "00"
	ColorBlack   = "01"
	ColorBlue    = "02"
	ColorGreen   = "03"
	ColorRed     = "04"
	ColorBrown   = "05"
	ColorMagenta = "06"
	ColorOrange  = "07"
	ColorYellow  = "08"
	ColorCyan    = "10"
	ColorGrey    = "14"
	ColorDefault = "99"
)

var (
	// Color codes are 0x03 followed by an optional fg and optional ,bg pair
	colorPattern = regexp.MustCompile("\x03(?:\\d{1,2}(?:,\\d{1,2})?)?")

	// Hex color codes are 0x04 followed by 6 hex digits
	hexColorPattern = regexp.MustCompile("\x04[0-9A-Fa-f]{6}")

	controlChars = []string{Bold, Italic, Underline, Strikethrough, Monospace, Reverse, Reset}
)

// Strip removes all IRC formatting control characters from text
func Strip(input string) string {
	if input == "" {
		return input
	}

	result := colorPattern.ReplaceAllString(input, "")
	result = hexColorPattern.ReplaceAllString(result, "")
	for _, char := range controlChars {
		result = strings.ReplaceAll(result, char, "")
	}

	return result
}

// HasFormatting reports whether the input contains any formatting codes
func HasFormatting(input string) bool {
	return Strip(input) != input
}

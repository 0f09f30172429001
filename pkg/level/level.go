// Package level defines the fixed set of log severities shared by the
// event buffer, the formatter and the registry.
package level

import "strings"

// Level is a log record's severity.
type Level uint8

const (
	Trace Level = iota
	Debug
	Info
	Warning
	Error
)

// String renders a level the way the pattern formatter's %l flag does.
func (l Level) String() string {
	switch l {
	case Trace:
		return "Trace"
	case Debug:
		return "Debug"
	case Info:
		return "Info"
	case Warning:
		return "Warn"
	case Error:
		return "Error"
	default:
		return "none"
	}
}

// Parse maps a case-insensitive level name (as found in a TOML logger
// entry's `level` field) to a Level. Accepts "warning" and "warn".
func Parse(name string) (Level, bool) {
	switch strings.ToLower(name) {
	case "trace":
		return Trace, true
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warning", "warn":
		return Warning, true
	case "error":
		return Error, true
	default:
		return 0, false
	}
}

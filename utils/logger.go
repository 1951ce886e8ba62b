package utils

import "log"

// ANSI colors for console output.
const (
	colorReset  = "\x1b[0m"
	colorRed    = "\x1b[0;31m"
	colorGreen  = "\x1b[0;32m"
	colorYellow = "\x1b[0;33m"
	colorCyan   = "\x1b[0;36m"
)

// Log prints a leveled log line to the console.
func Log(level, module, operation, details string) {
	var color string
	switch level {
	case "INFO":
		color = colorCyan
	case "WARN":
		color = colorYellow
	case "ERROR":
		color = colorRed
	case "DONE":
		color = colorGreen
	default:
		color = colorCyan
	}

	log.Printf("%s[%s]%s %s: %s %s", color, level, colorReset, module, operation, details)
}

// Info logs an informational message.
func Info(module, operation, details string) {
	Log("INFO", module, operation, details)
}

// Warn logs a warning message.
func Warn(module, operation, details string) {
	Log("WARN", module, operation, details)
}

// Error logs an error message.
func Error(module, operation, details string) {
	Log("ERROR", module, operation, details)
}

// Done logs a completion message.
func Done(module, operation, details string) {
	Log("DONE", module, operation, details)
}

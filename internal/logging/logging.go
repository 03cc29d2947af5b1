package logging

import (
	"io"
	"log"
	"os"
)

var (
	// Logger is the process-wide logger for analyzer diagnostics.
	Logger *log.Logger

	// Verbose controls whether debug and info messages are printed.
	Verbose bool
)

func init() {
	Logger = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	Verbose = os.Getenv("DEPSCOPE_VERBOSE") == "1"
}

// SetVerbose enables or disables verbose logging at runtime, overriding the
// DEPSCOPE_VERBOSE environment default.
func SetVerbose(enabled bool) {
	Verbose = enabled
}

// SetOutput redirects logger output (useful for testing).
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// Debugf prints a debug message if verbose mode is enabled.
func Debugf(format string, args ...interface{}) {
	if Verbose {
		Logger.Printf("[DEBUG] "+format, args...)
	}
}

// Infof prints an info message if verbose mode is enabled.
func Infof(format string, args ...interface{}) {
	if Verbose {
		Logger.Printf("[INFO] "+format, args...)
	}
}

// Warnf always prints a warning message.
func Warnf(format string, args ...interface{}) {
	Logger.Printf("[WARN] "+format, args...)
}

// Errorf always prints an error message.
func Errorf(format string, args ...interface{}) {
	Logger.Printf("[ERROR] "+format, args...)
}

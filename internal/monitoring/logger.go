package monitoring

import "log"

// Logf is the package-level diagnostic logger, defaulting to log.Printf.
// Producers and the monitor report non-fatal errors through it; tests can
// redirect or mute it via SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

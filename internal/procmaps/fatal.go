package procmaps

import "log/slog"

// FatalFunc receives the abort-class diagnostic raised when a table line cannot be decoded.
type FatalFunc func(err error)

// LogFatal is the default FatalFunc. The enumeration still returns its partial result.
func LogFatal(err error) {
	slog.Error("Memory map table parse failed", "fatal", true, "error", err)
}

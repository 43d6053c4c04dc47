package waveform

import "log/slog"

var logger = slog.Default()

// SetLogger replaces the logger used by the package.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

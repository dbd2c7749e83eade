package telemetry

import (
	"log/slog"
	"os"
)

// configures the default slog handler. verbose enables debug-level
// output, which in turn enables request/response dumping in restyutil.
func InitSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

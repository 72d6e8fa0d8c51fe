package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text output on stdout; the
// handler can be swapped without touching call sites since everything takes
// *slog.Logger by injection.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

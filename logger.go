package clob

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces the package-level logger used by SharedOrderBook for
// structured diagnostics.
func SetLogger(l *slog.Logger) {
	logger = l
}

package noderpc

import (
	"log/slog"

	"github.com/wagiedev/noderpc-go/internal/config"
)

// NopLogger returns the logger a bridge uses when WithLogger is not given.
// Lifecycle and traffic records are dropped; the transcript is unaffected.
func NopLogger() *slog.Logger {
	return config.NopLogger()
}

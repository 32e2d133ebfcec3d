package testutil

import "log/slog"

// Logger returns a slog.Logger that discards all output, keeping test
// runs quiet. Equivalent to log.NewNop from the internal/log package.
func Logger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

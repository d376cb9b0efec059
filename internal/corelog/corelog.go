// Package corelog is the compiler's thin internal logging wrapper: pass
// timing, pool sizes, and other operational detail that isn't a
// user-facing diagnostic (see internal/diag for those). It exists
// because the teacher itself never reaches for a structured-logging
// framework — runtime/lexer and cli/internal/parser both build their
// own log/slog.Logger with a trimmed-down TextHandler — so korec
// follows the same standard-library approach rather than adding one.
package corelog

import (
	"log/slog"
	"os"
)

// New builds a Logger whose verbosity mirrors cmd/korec's repeatable
// -v flag: 0 logs nothing below Warn, 1 enables Info, 2+ enables Debug.
// The handler strips the timestamp and level attributes the same way
// runtime/lexer's does, since a CLI tool's own stderr chatter doesn't
// need either — cobra's command name already gives context.
func New(verbosity int) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbosity >= 2:
		level = slog.LevelDebug
	case verbosity == 1:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler)
}

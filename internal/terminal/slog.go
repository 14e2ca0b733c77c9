package terminal

import (
	"io"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
)

// NewDiagLogger returns the structured diagnostics logger used for process
// and probe tracing. It discards everything unless verbose is set.
func NewDiagLogger(w io.Writer, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
		NoColor:    !ColorsEnabled(),
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

package log

import (
	"io"
	"log/slog"
)

type Config struct {
	Level slog.Level `yaml:"level" env:"LEVEL" envDefault:"INFO"`
}

// New returns a JSON logger that writes to w at the configured level. The release attribute is attached to every record.
func New(w io.Writer, cfg Config, release string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.Level,
	})
	l := slog.New(handler)
	l = l.With(slog.String("release", release))

	return l
}

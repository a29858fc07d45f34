package config

import (
	"fmt"
	"io"
	"log/slog"
)

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(level string) (slog.Level, error) {
	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, level)
	}

	return parsed, nil
}

// NewSlogHandler creates the JSON handler used for local log output.
func NewSlogHandler(w io.Writer, level string) (slog.Handler, error) {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return nil, err
	}

	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parsed}), nil
}

// Package logging configures the global zerolog logger.
//
// The terminal UI owns stdout and stderr, so logs go to a file or nowhere.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup points the global logger at path using the named level.
// An empty path discards all output. The returned closer releases the file.
func Setup(path, level string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if path == "" {
		log.Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.Disabled)
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(f).With().Timestamp().Str("app", "whispernet").Logger()
	return f, nil
}

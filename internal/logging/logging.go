package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github2file/internal/config"
)

// LevelForVerbosity maps the 0..3 verbosity scale onto logrus levels.
func LevelForVerbosity(v int) logrus.Level {
	switch {
	case v <= 0:
		return logrus.WarnLevel
	case v == 1:
		return logrus.InfoLevel
	case v == 2:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

// InitLogger configures logger from cfg. The returned closer releases a log
// file when one was opened.
func InitLogger(logger *logrus.Logger, cfg *config.Config) (io.Closer, error) {
	logger.SetLevel(LevelForVerbosity(cfg.Verbosity))

	switch strings.ToLower(cfg.Log.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	var closer io.Closer = nopCloser{}
	switch out := strings.TrimSpace(cfg.Log.Output); strings.ToLower(out) {
	case "", "stderr":
		logger.SetOutput(os.Stderr)
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return closer, fmt.Errorf("open log file %s: %w", out, err)
		}
		logger.SetOutput(f)
		closer = f
	}
	logger.WithField("level", logger.GetLevel().String()).Debug("logger initialized")
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

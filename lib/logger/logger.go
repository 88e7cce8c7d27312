package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// SetupLogger writes to stdout for local runs and appends to logPath otherwise.
// Exits on an unknown env or an unwritable log file.
func SetupLogger(env, logPath string) *slog.Logger {
	out := io.Writer(os.Stdout)
	if env != envLocal {
		logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("error opening log file: ", err)
		}
		log.Printf("env: %s; log file: %s", env, logPath)
		out = logFile
	}

	handler, err := newHandler(env, out)
	if err != nil {
		log.Fatal(err)
	}
	return slog.New(handler).With(slog.String("app", "doorcheck"))
}

func newHandler(env string, out io.Writer) (slog.Handler, error) {
	var level slog.Level
	switch env {
	case envLocal, envDev:
		level = slog.LevelDebug
	case envProd:
		level = slog.LevelInfo
	default:
		return nil, fmt.Errorf("invalid environment: %q", env)
	}
	return slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: maskTokens,
	}), nil
}

// maskTokens hides bearer tokens logged without sl.Secret.
func maskTokens(_ []string, a slog.Attr) slog.Attr {
	if a.Key != "token" || a.Value.Kind() != slog.KindString {
		return a
	}
	v := a.Value.String()
	if v == "?" || strings.HasSuffix(v, "***") {
		return a
	}
	return slog.String(a.Key, "***")
}

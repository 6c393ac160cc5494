// Package logger provides the leveled logging used across arborfs.
//
// The logger is intentionally small: a process-wide level, printf-style
// formatting, and timestamped output. Components log through the package
// functions so the level set at startup applies everywhere.
package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	currentLevel atomic.Int32
	logger       = stdlog.New(os.Stdout, "", 0)
)

func init() {
	currentLevel.Store(int32(LevelInfo))
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level. Unknown names fall back to
// LevelInfo so a misconfigured level never silences errors.
func ParseLevel(level string) Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// SetLevel sets the minimum level that will be emitted.
func SetLevel(level string) {
	currentLevel.Store(int32(ParseLevel(level)))
}

// SetOutput redirects log output, primarily for tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func emit(level Level, format string, v ...any) {
	if int32(level) < currentLevel.Load() {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	prefix := fmt.Sprintf("[%s] [%s] ", timestamp, level.String())
	message := fmt.Sprintf(format, v...)
	logger.Println(prefix + message)
}

func Debug(format string, v ...any) {
	emit(LevelDebug, format, v...)
}

func Info(format string, v ...any) {
	emit(LevelInfo, format, v...)
}

func Warn(format string, v ...any) {
	emit(LevelWarn, format, v...)
}

func Error(format string, v ...any) {
	emit(LevelError, format, v...)
}

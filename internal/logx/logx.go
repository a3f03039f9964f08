package logx

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

const (
	Reset = "\033[0m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "INFO"
	}
	return levelNames[l]
}

// colores por nivel
var levelColor = map[Level]string{
	LevelDebug: Cyan,
	LevelInfo:  Blue,
	LevelWarn:  Yellow,
	LevelError: Red,
}

// colores por componente
var componentColor = map[string]string{
	"Client":  Cyan,
	"Fixture": Green,
	"Mock":    Magenta,
	"Report":  Yellow,
	"Smoke":   Blue,
	"HTTP":    Blue,
	"Config":  Magenta,
}

var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
	SetEnv(os.Getenv("ENV"))
}

// SetLevel sets the minimum level from its name (debug, info, warn, error).
// Unknown names fall back to info.
func SetLevel(name string) {
	minLevel.Store(int32(ParseLevel(name)))
}

func ParseLevel(name string) Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func Enabled(l Level) bool {
	return l >= Level(minLevel.Load())
}

var color atomic.Bool

// SetEnv turns ANSI colour on for the local and dev environments.
func SetEnv(name string) {
	color.Store(name == "local" || name == "dev")
}

func useColor() bool {
	return color.Load()
}

// --- Public API ---

func Debug(component, msg string, args ...any) {
	logGeneric(LevelDebug, component, msg, args...)
}

func Info(component, msg string, args ...any) {
	logGeneric(LevelInfo, component, msg, args...)
}

func Warn(component, msg string, args ...any) {
	logGeneric(LevelWarn, component, msg, args...)
}

func Error(component, msg string, args ...any) {
	logGeneric(LevelError, component, msg, args...)
}

// --- Core ---

func logGeneric(level Level, component, msg string, args ...any) {
	if !Enabled(level) {
		return
	}
	full := fmt.Sprintf(msg, args...)

	if useColor() {
		lc := levelColor[level]
		cc := componentColor[component]
		log.Printf("%s[%s]%s %s[%s]%s %s",
			lc, level, Reset,
			cc, component, Reset,
			full,
		)
	} else {
		log.Printf("[%s] [%s] %s", level, component, full)
	}
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is satisfied by *slog.Logger. Packages that only emit logs depend on
// this instead of the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var (
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	globalConfig    Config
	isInitialized   bool
	output          io.Writer = os.Stderr
	mutex           sync.RWMutex
)

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Initialize sets up the logging system. Loggers handed out earlier follow
// the new levels; the new format applies to loggers fetched afterwards.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	isInitialized = true

	for module, levelVar := range moduleLevelVars {
		levelVar.Set(moduleLevel(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, levelVar)).With("module", module)
	}

	globalLevel := &slog.LevelVar{}
	globalLevel.Set(levelOrDefault(config.Level))
	slog.SetDefault(slog.New(createHandler(config.Format, globalLevel)))
}

// SetOutput redirects console output, used by tests and by commands whose
// stdout is reserved for data.
func SetOutput(w io.Writer) {
	mutex.Lock()
	defer mutex.Unlock()
	output = w
}

// GetLogger returns a logger for the specified module, creating it if needed.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	if logger, exists := moduleLoggers[module]; exists {
		mutex.RUnlock()
		return logger
	}
	mutex.RUnlock()

	mutex.Lock()
	defer mutex.Unlock()

	if logger, exists := moduleLoggers[module]; exists {
		return logger
	}

	levelVar := &slog.LevelVar{}
	levelVar.Set(moduleLevel(module))

	format := "text"
	if isInitialized {
		format = globalConfig.Format
	}

	logger := slog.New(createHandler(format, levelVar)).With("module", module)
	moduleLoggers[module] = logger
	moduleLevelVars[module] = levelVar
	return logger
}

// SetModuleLevel changes a module's level at runtime.
func SetModuleLevel(module, level string) bool {
	parsed := parseLevel(level)
	if parsed == nil {
		return false
	}
	GetLogger(module)

	mutex.Lock()
	defer mutex.Unlock()
	moduleLevelVars[module].Set(*parsed)
	return true
}

// moduleLevel must be called with mutex held.
func moduleLevel(module string) slog.Level {
	if !isInitialized {
		return slog.LevelInfo
	}
	if levelStr, exists := globalConfig.Modules[module]; exists {
		if parsed := parseLevel(levelStr); parsed != nil {
			return *parsed
		}
	}
	return levelOrDefault(globalConfig.Level)
}

func levelOrDefault(level string) slog.Level {
	if parsed := parseLevel(level); parsed != nil {
		return *parsed
	}
	return slog.LevelInfo
}

// createHandler creates a slog handler with the specified format and level.
// Records go to the console writer and, when available, the systemd journal.
func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var consoleHandler slog.Handler
	if format == "json" {
		consoleHandler = slog.NewJSONHandler(output, opts)
	} else {
		consoleHandler = slog.NewTextHandler(output, opts)
	}

	if !IsJournalAvailable() {
		return consoleHandler
	}
	return NewMultiHandler(consoleHandler, NewJournalHandler(level))
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) *slog.Level {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		return nil
	}
	return &l
}

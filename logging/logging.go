package logging

import (
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	mu      sync.Mutex
	isSetup bool
)

// Options controls how the logger is built
type Options struct {
	// LogFile receives JSON log lines in addition to stderr. Empty means stderr only.
	LogFile string
	Debug   bool
}

// SetupLogger initializes the process logger
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.OutputPaths = []string{"stderr"}
	if opts.LogFile != "" {
		config.OutputPaths = append(config.OutputPaths, opts.LogFile)
	}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	logger = built
	sugar = built.Sugar()
	isSetup = true

	logger.Debug("soilscan log started", zap.String("at", time.Now().Format(time.RFC3339)))
	return nil
}

// CloseLogger flushes buffered entries and resets the logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		_ = logger.Sync()
		logger = nil
		sugar = nil
		isSetup = false
	}
}

// L returns the structured logger, a no-op logger before SetupLogger
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()

	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	s := current()
	if s == nil {
		// Not set up yet: keep startup messages visible.
		fmt.Fprintf(os.Stderr, "INFO: "+format+"\n", args...)
		return
	}
	s.Infof(format, args...)
}

// DebugLog logs a message at debug level
func DebugLog(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Debugf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Errorf(format, args...)
	}
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	if s := current(); s != nil {
		s.Warnf(format, args...)
	}
}

// LogPrediction logs the outcome of one soil sample
func LogPrediction(path string, soil string, success bool, errMsg string) {
	l := L()
	if success {
		l.Info("sample classified", zap.String("path", path), zap.String("soil_type", soil))
	} else {
		l.Warn("sample failed", zap.String("path", path), zap.String("error", errMsg))
	}
}

func current() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeKey   = "time"
	levelKey  = "level"
	sourceKey = "source"
	msgKey    = "msg"
	callerKey = "caller"
)

var (
	sugarLogger *zap.SugaredLogger
	initOnce    sync.Once
)

// getLogPath returns the path of the rotated log file. LOG_DIR overrides the
// default "logs" directory relative to the working directory.
func getLogPath() string {
	logDir := os.Getenv("LOG_DIR")
	if logDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			wd = "."
		}
		logDir = filepath.Join(wd, "logs")
	}

	return filepath.Join(logDir, "executor.log")
}

func getLogLevel() zapcore.Level {
	level := zap.InfoLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			level = zap.InfoLevel
		}
	}
	return level
}

func initializeLogger() {
	logPath := getLogPath()
	level := getLogLevel()

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        timeKey,
		LevelKey:       levelKey,
		NameKey:        sourceKey,
		MessageKey:     msgKey,
		CallerKey:      callerKey,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	stdCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stdout),
		level,
	)

	cores := []zapcore.Core{stdCore}
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err == nil {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    50,
			MaxBackups: 10,
			MaxAge:     28,
			Compress:   true,
			LocalTime:  true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), w, level))
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	sugarLogger = log.Sugar()
}

// InitializeLogger builds the process-wide log sinks. Safe to call more than once.
func InitializeLogger() {
	initOnce.Do(initializeLogger)
}

// NewNamedLogger creates a new named SugaredLogger for a given service.
func NewNamedLogger(name string) *zap.SugaredLogger {
	InitializeLogger()
	return sugarLogger.Named(name)
}

// Sync flushes buffered log entries.
func Sync() {
	if sugarLogger != nil {
		_ = sugarLogger.Sync()
	}
}

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFormat values accepted by SetGlobalLogger.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func getFileWriter(logFileName string) io.Writer {
	return &lumberjack.Logger{
		Filename:   logFileName,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   false,
	}
}

func parseConfigLevel(levelName string) (zapcore.Level, error) {
	return zapcore.ParseLevel(levelName)
}

func parseConfigLevelEncoder(levelEncoderName string) zapcore.LevelEncoder {
	switch levelEncoderName {
	case "capitalColor":
		return zapcore.CapitalColorLevelEncoder
	case "capital":
		return zapcore.CapitalLevelEncoder
	case "lowercase":
		return zapcore.LowercaseLevelEncoder
	default:
		return zapcore.CapitalLevelEncoder
	}
}

func encoderConfig(levelEncoder zapcore.LevelEncoder) zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		EncodeLevel: levelEncoder,
		TimeKey:     "time",
		EncodeTime: func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format("2006-01-02T15:04:05.000000Z"))
		},
		CallerKey:        "caller",
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		NameKey:          "name",
		ConsoleSeparator: "\t",
	}
}

// SetGlobalLogger replaces zap's global logger. Console output goes to stderr so that
// stdout stays clean for the init container; logFilePath adds a rotated JSON sink.
func SetGlobalLogger(levelName, levelEncoderName, logFormat, logFilePath string) error {
	level, err := parseConfigLevel(levelName)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	cfg := encoderConfig(parseConfigLevelEncoder(levelEncoderName))

	var enc zapcore.Encoder
	switch logFormat {
	case FormatConsole, "":
		enc = zapcore.NewConsoleEncoder(cfg)
	case FormatJSON:
		enc = zapcore.NewJSONEncoder(cfg)
	default:
		return fmt.Errorf("unknown log format %q", logFormat)
	}

	consoleCore := zapcore.NewCore(enc, zapcore.Lock(os.Stderr), zap.NewAtomicLevelAt(level))

	if logFilePath == "" {
		zap.ReplaceGlobals(zap.New(consoleCore))
		return nil
	}

	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(getFileWriter(logFilePath)),
		zap.DebugLevel, // file sink keeps everything
	)

	zap.ReplaceGlobals(zap.New(zapcore.NewTee(consoleCore, fileCore)))

	return nil
}

// CapturePanic logs a recovered panic with its stack trace and panics again.
// It must be deferred directly.
func CapturePanic(logger *zap.Logger) {
	if r := recover(); r != nil {
		defer func() {
			if err := logger.Sync(); err != nil {
				log.Println("failed to sync zap.Logger", err)
			}
		}()
		stackTrace := string(debug.Stack())
		logger.Panic("Recovered from panic", zap.Any("panic", r), zap.String("stackTrace", stackTrace))
	}
}

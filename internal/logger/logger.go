package logger

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	sugar *zap.SugaredLogger
	atom  zap.AtomicLevel
)

func init() {
	atom = zap.NewAtomicLevelAt(zap.InfoLevel)
	sugar = build(consoleCore(true))
}

func build(cores ...zapcore.Core) *zap.SugaredLogger {
	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
	return l.Sugar()
}

func consoleCore(color bool) zapcore.Core {
	return zapcore.NewCore(encoder(color), zapcore.Lock(os.Stderr), atom)
}

func encoder(color bool) zapcore.Encoder {
	config := zap.NewDevelopmentEncoderConfig()
	config.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		config.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	config.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	config.CallerKey = "caller"
	config.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(config)
}

// SetLevel sets the global log level. Unknown names leave the level unchanged.
func SetLevel(l string) error {
	if l == "" {
		return nil
	}
	if strings.EqualFold(l, "warning") {
		l = "warn"
	}
	lvl, err := zapcore.ParseLevel(strings.ToLower(l))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", l, err)
	}
	atom.SetLevel(lvl)
	return nil
}

// Configure applies the level and, when path is set, tees output into a
// rotating log file.
func Configure(level, path string) error {
	if err := SetLevel(level); err != nil {
		return err
	}
	cores := []zapcore.Core{consoleCore(true)}
	if path != "" {
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(encoder(false), w, atom))
	}
	sugar = build(cores...)
	return nil
}

// StdLog returns a standard library logger writing at WARN, for packages
// such as net/http that only accept a *log.Logger.
func StdLog(prefix string) *log.Logger {
	l, err := zap.NewStdLogAt(sugar.Desugar().Named(prefix), zap.WarnLevel)
	if err != nil {
		return log.Default()
	}
	return l
}

// Sync flushes buffered output.
func Sync() {
	_ = sugar.Sync()
}

func Debug(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

func Info(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func Warn(format string, v ...interface{}) {
	sugar.Warnf(format, v...)
}

func Error(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	sugar.Fatalf(format, v...)
}

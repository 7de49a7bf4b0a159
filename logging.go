package fiber

import (
	"os"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls where and how a Runtime's task-lifecycle logging goes.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"` // "json" or "console"
	Outputs     []string `mapstructure:"outputs"`
	Development bool     `mapstructure:"development"`
	Rotation    RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures lumberjack-backed file rotation for any output
// in LogConfig.Outputs that is not "stdout"/"stderr".
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultLogConfig returns the logging defaults used when a Runtime is
// built without an explicit [Config].
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:   "info",
		Format:  "console",
		Outputs: []string{"stdout"},
	}
}

var globalLogger atomic.Pointer[zap.Logger]

// SetupLogging builds a zap.Logger from c, installs it as the package-wide
// logger used for task lifecycle events, and replaces zap's own globals.
// The caller should defer logger.Sync().
func SetupLogging(c LogConfig) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	switch strings.ToLower(c.Level) {
	case "debug":
		level.SetLevel(zap.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zap.WarnLevel)
	case "error":
		level.SetLevel(zap.ErrorLevel)
	default:
		level.SetLevel(zap.InfoLevel)
	}

	encCfg := zap.NewProductionEncoderConfig()
	if c.Development {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	var cores []zapcore.Core
	for _, out := range outputs {
		switch strings.ToLower(out) {
		case "stdout":
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
		case "stderr":
			cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level))
		default:
			var ws zapcore.WriteSyncer
			if c.Rotation.Enable {
				ws = zapcore.AddSync(&lumberjack.Logger{
					Filename:   pickRotationFilename(out, c.Rotation),
					MaxSize:    atLeast(c.Rotation.MaxSizeMB, 10),
					MaxBackups: atLeast(c.Rotation.MaxBackups, 1),
					MaxAge:     atLeast(c.Rotation.MaxAgeDays, 7),
					Compress:   c.Rotation.Compress,
				})
			} else {
				f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					ws = zapcore.AddSync(os.Stderr)
				} else {
					ws = zapcore.AddSync(f)
				}
			}
			cores = append(cores, zapcore.NewCore(encoder, ws, level))
		}
	}

	core := zapcore.NewTee(cores...)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
	if c.Development {
		opts = append(opts, zap.Development())
	}

	logger := zap.New(core, opts...)
	zap.ReplaceGlobals(logger)
	globalLogger.Store(logger)
	return logger, nil
}

func pickRotationFilename(out string, r RotationConfig) string {
	if strings.TrimSpace(r.Filename) != "" {
		return r.Filename
	}
	return out
}

func atLeast(v, min int) int {
	if v > min {
		return v
	}
	return min
}

func currentLogger() *zap.Logger {
	return globalLogger.Load()
}

// taskEventKind distinguishes the three lifecycle points a Task's body
// passes through that get logged: dispatch, normal return, and panic.
type taskEventKind int

const (
	eventStart taskEventKind = iota
	eventEnd
	eventFail
)

func logTaskEvent(t *Task, kind taskEventKind) {
	l := currentLogger()
	if l == nil {
		return
	}
	switch kind {
	case eventStart:
		l.Debug("fiber: task dispatched", zap.Uint32("run", t.runCount.Load()))
	case eventEnd:
		l.Debug("fiber: task ended", zap.Uint32("run", t.runCount.Load()))
	case eventFail:
		// eventFail is logged by logTaskPanic with the panic attached;
		// this branch exists so taskEventKind stays exhaustive.
	}
}

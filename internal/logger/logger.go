package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志初始化参数
type Options struct {
	Level  string
	Output string // stdout, stderr, file
	Rotate RotateOptions
}

// RotateOptions 文件输出的轮转参数
type RotateOptions struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger 包装 zap，保留 printf 风格调用
type Logger struct {
	zl *zap.Logger
}

var std = build(zapcore.InfoLevel, zapcore.Lock(os.Stdout))

// Init 根据参数替换全局日志器
func Init(opts Options) error {
	level := ParseLevel(opts.Level)

	var ws zapcore.WriteSyncer
	switch strings.ToLower(opts.Output) {
	case "file":
		if opts.Rotate.File == "" {
			return fmt.Errorf("log file path is required when output is file")
		}
		ws = zapcore.AddSync(rotatingWriter(opts.Rotate))
	case "stderr":
		ws = zapcore.Lock(os.Stderr)
	default:
		ws = zapcore.Lock(os.Stdout)
	}

	replace(build(level, ws))
	return nil
}

func rotatingWriter(r RotateOptions) io.Writer {
	return &lumberjack.Logger{
		Filename:   r.File,
		MaxSize:    orDefault(r.MaxSizeMB, 100),
		MaxBackups: orDefault(r.MaxBackups, 3),
		MaxAge:     orDefault(r.MaxAgeDays, 28),
		Compress:   true,
	}
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func build(level zapcore.Level, ws zapcore.WriteSyncer) *Logger {
	encoder := zapcore.NewJSONEncoder(productionEncoding())
	if level == zapcore.DebugLevel {
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	}

	core := zapcore.NewCore(encoder, ws, zap.NewAtomicLevelAt(level))
	return &Logger{zl: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))}
}

func productionEncoding() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.MessageKey = "message"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.DateTime)
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg
}

// ParseLevel 无法识别时回退到 info
func ParseLevel(s string) zapcore.Level {
	if strings.EqualFold(s, "warning") {
		return zapcore.WarnLevel
	}
	level, err := zapcore.ParseLevel(strings.ToLower(s))
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

func replace(l *Logger) {
	if std != nil {
		std.Sync()
	}
	std = l
}

func (l *Logger) log(level zapcore.Level, format string, args []interface{}) {
	if ce := l.zl.Check(level, ""); ce != nil {
		ce.Message = fmt.Sprintf(format, args...)
		ce.Write()
	}
}

func (l *Logger) Debug(format string, args ...interface{}) { l.log(zapcore.DebugLevel, format, args) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(zapcore.InfoLevel, format, args) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(zapcore.WarnLevel, format, args) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(zapcore.ErrorLevel, format, args) }
func (l *Logger) Fatal(format string, args ...interface{}) { l.log(zapcore.FatalLevel, format, args) }

// Sync 刷新缓冲
func (l *Logger) Sync() {
	_ = l.zl.Sync()
}

// With 返回带结构化字段的日志器
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

func Debug(format string, args ...interface{}) { std.log(zapcore.DebugLevel, format, args) }
func Info(format string, args ...interface{})  { std.log(zapcore.InfoLevel, format, args) }
func Warn(format string, args ...interface{})  { std.log(zapcore.WarnLevel, format, args) }
func Error(format string, args ...interface{}) { std.log(zapcore.ErrorLevel, format, args) }
func Fatal(format string, args ...interface{}) { std.log(zapcore.FatalLevel, format, args) }

func Sync() { std.Sync() }

func With(fields ...zap.Field) *Logger { return std.With(fields...) }

// Writer 交给 gorm logger.New 的输出，SQL 日志按 info 级别写入
func Writer() interface {
	Printf(format string, args ...interface{})
} {
	return gormWriter{}
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	std.log(zapcore.InfoLevel, format, args)
}

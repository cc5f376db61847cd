package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls log level, encoding and destination.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	Output     string // stdout, stderr, or a file path
	TimeFormat string
}

// Logger wraps zerolog with typed fields and an optional error
// aggregation collector.
type Logger struct {
	zl        zerolog.Logger
	collector *LogCollector
}

// New builds a logger from cfg.
func New(cfg *Config) (*Logger, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	var out io.Writer
	switch cfg.Output {
	case "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	tf := cfg.TimeFormat
	if tf == "" {
		tf = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = tf

	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: tf}
	}

	zl := zerolog.New(out).
		With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()

	return &Logger{zl: zl}, nil
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) emit(ev *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		f.apply(ev)
	}
	ev.Msg(msg)
}

// AddCollector attaches a collector that aggregates error logs for
// the debug endpoint. Replaces any existing collector.
func (l *Logger) AddCollector(cfg *CollectionConfig) {
	if l.collector != nil {
		l.collector.Close()
	}
	l.collector = NewLogCollector(cfg)
}

// Collector returns the attached collector, or nil.
func (l *Logger) Collector() *LogCollector { return l.collector }

// RemoveCollector flushes and detaches the collector.
func (l *Logger) RemoveCollector() {
	if l.collector != nil {
		l.collector.Close()
		l.collector = nil
	}
}

func (l *Logger) collect(level, msg string, fields []Field) {
	if l.collector == nil {
		return
	}

	// Skip collect and the Error wrapper to reach the call site.
	_, file, line, ok := runtime.Caller(2)
	caller := "unknown"
	if ok {
		if i := strings.LastIndex(file, "market-workflow-app"); i >= 0 {
			file = file[i+len("market-workflow-app"):]
		}
		caller = fmt.Sprintf("%s:%d", file, line)
	}

	kv := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.pair()
		kv[k] = v
	}
	l.collector.Record(level, msg, kv, caller)
}

// Field is a typed structured-log attribute.
type Field interface {
	apply(ev *zerolog.Event)
	pair() (string, interface{})
}

type stringField struct {
	key string
	val string
}

func (f stringField) apply(ev *zerolog.Event)     { ev.Str(f.key, f.val) }
func (f stringField) pair() (string, interface{}) { return f.key, f.val }

type intField struct {
	key string
	val int64
}

func (f intField) apply(ev *zerolog.Event)     { ev.Int64(f.key, f.val) }
func (f intField) pair() (string, interface{}) { return f.key, f.val }

type floatField struct {
	key string
	val float64
}

func (f floatField) apply(ev *zerolog.Event)     { ev.Float64(f.key, f.val) }
func (f floatField) pair() (string, interface{}) { return f.key, f.val }

type boolField struct {
	key string
	val bool
}

func (f boolField) apply(ev *zerolog.Event)     { ev.Bool(f.key, f.val) }
func (f boolField) pair() (string, interface{}) { return f.key, f.val }

type errField struct {
	err error
}

func (f errField) apply(ev *zerolog.Event) { ev.Err(f.err) }

func (f errField) pair() (string, interface{}) {
	if f.err == nil {
		return "error", nil
	}
	return "error", f.err.Error()
}

type anyField struct {
	key string
	val interface{}
}

func (f anyField) apply(ev *zerolog.Event)     { ev.Interface(f.key, f.val) }
func (f anyField) pair() (string, interface{}) { return f.key, f.val }

func String(key, value string) Field          { return stringField{key, value} }
func Int(key string, value int) Field         { return intField{key, int64(value)} }
func Int64(key string, value int64) Field     { return intField{key, value} }
func Float64(key string, value float64) Field { return floatField{key, value} }
func Bool(key string, value bool) Field       { return boolField{key, value} }
func Error(err error) Field                   { return errField{err} }
func Any(key string, value interface{}) Field { return anyField{key, value} }

// Duration logs a duration as whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return intField{key, value.Milliseconds()}
}

package logger

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

// Minimal console encoder: calm, single-line output for interactive use.
//
//	15:04:05 cache.gc  pass complete  aged_out=3 lru=1
//
// Errors and warnings get a colored level tag; info lines carry none.
const (
	colorReset  = "\x1b[0m"
	colorDim    = "\x1b[2m"
	colorYellow = "\x1b[38;5;214m"
	colorRed    = "\x1b[38;5;167m"
	colorGreen  = "\x1b[38;5;108m"
)

var bufferPool = buffer.NewPool()

type minimalEncoder struct {
	zapcore.Encoder
	pool buffer.Pool
}

func newMinimalEncoder() zapcore.Encoder {
	cfg := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "ts",
		NameKey:        "logger",
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	return &minimalEncoder{
		Encoder: zapcore.NewJSONEncoder(cfg),
		pool:    bufferPool,
	}
}

func (e *minimalEncoder) Clone() zapcore.Encoder {
	return &minimalEncoder{
		Encoder: e.Encoder.Clone(),
		pool:    e.pool,
	}
}

func (e *minimalEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := e.pool.Get()

	line.AppendString(colorDim)
	line.AppendString(entry.Time.Format("15:04:05"))
	line.AppendString(colorReset)
	line.AppendString(" ")

	switch entry.Level {
	case zapcore.WarnLevel:
		line.AppendString(colorYellow)
		line.AppendString("WARN")
		line.AppendString(colorReset)
		line.AppendString(" ")
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		line.AppendString(colorRed)
		line.AppendString("ERROR")
		line.AppendString(colorReset)
		line.AppendString(" ")
	}

	if entry.LoggerName != "" {
		line.AppendString(colorGreen)
		line.AppendString(entry.LoggerName)
		line.AppendString(colorReset)
		line.AppendString("  ")
	}

	line.AppendString(entry.Message)

	for _, f := range fields {
		line.AppendString("  ")
		line.AppendString(colorDim)
		line.AppendString(f.Key)
		line.AppendString("=")
		line.AppendString(colorReset)
		line.AppendString(fieldValueString(f))
	}

	line.AppendString("\n")
	return line, nil
}

// fieldValueString renders a zap field compactly for console output
func fieldValueString(f zapcore.Field) string {
	switch f.Type {
	case zapcore.StringType:
		return f.String
	case zapcore.BoolType:
		if f.Integer == 1 {
			return "true"
		}
		return "false"
	case zapcore.Int64Type, zapcore.Int32Type, zapcore.Int16Type, zapcore.Int8Type,
		zapcore.Uint64Type, zapcore.Uint32Type, zapcore.Uint16Type, zapcore.Uint8Type:
		return fmt.Sprintf("%d", f.Integer)
	case zapcore.Float64Type:
		return fmt.Sprintf("%g", math.Float64frombits(uint64(f.Integer)))
	case zapcore.DurationType:
		return time.Duration(f.Integer).String()
	case zapcore.ErrorType:
		if err, ok := f.Interface.(error); ok {
			return err.Error()
		}
	}
	return fmt.Sprintf("%v", f.Interface)
}

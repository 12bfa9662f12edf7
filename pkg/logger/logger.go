package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

var level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

func init() {
	if lv, err := zapcore.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && os.Getenv("LOG_LEVEL") != "" {
		level.SetLevel(lv)
	}

	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = level
	config.Sampling = nil // 產生資料時每個略過都要記錄，不做取樣
	var err error
	L, err = config.Build()
	if err != nil {
		panic(err)
	}
}

// WithComponent 回傳帶有 component 欄位的 logger，供 pipeline、service、worker 等使用
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}

// SetLevel 調整全域 log 等級（CLI 的 -v 旗標）
func SetLevel(l zapcore.Level) {
	level.SetLevel(l)
}

func Sync() {
	_ = L.Sync()
}

type runIDKey struct{}

// ContextWithRunID 把這次執行的 run_id 放進 context，之後用 Ctx 取出的 logger 都會帶上
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Ctx 回傳加上 run_id 欄位的 logger；context 沒有 run_id 時原樣回傳
func Ctx(ctx context.Context, l *zap.Logger) *zap.Logger {
	if id := RunID(ctx); id != "" {
		return l.With(zap.String("run_id", id))
	}
	return l
}

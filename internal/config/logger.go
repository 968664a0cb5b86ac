package config

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	learnerKey   ctxKey = "learner"
)

var Logger = logrus.New()

// InitLogger configures the process-wide logger. Production uses JSON output.
func InitLogger(cfg *Config) {
	Logger.SetOutput(os.Stdout)

	if cfg.IsProduction() {
		Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func ContextWithLearner(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, learnerKey, email)
}

func WithContext(ctx context.Context) logrus.FieldLogger {
	entry := logrus.NewEntry(Logger)
	if ctx == nil {
		return entry
	}
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		entry = entry.WithField("request_id", id)
	}
	if email, ok := ctx.Value(learnerKey).(string); ok && email != "" {
		entry = entry.WithField("learner", email)
	}
	return entry
}

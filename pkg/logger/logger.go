package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/checkout-flow/pkg/env"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger. An empty Format falls back to
// LOG_FORMAT and then to JSON.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	Format      string
	WarnStack   bool
	Output      io.Writer
}

// Logger writes zerolog entries enriched with fields carried on the context.
// A nil *Logger discards everything.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	if opts.Format == "" {
		opts.Format = env.Get("LOG_FORMAT", FormatJSON)
	}

	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	if strings.EqualFold(opts.Format, FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(output).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)

	return &Logger{base: &base, warnStack: opts.WarnStack}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return New(Options{ServiceName: "nop", Level: zerolog.Disabled, Format: FormatJSON, Output: io.Discard})
}

func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if e, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return e
		}
	}
	if l == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, e zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &e)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.attach(ctx, l.entry(ctx).With().Interface(key, value).Logger())
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	builder := l.entry(ctx).With()
	for k, v := range fields {
		builder = builder.Interface(k, v)
	}
	return l.attach(ctx, builder.Logger())
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

// WithSessionID tags entries with the checkout session they belong to.
func (l *Logger) WithSessionID(ctx context.Context, sessionID string) context.Context {
	return l.WithField(ctx, "session_id", sessionID)
}

func (l *Logger) WithUserID(ctx context.Context, userID int) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

// WithStep tags entries with the checkout step being worked on.
func (l *Logger) WithStep(ctx context.Context, step string) context.Context {
	return l.WithField(ctx, "step", step)
}

// WithOrderID tags entries with an accepted order.
func (l *Logger) WithOrderID(ctx context.Context, orderID string) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.entry(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.entry(ctx).Warn()
	if l != nil && l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.entry(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}

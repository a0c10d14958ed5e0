package logctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type Handler struct {
	slog.Handler
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		r.AddAttrs(slog.Group("req",
			slog.String("id", rd.RequestID),
			slog.String("method", rd.Method),
			slog.String("user_agent", rd.UserAgent),
			slog.String("remote_addr", rd.RemoteAddr),
			slog.String("path", rd.Path),
		))
	}

	if ad, ok := ctx.Value(attemptDataKey{}).(*AttemptData); ok {
		r.AddAttrs(slog.Group("authn",
			slog.String("attempt_id", ad.AttemptID),
			slog.String("strategy", ad.Strategy),
			slog.String("alg", ad.Alg),
			slog.String("kid", ad.KeyID),
		))
	}

	return h.Handler.Handle(ctx, r)
}

func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type requestDataKey struct{}

type RequestData struct {
	RequestID  string
	Method     string
	UserAgent  string
	RemoteAddr string
	Path       string
}

func WithRequestData(ctx context.Context, data *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, data)
}

type attemptDataKey struct{}

// AttemptData describes one authentication attempt. Alg and KeyID come from
// the unverified header and are recorded for diagnostics only.
type AttemptData struct {
	AttemptID string
	Strategy  string
	Alg       string
	KeyID     string
}

// WithAttemptData starts a new attempt record with a fresh id. The returned
// pointer may be filled in as the header is decoded.
func WithAttemptData(ctx context.Context, strategy string) (context.Context, *AttemptData) {
	ad := &AttemptData{AttemptID: uuid.NewString(), Strategy: strategy}
	return context.WithValue(ctx, attemptDataKey{}, ad), ad
}

// Attempt returns the attempt record in ctx, if any.
func Attempt(ctx context.Context) (*AttemptData, bool) {
	ad, ok := ctx.Value(attemptDataKey{}).(*AttemptData)
	return ad, ok
}

package middlewarex

import "context"

type ctxKey string

const (
	ctxSessionID ctxKey = "session_id"
)

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxSessionID, sessionID)
}

func SessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxSessionID).(string)
	return v, ok && v != ""
}

package middleware

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	branchKey    contextKey = "branch"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	v, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return v
}

// WithBranch records the branch the caller is acting for.
func WithBranch(ctx context.Context, branchID int64) context.Context {
	return context.WithValue(ctx, branchKey, branchID)
}

func BranchFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(branchKey).(int64)
	return v, ok && v > 0
}

package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/accounts/pkg/logger"
)

// Key represents a context value key exported for reuse.
type Key string

const (
	KeyRemoteAddr Key = "remote_addr"
	KeyUserAgent  Key = "user_agent"
	KeyUserID     Key = "user_id"
)

// UserValueIdentity is the fasthttp user value under which the auth
// middleware stores the authenticated account id.
const UserValueIdentity = "identity.user_id"

// Adapter converts fasthttp.RequestCtx into a stdlib context with deadlines and metadata.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs a new Adapter using the provided timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{
		timeout: timeout,
	}
}

// Attach creates a context with timeout derived from the adapter and enriches
// it with request metadata and the caller identity, when present.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	reqID := RequestID(ctx)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)

	if remoteAddr := ctx.RemoteAddr(); remoteAddr != nil {
		stdCtx = context.WithValue(stdCtx, KeyRemoteAddr, remoteAddr.String())
	}
	if ua := string(ctx.Request.Header.UserAgent()); ua != "" {
		stdCtx = context.WithValue(stdCtx, KeyUserAgent, ua)
	}
	if userID, ok := ctx.UserValue(UserValueIdentity).(string); ok && userID != "" {
		stdCtx = WithUserID(stdCtx, userID)
	}

	return stdCtx, cancel
}

// RequestID returns the request id of ctx, generating and echoing one in the
// response headers on first use.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if ctx == nil {
		return uuid.NewString()
	}
	if existing := string(ctx.Response.Header.Peek("X-Request-ID")); existing != "" {
		return existing
	}
	reqID := string(ctx.Request.Header.Peek("X-Request-ID"))
	if strings.TrimSpace(reqID) == "" {
		reqID = uuid.NewString()
	}
	ctx.Response.Header.Set("X-Request-ID", reqID)
	return reqID
}

// WithUserID stores the authenticated account id in ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, KeyUserID, userID)
}

// UserID returns the authenticated account id carried by ctx.
func UserID(ctx context.Context) string {
	userID, _ := ctx.Value(KeyUserID).(string)
	return userID
}

package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/accounts/pkg/logger"
)

func TestAttach_PropagatesMetadata(t *testing.T) {
	var rc fasthttp.RequestCtx
	rc.Request.Header.Set("X-Request-ID", "req-42")
	rc.Request.Header.SetUserAgent("tests")
	rc.SetUserValue(UserValueIdentity, "user-1")

	ctx, cancel := NewAdapter(time.Second).Attach(&rc)
	defer cancel()

	assert.Equal(t, "req-42", appLogger.RequestID(ctx))
	assert.Equal(t, "req-42", string(rc.Response.Header.Peek("X-Request-ID")))
	assert.Equal(t, "tests", ctx.Value(KeyUserAgent))
	assert.Equal(t, "user-1", UserID(ctx))

	deadline, ok := ctx.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestAttach_GeneratesRequestID(t *testing.T) {
	var rc fasthttp.RequestCtx

	ctx, cancel := NewAdapter(0).Attach(&rc)
	defer cancel()

	reqID := appLogger.RequestID(ctx)
	assert.NotEmpty(t, reqID)
	assert.Equal(t, reqID, RequestID(&rc), "request id is stable within a request")
	assert.Empty(t, UserID(ctx))
}

func TestUserID_RoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "u")
	assert.Equal(t, "u", UserID(ctx))
}

package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/internal/security"
	"github.com/fastygo/accounts/pkg/httpcontext"
)

// TokenParser validates access tokens.
type TokenParser interface {
	Parse(token, tokenType string) (*security.Claims, error)
}

// JWTAuth admits requests carrying a valid bearer access token and stores the
// caller's account id as a request user value. Anything else gets a 401.
func JWTAuth(tokens TokenParser, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString, ok := extractToken(ctx)
			if !ok {
				unauthorized(ctx, domain.ErrUnauthenticated.Message)
				return
			}

			claims, err := tokens.Parse(tokenString, security.TokenTypeAccess)
			if err != nil {
				logger.Warn("invalid access token",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(err))
				unauthorized(ctx, domain.ErrTokenInvalid.Message)
				return
			}

			ctx.SetUserValue(httpcontext.UserValueIdentity, claims.UserID)
			next(ctx)
		}
	}
}

func extractToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	body, _ := json.Marshal(transport.NewError(string(domain.ErrCodeUnauthenticated), message))
	ctx.Response.Header.SetContentType("application/json")
	ctx.Response.Header.Set("WWW-Authenticate", `Bearer realm="api"`)
	ctx.SetStatusCode(fasthttp.StatusUnauthorized)
	ctx.SetBody(body)
}

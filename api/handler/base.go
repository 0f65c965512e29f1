package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/httpcontext"
	"github.com/fastygo/accounts/pkg/logger"
)

const internalErrorMessage = "Une erreur interne est survenue."

var validate = validator.New(validator.WithRequiredStructEnabled())

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

// decode unmarshals and validates the request body, answering 400 itself when
// either step fails.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst interface{}) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), domain.ErrInvalidPayload.Message))
		return false
	}
	if err := validate.Struct(dst); err != nil {
		h.logger.Debug("request validation failed",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), domain.ErrInvalidPayload.Message))
		return false
	}
	return true
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("encode response", zap.Error(err))
		ctx.SetStatusCode(http.StatusInternalServerError)
		return
	}
	ctx.SetBody(body)
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, status int, message string) {
	h.respondJSON(ctx, status, transport.NewMessage(message))
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, code := mapError(err)
	if status == http.StatusInternalServerError {
		logger.WithRequestID(stdCtx, h.logger).Error("request failed",
			zap.String("path", string(ctx.Path())),
			zap.Error(err))
		h.respondJSON(ctx, status, transport.NewError(code, internalErrorMessage))
		return
	}

	message := err.Error()
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		message = dErr.Message
	}
	h.respondJSON(ctx, status, transport.NewError(code, message))
}

func mapError(err error) (int, string) {
	code, ok := domain.CodeOf(err)
	if !ok {
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
	switch code {
	case domain.ErrCodeUnauthenticated:
		return http.StatusUnauthorized, string(code)
	case domain.ErrCodeDuplicateUsername,
		domain.ErrCodeInvalidLink,
		domain.ErrCodeAlreadyVerified,
		domain.ErrCodeInvalid:
		return http.StatusBadRequest, string(code)
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	default:
		return http.StatusInternalServerError, string(domain.ErrCodeInternal)
	}
}

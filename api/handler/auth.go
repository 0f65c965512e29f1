package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/pkg/httpcontext"
	authUC "github.com/fastygo/accounts/usecase/auth"
)

// AuthHandler serves login and token refresh.
type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

// NewAuthHandler constructs the token endpoints handler.
func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Obtain an access/refresh token pair
// @Tags auth
// @Router /api/login/ [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pair, err := h.uc.Login(stdCtx, req.Username, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, pair)
}

// @Summary Exchange a refresh token for a new access token
// @Tags auth
// @Router /api/token/refresh/ [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	var req transport.RefreshRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	access, err := h.uc.Refresh(stdCtx, req.Refresh)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.AccessBody{Access: access})
}

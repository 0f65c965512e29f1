package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/domain"
	"github.com/fastygo/accounts/pkg/httpcontext"
	accountUC "github.com/fastygo/accounts/usecase/account"
)

const (
	msgSignupSucceeded = "Utilisateur créé avec succès.Veuillez vérifier votre email"
	msgEmailVerified   = "Votre email a été vérifié avec succès."
)

// AccountHandler serves signup, email verification and the public user list.
type AccountHandler struct {
	baseHandler
	uc *accountUC.UseCase
}

// NewAccountHandler wires the account use case into HTTP handlers.
func NewAccountHandler(uc *accountUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new account
// @Tags accounts
// @Accept json
// @Produce json
// @Router /api/signup/ [post]
func (h *AccountHandler) Signup(ctx *fasthttp.RequestCtx) {
	var req transport.SignupRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.uc.Signup(stdCtx, accountUC.SignupInput{
		Username: *req.Username,
		Password: *req.Password,
		Email:    *req.Email,
	})
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMessage(ctx, http.StatusCreated, msgSignupSucceeded)
}

// @Summary Verify an email address
// @Tags accounts
// @Router /verify-email/{token}/ [get]
func (h *AccountHandler) VerifyEmail(ctx *fasthttp.RequestCtx) {
	token, _ := ctx.UserValue("token").(string)
	if token == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalidLink), domain.ErrInvalidLink.Message))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.VerifyEmail(stdCtx, token); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, msgEmailVerified)
}

// @Summary List accounts
// @Tags accounts
// @Success 200 {array} domain.PublicAccount
// @Router /users/ [get]
func (h *AccountHandler) ListUsers(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	users, err := h.uc.ListUsers(stdCtx)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, users)
}

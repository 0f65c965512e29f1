package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/accounts/api/transport"
	"github.com/fastygo/accounts/pkg/httpcontext"
	accountUC "github.com/fastygo/accounts/usecase/account"
)

const msgProfileUpdated = "Informations de l'utilisateur modifiées avec succès."

// ProfileHandler serves the authenticated profile endpoints.
type ProfileHandler struct {
	baseHandler
	uc *accountUC.UseCase
}

// NewProfileHandler constructs the profile handler.
func NewProfileHandler(uc *accountUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Get the authenticated profile
// @Tags profile
// @Security Bearer
// @Router /user/ [get]
func (h *ProfileHandler) GetProfile(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	profile, err := h.uc.GetProfile(stdCtx, httpcontext.UserID(stdCtx))
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, profile)
}

// @Summary Update the authenticated profile
// @Tags profile
// @Security Bearer
// @Accept json
// @Router /user/update/ [put]
func (h *ProfileHandler) UpdateProfile(ctx *fasthttp.RequestCtx) {
	var req transport.ProfileUpdateRequest
	if len(ctx.PostBody()) > 0 && !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.UpdateProfile(stdCtx, httpcontext.UserID(stdCtx), req.Patch()); err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondMessage(ctx, http.StatusOK, msgProfileUpdated)
}

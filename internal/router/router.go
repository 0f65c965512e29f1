package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/accounts/api/handler"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Account *apiHandler.AccountHandler
	Profile *apiHandler.ProfileHandler
	Health  *apiHandler.HealthHandler
}

// Middleware wraps a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// New registers all routes. authMiddleware guards the profile endpoints.
func New(handlers Handlers, authMiddleware Middleware) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Token endpoints
	r.POST("/api/login/", handlers.Auth.Login)
	r.POST("/api/token/refresh/", handlers.Auth.Refresh)

	// Accounts
	r.GET("/users/", handlers.Account.ListUsers)
	r.POST("/api/signup/", handlers.Account.Signup)
	r.GET("/verify-email/{token}/", handlers.Account.VerifyEmail)
	// Path used by the emailed verification link.
	r.GET("/api/verify-email/{token}", handlers.Account.VerifyEmail)

	// Protected routes
	r.GET("/user/", authMiddleware(handlers.Profile.GetProfile))
	r.PUT("/user/update/", authMiddleware(handlers.Profile.UpdateProfile))

	return r
}

// Handler wraps the router with the outer middleware chain, outermost first.
func Handler(r *router.Router, outer ...Middleware) fasthttp.RequestHandler {
	h := r.Handler
	for i := len(outer) - 1; i >= 0; i-- {
		h = outer[i](h)
	}
	return h
}

package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/middleware"
	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/internal/service/auth"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

type Handler struct {
	svc     *auth.Service
	limiter *middleware.RateLimiter
}

// NewHandler wires the auth endpoints; limiter throttles login and reset
// requests per client and may be nil.
func NewHandler(svc *auth.Service, limiter *middleware.RateLimiter) *Handler {
	return &Handler{svc: svc, limiter: limiter}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	throttled := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if h.limiter == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{h.limiter.RateLimit(), fn}
	}

	authGroup := public.Group("/auth")
	{
		authGroup.POST("/login", throttled(h.Login)...)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/forgot-password", throttled(h.ForgotPassword)...)
		authGroup.POST("/reset-password", throttled(h.ResetPassword)...)
	}

	session := protected.Group("/auth")
	{
		session.POST("/logout", h.Logout)
		session.POST("/change-password", h.ChangePassword)
	}
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	tokens, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tokens)
}

// Logout revokes the presented access token and, when the body carries
// one, the refresh token too.
func (h *Handler) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		httputil.RespondWithError(c, errors.NewUnauthorized("not authenticated", nil))
		return
	}

	var req model.LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
	}

	if err := h.svc.Logout(c.Request.Context(), claims, req.RefreshToken); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "logged out"})
}

// ForgotPassword answers the same way whether or not the address is known.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req model.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "if the address is registered, a reset link has been sent"})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req model.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "password reset"})
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req model.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	actor := middleware.GetActor(c)
	if err := h.svc.ChangePassword(c.Request.Context(), actor.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"message": "password changed"})
}

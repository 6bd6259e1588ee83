package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/campus-forum/internal/model"
	"github.com/jwalitptl/campus-forum/pkg/errors"
	"github.com/jwalitptl/campus-forum/pkg/httputil"
)

const ContextClaims = "claims"

// routes a user with a pending password reset may still reach
var passwordResetRoutes = []string{
	"/auth/change-password",
	"/auth/logout",
	"/users/me",
}

// TokenValidator checks an access token and returns its claims
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.TokenClaims, error)
}

type AuthMiddleware struct {
	tokens TokenValidator
}

func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and stores its claims in the
// context. Users who must replace their password are held to the routes in
// passwordResetRoutes until they do.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.NewUnauthorized("missing authorization header", nil))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			httputil.RespondWithError(c, errors.NewUnauthorized("invalid authorization format", nil))
			return
		}

		claims, err := m.tokens.ValidateToken(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			httputil.RespondWithError(c, errors.NewUnauthorized("invalid token", err))
			return
		}

		if claims.MustResetPassword && !allowedDuringReset(c.FullPath()) {
			httputil.RespondWithError(c, errors.Forbidden("password change required"))
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func allowedDuringReset(route string) bool {
	for _, suffix := range passwordResetRoutes {
		if strings.HasSuffix(route, suffix) {
			return true
		}
	}
	return false
}

// RequireRole rejects callers whose role is not one of roles. It must run
// after Authenticate.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetClaims(c)
		if !ok {
			httputil.RespondWithError(c, errors.NewUnauthorized("not authenticated", nil))
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}
		httputil.RespondWithError(c, errors.Forbidden("insufficient role"))
	}
}

// GetClaims returns the claims stored by Authenticate
func GetClaims(c *gin.Context) (*model.TokenClaims, bool) {
	v, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*model.TokenClaims)
	return claims, ok
}

// GetActor returns the authenticated caller, or the zero Actor when the
// request is anonymous.
func GetActor(c *gin.Context) model.Actor {
	claims, ok := GetClaims(c)
	if !ok {
		return model.Actor{}
	}
	return claims.Actor()
}

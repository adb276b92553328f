package middleware

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tally/internal/core/apperror"
	appctx "tally/internal/core/context"
)

// HeaderQuickEdit relaxes advisory numbering warnings for rapid entry
// screens.
const HeaderQuickEdit = "X-Quick-Edit"

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid token"))
			c.Abort()
			return
		}

		user.QuickEdit = c.GetHeader(HeaderQuickEdit) == "1"

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID)

		c.Next()
	}
}

// RequireAdmin middleware restricts the route to admin users.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}
		if !user.IsAdmin {
			_ = c.Error(apperror.NewForbidden("admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireCompanyAccess checks that the authenticated user may act on the
// company named by the request. Handlers resolve the company id and call
// appctx.HasCompanyAccess themselves for body-carried ids; this guard
// covers the common :companyId path param.
func RequireCompanyAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		companyID, err := parseInt64Param(c, param)
		if err != nil {
			_ = c.Error(apperror.NewValidation("invalid company id").
				WithDetail("param", param))
			c.Abort()
			return
		}

		if !appctx.HasCompanyAccess(c.Request.Context(), companyID) {
			_ = c.Error(apperror.NewForbidden("no access to company").
				WithDetail("company_id", companyID))
			c.Abort()
			return
		}

		c.Next()
	}
}

func parseInt64Param(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/auth"
	pkgerrors "github.com/trydataflowai/DataflowAI-platform-new-sub000/pkg/errors"
)

// TenantAuth 校验 Bearer JWT 并将租户写入上下文
// skipPaths 中的路径不需要认证。
func TenantAuth(jwtManager *auth.JWTManager, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		claims, err := jwtManager.ValidateToken(strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				abortUnauthorized(c, "token expired")
			case errors.Is(err, auth.ErrMissingTenant):
				abortUnauthorized(c, "token has no tenant")
			default:
				abortUnauthorized(c, "invalid token")
			}
			return
		}

		c.Set(GinTenantIDKey, claims.TenantID)
		c.Set(GinUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(WithTenantID(c.Request.Context(), claims.TenantID))

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	resp := pkgerrors.NewErrorResponse(pkgerrors.ReasonUnauthorized, message).
		WithRequestID(c.GetString(GinRequestIDKey)).
		WithRequest(c.Request.Method, c.Request.URL.Path)
	c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/core/metrics"
	"ausyexpo-backend/internal/policy"
	resp "ausyexpo-backend/internal/transport/http/response"
)

const (
	KeyClaims = "claims"
	KeyUserID = "userId"
	KeyRole   = "role"
)

// bearer 取 Authorization: Bearer <token>，scheme 大小写不敏感
func bearer(c *gin.Context) string {
	ah := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[7:])
}

// Authenticate 验证令牌并把 claims 放进上下文；失败统一 401 "invalid token"
func Authenticate(tokens policy.TokenValidator, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := tokens.Validate(bearer(c))
		if err != nil {
			metrics.AuthzDenied.WithLabelValues(string(policy.ReasonUnauthenticated)).Inc()
			l.Info("token rejected",
				zap.String("rid", c.GetString(KeyRequestID)),
				zap.String("kind", auth.Kind(err)),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role.String())
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(KeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok && claims != nil
}

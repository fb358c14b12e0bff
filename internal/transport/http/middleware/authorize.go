package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ausyexpo-backend/internal/core/metrics"
	"ausyexpo-backend/internal/policy"
	resp "ausyexpo-backend/internal/transport/http/response"
)

// Authorize 按 (method, FullPath) 查授权表；须挂在 Authenticate 之后。
// 拒绝时只回 "forbidden"，不提示需要哪些角色
func Authorize(a *policy.Authorizer, m *policy.Matrix, l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			metrics.AuthzDenied.WithLabelValues(string(policy.ReasonUnauthenticated)).Inc()
			c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeUnauthorized, "invalid token"))
			return
		}
		rule, found := m.Lookup(c.Request.Method, c.FullPath())
		if !found {
			deny(c, l, policy.ReasonNoRule, claims.UID)
			return
		}
		var ownerID string
		if rule.OwnerParam != "" {
			ownerID = c.Param(rule.OwnerParam)
		}
		d := a.Evaluate(claims, rule.Roles, ownerID)
		if !d.Allowed {
			deny(c, l, d.Reason, claims.UID)
			return
		}
		c.Next()
	}
}

func deny(c *gin.Context, l *zap.Logger, reason policy.Reason, uid string) {
	metrics.AuthzDenied.WithLabelValues(string(reason)).Inc()
	l.Info("access denied",
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("uid", uid),
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.String("reason", string(reason)),
	)
	c.AbortWithStatusJSON(http.StatusOK, resp.Error(resp.CodeForbidden, "forbidden"))
}

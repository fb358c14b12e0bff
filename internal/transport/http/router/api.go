package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"ausyexpo-backend/internal/core/config"
	"ausyexpo-backend/internal/core/server"
	"ausyexpo-backend/internal/policy"
	mdw "ausyexpo-backend/internal/transport/http/middleware"
	resp "ausyexpo-backend/internal/transport/http/response"
)

type Deps struct {
	Log     *zap.Logger
	HTTP    config.HTTP
	Tokens  policy.TokenValidator
	Matrix  *policy.Matrix
	Modules *Registry
	Health  func(ctx context.Context) error // 可为 nil
}

// withDefaults 零值配置（测试里常见）换成可用的默认值
func withDefaults(h config.HTTP) config.HTTP {
	if h.RequestTimeout <= 0 {
		h.RequestTimeout = 10 * time.Second
	}
	if h.MaxBodyBytes <= 0 {
		h.MaxBodyBytes = 16 << 20
	}
	if h.RateLimit <= 0 {
		h.RateLimit = 200
	}
	if h.RateBurst <= 0 {
		h.RateBurst = 400
	}
	if h.SignInRate <= 0 {
		h.SignInRate = 1
	}
	if h.SignInBurst <= 0 {
		h.SignInBurst = 20
	}
	if h.MaxConcurrency <= 0 {
		h.MaxConcurrency = 300
	}
	return h
}

func NewAPIEngine(d Deps) *gin.Engine {
	h := withDefaults(d.HTTP)
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	matrix := d.Matrix
	if matrix == nil {
		matrix = policy.DefaultMatrix()
	}
	mods := d.Modules
	if mods == nil {
		mods = &Registry{}
	}

	r := server.NewRouter(log, h.CORSOrigins)
	r.Use(
		mdw.RequestID(),
		mdw.Metrics(),
		mdw.AccessLog(log.Named("http")),
		mdw.RateLimit(rate.Limit(h.RateLimit), h.RateBurst),
		mdw.ConcurrencyLimit(h.MaxConcurrency),
		mdw.MaxBodyBytes(h.MaxBodyBytes),
		mdw.Timeout(h.RequestTimeout),
	)

	r.GET("/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusOK, resp.Error(resp.CodeUnavailable, "unhealthy"))
				return
			}
		}
		c.JSON(http.StatusOK, resp.OK(gin.H{"ok": 1}))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(policy.APIPrefix)

	// 登录注册：额外按 IP 限速
	public := api.Group("", mdw.RateLimitPerIP(rate.Limit(h.SignInRate), h.SignInBurst))
	mods.MountAllPublic(public)

	// 其余接口：先认证，再按授权表判定
	protected := api.Group("",
		mdw.Authenticate(d.Tokens, log.Named("authn")),
		mdw.Authorize(policy.NewAuthorizer(d.Tokens), matrix, log.Named("authz")),
	)
	mods.MountAllAPI(protected)

	return r
}

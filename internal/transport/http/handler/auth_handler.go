package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ausyexpo-backend/internal/domain"
	"ausyexpo-backend/internal/service"
	httpez "ausyexpo-backend/internal/transport/http/ez"
)

// AuthHandler 公开的登录/注册
type AuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

func NewAuthHandler(svc *service.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, log: log}
}

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) MountPublic(g *gin.RouterGroup) {
	e := httpez.New(g, h.log)

	httpez.RegisterAction(e, httpez.Action[service.SignInInput, *service.SignInResult]{
		Method: http.MethodPost,
		Path:   "/auth/signin",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignInInput) (*service.SignInResult, error) {
			return h.svc.SignIn(c.Request.Context(), *in)
		},
	})

	httpez.RegisterAction(e, httpez.Action[service.SignUpInput, *domain.UserView]{
		Method: http.MethodPost,
		Path:   "/auth/signup",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.SignUpInput) (*domain.UserView, error) {
			return h.svc.SignUp(c.Request.Context(), *in)
		},
	})
}

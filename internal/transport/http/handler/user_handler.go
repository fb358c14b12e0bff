package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ausyexpo-backend/internal/domain"
	"ausyexpo-backend/internal/service"
	httpez "ausyexpo-backend/internal/transport/http/ez"
	mdw "ausyexpo-backend/internal/transport/http/middleware"
)

// UserHandler /users 下的管理与自助接口；谁能调由授权表决定
type UserHandler struct {
	svc *service.UserService
	log *zap.Logger
}

func NewUserHandler(svc *service.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

type listQ struct {
	Page int `form:"page,default=1"`
	Size int `form:"size,default=20"`
}

type roleIn struct {
	Role string `json:"role"`
}

type idOut struct {
	ID string `json:"id"`
}

func caller(c *gin.Context) (uid string, role domain.Role) {
	if claims, ok := mdw.ClaimsFrom(c); ok {
		return claims.UID, claims.Role
	}
	return "", ""
}

func (h *UserHandler) MountAPI(g *gin.RouterGroup) {
	e := httpez.New(g, h.log)

	httpez.RegisterAction(e, httpez.Action[listQ, *service.Page]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (*service.Page, error) {
			return h.svc.List(c.Request.Context(), in.Page, in.Size)
		},
	})

	httpez.RegisterAction(e, httpez.Action[service.CreateUserInput, *domain.UserView]{
		Method: http.MethodPost,
		Path:   "/users",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (*domain.UserView, error) {
			return h.svc.Create(c.Request.Context(), *in)
		},
	})

	// 当前用户
	httpez.RegisterAction(e, httpez.Action[struct{}, *domain.UserView]{
		Method: http.MethodGet,
		Path:   "/users/profile",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.UserView, error) {
			uid, _ := caller(c)
			return h.svc.Get(c.Request.Context(), uid)
		},
	})

	httpez.RegisterAction(e, httpez.Action[service.ProfileInput, *domain.UserView]{
		Method: http.MethodPut,
		Path:   "/users/profile",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.ProfileInput) (*domain.UserView, error) {
			uid, _ := caller(c)
			return h.svc.UpdateProfile(c.Request.Context(), uid, *in)
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, []*domain.UserView]{
		Method: http.MethodGet,
		Path:   "/users/role/:role",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]*domain.UserView, error) {
			return h.svc.ListByRole(c.Request.Context(), c.Param("role"))
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, *domain.UserView]{
		Method: http.MethodGet,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.UserView, error) {
			return h.svc.Get(c.Request.Context(), c.Param("id"))
		},
	})

	// 管理员全量更新；本人只能改资料字段
	httpez.RegisterAction(e, httpez.Action[service.AdminUpdateInput, *domain.UserView]{
		Method: http.MethodPut,
		Path:   "/users/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *service.AdminUpdateInput) (*domain.UserView, error) {
			id := c.Param("id")
			if _, role := caller(c); role == domain.RoleAdmin {
				return h.svc.AdminUpdate(c.Request.Context(), id, *in)
			}
			if in.Role != nil || in.IsActive != nil {
				return nil, domain.ErrUnauthorized
			}
			return h.svc.UpdateProfile(c.Request.Context(), id, in.ProfileInput)
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, idOut]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (idOut, error) {
			id := c.Param("id")
			if err := h.svc.Delete(c.Request.Context(), id); err != nil {
				return idOut{}, err
			}
			return idOut{ID: id}, nil
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, *domain.UserView]{
		Method: http.MethodPatch,
		Path:   "/users/:id/toggle-status",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (*domain.UserView, error) {
			return h.svc.ToggleStatus(c.Request.Context(), c.Param("id"))
		},
	})

	httpez.RegisterAction(e, httpez.Action[roleIn, *domain.UserView]{
		Method: http.MethodPatch,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (*domain.UserView, error) {
			return h.svc.ChangeRole(c.Request.Context(), c.Param("id"), in.Role)
		},
	})

	for path, active := range map[string]bool{
		"/users/:id/activate":   true,
		"/users/:id/deactivate": false,
	} {
		httpez.RegisterAction(e, httpez.Action[struct{}, *domain.UserView]{
			Method: http.MethodPost,
			Path:   path,
			Binder: httpez.BindNone,
			Handler: func(c *gin.Context, _ *struct{}) (*domain.UserView, error) {
				return h.svc.SetActive(c.Request.Context(), c.Param("id"), active)
			},
		})
	}
}

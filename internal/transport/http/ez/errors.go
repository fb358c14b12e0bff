package ez

import (
	"context"
	"errors"
	"strings"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/domain"
	resp "ausyexpo-backend/internal/transport/http/response"
)

// AErr 处理器可直接返回的带码错误
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error { return &AErr{Code: resp.CodeBadRequest, Msg: msg} }

func NotFound(msg string) error { return &AErr{Code: resp.CodeNotFound, Msg: msg} }

// MapError 错误到业务码的唯一映射点
func MapError(err error) (int, string) {
	var ae *AErr
	switch {
	case err == nil:
		return resp.CodeOK, resp.CodeMsgMap[resp.CodeOK]
	case errors.As(err, &ae):
		return ae.Code, ae.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return resp.CodeUnauthorized, domain.ErrInvalidCredentials.Error()
	case errors.Is(err, domain.ErrAccountNotActivated):
		return resp.CodeForbidden, domain.ErrAccountNotActivated.Error()
	case errors.Is(err, domain.ErrEmailAlreadyRegistered):
		return resp.CodeConflict, domain.ErrEmailAlreadyRegistered.Error()
	case errors.Is(err, auth.ErrUnauthenticated):
		return resp.CodeUnauthorized, "invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return resp.CodeForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return resp.CodeNotFound, domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrInvalidRole):
		return resp.CodeBadRequest, domain.ErrInvalidRole.Error()
	case errors.Is(err, domain.ErrValidation):
		return resp.CodeBadRequest, validationMsg(err)
	case errors.Is(err, context.DeadlineExceeded):
		return resp.CodeTimeout, "timeout"
	default:
		return resp.CodeServerError, "internal error"
	}
}

// validationMsg 去掉 "validation failed: " 前缀，只留字段说明
func validationMsg(err error) string {
	msg := err.Error()
	prefix := domain.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		return msg[i+len(prefix):]
	}
	return msg
}

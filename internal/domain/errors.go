package domain

import "errors"

var (
	// ErrInvalidCredentials 邮箱不存在与密码错误共用，避免枚举
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountNotActivated    = errors.New("account is not activated yet, please contact the administrator")
	ErrEmailAlreadyRegistered = errors.New("email is already taken")
	ErrUnauthorized           = errors.New("forbidden")
	ErrNotFound               = errors.New("user not found")
	ErrValidation             = errors.New("validation failed")
	ErrInvalidRole            = errors.New("invalid role")
)

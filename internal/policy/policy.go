package policy

import (
	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/domain"
)

type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonNoRule          Reason = "no_rule"
	ReasonRole            Reason = "role"
	ReasonOwner           Reason = "owner"
)

// Decision 拒绝时 Err 为 auth.ErrUnauthenticated 家族或 domain.ErrUnauthorized
type Decision struct {
	Allowed bool
	Reason  Reason
	Claims  *auth.Claims
	Err     error
}

type Authorizer struct {
	Tokens TokenValidator
}

func NewAuthorizer(tokens TokenValidator) *Authorizer { return &Authorizer{Tokens: tokens} }

// Authorize 验证令牌后判定；ownerID 为空表示该路由没有本人放行
func (a *Authorizer) Authorize(token string, required RoleSet, ownerID string) Decision {
	claims, err := a.Tokens.Validate(token)
	if err != nil {
		return Decision{Reason: ReasonUnauthenticated, Err: err}
	}
	return Evaluate(claims, required, ownerID)
}

// Evaluate 对已验证的 claims 判定；角色集为空一律拒绝
func Evaluate(claims *auth.Claims, required RoleSet, ownerID string) Decision {
	if claims == nil {
		return Decision{Reason: ReasonUnauthenticated, Err: auth.ErrTokenMalformed}
	}
	if ownerID != "" && ownerID == claims.UID {
		return Decision{Allowed: true, Reason: ReasonOwner, Claims: claims}
	}
	if len(required) > 0 && claims.Role.IsValid() && required.Has(claims.Role) {
		return Decision{Allowed: true, Reason: ReasonRole, Claims: claims}
	}
	return Decision{Reason: ReasonForbidden, Claims: claims, Err: domain.ErrUnauthorized}
}

func (a *Authorizer) Evaluate(claims *auth.Claims, required RoleSet, ownerID string) Decision {
	return Evaluate(claims, required, ownerID)
}

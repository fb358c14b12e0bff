package domain

import (
	"context"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOwner    Role = "OWNER"
	RoleManager  Role = "MANAGER"
	RoleHR       Role = "HR"
	RoleEmployee Role = "EMPLOYEE"
	RoleBuyer    Role = "BUYER"
	RoleSupplier Role = "SUPPLIER"
)

// AllRoles 固定顺序，矩阵和测试都依赖它
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleOwner, RoleManager, RoleHR, RoleEmployee, RoleBuyer, RoleSupplier}
}

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleManager, RoleHR, RoleEmployee, RoleBuyer, RoleSupplier:
		return true
	}
	return false
}

// RequiresActivation 自助注册后需要管理员激活才能登录的角色
func (r Role) RequiresActivation() bool {
	switch r {
	case RoleManager, RoleSupplier, RoleBuyer:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole 大小写不敏感；非法值返回 ErrInvalidRole
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// DefaultActive 注册时的激活状态
func DefaultActive(r Role) bool { return !r.RequiresActivation() }

// NormalizeEmail 邮箱统一小写存储与查询
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	FirstName    string    `gorm:"size:64;not null" json:"firstName"`
	LastName     string    `gorm:"size:64;not null" json:"lastName"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	PasswordHash string    `gorm:"size:100;not null" json:"-"`
	Phone        string    `gorm:"size:32" json:"phone"`
	Address      string    `gorm:"size:255" json:"address"`
	Role         Role      `gorm:"size:16;not null;index" json:"role"`
	IsActive     bool      `gorm:"not null;default:false" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// CanSignIn 激活闸门：受限角色未激活时不能登录
func (u *User) CanSignIn() bool {
	return u.IsActive || !u.Role.RequiresActivation()
}

// UserView 对外投影，不含密码哈希
type UserView struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) View() *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Address:   u.Address,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// UserRepository 凭据存储。查不到返回 (nil, nil)；
// Create 遇到邮箱唯一冲突返回 ErrEmailAlreadyRegistered
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]User, int64, error)
	ListByRole(ctx context.Context, role Role) ([]User, error)
	Update(ctx context.Context, u *User) error
	SetActive(ctx context.Context, id string, active bool) error
	SetRole(ctx context.Context, id string, role Role) error
	Delete(ctx context.Context, id string) error
}

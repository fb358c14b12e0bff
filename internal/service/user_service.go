package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ausyexpo-backend/internal/core/auth"
	"ausyexpo-backend/internal/core/cache"
	"ausyexpo-backend/internal/core/config"
	"ausyexpo-backend/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type Page struct {
	List  []*domain.UserView `json:"list"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Size  int                `json:"size"`
}

// CreateUserInput 管理员直接创建；IsActive 缺省为 true
type CreateUserInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=50"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Phone     string `json:"phone" validate:"required,max=32"`
	Address   string `json:"address" validate:"max=255"`
	Role      string `json:"role" validate:"required,role"`
	IsActive  *bool  `json:"isActive"`
}

// ProfileInput 自助修改，只允许改姓名、电话、地址、密码
type ProfileInput struct {
	FirstName *string `json:"firstName" validate:"omitempty,max=50"`
	LastName  *string `json:"lastName" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=72"`
}

type AdminUpdateInput struct {
	ProfileInput
	Role     *string `json:"role" validate:"omitempty,role"`
	IsActive *bool   `json:"isActive"`
}

type UserService struct {
	users  domain.UserRepository
	hasher *auth.PasswordHasher
	cache  *cache.Cache // 可为 nil
	ttl    time.Duration
	log    *zap.Logger
}

func NewUserService(users domain.UserRepository, hasher *auth.PasswordHasher, c *cache.Cache, ttl time.Duration, log *zap.Logger) *UserService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &UserService{users: users, hasher: hasher, cache: c, ttl: ttl, log: log.Named("users")}
}

func userKey(id string) string { return "user:" + id }

func (s *UserService) List(ctx context.Context, page, size int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	list, total, err := s.users.List(ctx, (page-1)*size, size)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &Page{List: views(list), Total: total, Page: page, Size: size}, nil
}

func (s *UserService) ListByRole(ctx context.Context, role string) ([]*domain.UserView, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	list, err := s.users.ListByRole(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("list users by role: %w", err)
	}
	return views(list), nil
}

// Get 读穿缓存，查不到返回 ErrNotFound
func (s *UserService) Get(ctx context.Context, id string) (*domain.UserView, error) {
	v, err := cache.GetOrLoadJSON(s.cache, ctx, userKey(id), s.ttl, func(ctx context.Context) (*domain.UserView, error) {
		u, err := s.users.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return u.View(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*domain.UserView, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	role, _ := domain.ParseRole(in.Role)
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	u, err := s.create(ctx, in.FirstName, in.LastName, in.Email, in.Password, in.Phone, in.Address, role, active)
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", zap.String("uid", u.ID), zap.String("role", role.String()))
	return u.View(), nil
}

func (s *UserService) create(ctx context.Context, first, last, email, password, phone, address string, role domain.Role, active bool) (*domain.User, error) {
	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	if taken {
		return nil, domain.ErrEmailAlreadyRegistered
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(first),
		LastName:     strings.TrimSpace(last),
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(phone),
		Address:      strings.TrimSpace(address),
		Role:         role,
		IsActive:     active,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*domain.UserView, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(u, in); err != nil {
		return nil, err
	}
	return s.save(ctx, u)
}

func (s *UserService) AdminUpdate(ctx context.Context, id string, in AdminUpdateInput) (*domain.UserView, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyProfile(u, in.ProfileInput); err != nil {
		return nil, err
	}
	if in.Role != nil {
		u.Role, _ = domain.ParseRole(*in.Role)
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return s.save(ctx, u)
}

func (s *UserService) applyProfile(u *domain.User, in ProfileInput) error {
	if in.FirstName != nil {
		u.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		u.Address = strings.TrimSpace(*in.Address)
	}
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}
	return nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.Info("user deleted", zap.String("uid", id))
	return nil
}

func (s *UserService) ToggleStatus(ctx context.Context, id string) (*domain.UserView, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetActive(ctx, u.ID, !u.IsActive)
}

func (s *UserService) SetActive(ctx context.Context, id string, active bool) (*domain.UserView, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.Info("user status changed", zap.String("uid", id), zap.Bool("active", active))
	u.IsActive = active
	return u.View(), nil
}

func (s *UserService) ChangeRole(ctx context.Context, id, role string) (*domain.UserView, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRole(ctx, id, r); err != nil {
		return nil, fmt.Errorf("set role: %w", err)
	}
	s.invalidate(ctx, id)
	s.log.Info("user role changed", zap.String("uid", id), zap.String("from", u.Role.String()), zap.String("to", r.String()))
	u.Role = r
	return u.View(), nil
}

// EnsureAdmin 启动时幂等创建默认管理员；邮箱已存在则什么都不做
func (s *UserService) EnsureAdmin(ctx context.Context, seed config.SeedAdmin) error {
	email := domain.NormalizeEmail(seed.Email)
	if email == "" || seed.Password == "" {
		s.log.Info("admin seed skipped: not configured")
		return nil
	}
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	first, last := seed.FirstName, seed.LastName
	if first == "" {
		first = "System"
	}
	if last == "" {
		last = "Administrator"
	}
	u, err := s.create(ctx, first, last, email, seed.Password, "", "", domain.RoleAdmin, true)
	if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
		return nil // 另一个实例抢先创建
	}
	if err != nil {
		return err
	}
	s.log.Info("default admin created", zap.String("uid", u.ID), zap.String("email", email))
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (s *UserService) save(ctx context.Context, u *domain.User) (*domain.UserView, error) {
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.invalidate(ctx, u.ID)
	return u.View(), nil
}

func (s *UserService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userKey(id)); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("uid", id), zap.Error(err))
	}
}

func views(list []domain.User) []*domain.UserView {
	out := make([]*domain.UserView, 0, len(list))
	for i := range list {
		out = append(out, list[i].View())
	}
	return out
}

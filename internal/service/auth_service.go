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
	"ausyexpo-backend/internal/core/metrics"
	"ausyexpo-backend/internal/domain"
)

type SignInInput struct {
	Email    string `json:"email" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=72"`
}

type SignInResult struct {
	Token     string           `json:"token"`
	TokenType string           `json:"tokenType"`
	ExpiresIn int64            `json:"expiresIn"` // 秒
	User      *domain.UserView `json:"user"`
}

type SignUpInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=50"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
	Phone     string `json:"phone" validate:"required,max=32"`
	Address   string `json:"address" validate:"max=255"`
	Role      string `json:"role" validate:"required,role"`
}

type AuthService struct {
	users  domain.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	log    *zap.Logger
	now    func() time.Time

	// 邮箱不存在时也跑一次 bcrypt，两种失败耗时一致
	dummyHash string
}

func NewAuthService(users domain.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, log *zap.Logger) *AuthService {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		log.Warn("dummy hash unavailable", zap.Error(err))
	}
	return &AuthService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		log:       log.Named("auth"),
		now:       time.Now,
		dummyHash: dummy,
	}
}

func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	email := domain.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		s.hasher.Verify(in.Password, s.dummyHash)
		return nil, s.signInFailed(email, "invalid_credentials", domain.ErrInvalidCredentials)
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if u == nil {
		s.hasher.Verify(in.Password, s.dummyHash)
		return nil, s.signInFailed(email, "invalid_credentials", domain.ErrInvalidCredentials)
	}
	if !s.hasher.Verify(in.Password, u.PasswordHash) {
		return nil, s.signInFailed(email, "invalid_credentials", domain.ErrInvalidCredentials)
	}
	if !u.CanSignIn() {
		return nil, s.signInFailed(email, "not_activated", domain.ErrAccountNotActivated)
	}

	tok, err := s.tokens.Issue(u.ID, u.Role, s.now())
	if err != nil {
		metrics.SignIns.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}
	metrics.SignIns.WithLabelValues("ok").Inc()
	s.log.Info("signin ok", zap.String("uid", u.ID), zap.String("role", u.Role.String()))
	return &SignInResult{
		Token:     tok,
		TokenType: "Bearer",
		ExpiresIn: int64(s.tokens.TTL / time.Second),
		User:      u.View(),
	}, nil
}

// signInFailed 只记录邮箱与结果，不记录密码
func (s *AuthService) signInFailed(email, outcome string, err error) error {
	metrics.SignIns.WithLabelValues(outcome).Inc()
	s.log.Info("signin rejected", zap.String("email", email), zap.String("outcome", outcome))
	return err
}

func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.UserView, error) {
	in.Email = domain.NormalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if err := validateStruct(in); err != nil {
		metrics.SignUps.WithLabelValues("invalid").Inc()
		return nil, err
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		metrics.SignUps.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	// 预检查只是快速失败，并发下以唯一索引为准
	taken, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if taken {
		metrics.SignUps.WithLabelValues("email_taken").Inc()
		return nil, domain.ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Role:         role,
		IsActive:     domain.DefaultActive(role),
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailAlreadyRegistered) {
			metrics.SignUps.WithLabelValues("email_taken").Inc()
			return nil, domain.ErrEmailAlreadyRegistered
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	metrics.SignUps.WithLabelValues("ok").Inc()
	s.log.Info("signup ok", zap.String("uid", u.ID), zap.String("role", role.String()), zap.Bool("active", u.IsActive))
	return u.View(), nil
}

package service

import (
	"context"
	"crypto/rsa"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/audit"
	"github.com/xela07ax/vizitka-api/internal/domain"
	"github.com/xela07ax/vizitka-api/internal/infra/auth"
	"github.com/xela07ax/vizitka-api/internal/policy"
)

// AccountStore описывает требования аутентификации к хранилищу
type AccountStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	AdminExists(ctx context.Context) (bool, error)
}

type AuthService struct {
	store       AccountStore
	privateKey  *rsa.PrivateKey
	tokenTTL    time.Duration
	bcryptCost  int
	adminSecret string
	trail       audit.Recorder
	logger      *zap.Logger
}

func NewAuthService(
	store AccountStore,
	privateKey *rsa.PrivateKey,
	tokenTTL time.Duration,
	bcryptCost int,
	adminSecret string,
	trail audit.Recorder,
	logger *zap.Logger,
) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:       store,
		privateKey:  privateKey,
		tokenTTL:    tokenTTL,
		bcryptCost:  bcryptCost,
		adminSecret: adminSecret,
		trail:       trail,
		logger:      logger.Named("auth-service"),
	}
}

// Login проверяет пару email/пароль и выпускает токен.
// Не уточняем, что именно неверно (логин или пароль), для защиты от перебора.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.AuthResponse, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("Email and password are required")
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.Authentication("Invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, apperror.Authentication("Invalid email or password")
	}

	token, err := auth.SignToken(s.privateKey, user.ID.String(), s.tokenTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("role", string(user.Role)))
	return &domain.AuthResponse{User: user, Token: token}, nil
}

// CreateAdmin — bootstrap-эндпоинт единственного админа.
// Секрет сверяется constant-time. Проверка AdminExists — только для
// вежливого сообщения: гонку двух одновременных bootstrap'ов закрывает
// частичный уникальный индекс в базе.
func (s *AuthService) CreateAdmin(ctx context.Context, req *domain.CreateAdminRequest) (*domain.AuthResponse, error) {
	if s.adminSecret == "" {
		// Секрет не сконфигурирован — bootstrap выключен
		return nil, apperror.Authorization("Invalid secret password")
	}
	if subtle.ConstantTimeCompare([]byte(req.SecretPassword), []byte(s.adminSecret)) != 1 {
		return nil, apperror.Authorization("Invalid secret password")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return nil, apperror.Validation("Email, password, firstName, and lastName are required")
	}

	exists, err := s.store.AdminExists(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if exists {
		return nil, apperror.Conflict("Admin user already exists. Cannot create another admin.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	admin := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return nil, err
	}

	token, err := auth.SignToken(s.privateKey, admin.ID.String(), s.tokenTTL)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	s.logger.Info("bootstrap admin created", zap.String("user_id", admin.ID.String()))
	return &domain.AuthResponse{User: admin, Token: token}, nil
}

// CreateAccount заводит user/manager аккаунт от имени админа.
// Запрошенная роль admin режется движком до проверки прав самого актора.
func (s *AuthService) CreateAccount(ctx context.Context, actor policy.Actor, req *domain.CreateUserRequest) (*domain.User, error) {
	role := req.Role
	if role == "" {
		role = domain.RoleUser
	}

	if d := policy.CanCreateAccount(actor, role); !d.Allowed {
		s.record(ctx, actor, "user.create", "", d)
		return nil, apperror.Authorization(d.Reason)
	}
	s.record(ctx, actor, "user.create", "", policy.Decision{Allowed: true})

	if !role.Valid() {
		return nil, apperror.Validation("Unknown role")
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		return nil, apperror.Validation("Email, password, firstName, and lastName are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	creator := actor.ID
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CreatedBy:    &creator,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)),
		zap.String("created_by", actor.ID.String()))
	return user, nil
}

func (s *AuthService) record(ctx context.Context, actor policy.Actor, op, resourceID string, d policy.Decision) {
	s.trail.Log(audit.Event{
		ID:           uuid.New().String(),
		RequestID:    middleware.GetReqID(ctx),
		ActorID:      actor.ID.String(),
		ActorRole:    string(actor.Role),
		Operation:    op,
		ResourceType: "user",
		ResourceID:   resourceID,
		Allowed:      d.Allowed,
		Reason:       d.Reason,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

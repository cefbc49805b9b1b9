package service

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/audit"
	"github.com/xela07ax/vizitka-api/internal/domain"
	"github.com/xela07ax/vizitka-api/internal/policy"
)

// UserStore описывает операции каталога аккаунтов
type UserStore interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	ListUserRefs(ctx context.Context) ([]domain.UserRef, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

type UserService struct {
	store  UserStore
	trail  audit.Recorder
	logger *zap.Logger
}

func NewUserService(store UserStore, trail audit.Recorder, logger *zap.Logger) *UserService {
	return &UserService{store: store, trail: trail, logger: logger.Named("user-service")}
}

// List — полный каталог аккаунтов, только для админа.
func (s *UserService) List(ctx context.Context, actor policy.Actor) ([]*domain.User, error) {
	d := policy.CanListUsers(actor)
	s.record(ctx, actor, "user.list", "", d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if users == nil {
		users = []*domain.User{}
	}
	return users, nil
}

// ListRefs — усеченная проекция для dropdown назначения визиток.
func (s *UserService) ListRefs(ctx context.Context, actor policy.Actor) ([]domain.UserRef, error) {
	d := policy.CanListUserRefs(actor)
	s.record(ctx, actor, "user.list_refs", "", d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}

	refs, err := s.store.ListUserRefs(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if refs == nil {
		refs = []domain.UserRef{}
	}
	return refs, nil
}

// Get — карточка чужого аккаунта. Порядок единый: выборка -> 404 -> решение.
func (s *UserService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*domain.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}

	d := policy.CanViewUser(actor)
	s.record(ctx, actor, "user.read", id.String(), d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}
	return user, nil
}

// Profile — собственный профиль текущего актора.
func (s *UserService) Profile(ctx context.Context, actor policy.Actor) (*domain.User, error) {
	user, err := s.store.FindUserByID(ctx, actor.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if user == nil {
		return nil, apperror.NotFound("User not found")
	}
	return user, nil
}

// Update — generic-обновление профиля. Роль и пароль не меняются,
// даже если клиент прислал их в теле: форма запроса их не содержит.
func (s *UserService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, req *domain.UpdateUserRequest) (*domain.User, error) {
	existing, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing == nil {
		return nil, apperror.NotFound("User not found")
	}

	d := policy.CanUpdateUser(actor)
	s.record(ctx, actor, "user.update", id.String(), d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, apperror.Validation("Email, firstName, and lastName are required")
	}

	updated, err := s.store.UpdateUser(ctx, id, req)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.NotFound("User not found")
	}

	s.logger.Info("user updated", zap.String("user_id", id.String()), zap.String("by", actor.ID.String()))
	return updated, nil
}

// Delete — удаление аккаунта, только admin.
func (s *UserService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	existing, err := s.store.FindUserByID(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if existing == nil {
		return apperror.NotFound("User not found")
	}

	d := policy.CanDeleteUser(actor)
	s.record(ctx, actor, "user.delete", id.String(), d)
	if !d.Allowed {
		return apperror.Authorization(d.Reason)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

func (s *UserService) record(ctx context.Context, actor policy.Actor, op, resourceID string, d policy.Decision) {
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

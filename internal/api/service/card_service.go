package service

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/audit"
	"github.com/xela07ax/vizitka-api/internal/cache"
	"github.com/xela07ax/vizitka-api/internal/domain"
	"github.com/xela07ax/vizitka-api/internal/policy"
)

// CardStore описывает требования к хранилищу визиток
type CardStore interface {
	FindCardByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	ListCards(ctx context.Context, filter domain.CardFilter) ([]*domain.Card, error)
	CreateCard(ctx context.Context, c *domain.Card) error
	UpdateCard(ctx context.Context, c *domain.Card, replacePicture bool) error
	DeleteCard(ctx context.Context, id uuid.UUID) error
	GetCardImage(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// UserFinder нужен для проверки существования назначаемого пользователя
type UserFinder interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type CardService struct {
	cards  CardStore
	users  UserFinder
	images *cache.ImageCache
	trail  audit.Recorder
	logger *zap.Logger
}

func NewCardService(cards CardStore, users UserFinder, images *cache.ImageCache, trail audit.Recorder, logger *zap.Logger) *CardService {
	return &CardService{
		cards:  cards,
		users:  users,
		images: images,
		trail:  trail,
		logger: logger.Named("card-service"),
	}
}

// List возвращает ровно ту выборку, которую разрешает матрица видимости.
// Запрос не отклоняется ни для какой роли — сужается фильтром.
func (s *CardService) List(ctx context.Context, actor policy.Actor) ([]*domain.Card, error) {
	filter := policy.CardScope(actor)
	s.record(ctx, actor, "card.list", "", policy.Decision{Allowed: true})

	cards, err := s.cards.ListCards(ctx, filter)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	// Фронт всегда получает [], а не null
	if cards == nil {
		cards = []*domain.Card{}
	}
	return cards, nil
}

// Get отдает визитку по id. Порядок фиксированный: выборка -> 404 -> решение
// движка -> 403. Непоказанная визитка для user-роли это всегда 403, не 404:
// право зависит от полей уже найденного ресурса.
func (s *CardService) Get(ctx context.Context, actor policy.Actor, id uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.FindCardByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if card == nil {
		return nil, apperror.NotFound("Card not found")
	}

	d := policy.CanViewCard(actor, card)
	s.record(ctx, actor, "card.read", id.String(), d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}
	return card, nil
}

// Create заводит визитку от имени admin/manager.
// Существование назначенного пользователя проверяется до записи; гонка
// с параллельным удалением пользователя допустима, осиротевшая ссылка
// отдается потом с пустым владельцем.
func (s *CardService) Create(ctx context.Context, actor policy.Actor, payload *domain.CardPayload) (*domain.Card, error) {
	d := policy.CanCreateCard(actor)
	s.record(ctx, actor, "card.create", "", d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}

	card, err := s.buildCard(ctx, payload)
	if err != nil {
		return nil, err
	}
	card.ID = uuid.New()
	card.CreatedBy = actor.ID

	if err := s.cards.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.logger.Info("card created",
		zap.String("card_id", card.ID.String()),
		zap.String("created_by", actor.ID.String()),
		zap.String("assigned_to", card.AssignedTo.String()))

	// Перечитываем, чтобы вернуть заполненные проекции владельцев
	created, err := s.cards.FindCardByID(ctx, card.ID)
	if err != nil || created == nil {
		return card, nil
	}
	return created, nil
}

// Update мутирует визитку, если движок дал добро текущему актору.
func (s *CardService) Update(ctx context.Context, actor policy.Actor, id uuid.UUID, payload *domain.CardPayload) (*domain.Card, error) {
	existing, err := s.cards.FindCardByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if existing == nil {
		return nil, apperror.NotFound("Card not found")
	}

	d := policy.CanEditCard(actor, existing)
	s.record(ctx, actor, "card.update", id.String(), d)
	if !d.Allowed {
		return nil, apperror.Authorization(d.Reason)
	}

	card, err := s.buildCard(ctx, payload)
	if err != nil {
		return nil, err
	}
	card.ID = id
	card.CreatedBy = existing.CreatedBy

	if err := s.cards.UpdateCard(ctx, card, payload.HasPicture); err != nil {
		return nil, err
	}
	if payload.HasPicture {
		s.images.Invalidate(ctx, id.String())
	}

	updated, err := s.cards.FindCardByID(ctx, id)
	if err != nil || updated == nil {
		return card, nil
	}
	return updated, nil
}

// Delete: только admin, решение пишется в аудит в обе стороны.
func (s *CardService) Delete(ctx context.Context, actor policy.Actor, id uuid.UUID) error {
	card, err := s.cards.FindCardByID(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if card == nil {
		return apperror.NotFound("Card not found")
	}

	d := policy.CanDeleteCard(actor)
	s.record(ctx, actor, "card.delete", id.String(), d)
	if !d.Allowed {
		return apperror.Authorization(d.Reason)
	}

	if err := s.cards.DeleteCard(ctx, id); err != nil {
		return err
	}
	s.images.Invalidate(ctx, id.String())

	s.logger.Info("card deleted", zap.String("card_id", id.String()), zap.String("by", actor.ID.String()))
	return nil
}

// GetImage отдает аватарку с теми же правами, что чтение визитки.
// Сначала кэш, при промахе — база с заполнением кэша.
func (s *CardService) GetImage(ctx context.Context, actor policy.Actor, id uuid.UUID) ([]byte, string, error) {
	card, err := s.cards.FindCardByID(ctx, id)
	if err != nil {
		return nil, "", apperror.Internal(err)
	}
	if card == nil {
		return nil, "", apperror.NotFound("Card not found")
	}

	d := policy.CanViewCard(actor, card)
	s.record(ctx, actor, "card.read_image", id.String(), d)
	if !d.Allowed {
		return nil, "", apperror.Authorization(d.Reason)
	}
	if !card.HasProfilePicture {
		return nil, "", apperror.NotFound("Profile image not found")
	}

	if data, mime, ok := s.images.Get(ctx, id.String()); ok {
		return data, mime, nil
	}

	data, mime, err := s.cards.GetCardImage(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", apperror.NotFound("Profile image not found")
	}
	s.images.Set(ctx, id.String(), data, mime)
	return data, mime, nil
}

// buildCard валидирует форму и собирает доменную сущность.
func (s *CardService) buildCard(ctx context.Context, p *domain.CardPayload) (*domain.Card, error) {
	if msg := validateCardPayload(p); msg != "" {
		return nil, apperror.Validation(msg)
	}

	assignedTo, err := uuid.Parse(strings.TrimSpace(p.AssignedTo))
	if err != nil {
		return nil, apperror.Validation("Invalid assigned user ID format")
	}

	assignee, err := s.users.FindUserByID(ctx, assignedTo)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if assignee == nil {
		return nil, apperror.Validation("Assigned user does not exist")
	}

	return &domain.Card{
		FullName:           strings.TrimSpace(p.FullName),
		Title:              strings.TrimSpace(p.Title),
		Location:           strings.TrimSpace(p.Location),
		CompanyName:        strings.TrimSpace(p.CompanyName),
		Description:        strings.TrimSpace(p.Description),
		Contact:            domain.Contact{Phone: strings.TrimSpace(p.Contact.Phone), Email: normalizeEmail(p.Contact.Email)},
		SocialLinks:        p.SocialLinks,
		Services:           p.Services,
		Products:           p.Products,
		Gallery:            p.Gallery,
		ProfilePicture:     p.Picture,
		ProfilePictureMime: p.PictureMime,
		AssignedTo:         assignedTo,
	}, nil
}

// validateCardPayload повторяет серверные ограничения схемы:
// обязательные поля и максимальные длины.
func validateCardPayload(p *domain.CardPayload) string {
	if strings.TrimSpace(p.FullName) == "" ||
		strings.TrimSpace(p.Title) == "" ||
		strings.TrimSpace(p.Location) == "" ||
		strings.TrimSpace(p.CompanyName) == "" ||
		strings.TrimSpace(p.Description) == "" ||
		strings.TrimSpace(p.Contact.Email) == "" ||
		strings.TrimSpace(p.AssignedTo) == "" {
		return "Full name, title, location, company name, description, contact email, and assigned user are required"
	}
	for _, f := range []struct {
		value string
		name  string
		max   int
	}{
		{p.FullName, "Full name", 100},
		{p.Title, "Title", 100},
		{p.Location, "Location", 100},
		{p.CompanyName, "Company name", 100},
		{p.Description, "Description", 500},
		{p.Contact.Phone, "Phone", 20},
	} {
		if len(f.value) > f.max {
			return f.name + " is too long"
		}
	}
	if !strings.Contains(p.Contact.Email, "@") {
		return "Contact email is invalid"
	}
	return ""
}

func (s *CardService) record(ctx context.Context, actor policy.Actor, op, resourceID string, d policy.Decision) {
	s.trail.Log(audit.Event{
		ID:           uuid.New().String(),
		RequestID:    middleware.GetReqID(ctx),
		ActorID:      actor.ID.String(),
		ActorRole:    string(actor.Role),
		Operation:    op,
		ResourceType: "card",
		ResourceID:   resourceID,
		Allowed:      d.Allowed,
		Reason:       d.Reason,
	})
}

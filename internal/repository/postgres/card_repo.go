package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
)

// cardColumns — колонки визитки c join-проекциями обоих владельцев.
// Бинарь аватарки списками не тащим: только флаг наличия.
const cardSelect = `
	SELECT
		c.id, c.full_name, c.title, c.location, c.company_name, c.description,
		c.contact_phone, c.contact_email, c.social_links,
		c.services, c.products, c.gallery,
		(c.profile_picture IS NOT NULL),
		c.assigned_to, c.created_by, c.created_at, c.last_updated_at,
		a.id, a.email, a.first_name, a.last_name,
		b.id, b.email, b.first_name, b.last_name
	FROM cards c
	LEFT JOIN users a ON a.id = c.assigned_to
	LEFT JOIN users b ON b.id = c.created_by`

// scanCard собирает визитку из строки выборки. Владельческие проекции
// могут быть NULL: ссылки на удаленных пользователей допускаются
// (read-then-write без транзакции, как зафиксировано в модели ресурсов).
func scanCard(row pgx.Row) (*domain.Card, error) {
	c := &domain.Card{}
	var (
		aID, bID              *uuid.UUID
		aEmail, aFirst, aLast *string
		bEmail, bFirst, bLast *string
	)

	err := row.Scan(
		&c.ID, &c.FullName, &c.Title, &c.Location, &c.CompanyName, &c.Description,
		&c.Contact.Phone, &c.Contact.Email, &c.SocialLinks,
		&c.Services, &c.Products, &c.Gallery,
		&c.HasProfilePicture,
		&c.AssignedTo, &c.CreatedBy, &c.CreatedAt, &c.LastUpdatedAt,
		&aID, &aEmail, &aFirst, &aLast,
		&bID, &bEmail, &bFirst, &bLast,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if aID != nil {
		c.AssignedToRef = &domain.UserRef{ID: *aID, Email: *aEmail, FirstName: *aFirst, LastName: *aLast}
	}
	if bID != nil {
		c.CreatedByRef = &domain.UserRef{ID: *bID, Email: *bEmail, FirstName: *bFirst, LastName: *bLast}
	}
	return c, nil
}

func (r *Repo) FindCardByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return scanCard(r.pool.QueryRow(ctx, cardSelect+` WHERE c.id = $1`, id))
}

// ListCards возвращает выборку по фильтру видимости из policy.CardScope.
// Фильтр собирается здесь, а не конкатенацией строк в сервисе.
func (r *Repo) ListCards(ctx context.Context, filter domain.CardFilter) ([]*domain.Card, error) {
	query := cardSelect
	args := []interface{}{}
	if filter.AssignedTo != nil {
		query += ` WHERE c.assigned_to = $1`
		args = append(args, *filter.AssignedTo)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []*domain.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *Repo) CreateCard(ctx context.Context, c *domain.Card) error {
	query := `
		INSERT INTO cards (
			id, full_name, title, location, company_name, description,
			contact_phone, contact_email, social_links,
			services, products, gallery,
			profile_picture, profile_picture_mime,
			assigned_to, created_by
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		RETURNING created_at, last_updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.ID, c.FullName, c.Title, c.Location, c.CompanyName, c.Description,
		c.Contact.Phone, c.Contact.Email, c.SocialLinks,
		c.Services, c.Products, c.Gallery,
		c.ProfilePicture, c.ProfilePictureMime,
		c.AssignedTo, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.LastUpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateCard перезаписывает изменяемые поля. last_updated_at освежается
// на каждой мутации. created_by не трогаем: владение не переезжает.
// Аватарка обновляется только если replacePicture = true: PUT без файла
// оставляет прежнюю.
func (r *Repo) UpdateCard(ctx context.Context, c *domain.Card, replacePicture bool) error {
	query := `
		UPDATE cards SET
			full_name = $1, title = $2, location = $3, company_name = $4, description = $5,
			contact_phone = $6, contact_email = $7, social_links = $8,
			services = $9, products = $10, gallery = $11,
			assigned_to = $12,
			profile_picture = CASE WHEN $13 THEN $14 ELSE profile_picture END,
			profile_picture_mime = CASE WHEN $13 THEN $15 ELSE profile_picture_mime END,
			last_updated_at = NOW()
		WHERE id = $16
		RETURNING last_updated_at`

	err := r.pool.QueryRow(ctx, query,
		c.FullName, c.Title, c.Location, c.CompanyName, c.Description,
		c.Contact.Phone, c.Contact.Email, c.SocialLinks,
		c.Services, c.Products, c.Gallery,
		c.AssignedTo,
		replacePicture, c.ProfilePicture, c.ProfilePictureMime,
		c.ID,
	).Scan(&c.LastUpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("Card not found")
		}
		return mapWriteError(err)
	}
	return nil
}

func (r *Repo) DeleteCard(ctx context.Context, id uuid.UUID) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return mapWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		return apperror.NotFound("Card not found")
	}
	return nil
}

// GetCardImage достает бинарь аватарки. (nil, "", nil) — визитка есть, аватарки нет.
func (r *Repo) GetCardImage(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	var data []byte
	var mime *string
	err := r.pool.QueryRow(ctx,
		`SELECT profile_picture, profile_picture_mime FROM cards WHERE id = $1`, id,
	).Scan(&data, &mime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", apperror.NotFound("Card not found")
		}
		return nil, "", err
	}
	if mime == nil {
		return data, "", nil
	}
	return data, *mime, nil
}

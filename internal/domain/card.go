package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact — контактный блок визитки. Email обязателен, телефон нет.
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email"`
}

// SocialLinks хранится в jsonb одним куском: структура меняется чаще, чем схема.
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
}

// Card — цифровая визитка. Два владельческих поля:
// CreatedBy решает право редактирования для менеджера,
// AssignedTo решает видимость для обычного пользователя.
type Card struct {
	ID          uuid.UUID   `json:"id"`
	FullName    string      `json:"fullName"`
	Title       string      `json:"title"`
	Location    string      `json:"location"`
	CompanyName string      `json:"companyName"`
	Description string      `json:"description"`
	Contact     Contact     `json:"contact"`
	SocialLinks SocialLinks `json:"socialLinks,omitempty"`
	Services    []string    `json:"services,omitempty"`
	Products    []string    `json:"products,omitempty"`
	Gallery     []string    `json:"gallery,omitempty"`

	// Бинарь аватарки наружу не сериализуем, отдается отдельным эндпоинтом
	ProfilePicture     []byte `json:"-"`
	ProfilePictureMime string `json:"-"`
	HasProfilePicture  bool   `json:"hasProfilePicture"`

	AssignedTo uuid.UUID `json:"assignedTo"`
	CreatedBy  uuid.UUID `json:"createdBy"`

	// Проекции для отображения, заполняются join'ом в репозитории
	AssignedToRef *UserRef `json:"assignedToRef,omitempty"`
	CreatedByRef  *UserRef `json:"createdByRef,omitempty"`

	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// CardFilter ограничивает выборку ListCards. Nil-поле — без ограничения.
type CardFilter struct {
	AssignedTo *uuid.UUID
}

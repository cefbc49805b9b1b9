package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role определяет уровень доступа аккаунта в каталоге визиток
type Role string

const (
	RoleAdmin   Role = "admin"   // Единственный в системе, полный доступ
	RoleManager Role = "manager" // Создает визитки, редактирует только свои
	RoleUser    Role = "user"    // Видит только визитки, назначенные ему
)

// Valid проверяет, что роль входит в известный набор.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleUser:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Никогда не отправляем на фронт
	Role         Role       `json:"role"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	CreatedBy    *uuid.UUID `json:"createdBy,omitempty"` // Кто завел аккаунт (null для bootstrap-админа)
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// UserRef — усеченная проекция для списков и dropdown'ов.
// Менеджеры получают только её: ни хэша, ни ролей чужих аккаунтов тут нет.
type UserRef struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
}

// Ref возвращает усеченную проекцию пользователя.
func (u *User) Ref() UserRef {
	return UserRef{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims несет только ID пользователя.
// Роль в токен не кладем: она перечитывается из базы на каждый запрос,
// иначе смена роли продолжала бы действовать до истечения токена.
type CustomClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CreateAdminRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	SecretPassword string `json:"secretPassword"`
}

type CreateUserRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      Role   `json:"role"`
}

type UpdateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	// role и password здесь сознательно отсутствуют:
	// generic-обновление не может ни повышать права, ни менять пароль
}

// AuthResponse — ответ login и create-admin: пользователь + подписанный токен.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

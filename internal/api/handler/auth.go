package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/api/service"
	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
)

type AuthHandler struct {
	service *service.AuthService
	logger  *zap.Logger
}

func NewAuthHandler(s *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{service: s, logger: logger.Named("auth-handler")}
}

// Login обрабатывает POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("Invalid request body"))
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Login successful", resp)
}

// Logout обрабатывает POST /api/auth/logout.
// Состояния на сервере нет: токен просто истекает, эндпоинт — вежливый ACK.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, "Logged out successfully", nil)
}

// Me обрабатывает GET /api/auth/me: профиль владельца токена.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, user, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}
	respond(w, http.StatusOK, "User profile retrieved successfully", map[string]interface{}{"user": user})
}

// CreateAdmin обрабатывает POST /api/auth/create-admin — bootstrap
// единственного админа по общему секрету. Без bearer-токена.
func (h *AuthHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("Invalid request body"))
		return
	}

	resp, err := h.service.CreateAdmin(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "Admin user created successfully", resp)
}

// CreateUser обрабатывает POST /api/auth/create-user — админ заводит
// user/manager. role=admin отклоняется всегда, кем бы ни был актор.
func (h *AuthHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	var req domain.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("Invalid request body"))
		return
	}

	user, err := h.service.CreateAccount(r.Context(), actor, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, "User created successfully", map[string]interface{}{"user": user})
}

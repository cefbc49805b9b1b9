package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/api/service"
	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
)

type UserHandler struct {
	service *service.UserService
	logger  *zap.Logger
}

func NewUserHandler(s *service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{service: s, logger: logger.Named("user-handler")}
}

// List обрабатывает GET /api/users: полный каталог, только для админа.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	users, err := h.service.List(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Users retrieved successfully", map[string]interface{}{"users": users})
}

// Dropdown обрабатывает GET /api/users/dropdown: усечённая проекция
// для выбора владельца визитки, доступна админу и менеджеру.
func (h *UserHandler) Dropdown(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	refs, err := h.service.ListRefs(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Users retrieved successfully", map[string]interface{}{"users": refs})
}

// Profile обрабатывает GET /api/users/profile: собственная запись актора.
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	user, err := h.service.Profile(r.Context(), actor)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "Profile retrieved successfully", map[string]interface{}{"user": user})
}

// Get обрабатывает GET /api/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	user, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "User retrieved successfully", map[string]interface{}{"user": user})
}

// Update обрабатывает PUT /api/users/{id}: только профильные поля,
// роль и пароль через этот эндпоинт не меняются.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, apperror.Validation("Invalid request body"))
		return
	}

	user, err := h.service.Update(r.Context(), actor, id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "User updated successfully", map[string]interface{}{"user": user})
}

// Delete обрабатывает DELETE /api/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, _, ok := actorFrom(r)
	if !ok {
		respondError(w, h.logger, apperror.Authentication("Access denied"))
		return
	}

	id, err := parseUserID(r)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, "User deleted successfully", nil)
}

func parseUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid user ID format")
	}
	return id, nil
}

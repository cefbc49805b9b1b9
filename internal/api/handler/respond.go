package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
	"github.com/xela07ax/vizitka-api/internal/infra/auth"
	"github.com/xela07ax/vizitka-api/internal/policy"
)

// envelope — единый конверт всех ответов API.
type envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data})
}

// respondError — единственная воронка ошибок запроса: классификация вида,
// маппинг на статус и безопасный для клиента текст. Внутренние детали
// уходят только в лог.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := apperror.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: apperror.ClientMessage(err)})
}

// actorFrom достает аутентифицированного пользователя, положенного
// auth-middleware'ом, и сворачивает его в актора для движка.
func actorFrom(r *http.Request) (policy.Actor, *domain.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		return policy.Actor{}, nil, false
	}
	return policy.Actor{ID: user.ID, Role: user.Role}, user, true
}

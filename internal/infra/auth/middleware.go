package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/domain"
)

// TokenValidator — интерфейс проверки bearer-токена.
type TokenValidator interface {
	VerifyToken(tokenStr string) (*domain.CustomClaims, error)
}

// UserSource достает актуального пользователя по ID из claims.
// Источник правды — база, а не токен: удаленный аккаунт или смененная
// роль отражаются на следующем же запросе.
type UserSource interface {
	FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Тип для ключа в контексте (избегаем коллизий)
type ctxKey string

const userKey ctxKey = "auth_user"

// UserFromContext возвращает аутентифицированного пользователя запроса.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(userKey).(*domain.User)
	return u, ok
}

// NewMiddleware собирает периметр аутентификации: проверка подписи токена,
// затем перечитывание пользователя из хранилища.
func NewMiddleware(v TokenValidator, src UserSource, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, "Access denied")
				return
			}

			claims, err := v.VerifyToken(authHeader)
			if err != nil {
				logger.Warn("auth failure", zap.Error(err))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, err := uuid.Parse(claims.UserID)
			if err != nil {
				logger.Warn("auth failure: malformed user id in claims", zap.String("user_id", claims.UserID))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			user, err := src.FindUserByID(r.Context(), userID)
			if err != nil {
				logger.Error("auth failure: user lookup", zap.Error(err))
				writeUnauthorized(w, "Access denied")
				return
			}
			if user == nil {
				// Токен валиден, но аккаунт уже удален
				writeUnauthorized(w, "User not found")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized пишет 401 в общем конверте API.
// Локальная копия, чтобы не тянуть транспортный пакет и не плодить циклы импортов.
func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": message,
	})
}

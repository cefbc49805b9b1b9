package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "vizitka"
)

// GetCardImageKey — ключ кэша аватарки конкретной визитки.
// Инвалидируется при любом обновлении или удалении визитки.
func GetCardImageKey(cardID string) string {
	return fmt.Sprintf("%s:cards:image:%s", RedisNamespace, cardID)
}

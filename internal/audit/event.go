package audit

import "time"

// Event — одно решение авторизации. Пишем и allow, и deny:
// отказ не должен пропадать молча, а разрешения дают контекст
// при разборе инцидентов.
type Event struct {
	ID           string    `json:"id"`            // UUID события
	RequestID    string    `json:"request_id"`    // Сквозной ID запроса (chi RequestID)
	ActorID      string    `json:"actor_id"`      // Кто спрашивал
	ActorRole    string    `json:"actor_role"`    // С какой ролью
	Operation    string    `json:"operation"`     // card.read, user.delete и т.п.
	ResourceType string    `json:"resource_type"` // card | user
	ResourceID   string    `json:"resource_id"`   // Пусто для списочных операций
	Allowed      bool      `json:"allowed"`
	Reason       string    `json:"reason"` // Причина отказа, пусто при allow
	Timestamp    time.Time `json:"timestamp"`
}

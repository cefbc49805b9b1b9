package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/vizitka-api/internal/audit"
)

// WriteBatch сохраняет пачку решений авторизации одним INSERT.
func (r *Repo) WriteBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	// Количество колонок в таблице authz_audit
	numFields := 10
	placeholderStr := ""
	vals := make([]interface{}, 0, len(events)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, e := range events {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10)

		vals = append(vals,
			e.ID, e.RequestID, e.ActorID, e.ActorRole,
			e.Operation, e.ResourceType, e.ResourceID,
			e.Allowed, e.Reason, e.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO authz_audit (id, request_id, actor_id, actor_role, operation, resource_type, resource_id, allowed, reason, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.pool.Exec(ctx, query, vals...)
	return err
}

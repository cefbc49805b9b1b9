package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xela07ax/vizitka-api/internal/apperror"
)

// Имена constraint'ов из migrations/001_init.sql.
// По ним различаем, какое именно поле конфликтует.
const (
	constraintUsersEmail  = "users_email_key"
	constraintSingleAdmin = "users_single_admin_idx"
)

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

// mapWriteError переводит ошибки СУБД в таксономию apperror.
// Уникальность email и единственность админа — ограничения на уровне базы,
// а не состояние процесса: проверка перед вставкой всегда гоночная.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return apperror.Internal(err)
	}

	switch pgErr.Code {
	case uniqueViolation:
		switch pgErr.ConstraintName {
		case constraintUsersEmail:
			return apperror.Conflict("Email already exists")
		case constraintSingleAdmin:
			return apperror.Conflict("Admin user already exists. Cannot create another admin.")
		}
		return apperror.Conflict("Duplicate value")
	case foreignKeyViolation:
		return apperror.Validation("Referenced resource does not exist")
	}
	return apperror.Internal(err)
}

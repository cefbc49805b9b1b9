package apperror

/*
Единая таксономия ошибок запроса. Все слои (сервисы, репозитории) возвращают
*Error с видом (Kind), а транспортный слой одной функцией превращает его
в HTTP-статус и конверт {success: false, message}. Ничего не глотаем:
неопознанная ошибка классифицируется как Internal и логируется выше.
*/

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal       Kind = iota // 500 — неожиданный сбой
	KindValidation                 // 400 — битые или неполные данные запроса
	KindAuthentication             // 401 — нет/просрочен/невалиден токен
	KindAuthorization              // 403 — актор опознан, но прав недостаточно
	KindNotFound                   // 404 — id корректен, ресурса нет
	KindConflict                   // 400 — нарушение уникальности (email, второй админ)
)

type Error struct {
	Kind    Kind
	Message string // Текст для клиента, без внутренних деталей
	Err     error  // Причина для логов, наружу не уходит
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error     { return New(KindValidation, message) }
func Authentication(message string) *Error { return New(KindAuthentication, message) }
func Authorization(message string) *Error  { return New(KindAuthorization, message) }
func NotFound(message string) *Error       { return New(KindNotFound, message) }
func Conflict(message string) *Error       { return New(KindConflict, message) }

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "Internal Server Error", Err: err}
}

// KindOf безопасно извлекает вид из любой ошибки.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// HTTPStatus — единственное место маппинга вида на статус-код.
// Conflict намеренно отдается как 400: контракт API исторический,
// клиент различает конфликты по тексту сообщения про конкретное поле.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ClientMessage возвращает безопасный для клиента текст.
func ClientMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Kind != KindInternal {
		return appErr.Message
	}
	return "Internal Server Error"
}

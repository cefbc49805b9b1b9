package policy

/*
Файл engine.go — ядро авторизации каталога визиток.

Вся ролевая логика собрана здесь в одном месте, вместо размазанных по
хендлерам сравнений строк ролей. Движок чистый: ничего не пишет, не ходит
в базу, только отображает (роль актора, владение ресурсом) -> решение.
Порядок проверок фиксирован на транспортном слое: формат id (400) ->
выборка (404) -> решение движка (403). Сюда ресурс приходит уже найденным.

Матрица прав:

	операция            admin     manager              user
	list cards          все       все                  только assignedTo == actor
	read card           любая     любая                только assignedTo == actor
	create card         да        да                   нет
	update card         любая     createdBy == actor   assignedTo == actor
	delete card         да        нет                  нет
	list users (full)   да        нет                  нет
	users dropdown      да        да (усеченная)       нет
	create account      да¹       нет                  нет
	update user         да        да                   нет
	delete user         да        нет                  нет

¹ создание аккаунта с ролью admin запрещено всем без исключения:
единственный админ заводится отдельным bootstrap-эндпоинтом.
*/

import (
	"github.com/google/uuid"

	"github.com/xela07ax/vizitka-api/internal/domain"
)

// Actor — аутентифицированный инициатор запроса.
// Роль здесь всегда свежая: middleware перечитывает её из базы.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

// Decision — результат проверки. Reason уходит и клиенту в 403, и в аудит.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// CardScope возвращает фильтр видимости для списка визиток.
// Список не запрещается никому — сужается: user видит пустой список,
// если ему ничего не назначено, а не 403.
func CardScope(actor Actor) domain.CardFilter {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return domain.CardFilter{}
	default:
		id := actor.ID
		return domain.CardFilter{AssignedTo: &id}
	}
}

// CanViewCard решает доступ к чтению конкретной визитки.
func CanViewCard(actor Actor, card *domain.Card) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return allow()
	case domain.RoleUser:
		if card.AssignedTo == actor.ID {
			return allow()
		}
		return deny("You do not have permission to view this card")
	}
	return deny("You do not have permission to view this card")
}

// CanCreateCard: только admin и manager заводят визитки.
func CanCreateCard(actor Actor) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return allow()
	}
	return deny("Only Admin and Manager can create cards")
}

// CanEditCard реализует самую тонкую строку матрицы:
// admin правит всё, manager — только созданные им,
// user — только назначенные ему.
func CanEditCard(actor Actor, card *domain.Card) Decision {
	switch actor.Role {
	case domain.RoleAdmin:
		return allow()
	case domain.RoleManager:
		if card.CreatedBy == actor.ID {
			return allow()
		}
	case domain.RoleUser:
		if card.AssignedTo == actor.ID {
			return allow()
		}
	}
	return deny("You do not have permission to edit this card")
}

// CanDeleteCard: удаление — только admin.
func CanDeleteCard(actor Actor) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	return deny("Only Admin can delete cards")
}

// CanListUsers — полный список аккаунтов (с ролями и created_by).
func CanListUsers(actor Actor) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	return deny("Only Admin can list users")
}

// CanListUserRefs — усеченная проекция для назначения визиток (dropdown).
func CanListUserRefs(actor Actor) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return allow()
	}
	return deny("Insufficient permissions")
}

// CanViewUser — карточка чужого аккаунта доступна только админу.
func CanViewUser(actor Actor) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	return deny("Only Admin can view user accounts")
}

// CanCreateAccount проверяет и актора, и запрошенную роль.
// role=admin запрещен ЛЮБОМУ актору до проверки его собственных прав:
// даже действующий админ не может завести второго через этот путь.
func CanCreateAccount(actor Actor, requested domain.Role) Decision {
	if requested == domain.RoleAdmin {
		return deny("Cannot create a new admin")
	}
	if actor.Role != domain.RoleAdmin {
		return deny("Only admin can create user/manager accounts")
	}
	return allow()
}

// CanUpdateUser: generic-обновление доступно admin и manager.
// Неизменяемость role/password обеспечивает не движок, а форма запроса.
func CanUpdateUser(actor Actor) Decision {
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleManager:
		return allow()
	}
	return deny("You do not have permission to update users")
}

// CanDeleteUser: удаление аккаунтов — только admin.
func CanDeleteUser(actor Actor) Decision {
	if actor.Role == domain.RoleAdmin {
		return allow()
	}
	return deny("Only Admin can delete users")
}

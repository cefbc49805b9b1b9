package policy

import (
	"testing"

	"github.com/google/uuid"

	"github.com/xela07ax/vizitka-api/internal/domain"
)

var (
	adminID   = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	managerID = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	userID    = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	otherID   = uuid.MustParse("44444444-4444-4444-4444-444444444444")
)

func actor(role domain.Role, id uuid.UUID) Actor {
	return Actor{ID: id, Role: role}
}

func card(createdBy, assignedTo uuid.UUID) *domain.Card {
	return &domain.Card{ID: uuid.New(), CreatedBy: createdBy, AssignedTo: assignedTo}
}

func TestCardScope(t *testing.T) {
	if f := CardScope(actor(domain.RoleAdmin, adminID)); f.AssignedTo != nil {
		t.Fatalf("admin scope must be unrestricted, got filter on %v", f.AssignedTo)
	}
	if f := CardScope(actor(domain.RoleManager, managerID)); f.AssignedTo != nil {
		t.Fatalf("manager scope must be unrestricted, got filter on %v", f.AssignedTo)
	}
	f := CardScope(actor(domain.RoleUser, userID))
	if f.AssignedTo == nil || *f.AssignedTo != userID {
		t.Fatalf("user scope must be restricted to own id, got %v", f.AssignedTo)
	}
}

func TestCanViewCard(t *testing.T) {
	assigned := card(managerID, userID)
	foreign := card(managerID, otherID)

	cases := []struct {
		name  string
		actor Actor
		card  *domain.Card
		want  bool
	}{
		{"admin any card", actor(domain.RoleAdmin, adminID), foreign, true},
		{"manager any card", actor(domain.RoleManager, managerID), foreign, true},
		{"manager foreign creator", actor(domain.RoleManager, otherID), assigned, true},
		{"user own card", actor(domain.RoleUser, userID), assigned, true},
		{"user foreign card", actor(domain.RoleUser, userID), foreign, false},
		{"unknown role", actor(domain.Role("ghost"), userID), assigned, false},
	}
	for _, tc := range cases {
		d := CanViewCard(tc.actor, tc.card)
		if d.Allowed != tc.want {
			t.Errorf("%s: allowed=%v, want %v", tc.name, d.Allowed, tc.want)
		}
		if !d.Allowed && d.Reason == "" {
			t.Errorf("%s: deny must carry a reason", tc.name)
		}
	}
}

func TestCanEditCard(t *testing.T) {
	own := card(managerID, userID)

	cases := []struct {
		name  string
		actor Actor
		card  *domain.Card
		want  bool
	}{
		{"admin edits anything", actor(domain.RoleAdmin, adminID), own, true},
		{"manager edits own creation", actor(domain.RoleManager, managerID), own, true},
		{"manager cannot edit foreign creation", actor(domain.RoleManager, otherID), own, false},
		{"manager assignment does not grant edit", actor(domain.RoleManager, userID), card(otherID, managerID), false},
		{"user edits assigned card", actor(domain.RoleUser, userID), own, true},
		{"user cannot edit unassigned card", actor(domain.RoleUser, otherID), own, false},
		{"user creator field does not grant edit", actor(domain.RoleUser, managerID), own, false},
	}
	for _, tc := range cases {
		if d := CanEditCard(tc.actor, tc.card); d.Allowed != tc.want {
			t.Errorf("%s: allowed=%v, want %v", tc.name, d.Allowed, tc.want)
		}
	}
}

func TestCreateAndDeleteCard(t *testing.T) {
	if !CanCreateCard(actor(domain.RoleAdmin, adminID)).Allowed {
		t.Error("admin must be able to create cards")
	}
	if !CanCreateCard(actor(domain.RoleManager, managerID)).Allowed {
		t.Error("manager must be able to create cards")
	}
	if CanCreateCard(actor(domain.RoleUser, userID)).Allowed {
		t.Error("user must not create cards")
	}

	if !CanDeleteCard(actor(domain.RoleAdmin, adminID)).Allowed {
		t.Error("admin must be able to delete cards")
	}
	if CanDeleteCard(actor(domain.RoleManager, managerID)).Allowed {
		t.Error("manager must not delete cards")
	}
	if CanDeleteCard(actor(domain.RoleUser, userID)).Allowed {
		t.Error("user must not delete cards")
	}
}

func TestUserDirectoryAccess(t *testing.T) {
	admin := actor(domain.RoleAdmin, adminID)
	manager := actor(domain.RoleManager, managerID)
	plain := actor(domain.RoleUser, userID)

	if !CanListUsers(admin).Allowed || CanListUsers(manager).Allowed || CanListUsers(plain).Allowed {
		t.Error("full user list must be admin-only")
	}
	if !CanListUserRefs(admin).Allowed || !CanListUserRefs(manager).Allowed {
		t.Error("dropdown projection must be open to admin and manager")
	}
	if CanListUserRefs(plain).Allowed {
		t.Error("dropdown projection must be denied to plain users")
	}
	if !CanViewUser(admin).Allowed || CanViewUser(manager).Allowed {
		t.Error("user detail must be admin-only")
	}
	if !CanUpdateUser(admin).Allowed || !CanUpdateUser(manager).Allowed || CanUpdateUser(plain).Allowed {
		t.Error("user update must be allowed for admin and manager only")
	}
	if !CanDeleteUser(admin).Allowed || CanDeleteUser(manager).Allowed || CanDeleteUser(plain).Allowed {
		t.Error("user delete must be admin-only")
	}
}

func TestCanCreateAccount(t *testing.T) {
	admin := actor(domain.RoleAdmin, adminID)
	manager := actor(domain.RoleManager, managerID)
	plain := actor(domain.RoleUser, userID)

	if !CanCreateAccount(admin, domain.RoleUser).Allowed {
		t.Error("admin must create user accounts")
	}
	if !CanCreateAccount(admin, domain.RoleManager).Allowed {
		t.Error("admin must create manager accounts")
	}
	if CanCreateAccount(manager, domain.RoleUser).Allowed {
		t.Error("manager must not create accounts")
	}
	if CanCreateAccount(plain, domain.RoleUser).Allowed {
		t.Error("user must not create accounts")
	}

	// role=admin отклоняется для любого актора, включая действующего админа
	for _, a := range []Actor{admin, manager, plain} {
		d := CanCreateAccount(a, domain.RoleAdmin)
		if d.Allowed {
			t.Errorf("role=admin request must be denied for %s", a.Role)
		}
		if d.Reason != "Cannot create a new admin" {
			t.Errorf("unexpected reason for %s: %q", a.Role, d.Reason)
		}
	}
}

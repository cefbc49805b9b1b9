package service

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/vizitka-api/internal/apperror"
	"github.com/xela07ax/vizitka-api/internal/domain"
	"github.com/xela07ax/vizitka-api/internal/infra/auth"
	"github.com/xela07ax/vizitka-api/internal/policy"

	"go.uber.org/zap"
)

const testSecret = "bootstrap-secret"

var testKey, _ = rsa.GenerateKey(rand.Reader, 2048)

func newAuthService(store *memStore, trail *capturingTrail) *AuthService {
	return NewAuthService(store, testKey, time.Hour, bcrypt.MinCost, testSecret, trail, zap.NewNop())
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store, &capturingTrail{})

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := seedUser(store, domain.RoleManager)
	u.Email = "manager@example.com"
	u.PasswordHash = string(hash)

	resp, err := svc.Login(context.Background(), "  MANAGER@example.com ", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.User.ID != u.ID {
		t.Errorf("unexpected user in response: %s", resp.User.ID)
	}

	validator := auth.NewBaseValidator(&testKey.PublicKey)
	claims, err := validator.VerifyToken("Bearer " + resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != u.ID.String() {
		t.Errorf("claims user_id = %s, want %s", claims.UserID, u.ID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store, &capturingTrail{})

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := seedUser(store, domain.RoleUser)
	u.Email = "user@example.com"
	u.PasswordHash = string(hash)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "password123"},
		{"wrong password", "user@example.com", "wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			if apperror.KindOf(err) != apperror.KindAuthentication {
				t.Fatalf("want authentication error, got %v", err)
			}
			// Текст одинаковый в обоих случаях, чтобы не подсказывать переборщику
			if apperror.ClientMessage(err) != "Invalid email or password" {
				t.Errorf("unexpected message: %q", apperror.ClientMessage(err))
			}
		})
	}
}

func TestCreateAdminSecretGate(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store, &capturingTrail{})

	req := &domain.CreateAdminRequest{
		Email:          "root@example.com",
		Password:       "password123",
		FirstName:      "Root",
		LastName:       "Admin",
		SecretPassword: "wrong",
	}
	if _, err := svc.CreateAdmin(context.Background(), req); apperror.KindOf(err) != apperror.KindAuthorization {
		t.Fatalf("wrong secret must be rejected, got %v", err)
	}

	// Пустой сконфигурированный секрет полностью выключает bootstrap
	disabled := NewAuthService(store, testKey, time.Hour, bcrypt.MinCost, "", &capturingTrail{}, zap.NewNop())
	req.SecretPassword = ""
	if _, err := disabled.CreateAdmin(context.Background(), req); apperror.KindOf(err) != apperror.KindAuthorization {
		t.Fatalf("bootstrap must be disabled without secret, got %v", err)
	}
}

func TestCreateAdminOnlyOnce(t *testing.T) {
	store := newMemStore()
	svc := newAuthService(store, &capturingTrail{})

	req := &domain.CreateAdminRequest{
		Email:          "root@example.com",
		Password:       "password123",
		FirstName:      "Root",
		LastName:       "Admin",
		SecretPassword: testSecret,
	}
	resp, err := svc.CreateAdmin(context.Background(), req)
	if err != nil {
		t.Fatalf("first bootstrap failed: %v", err)
	}
	if resp.User.Role != domain.RoleAdmin {
		t.Errorf("bootstrap user role = %s", resp.User.Role)
	}
	if resp.Token == "" {
		t.Error("bootstrap must issue a token")
	}

	req.Email = "second@example.com"
	if _, err := svc.CreateAdmin(context.Background(), req); apperror.KindOf(err) != apperror.KindConflict {
		t.Fatalf("second admin must conflict, got %v", err)
	}
}

func TestCreateAccountMatrix(t *testing.T) {
	store := newMemStore()
	trail := &capturingTrail{}
	svc := newAuthService(store, trail)

	admin := seedUser(store, domain.RoleAdmin)
	manager := seedUser(store, domain.RoleManager)

	adminActor := policy.Actor{ID: admin.ID, Role: admin.Role}
	managerActor := policy.Actor{ID: manager.ID, Role: manager.Role}

	req := func(role domain.Role) *domain.CreateUserRequest {
		return &domain.CreateUserRequest{
			Email:     string(role) + "-new@example.com",
			Password:  "password123",
			FirstName: "New",
			LastName:  "Account",
			Role:      role,
		}
	}

	// Админ создает менеджера, created_by заполняется актором
	created, err := svc.CreateAccount(context.Background(), adminActor, req(domain.RoleManager))
	if err != nil {
		t.Fatalf("admin create manager: %v", err)
	}
	if created.CreatedBy == nil || *created.CreatedBy != admin.ID {
		t.Error("created_by must point at the acting admin")
	}

	// Роль по умолчанию — user
	created, err = svc.CreateAccount(context.Background(), adminActor, &domain.CreateUserRequest{
		Email: "plain@example.com", Password: "password123", FirstName: "P", LastName: "L",
	})
	if err != nil {
		t.Fatalf("admin create default role: %v", err)
	}
	if created.Role != domain.RoleUser {
		t.Errorf("default role = %s, want user", created.Role)
	}

	// Менеджеру нельзя
	if _, err := svc.CreateAccount(context.Background(), managerActor, req(domain.RoleUser)); apperror.KindOf(err) != apperror.KindAuthorization {
		t.Fatalf("manager must be denied, got %v", err)
	}

	// Второго админа нельзя никому, даже действующему админу
	_, err = svc.CreateAccount(context.Background(), adminActor, req(domain.RoleAdmin))
	if apperror.KindOf(err) != apperror.KindAuthorization {
		t.Fatalf("creating admin account must be denied, got %v", err)
	}
	if apperror.ClientMessage(err) != "Cannot create a new admin" {
		t.Errorf("unexpected message: %q", apperror.ClientMessage(err))
	}

	if len(trail.denials()) != 2 {
		t.Errorf("denials recorded = %d, want 2", len(trail.denials()))
	}
}

package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/domain"
)

var testKey, _ = rsa.GenerateKey(rand.Reader, 2048)

type staticUserSource struct {
	users map[uuid.UUID]*domain.User
}

func (s *staticUserSource) FindUserByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users[id], nil
}

func newPerimeter(src UserSource) http.Handler {
	mw := NewMiddleware(NewBaseValidator(&testKey.PublicKey), src, zap.NewNop())
	return mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(u.ID.String()))
	}))
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	h := newPerimeter(&staticUserSource{users: map[uuid.UUID]*domain.User{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cards", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if body["success"] != false {
		t.Error("envelope must carry success=false")
	}
}

func TestMiddlewareRejectsGarbageToken(t *testing.T) {
	h := newPerimeter(&staticUserSource{users: map[uuid.UUID]*domain.User{}})

	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewareRejectsDeletedUser(t *testing.T) {
	// Токен валиден, но аккаунт за ним уже не существует
	h := newPerimeter(&staticUserSource{users: map[uuid.UUID]*domain.User{}})

	token, err := SignToken(testKey, uuid.New().String(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestMiddlewarePassesFreshUser(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Email: "a@b.c", Role: domain.RoleManager}
	h := newPerimeter(&staticUserSource{users: map[uuid.UUID]*domain.User{u.ID: u}})

	token, err := SignToken(testKey, u.ID.String(), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != u.ID.String() {
		t.Errorf("handler saw wrong user: %s", rec.Body.String())
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	u := &domain.User{ID: uuid.New(), Role: domain.RoleUser}
	h := newPerimeter(&staticUserSource{users: map[uuid.UUID]*domain.User{u.ID: u}})

	token, err := SignToken(testKey, u.ID.String(), -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/cards", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

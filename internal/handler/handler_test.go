package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cozyss/snail-herald/internal/config"
	"github.com/cozyss/snail-herald/internal/database"
	"github.com/cozyss/snail-herald/internal/router"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Security: config.SecurityConfig{
			BcryptCost: 4,
		},
		Admin: config.AdminConfig{Username: "postmaster", Password: "sealed-wax"},
	}
	if err := database.Bootstrap(db, cfg); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	return router.SetupRouter(cfg, db, zap.NewNop())
}

type envelope struct {
	Code    int                    `json:"code"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func register(t *testing.T, r *gin.Engine, username, password string) {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": username, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	if env.Code != 0 {
		t.Fatalf("register %s: code %d", username, env.Code)
	}
}

func login(t *testing.T, r *gin.Engine, username, password string) string {
	t.Helper()
	w, env := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": username, "password": password,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	token, _ := env.Data["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in %v", username, env.Data)
	}
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestServer(t)

	register(t, r, "alice", "letters123")

	// duplicate, case-insensitive
	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "ALICE", "password": "letters123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("duplicate register: status %d", w.Code)
	}

	// malformed username
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "a!", "password": "letters123",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad username: status %d", w.Code)
	}

	// wrong password
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"username": "alice", "password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status %d", w.Code)
	}

	token := login(t, r, "alice", "letters123")

	w, env := doJSON(t, r, http.MethodGet, "/api/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d", w.Code)
	}
	if env.Data["username"] != "alice" {
		t.Fatalf("me: got %v", env.Data)
	}
}

func TestRegistrationDeliversWelcomeLetter(t *testing.T) {
	r := newTestServer(t)

	register(t, r, "alice", "letters123")
	token := login(t, r, "alice", "letters123")

	_, env := doJSON(t, r, http.MethodGet, "/api/messages", token, nil)
	received, _ := env.Data["received_messages"].([]interface{})
	if len(received) != 1 {
		t.Fatalf("expected one welcome letter, got %d", len(received))
	}
	first, _ := received[0].(map[string]interface{})
	if first["sender"] != "postmaster" {
		t.Fatalf("welcome letter sender = %v", first["sender"])
	}
}

func TestLetterFlow(t *testing.T) {
	r := newTestServer(t)
	register(t, r, "alice", "letters123")
	register(t, r, "bob", "letters123")
	alice := login(t, r, "alice", "letters123")
	bob := login(t, r, "bob", "letters123")

	// default delay window is (0, 0), letters surface immediately
	w, env := doJSON(t, r, http.MethodPost, "/api/messages", alice, gin.H{
		"receiver_username": "bob", "content": "hello bob",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("send: status %d body %s", w.Code, w.Body.String())
	}
	if env.Data["visible_at"] == nil {
		t.Fatalf("send: missing visible_at in %v", env.Data)
	}

	// unknown receiver
	w, _ = doJSON(t, r, http.MethodPost, "/api/messages", alice, gin.H{
		"receiver_username": "nobody", "content": "hello",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown receiver: status %d", w.Code)
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/messages", bob, nil)
	received, _ := env.Data["received_messages"].([]interface{})

	var letter map[string]interface{}
	for _, v := range received {
		m, _ := v.(map[string]interface{})
		if m["sender"] == "alice" {
			letter = m
		}
	}
	if letter == nil {
		t.Fatalf("bob did not receive alice's letter: %v", received)
	}
	if letter["is_read"] != false {
		t.Fatalf("letter already read: %v", letter)
	}

	id := int(letter["id"].(float64))

	// only the receiver may mark read
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/messages/%d/read", id), alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("sender mark read: status %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/messages/%d/read", id), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read: status %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/messages/%d", id), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status %d", w.Code)
	}
}

func TestFeatureBoardFlow(t *testing.T) {
	r := newTestServer(t)
	register(t, r, "alice", "letters123")
	alice := login(t, r, "alice", "letters123")

	w, env := doJSON(t, r, http.MethodPost, "/api/features", alice, gin.H{
		"description": "dark mode",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create feature: status %d body %s", w.Code, w.Body.String())
	}
	id := int(env.Data["id"].(float64))

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/features/%d/vote", id), alice, gin.H{
		"vote_type": "UPVOTE",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("vote: status %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/features/%d/vote", id), alice, gin.H{
		"vote_type": "SIDEWAYS",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad vote type: status %d", w.Code)
	}

	// create + one vote spent, three points left
	_, env = doJSON(t, r, http.MethodGet, "/api/features/points", alice, nil)
	if got := env.Data["points"].(float64); got != 3 {
		t.Fatalf("points = %v, want 3", got)
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/features", alice, nil)
	features, _ := env.Data["features"].([]interface{})
	if len(features) != 1 {
		t.Fatalf("features = %v", features)
	}
	f, _ := features[0].(map[string]interface{})
	if f["score"].(float64) != 1 {
		t.Fatalf("score = %v, want 1", f["score"])
	}

	// budget exhaustion: three more actions allowed, the next rejected
	for i := 0; i < 3; i++ {
		w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/features/%d/vote", id), alice, gin.H{
			"vote_type": "DOWNVOTE",
		})
		if w.Code != http.StatusOK {
			t.Fatalf("vote %d: status %d", i, w.Code)
		}
	}
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/features/%d/vote", id), alice, gin.H{
		"vote_type": "UPVOTE",
	})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("budget exceeded: status %d", w.Code)
	}

	// deletion is admin only
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/features/%d", id), alice, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin delete: status %d", w.Code)
	}

	admin := login(t, r, "postmaster", "sealed-wax")
	w, _ = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/features/%d", id), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete: status %d", w.Code)
	}
}

func TestAdminEndpoints(t *testing.T) {
	r := newTestServer(t)
	register(t, r, "alice", "letters123")
	alice := login(t, r, "alice", "letters123")
	admin := login(t, r, "postmaster", "sealed-wax")

	// regular users are rejected
	w, _ := doJSON(t, r, http.MethodGet, "/api/admin/delay-settings", alice, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: status %d", w.Code)
	}

	w, env := doJSON(t, r, http.MethodPut, "/api/admin/delay-settings", admin, gin.H{
		"min_delay": 60, "max_delay": 120,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update delays: status %d body %s", w.Code, w.Body.String())
	}
	if env.Data["min_delay"].(float64) != 60 || env.Data["max_delay"].(float64) != 120 {
		t.Fatalf("update delays: %v", env.Data)
	}

	w, _ = doJSON(t, r, http.MethodPut, "/api/admin/delay-settings", admin, gin.H{
		"min_delay": 120, "max_delay": 60,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("inverted delays: status %d", w.Code)
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/admin/delay-settings", admin, nil)
	if env.Data["min_delay"].(float64) != 60 {
		t.Fatalf("get delays: %v", env.Data)
	}

	w, env = doJSON(t, r, http.MethodPost, "/api/admin/announcements", admin, gin.H{
		"content": "maintenance tonight",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("announcement: status %d", w.Code)
	}
	// one letter per registered user, sender excluded
	if got := env.Data["recipient_count"].(float64); got != 1 {
		t.Fatalf("recipient_count = %v, want 1", got)
	}

	w, env = doJSON(t, r, http.MethodPut, "/api/admin/welcome-template", admin, gin.H{
		"content": "welcome aboard",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update template: status %d", w.Code)
	}
	if env.Data["content"] != "welcome aboard" {
		t.Fatalf("template content: %v", env.Data)
	}

	_, env = doJSON(t, r, http.MethodGet, "/api/admin/users", admin, nil)
	users, _ := env.Data["users"].([]interface{})
	if len(users) != 2 {
		t.Fatalf("user stats: %v", env.Data)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users/export?format=csv", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("export csv: status %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export csv content type: %s", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "postmaster") {
		t.Fatalf("export csv missing admin row: %s", rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	r := newTestServer(t)

	w, _ := doJSON(t, r, http.MethodGet, "/api/messages", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodGet, "/api/messages", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: status %d", w.Code)
	}
}

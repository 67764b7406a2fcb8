package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vlanman/internal/entity"
	"vlanman/internal/repository"
	"vlanman/internal/service"
	"vlanman/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newAuthMiddleware(t *testing.T) (AuthMiddleware, *service.AuthService) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&entity.User{}, &entity.Session{}, &entity.VlanRecord{}, &entity.ActivityLog{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	tokens := &utils.JWTManager{Secret: []byte("test-secret")}
	auth := service.NewAuthService(
		repository.NewUserRepository(db),
		repository.NewSessionRepository(db),
		repository.NewActivityLogRepository(db),
		tokens,
		service.RealClock{},
		service.AuthConfig{SessionTimeout: 30 * time.Minute},
		logger,
	)
	return AuthMiddleware{JWT: tokens, Auth: auth}, auth
}

func invoke(m AuthMiddleware, authorization string) (int, bool) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	reached := false
	err := m.RequireAuth(func(c echo.Context) error {
		reached = true
		return c.NoContent(http.StatusOK)
	})(c)

	if httpErr, ok := err.(*echo.HTTPError); ok {
		return httpErr.Code, reached
	}
	return rec.Code, reached
}

func TestRequireAuth_AcceptsLiveSession(t *testing.T) {
	m, auth := newAuthMiddleware(t)
	result, err := auth.Login(context.Background(), service.LoginInput{NIM: "1", Name: "X", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	code, reached := invoke(m, "Bearer "+result.AccessToken)
	if !reached || code != http.StatusOK {
		t.Errorf("code = %d, reached = %v, want 200 and handler reached", code, reached)
	}
}

func TestRequireAuth_RejectsRevokedSession(t *testing.T) {
	m, auth := newAuthMiddleware(t)
	result, err := auth.Login(context.Background(), service.LoginInput{NIM: "1", Name: "X", Email: "x@example.com"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := auth.Logout(context.Background(), result.User.ID, result.SessionID, nil); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	// The JWT is still within its own lifetime; only the session died.
	code, reached := invoke(m, "Bearer "+result.AccessToken)
	if reached || code != http.StatusUnauthorized {
		t.Errorf("code = %d, reached = %v, want 401 without reaching the handler", code, reached)
	}
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	m, _ := newAuthMiddleware(t)

	for _, authorization := range []string{
		"",
		"Bearer",
		"Bearer garbage",
		"Basic dXNlcjpwYXNz",
	} {
		code, reached := invoke(m, authorization)
		if reached || code != http.StatusUnauthorized {
			t.Errorf("authorization %q: code = %d, reached = %v, want 401", authorization, code, reached)
		}
	}
}

package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/handler"
	"github.com/babytracker/internal/router"
	"github.com/babytracker/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type testApp struct {
	t      *testing.T
	api    *handler.API
	engine *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(db.Options{Path: dsn, LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	api := handler.NewAPI(gdb, auth.NewTickets("test-secret", time.Hour), time.UTC)
	return &testApp{t: t, api: api, engine: router.SetupRouter(api, zap.NewNop(), "session-secret")}
}

func (a *testApp) register(email, name, password string) *db.User {
	a.t.Helper()
	user, err := a.api.Services().Users.Register(email, name, password)
	if err != nil {
		a.t.Fatalf("Register returned error: %v", err)
	}
	return user
}

func (a *testApp) addBaby(user *db.User, name string) *db.Baby {
	a.t.Helper()
	baby, err := a.api.Services().Babies.Create(user, service.BabyInput{
		Name:   name,
		DOB:    time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Gender: service.GenderFemale,
	})
	if err != nil {
		a.t.Fatalf("Create baby returned error: %v", err)
	}
	return baby
}

func (a *testApp) token(email string) string {
	a.t.Helper()
	raw, err := a.api.Tickets().Issue(email)
	if err != nil {
		a.t.Fatalf("Issue returned error: %v", err)
	}
	return raw
}

// do sends body as JSON and authenticates with token when one is given.
func (a *testApp) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

// form posts url-encoded values with the ticket cookie, like a browser would.
func (a *testApp) form(path string, values url.Values, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) get(path, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token})
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

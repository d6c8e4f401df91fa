package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/handler"
	"github.com/babytracker/internal/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	server *httptest.Server
	client *http.Client
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:e2e-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := db.Open(db.Options{Path: dsn, LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.EnsureUser(gdb, "bob@x.com", "Bob", "bobpass"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	api := handler.NewAPI(gdb, auth.NewTickets("e2e-secret", time.Hour), time.UTC)
	server := httptest.NewServer(router.SetupRouter(api, zap.NewNop(), "e2e-session"))
	t.Cleanup(func() {
		server.Close()
		sqlDB.Close()
	})

	return &e2eSuite{server: server, client: newClient(t)}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (s *e2eSuite) request(t *testing.T, client *http.Client, method, path string, body any) (int, []byte, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, s.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	return resp.StatusCode, data, resp.Header
}

func (s *e2eSuite) expect(t *testing.T, client *http.Client, method, path string, body any, status int) []byte {
	t.Helper()
	got, data, _ := s.request(t, client, method, path, body)
	if got != status {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, status, got, data)
	}
	return data
}

func TestE2E_ParentTracksTwoBabies(t *testing.T) {
	suite := newE2ESuite(t)
	alice := suite.client

	suite.expect(t, alice, http.MethodPost, "/api/@@signup", map[string]string{
		"email": "Alice@X.com", "name": "Alice", "password": "alicepass",
	}, http.StatusCreated)

	suite.expect(t, alice, http.MethodPost, "/api/alice@x.com", map[string]string{"name": "Jill", "dob": "2024-01-15", "gender": "f"}, http.StatusCreated)
	suite.expect(t, alice, http.MethodPost, "/api/alice@x.com", map[string]string{"name": "Tom", "dob": "2024-01-15", "gender": "m"}, http.StatusCreated)

	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		start := day.Add(time.Duration(i*3) * time.Hour)
		suite.expect(t, alice, http.MethodPost, "/api/alice@x.com/jill", map[string]any{
			"entry_type":     "breast_feed",
			"start":          start.Format(time.RFC3339),
			"end":            start.Add(20 * time.Minute).Format(time.RFC3339),
			"left_duration":  10,
			"right_duration": 10,
		}, http.StatusCreated)
	}
	suite.expect(t, alice, http.MethodPost, "/api/alice@x.com/tom", map[string]any{
		"entry_type": "nappy_change",
		"start":      day.Add(time.Hour).Format(time.RFC3339),
		"contents":   "wet",
	}, http.StatusCreated)

	data := suite.expect(t, alice, http.MethodGet, "/api/alice@x.com/jill/entries?start=2024-05-01T04:00:00Z", nil, http.StatusOK)
	var entries []map[string]any
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("failed to decode entries: %v", err)
	}
	if len(entries) != 2 || entries[0]["start"] != "2024-05-01T09:00:00Z" {
		t.Fatalf("expected the two later feeds newest first, got %v", entries)
	}

	data = suite.expect(t, alice, http.MethodGet, "/api/alice@x.com/jill/@@chart?start=2024-05-01&end=2024-05-01", nil, http.StatusOK)
	if _, err := png.Decode(bytes.NewReader(data)); err != nil {
		t.Fatalf("chart is not a png: %v", err)
	}

	status, page, _ := suite.request(t, alice, http.MethodGet, "/alice@x.com/jill?start=2024-05-01&end=2024-05-01", nil)
	if status != http.StatusOK || !strings.Contains(string(page), "left 10m, right 10m") {
		t.Fatalf("expected the baby page to list feeds, got %d: %s", status, page)
	}

	// 其他家长既看不到也改不了
	bob := newClient(t)
	suite.expect(t, bob, http.MethodPost, "/api/@@login", map[string]string{"username": "bob@x.com", "password": "bobpass"}, http.StatusOK)
	suite.expect(t, bob, http.MethodGet, "/api/alice@x.com/jill/entries", nil, http.StatusForbidden)
	suite.expect(t, bob, http.MethodDelete, "/api/alice@x.com/jill", nil, http.StatusForbidden)

	suite.expect(t, alice, http.MethodPost, "/api/@@logout", nil, http.StatusOK)
	suite.expect(t, alice, http.MethodGet, "/api/alice@x.com", nil, http.StatusForbidden)

	status, _, header := suite.request(t, alice, http.MethodGet, "/alice@x.com", nil)
	if status != http.StatusFound || header.Get("Location") != "/@@login?came_from="+url.QueryEscape("/alice@x.com") {
		t.Fatalf("expected a login redirect, got %d to %q", status, header.Get("Location"))
	}
}

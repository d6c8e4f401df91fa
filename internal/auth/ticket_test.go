package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/babytracker/internal/db"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type stubUsers map[string]*db.User

func (s stubUsers) FindUser(email string) (*db.User, error) {
	return s[email], nil
}

func TestTicketsIssueAndVerify(t *testing.T) {
	tickets := NewTickets("secret", time.Hour)

	raw, err := tickets.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	email, err := tickets.Verify(raw)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if email != "a@x.com" {
		t.Fatalf("expected a@x.com, got %q", email)
	}

	if _, err := NewTickets("other", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("expected forged ticket to fail, got %v", err)
	}
	if _, err := tickets.Verify("not-a-token"); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("expected malformed ticket to fail, got %v", err)
	}
}

func TestTicketsExpire(t *testing.T) {
	tickets := NewTickets("secret", time.Minute)
	issued := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tickets.now = func() time.Time { return issued }

	raw, err := tickets.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tickets.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tickets.Verify(raw); !errors.Is(err, ErrInvalidTicket) {
		t.Fatalf("expected expired ticket to fail, got %v", err)
	}
}

func TestIdentifyReadsCookieAndBearer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := NewTickets("secret", time.Hour)
	users := stubUsers{"a@x.com": {Model: gorm.Model{ID: 1}, Email: "a@x.com"}}

	router := gin.New()
	router.Use(tickets.Identify(users))
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, CurrentEmail(c))
	})

	raw, err := tickets.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	ghost, err := tickets.Issue("ghost@x.com")
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	tests := []struct {
		name   string
		setup  func(*http.Request)
		want   string
		forget bool
	}{
		{name: "anonymous", setup: func(*http.Request) {}, want: ""},
		{name: "cookie", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: raw}) }, want: "a@x.com"},
		{name: "bearer", setup: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+raw) }, want: "a@x.com"},
		{name: "garbage", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: "junk"}) }, want: "", forget: true},
		{name: "deleted account", setup: func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: ghost}) }, want: "", forget: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Body.String() != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, rec.Body.String())
			}
			cleared := strings.Contains(rec.Header().Get("Set-Cookie"), CookieName+"=;")
			if cleared != tt.forget {
				t.Fatalf("expected cookie cleared=%v, header %q", tt.forget, rec.Header().Get("Set-Cookie"))
			}
		})
	}
}

func TestRememberSetsHTTPOnlyCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tickets := NewTickets("secret", time.Hour)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Request.Header.Set("X-Forwarded-Proto", "https")

	if _, err := tickets.Remember(c, "a@x.com"); err != nil {
		t.Fatalf("Remember returned error: %v", err)
	}
	header := rec.Header().Get("Set-Cookie")
	for _, want := range []string{CookieName + "=", "HttpOnly", "Secure", "SameSite=Lax", "Max-Age=3600"} {
		if !strings.Contains(header, want) {
			t.Fatalf("expected %q in %q", want, header)
		}
	}
}

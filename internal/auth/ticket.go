// Package auth issues and checks the signed ticket that names the logged-in user.
//
// The ticket is an HS256 JWT carried in the auth_tkt cookie or, for API clients, in an
// "Authorization: Bearer" header.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie holding the ticket.
const CookieName = "auth_tkt"

// DefaultTTL is used when no lifetime is configured.
const DefaultTTL = 7 * 24 * time.Hour

// ErrInvalidTicket is returned for a malformed, expired or forged ticket.
var ErrInvalidTicket = errors.New("invalid auth ticket")

// Claims are the JWT claims of a ticket; the subject is the user's email.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tickets signs and verifies tickets with a shared secret.
type Tickets struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTickets returns a ticket issuer. A non-positive ttl falls back to DefaultTTL.
func NewTickets(secret string, ttl time.Duration) *Tickets {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tickets{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a ticket for email.
func (t *Tickets) Issue(email string) (string, error) {
	now := t.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// Verify checks a ticket and returns the email it names.
func (t *Tickets) Verify(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return "", ErrInvalidTicket
	}
	return claims.Email, nil
}

// Remember issues a ticket for email and stores it in the ticket cookie.
func (t *Tickets) Remember(c *gin.Context, email string) (string, error) {
	signed, err := t.Issue(email)
	if err != nil {
		return "", err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, signed, int(t.ttl/time.Second), "/", "", IsSecureRequest(c.Request), true)
	return signed, nil
}

// Forget expires the ticket cookie.
func (t *Tickets) Forget(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", "", IsSecureRequest(c.Request), true)
}

// fromRequest extracts a ticket from the bearer header or the cookie, in that order.
func fromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// IsSecureRequest reports whether the request reached us over HTTPS, directly or through a
// proxy that sets X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	if r.Header.Get("X-Forwarded-Proto") == "https" {
		return true
	}
	return r.URL != nil && r.URL.Scheme == "https"
}

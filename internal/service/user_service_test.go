package service

import (
	"errors"
	"testing"

	"github.com/babytracker/internal/db"
)

func TestUserServiceRegisterAndAuthenticate(t *testing.T) {
	svc := New(setupServiceTestDB(t))

	user, err := svc.Users.Register("  Parent@Example.com ", "Pat", "hunter2")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "parent@example.com" {
		t.Fatalf("expected normalized email, got %q", user.Email)
	}
	if user.Password == "hunter2" {
		t.Fatal("password stored in plain text")
	}

	if _, err := svc.Users.Authenticate("parent@example.com", "hunter2"); err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if _, err := svc.Users.Authenticate("parent@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := svc.Users.Authenticate("nobody@example.com", "hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestUserServiceRegisterValidation(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	mustRegister(t, svc, "a@x.com")

	tests := []struct {
		name     string
		email    string
		userName string
		password string
		want     error
	}{
		{name: "missing email", email: "", userName: "A", password: "p", want: ErrInvalidInput},
		{name: "no at sign", email: "not-an-email", userName: "A", password: "p", want: ErrInvalidInput},
		{name: "slash", email: "a/b@x.com", userName: "A", password: "p", want: ErrInvalidInput},
		{name: "view prefix", email: "@@b@x.com", userName: "A", password: "p", want: ErrInvalidInput},
		{name: "missing name", email: "b@x.com", userName: " ", password: "p", want: ErrInvalidInput},
		{name: "missing password", email: "b@x.com", userName: "B", password: "", want: ErrInvalidInput},
		{name: "taken", email: "A@x.com", userName: "A", password: "p", want: ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Users.Register(tt.email, tt.userName, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestUserServiceInsertMapsUniqueIndex(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	mustRegister(t, svc, "a@x.com")

	// 绕过注册时的计数检查，直接由唯一索引拦截
	err := svc.Users.insert(&db.User{Email: "a@x.com", Name: "Other", Password: "hash"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if !IsConflict(err) {
		t.Fatalf("expected %v to be a conflict", err)
	}
}

func TestUserServiceUpdate(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")

	if err := svc.Users.Update(user, UserPatch{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty patch, got %v", err)
	}

	name := "Alex"
	password := "new-secret"
	if err := svc.Users.Update(user, UserPatch{Name: &name, Password: &password}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	reloaded, err := svc.Users.FindUser("a@x.com")
	if err != nil || reloaded == nil {
		t.Fatalf("FindUser = %v, %v", reloaded, err)
	}
	if reloaded.Name != "Alex" {
		t.Fatalf("expected renamed user, got %q", reloaded.Name)
	}
	if _, err := svc.Users.Authenticate("a@x.com", "secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work, got %v", err)
	}
	if _, err := svc.Users.Authenticate("a@x.com", "new-secret"); err != nil {
		t.Fatalf("new password should work, got %v", err)
	}

	empty := ""
	if err := svc.Users.Update(user, UserPatch{Password: &empty}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestUserServiceFindUserPreloadsBabiesInOrder(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	mustCreateBaby(t, svc, user, "Zoe")
	mustCreateBaby(t, svc, user, "Adam")

	if err := svc.Users.Reload(user); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if len(user.Babies) != 2 {
		t.Fatalf("expected 2 babies, got %d", len(user.Babies))
	}
	if user.Babies[0].Name != "Zoe" || user.Babies[1].Name != "Adam" {
		t.Fatalf("expected creation order, got %s, %s", user.Babies[0].Name, user.Babies[1].Name)
	}
}

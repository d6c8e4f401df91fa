package service

import (
	"errors"
	"testing"
	"time"

	"github.com/babytracker/internal/db"
)

func TestBabySlug(t *testing.T) {
	tests := map[string]string{
		"Jill Smith":       "jill-smith",
		"Jill  Smith":      "jill-smith",
		"  JILL\tsmith  ":  "jill-smith",
		"Ünal":             "ünal",
		"Mary Jane Watson": "mary-jane-watson",
		"   ":              "",
	}
	for in, want := range tests {
		if got := BabySlug(in); got != want {
			t.Fatalf("BabySlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBabyServiceCreateRejectsNormalizedDuplicate(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	mustCreateBaby(t, svc, user, "Jill Smith")

	_, err := svc.Babies.Create(user, BabyInput{Name: "jill  SMITH", DOB: time.Now(), Gender: GenderFemale})
	if !errors.Is(err, ErrBabyNameTaken) {
		t.Fatalf("expected ErrBabyNameTaken, got %v", err)
	}

	// 同名宝宝可以属于不同用户
	other := mustRegister(t, svc, "b@x.com")
	if _, err := svc.Babies.Create(other, BabyInput{Name: "Jill Smith", DOB: time.Now(), Gender: GenderFemale}); err != nil {
		t.Fatalf("expected sibling-only uniqueness, got %v", err)
	}
}

func TestBabyServiceCreateValidation(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")

	tests := []struct {
		name  string
		input BabyInput
	}{
		{name: "empty name", input: BabyInput{Name: "  ", DOB: time.Now(), Gender: GenderMale}},
		{name: "bad gender", input: BabyInput{Name: "Tom", DOB: time.Now(), Gender: "x"}},
		{name: "missing dob", input: BabyInput{Name: "Tom", Gender: GenderMale}},
		{name: "slash in name", input: BabyInput{Name: "A/B", DOB: time.Now(), Gender: GenderMale}},
		{name: "view prefix", input: BabyInput{Name: "@@chart", DOB: time.Now(), Gender: GenderMale}},
		{name: "dot dot", input: BabyInput{Name: "..", DOB: time.Now(), Gender: GenderMale}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Babies.Create(user, tt.input); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestBabyServiceRenameRejectsUnreachableName(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	baby := mustCreateBaby(t, svc, user, "Jill")

	for _, name := range []string{"@@login", "jill/smith"} {
		if err := svc.Babies.Update(baby, BabyPatch{Name: &name}); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("renaming to %q: expected ErrInvalidInput, got %v", name, err)
		}
	}
	if baby.Slug != "jill" {
		t.Fatalf("expected slug to stay jill, got %q", baby.Slug)
	}
}

func TestBabyServiceInsertMapsUniqueIndex(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	mustCreateBaby(t, svc, user, "Jill Smith")

	// 绕过 ensureSlugAvailable，直接由唯一索引拦截
	dup := db.Baby{UserID: user.ID, Name: "JILL smith", Slug: "jill-smith", DOB: normalizeDate(time.Now()), Gender: GenderFemale}
	err := svc.Babies.insert(&dup)
	if !errors.Is(err, ErrBabyNameTaken) {
		t.Fatalf("expected ErrBabyNameTaken, got %v", err)
	}
	if !IsConflict(err) {
		t.Fatalf("expected %v to be a conflict", err)
	}

	babies, err := svc.Babies.ListForUser(user.ID)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(babies) != 1 {
		t.Fatalf("expected the duplicate to be rejected, got %d babies", len(babies))
	}
}

func TestBabyServiceRenameToSameSlugDoesNotConflict(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	baby := mustCreateBaby(t, svc, user, "Jill Smith")

	name := "Jill  Smith"
	if err := svc.Babies.Update(baby, BabyPatch{Name: &name}); err != nil {
		t.Fatalf("renaming to an equivalent name returned error: %v", err)
	}
	if baby.Slug != "jill-smith" {
		t.Fatalf("expected slug jill-smith, got %q", baby.Slug)
	}
	if baby.Name != "Jill  Smith" {
		t.Fatalf("expected display name to change, got %q", baby.Name)
	}
}

func TestBabyServiceRenameConflictsWithSibling(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	mustCreateBaby(t, svc, user, "Jill")
	tom := mustCreateBaby(t, svc, user, "Tom")

	name := "JILL"
	if err := svc.Babies.Update(tom, BabyPatch{Name: &name}); !errors.Is(err, ErrBabyNameTaken) {
		t.Fatalf("expected ErrBabyNameTaken, got %v", err)
	}
	if tom.Name != "Tom" {
		t.Fatalf("failed update must not touch the baby, got %q", tom.Name)
	}

	gender := GenderMale
	dob := time.Date(2023, 12, 24, 18, 30, 0, 0, time.UTC)
	if err := svc.Babies.Update(tom, BabyPatch{Gender: &gender, DOB: &dob}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	found, err := svc.Babies.FindBaby(user.ID, "tom")
	if err != nil || found == nil {
		t.Fatalf("FindBaby = %v, %v", found, err)
	}
	if found.Gender != GenderMale || !found.DOB.Equal(time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected stored baby: %+v", found)
	}
}

func TestBabyServiceDeleteRemovesEntriesAndFreesSlug(t *testing.T) {
	svc := New(setupServiceTestDB(t))
	user := mustRegister(t, svc, "a@x.com")
	baby := mustCreateBaby(t, svc, user, "Jill")
	if _, err := svc.Entries.Create(baby, EntryInput{Kind: "sleep", Start: time.Now()}); err != nil {
		t.Fatalf("Create entry returned error: %v", err)
	}

	if err := svc.Babies.Delete(baby); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	entries, err := svc.Entries.Between(baby.ID, EntryFilter{})
	if err != nil {
		t.Fatalf("Between returned error: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected entries to be deleted, got %d", len(entries))
	}

	babies, err := svc.Babies.ListForUser(user.ID)
	if err != nil {
		t.Fatalf("ListForUser returned error: %v", err)
	}
	if len(babies) != 0 {
		t.Fatalf("expected no babies, got %d", len(babies))
	}

	mustCreateBaby(t, svc, user, "Jill")
}

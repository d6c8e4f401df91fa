package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
	"github.com/babytracker/internal/view"
	"github.com/gin-gonic/gin"
)

// formField is one variant input on the entry forms, shared by every kind that has it.
type formField struct {
	Name    string
	Label   string
	Type    string
	Choices []string
	Kinds   []entry.Kind
	Value   string
}

// entryFormFields lists each variant field once, in schema order.
func entryFormFields() []formField {
	var fields []formField
	index := map[string]int{}
	for _, schema := range entry.Schemas() {
		for _, f := range schema.Fields {
			if i, ok := index[f.Name]; ok {
				fields[i].Kinds = append(fields[i].Kinds, schema.Kind)
				continue
			}
			index[f.Name] = len(fields)
			fields = append(fields, formField{
				Name:    f.Name,
				Label:   f.Label,
				Type:    fieldInputType(f.Type),
				Choices: f.Choices,
				Kinds:   []entry.Kind{schema.Kind},
			})
		}
	}
	return fields
}

func fieldInputType(t entry.FieldType) string {
	if t == entry.FieldChoice {
		return "select"
	}
	return "number"
}

// entryFormValues collects the common keys and the non-blank fields of kind from a form post.
func entryFormValues(c *gin.Context, kind entry.Kind) map[string]string {
	values := map[string]string{}
	for _, key := range []string{keyStart, keyEnd, keyNote} {
		if v, ok := c.GetPostForm(key); ok {
			values[key] = v
		}
	}
	if schema := entry.SchemaFor(kind); schema != nil {
		for _, name := range schema.FieldNames() {
			if v := strings.TrimSpace(c.PostForm(name)); v != "" {
				values[name] = v
			}
		}
	}
	return values
}

func pressed(c *gin.Context, button string) bool {
	_, ok := c.GetPostForm(button)
	return ok
}

func (a *API) siteHome(r *siteRequest) (siteResult, error) {
	if r.user != nil {
		return siteResult{redirect: resource.UserURL("", r.user)}, nil
	}
	return page("home.html", gin.H{"title": siteName}), nil
}

func (a *API) siteLogin(r *siteRequest) (siteResult, error) {
	cameFrom := r.c.Query("came_from")
	if r.c.Request.Method == http.MethodGet {
		return page("login.html", gin.H{"title": "Log in", "cameFrom": cameFrom}), nil
	}

	email := strings.TrimSpace(r.c.PostForm("email"))
	password := r.c.PostForm("password")
	if email == "" || password == "" {
		return siteResult{}, fmt.Errorf("%w: email and password are required", service.ErrInvalidInput)
	}
	user, err := r.tx.Users.Authenticate(email, password)
	if err != nil {
		return siteResult{}, err
	}
	if _, err := a.tickets.Remember(r.c, user.Email); err != nil {
		return siteResult{}, err
	}
	auth.SetCurrentUser(r.c, user)
	return redirectTo(safeRedirect(cameFrom, resource.UserURL("", user)), "Welcome back, "+user.Name+"."), nil
}

func (a *API) siteLogout(r *siteRequest) (siteResult, error) {
	a.tickets.Forget(r.c)
	auth.SetCurrentUser(r.c, nil)
	return redirectTo("/", "You have been logged out."), nil
}

func (a *API) siteSignup(r *siteRequest) (siteResult, error) {
	if r.c.Request.Method == http.MethodGet {
		return page("signup.html", gin.H{"title": "Sign up"}), nil
	}

	password := r.c.PostForm("password")
	if password != r.c.PostForm("confirm") {
		return siteResult{}, fmt.Errorf("%w: passwords do not match", service.ErrInvalidInput)
	}
	user, err := r.tx.Users.Register(r.c.PostForm("email"), r.c.PostForm("name"), password)
	if err != nil {
		return siteResult{}, err
	}
	if _, err := a.tickets.Remember(r.c, user.Email); err != nil {
		return siteResult{}, err
	}
	auth.SetCurrentUser(r.c, user)
	return redirectTo(resource.UserURL("", user), "Welcome, "+user.Name+"."), nil
}

func (a *API) siteUser(r *siteRequest) (siteResult, error) {
	user := r.path.User()
	self := resource.UserURL("", user)

	if r.c.Request.Method == http.MethodGet {
		return page("user.html", gin.H{
			"title":  user.Name,
			"user":   user,
			"babies": a.babyLinks(user),
			"kinds":  view.KindOptions(),
			"fields": entryFormFields(),
			"now":    a.now(),
		}), nil
	}

	switch {
	case pressed(r.c, "btn.save"):
		if err := r.tx.Users.Rename(user, r.c.PostForm("name")); err != nil {
			return siteResult{}, err
		}
		return redirectTo(self, "Your details have been saved."), nil

	case pressed(r.c, "btn.change_password"):
		password := r.c.PostForm("password")
		if password != r.c.PostForm("confirm") {
			return siteResult{}, fmt.Errorf("%w: passwords do not match", service.ErrInvalidInput)
		}
		if err := r.tx.Users.ChangePassword(user, password); err != nil {
			return siteResult{}, err
		}
		return redirectTo(self, "Your password has been changed."), nil

	case pressed(r.c, "btn.add_baby"):
		input, err := a.babyInput(map[string]string{
			"name":   r.c.PostForm("name"),
			"dob":    r.c.PostForm("dob"),
			"gender": r.c.PostForm("gender"),
		})
		if err != nil {
			return siteResult{}, err
		}
		baby, err := r.tx.Babies.Create(user, input)
		if err != nil {
			return siteResult{}, err
		}
		return redirectTo(resource.BabyURL("", user, baby), baby.Name+" has been added."), nil

	case pressed(r.c, "btn.log_entry"):
		count, err := a.logForBabies(r, user)
		if err != nil {
			return siteResult{}, err
		}
		return redirectTo(self, fmt.Sprintf("Logged %d %s.", count, plural(count, "entry", "entries"))), nil
	}
	return siteResult{}, fmt.Errorf("%w: unknown action", service.ErrInvalidInput)
}

// logForBabies creates the same entry for every selected baby. Any failure aborts them all.
func (a *API) logForBabies(r *siteRequest, user *db.User) (int, error) {
	slugs := r.c.PostFormArray("babies")
	if len(slugs) == 0 {
		return 0, fmt.Errorf("%w: choose at least one baby", service.ErrInvalidInput)
	}

	kind := strings.TrimSpace(r.c.PostForm(keyEntryType))
	values := entryFormValues(r.c, entry.Kind(kind))
	values[keyEntryType] = kind
	input, err := a.entryInput(values)
	if err != nil {
		return 0, err
	}

	for _, slug := range slugs {
		baby, err := r.tx.Babies.FindBaby(user.ID, slug)
		if err != nil {
			return 0, err
		}
		if baby == nil {
			return 0, fmt.Errorf("%w: unknown baby %q", service.ErrInvalidInput, slug)
		}
		if _, err := r.tx.Entries.Create(baby, input); err != nil {
			return 0, err
		}
	}
	return len(slugs), nil
}

func (a *API) siteBaby(r *siteRequest) (siteResult, error) {
	user := r.path.User()
	baby := r.path.Baby()
	self := resource.BabyURL("", user, baby)

	if r.c.Request.Method == http.MethodGet {
		filter, err := a.entryFilter(r.c.Query)
		if err != nil {
			return siteResult{}, err
		}
		entries, err := r.tx.Entries.Between(baby.ID, filter)
		if err != nil {
			return siteResult{}, err
		}

		chartQuery := url.Values{}
		for _, key := range []string{keyStart, keyEnd, keyEntryType} {
			if v := r.c.Query(key); v != "" {
				chartQuery.Set(key, v)
			}
		}
		chartURL := resource.URL("", user.Email, baby.Slug, "@@chart")
		if len(chartQuery) > 0 {
			chartURL += "?" + chartQuery.Encode()
		}

		return page("baby.html", gin.H{
			"title":    baby.Name,
			"user":     user,
			"baby":     baby,
			"url":      self,
			"userURL":  resource.UserURL("", user),
			"entries":  a.entryRows(user, baby, entries),
			"summary":  service.Summarize(entries),
			"chartURL": chartURL,
			"kinds":    view.KindOptions(),
			"fields":   entryFormFields(),
			"filter": gin.H{
				"start":      r.c.Query(keyStart),
				"end":        r.c.Query(keyEnd),
				"entry_type": r.c.Query(keyEntryType),
			},
			"now":        a.now(),
			"genderMale": service.GenderMale,
		}), nil
	}

	switch {
	case pressed(r.c, "btn.save"):
		patch, err := a.babyPatch(map[string]string{
			"name":   r.c.PostForm("name"),
			"dob":    r.c.PostForm("dob"),
			"gender": r.c.PostForm("gender"),
		})
		if err != nil {
			return siteResult{}, err
		}
		if err := r.tx.Babies.Update(baby, patch); err != nil {
			return siteResult{}, err
		}
		return redirectTo(resource.BabyURL("", user, baby), baby.Name+" has been saved."), nil

	case pressed(r.c, "btn.add_entry"):
		kind := strings.TrimSpace(r.c.PostForm(keyEntryType))
		values := entryFormValues(r.c, entry.Kind(kind))
		values[keyEntryType] = kind
		input, err := a.entryInput(values)
		if err != nil {
			return siteResult{}, err
		}
		if _, err := r.tx.Entries.Create(baby, input); err != nil {
			return siteResult{}, err
		}
		return redirectTo(self, view.KindLabel(entry.Kind(input.Kind))+" logged."), nil

	case pressed(r.c, "btn.delete"):
		if err := r.tx.Babies.Delete(baby); err != nil {
			return siteResult{}, err
		}
		return redirectTo(resource.UserURL("", user), baby.Name+" has been deleted."), nil
	}
	return siteResult{}, fmt.Errorf("%w: unknown action", service.ErrInvalidInput)
}

func (a *API) siteChart(r *siteRequest) (siteResult, error) {
	png, err := a.renderChart(r.tx, r.path, r.c.Query)
	if err != nil {
		return siteResult{}, err
	}
	return siteResult{status: http.StatusOK, contentType: "image/png", raw: png}, nil
}

func (a *API) siteEntry(r *siteRequest) (siteResult, error) {
	user := r.path.User()
	baby := r.path.Baby()
	e := r.path.Entry()
	babyURL := resource.BabyURL("", user, baby)

	if r.c.Request.Method == http.MethodGet {
		schema := entry.SchemaFor(e.Kind())
		values := schema.Strings(e.Details)
		fields := make([]formField, 0, len(schema.Fields))
		for _, f := range schema.Fields {
			fields = append(fields, formField{
				Name:    f.Name,
				Label:   f.Label,
				Type:    fieldInputType(f.Type),
				Choices: f.Choices,
				Kinds:   []entry.Kind{schema.Kind},
				Value:   values[f.Name],
			})
		}
		return page("entry.html", gin.H{
			"title":   view.KindLabel(e.Kind()),
			"user":    user,
			"baby":    baby,
			"babyURL": babyURL,
			"entry":   e,
			"fields":  fields,
		}), nil
	}

	switch {
	case pressed(r.c, "btn.save"):
		patch, err := a.entryPatch(e, entryFormValues(r.c, e.Kind()))
		if err != nil {
			return siteResult{}, err
		}
		if err := r.tx.Entries.Update(e, patch); err != nil {
			return siteResult{}, err
		}
		return redirectTo(babyURL, view.KindLabel(e.Kind())+" saved."), nil

	case pressed(r.c, "btn.delete"):
		if err := r.tx.Entries.Delete(e); err != nil {
			return siteResult{}, err
		}
		return redirectTo(babyURL, view.KindLabel(e.Kind())+" deleted."), nil
	}
	return siteResult{}, fmt.Errorf("%w: unknown action", service.ErrInvalidInput)
}

type babyLink struct {
	URL  string
	Baby db.Baby
	Age  string
}

func (a *API) babyLinks(user *db.User) []babyLink {
	links := make([]babyLink, 0, len(user.Babies))
	for i := range user.Babies {
		baby := &user.Babies[i]
		links = append(links, babyLink{
			URL:  resource.BabyURL("", user, baby),
			Baby: *baby,
			Age:  age(baby.DOB, a.now()),
		})
	}
	return links
}

type entryRow struct {
	URL   string
	Entry *entry.Entry
}

func (a *API) entryRows(user *db.User, baby *db.Baby, entries []entry.Entry) []entryRow {
	rows := make([]entryRow, 0, len(entries))
	for i := range entries {
		rows = append(rows, entryRow{
			URL:   resource.EntryURL("", user, baby, &entries[i]),
			Entry: &entries[i],
		})
	}
	return rows
}

// age renders how old someone born on dob is at now, in days, weeks or months.
func age(dob, now time.Time) string {
	days := int(now.Sub(dob).Hours() / 24)
	switch {
	case days < 0:
		return "not born yet"
	case days < 14:
		return fmt.Sprintf("%d %s", days, plural(days, "day", "days"))
	case days < 90:
		weeks := days / 7
		return fmt.Sprintf("%d %s", weeks, plural(weeks, "week", "weeks"))
	}
	months := (now.Year()-dob.Year())*12 + int(now.Month()) - int(dob.Month())
	if now.Day() < dob.Day() {
		months--
	}
	return fmt.Sprintf("%d %s", months, plural(months, "month", "months"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

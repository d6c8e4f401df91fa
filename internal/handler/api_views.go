package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/chart"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
)

// defaultChartDays is the range drawn when a chart request names no bounds.
const defaultChartDays = 7

func (a *API) apiRoot(r *apiRequest) (apiResult, error) {
	out := rootJSON{
		LoginURL:  resource.URL(APIPrefix, "@@login"),
		LogoutURL: resource.URL(APIPrefix, "@@logout"),
	}
	if email := auth.CurrentEmail(r.c); email != "" {
		user, err := r.tx.FindUser(email)
		if err != nil {
			return apiResult{}, err
		}
		if user != nil {
			serialized := serializeUser(user)
			out.User = &serialized
		}
	}
	return jsonResult(http.StatusOK, out), nil
}

func (a *API) apiLogin(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}
	username := strings.TrimSpace(values["username"])
	password := values["password"]
	if username == "" || password == "" {
		return apiResult{}, fmt.Errorf("%w: username and password are required", service.ErrInvalidInput)
	}

	user, err := r.tx.Users.Authenticate(username, password)
	if err != nil {
		return apiResult{}, err
	}
	if _, err := a.tickets.Remember(r.c, user.Email); err != nil {
		return apiResult{}, err
	}
	auth.SetCurrentUser(r.c, user)
	return jsonResult(http.StatusOK, serializeUser(user)), nil
}

func (a *API) apiLogout(r *apiRequest) (apiResult, error) {
	a.tickets.Forget(r.c)
	auth.SetCurrentUser(r.c, nil)
	return jsonResult(http.StatusOK, map[string]string{"url": "/"}), nil
}

func (a *API) apiSignup(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}

	user, err := r.tx.Users.Register(values["email"], values["name"], values["password"])
	if err != nil {
		return apiResult{}, err
	}
	if _, err := a.tickets.Remember(r.c, user.Email); err != nil {
		return apiResult{}, err
	}
	auth.SetCurrentUser(r.c, user)
	return jsonResult(http.StatusCreated, serializeUser(user)), nil
}

func (a *API) apiGetUser(r *apiRequest) (apiResult, error) {
	return jsonResult(http.StatusOK, serializeUser(r.path.User())), nil
}

func (a *API) apiUpdateUser(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}

	user := r.path.User()
	if err := r.tx.Users.Update(user, a.userPatch(values)); err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeUser(user)), nil
}

func (a *API) apiCreateBaby(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}
	input, err := a.babyInput(values)
	if err != nil {
		return apiResult{}, err
	}

	user := r.path.User()
	baby, err := r.tx.Babies.Create(user, input)
	if err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusCreated, serializeBaby(user, baby)), nil
}

func (a *API) apiGetBaby(r *apiRequest) (apiResult, error) {
	return jsonResult(http.StatusOK, serializeBaby(r.path.User(), r.path.Baby())), nil
}

func (a *API) apiUpdateBaby(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}
	patch, err := a.babyPatch(values)
	if err != nil {
		return apiResult{}, err
	}

	baby := r.path.Baby()
	if err := r.tx.Babies.Update(baby, patch); err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeBaby(r.path.User(), baby)), nil
}

func (a *API) apiDeleteBaby(r *apiRequest) (apiResult, error) {
	user := r.path.User()
	if err := r.tx.Babies.Delete(r.path.Baby()); err != nil {
		return apiResult{}, err
	}
	if err := r.tx.Users.Reload(user); err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeUser(user)), nil
}

func (a *API) apiCreateEntry(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}
	input, err := a.entryInput(values)
	if err != nil {
		return apiResult{}, err
	}

	baby := r.path.Baby()
	e, err := r.tx.Entries.Create(baby, input)
	if err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusCreated, serializeEntry(r.path.User(), baby, e)), nil
}

func (a *API) apiListEntries(r *apiRequest) (apiResult, error) {
	filter, err := a.entryFilter(r.c.Query)
	if err != nil {
		return apiResult{}, err
	}

	baby := r.path.Baby()
	entries, err := r.tx.Entries.Between(baby.ID, filter)
	if err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeEntries(r.path.User(), baby, entries)), nil
}

func (a *API) apiChart(r *apiRequest) (apiResult, error) {
	png, err := a.renderChart(r.tx, r.path, r.c.Query)
	if err != nil {
		return apiResult{}, err
	}
	return apiResult{status: http.StatusOK, contentType: "image/png", raw: png}, nil
}

// renderChart draws the entries selected by query. Without bounds the last week is shown.
func (a *API) renderChart(tx *service.Services, path resource.Path, query func(string) string) ([]byte, error) {
	filter, err := a.entryFilter(query)
	if err != nil {
		return nil, err
	}
	if filter.Start == nil && filter.End == nil {
		start := a.now().AddDate(0, 0, -defaultChartDays+1)
		filter.Start = &start
	}

	baby := path.Baby()
	entries, err := tx.Entries.Between(baby.ID, filter)
	if err != nil {
		return nil, err
	}

	timeline := chart.Timeline{Title: baby.Name, Location: a.loc, Entries: entries}
	if filter.Start != nil {
		timeline.Start = *filter.Start
	}
	if filter.End != nil {
		timeline.End = *filter.End
	} else {
		timeline.End = a.now()
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, timeline); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *API) apiGetEntry(r *apiRequest) (apiResult, error) {
	return jsonResult(http.StatusOK, serializeEntry(r.path.User(), r.path.Baby(), r.path.Entry())), nil
}

func (a *API) apiUpdateEntry(r *apiRequest) (apiResult, error) {
	values, err := readBody(r.c)
	if err != nil {
		return apiResult{}, err
	}

	e := r.path.Entry()
	patch, err := a.entryPatch(e, values)
	if err != nil {
		return apiResult{}, err
	}
	if err := r.tx.Entries.Update(e, patch); err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeEntry(r.path.User(), r.path.Baby(), e)), nil
}

func (a *API) apiDeleteEntry(r *apiRequest) (apiResult, error) {
	if err := r.tx.Entries.Delete(r.path.Entry()); err != nil {
		return apiResult{}, err
	}
	return jsonResult(http.StatusOK, serializeBaby(r.path.User(), r.path.Baby())), nil
}

package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/logging"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	siteName    = "Baby Tracker"
	flashNotice = "notice"
	flashError  = "error"
	loginPath   = "/@@login"
)

// siteRequest is what a site view sees.
type siteRequest struct {
	c    *gin.Context
	tx   *service.Services
	path resource.Path
	user *db.User
}

// siteResult is rendered after the transaction commits: a redirect, raw bytes or a template.
type siteResult struct {
	template    string
	data        gin.H
	status      int
	redirect    string
	flash       string
	contentType string
	raw         []byte
}

type siteView func(r *siteRequest) (siteResult, error)

func page(template string, data gin.H) siteResult {
	return siteResult{template: template, data: data, status: http.StatusOK}
}

func redirectTo(location, flash string) siteResult {
	return siteResult{redirect: location, flash: flash}
}

// ServeSite renders the HTML surface of the resource tree. Every path the router does not
// claim lands here.
func (a *API) ServeSite(c *gin.Context) {
	method := c.Request.Method
	if method != http.MethodGet && method != http.MethodPost {
		a.renderError(c, http.StatusMethodNotAllowed, "This page does not accept "+method+" requests.")
		return
	}

	segments := resource.SplitPath(c.Request.URL.Path)
	var result siteResult
	err := a.services.Transaction(func(tx *service.Services) error {
		path, err := a.root.With(tx).Traverse(segments)
		if err != nil {
			return err
		}

		handler := a.siteView(path, method)
		if handler == nil {
			return resource.ErrNotFound
		}
		if perm := resource.Required(path, method); perm != "" {
			if err := resource.Authorize(path, resource.Principals(auth.CurrentEmail(c)), perm); err != nil {
				return err
			}
		}

		result, err = handler(&siteRequest{c: c, tx: tx, path: path, user: auth.CurrentUser(c)})
		return err
	})
	if err != nil {
		a.siteError(c, err)
		return
	}
	a.writeSite(c, result)
}

func (a *API) siteView(path resource.Path, method string) siteView {
	switch path.Context().Kind {
	case resource.KindRoot:
		switch path.View {
		case "":
			if method == http.MethodGet {
				return a.siteHome
			}
		case "@@login":
			return a.siteLogin
		case "@@logout":
			return a.siteLogout
		case "@@signup":
			return a.siteSignup
		}
	case resource.KindUser:
		if path.View == "" {
			return a.siteUser
		}
	case resource.KindBaby:
		switch path.View {
		case "", "entries":
			return a.siteBaby
		case "@@chart":
			if method == http.MethodGet {
				return a.siteChart
			}
		}
	case resource.KindEntry:
		if path.View == "" {
			return a.siteEntry
		}
	}
	return nil
}

// siteError turns a failed request into a page. Anonymous visitors are sent to log in, and
// rejected form posts go back to the form with the reason flashed.
func (a *API) siteError(c *gin.Context, err error) {
	status, message := statusFor(err)

	if status == http.StatusForbidden && auth.CurrentUser(c) == nil {
		c.Redirect(http.StatusFound, loginPath+"?came_from="+url.QueryEscape(c.Request.URL.RequestURI()))
		return
	}

	if c.Request.Method == http.MethodPost {
		switch status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict:
			session := sessions.Default(c)
			session.AddFlash(message, flashError)
			if saveErr := session.Save(); saveErr != nil {
				logging.FromContext(c).Warn("save session", zap.Error(saveErr))
			}
			c.Redirect(http.StatusSeeOther, c.Request.URL.RequestURI())
			return
		}
	}

	if status >= http.StatusInternalServerError {
		logging.FromContext(c).Error("request failed", zap.Error(err))
		c.Error(err)
	}

	switch status {
	case http.StatusNotFound:
		message = "The page you asked for does not exist."
	case http.StatusForbidden:
		message = "You are not allowed to see this page."
	case http.StatusInternalServerError:
		message = "Something went wrong. Please try again."
	}
	a.renderError(c, status, message)
}

func (a *API) writeSite(c *gin.Context, result siteResult) {
	if result.redirect != "" {
		session := sessions.Default(c)
		if result.flash != "" {
			session.AddFlash(result.flash, flashNotice)
		}
		if err := session.Save(); err != nil {
			logging.FromContext(c).Warn("save session", zap.Error(err))
		}
		c.Redirect(http.StatusSeeOther, result.redirect)
		return
	}
	if result.raw != nil {
		c.Data(result.status, result.contentType, result.raw)
		return
	}
	a.renderHTML(c, result.status, result.template, result.data)
}

func (a *API) renderError(c *gin.Context, status int, message string) {
	a.renderHTML(c, status, "error.html", gin.H{
		"title":   http.StatusText(status),
		"status":  status,
		"message": message,
	})
}

// renderHTML adds the layout data every page needs: the site name, the logged-in user and
// pending flash messages.
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	session := sessions.Default(c)
	payload["notices"] = session.Flashes(flashNotice)
	payload["errors"] = session.Flashes(flashError)
	if err := session.Save(); err != nil {
		logging.FromContext(c).Warn("save session", zap.Error(err))
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = siteName
	}
	if _, exists := payload["currentUser"]; !exists {
		if user := auth.CurrentUser(c); user != nil {
			payload["currentUser"] = gin.H{"email": user.Email, "name": user.Name, "url": resource.UserURL("", user)}
		}
	}

	c.HTML(status, template, payload)
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(raw, fallback string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	return raw
}

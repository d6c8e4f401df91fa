package handler

import (
	"net/http"
	"slices"
	"strings"

	"github.com/babytracker/internal/auth"
	"github.com/babytracker/internal/resource"
	"github.com/babytracker/internal/service"
	"github.com/gin-gonic/gin"
)

// apiRequest is what an API view sees: the gin context, services bound to the request's
// transaction and the resolved path.
type apiRequest struct {
	c    *gin.Context
	tx   *service.Services
	path resource.Path
}

// apiResult is written after the transaction commits.
type apiResult struct {
	status      int
	body        any
	contentType string
	raw         []byte
}

type apiView func(r *apiRequest) (apiResult, error)

func jsonResult(status int, body any) apiResult {
	return apiResult{status: status, body: body}
}

func (r apiResult) write(c *gin.Context) {
	switch {
	case r.raw != nil:
		c.Data(r.status, r.contentType, r.raw)
	case r.body == nil:
		c.Status(r.status)
	default:
		c.JSON(r.status, r.body)
	}
}

// CORS allows browser clients on any origin to call the API with credentials.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Next()
	}
}

// ServeAPI resolves the request path against the resource tree, checks permissions and runs
// the matching view inside a single transaction.
func (a *API) ServeAPI(c *gin.Context) {
	segments := resource.SplitPath(c.Param("path"))
	method := c.Request.Method

	var result apiResult
	err := a.services.Transaction(func(tx *service.Services) error {
		path, err := a.root.With(tx).Traverse(segments)
		if err != nil {
			return err
		}

		methods := resource.MethodsFor(path)
		allow := strings.Join(append(slices.Clone(methods), http.MethodOptions), ", ")
		c.Header("Allow", allow)
		if method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", allow)
			result = apiResult{status: http.StatusOK}
			return nil
		}

		handler := a.apiView(path, method)
		if handler == nil || !slices.Contains(methods, method) {
			return errMethodNotAllowed
		}
		if perm := resource.Required(path, method); perm != "" {
			if err := resource.Authorize(path, resource.Principals(auth.CurrentEmail(c)), perm); err != nil {
				return err
			}
		}

		result, err = handler(&apiRequest{c: c, tx: tx, path: path})
		return err
	})
	if err != nil {
		respondWithError(c, err)
		return
	}
	result.write(c)
}

func (a *API) apiView(path resource.Path, method string) apiView {
	switch path.Context().Kind {
	case resource.KindRoot:
		switch path.View {
		case "":
			return a.apiRoot
		case "@@login":
			return a.apiLogin
		case "@@logout":
			return a.apiLogout
		case "@@signup":
			return a.apiSignup
		}
	case resource.KindUser:
		switch method {
		case http.MethodGet:
			return a.apiGetUser
		case http.MethodPut:
			return a.apiUpdateUser
		case http.MethodPost:
			return a.apiCreateBaby
		}
	case resource.KindBaby:
		switch path.View {
		case "entries":
			return a.apiListEntries
		case "@@chart":
			return a.apiChart
		case "":
			switch method {
			case http.MethodGet:
				return a.apiGetBaby
			case http.MethodPut:
				return a.apiUpdateBaby
			case http.MethodDelete:
				return a.apiDeleteBaby
			case http.MethodPost:
				return a.apiCreateEntry
			}
		}
	case resource.KindEntry:
		switch method {
		case http.MethodGet:
			return a.apiGetEntry
		case http.MethodPut:
			return a.apiUpdateEntry
		case http.MethodDelete:
			return a.apiDeleteEntry
		}
	}
	return nil
}

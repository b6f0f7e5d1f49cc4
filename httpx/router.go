package httpx

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Route is one endpoint in a route table.
type Route struct {
	Method  string
	Path    string
	Handler HandlerFunc
}

// RegisterRoutes mounts a route table on a. Incomplete entries are skipped.
func RegisterRoutes(a *App, routes ...Route) {
	if a == nil {
		return
	}
	for _, r := range routes {
		if r.Handler == nil || r.Path == "" || r.Method == "" {
			continue
		}
		a.e.Add(strings.ToUpper(r.Method), r.Path, r.Handler)
	}
}

// Router registers routes under a common prefix.
type Router struct{ g *echo.Group }

func (r *Router) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.g.Add(http.MethodGet, path, h, mw...)
	return r
}

func (r *Router) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) *Router {
	r.g.Add(http.MethodPost, path, h, mw...)
	return r
}

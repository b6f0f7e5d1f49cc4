// Package httpx is the HTTP layer: an echo App for serving JSON endpoints
// and a resty Client for calling them.
package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type (
	Context        = echo.Context
	HandlerFunc    = echo.HandlerFunc
	MiddlewareFunc = echo.MiddlewareFunc
)

// App serves JSON endpoints. Handler errors are rendered as
// {"error": message}.
type App struct{ e *echo.Echo }

func New() *App {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = renderError
	return &App{e: e}
}

func (a *App) GET(path string, h HandlerFunc, mw ...MiddlewareFunc) {
	a.e.GET(path, h, mw...)
}

func (a *App) POST(path string, h HandlerFunc, mw ...MiddlewareFunc) {
	a.e.POST(path, h, mw...)
}

// Group returns a Router whose paths are relative to prefix.
func (a *App) Group(prefix string, mw ...MiddlewareFunc) *Router {
	return &Router{g: a.e.Group(prefix, mw...)}
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.e.ServeHTTP(w, r)
}

// WrapHandler mounts a plain http.Handler, e.g. promhttp.Handler().
var WrapHandler = echo.WrapHandler

// HTTPError aborts a handler with the given status and message.
func HTTPError(code int, message any) error { return echo.NewHTTPError(code, message) }

func renderError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := StatusInternalError, http.StatusText(StatusInternalError)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

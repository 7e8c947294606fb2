package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"

	"github.com/eringen/folio/views"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// jsonReply is the body every AJAX mutation answers with.
type jsonReply struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

func replyJSON(c echo.Context, code int, status, msg string) error {
	return c.JSON(code, jsonReply{Status: status, Message: msg})
}

// reply answers a form post: JSON for AJAX callers, otherwise a flash and a
// 303 to redirect. Codes of 400 and above are reported as errors.
func reply(c echo.Context, code int, msg, redirect string) error {
	status, category := statusSuccess, flashInfo
	if code >= http.StatusBadRequest {
		status, category = statusError, flashError
	}
	if isAJAX(c) {
		return replyJSON(c, code, status, msg)
	}
	addFlash(c, category, msg)
	return c.Redirect(http.StatusSeeOther, redirect)
}

// basePage fills the layout fields shared by every page. On a profile
// lookup failure the page is still usable, only without profile fields.
func (a *App) basePage(c echo.Context, title string) (views.Page, error) {
	rc := Request(c)
	page := views.Page{
		Site: views.SiteConfig{
			Name:        a.Config.Name,
			URL:         a.Config.URL,
			Description: a.Config.Description,
		},
		Title:   title,
		Path:    c.Request().URL.Path,
		Admin:   rc.Admin,
		CSRF:    CsrfToken(c),
		Flashes: rc.Flashes(c),
	}
	profile, err := a.Store.Profile(c.Request().Context())
	if err != nil {
		return page, err
	}
	page.Profile = profile
	return page, nil
}

func (a *App) renderPage(c echo.Context, code int, name string, data any) error {
	return RenderStatus(c, code, a.Views.Page(name, data))
}

type errorPage struct {
	views.Page
	Code    int
	Message string
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "Something went wrong."
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	case eris.Is(err, ErrNotFound):
		code = http.StatusNotFound
	}
	if code == http.StatusNotFound {
		msg = "Not found"
	}
	if code >= http.StatusInternalServerError {
		Request(c).Log.WithField("error", eris.ToString(err, true)).Error("server error")
		msg = "Something went wrong."
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	if isAJAX(c) || strings.HasPrefix(c.Request().Header.Get(echo.HeaderAccept), echo.MIMEApplicationJSON) {
		_ = replyJSON(c, code, statusError, msg)
		return
	}

	page, perr := a.basePage(c, msg)
	if perr != nil {
		Request(c).Log.WithError(perr).Warn("error page without profile")
	}
	if a.Views == nil || !a.Views.Has("error") {
		_ = c.String(code, msg)
		return
	}
	if rerr := a.renderPage(c, code, "error", errorPage{Page: page, Code: code, Message: msg}); rerr != nil {
		Request(c).Log.WithError(rerr).Error("render error page")
	}
}

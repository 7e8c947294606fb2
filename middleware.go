package folio

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/views"
)

const (
	sessionName     = "folio_session"
	sessionAuthKey  = "authenticated"
	requestCtxKey   = "folio.request"
	flashError      = "error"
	flashInfo       = "info"
	headerRequested = "X-Requested-With"
)

// RequestContext is the per-request state handlers read instead of globals.
type RequestContext struct {
	Admin bool
	Log   logrus.FieldLogger

	flashes     []views.Flash
	flashesRead bool
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			entry := a.Logger.WithFields(logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			})
			if v.Error != nil && v.Status >= http.StatusInternalServerError {
				entry.WithError(v.Error).Error("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, UploadsURLPrefix)
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; frame-src https://www.youtube.com; font-src 'self'",
		HSTSMaxAge:            31536000,
	}))

	e.Use(middleware.BodyLimit(a.bodyLimit()))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(a.requestContext)
	e.Use(cacheControlMiddleware)
}

func (a *App) bodyLimit() string {
	return fmt.Sprintf("%dM", a.Config.MaxUploadMB)
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		h := c.Response().Header()
		switch {
		case strings.HasPrefix(path, "/public/"), strings.HasPrefix(path, UploadsURLPrefix):
			h.Set("Cache-Control", "public, max-age=86400")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			h.Set("Cache-Control", "public, max-age=3600")
		default:
			// pages carry per-session flashes and admin links
			h.Set("Cache-Control", "no-store")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   0,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// requestContext resolves the admin flag once per request.
func (a *App) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		rc := &RequestContext{
			Admin: IsAdmin(c),
			Log: a.Logger.WithFields(logrus.Fields{
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}),
		}
		c.Set(requestCtxKey, rc)
		return next(c)
	}
}

// Request returns the RequestContext of c. Outside the middleware chain it
// returns an anonymous, non-admin context.
func Request(c echo.Context) *RequestContext {
	if rc, ok := c.Get(requestCtxKey).(*RequestContext); ok {
		return rc
	}
	return &RequestContext{Log: logrus.StandardLogger()}
}

// Flashes pops pending flash messages from the session. Later calls in the
// same request return the same slice.
func (rc *RequestContext) Flashes(c echo.Context) []views.Flash {
	if rc.flashesRead {
		return rc.flashes
	}
	rc.flashesRead = true
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	var dirty bool
	for _, category := range []string{flashError, flashInfo} {
		for _, f := range sess.Flashes(category) {
			if msg, ok := f.(string); ok {
				rc.flashes = append(rc.flashes, views.Flash{Category: category, Message: msg})
			}
			dirty = true
		}
	}
	if dirty {
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			rc.Log.WithError(err).Warn("save session after reading flashes")
		}
	}
	return rc.flashes
}

// IsAdmin reports whether the session carries the authenticated flag.
func IsAdmin(c echo.Context) bool {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return false
	}
	auth, ok := sess.Values[sessionAuthKey].(bool)
	return ok && auth
}

func setAdminSession(c echo.Context, flash string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	sess.Values[sessionAuthKey] = true
	if flash != "" {
		sess.AddFlash(flash, flashInfo)
	}
	return sess.Save(c.Request(), c.Response())
}

func clearAdminSession(c echo.Context, flash string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionAuthKey)
	if flash != "" {
		sess.AddFlash(flash, flashInfo)
	}
	return sess.Save(c.Request(), c.Response())
}

// addFlash queues a message for the next rendered page.
func addFlash(c echo.Context, category, msg string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		Request(c).Log.WithError(err).Warn("load session for flash")
		return
	}
	sess.AddFlash(msg, category)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		Request(c).Log.WithError(err).Warn("save flash")
	}
}

// requireAdmin guards admin routes. Browsers are sent to the login form with
// the requested path as next, or /admin for form posts; AJAX callers get a
// 401 JSON body.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if Request(c).Admin {
			return next(c)
		}
		if isAJAX(c) {
			return replyJSON(c, http.StatusUnauthorized, statusError, "Unauthorized")
		}
		back := "/admin"
		if m := c.Request().Method; m == http.MethodGet || m == http.MethodHead {
			back = c.Request().URL.RequestURI()
		}
		return c.Redirect(http.StatusSeeOther, "/admin/login?next="+url.QueryEscape(back))
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}

func isAJAX(c echo.Context) bool {
	return strings.EqualFold(c.Request().Header.Get(headerRequested), "XMLHttpRequest")
}

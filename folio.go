// Package folio is a single-author portfolio site: public pages for writing,
// multimedia, an about page and a contact form, plus an admin panel for
// content entries, the author profile, uploaded images and the message inbox.
package folio

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/views"
)

// App wires together the store, uploader, views, middleware and handlers.
type App struct {
	Config   Config
	Echo     *echo.Echo
	Store    *Store
	Uploader *Uploader
	Views    *views.Renderer
	Logger   *logrus.Logger

	contactLimiter *ContactLimiter
	stopLimiter    func()
	opened         bool
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the logger used by the app and its request logging.
func WithLogger(l *logrus.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// New creates an App. Nothing is opened until Open or Start is called.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = logrus.StandardLogger()
	}
	return a
}

// Open initializes the database, uploads directory, templates, middleware
// and routes. After Open the app can serve requests through a.Echo.
func (a *App) Open() error {
	if a.opened {
		return nil
	}
	a.Config.warnInsecure(a.Logger)

	store, err := NewStore(a.Config.DatabasePath, a.Logger)
	if err != nil {
		return eris.Wrap(err, "init store")
	}
	a.Store = store

	a.Uploader = NewUploader(a.Config.UploadsDir, a.Logger)

	renderer, err := views.New(template.FuncMap{
		"thumbFor": a.Uploader.ThumbFor,
		"ytThumb":  YouTubeThumb,
	})
	if err != nil {
		_ = store.Close()
		return eris.Wrap(err, "init views")
	}
	a.Views = renderer

	a.contactLimiter = NewContactLimiter(a.Config.ContactPerMinute)
	a.stopLimiter = a.contactLimiter.StartCleanup(time.Minute)

	a.setupMiddleware()
	a.setupRoutes()
	a.opened = true
	return nil
}

// Start opens the app if needed and serves HTTP until Shutdown is called.
func (a *App) Start() error {
	if err := a.Open(); err != nil {
		return err
	}
	a.Logger.WithField("addr", a.Config.Addr).Info("listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "serve")
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the database and background workers.
func (a *App) Close() error {
	if a.stopLimiter != nil {
		a.stopLimiter()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	assets, _ := fs.Sub(EmbeddedAssets, "embedded")
	e.StaticFS("/public", assets)
	e.Static(strings.TrimSuffix(UploadsURLPrefix, "/"), a.Config.UploadsDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/writing", a.handleWriting)
	e.GET("/multimedia", a.handleMultimedia)
	e.GET("/about", a.handleAbout)
	e.GET("/contact", a.handleContactForm)
	e.POST("/contact", a.handleContactSubmit)

	e.GET("/admin/login", a.handleLoginForm)
	e.POST("/admin/login", a.handleLogin)
	e.GET("/admin/logout", handleLogout)

	admin := e.Group("/admin", requireAdmin)
	admin.GET("", a.handleAdminIndex)
	admin.GET("/profile", a.handleProfileForm)
	admin.POST("/profile", a.handleProfileSave)
	admin.POST("/profile/delete_image", a.handleProfileDeleteImage)
	admin.GET("/content", a.handleContentList)
	admin.GET("/new", a.handleContentNew)
	admin.POST("/new", a.handleContentCreate)
	admin.GET("/edit/:id", a.handleContentEdit)
	admin.POST("/edit/:id", a.handleContentUpdate)
	admin.POST("/delete/:id", a.handleContentDelete)
	admin.GET("/messages", a.handleMessages)
	admin.POST("/messages/delete/:id", a.handleMessageDelete)
}

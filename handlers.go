package folio

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/views"
)

const (
	featuredLimit = 3
	latestLimit   = 5

	messageTimeLayout = "2006-01-02 15:04:05"
)

type homePage struct {
	views.Page
	Featured []ContentEntry
	Latest   []ContentEntry
}

type writingPage struct {
	views.Page
	Items            []ContentEntry
	Years            []string
	Categories       []string
	SelectedYear     string
	SelectedCategory string
}

type multimediaPage struct {
	views.Page
	Items []ContentEntry
}

type aboutPage struct {
	views.Page
	AboutImages []string
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := a.basePage(c, "")
	if err != nil {
		return err
	}
	featured, err := a.Store.ListFeatured(ctx, featuredLimit)
	if err != nil {
		return err
	}
	latest, err := a.Store.ListLatest(ctx, latestLimit)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "home", homePage{Page: page, Featured: featured, Latest: latest})
}

func (a *App) handleWriting(c echo.Context) error {
	ctx := c.Request().Context()
	filter := WritingFilter{
		Category: c.QueryParam("category"),
		Year:     c.QueryParam("year"),
	}
	items, err := a.Store.ListWriting(ctx, filter)
	if err != nil {
		return err
	}
	data := writingPage{
		Items:            items,
		SelectedYear:     filter.year(),
		SelectedCategory: filter.category(),
	}
	if isAJAX(c) {
		return Render(c, a.Views.Fragment("writing", "writing-items", data))
	}

	if data.Page, err = a.basePage(c, "Writing"); err != nil {
		return err
	}
	if data.Years, err = a.Store.WritingYears(ctx); err != nil {
		return err
	}
	if data.Categories, err = a.Store.WritingCategories(ctx); err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "writing", data)
}

func (a *App) handleMultimedia(c echo.Context) error {
	page, err := a.basePage(c, "Multimedia")
	if err != nil {
		return err
	}
	items, err := a.Store.ListByType(c.Request().Context(), TypeMultimedia)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "multimedia", multimediaPage{Page: page, Items: items})
}

func (a *App) handleAbout(c echo.Context) error {
	page, err := a.basePage(c, "About")
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "about", aboutPage{
		Page:        page,
		AboutImages: Profile(page.Profile).AboutImages(),
	})
}

func (a *App) handleContactForm(c echo.Context) error {
	page, err := a.basePage(c, "Contact")
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "contact", page)
}

func (a *App) handleContactSubmit(c echo.Context) error {
	if !a.contactLimiter.Allow(c.RealIP()) {
		return reply(c, http.StatusTooManyRequests, "Too many messages. Please try again in a minute.", "/contact")
	}

	msg := ContactMessage{
		Name:    strings.TrimSpace(c.FormValue("name")),
		Email:   strings.TrimSpace(c.FormValue("email")),
		Message: strings.TrimSpace(c.FormValue("message")),
		Date:    time.Now().UTC().Format(messageTimeLayout),
	}
	if msg.Name == "" || msg.Email == "" || msg.Message == "" {
		return reply(c, http.StatusBadRequest, "Please fill in your name, email and message.", "/contact")
	}

	id, err := a.Store.AddMessage(c.Request().Context(), msg)
	if err != nil {
		Request(c).Log.WithError(err).Error("save contact message")
		return reply(c, http.StatusInternalServerError, "Could not save message.", "/contact")
	}
	Request(c).Log.WithFields(logrus.Fields{"message_id": id}).Info("contact message received")
	return reply(c, http.StatusOK, "Thank you, your message was recorded.", "/contact")
}

func (a *App) handleRobots(c echo.Context) error {
	body := "User-agent: *\nDisallow: /admin/\n\nSitemap: " + BuildURL(a.Config.URL, "sitemap.xml") + "\n"
	return c.String(http.StatusOK, body)
}

func (a *App) handleSitemap(c echo.Context) error {
	entries, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, entries)
}

func (a *App) handleFeed(c echo.Context) error {
	entries, err := a.Store.ListWriting(c.Request().Context(), WritingFilter{})
	if err != nil {
		return err
	}
	return a.renderRSS(c, entries)
}

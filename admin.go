package folio

import (
	"crypto/subtle"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/views"
)

const dateLayout = "2006-01-02"

type loginPage struct {
	views.Page
	Next string
}

type adminIndexPage struct {
	views.Page
	ContentCount int
	MessageCount int
}

type profilePage struct {
	views.Page
	AboutImages []string
}

type contentListPage struct {
	views.Page
	Items []ContentEntry
}

type contentEditPage struct {
	views.Page
	Item  *ContentEntry
	Types []ContentType
}

type messagesPage struct {
	views.Page
	Messages []ContactMessage
}

func (a *App) handleLoginForm(c echo.Context) error {
	next := safeRedirect(c.QueryParam("next"), "/admin")
	if Request(c).Admin {
		return c.Redirect(http.StatusSeeOther, next)
	}
	page, err := a.basePage(c, "Log in")
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_login", loginPage{Page: page, Next: next})
}

func (a *App) handleLogin(c echo.Context) error {
	next := safeRedirect(c.FormValue("next"), "/admin")
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c, "Logged in"); err != nil {
			return err
		}
		Request(c).Log.Info("admin logged in")
		return c.Redirect(http.StatusSeeOther, next)
	}

	Request(c).Log.WithField("remote_ip", c.RealIP()).Warn("failed admin login")
	page, err := a.basePage(c, "Log in")
	if err != nil {
		return err
	}
	page.Flashes = append(page.Flashes, views.Flash{Category: flashError, Message: "Invalid password"})
	return a.renderPage(c, http.StatusOK, "admin_login", loginPage{Page: page, Next: next})
}

func handleLogout(c echo.Context) error {
	if err := clearAdminSession(c, "Logged out"); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleAdminIndex(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := a.basePage(c, "Admin")
	if err != nil {
		return err
	}
	entries, err := a.Store.ListAll(ctx)
	if err != nil {
		return err
	}
	messages, err := a.Store.ListMessages(ctx)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_index", adminIndexPage{
		Page:         page,
		ContentCount: len(entries),
		MessageCount: len(messages),
	})
}

func (a *App) handleProfileForm(c echo.Context) error {
	page, err := a.basePage(c, "Profile")
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_profile", profilePage{
		Page:        page,
		AboutImages: Profile(page.Profile).AboutImages(),
	})
}

func (a *App) handleProfileSave(c echo.Context) error {
	log := Request(c).Log
	fields := make([]ProfileField, 0, len(profileFormFields)+1)
	values := make(map[string]string, len(profileFormFields))
	for _, key := range profileFormFields {
		values[key] = strings.TrimSpace(c.FormValue(key))
	}

	portrait, err := a.Uploader.Save(formFile(c, "profile_image_file"))
	if err != nil {
		log.WithError(err).Error("save profile image")
		return reply(c, http.StatusInternalServerError, "Could not save image.", "/admin/profile")
	}
	if portrait != "" {
		values[ProfileImageURL] = portrait
	}
	for _, key := range profileFormFields {
		fields = append(fields, ProfileField{Key: key, Value: values[key]})
	}

	gallery := SplitList(c.FormValue(ProfileAboutImages))
	for _, fh := range formFiles(c, "about_images_files") {
		ref, err := a.Uploader.Save(fh)
		if err != nil {
			log.WithError(err).WithField("file", fh.Filename).Error("save gallery image")
			return reply(c, http.StatusInternalServerError, "Could not save image.", "/admin/profile")
		}
		if ref != "" {
			gallery = append(gallery, ref)
		}
	}
	if len(gallery) > 0 {
		fields = append(fields, ProfileField{Key: ProfileAboutImages, Value: JoinList(gallery)})
	}

	if err := a.Store.SetProfile(c.Request().Context(), fields...); err != nil {
		log.WithError(err).Error("save profile")
		return reply(c, http.StatusInternalServerError, "Could not save profile.", "/admin/profile")
	}
	return reply(c, http.StatusOK, "Profile updated", "/admin")
}

// handleProfileDeleteImage always answers with JSON; the gallery controls
// post here from script.
func (a *App) handleProfileDeleteImage(c echo.Context) error {
	ctx := c.Request().Context()
	image := strings.TrimSpace(c.FormValue("image"))
	if image == "" {
		return replyJSON(c, http.StatusBadRequest, statusError, "No image specified")
	}
	current, err := a.Store.ProfileValue(ctx, ProfileAboutImages)
	if err != nil {
		Request(c).Log.WithError(err).Error("load gallery")
		return replyJSON(c, http.StatusInternalServerError, statusError, "Could not update gallery.")
	}
	kept, found := removeItem(SplitList(current), image)
	if !found {
		return replyJSON(c, http.StatusNotFound, statusError, "Not found")
	}
	if err := a.Store.SetProfile(ctx, ProfileField{Key: ProfileAboutImages, Value: JoinList(kept)}); err != nil {
		Request(c).Log.WithError(err).Error("save gallery")
		return replyJSON(c, http.StatusInternalServerError, statusError, "Could not update gallery.")
	}
	if err := a.Uploader.Remove(image); err != nil {
		Request(c).Log.WithError(err).WithField("image", image).Warn("remove gallery file")
	}
	return replyJSON(c, http.StatusOK, statusSuccess, "Deleted")
}

func (a *App) handleContentList(c echo.Context) error {
	page, err := a.basePage(c, "Content")
	if err != nil {
		return err
	}
	items, err := a.Store.ListAll(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_content", contentListPage{Page: page, Items: items})
}

func (a *App) handleContentNew(c echo.Context) error {
	return a.renderEditor(c, "New entry", nil)
}

func (a *App) handleContentCreate(c echo.Context) error {
	entry, msg := bindEntry(c, time.Now().Format(dateLayout))
	if msg != "" {
		return reply(c, http.StatusBadRequest, msg, "/admin/new")
	}
	ref, err := a.Uploader.Save(formFile(c, "image_file"))
	if err != nil {
		Request(c).Log.WithError(err).Error("save entry image")
		return reply(c, http.StatusInternalServerError, "Could not save image.", "/admin/new")
	}
	if ref != "" {
		entry.ImageURL = ref
	}
	id, err := a.Store.CreateContent(c.Request().Context(), entry)
	if err != nil {
		Request(c).Log.WithError(err).Error("create content")
		return reply(c, http.StatusInternalServerError, "Could not save entry.", "/admin/new")
	}
	Request(c).Log.WithFields(logrus.Fields{"content_id": id, "type": entry.Type}).Info("content created")
	return reply(c, http.StatusOK, "Created", "/admin/content")
}

func (a *App) handleContentEdit(c echo.Context) error {
	entry, err := a.lookupEntry(c)
	if err != nil {
		return a.replyLookupError(c, err)
	}
	return a.renderEditor(c, "Edit entry", &entry)
}

func (a *App) handleContentUpdate(c echo.Context) error {
	existing, err := a.lookupEntry(c)
	if err != nil {
		return a.replyLookupError(c, err)
	}
	editURL := "/admin/edit/" + strconv.FormatInt(existing.ID, 10)

	entry, msg := bindEntry(c, existing.Date)
	if msg != "" {
		return reply(c, http.StatusBadRequest, msg, editURL)
	}
	entry.ID = existing.ID
	ref, err := a.Uploader.Save(formFile(c, "image_file"))
	if err != nil {
		Request(c).Log.WithError(err).Error("save entry image")
		return reply(c, http.StatusInternalServerError, "Could not save image.", editURL)
	}
	if ref != "" {
		entry.ImageURL = ref
	}
	if err := a.Store.UpdateContent(c.Request().Context(), entry); err != nil {
		if eris.Is(err, ErrNotFound) {
			return reply(c, http.StatusNotFound, "Not found", "/admin/content")
		}
		Request(c).Log.WithError(err).Error("update content")
		return reply(c, http.StatusInternalServerError, "Could not save entry.", editURL)
	}
	return reply(c, http.StatusOK, "Updated", "/admin/content")
}

func (a *App) handleContentDelete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return reply(c, http.StatusNotFound, "Not found", "/admin/content")
	}
	if err := a.Store.DeleteContent(c.Request().Context(), id); err != nil {
		Request(c).Log.WithError(err).Error("delete content")
		return reply(c, http.StatusInternalServerError, "Could not delete entry.", "/admin/content")
	}
	return reply(c, http.StatusOK, "Deleted", "/admin/content")
}

func (a *App) handleMessages(c echo.Context) error {
	page, err := a.basePage(c, "Messages")
	if err != nil {
		return err
	}
	messages, err := a.Store.ListMessages(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_messages", messagesPage{Page: page, Messages: messages})
}

func (a *App) handleMessageDelete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return reply(c, http.StatusNotFound, "Not found", "/admin/messages")
	}
	if err := a.Store.DeleteMessage(c.Request().Context(), id); err != nil {
		Request(c).Log.WithError(err).Error("delete message")
		return reply(c, http.StatusInternalServerError, "Could not delete message.", "/admin/messages")
	}
	return reply(c, http.StatusOK, "Message deleted", "/admin/messages")
}

func (a *App) renderEditor(c echo.Context, title string, item *ContentEntry) error {
	page, err := a.basePage(c, title)
	if err != nil {
		return err
	}
	return a.renderPage(c, http.StatusOK, "admin_edit", contentEditPage{
		Page:  page,
		Item:  item,
		Types: []ContentType{TypeWriting, TypeMultimedia},
	})
}

// bindEntry reads the entry form. A non-empty message describes the first
// invalid field. An empty date takes defaultDate.
func bindEntry(c echo.Context, defaultDate string) (ContentEntry, string) {
	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return ContentEntry{}, "Title is required"
	}
	typ, err := ParseContentType(c.FormValue("type"))
	if err != nil {
		return ContentEntry{}, "Type must be Writing or Multimedia"
	}
	date := strings.TrimSpace(c.FormValue("date"))
	if date == "" {
		date = defaultDate
	}
	return ContentEntry{
		Title:       title,
		Summary:     c.FormValue("summary"),
		Type:        typ,
		Subtype:     strings.TrimSpace(c.FormValue("subtype")),
		Publication: strings.TrimSpace(c.FormValue("publication")),
		URL:         strings.TrimSpace(c.FormValue("url")),
		Date:        date,
		Featured:    c.FormValue("featured") == "on",
		Category:    strings.TrimSpace(c.FormValue("category")),
		ImageURL:    strings.TrimSpace(c.FormValue("image_url")),
	}, ""
}

func (a *App) lookupEntry(c echo.Context) (ContentEntry, error) {
	id, ok := parseID(c)
	if !ok {
		return ContentEntry{}, eris.Wrapf(ErrNotFound, "content id %q", c.Param("id"))
	}
	return a.Store.GetContent(c.Request().Context(), id)
}

func (a *App) replyLookupError(c echo.Context, err error) error {
	if eris.Is(err, ErrNotFound) {
		return reply(c, http.StatusNotFound, "Not found", "/admin/content")
	}
	Request(c).Log.WithError(err).Error("load content")
	return reply(c, http.StatusInternalServerError, "Could not load entry.", "/admin/content")
}

func parseID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// formFile returns the named upload, or nil when the request carries none.
func formFile(c echo.Context, name string) *multipart.FileHeader {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil
	}
	return fh
}

func formFiles(c echo.Context, name string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[name]
}

package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// renderSitemap lists the public pages. Listing pages carry the date of
// their newest entry as lastmod.
func (a *App) renderSitemap(c echo.Context, entries []ContentEntry) error {
	base := a.Config.URL
	var newest, newestWriting, newestMedia string
	for _, e := range entries {
		newest = maxDate(newest, e.Date)
		switch e.Type {
		case TypeWriting:
			newestWriting = maxDate(newestWriting, e.Date)
		case TypeMultimedia:
			newestMedia = maxDate(newestMedia, e.Date)
		}
	}
	urls := []sitemapURL{
		{Loc: BuildURL(base), LastMod: validDate(newest)},
		{Loc: BuildURL(base, "writing"), LastMod: validDate(newestWriting)},
		{Loc: BuildURL(base, "multimedia"), LastMod: validDate(newestMedia)},
		{Loc: BuildURL(base, "about")},
		{Loc: BuildURL(base, "contact")},
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}

func maxDate(a, b string) string {
	if b > a {
		return b
	}
	return a
}

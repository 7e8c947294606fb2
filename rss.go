package folio

import (
	"encoding/xml"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Category    string  `xml:"category,omitempty"`
	PubDate     string  `xml:"pubDate,omitempty"`
	GUID        rssGUID `xml:"guid"`
}

type rssGUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// renderRSS writes writing entries as an RSS 2.0 feed. Entries link to their
// external URL when set, otherwise to the writing page.
func (a *App) renderRSS(c echo.Context, entries []ContentEntry) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(entries))
	for _, e := range entries {
		pubDate := ""
		if t, err := time.Parse(dateLayout, e.Date); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		link := e.URL
		if link == "" {
			link = BuildURL(base, "writing")
		}
		items = append(items, rssItem{
			Title:       e.Title,
			Link:        link,
			Description: e.Summary,
			Category:    e.Category,
			PubDate:     pubDate,
			GUID:        rssGUID{Value: BuildURL(base, "content", strconv.FormatInt(e.ID, 10))},
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}

package folio

import (
	"strings"

	"github.com/rotisserie/eris"
)

// ContentType distinguishes written pieces from multimedia work.
type ContentType string

const (
	TypeWriting    ContentType = "Writing"
	TypeMultimedia ContentType = "Multimedia"
)

// ErrInvalidType is returned when a content type is neither Writing nor Multimedia.
var ErrInvalidType = eris.New("content type must be Writing or Multimedia")

// ParseContentType validates a user-supplied type value.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(strings.TrimSpace(s)) {
	case TypeWriting:
		return TypeWriting, nil
	case TypeMultimedia:
		return TypeMultimedia, nil
	}
	return "", eris.Wrapf(ErrInvalidType, "got %q", s)
}

// ContentEntry is one published work shown on the public site.
type ContentEntry struct {
	ID          int64
	Title       string
	Summary     string
	Type        ContentType
	Subtype     string
	Publication string
	URL         string
	Date        string // YYYY-MM-DD; ordering and year filtering are lexicographic
	Featured    bool
	Category    string
	ImageURL    string
}

// Year returns the leading four characters of Date, the same slice the
// writing year filter compares against. The writing list groups by it.
func (e ContentEntry) Year() string {
	if len(e.Date) < 4 {
		return e.Date
	}
	return e.Date[:4]
}

// ContactMessage is a single submission from the public contact form.
type ContactMessage struct {
	ID      int64
	Name    string
	Email   string
	Message string
	Date    string // YYYY-MM-DD HH:MM:SS, UTC
}

// Profile keys editable through the admin profile form.
const (
	ProfileName        = "name"
	ProfileTagline     = "tagline"
	ProfileBio         = "bio"
	ProfileEmail       = "email"
	ProfileLinkedIn    = "linkedin"
	ProfileTwitter     = "twitter"
	ProfileImageURL    = "image_url"
	ProfileAboutImages = "about_images"
)

// profileFormFields are overwritten on every profile form submission.
var profileFormFields = []string{
	ProfileName, ProfileTagline, ProfileBio, ProfileEmail,
	ProfileLinkedIn, ProfileTwitter, ProfileImageURL,
}

// Profile maps profile keys to values.
type Profile map[string]string

// Get returns the value for key, or "" when unset.
func (p Profile) Get(key string) string {
	return p[key]
}

// AboutImages returns the about-page gallery as a list of image references.
func (p Profile) AboutImages() []string {
	return SplitList(p[ProfileAboutImages])
}

// ProfileField is a single key/value pair of the profile table.
type ProfileField struct {
	Key   string
	Value string
}

// WritingFilter narrows the writing listing. Empty or "All" disables a constraint.
type WritingFilter struct {
	Category string
	Year     string
}

func (f WritingFilter) category() string {
	return filterValue(f.Category)
}

func (f WritingFilter) year() string {
	return filterValue(f.Year)
}

func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "All" {
		return ""
	}
	return v
}

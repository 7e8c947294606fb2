package folio

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

// BuildURL joins a base URL with path segments.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	return u.String()
}

// FilterEmpty removes empty/whitespace-only strings from a slice and trims the rest.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList splits a comma-joined list of references, dropping blanks.
func SplitList(s string) []string {
	return FilterEmpty(strings.Split(s, ","))
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(FilterEmpty(items), ",")
}

// removeItem returns items without any occurrence of target and whether it was present.
func removeItem(items []string, target string) ([]string, bool) {
	kept := items[:0:0]
	found := false
	for _, it := range items {
		if it == target {
			found = true
			continue
		}
		kept = append(kept, it)
	}
	return kept, found
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
	filenameWhitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFilename reduces an uploaded file name to a safe single path
// component: directories are stripped, non-ASCII is transliterated, whitespace
// becomes underscores and anything outside [A-Za-z0-9_.-] is dropped.
// It returns "" when nothing usable is left.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(name)
	name = unidecode.Unidecode(name)
	name = filenameWhitespace.ReplaceAllString(strings.TrimSpace(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" || name == "." || name == ".." {
		return ""
	}
	return name
}

// safeRedirect accepts only same-site absolute paths, falling back otherwise.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") ||
		strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return fallback
	}
	return target
}

// validDate returns d when it is a YYYY-MM-DD date and "" otherwise.
func validDate(d string) string {
	if _, err := time.Parse(dateLayout, d); err != nil {
		return ""
	}
	return d
}

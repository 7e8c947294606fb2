package folio

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

const (
	// UploadsURLPrefix is the public path under which uploaded files are served.
	UploadsURLPrefix = "/static/uploads/"
	thumbPrefix      = "thumb_"

	maxUploadAttempts = 1000
)

// Uploader stores uploaded files in a public directory and derives thumbnails.
type Uploader struct {
	dir string
	log logrus.FieldLogger
	now func() time.Time
}

// NewUploader returns an Uploader writing into dir.
func NewUploader(dir string, logger logrus.FieldLogger) *Uploader {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Uploader{dir: dir, log: logger, now: time.Now}
}

// Dir returns the directory uploads are written to.
func (u *Uploader) Dir() string {
	return u.dir
}

// Save persists a multipart file and returns its public reference. A nil
// header or an empty filename means no file was sent: "" and a nil error.
func (u *Uploader) Save(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", nil
	}
	src, err := fh.Open()
	if err != nil {
		return "", eris.Wrapf(err, "open upload %s", fh.Filename)
	}
	defer src.Close()
	return u.SaveReader(fh.Filename, src)
}

// SaveReader writes the bytes of r under a sanitised, timestamp-prefixed
// version of name and returns "/static/uploads/<stored-name>". The stored file
// is byte-identical to r. An existing file is never overwritten: a clashing
// name gets a -2, -3 ... counter before its extension. If the bytes decode as
// an image, a thumbnail is written alongside as thumb_<stored-name>; thumbnail
// failures are logged and otherwise ignored.
func (u *Uploader) SaveReader(name string, r io.Reader) (string, error) {
	safe := SanitizeFilename(name)
	if safe == "" {
		safe = "upload"
	}
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", eris.Wrap(err, "create uploads dir")
	}
	f, filename, err := u.createUnique(fmt.Sprintf("%d_%s", u.now().UTC().Unix(), safe))
	if err != nil {
		return "", err
	}
	dest := filepath.Join(u.dir, filename)
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "write %s", filename)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dest)
		return "", eris.Wrapf(err, "close %s", filename)
	}

	if err := writeThumbnail(dest, filepath.Join(u.dir, thumbPrefix+filename)); err != nil {
		u.log.WithError(err).WithField("file", filename).Debug("thumbnail skipped")
	}
	return UploadsURLPrefix + filename, nil
}

// createUnique exclusively creates filename in the uploads directory,
// appending a counter before the extension while the name is taken.
func (u *Uploader) createUnique(filename string) (*os.File, string, error) {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	candidate := filename
	for counter := 1; counter <= maxUploadAttempts; counter++ {
		if counter > 1 {
			candidate = fmt.Sprintf("%s-%d%s", base, counter, ext)
		}
		f, err := os.OpenFile(filepath.Join(u.dir, candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, candidate, nil
		}
		if !os.IsExist(err) {
			return nil, "", eris.Wrapf(err, "create %s", candidate)
		}
	}
	return nil, "", eris.Errorf("no free name for %s after %d attempts", filename, maxUploadAttempts)
}

// localName returns the file name behind a reference produced by Save.
func localName(ref string) (string, bool) {
	if !strings.HasPrefix(ref, UploadsURLPrefix) {
		return "", false
	}
	name := path.Base(ref)
	if name == "." || name == "/" || name == ".." {
		return "", false
	}
	return name, true
}

// ThumbFor returns the thumbnail reference for an uploaded image when one
// exists on disk, and ref unchanged otherwise. The check hits the filesystem
// on every call.
func (u *Uploader) ThumbFor(ref string) string {
	name, ok := localName(ref)
	if !ok {
		return ref
	}
	thumb := thumbPrefix + name
	if _, err := os.Stat(filepath.Join(u.dir, thumb)); err != nil {
		return ref
	}
	return UploadsURLPrefix + thumb
}

// Remove deletes an uploaded file and its thumbnail. References outside the
// uploads path and files that are already gone are ignored.
func (u *Uploader) Remove(ref string) error {
	name, ok := localName(ref)
	if !ok {
		return nil
	}
	for _, n := range []string{name, thumbPrefix + name} {
		if err := os.Remove(filepath.Join(u.dir, n)); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "remove %s", n)
		}
	}
	return nil
}

package folio

import (
	"context"
	"database/sql"
	"embed"
	"os"
	"path/filepath"
	"strings"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("not found")

const contentColumns = `id, title, summary, type, subtype, publication, url, date, featured, category, image_url`

// Store wraps the SQLite database holding content, messages and the profile.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and applies pending migrations.
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "create data dir %s", dir)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "open database")
	}
	// WAL lets the public pages read while an admin write is in flight;
	// busy_timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "set pragmas")
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.migrate(logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(logger *logrus.Logger) error {
	goose.SetBaseFS(migrations)
	if logger != nil {
		goose.SetLogger(logger)
	}
	if err := goose.SetDialect("sqlite3"); err != nil {
		return eris.Wrap(err, "set migration dialect")
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return eris.Wrap(err, "run migrations")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(row rowScanner) (ContentEntry, error) {
	var e ContentEntry
	var typ string
	var featured int
	if err := row.Scan(&e.ID, &e.Title, &e.Summary, &typ, &e.Subtype, &e.Publication,
		&e.URL, &e.Date, &featured, &e.Category, &e.ImageURL); err != nil {
		return ContentEntry{}, err
	}
	e.Type = ContentType(typ)
	e.Featured = featured == 1
	return e, nil
}

func (s *Store) queryContent(ctx context.Context, query string, args ...any) ([]ContentEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query content")
	}
	defer rows.Close()

	var entries []ContentEntry
	for rows.Next() {
		e, err := scanContent(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan content")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate content")
	}
	return entries, nil
}

func (s *Store) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query values")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "scan value")
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate values")
	}
	return out, nil
}

// ListFeatured returns up to limit featured entries, newest first.
func (s *Store) ListFeatured(ctx context.Context, limit int) ([]ContentEntry, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content WHERE featured = 1 ORDER BY date DESC LIMIT ?`, limit)
}

// ListLatest returns up to limit entries of any type, newest first.
func (s *Store) ListLatest(ctx context.Context, limit int) ([]ContentEntry, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content ORDER BY date DESC LIMIT ?`, limit)
}

// ListAll returns every entry, newest first.
func (s *Store) ListAll(ctx context.Context) ([]ContentEntry, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content ORDER BY date DESC`)
}

// ListByType returns every entry of the given type, newest first.
func (s *Store) ListByType(ctx context.Context, t ContentType) ([]ContentEntry, error) {
	return s.queryContent(ctx, `SELECT `+contentColumns+` FROM content WHERE type = ? ORDER BY date DESC`, string(t))
}

// ListWriting returns writing entries matching f. The category filter is an
// equality match; the year filter compares the first four characters of date.
func (s *Store) ListWriting(ctx context.Context, f WritingFilter) ([]ContentEntry, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + contentColumns + ` FROM content WHERE type = ?`)
	args := []any{string(TypeWriting)}
	if category := f.category(); category != "" {
		b.WriteString(` AND category = ?`)
		args = append(args, category)
	}
	if year := f.year(); year != "" {
		b.WriteString(` AND substr(date, 1, 4) = ?`)
		args = append(args, year)
	}
	b.WriteString(` ORDER BY date DESC`)
	return s.queryContent(ctx, b.String(), args...)
}

// WritingYears returns the distinct years present on writing entries, newest first.
func (s *Store) WritingYears(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT substr(date, 1, 4) AS y FROM content WHERE type = ? AND date != '' ORDER BY y DESC`, string(TypeWriting))
}

// WritingCategories returns the distinct non-empty categories of writing entries.
func (s *Store) WritingCategories(ctx context.Context) ([]string, error) {
	return s.queryStrings(ctx, `SELECT DISTINCT category FROM content WHERE type = ? AND category != '' ORDER BY category`, string(TypeWriting))
}

// GetContent returns a single entry by id, or ErrNotFound.
func (s *Store) GetContent(ctx context.Context, id int64) (ContentEntry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	e, err := scanContent(row)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return ContentEntry{}, eris.Wrapf(ErrNotFound, "content %d", id)
		}
		return ContentEntry{}, eris.Wrapf(err, "get content %d", id)
	}
	return e, nil
}

// CreateContent inserts e and returns its new id.
func (s *Store) CreateContent(ctx context.Context, e ContentEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO content (title, summary, type, subtype, publication, url, date, featured, category, image_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Summary, string(e.Type), e.Subtype, e.Publication, e.URL, e.Date, boolInt(e.Featured), e.Category, e.ImageURL)
	if err != nil {
		return 0, eris.Wrap(err, "insert content")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "read content id")
	}
	return id, nil
}

// UpdateContent overwrites every field of the entry with e.ID.
func (s *Store) UpdateContent(ctx context.Context, e ContentEntry) error {
	res, err := s.db.ExecContext(ctx, `UPDATE content SET title = ?, summary = ?, type = ?, subtype = ?, publication = ?, url = ?, date = ?, featured = ?, category = ?, image_url = ? WHERE id = ?`,
		e.Title, e.Summary, string(e.Type), e.Subtype, e.Publication, e.URL, e.Date, boolInt(e.Featured), e.Category, e.ImageURL, e.ID)
	if err != nil {
		return eris.Wrapf(err, "update content %d", e.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return eris.Wrapf(ErrNotFound, "content %d", e.ID)
	}
	return nil
}

// DeleteContent removes an entry. Deleting a missing id is not an error.
func (s *Store) DeleteContent(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM content WHERE id = ?`, id); err != nil {
		return eris.Wrapf(err, "delete content %d", id)
	}
	return nil
}

// Profile returns every profile field.
func (s *Store) Profile(ctx context.Context) (Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM profile`)
	if err != nil {
		return nil, eris.Wrap(err, "query profile")
	}
	defer rows.Close()

	p := make(Profile)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, eris.Wrap(err, "scan profile")
		}
		p[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate profile")
	}
	return p, nil
}

// ProfileValue returns a single profile value, or "" when the key is unset.
func (s *Store) ProfileValue(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM profile WHERE key = ?`, key).Scan(&v)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", eris.Wrapf(err, "get profile %s", key)
	}
	return v, nil
}

// SetProfile upserts fields. All fields are written in one transaction.
func (s *Store) SetProfile(ctx context.Context, fields ...ProfileField) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "begin profile update")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, f := range fields {
		if _, err := tx.ExecContext(ctx, `INSERT INTO profile (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`, f.Key, f.Value); err != nil {
			return eris.Wrapf(err, "upsert profile %s", f.Key)
		}
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "commit profile update")
	}
	return nil
}

// AddMessage stores a contact submission and returns its id.
func (s *Store) AddMessage(ctx context.Context, m ContactMessage) (int64, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO messages (name, email, message, date) VALUES (?, ?, ?, ?)`,
		m.Name, m.Email, m.Message, m.Date)
	if err != nil {
		return 0, eris.Wrap(err, "insert message")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, eris.Wrap(err, "read message id")
	}
	return id, nil
}

// ListMessages returns every message, newest first.
func (s *Store) ListMessages(ctx context.Context) ([]ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, message, date FROM messages ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "query messages")
	}
	defer rows.Close()

	var msgs []ContactMessage
	for rows.Next() {
		var m ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Message, &m.Date); err != nil {
			return nil, eris.Wrap(err, "scan message")
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate messages")
	}
	return msgs, nil
}

// DeleteMessage removes a message. Deleting a missing id is not an error.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return eris.Wrapf(err, "delete message %d", id)
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

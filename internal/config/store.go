package config

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/atelierhq/atelier/internal/model"
)

// Store persists admin accounts, portfolio projects, contact messages, SEO
// metadata and settings. It speaks to sqlite (the embedded default),
// postgres, or mysql through the same sqlx handle; positional queries are
// passed through Rebind so placeholders match the driver.
type Store struct {
	db     *sqlx.DB
	driver string
}

// NewStore opens the database, applies migrations, and returns the store.
// For sqlite an empty dsn falls back to atelier.db under dataDir.
func NewStore(ctx context.Context, driver, dsn, dataDir string) (*Store, error) {
	name, err := driverName(driver)
	if err != nil {
		return nil, err
	}
	if name == "sqlite" {
		if dsn == "" {
			if dataDir == "" {
				dataDir = "."
			}
			if err := os.MkdirAll(dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
			dsn = filepath.Join(dataDir, "atelier.db")
		}
		if !strings.Contains(dsn, "?") && dsn != ":memory:" {
			dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		}
	}

	db, err := sqlx.ConnectContext(ctx, name, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if name == "sqlite" {
		// modernc sqlite serializes writers; a single connection avoids
		// SQLITE_BUSY under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db, driver: name}
	if err := migrate(ctx, db, name); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// insertID runs a named INSERT and returns the generated id. The pgx driver
// does not implement LastInsertId, so postgres goes through RETURNING.
func (s *Store) insertID(ctx context.Context, query string, arg interface{}) (int64, error) {
	if s.driver == "pgx" {
		rows, err := s.db.NamedQueryContext(ctx, query+" RETURNING id", arg)
		if err != nil {
			return 0, err
		}
		defer rows.Close()
		var id int64
		if !rows.Next() {
			return 0, sql.ErrNoRows
		}
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		return id, rows.Err()
	}
	res, err := s.db.NamedExecContext(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

func isDuplicateObject(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate")
}

// --- admin account ---

// CreateAdmin inserts the singleton admin account. If an account already
// exists the singleton constraint rejects the insert and ErrAdminExists is
// returned, regardless of how concurrent attempts interleave.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	now := time.Now().UTC()
	if admin.Role == "" {
		admin.Role = model.RoleAdmin
	}
	id, err := s.insertID(ctx, `INSERT INTO admins
		(username, password_hash, email, role, created_at, updated_at)
		VALUES (:username, :password_hash, :email, :role, :created_at, :updated_at)`,
		map[string]interface{}{
			"username":      admin.Username,
			"password_hash": admin.PasswordHash,
			"email":         admin.Email,
			"role":          admin.Role,
			"created_at":    now,
			"updated_at":    now,
		})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAdminExists
		}
		return fmt.Errorf("create admin: %w", err)
	}
	admin.ID = id
	admin.CreatedAt = now
	admin.UpdatedAt = now
	return nil
}

// AdminExists reports whether the admin account has been created. It is a
// fast path for the registration-status endpoint; CreateAdmin remains the
// authority on whether registration succeeds.
func (s *Store) AdminExists(ctx context.Context) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return n > 0, nil
}

// GetAdmin returns the singleton admin account, or ErrNotFound if
// registration has not happened yet.
func (s *Store) GetAdmin(ctx context.Context) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, `SELECT id, username, password_hash, email, role,
		last_login_at, created_at, updated_at FROM admins LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &a, nil
}

// GetAdminByUsername looks up the admin account by username.
func (s *Store) GetAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var a model.Admin
	err := s.db.GetContext(ctx, &a, s.db.Rebind(`SELECT id, username, password_hash, email, role,
		last_login_at, created_at, updated_at FROM admins WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &a, nil
}

// UpdateAdminLastLogin stamps the account's last successful login.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE admins SET last_login_at = ?, updated_at = ? WHERE id = ?`),
		time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// --- projects ---

type projectRow struct {
	ID          int64     `db:"id"`
	PublicID    string    `db:"public_id"`
	Title       string    `db:"title"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	TagsJSON    string    `db:"tags_json"`
	ImageURL    string    `db:"image_url"`
	LiveURL     string    `db:"live_url"`
	Featured    bool      `db:"featured"`
	Published   bool      `db:"published"`
	SortOrder   int       `db:"sort_order"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *projectRow) toModel() *model.Project {
	p := &model.Project{
		ID:          r.ID,
		PublicID:    r.PublicID,
		Title:       r.Title,
		Slug:        r.Slug,
		Description: r.Description,
		Category:    r.Category,
		Tags:        []string{},
		ImageURL:    r.ImageURL,
		LiveURL:     r.LiveURL,
		Featured:    r.Featured,
		Published:   r.Published,
		SortOrder:   r.SortOrder,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.TagsJSON != "" {
		_ = json.Unmarshal([]byte(r.TagsJSON), &p.Tags)
	}
	return p
}

func marshalTags(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return string(b)
}

const projectColumns = `id, public_id, title, slug, description, category, tags_json,
	image_url, live_url, featured, published, sort_order, created_at, updated_at`

// CreateProject inserts a new portfolio project, assigning its public UUID.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	now := time.Now().UTC()
	p.PublicID = uuid.NewString()
	id, err := s.insertID(ctx, `INSERT INTO projects
		(public_id, title, slug, description, category, tags_json, image_url,
		 live_url, featured, published, sort_order, created_at, updated_at)
		VALUES (:public_id, :title, :slug, :description, :category, :tags_json,
		 :image_url, :live_url, :featured, :published, :sort_order, :created_at, :updated_at)`,
		map[string]interface{}{
			"public_id":   p.PublicID,
			"title":       p.Title,
			"slug":        p.Slug,
			"description": p.Description,
			"category":    p.Category,
			"tags_json":   marshalTags(p.Tags),
			"image_url":   p.ImageURL,
			"live_url":    p.LiveURL,
			"featured":    p.Featured,
			"published":   p.Published,
			"sort_order":  p.SortOrder,
			"created_at":  now,
			"updated_at":  now,
		})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create project %q: %w", p.Slug, ErrSlugTaken)
		}
		return fmt.Errorf("create project: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

// GetProjectByPublicID returns a single project by its public UUID.
func (s *Store) GetProjectByPublicID(ctx context.Context, publicID string) (*model.Project, error) {
	var r projectRow
	err := s.db.GetContext(ctx, &r, s.db.Rebind(
		`SELECT `+projectColumns+` FROM projects WHERE public_id = ?`), publicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return r.toModel(), nil
}

// ListProjects returns projects ordered for display. With publishedOnly set,
// drafts are excluded (the public portfolio view).
func (s *Store) ListProjects(ctx context.Context, publishedOnly bool) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects`
	if publishedOnly {
		query += ` WHERE published = TRUE`
	}
	query += ` ORDER BY sort_order, created_at DESC`

	var rows []projectRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]*model.Project, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

// UpdateProject writes the full project record back under its public UUID.
// The caller merges partial input into the stored record first.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.NamedExecContext(ctx, `UPDATE projects SET
		title = :title, slug = :slug, description = :description,
		category = :category, tags_json = :tags_json, image_url = :image_url,
		live_url = :live_url, featured = :featured, published = :published,
		sort_order = :sort_order, updated_at = :updated_at
		WHERE public_id = :public_id`,
		map[string]interface{}{
			"title":       p.Title,
			"slug":        p.Slug,
			"description": p.Description,
			"category":    p.Category,
			"tags_json":   marshalTags(p.Tags),
			"image_url":   p.ImageURL,
			"live_url":    p.LiveURL,
			"featured":    p.Featured,
			"published":   p.Published,
			"sort_order":  p.SortOrder,
			"updated_at":  p.UpdatedAt,
			"public_id":   p.PublicID,
		})
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update project %q: %w", p.Slug, ErrSlugTaken)
		}
		return fmt.Errorf("update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project by its public UUID.
func (s *Store) DeleteProject(ctx context.Context, publicID string) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM projects WHERE public_id = ?`), publicID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProjects removes every project whose public UUID is listed and
// returns how many rows went away. Unknown ids are skipped, not errors.
func (s *Store) DeleteProjects(ctx context.Context, publicIDs []string) (int64, error) {
	if len(publicIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM projects WHERE public_id IN (?)`, publicIDs)
	if err != nil {
		return 0, fmt.Errorf("delete projects: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("delete projects: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// SetProjectsPublished flips the published flag on the listed projects and
// returns how many rows changed.
func (s *Store) SetProjectsPublished(ctx context.Context, publicIDs []string, published bool) (int64, error) {
	if len(publicIDs) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(
		`UPDATE projects SET published = ?, updated_at = ? WHERE public_id IN (?)`,
		published, time.Now().UTC(), publicIDs)
	if err != nil {
		return 0, fmt.Errorf("publish projects: %w", err)
	}
	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("publish projects: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// CountProjects returns total and published project counts.
func (s *Store) CountProjects(ctx context.Context) (total, published int64, err error) {
	if err = s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects`); err != nil {
		return 0, 0, fmt.Errorf("count projects: %w", err)
	}
	if err = s.db.GetContext(ctx, &published,
		`SELECT COUNT(*) FROM projects WHERE published = TRUE`); err != nil {
		return 0, 0, fmt.Errorf("count projects: %w", err)
	}
	return total, published, nil
}

// --- contact inbox ---

// CreateContact stores a contact form submission.
func (s *Store) CreateContact(ctx context.Context, c *model.ContactMessage) error {
	now := time.Now().UTC()
	id, err := s.insertID(ctx, `INSERT INTO contact_messages
		(name, email, company, message, is_read, created_at)
		VALUES (:name, :email, :company, :message, :is_read, :created_at)`,
		map[string]interface{}{
			"name":       c.Name,
			"email":      c.Email,
			"company":    c.Company,
			"message":    c.Message,
			"is_read":    false,
			"created_at": now,
		})
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	c.ID = id
	c.Read = false
	c.CreatedAt = now
	return nil
}

// ListContacts returns the inbox, newest first.
func (s *Store) ListContacts(ctx context.Context) ([]*model.ContactMessage, error) {
	var out []*model.ContactMessage
	err := s.db.SelectContext(ctx, &out, `SELECT id, name, email, company, message,
		is_read, created_at FROM contact_messages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	if out == nil {
		out = []*model.ContactMessage{}
	}
	return out, nil
}

// MarkContactRead marks one inbox message as read.
func (s *Store) MarkContactRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`UPDATE contact_messages SET is_read = TRUE WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("mark contact read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact removes one inbox message.
func (s *Store) DeleteContact(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind(
		`DELETE FROM contact_messages WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContacts returns total and unread inbox counts.
func (s *Store) CountContacts(ctx context.Context) (total, unread int64, err error) {
	if err = s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM contact_messages`); err != nil {
		return 0, 0, fmt.Errorf("count contacts: %w", err)
	}
	if err = s.db.GetContext(ctx, &unread,
		`SELECT COUNT(*) FROM contact_messages WHERE is_read = FALSE`); err != nil {
		return 0, 0, fmt.Errorf("count contacts: %w", err)
	}
	return total, unread, nil
}

// --- SEO metadata ---

// UpsertPageMeta writes the SEO metadata for one page, creating the row on
// first write. Update-then-insert keeps the statement portable across
// engines; a lost race falls back to a second update.
func (s *Store) UpsertPageMeta(ctx context.Context, m *model.PageMeta) error {
	m.UpdatedAt = time.Now().UTC()
	update := s.db.Rebind(`UPDATE page_meta SET title = ?, description = ?,
		keywords = ?, og_image = ?, updated_at = ? WHERE page = ?`)
	res, err := s.db.ExecContext(ctx, update,
		m.Title, m.Description, m.Keywords, m.OGImage, m.UpdatedAt, m.Page)
	if err != nil {
		return fmt.Errorf("upsert page meta: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO page_meta
		(page, title, description, keywords, og_image, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		m.Page, m.Title, m.Description, m.Keywords, m.OGImage, m.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			_, err = s.db.ExecContext(ctx, update,
				m.Title, m.Description, m.Keywords, m.OGImage, m.UpdatedAt, m.Page)
		}
		if err != nil {
			return fmt.Errorf("upsert page meta: %w", err)
		}
	}
	return nil
}

// GetPageMeta returns the SEO metadata for one page.
func (s *Store) GetPageMeta(ctx context.Context, page string) (*model.PageMeta, error) {
	var m model.PageMeta
	err := s.db.GetContext(ctx, &m, s.db.Rebind(`SELECT page, title, description,
		keywords, og_image, updated_at FROM page_meta WHERE page = ?`), page)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page meta: %w", err)
	}
	return &m, nil
}

// ListPageMeta returns SEO metadata for every configured page.
func (s *Store) ListPageMeta(ctx context.Context) ([]*model.PageMeta, error) {
	var out []*model.PageMeta
	err := s.db.SelectContext(ctx, &out, `SELECT page, title, description,
		keywords, og_image, updated_at FROM page_meta ORDER BY page`)
	if err != nil {
		return nil, fmt.Errorf("list page meta: %w", err)
	}
	if out == nil {
		out = []*model.PageMeta{}
	}
	return out, nil
}

// --- settings ---

// GetSetting returns a named setting value, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, name string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind(
		`SELECT value FROM settings WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting writes a named setting value.
func (s *Store) SetSetting(ctx context.Context, name, value string) error {
	now := time.Now().UTC()
	update := s.db.Rebind(`UPDATE settings SET value = ?, updated_at = ? WHERE name = ?`)
	res, err := s.db.ExecContext(ctx, update, value, now, name)
	if err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO settings (name, value, updated_at) VALUES (?, ?, ?)`),
		name, value, now)
	if err != nil {
		if isUniqueViolation(err) {
			_, err = s.db.ExecContext(ctx, update, value, now, name)
		}
		if err != nil {
			return fmt.Errorf("set setting: %w", err)
		}
	}
	return nil
}

package library

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

	_ "github.com/mattn/go-sqlite3"
)

const defaultLimit = 100

// Store is the SQLite-backed template library. A nil *Store is a disabled
// library: every method returns ErrDisabled.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the template database at cfg.DBPath, creating it if needed.
// An empty path or a disabled config returns a nil Store.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.DBPath == "" || cfg.Disabled {
		return nil, nil
	}

	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("library dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("library open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("library migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS templates (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			type       TEXT NOT NULL,
			name       TEXT NOT NULL,
			content    TEXT NOT NULL,
			parent_id  INTEGER,
			tags       TEXT NOT NULL DEFAULT '[]',
			metadata   TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_templates_type ON templates(type, updated_at);
	`)
	return err
}

// Enabled reports whether the library has a backing database.
func (s *Store) Enabled() bool {
	return s != nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

func validate(t *Template) error {
	typ, err := ParseType(string(t.Type))
	if err != nil {
		return err
	}
	t.Type = typ
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if strings.TrimSpace(t.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidTemplate)
	}
	return nil
}

// Save inserts t and returns it with its assigned id and timestamps.
func (s *Store) Save(ctx context.Context, t Template) (Template, error) {
	if s == nil {
		return Template{}, ErrDisabled
	}
	if err := validate(&t); err != nil {
		return Template{}, err
	}

	tags, meta, err := encodeExtras(&t)
	if err != nil {
		return Template{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (type, name, content, parent_id, tags, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(t.Type), t.Name, t.Content, t.ParentID, tags, meta, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return Template{}, fmt.Errorf("save template: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return Template{}, err
	}
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

// Update replaces the name, content, parent, tags and metadata of the
// template with t.ID.
func (s *Store) Update(ctx context.Context, t Template) (Template, error) {
	if s == nil {
		return Template{}, ErrDisabled
	}

	existing, err := s.Get(ctx, t.ID)
	if err != nil {
		return Template{}, err
	}
	t.Type = existing.Type
	if err := validate(&t); err != nil {
		return Template{}, err
	}

	tags, meta, err := encodeExtras(&t)
	if err != nil {
		return Template{}, err
	}

	now := s.now().UTC().Truncate(time.Second)
	_, err = s.db.ExecContext(ctx, `
		UPDATE templates
		SET name = ?, content = ?, parent_id = ?, tags = ?, metadata = ?, updated_at = ?
		WHERE id = ?
	`, t.Name, t.Content, t.ParentID, tags, meta, now.Format(time.RFC3339), t.ID)
	if err != nil {
		return Template{}, fmt.Errorf("update template: %w", err)
	}

	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = now
	if t.Tags == nil {
		t.Tags = []string{}
	}
	return t, nil
}

// Get returns the template with id.
func (s *Store) Get(ctx context.Context, id int64) (Template, error) {
	if s == nil {
		return Template{}, ErrDisabled
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, type, name, content, parent_id, tags, metadata, created_at, updated_at
		FROM templates WHERE id = ?
	`, id)

	t, err := scan(row, true)
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, fmt.Errorf("%w: %d", ErrTemplateNotFound, id)
	}
	return t, err
}

// List returns template summaries (without content) of opts.Type, most
// recently updated first.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Template, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	typ, err := ParseType(string(opts.Type))
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `
		SELECT id, type, name, '', parent_id, tags, metadata, created_at, updated_at
		FROM templates WHERE type = ?`
	args := []any{string(typ)}
	if opts.Search != "" {
		query += " AND (name LIKE ? OR content LIKE ?)"
		like := "%" + opts.Search + "%"
		args = append(args, like, like)
	}
	query += " ORDER BY updated_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, max(opts.Offset, 0))

	return s.query(ctx, false, query, args...)
}

// Export returns every template of typ with content, oldest first.
func (s *Store) Export(ctx context.Context, typ Type) ([]Template, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	typ, err := ParseType(string(typ))
	if err != nil {
		return nil, err
	}

	return s.query(ctx, true, `
		SELECT id, type, name, content, parent_id, tags, metadata, created_at, updated_at
		FROM templates WHERE type = ? ORDER BY id
	`, string(typ))
}

// Delete removes the template with id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if s == nil {
		return ErrDisabled
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrTemplateNotFound, id)
	}
	return nil
}

func (s *Store) query(ctx context.Context, withContent bool, query string, args ...any) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	templates := []Template{}
	for rows.Next() {
		t, err := scan(rows, withContent)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner, withContent bool) (Template, error) {
	var (
		t                Template
		typ, tags        string
		content          string
		parent           sql.NullInt64
		meta             sql.NullString
		created, updated string
	)
	if err := row.Scan(&t.ID, &typ, &t.Name, &content, &parent, &tags, &meta, &created, &updated); err != nil {
		return Template{}, err
	}

	t.Type = Type(typ)
	if withContent {
		t.Content = content
	}
	if parent.Valid {
		id := parent.Int64
		t.ParentID = &id
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil || t.Tags == nil {
		t.Tags = []string{}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &t.Metadata); err != nil {
			return Template{}, fmt.Errorf("decode metadata %d: %w", t.ID, err)
		}
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339, created)
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return t, nil
}

func encodeExtras(t *Template) (string, sql.NullString, error) {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return "", sql.NullString{}, err
	}

	if len(t.Metadata) == 0 {
		return string(tagJSON), sql.NullString{}, nil
	}
	metaJSON, err := json.Marshal(t.Metadata)
	if err != nil {
		return "", sql.NullString{}, fmt.Errorf("%w: metadata: %w", ErrInvalidTemplate, err)
	}
	return string(tagJSON), sql.NullString{String: string(metaJSON), Valid: true}, nil
}

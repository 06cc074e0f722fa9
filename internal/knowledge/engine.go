// Package knowledge keeps travel notes in SQLite with an FTS5 index and serves
// keyword search over them.
package knowledge

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var ErrEmptyDocument = errors.New("knowledge: document body is empty")

type Document struct {
	ID          int64    `json:"id,omitempty"`
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Destination string   `json:"destination,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Body        string   `json:"body"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

type Engine struct {
	db *sql.DB
	mu sync.Mutex
}

// NewEngine opens (or creates) the index at dbPath. ":memory:" is accepted
// for tests.
func NewEngine(dbPath string) (*Engine, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if dbPath == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	e := &Engine{db: db}
	if err := e.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := e.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return e, nil
}

func (e *Engine) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := e.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *Engine) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			destination TEXT NOT NULL DEFAULT '',
			tags TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_destination ON documents(destination)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			title,
			destination,
			tags,
			body,
			content='documents',
			content_rowid='id',
			tokenize='unicode61'
		)`,
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO documents_fts(rowid, title, destination, tags, body)
			VALUES (new.id, new.title, new.destination, new.tags, new.body);
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, destination, tags, body)
			VALUES ('delete', old.id, old.title, old.destination, old.tags, old.body);
		END`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE ON documents BEGIN
			INSERT INTO documents_fts(documents_fts, rowid, title, destination, tags, body)
			VALUES ('delete', old.id, old.title, old.destination, old.tags, old.body);
			INSERT INTO documents_fts(rowid, title, destination, tags, body)
			VALUES (new.id, new.title, new.destination, new.tags, new.body);
		END`,
	}

	for _, stmt := range stmts {
		if _, err := e.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Upsert inserts doc or replaces the document with the same source.
func (e *Engine) Upsert(doc Document) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return upsert(e.db, doc)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func upsert(db execer, doc Document) (int64, error) {
	body := strings.TrimSpace(doc.Body)
	if body == "" {
		return 0, ErrEmptyDocument
	}
	source := strings.TrimSpace(doc.Source)
	if source == "" {
		return 0, errors.New("knowledge: document source is required")
	}

	_, err := db.Exec(`
		INSERT INTO documents (source, title, destination, tags, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			title = excluded.title,
			destination = excluded.destination,
			tags = excluded.tags,
			body = excluded.body,
			updated_at = datetime('now')
	`, source, strings.TrimSpace(doc.Title), strings.ToLower(strings.TrimSpace(doc.Destination)),
		strings.Join(doc.Tags, " "), body)
	if err != nil {
		return 0, fmt.Errorf("upsert document %q: %w", source, err)
	}

	var id int64
	if err := db.QueryRow(`SELECT id FROM documents WHERE source = ?`, source).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup document %q: %w", source, err)
	}
	return id, nil
}

// Seed upserts docs in one transaction and returns how many were written.
func (e *Engine) Seed(docs []Document) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	tx, err := e.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	n := 0
	for _, doc := range docs {
		if _, err := upsert(tx, doc); err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return n, nil
}

// Prune deletes documents whose source starts with prefix and is not in keep.
func (e *Engine) Prune(prefix string, keep []string) (int64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.db.Query(`SELECT id, source FROM documents WHERE source LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%")
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	keepSet := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		keepSet[k] = struct{}{}
	}
	var stale []int64
	for rows.Next() {
		var id int64
		var source string
		if err := rows.Scan(&id, &source); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan document: %w", err)
		}
		if _, ok := keepSet[source]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate documents: %w", err)
	}

	var removed int64
	for _, id := range stale {
		res, err := e.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
		if err != nil {
			return removed, fmt.Errorf("delete document %d: %w", id, err)
		}
		n, _ := res.RowsAffected()
		removed += n
	}
	return removed, nil
}

func (e *Engine) Count() (int, error) {
	var n int
	if err := e.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

func (e *Engine) Get(source string) (*Document, error) {
	var doc Document
	var tags string
	err := e.db.QueryRow(`
		SELECT id, source, title, destination, tags, body, updated_at
		FROM documents WHERE source = ?
	`, source).Scan(&doc.ID, &doc.Source, &doc.Title, &doc.Destination, &tags, &doc.Body, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", source, err)
	}
	doc.Tags = strings.Fields(tags)
	return &doc, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

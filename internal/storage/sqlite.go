package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"repost_bot/internal/model"
	"repost_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Backend and Journal backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Load returns every stored destination.
func (s *SQLite) Load(ctx context.Context) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, interval_seconds FROM destinations`)
	if err != nil {
		return nil, fmt.Errorf("query destinations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[int64]int)
	for rows.Next() {
		var id int64
		var interval int
		if err := rows.Scan(&id, &interval); err != nil {
			return nil, fmt.Errorf("scan destination: %w", err)
		}
		entries[id] = interval
	}
	return entries, rows.Err()
}

// Save replaces the destination table in one transaction.
func (s *SQLite) Save(ctx context.Context, entries map[int64]int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM destinations`); err != nil {
		return fmt.Errorf("clear destinations: %w", err)
	}
	for id, interval := range entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO destinations (id, interval_seconds) VALUES (?, ?)`, id, interval,
		); err != nil {
			return fmt.Errorf("insert destination %d: %w", id, err)
		}
	}
	return tx.Commit()
}

// SaveSourcePost records a post seen in the source channel.
func (s *SQLite) SaveSourcePost(ctx context.Context, msg model.Message) error {
	posted := msg.Date
	if posted.IsZero() {
		posted = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_posts (chat_id, message_id, text, posted_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (chat_id, message_id) DO UPDATE SET text = excluded.text`,
		msg.ChatID, msg.MessageID, msg.Text, posted.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("save source post: %w", err)
	}
	return nil
}

// RecentSourcePosts returns up to limit posts of chatID, newest first.
func (s *SQLite) RecentSourcePosts(ctx context.Context, chatID int64, limit int) ([]model.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chat_id, message_id, text, posted_at FROM source_posts
		 WHERE chat_id = ? ORDER BY posted_at DESC, message_id DESC LIMIT ?`,
		chatID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query source posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var posts []model.Message
	for rows.Next() {
		var m model.Message
		var posted string
		if err := rows.Scan(&m.ChatID, &m.MessageID, &m.Text, &posted); err != nil {
			return nil, fmt.Errorf("scan source post: %w", err)
		}
		m.Date, _ = time.Parse(timeLayout, posted)
		posts = append(posts, m)
	}
	return posts, rows.Err()
}

// RememberChat records or refreshes a chat the bot has seen.
func (s *SQLite) RememberChat(ctx context.Context, d model.Dialog) error {
	seen := d.UpdatedAt
	if seen.IsZero() {
		seen = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO known_chats (id, title, is_group, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET title = excluded.title, is_group = excluded.is_group,
		 updated_at = excluded.updated_at`,
		d.ID, d.Title, boolToInt(d.IsGroup), seen.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("remember chat: %w", err)
	}
	return nil
}

// RecentChats returns up to limit known chats, most recently seen first.
func (s *SQLite) RecentChats(ctx context.Context, limit int) ([]model.Dialog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, is_group, updated_at FROM known_chats
		 ORDER BY updated_at DESC, id LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query known chats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chats []model.Dialog
	for rows.Next() {
		var d model.Dialog
		var isGroup int
		var updated string
		if err := rows.Scan(&d.ID, &d.Title, &isGroup, &updated); err != nil {
			return nil, fmt.Errorf("scan known chat: %w", err)
		}
		d.IsGroup = isGroup == 1
		d.UpdatedAt, _ = time.Parse(timeLayout, updated)
		chats = append(chats, d)
	}
	return chats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

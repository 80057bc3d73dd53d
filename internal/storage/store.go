// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"

	"github.com/jeranaias/aloha-tui/internal/model"
	"github.com/jeranaias/aloha-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrChatNotFound is returned when a chat id does not exist.
// Use errors.Is(err, ErrChatNotFound) to check for this error.
var ErrChatNotFound = errors.New("chat not found")

// =============================================================================
// TYPES
// =============================================================================

// ChatSummary is the lightweight view of a chat used by list screens.
type ChatSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// Store persists chats in SQLite.
// It is safe for concurrent use; writes are serialised by a single
// connection.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// foldFunc registers the fold() SQL function used by Search. Registration is
// process-wide and must precede the first connection.
var foldFunc = sync.OnceValue(func() error {
	return sqlite.RegisterDeterministicScalarFunction("fold", 1,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case string:
				return util.Fold(v), nil
			case []byte:
				return util.Fold(string(v)), nil
			case nil:
				return "", nil
			default:
				return util.Fold(fmt.Sprint(v)), nil
			}
		})
})

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// Open opens (creating if needed) the chat database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	return OpenWithLogger(ctx, path, nil)
}

// OpenWithLogger is Open with a logger for store-level debug output.
func OpenWithLogger(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}
	if err := foldFunc(); err != nil {
		return nil, fmt.Errorf("failed to register fold function: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.ExecContext(ctx, Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Store{db: db, path: path, log: logger.With("component", "storage")}, nil
}

// connPragmas are applied by the driver to every new connection.
var connPragmas = []string{
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"busy_timeout(5000)",
}

// dsn builds the driver connection string for the database at path.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	return "file:" + path + "?" + q.Encode()
}

// Close releases the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SchemaVersion returns the schema version recorded in the database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT CAST(value AS INTEGER) FROM metadata WHERE key = 'schema_version'").Scan(&v)
	return v, err
}

// =============================================================================
// WRITES
// =============================================================================

// Create inserts a new chat with its messages.
func (s *Store) Create(ctx context.Context, chat *model.Chat) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO chats (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)",
			chat.ID, chat.Title, toUnix(chat.CreatedAt), toUnix(chat.UpdatedAt))
		if err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		s.log.Debug("chat created", "id", chat.ID)
		return insertMessages(ctx, tx, chat.ID, 0, chat.Messages)
	})
}

// Put replaces a chat's title, messages and updatedAt.
func (s *Store) Put(ctx context.Context, chat *model.Chat) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE chats SET title = ?, updated_at = ? WHERE id = ?",
			chat.Title, toUnix(chat.UpdatedAt), chat.ID)
		if err != nil {
			return fmt.Errorf("failed to update chat: %w", err)
		}
		if err := expectRow(res, chat.ID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE chat_id = ?", chat.ID); err != nil {
			return fmt.Errorf("failed to replace messages: %w", err)
		}
		return insertMessages(ctx, tx, chat.ID, 0, chat.Messages)
	})
}

// AppendMessages adds msgs to the end of a chat and sets its updatedAt.
func (s *Store) AppendMessages(ctx context.Context, id string, updatedAt time.Time, msgs ...model.Message) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE chats SET updated_at = ? WHERE id = ?", toUnix(updatedAt), id)
		if err != nil {
			return fmt.Errorf("failed to update chat: %w", err)
		}
		if err := expectRow(res, id); err != nil {
			return err
		}

		var next int
		err = tx.QueryRowContext(ctx,
			"SELECT COALESCE(MAX(seq) + 1, 0) FROM messages WHERE chat_id = ?", id).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read message count: %w", err)
		}
		return insertMessages(ctx, tx, id, next, msgs)
	})
}

// Rename sets a chat's title.
func (s *Store) Rename(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE chats SET title = ? WHERE id = ?", title, id)
	if err != nil {
		return fmt.Errorf("failed to rename chat: %w", err)
	}
	return expectRow(res, id)
}

// Delete removes a chat and its messages.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	if err := expectRow(res, id); err != nil {
		return err
	}
	s.log.Debug("chat deleted", "id", id)
	return nil
}

// Clear removes every chat and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM chats")
	if err != nil {
		return 0, fmt.Errorf("failed to clear chats: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// =============================================================================
// READS
// =============================================================================

// Get loads a chat with all of its messages.
func (s *Store) Get(ctx context.Context, id string) (*model.Chat, error) {
	chat := &model.Chat{ID: id, Messages: []model.Message{}}
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		"SELECT title, created_at, updated_at FROM chats WHERE id = ?", id).
		Scan(&chat.Title, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	chat.CreatedAt = fromUnix(created)
	chat.UpdatedAt = fromUnix(updated)

	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, model, timestamp FROM messages WHERE chat_id = ? ORDER BY seq", id)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m  model.Message
			ts int64
		)
		if err := rows.Scan(&m.Role, &m.Content, &m.Model, &ts); err != nil {
			return nil, fmt.Errorf("failed to load messages: %w", err)
		}
		m.Timestamp = fromUnix(ts)
		chat.Messages = append(chat.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	return chat, nil
}

// Exists reports whether a chat with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM chats WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

const summaryQuery = `
SELECT c.id, c.title, c.created_at, c.updated_at,
       (SELECT COUNT(*) FROM messages m WHERE m.chat_id = c.id)
FROM chats c`

// List returns every chat, most recently updated first.
func (s *Store) List(ctx context.Context) ([]ChatSummary, error) {
	return s.querySummaries(ctx, summaryQuery+" ORDER BY c.updated_at DESC, c.id")
}

// Search returns chats whose title or any message contains query, ignoring
// case and accents. An empty query lists everything.
func (s *Store) Search(ctx context.Context, query string) ([]ChatSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}
	folded := util.Fold(query)
	return s.querySummaries(ctx, summaryQuery+`
WHERE instr(fold(c.title), ?) > 0
   OR EXISTS (SELECT 1 FROM messages m WHERE m.chat_id = c.id AND instr(fold(m.content), ?) > 0)
ORDER BY c.updated_at DESC, c.id`, folded, folded)
}

// Count returns the number of stored chats.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chats: %w", err)
	}
	return n, nil
}

func (s *Store) querySummaries(ctx context.Context, query string, args ...any) ([]ChatSummary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var out []ChatSummary
	for rows.Next() {
		var (
			cs               ChatSummary
			created, updated int64
		)
		if err := rows.Scan(&cs.ID, &cs.Title, &created, &updated, &cs.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		cs.CreatedAt = fromUnix(created)
		cs.UpdatedAt = fromUnix(updated)
		out = append(out, cs)
	}
	return out, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertMessages(ctx context.Context, tx *sql.Tx, chatID string, firstSeq int, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (chat_id, seq, role, content, model, timestamp) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to insert messages: %w", err)
	}
	defer stmt.Close()

	for i, m := range msgs {
		if _, err := stmt.ExecContext(ctx, chatID, firstSeq+i, string(m.Role), m.Content, m.Model, toUnix(m.Timestamp)); err != nil {
			return fmt.Errorf("failed to insert messages: %w", err)
		}
	}
	return nil
}

func expectRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrChatNotFound, id)
	}
	return nil
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

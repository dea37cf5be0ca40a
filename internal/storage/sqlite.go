package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"github.com/go-while/nntp-ingestd/internal/models"
)

const (
	messagesTable = `CREATE TABLE IF NOT EXISTS messages (
		message_id TEXT PRIMARY KEY,
		headers    TEXT NOT NULL,
		body       TEXT NOT NULL,
		size       BIGINT NOT NULL
	)`

	groupsTable = `CREATE TABLE IF NOT EXISTS groups (
		name       TEXT PRIMARY KEY,
		created_at BIGINT NOT NULL,
		moderated  BOOLEAN NOT NULL DEFAULT 0
	)`

	groupArticlesTable = `CREATE TABLE IF NOT EXISTS group_articles (
		group_name  TEXT NOT NULL,
		number      BIGINT NOT NULL,
		message_id  TEXT NOT NULL,
		inserted_at BIGINT NOT NULL,
		PRIMARY KEY (group_name, number),
		FOREIGN KEY (message_id) REFERENCES messages(message_id)
	)`
)

// maxNumberAllocRetries bounds the MAX+1/insert/retry loop used to hand
// out collision-free per-group article numbers under contention.
const maxNumberAllocRetries = 50

// SQLiteStorage is the relational instantiation of Storage, backed by
// the three-table schema in spec.md §6.
type SQLiteStorage struct {
	db *sql.DB
}

// OpenSQLiteStorage opens (creating if necessary) a SQLite database at
// path and ensures its schema exists. The connection pool is capped at
// 5 connections, matching the resource model in spec.md §5.
func OpenSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(5)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: pragma %q: %w", pragma, err)
		}
	}

	for _, stmt := range []string{messagesTable, groupsTable, groupArticlesTable} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("storage: create schema: %w", err)
		}
	}

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func encodeHeaders(headers []models.Header) (string, error) {
	b, err := json.Marshal(headers)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeHeaders(raw string) ([]models.Header, error) {
	var headers []models.Header
	if err := json.Unmarshal([]byte(raw), &headers); err != nil {
		return nil, err
	}
	return headers, nil
}

// StoreArticle implements Storage.StoreArticle. See spec.md §4.1 for
// the numbering algorithm this follows.
func (s *SQLiteStorage) StoreArticle(msg *models.Message) error {
	id := msg.MessageID()
	if id == "" {
		return ErrMissingMessageID
	}

	headersJSON, err := encodeHeaders(msg.Headers)
	if err != nil {
		return fmt.Errorf("storage: encode headers: %w", err)
	}

	_, err = retryableExec(s.db,
		`INSERT OR IGNORE INTO messages (message_id, headers, body, size) VALUES (?, ?, ?, ?)`,
		id, headersJSON, msg.Body, int64(len(msg.Body)))
	if err != nil {
		return fmt.Errorf("storage: insert message: %w", err)
	}

	now := nowUnix()
	for _, group := range msg.Newsgroups() {
		if err := s.allocateNumber(group, id, now); err != nil {
			return fmt.Errorf("storage: allocate number for group %q: %w", group, err)
		}
	}
	return nil
}

// allocateNumber hands out the next monotonic article number for group
// and links it to messageID. It races a MAX+1 read against an insert;
// on a unique-key conflict (another insert won the slot) it re-reads
// MAX and retries, per spec.md §4.1's insert-then-retry strategy.
func (s *SQLiteStorage) allocateNumber(group, messageID string, now int64) error {
	for attempt := 0; attempt < maxNumberAllocRetries; attempt++ {
		var next int64
		err := retryableQueryRowScan(s.db,
			`SELECT COALESCE(MAX(number), 0) + 1 FROM group_articles WHERE group_name = ?`,
			[]interface{}{group}, &next)
		if err != nil {
			return err
		}

		_, err = retryableExec(s.db,
			`INSERT INTO group_articles (group_name, number, message_id, inserted_at) VALUES (?, ?, ?, ?)`,
			group, next, messageID, now)
		if err == nil {
			return nil
		}
		if isUniqueViolation(err) {
			log.Printf("[STORAGE] number %d for group %q taken by a concurrent insert, retrying", next, group)
			continue
		}
		return err
	}
	return fmt.Errorf("exhausted %d retries allocating a number", maxNumberAllocRetries)
}

func (s *SQLiteStorage) GetArticleByID(id string) (*models.Message, bool, error) {
	row := s.db.QueryRow(`SELECT headers, body FROM messages WHERE message_id = ?`, id)
	var headersJSON, body string
	if err := row.Scan(&headersJSON, &body); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	headers, err := decodeHeaders(headersJSON)
	if err != nil {
		return nil, false, err
	}
	return &models.Message{Headers: headers, Body: body}, true, nil
}

func (s *SQLiteStorage) GetArticleByNumber(group string, number int64) (*models.Message, bool, error) {
	row := s.db.QueryRow(`
		SELECT m.headers, m.body FROM messages m
		JOIN group_articles g ON m.message_id = g.message_id
		WHERE g.group_name = ? AND g.number = ?`, group, number)
	var headersJSON, body string
	if err := row.Scan(&headersJSON, &body); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, err
	}
	headers, err := decodeHeaders(headersJSON)
	if err != nil {
		return nil, false, err
	}
	return &models.Message{Headers: headers, Body: body}, true, nil
}

func (s *SQLiteStorage) AddGroup(name string, moderated bool) error {
	_, err := retryableExec(s.db,
		`INSERT OR IGNORE INTO groups (name, created_at, moderated) VALUES (?, ?, ?)`,
		name, nowUnix(), moderated)
	return err
}

func (s *SQLiteStorage) RemoveGroup(name string) error {
	if _, err := retryableExec(s.db, `DELETE FROM group_articles WHERE group_name = ?`, name); err != nil {
		return err
	}
	if _, err := retryableExec(s.db, `DELETE FROM groups WHERE name = ?`, name); err != nil {
		return err
	}
	return s.PurgeOrphanMessages()
}

func (s *SQLiteStorage) IsGroupModerated(name string) (bool, error) {
	var moderated bool
	err := s.db.QueryRow(`SELECT moderated FROM groups WHERE name = ?`, name).Scan(&moderated)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return moderated, err
}

func (s *SQLiteStorage) GroupExists(name string) (bool, error) {
	var one int
	err := s.db.QueryRow(`SELECT 1 FROM groups WHERE name = ? LIMIT 1`, name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (s *SQLiteStorage) ListGroups() (Cursor[string], error) {
	rows, err := s.db.Query(`SELECT name FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (string, error) {
		var name string
		err := rows.Scan(&name)
		return name, err
	}), nil
}

func (s *SQLiteStorage) ListGroupsSince(since int64) (Cursor[string], error) {
	rows, err := s.db.Query(`SELECT name FROM groups WHERE created_at > ? ORDER BY name`, since)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (string, error) {
		var name string
		err := rows.Scan(&name)
		return name, err
	}), nil
}

func (s *SQLiteStorage) ListGroupsWithTimes() (Cursor[GroupTime], error) {
	rows, err := s.db.Query(`SELECT name, created_at FROM groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (GroupTime, error) {
		var gt GroupTime
		err := rows.Scan(&gt.Name, &gt.CreatedAt)
		return gt, err
	}), nil
}

func (s *SQLiteStorage) ListArticleNumbers(group string) (Cursor[int64], error) {
	rows, err := s.db.Query(`SELECT number FROM group_articles WHERE group_name = ? ORDER BY number`, group)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (int64, error) {
		var n int64
		err := rows.Scan(&n)
		return n, err
	}), nil
}

func (s *SQLiteStorage) ListArticleIDs(group string) (Cursor[string], error) {
	rows, err := s.db.Query(`SELECT message_id FROM group_articles WHERE group_name = ? ORDER BY number`, group)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	}), nil
}

func (s *SQLiteStorage) ListArticleIDsSince(group string, since int64) (Cursor[string], error) {
	rows, err := s.db.Query(`
		SELECT message_id FROM group_articles
		WHERE group_name = ? AND inserted_at > ?
		ORDER BY number`, group, since)
	if err != nil {
		return nil, err
	}
	return newScanCursor(rows, func(rows *sql.Rows) (string, error) {
		var id string
		err := rows.Scan(&id)
		return id, err
	}), nil
}

func (s *SQLiteStorage) GetMessageSize(id string) (int64, bool, error) {
	var size int64
	err := s.db.QueryRow(`SELECT size FROM messages WHERE message_id = ?`, id).Scan(&size)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	return size, err == nil, err
}

func (s *SQLiteStorage) PurgeGroupBefore(group string, before int64) error {
	_, err := retryableExec(s.db,
		`DELETE FROM group_articles WHERE group_name = ? AND inserted_at < ?`, group, before)
	return err
}

func (s *SQLiteStorage) PurgeOrphanMessages() error {
	_, err := retryableExec(s.db,
		`DELETE FROM messages WHERE message_id NOT IN (SELECT DISTINCT message_id FROM group_articles)`)
	return err
}

func (s *SQLiteStorage) DeleteArticleByID(id string) error {
	if _, err := retryableExec(s.db, `DELETE FROM group_articles WHERE message_id = ?`, id); err != nil {
		return err
	}
	_, err := retryableExec(s.db,
		`DELETE FROM messages WHERE message_id = ? AND NOT EXISTS (SELECT 1 FROM group_articles WHERE message_id = ?)`,
		id, id)
	return err
}

// Package store persists chat messages in an append-only SQLite log and
// serves time-ordered retrieval for history replay.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"realchat/pkg/types"
)

// SQLiteStore implements interfaces.MessageStore on a local SQLite database.
// All writes funnel through a single goroutine; SQLite allows only one
// writer at a time, so serializing appends up front avoids lock contention
// between connection handlers. Reads go straight to the pool.
type SQLiteStore struct {
	db       *sql.DB
	writeCh  chan appendOp
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

type appendOp struct {
	username string
	body     string
	result   chan appendResult
}

type appendResult struct {
	message types.ChatMessage
	err     error
}

// Open opens (creating if necessary) the message database at path and
// bootstraps the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(10 * time.Minute)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	s := &SQLiteStore{
		db:       db,
		writeCh:  make(chan appendOp, 100),
		shutdown: make(chan struct{}),
	}

	s.wg.Add(1)
	go s.writeLoop()

	return s, nil
}

// writeLoop processes all append operations in a single goroutine.
func (s *SQLiteStore) writeLoop() {
	defer s.wg.Done()

	for {
		select {
		case op := <-s.writeCh:
			op.result <- s.insert(op)
		case <-s.shutdown:
			return
		}
	}
}

func (s *SQLiteStore) insert(op appendOp) appendResult {
	// Trim at the persistence boundary; identities and bodies are stored
	// and echoed in trimmed form.
	username := strings.TrimSpace(op.username)
	body := strings.TrimSpace(op.body)
	now := time.Now().UTC()

	res, err := s.db.Exec(
		`INSERT INTO messages (username, body, timestamp) VALUES (?, ?, ?)`,
		username, body, now,
	)
	if err != nil {
		return appendResult{err: fmt.Errorf("failed to insert message: %w", err)}
	}

	id, err := res.LastInsertId()
	if err != nil {
		return appendResult{err: fmt.Errorf("failed to read message id: %w", err)}
	}

	return appendResult{message: types.ChatMessage{
		ID:        id,
		Username:  username,
		Message:   body,
		Timestamp: now,
	}}
}

// Append persists a message through the single-writer goroutine, assigning
// its timestamp, and returns the message as stored.
func (s *SQLiteStore) Append(ctx context.Context, username, body string) (types.ChatMessage, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return types.ChatMessage{}, ErrStoreClosed
	}
	s.mu.RUnlock()

	result := make(chan appendResult, 1)

	select {
	case s.writeCh <- appendOp{username: username, body: body, result: result}:
	case <-ctx.Done():
		return types.ChatMessage{}, ctx.Err()
	case <-s.shutdown:
		return types.ChatMessage{}, ErrStoreClosed
	}

	select {
	case r := <-result:
		return r.message, r.err
	case <-ctx.Done():
		return types.ChatMessage{}, ctx.Err()
	}
}

// Recent returns at most limit of the most recently persisted messages,
// oldest first. The query fetches newest-first by rowid and reverses;
// oldest-first is the output contract regardless of internal order.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]types.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, body, timestamp FROM messages ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []types.ChatMessage
	for rows.Next() {
		var m types.ChatMessage
		if err := rows.Scan(&m.ID, &m.Username, &m.Message, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// Close stops the write loop and closes the database. In-flight appends are
// allowed to complete or fail independently.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	close(s.shutdown)
	s.wg.Wait()

	log.Println("message store closed")
	return s.db.Close()
}

// Package transcript persists chat exchanges in PostgreSQL and serves the
// time-window and recent-N queries the memory subsystem and summarizer need.
package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jamjam-ai/jamjam/internal/model/chat"
)

// windowRowCap bounds a single time-window expansion.
const windowRowCap = 30

// Store is the pgx-backed chat_log store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and ensures the chat_log schema exists.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_log (
			chat_id BIGSERIAL PRIMARY KEY,
			member_id BIGINT NOT NULL,
			user_text TEXT NOT NULL,
			bot_text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_log_member_created ON chat_log (member_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init chat_log schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

// Save inserts one exchange and returns the generated chat id.
func (s *Store) Save(ctx context.Context, record chat.Log) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	var chatID int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO chat_log (member_id, user_text, bot_text, created_at)
		 VALUES ($1, $2, $3, $4) RETURNING chat_id`,
		record.MemberID,
		record.UserText,
		record.BotText,
		record.CreatedAt,
	).Scan(&chatID)
	if err != nil {
		return 0, fmt.Errorf("save chat log: %w", err)
	}
	return chatID, nil
}

// Recent loads the newest `limit` exchanges for a member, newest first.
// It runs inside an explicit read-only transaction so the query ends with a
// COMMIT instead of an ambiguous implicit rollback.
func (s *Store) Recent(ctx context.Context, memberID int64, limit int) ([]chat.Log, error) {
	if limit <= 0 {
		limit = 20
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx,
		`SELECT chat_id, member_id, user_text, bot_text, created_at
		 FROM chat_log WHERE member_id=$1 ORDER BY created_at DESC LIMIT $2`,
		memberID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent logs: %w", err)
	}

	logs, err := scanLogs(rows, limit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit read tx: %w", err)
	}
	return logs, nil
}

// Window loads exchanges for a member inside [center-window, center+window],
// ascending, capped at windowRowCap rows.
func (s *Store) Window(ctx context.Context, memberID int64, center time.Time, window time.Duration) ([]chat.Log, error) {
	start, end := windowBounds(center, window)

	rows, err := s.pool.Query(ctx,
		`SELECT chat_id, member_id, user_text, bot_text, created_at
		 FROM chat_log
		 WHERE member_id=$1 AND created_at >= $2 AND created_at <= $3
		 ORDER BY created_at ASC LIMIT $4`,
		memberID,
		start,
		end,
		windowRowCap,
	)
	if err != nil {
		return nil, fmt.Errorf("query time window: %w", err)
	}
	return scanLogs(rows, windowRowCap)
}

// windowBounds derives the inclusive [center-window, center+window] interval
// a window query covers.
func windowBounds(center time.Time, window time.Duration) (start, end time.Time) {
	return center.Add(-window), center.Add(window)
}

func scanLogs(rows pgx.Rows, capacity int) ([]chat.Log, error) {
	defer rows.Close()

	logs := make([]chat.Log, 0, capacity)
	for rows.Next() {
		var l chat.Log
		if err := rows.Scan(&l.ChatID, &l.MemberID, &l.UserText, &l.BotText, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat log row: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat log rows: %w", err)
	}
	return logs, nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

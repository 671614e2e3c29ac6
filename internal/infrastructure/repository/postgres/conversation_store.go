package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/moraplatform/qa-engine/internal/core/domain"
)

// ConversationStore persists dialogue turns per session. The dispatcher is
// the single writer for any session, so appends need no row locking beyond
// the transaction itself.
type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *ConversationStore) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent service startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq BIGINT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_conversation_turns_session_seq
	ON conversation_turns(session_id, seq DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *ConversationStore) Append(ctx context.Context, sessionID string, turns ...domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var nextSeq int64
	row := tx.QueryRowContext(ctx, `
SELECT COALESCE(MAX(seq), 0) + 1 FROM conversation_turns WHERE session_id = $1
`, sessionID)
	if err := row.Scan(&nextSeq); err != nil {
		return fmt.Errorf("next turn seq: %w", err)
	}

	now := time.Now().UTC()
	for i, turn := range turns {
		_, err := tx.ExecContext(ctx, `
INSERT INTO conversation_turns (id, session_id, seq, role, content, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, uuid.NewString(), sessionID, nextSeq+int64(i), turn.Role, turn.Content, now)
		if err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func (s *ConversationStore) Recent(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	if limit <= 0 {
		return []domain.ConversationTurn{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT role, content
FROM conversation_turns
WHERE session_id = $1
ORDER BY seq DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ConversationTurn, 0, limit)
	for rows.Next() {
		var turn domain.ConversationTurn
		if err := rows.Scan(&turn.Role, &turn.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Returned in descending order from SQL; reverse to keep chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

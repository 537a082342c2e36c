package supabase

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicalopez/dashboard-api/internal/conversation"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

// querier is the slice of pgxpool.Pool the store needs; pgxmock satisfies it.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PGStore reads the conversation log straight from the Supabase Postgres
// database, bypassing PostgREST. Read-only: the table belongs to the upstream
// workflow.
type PGStore struct {
	db     querier
	logger *logging.Logger
}

// NewPGStore creates a store backed by a pgx pool.
func NewPGStore(pool *pgxpool.Pool, logger *logging.Logger) *PGStore {
	if pool == nil {
		panic("supabase: pgx pool required")
	}
	return newPGStore(pool, logger)
}

// NewPGStoreWithQuerier allows injecting mocks for tests.
func NewPGStoreWithQuerier(q querier, logger *logging.Logger) *PGStore {
	return newPGStore(q, logger)
}

func newPGStore(q querier, logger *logging.Logger) *PGStore {
	if logger == nil {
		logger = logging.Default()
	}
	return &PGStore{db: q, logger: logger.Component("supabase-pg")}
}

// FetchAllMessages returns the full message log in ascending id order.
func (s *PGStore) FetchAllMessages(ctx context.Context) ([]conversation.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, message FROM `+messagesTable+` ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("supabase: query messages: %w", err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

// FetchSessionMessages returns one session's messages in ascending id order.
func (s *PGStore) FetchSessionMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, session_id, message FROM `+messagesTable+` WHERE session_id = $1 ORDER BY id ASC`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("supabase: query session %s: %w", sessionID, err)
	}
	defer rows.Close()
	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]conversation.Message, error) {
	var out []conversation.Message
	for rows.Next() {
		var r row
		var raw []byte
		if err := rows.Scan(&r.ID, &r.SessionID, &raw); err != nil {
			return out, fmt.Errorf("supabase: scan message row: %w", err)
		}
		r.Message = raw
		out = append(out, r.toMessage())
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("supabase: iterate message rows: %w", err)
	}
	return out, nil
}

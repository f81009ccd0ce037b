package sqlite

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/w-h-a/tutor/conversation/providers/storer"
	"github.com/w-h-a/tutor/internal/sqldriver"
)

const (
	defaultTitle = "Chat Session"

	schema = `
		CREATE TABLE IF NOT EXISTS chat_sessions (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NULL,
			title      TEXT NOT NULL DEFAULT 'Chat Session',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS chat_messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL REFERENCES chat_sessions (id),
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			sources    TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL
		);

		CREATE INDEX IF NOT EXISTS chat_messages_session_idx ON chat_messages (session_id, seq);
	`

	upsertSessionQuery = `
		INSERT INTO chat_sessions (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET updated_at = excluded.updated_at
	`

	insertMessageQuery = `
		INSERT INTO chat_messages (id, session_id, role, content, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	listMessagesQuery = `
		SELECT id, session_id, role, content, sources, created_at
		FROM chat_messages
		WHERE session_id = ?
		ORDER BY seq
	`
)

type sqliteStorer struct {
	options storer.Options
	conn    *sql.DB
}

func (s *sqliteStorer) Append(ctx context.Context, rec storer.Record) error {
	if err := storer.ValidateSessionId(rec.SessionId); err != nil {
		return err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, upsertSessionQuery, rec.SessionId, defaultTitle, rec.CreatedAt, rec.CreatedAt); err != nil {
		return err
	}

	sources := string(rec.Sources)
	if len(sources) == 0 {
		sources = "[]"
	}

	if _, err := tx.ExecContext(ctx, insertMessageQuery, rec.Id, rec.SessionId, rec.Role, rec.Content, sources, rec.CreatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *sqliteStorer) List(ctx context.Context, sessionId string) ([]storer.Record, error) {
	if err := storer.ValidateSessionId(sessionId); err != nil {
		return nil, err
	}

	rows, err := s.conn.QueryContext(ctx, listMessagesQuery, sessionId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []storer.Record

	for rows.Next() {
		var rec storer.Record
		var sources string

		if err := rows.Scan(&rec.Id, &rec.SessionId, &rec.Role, &rec.Content, &sources, &rec.CreatedAt); err != nil {
			return nil, err
		}

		rec.Sources = []byte(sources)

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *sqliteStorer) Ping(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	s := &sqliteStorer{
		options: options,
	}

	conn, ok := storer.DBFrom(options.Context)
	if !ok {
		var err error
		// file:tutor.db?_foreign_keys=on
		conn, err = sqldriver.Open(context.Background(), sqldriver.SQLite(), options.Location)
		if err != nil {
			detail := "failed to open sqlite conversation storer"
			slog.ErrorContext(context.Background(), detail, "location", options.Location, "error", err)
			panic(detail)
		}
		// sqlite allows one writer at a time
		conn.SetMaxOpenConns(1)
	}

	if _, err := conn.ExecContext(context.Background(), schema); err != nil {
		detail := "failed to create sqlite conversation tables"
		slog.ErrorContext(context.Background(), detail, "error", err)
		panic(detail)
	}

	s.conn = conn

	return s
}

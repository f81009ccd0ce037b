package conversation

import "context"

// Store is a per-session, append-only message log. History returns messages
// in the order they were appended.
type Store interface {
	Append(ctx context.Context, sessionId string, role string, content string, sources []Source) error
	History(ctx context.Context, sessionId string) ([]Message, error)
	Clear(ctx context.Context, sessionId string) error
	Ping(ctx context.Context) error
}

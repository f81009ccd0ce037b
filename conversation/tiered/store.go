package tiered

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/conversation/providers/storer"
	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/metrics"
	"github.com/w-h-a/tutor/internal/retry"
)

// tieredStore writes every message to the in-process cache and, best effort,
// to the durable storer. Reads combine both so a message kept only in memory
// is never hidden by durable rows.
type tieredStore struct {
	options conversation.Options
	cache   map[string][]conversation.Message
	mtx     sync.RWMutex
}

func (s *tieredStore) Append(ctx context.Context, sessionId string, role string, content string, sources []conversation.Source) error {
	if !conversation.ValidRole(role) {
		return fault.New(fault.KindInvalidInput, "conversation.Append", "unknown role %q", role)
	}

	msg := conversation.Message{
		Id:        uuid.New().String(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		Sources:   slices.Clone(sources),
		CreatedAt: time.Now().UTC(),
	}

	if s.options.Durable != nil {
		if err := s.appendDurable(ctx, msg); err != nil {
			metrics.DurableFallbacks.WithLabelValues("append").Inc()
			slog.WarnContext(ctx, "durable append failed, keeping message in memory only", "session_id", sessionId, "role", role, "error", err)
		}
	}

	s.mtx.Lock()
	s.cache[sessionId] = append(s.cache[sessionId], msg)
	s.mtx.Unlock()

	return nil
}

func (s *tieredStore) History(ctx context.Context, sessionId string) ([]conversation.Message, error) {
	var durable []conversation.Message

	if s.options.Durable != nil {
		msgs, err := s.listDurable(ctx, sessionId)
		if err != nil {
			metrics.DurableFallbacks.WithLabelValues("history").Inc()
			slog.WarnContext(ctx, "durable history failed, reading from memory", "session_id", sessionId, "error", err)
		}
		durable = msgs
	}

	s.mtx.RLock()
	cached := slices.Clone(s.cache[sessionId])
	s.mtx.RUnlock()

	return merge(durable, cached), nil
}

// merge combines durable rows with messages only the cache holds, for
// instance turns whose durable append fell back to memory. When the cache
// already holds every durable row it is the complete log.
func merge(durable []conversation.Message, cached []conversation.Message) []conversation.Message {
	if len(durable) == 0 {
		return cached
	}

	inCache := make(map[string]struct{}, len(cached))
	for _, m := range cached {
		inCache[m.Id] = struct{}{}
	}

	missing := 0
	inDurable := make(map[string]struct{}, len(durable))
	for _, m := range durable {
		inDurable[m.Id] = struct{}{}
		if _, ok := inCache[m.Id]; !ok {
			missing++
		}
	}

	if missing == 0 {
		return cached
	}

	out := durable
	for _, m := range cached {
		if _, ok := inDurable[m.Id]; !ok {
			out = append(out, m)
		}
	}

	slices.SortStableFunc(out, func(a, b conversation.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	return out
}

// Clear drops the in-process copy of a session. Durable rows are kept.
func (s *tieredStore) Clear(ctx context.Context, sessionId string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	delete(s.cache, sessionId)
	return nil
}

func (s *tieredStore) Ping(ctx context.Context) error {
	if s.options.Durable == nil {
		return nil
	}
	if err := s.options.Durable.Ping(ctx); err != nil {
		return fault.Wrap(fault.KindStorage, "conversation.Ping", err)
	}
	return nil
}

func (s *tieredStore) appendDurable(ctx context.Context, msg conversation.Message) error {
	if err := storer.ValidateSessionId(msg.SessionId); err != nil {
		return err
	}

	rec, err := toRecord(msg)
	if err != nil {
		return err
	}

	return retry.Do(ctx, "conversation.append", s.options.Attempts, s.options.Backoff, retryable, func() error {
		return s.options.Durable.Append(ctx, rec)
	})
}

func (s *tieredStore) listDurable(ctx context.Context, sessionId string) ([]conversation.Message, error) {
	// the durable store keys on UUIDs; other ids only ever live in memory
	if err := storer.ValidateSessionId(sessionId); err != nil {
		return nil, nil
	}

	var records []storer.Record

	err := retry.Do(ctx, "conversation.history", s.options.Attempts, s.options.Backoff, retryable, func() error {
		var err error
		records, err = s.options.Durable.List(ctx, sessionId)
		return err
	})
	if err != nil {
		return nil, err
	}

	msgs := make([]conversation.Message, 0, len(records))
	for _, rec := range records {
		msgs = append(msgs, fromRecord(ctx, rec))
	}

	return msgs, nil
}

func retryable(err error) bool {
	return !errors.Is(err, storer.ErrInvalidSession) && !errors.Is(err, context.Canceled)
}

func toRecord(msg conversation.Message) (storer.Record, error) {
	sources := msg.Sources
	if sources == nil {
		sources = []conversation.Source{}
	}

	data, err := json.Marshal(sources)
	if err != nil {
		return storer.Record{}, err
	}

	return storer.Record{
		Id:        msg.Id,
		SessionId: msg.SessionId,
		Role:      msg.Role,
		Content:   msg.Content,
		Sources:   data,
		CreatedAt: msg.CreatedAt,
	}, nil
}

func fromRecord(ctx context.Context, rec storer.Record) conversation.Message {
	msg := conversation.Message{
		Id:        rec.Id,
		SessionId: rec.SessionId,
		Role:      rec.Role,
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}

	if len(rec.Sources) > 0 {
		if err := json.Unmarshal(rec.Sources, &msg.Sources); err != nil {
			slog.WarnContext(ctx, "dropping unreadable sources", "message_id", rec.Id, "error", err)
		}
	}

	return msg
}

func NewStore(opts ...conversation.Option) conversation.Store {
	options := conversation.NewOptions(opts...)

	s := &tieredStore{
		options: options,
		cache:   map[string][]conversation.Message{},
		mtx:     sync.RWMutex{},
	}

	return s
}

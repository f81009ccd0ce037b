package tutor

import (
	"context"
	"net/http"

	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/conversation/tiered"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/generator"
	handler "github.com/w-h-a/tutor/internal/handler/http"
	"github.com/w-h-a/tutor/internal/service/chat"
	"github.com/w-h-a/tutor/internal/service/collection"
	"github.com/w-h-a/tutor/internal/service/search"
	"github.com/w-h-a/tutor/internal/service/session"
	"github.com/w-h-a/tutor/retriever"
	"github.com/w-h-a/tutor/retriever/providers/storer"
	"github.com/w-h-a/tutor/retriever/vector"
)

type Tutor struct {
	chat       *chat.Service
	search     *search.Service
	collection *collection.Service
	session    *session.Service
	store      conversation.Store
}

// Ensure creates the grounding collection when missing and fails with a
// configuration fault when its dimension differs from the embedder's.
func (t *Tutor) Ensure(ctx context.Context) (collection.Status, error) {
	return t.collection.Ensure(ctx)
}

func (t *Tutor) Ask(ctx context.Context, origin string, sessionId string, content string, contextWindow int) (chat.Result, error) {
	return t.chat.HandleMessage(ctx, chat.Request{
		Origin:        origin,
		SessionId:     sessionId,
		Content:       content,
		ContextWindow: contextWindow,
	})
}

func (t *Tutor) AskFromSelection(ctx context.Context, content string, contextWindow int) (chat.SelectionResult, error) {
	return t.chat.AnswerFromSelection(ctx, chat.SelectionRequest{
		Content:       content,
		ContextWindow: contextWindow,
	})
}

func (t *Tutor) CreateSession(ctx context.Context, sessionId string) (string, error) {
	s, err := t.session.CreateSession(ctx, sessionId)
	if err != nil {
		return "", err
	}
	return s.ID(), nil
}

func (t *Tutor) ListSessionIds(ctx context.Context) []string {
	return t.chat.ListSessions(ctx)
}

func (t *Tutor) DeleteSession(ctx context.Context, sessionId string) error {
	return t.chat.DeleteSession(ctx, sessionId)
}

func (t *Tutor) Summary(ctx context.Context, sessionId string) (chat.Summary, error) {
	return t.chat.Summary(ctx, sessionId)
}

func (t *Tutor) ClearSession(ctx context.Context, sessionId string) error {
	return t.chat.Clear(ctx, sessionId)
}

func (t *Tutor) Search(ctx context.Context, query string, limit int, offset int) (search.Results, error) {
	return t.search.Search(ctx, search.Query{Text: query, Limit: limit, Offset: offset})
}

// Checks names the dependencies a readiness probe should ping.
func (t *Tutor) Checks() map[string]handler.Check {
	return map[string]handler.Check{
		"vector_store":       t.collection.Ping,
		"conversation_store": t.store.Ping,
	}
}

// Handler routes the HTTP API. Middleware is applied by the server.
func (t *Tutor) Handler() http.Handler {
	return handler.NewRouter(
		handler.NewChatHandler(t.chat),
		handler.NewSearchHandler(t.search),
		handler.NewHealthHandler(t.Checks()),
	)
}

func New(
	em embedder.Embedder,
	vs storer.Storer,
	ge generator.Generator,
	store conversation.Store,
	collectionName string,
	opts ...chat.Option,
) *Tutor {
	re := vector.NewRetriever(
		retriever.WithEmbedder(em),
		retriever.WithStorer(vs),
	)

	if store == nil {
		store = tiered.NewStore()
	}

	sessions := session.New()

	opts = append(opts, chat.WithCollection(collectionName))

	return &Tutor{
		chat:       chat.New(re, ge, store, sessions, opts...),
		search:     search.New(re, collectionName),
		collection: collection.New(vs, em, collectionName),
		session:    sessions,
		store:      store,
	}
}

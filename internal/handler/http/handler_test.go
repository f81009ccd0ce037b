package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/conversation/tiered"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/service/chat"
	"github.com/w-h-a/tutor/internal/service/search"
	"github.com/w-h-a/tutor/retriever"
)

type fakeRetriever struct {
	mtx    sync.Mutex
	limits []int
}

func (r *fakeRetriever) Retrieve(ctx context.Context, query string, collection string, limit int) []retriever.Chunk {
	r.mtx.Lock()
	r.limits = append(r.limits, limit)
	r.mtx.Unlock()
	return []retriever.Chunk{{
		Content:  "Humanoid robots walk on two legs.",
		Score:    0.87,
		Metadata: map[string]any{"title": "Locomotion", "file_path": "docs/ch2.md"},
	}}
}

type fakeGenerator struct {
	err error
}

func (g fakeGenerator) Generate(ctx context.Context, messages []generator.Message, opts ...generator.GenerateOption) (generator.Completion, error) {
	if g.err != nil {
		return generator.Completion{}, g.err
	}
	return generator.Completion{
		Text:  "They walk on two legs.",
		Usage: generator.Usage{Model: "test-model", Provider: "test"},
	}, nil
}

type fixture struct {
	router    http.Handler
	retriever *fakeRetriever
}

func newFixture(t *testing.T, ge generator.Generator, checks map[string]Check) fixture {
	t.Helper()
	re := &fakeRetriever{}
	svc := chat.New(re, ge, tiered.NewStore(), nil)
	router := NewRouter(
		NewChatHandler(svc),
		NewSearchHandler(search.New(re, "book")),
		NewHealthHandler(checks),
	)
	return fixture{router: router, retriever: re}
}

func (f fixture) do(method string, target string, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if len(body) > 0 {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestPostMessage(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"how do humanoids walk?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "abc", body["session_id"])
	assert.Equal(t, "They walk on two legs.", body["response"])
	assert.Equal(t, "how do humanoids walk?", body["query"])
	assert.EqualValues(t, 1, body["retrieved_chunks"])
	assert.Equal(t, map[string]any{"model": "test-model", "provider": "test"}, body["usage"])

	sources := body["sources"].([]any)
	require.Len(t, sources, 1)
	source := sources[0].(map[string]any)
	assert.Equal(t, "Locomotion", source["title"])
	assert.Equal(t, "docs/ch2.md", source["file_path"])

	assert.Equal(t, []int{5}, f.retriever.limits)
}

func TestPostMessageHonorsContextWindow(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"hi","context_window":42}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int{10}, f.retriever.limits)
}

func TestPostMessageBadRequests(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "content is required", decode(t, rec)["detail"])
}

func TestPostMessageConfigurationError(t *testing.T) {
	ge := fakeGenerator{err: fault.New(fault.KindConfiguration, "generator.openai.Generate", "api key is not set")}
	f := newFixture(t, ge, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Configuration error: api key is not set", decode(t, rec)["detail"])
}

func TestPostMessageFallbackIsOK(t *testing.T) {
	f := newFixture(t, fakeGenerator{err: errors.New("upstream exploded")}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Empty(t, body["sources"])
	assert.NotContains(t, body["response"], "exploded")
}

func TestRateLimitIsSharedAcrossChatRoutes(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	for i := 0; i < 10; i++ {
		rec := f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"hi"}`)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	rec := f.do(http.MethodPost, "/v1/chat/ask-from-selection", `{"content":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, rateLimitedDetail, decode(t, rec)["detail"])

	rec = f.do(http.MethodPost, "/v1/chat/sessions/abc/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestPostSelection(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/ask-from-selection", `{"content":"a <b>bold</b> claim","context_window":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "a &lt;b&gt;bold&lt;/b&gt; claim", body["selected_text"])
	assert.NotContains(t, body, "session_id")
	assert.Len(t, body["sources"], 1)
	assert.Equal(t, []int{2}, f.retriever.limits)
}

func TestSessionRoutes(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodPost, "/v1/chat/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	id, _ := decode(t, rec)["session_id"].(string)
	require.NotEmpty(t, id)

	rec = f.do(http.MethodPost, "/v1/chat/sessions/"+id+"/messages", `{"content":"hi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/v1/chat/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["message_count"])
	assert.Equal(t, id, body["session_id"])
	msgs := body["messages"].([]any)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])

	rec = f.do(http.MethodGet, "/v1/chat/sessions/"+id+"/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode(t, rec)["last_updated"])

	rec = f.do(http.MethodDelete, "/v1/chat/sessions/"+id+"/context", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/v1/chat/sessions/"+id+"/messages", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 0, body["message_count"])
	assert.Equal(t, []any{}, body["messages"])

	rec = f.do(http.MethodGet, "/v1/chat/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, []any{id}, body["sessions"])
	assert.EqualValues(t, 1, body["count"])

	rec = f.do(http.MethodGet, "/v1/chat/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decode(t, rec)["session_id"])

	rec = f.do(http.MethodDelete, "/v1/chat/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["deleted"])

	rec = f.do(http.MethodGet, "/v1/chat/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/v1/chat/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearchRoute(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, nil)

	rec := f.do(http.MethodGet, "/api/search?q=walking", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 10, body["limit"])
	assert.EqualValues(t, 0, body["offset"])
	assert.Len(t, body["results"], 1)

	for _, target := range []string{"/api/search?q=", "/api/search?q=x&limit=500", "/api/search?q=x&limit=abc", "/api/search?q=x&offset=-2", "/api/search?q=x&offset=1000000000"} {
		rec = f.do(http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHealthRoutes(t *testing.T) {
	f := newFixture(t, fakeGenerator{}, map[string]Check{
		"vector_store":       func(ctx context.Context) error { return nil },
		"conversation_store": func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rec := f.do(http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "healthy"}, decode(t, rec))

	rec = f.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["vector_store"])
	assert.Equal(t, "connection refused", checks["conversation_store"])

	rec = f.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware(t *testing.T) {
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	Recovery()(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://book.example.com")
	rec = httptest.NewRecorder()
	Logging(CORS([]string{"https://book.example.com"})(ok)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://book.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	var seen string
	capture := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = origin(r)
	})
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	ProxyHeaders(capture).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "203.0.113.9", seen)
}

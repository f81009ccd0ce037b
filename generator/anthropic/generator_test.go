package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		system, ok := req["system"].([]any)
		require.True(t, ok)
		require.Len(t, system, 1)
		assert.Equal(t, "Use the context.", system[0].(map[string]any)["text"])

		msgs := req["messages"].([]any)
		require.Len(t, msgs, 3)
		assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-sonnet-4-5",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": "A humanoid robot has a human-like body."}},
			"usage":       map[string]any{"input_tokens": 20, "output_tokens": 9},
		})
	}))
	defer srv.Close()

	g := NewGenerator(
		generator.WithApiKey("key"),
		generator.WithBaseURL(srv.URL),
		generator.WithModel("claude-sonnet-4-5"),
	)

	c, err := g.Generate(context.Background(), []generator.Message{
		{Role: generator.RoleSystem, Content: "Use the context."},
		{Role: generator.RoleUser, Content: "hi"},
		{Role: generator.RoleAssistant, Content: "hello"},
		{Role: generator.RoleUser, Content: "what is a humanoid robot"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A humanoid robot has a human-like body.", c.Text)
	assert.Equal(t, 29, c.Usage.TotalTokens)
	assert.Equal(t, "anthropic", c.Usage.Provider)
}

func TestGenerateRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	g := NewGenerator(
		generator.WithApiKey("key"),
		generator.WithBaseURL(srv.URL),
		generator.WithModel("claude-sonnet-4-5"),
	)

	_, err := g.Generate(context.Background(), []generator.Message{{Role: generator.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Equal(t, fault.KindRateLimited, fault.KindOf(err))
}

func TestGenerateWithoutKey(t *testing.T) {
	g := NewGenerator(generator.WithModel("claude-sonnet-4-5"))

	_, err := g.Generate(context.Background(), []generator.Message{{Role: generator.RoleUser, Content: "hi"}})
	assert.Equal(t, fault.KindConfiguration, fault.KindOf(err))
}

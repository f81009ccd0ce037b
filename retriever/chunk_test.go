package retriever

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewChunkPrefersText(t *testing.T) {
	c := NewChunk(map[string]any{
		"text":     "Humanoid robotics is the study of robots with human form.",
		"content":  "ignored",
		"metadata": map[string]any{"title": "Chapter 1"},
	}, 0.91)

	assert.Equal(t, "Humanoid robotics is the study of robots with human form.", c.Content)
	assert.Equal(t, float32(0.91), c.Score)
	assert.Equal(t, map[string]any{"title": "Chapter 1"}, c.Metadata)
}

func TestNewChunkTextWithoutMetadataKeepsRest(t *testing.T) {
	c := NewChunk(map[string]any{"text": "t", "file_path": "docs/ch1.md"}, 0.5)

	assert.Equal(t, "t", c.Content)
	assert.Equal(t, map[string]any{"file_path": "docs/ch1.md"}, c.Metadata)
}

func TestNewChunkFallsBackToContent(t *testing.T) {
	c := NewChunk(map[string]any{"content": "body", "title": "Sensors"}, 0.4)

	assert.Equal(t, "body", c.Content)
	assert.Equal(t, map[string]any{"title": "Sensors"}, c.Metadata)
}

func TestNewChunkRendersWholePayload(t *testing.T) {
	c := NewChunk(map[string]any{"page": 3.0, "chapter": "Actuators"}, 0.2)

	assert.Equal(t, `{"chapter":"Actuators","page":3}`, c.Content)
	assert.Equal(t, map[string]any{"page": 3.0, "chapter": "Actuators"}, c.Metadata)
}

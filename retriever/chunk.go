package retriever

import (
	"encoding/json"
	"fmt"

	getsafe "github.com/w-h-a/tutor/util/get_safe"
)

type Chunk struct {
	Content  string         `json:"content"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// NewChunk normalizes a stored payload. Ingestion has written chunk text
// under "text" and under "content"; a payload with neither is rendered whole.
func NewChunk(payload map[string]any, score float32) Chunk {
	if text, ok := payload["text"].(string); ok {
		metadata := getsafe.Metadata(payload, "metadata")
		if metadata == nil {
			metadata = getsafe.Without(payload, "text")
		}
		return Chunk{Content: text, Score: score, Metadata: metadata}
	}

	if content, ok := payload["content"].(string); ok {
		return Chunk{Content: content, Score: score, Metadata: getsafe.Without(payload, "content")}
	}

	return Chunk{Content: render(payload), Score: score, Metadata: getsafe.Without(payload)}
}

func render(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprint(payload)
	}
	return string(b)
}

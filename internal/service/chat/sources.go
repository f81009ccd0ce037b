package chat

import (
	"maps"

	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/internal/sanitize"
	"github.com/w-h-a/tutor/retriever"
	getsafe "github.com/w-h-a/tutor/util/get_safe"
)

const (
	previewRunes = 200

	defaultTitle    = "Retrieved Content"
	defaultFilePath = "unknown"
)

// Source is the attribution returned to callers. Content is a preview.
type Source struct {
	Content   string  `json:"content"`
	Title     string  `json:"title"`
	FilePath  string  `json:"file_path"`
	Score     float32 `json:"score"`
	Relevance string  `json:"relevance"`
}

func attributions(chunks []retriever.Chunk) []conversation.Source {
	sources := make([]conversation.Source, 0, len(chunks))

	for _, c := range chunks {
		title := getsafe.String(c.Metadata, "title")
		if len(title) == 0 {
			title = defaultTitle
		}

		filePath := getsafe.FirstString(c.Metadata, "file_path", "source")
		if len(filePath) == 0 {
			filePath = defaultFilePath
		}

		metadata := maps.Clone(c.Metadata)
		if metadata == nil {
			metadata = map[string]any{}
		}

		sources = append(sources, conversation.Source{
			Content:  c.Content,
			Title:    title,
			FilePath: filePath,
			Score:    c.Score,
			Metadata: metadata,
		})
	}

	return sources
}

func preview(sources []conversation.Source) []Source {
	out := make([]Source, 0, len(sources))

	for _, s := range sources {
		content := s.Content
		if len([]rune(content)) > previewRunes {
			content = sanitize.Truncate(content, previewRunes) + "..."
		}

		out = append(out, Source{
			Content:   content,
			Title:     s.Title,
			FilePath:  s.FilePath,
			Score:     s.Score,
			Relevance: "high",
		})
	}

	return out
}

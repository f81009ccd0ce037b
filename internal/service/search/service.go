package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/sanitize"
	"github.com/w-h-a/tutor/retriever"
	getsafe "github.com/w-h-a/tutor/util/get_safe"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	MaxOffset    = 1000

	snippetRunes = 200
)

type Query struct {
	Text   string
	Limit  int
	Offset int
}

type Item struct {
	ContentId      string  `json:"content_id"`
	Title          string  `json:"title"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float32 `json:"relevance_score"`
}

type Results struct {
	Results []Item `json:"results"`
	Total   int    `json:"total"`
	Query   string `json:"query"`
	Limit   int    `json:"limit"`
	Offset  int    `json:"offset"`
}

type Service struct {
	retriever  retriever.Retriever
	collection string
}

// Search pages through the chunks most similar to the query. Validation
// failures are invalid input faults; an unavailable index gives no results.
func (s *Service) Search(ctx context.Context, q Query) (Results, error) {
	text := strings.TrimSpace(q.Text)
	if len(text) == 0 {
		return Results{}, fault.New(fault.KindInvalidInput, "search.Search", "query parameter 'q' is required and cannot be empty")
	}

	if q.Limit < 1 || q.Limit > MaxLimit {
		return Results{}, fault.New(fault.KindInvalidInput, "search.Search", "limit must be between 1 and %d", MaxLimit)
	}

	if q.Offset < 0 || q.Offset > MaxOffset {
		return Results{}, fault.New(fault.KindInvalidInput, "search.Search", "offset must be between 0 and %d", MaxOffset)
	}

	text = sanitize.Input(text)

	chunks := s.retriever.Retrieve(ctx, text, s.collection, q.Offset+q.Limit)

	items := []Item{}
	for i := q.Offset; i < len(chunks); i++ {
		items = append(items, toItem(chunks[i], i))
	}

	slog.DebugContext(ctx, "search served", "query", text, "results", len(items), "offset", q.Offset)

	return Results{
		Results: items,
		Total:   len(items),
		Query:   text,
		Limit:   q.Limit,
		Offset:  q.Offset,
	}, nil
}

func toItem(c retriever.Chunk, rank int) Item {
	id := getsafe.FirstString(c.Metadata, "content_id", "id", "file_path", "source")
	if len(id) == 0 {
		id = fmt.Sprintf("content_%d", rank)
	}

	title := getsafe.String(c.Metadata, "title")
	if len(title) == 0 {
		title = "Retrieved Content"
	}

	snippet := c.Content
	if len([]rune(snippet)) > snippetRunes {
		snippet = sanitize.Truncate(snippet, snippetRunes) + "..."
	}

	return Item{
		ContentId:      id,
		Title:          title,
		Snippet:        snippet,
		RelevanceScore: c.Score,
	}
}

func New(re retriever.Retriever, collection string) *Service {
	if re == nil {
		detail := "search service requires a retriever"
		slog.ErrorContext(context.Background(), detail)
		panic(detail)
	}

	return &Service{
		retriever:  re,
		collection: collection,
	}
}

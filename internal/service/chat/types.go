package chat

import (
	"time"

	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/generator"
)

type Request struct {
	Origin        string
	SessionId     string
	Content       string
	ContextWindow int
}

type SelectionRequest struct {
	Content       string
	ContextWindow int
}

type Result struct {
	SessionId       string          `json:"session_id"`
	Response        string          `json:"response"`
	Sources         []Source        `json:"sources"`
	Query           string          `json:"query"`
	RetrievedChunks int             `json:"retrieved_chunks"`
	Usage           generator.Usage `json:"usage"`
}

type SelectionResult struct {
	Response        string          `json:"response"`
	Sources         []Source        `json:"sources"`
	SelectedText    string          `json:"selected_text"`
	RetrievedChunks int             `json:"retrieved_chunks"`
	Usage           generator.Usage `json:"usage"`
}

type Summary struct {
	SessionId    string                 `json:"session_id"`
	MessageCount int                    `json:"message_count"`
	LastUpdated  *time.Time             `json:"last_updated"`
	Messages     []conversation.Message `json:"messages"`
}

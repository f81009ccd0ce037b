package conversation

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Id        string    `json:"id"`
	SessionId string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []Source  `json:"sources"`
	CreatedAt time.Time `json:"timestamp"`
}

// Source links an answer to a retrieved chunk that grounded it.
type Source struct {
	Content  string         `json:"content"`
	Title    string         `json:"title"`
	FilePath string         `json:"file_path"`
	Score    float32        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}

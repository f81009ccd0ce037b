package storer

import (
	"encoding/json"
	"time"
)

type Record struct {
	Id        string          `json:"id"`
	SessionId string          `json:"session_id"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Sources   json.RawMessage `json:"sources,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

package session

import "time"

type Session struct {
	id        string
	createdAt time.Time
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) CreatedAt() time.Time {
	return s.createdAt
}

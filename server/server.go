package server

import "context"

// Server serves one handler until stopped.
type Server interface {
	Options() Options
	Handle(handler any) error
	Start() error
	Stop(ctx context.Context) error
}

package collection

import (
	"context"
	"errors"
	"log/slog"

	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/retriever/providers/storer"
)

// Status reports what Ensure found for the collection.
type Status struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Points    uint64 `json:"points"`
	Created   bool   `json:"created"`
	Reachable bool   `json:"reachable"`
}

type Service struct {
	storer   storer.Storer
	embedder embedder.Embedder
	name     string
}

func (s *Service) Name() string {
	return s.name
}

// Ensure checks that the collection exists with the embedder's dimension,
// creating it when missing. A mismatch is a configuration fault. An
// unreachable store is logged and reported in the status so the service can
// still start and answer without sources.
func (s *Service) Ensure(ctx context.Context) (Status, error) {
	want := s.embedder.Dimension()

	status := Status{Name: s.name, Dimension: want}

	info, err := s.storer.Describe(ctx, s.name)
	if errors.Is(err, storer.ErrCollectionNotFound) {
		if err := s.storer.Create(ctx, s.name, want); err != nil {
			slog.WarnContext(ctx, "failed to create collection", "collection", s.name, "dimension", want, "error", err)
			return status, nil
		}
		slog.InfoContext(ctx, "created collection", "collection", s.name, "dimension", want)
		status.Created = true
		status.Reachable = true
		return status, nil
	}
	if err != nil {
		slog.WarnContext(ctx, "vector store unreachable, answers will carry no sources", "collection", s.name, "error", err)
		return status, nil
	}

	status.Reachable = true
	status.Points = info.Points

	if info.Dimension != want {
		status.Dimension = info.Dimension
		return status, fault.New(
			fault.KindConfiguration,
			"collection.Ensure",
			"collection %s has dimension %d but the embedder produces %d",
			s.name, info.Dimension, want,
		)
	}

	return status, nil
}

func (s *Service) Ping(ctx context.Context) error {
	if err := s.storer.Ping(ctx); err != nil {
		return fault.Wrap(fault.KindUnavailable, "collection.Ping", err)
	}
	return nil
}

func New(
	st storer.Storer,
	em embedder.Embedder,
	name string,
) *Service {
	if st == nil || em == nil {
		detail := "collection service requires a storer and an embedder"
		slog.ErrorContext(context.Background(), detail)
		panic(detail)
	}

	return &Service{
		storer:   st,
		embedder: em,
		name:     name,
	}
}

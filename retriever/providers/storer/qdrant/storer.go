package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/w-h-a/tutor/retriever/providers/storer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultPort = 6334

type qdrantStorer struct {
	options storer.Options
	client  *qdrant.Client
}

func (s *qdrantStorer) Search(ctx context.Context, collection string, vector []float32, limit int) ([]storer.Record, error) {
	if limit < 1 {
		return nil, nil
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, mapError(collection, err)
	}

	records := make([]storer.Record, 0, len(points))

	for _, point := range points {
		records = append(records, storer.Record{
			Id:      pointId(point.GetId()),
			Payload: FromPayload(point.GetPayload()),
			Score:   point.GetScore(),
		})
	}

	return records, nil
}

func (s *qdrantStorer) Upsert(ctx context.Context, collection string, records ...storer.Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))

	for _, rec := range records {
		payload, err := qdrant.TryValueMap(rec.Payload)
		if err != nil {
			return fmt.Errorf("convert payload for point %s: %w", rec.Id, err)
		}

		id := rec.Id
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}

		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(id),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payload,
		})
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return mapError(collection, err)
	}

	return nil
}

func (s *qdrantStorer) Describe(ctx context.Context, collection string) (storer.Collection, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return storer.Collection{}, mapError(collection, err)
	}

	return storer.Collection{
		Name:      collection,
		Dimension: int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()),
		Points:    info.GetPointsCount(),
	}, nil
}

func (s *qdrantStorer) Create(ctx context.Context, collection string, dimension int) error {
	if dimension < 1 {
		return fmt.Errorf("invalid dimension %d for collection %s", dimension, collection)
	}

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return mapError(collection, err)
	}

	return nil
}

func (s *qdrantStorer) Ping(ctx context.Context) error {
	_, err := s.client.HealthCheck(ctx)
	return err
}

func (s *qdrantStorer) Close() error {
	return s.client.Close()
}

func mapError(collection string, err error) error {
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.NotFound:
			return fmt.Errorf("%w: %s", storer.ErrCollectionNotFound, collection)
		case codes.InvalidArgument:
			return fmt.Errorf("qdrant rejected request on %s: %w", collection, err)
		}
	}
	return fmt.Errorf("qdrant %s: %w", collection, err)
}

func pointId(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if u := id.GetUuid(); len(u) > 0 {
		return u
	}
	return strconv.FormatUint(id.GetNum(), 10)
}

func splitLocation(loc string) (string, int, error) {
	if len(loc) == 0 {
		return "localhost", defaultPort, nil
	}

	host, portStr, err := net.SplitHostPort(loc)
	if err != nil {
		var addrErr *net.AddrError
		if errors.As(err, &addrErr) && addrErr.Err == "missing port in address" {
			return loc, defaultPort, nil
		}
		return "", 0, err
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port %q: %w", portStr, err)
	}

	return host, port, nil
}

func NewStorer(opts ...storer.Option) storer.Storer {
	options := storer.NewOptions(opts...)

	host, port, err := splitLocation(options.Location)
	if err != nil {
		detail := "invalid qdrant location"
		slog.ErrorContext(context.Background(), detail, "location", options.Location, "error", err)
		panic(detail)
	}

	useTLS, _ := TLSFrom(options.Context)

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: options.ApiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		detail := "failed to create qdrant client"
		slog.ErrorContext(context.Background(), detail, "host", host, "port", port, "error", err)
		panic(detail)
	}

	s := &qdrantStorer{
		options: options,
		client:  client,
	}

	return s
}

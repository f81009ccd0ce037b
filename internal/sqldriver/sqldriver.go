// Package sqldriver registers the otelsql-instrumented database drivers
// shared by every SQL-backed storer.
package sqldriver

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.nhat.io/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"
)

var (
	once     sync.Once
	postgres string
	sqlite   string
)

func register() {
	once.Do(func() {
		var err error

		postgres, err = otelsql.Register(
			"postgres",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsClose(),
			otelsql.TraceRowsAffected(),
			otelsql.WithSystem(semconv.DBSystemPostgreSQL),
		)
		if err != nil {
			detail := "failed to register postgres driver with otel"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}

		sqlite, err = otelsql.Register(
			"sqlite3",
			otelsql.TraceQueryWithoutArgs(),
			otelsql.TraceRowsAffected(),
			otelsql.WithSystem(semconv.DBSystemSqlite),
		)
		if err != nil {
			detail := "failed to register sqlite driver with otel"
			slog.ErrorContext(context.Background(), detail, "error", err)
			panic(detail)
		}
	})
}

func Postgres() string {
	register()
	return postgres
}

func SQLite() string {
	register()
	return sqlite
}

// Open opens and pings a connection through driver and records pool stats.
func Open(ctx context.Context, driver string, dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if err := otelsql.RecordStats(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
	goredis "github.com/redis/go-redis/v9"
	"github.com/w-h-a/tutor/conversation"
	convstorer "github.com/w-h-a/tutor/conversation/providers/storer"
	convpostgres "github.com/w-h-a/tutor/conversation/providers/storer/postgres"
	convredis "github.com/w-h-a/tutor/conversation/providers/storer/redis"
	convsqlite "github.com/w-h-a/tutor/conversation/providers/storer/sqlite"
	"github.com/w-h-a/tutor/conversation/tiered"
	"github.com/w-h-a/tutor/embedder"
	"github.com/w-h-a/tutor/embedder/fastembed"
	googleembedder "github.com/w-h-a/tutor/embedder/google"
	openaiembedder "github.com/w-h-a/tutor/embedder/openai"
	"github.com/w-h-a/tutor/generator"
	anthropicgenerator "github.com/w-h-a/tutor/generator/anthropic"
	googlegenerator "github.com/w-h-a/tutor/generator/google"
	openaigenerator "github.com/w-h-a/tutor/generator/openai"
	"github.com/w-h-a/tutor/internal/service/chat"
	"github.com/w-h-a/tutor/internal/sqldriver"
	"github.com/w-h-a/tutor/retriever/providers/storer"
	"github.com/w-h-a/tutor/retriever/providers/storer/memory"
	pgvectorstorer "github.com/w-h-a/tutor/retriever/providers/storer/postgres"
	"github.com/w-h-a/tutor/retriever/providers/storer/qdrant"
)

type Config struct {
	ConfigFile kong.ConfigFlag `name:"config" help:"Load flags from a JSON file."`

	LogFormat string `help:"Log encoding." enum:"json,console" default:"json" env:"LOG_FORMAT"`
	LogLevel  string `help:"Minimum log level." default:"info" env:"LOG_LEVEL"`

	// Embedder config
	Embedder          string `help:"Embedding provider." enum:"fastembed,openai,google" default:"fastembed" env:"EMBEDDER"`
	EmbedderModel     string `help:"Embedding model identifier. Empty uses the provider default." default:"" env:"EMBEDDING_MODEL"`
	EmbedderKey       string `help:"API key for a remote embedding provider." default:"" env:"EMBEDDING_API_KEY"`
	EmbedderBaseURL   string `help:"Base URL of an OpenAI-compatible embedding endpoint." default:"" env:"EMBEDDING_BASE_URL"`
	EmbedderDimension int    `help:"Embedding dimension for remote providers." default:"1024" env:"EMBEDDING_DIMENSION"`
	FastembedCacheDir string `help:"Directory holding downloaded local models." default:"local_cache" env:"FASTEMBED_CACHE_DIR"`

	// Vector store config
	VectorStore    string `help:"Vector store backing retrieval." enum:"qdrant,postgres,memory" default:"qdrant" env:"VECTOR_STORE"`
	VectorLocation string `help:"Address of the vector store: host:port for qdrant, a DSN for postgres." default:"localhost:6334" env:"QDRANT_URL,VECTOR_DATABASE_URL"`
	VectorKey      string `help:"API key for the vector store." default:"" env:"QDRANT_API_KEY"`
	VectorTLS      bool   `help:"Dial the vector store over TLS." default:"false" env:"QDRANT_TLS"`
	Collection     string `help:"Collection answers are grounded on." default:"humanoid_ai_book_new" env:"QDRANT_COLLECTION"`

	// Conversation store config
	Conversation         string `help:"Durable conversation store. none keeps history in memory only." enum:"sqlite,postgres,redis,none" default:"sqlite" env:"CONVERSATION_STORE"`
	ConversationLocation string `help:"DSN or URL of the durable conversation store." default:"file:tutor.db?_foreign_keys=on" env:"DATABASE_URL"`

	// Generator config
	Generator        string `help:"Completion provider." enum:"openai,anthropic,google" default:"openai" env:"GENERATOR"`
	GeneratorKey     string `help:"API key for the completion provider." default:"" env:"OPENROUTER_API_KEY,OPENAI_API_KEY,ANTHROPIC_API_KEY,GEMINI_API_KEY"`
	GeneratorModel   string `help:"Completion model identifier." default:"mistralai/devstral-2512:free" env:"LLM_MODEL"`
	GeneratorBaseURL string `help:"Base URL of an OpenAI-compatible completion endpoint." default:"https://openrouter.ai/api/v1" env:"LLM_BASE_URL"`
	GeneratorName    string `help:"Provider label reported in usage." default:"openrouter" env:"LLM_PROVIDER"`

	// Orchestrator config
	RateLimit      int           `help:"Chat requests allowed per client per window." default:"10" env:"RATE_LIMIT"`
	RateWindow     time.Duration `help:"Admission window." default:"60s" env:"RATE_LIMIT_WINDOW"`
	RequestTimeout time.Duration `help:"Upper bound for one chat request." default:"60s" env:"REQUEST_TIMEOUT"`

	Serve ServeCmd `cmd:"" default:"1" help:"Serve the chat API."`
	Check CheckCmd `cmd:"" help:"Validate the collection and ping storage."`
	Chat  ChatCmd  `cmd:"" help:"Chat with the tutor from the terminal."`
}

func (c *Config) chatOptions() []chat.Option {
	return []chat.Option{
		chat.WithRateLimit(c.RateLimit, c.RateWindow),
		chat.WithTimeout(c.RequestTimeout),
	}
}

func buildEmbedder(c *Config) embedder.Embedder {
	opts := []embedder.Option{
		embedder.WithApiKey(c.EmbedderKey),
	}
	if len(c.EmbedderModel) > 0 {
		opts = append(opts, embedder.WithModel(c.EmbedderModel))
	}

	switch c.Embedder {
	case "openai":
		opts = append(opts, embedder.WithDimension(c.EmbedderDimension))
		if len(c.EmbedderBaseURL) > 0 {
			opts = append(opts, embedder.WithBaseURL(c.EmbedderBaseURL))
		}
		return openaiembedder.NewEmbedder(opts...)
	case "google":
		return googleembedder.NewEmbedder(opts...)
	default:
		opts = append(opts, fastembed.WithCacheDir(c.FastembedCacheDir))
		return fastembed.NewEmbedder(opts...)
	}
}

func buildVectorStorer(c *Config) storer.Storer {
	switch c.VectorStore {
	case "postgres":
		conn, err := sqldriver.Open(context.Background(), sqldriver.Postgres(), c.VectorLocation)
		if err != nil {
			slog.Warn("postgres vector store unreachable, retrieval will return no chunks", "error", err)
			return memory.NewStorer()
		}
		return pgvectorstorer.NewStorer(pgvectorstorer.WithDB(conn))
	case "memory":
		return memory.NewStorer()
	default:
		return qdrant.NewStorer(
			storer.WithLocation(c.VectorLocation),
			storer.WithApiKey(c.VectorKey),
			qdrant.WithTLS(c.VectorTLS),
		)
	}
}

// buildConversationStore falls back to memory-only history when the durable
// store cannot be reached at startup.
func buildConversationStore(c *Config) conversation.Store {
	durable, err := buildDurable(c)
	if err != nil {
		slog.Warn("durable conversation store unavailable, keeping history in memory", "store", c.Conversation, "error", err)
		return tiered.NewStore()
	}
	if durable == nil {
		return tiered.NewStore()
	}
	return tiered.NewStore(conversation.WithDurable(durable))
}

func buildDurable(c *Config) (convstorer.Storer, error) {
	ctx := context.Background()

	switch c.Conversation {
	case "postgres":
		conn, err := sqldriver.Open(ctx, sqldriver.Postgres(), c.ConversationLocation)
		if err != nil {
			return nil, err
		}
		return convpostgres.NewStorer(convstorer.WithDB(conn)), nil
	case "sqlite":
		conn, err := sqldriver.Open(ctx, sqldriver.SQLite(), c.ConversationLocation)
		if err != nil {
			return nil, err
		}
		conn.SetMaxOpenConns(1)
		return convsqlite.NewStorer(convstorer.WithDB(conn)), nil
	case "redis":
		redisOpts, err := goredis.ParseURL(c.ConversationLocation)
		if err != nil {
			return nil, err
		}
		s := convredis.NewStorer(convredis.WithClient(goredis.NewClient(redisOpts)))
		if err := s.Ping(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown conversation store %q", c.Conversation)
	}
}

func buildGenerator(c *Config) generator.Generator {
	opts := []generator.Option{
		generator.WithApiKey(c.GeneratorKey),
		generator.WithModel(c.GeneratorModel),
	}

	switch c.Generator {
	case "anthropic":
		return anthropicgenerator.NewGenerator(opts...)
	case "google":
		return googlegenerator.NewGenerator(opts...)
	default:
		opts = append(opts,
			generator.WithBaseURL(c.GeneratorBaseURL),
			openaigenerator.WithProviderName(c.GeneratorName),
		)
		return openaigenerator.NewGenerator(opts...)
	}
}

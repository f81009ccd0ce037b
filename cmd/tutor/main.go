package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/w-h-a/tutor"
	handler "github.com/w-h-a/tutor/internal/handler/http"
	"github.com/w-h-a/tutor/internal/logging"
	"github.com/w-h-a/tutor/server"
	httpserver "github.com/w-h-a/tutor/server/http"
)

type ServeCmd struct {
	Address        string   `help:"Address to listen on." default:":8000" env:"ADDRESS"`
	AllowedOrigins []string `help:"Origins allowed by CORS. Empty allows any." default:"" env:"ALLOWED_ORIGINS"`
	TrustProxy     bool     `help:"Take client addresses from X-Forwarded-For." default:"false" env:"TRUST_PROXY"`
}

func (s *ServeCmd) Run(cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := newTutor(cfg)

	status, err := t.Ensure(ctx)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "collection checked", "collection", status.Name, "dimension", status.Dimension, "points", status.Points, "reachable", status.Reachable)

	middleware := []func(h http.Handler) http.Handler{
		handler.Recovery(),
		handler.Logging,
		handler.CORS(nonEmpty(s.AllowedOrigins)),
	}
	if s.TrustProxy {
		middleware = append(middleware, handler.ProxyHeaders)
	}

	srv := httpserver.NewServer(
		server.WithName("tutor"),
		server.WithAddress(s.Address),
		httpserver.WithMiddleware(middleware...),
	)

	if err := srv.Handle(t.Handler()); err != nil {
		return err
	}

	if err := srv.Start(); err != nil {
		return err
	}

	<-ctx.Done()

	slog.Info("shutting down")

	return srv.Stop(context.Background())
}

type CheckCmd struct{}

func (c *CheckCmd) Run(cfg *Config) error {
	ctx := context.Background()

	t := newTutor(cfg)

	status, err := t.Ensure(ctx)
	if err != nil {
		fmt.Printf("collection %s: %v\n", cfg.Collection, err)
		return err
	}
	fmt.Printf("collection %s: dimension %d, %d points, created %t\n", status.Name, status.Dimension, status.Points, status.Created)

	var failed []string
	for name, check := range t.Checks() {
		if err := check(ctx); err != nil {
			fmt.Printf("%s: %v\n", name, err)
			failed = append(failed, name)
			continue
		}
		fmt.Printf("%s: ok\n", name)
	}

	if len(failed) > 0 {
		return fmt.Errorf("unhealthy: %s", strings.Join(failed, ", "))
	}

	return nil
}

type ChatCmd struct {
	SessionId     string `help:"Continue an existing session." default:""`
	ContextWindow int    `help:"Chunks retrieved per question." default:"5"`
}

func (c *ChatCmd) Run(cfg *Config) error {
	ctx := context.Background()

	t := newTutor(cfg)

	if _, err := t.Ensure(ctx); err != nil {
		return err
	}

	sessionId, err := t.CreateSession(ctx, c.SessionId)
	if err != nil {
		return err
	}

	fmt.Printf("Session %s. Type a question and press enter; an empty line quits.\n", sessionId)
	fmt.Println("Commands: /new starts a session, /sessions lists them, /forget deletes the current one.")

	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		input, err := reader.ReadString('\n')
		if err != nil && len(input) == 0 {
			return nil
		}
		input = strings.TrimSpace(input)
		if len(input) == 0 {
			fmt.Println("Goodbye!")
			return nil
		}

		switch input {
		case "/new":
			if sessionId, err = t.CreateSession(ctx, ""); err != nil {
				return err
			}
			fmt.Printf("Session %s.\n", sessionId)
			continue
		case "/sessions":
			for _, id := range t.ListSessionIds(ctx) {
				marker := " "
				if id == sessionId {
					marker = "*"
				}
				fmt.Printf("%s %s\n", marker, id)
			}
			continue
		case "/forget":
			if err := t.DeleteSession(ctx, sessionId); err != nil {
				fmt.Println("Error:", err)
				continue
			}
			if sessionId, err = t.CreateSession(ctx, ""); err != nil {
				return err
			}
			fmt.Printf("Forgot the previous session. Session %s.\n", sessionId)
			continue
		}

		rsp, err := t.Ask(ctx, "terminal", sessionId, input, c.ContextWindow)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}

		fmt.Println(rsp.Response)
		for _, s := range rsp.Sources {
			fmt.Printf("  [%.2f] %s (%s)\n", s.Score, s.Title, s.FilePath)
		}
		fmt.Println("---")
	}
}

func newTutor(cfg *Config) *tutor.Tutor {
	return tutor.New(
		buildEmbedder(cfg),
		buildVectorStorer(cfg),
		buildGenerator(cfg),
		buildConversationStore(cfg),
		cfg.Collection,
		cfg.chatOptions()...,
	)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); len(v) > 0 {
			out = append(out, v)
		}
	}
	return out
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "failed to load .env:", err)
	}

	var cfg Config

	kctx := kong.Parse(
		&cfg,
		kong.Name("tutor"),
		kong.Description("Retrieval-augmented chat over the Physical AI & Humanoid Robotics textbook."),
		kong.Configuration(kong.JSON, "tutor.json"),
		kong.UsageOnError(),
	)

	flush := logging.Install("tutor", cfg.LogFormat, cfg.LogLevel)
	defer flush()

	if err := kctx.Run(&cfg); err != nil {
		slog.Error("command failed", "command", kctx.Command(), "error", err)
		flush()
		os.Exit(1)
	}
}

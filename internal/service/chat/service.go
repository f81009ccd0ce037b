package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/w-h-a/tutor/conversation"
	"github.com/w-h-a/tutor/generator"
	"github.com/w-h-a/tutor/internal/fault"
	"github.com/w-h-a/tutor/internal/metrics"
	"github.com/w-h-a/tutor/internal/retry"
	"github.com/w-h-a/tutor/internal/sanitize"
	"github.com/w-h-a/tutor/internal/service/session"
	"github.com/w-h-a/tutor/retriever"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	entryMessage   = "message"
	entrySelection = "selection"
)

var tracer = otel.Tracer("github.com/w-h-a/tutor/internal/service/chat")

type Service struct {
	retriever retriever.Retriever
	generator generator.Generator
	store     conversation.Store
	sessions  *session.Service
	limiter   *limiter
	locks     *locks
	options   Options
}

// Admit records a request from origin, or rejects it with a rate limited
// fault when the origin already used its allowance for the current window.
func (s *Service) Admit(origin string) error {
	if s.limiter.Allow(origin) {
		return nil
	}

	metrics.AdmissionRejections.Inc()

	return fault.New(fault.KindRateLimited, "chat.Admit", "origin %s exceeded %d requests per %s", origin, s.options.RateLimit, s.options.RateWindow)
}

// HandleMessage answers one conversational turn. Only admission rejections,
// invalid input and configuration faults are returned as errors; any other
// failure yields a fallback result without sources.
func (s *Service) HandleMessage(ctx context.Context, req Request) (Result, error) {
	if err := s.Admit(req.Origin); err != nil {
		metrics.ChatRequests.WithLabelValues(entryMessage, fault.KindRateLimited.String()).Inc()
		return Result{}, err
	}

	if len(strings.TrimSpace(req.SessionId)) == 0 {
		return Result{}, fault.New(fault.KindInvalidInput, "chat.HandleMessage", "session id is required")
	}

	if len(strings.TrimSpace(req.Content)) == 0 {
		return Result{}, fault.New(fault.KindInvalidInput, "chat.HandleMessage", "content is required")
	}

	content := sanitize.Input(req.Content)
	window := sanitize.ContextWindow(req.ContextWindow)

	ctx, span := tracer.Start(ctx, "chat.HandleMessage")
	defer span.End()

	span.SetAttributes(
		attribute.String("session_id", req.SessionId),
		attribute.Int("context_window", window),
	)

	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	result, err := s.converse(ctx, req.SessionId, content, window)
	if err == nil {
		span.SetStatus(codes.Ok, "success")
		metrics.ChatRequests.WithLabelValues(entryMessage, "ok").Inc()
		return result, nil
	}

	kind := classify(ctx, err)

	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	metrics.ChatRequests.WithLabelValues(entryMessage, kind.String()).Inc()

	if kind == fault.KindConfiguration {
		slog.ErrorContext(ctx, "chat message rejected, configuration error", "session_id", req.SessionId, "error", err)
		return Result{}, err
	}

	slog.ErrorContext(ctx, "chat message failed, returning fallback", "session_id", req.SessionId, "kind", kind.String(), "error", err)

	return Result{
		SessionId: req.SessionId,
		Response:  fallbackText(kind),
		Sources:   []Source{},
		Query:     content,
	}, nil
}

// AnswerFromSelection answers a single question about highlighted text. It
// neither reads nor writes conversation history.
func (s *Service) AnswerFromSelection(ctx context.Context, req SelectionRequest) (SelectionResult, error) {
	if len(strings.TrimSpace(req.Content)) == 0 {
		return SelectionResult{}, fault.New(fault.KindInvalidInput, "chat.AnswerFromSelection", "content is required")
	}

	content := sanitize.Input(req.Content)
	window := sanitize.ContextWindow(req.ContextWindow)

	ctx, span := tracer.Start(ctx, "chat.AnswerFromSelection")
	defer span.End()

	span.SetAttributes(attribute.Int("context_window", window))

	ctx, cancel := context.WithTimeout(ctx, s.options.Timeout)
	defer cancel()

	chunks := s.retrieve(ctx, content, window)

	messages := buildPrompt(selectionInstruction, chunks, nil, 0, content)

	completion, err := s.complete(ctx, messages)
	if err == nil {
		span.SetStatus(codes.Ok, "success")
		metrics.ChatRequests.WithLabelValues(entrySelection, "ok").Inc()
		return SelectionResult{
			Response:        completion.Text,
			Sources:         preview(attributions(chunks)),
			SelectedText:    content,
			RetrievedChunks: len(chunks),
			Usage:           completion.Usage,
		}, nil
	}

	kind := classify(ctx, err)

	span.RecordError(err)
	span.SetStatus(codes.Error, kind.String())
	metrics.ChatRequests.WithLabelValues(entrySelection, kind.String()).Inc()

	if kind == fault.KindConfiguration {
		slog.ErrorContext(ctx, "selection question rejected, configuration error", "error", err)
		return SelectionResult{}, err
	}

	slog.ErrorContext(ctx, "selection question failed, returning fallback", "kind", kind.String(), "error", err)

	return SelectionResult{
		Response:     fallbackText(kind),
		Sources:      []Source{},
		SelectedText: content,
	}, nil
}

func (s *Service) CreateSession(ctx context.Context) (*session.Session, error) {
	return s.sessions.CreateSession(ctx, "")
}

func (s *Service) ListSessions(ctx context.Context) []string {
	return s.sessions.ListSessionIds(ctx)
}

func (s *Service) Session(ctx context.Context, sessionId string) (*session.Session, error) {
	sess, err := s.sessions.GetSession(ctx, sessionId)
	if err != nil {
		return nil, fault.Wrap(fault.KindNotFound, "chat.Session", err)
	}
	return sess, nil
}

// DeleteSession forgets a session and its in-process history once any turn
// in flight for it has finished. Durable rows are kept.
func (s *Service) DeleteSession(ctx context.Context, sessionId string) error {
	if _, err := s.Session(ctx, sessionId); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, sessionId)
	if err != nil {
		return fault.Wrap(fault.KindTimeout, "chat.DeleteSession", err)
	}
	defer unlock()

	if err := s.store.Clear(ctx, sessionId); err != nil {
		return fault.Wrap(fault.KindStorage, "chat.DeleteSession", err)
	}

	s.sessions.DeleteSession(ctx, sessionId)

	return nil
}

func (s *Service) History(ctx context.Context, sessionId string) ([]conversation.Message, error) {
	msgs, err := s.store.History(ctx, sessionId)
	if err != nil {
		return nil, fault.Wrap(fault.KindStorage, "chat.History", err)
	}
	return msgs, nil
}

func (s *Service) Summary(ctx context.Context, sessionId string) (Summary, error) {
	msgs, err := s.History(ctx, sessionId)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		SessionId:    sessionId,
		MessageCount: len(msgs),
		Messages:     msgs,
	}

	if len(msgs) > 0 {
		last := msgs[len(msgs)-1].CreatedAt
		summary.LastUpdated = &last
	}

	return summary, nil
}

// Clear forgets the in-process history of a session once any turn in flight
// for it has finished.
func (s *Service) Clear(ctx context.Context, sessionId string) error {
	unlock, err := s.locks.Lock(ctx, sessionId)
	if err != nil {
		return fault.Wrap(fault.KindTimeout, "chat.Clear", err)
	}
	defer unlock()

	if err := s.store.Clear(ctx, sessionId); err != nil {
		return fault.Wrap(fault.KindStorage, "chat.Clear", err)
	}

	return nil
}

func (s *Service) converse(ctx context.Context, sessionId string, content string, window int) (Result, error) {
	unlock, err := s.locks.Lock(ctx, sessionId)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindTimeout, "chat.lock", err)
	}
	defer unlock()

	if _, err := s.sessions.CreateSession(ctx, sessionId); err != nil {
		return Result{}, err
	}

	chunks := s.retrieve(ctx, content, window)

	history, err := s.store.History(ctx, sessionId)
	if err != nil {
		return Result{}, fault.Wrap(fault.KindStorage, "chat.history", err)
	}

	messages := buildPrompt(conversationInstruction, chunks, history, s.options.HistoryLimit, content)

	completion, err := s.complete(ctx, messages)
	if err != nil {
		return Result{}, err
	}

	sources := attributions(chunks)

	if err := s.store.Append(ctx, sessionId, conversation.RoleUser, content, sources); err != nil {
		return Result{}, fault.Wrap(fault.KindStorage, "chat.persist", err)
	}

	if err := s.store.Append(ctx, sessionId, conversation.RoleAssistant, completion.Text, sources); err != nil {
		return Result{}, fault.Wrap(fault.KindStorage, "chat.persist", err)
	}

	return Result{
		SessionId:       sessionId,
		Response:        completion.Text,
		Sources:         preview(sources),
		Query:           content,
		RetrievedChunks: len(chunks),
		Usage:           completion.Usage,
	}, nil
}

func (s *Service) retrieve(ctx context.Context, content string, window int) []retriever.Chunk {
	chunks := s.retriever.Retrieve(ctx, content, s.options.Collection, window)
	metrics.RetrievedChunks.Observe(float64(len(chunks)))
	return chunks
}

func (s *Service) complete(ctx context.Context, messages []generator.Message) (generator.Completion, error) {
	start := time.Now()

	var completion generator.Completion

	err := retry.Do(ctx, "chat.complete", s.options.Attempts, s.options.Backoff, fault.Retryable, func() error {
		var err error
		completion, err = s.generator.Generate(
			ctx,
			messages,
			generator.WithTemperature(s.options.Temperature),
			generator.WithMaxTokens(s.options.MaxTokens),
		)
		return err
	})

	provider := completion.Usage.Provider
	if len(provider) == 0 {
		provider = "unknown"
	}
	metrics.CompletionSeconds.WithLabelValues(provider).Observe(time.Since(start).Seconds())

	return completion, err
}

// classify reports an expired request deadline as a timeout whatever the
// failing call returned.
func classify(ctx context.Context, err error) fault.Kind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fault.KindTimeout
	}
	return fault.KindOf(err)
}

func New(
	re retriever.Retriever,
	ge generator.Generator,
	store conversation.Store,
	sessions *session.Service,
	opts ...Option,
) *Service {
	if re == nil || ge == nil || store == nil {
		detail := "chat service requires a retriever, a generator and a conversation store"
		slog.ErrorContext(context.Background(), detail)
		panic(detail)
	}

	if sessions == nil {
		sessions = session.New()
	}

	options := NewOptions(opts...)

	return &Service{
		retriever: re,
		generator: ge,
		store:     store,
		sessions:  sessions,
		limiter:   newLimiter(options.RateLimit, options.RateWindow, options.Now),
		locks:     newLocks(),
		options:   options,
	}
}

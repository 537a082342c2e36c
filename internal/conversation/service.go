package conversation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/clinicalopez/dashboard-api/internal/cache"
	obsmetrics "github.com/clinicalopez/dashboard-api/internal/observability/metrics"
	"github.com/clinicalopez/dashboard-api/internal/source"
	"github.com/clinicalopez/dashboard-api/pkg/logging"
)

var tracer = otel.Tracer("dashboard.internal.conversation")

const (
	// SourceName identifies the conversation log in results, logs and metrics.
	SourceName = "supabase"

	cacheKeyMessages = "raw:supabase:messages"

	listLimit = 100
)

// MessageStore reads the raw chat log. Both the Supabase REST client and the
// direct Postgres store satisfy it.
type MessageStore interface {
	FetchAllMessages(ctx context.Context) ([]Message, error)
	FetchSessionMessages(ctx context.Context, sessionID string) ([]Message, error)
}

// ConversationList is the conversations endpoint payload.
type ConversationList struct {
	Conversations []*Conversation `json:"conversations"`
	Total         int             `json:"total"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

// SessionMessage is one chat message in the session-detail payload, keeping
// the upstream's type/content field names for the UI.
type SessionMessage struct {
	ID      int64  `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// SessionDetail is the single-session endpoint payload.
type SessionDetail struct {
	SessionID     string           `json:"sessionId"`
	Messages      []SessionMessage `json:"messages"`
	TotalMessages int              `json:"totalMessages"`
}

// Service rebuilds conversation aggregates from the live message log on every
// call. No state survives between requests beyond the raw-fetch cache.
type Service struct {
	store   MessageStore
	cache   *cache.Cache
	metrics *obsmetrics.UpstreamMetrics
	logger  *logging.Logger
}

// NewService creates the conversation service. store may be nil when the
// conversation log is not configured; every method then fails with
// source.ErrNotConfigured.
func NewService(store MessageStore, c *cache.Cache, m *obsmetrics.UpstreamMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, cache: c, metrics: m, logger: logger.Component("conversation")}
}

// LoadMessages fetches the full message log, memoized through the short-TTL
// cache. A failed fetch yields a failed Result that still carries whatever
// pages arrived before the failure.
func (s *Service) LoadMessages(ctx context.Context) source.Result[[]Message] {
	if s.store == nil {
		return source.Fail[[]Message](SourceName, source.ErrNotConfigured)
	}

	var cached []Message
	if s.cache.GetJSON(ctx, cacheKeyMessages, &cached) {
		return source.OK(cached)
	}

	start := time.Now()
	messages, err := s.store.FetchAllMessages(ctx)
	s.metrics.ObserveFetch(SourceName, err != nil, time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("message fetch failed, continuing with partial data",
			"error", err, "messages", len(messages))
		return source.Result[[]Message]{Value: messages, Err: &source.FetchError{Source: SourceName, Err: err}}
	}

	s.cache.SetJSON(ctx, cacheKeyMessages, messages)
	return source.OK(messages)
}

// LoadConversations aggregates the full log into test-filtered conversations.
// Fetch failures degrade to whatever data arrived; only a missing
// configuration is returned as an error.
func (s *Service) LoadConversations(ctx context.Context) ([]*Conversation, error) {
	ctx, span := tracer.Start(ctx, "conversation.load")
	defer span.End()

	result := s.LoadMessages(ctx)
	if result.Failed() && errors.Is(result.Err, source.ErrNotConfigured) {
		return nil, fmt.Errorf("conversation log %w", source.ErrNotConfigured)
	}
	return FilterTestAccounts(Aggregate(result.Value)), nil
}

// ListConversations builds the conversations endpoint payload: most active
// sessions first, capped for display, with the total over the full set.
func (s *Service) ListConversations(ctx context.Context) (*ConversationList, error) {
	conversations, err := s.LoadConversations(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(conversations, func(i, j int) bool {
		if conversations[i].MessageCount != conversations[j].MessageCount {
			return conversations[i].MessageCount > conversations[j].MessageCount
		}
		return conversations[i].SessionID < conversations[j].SessionID
	})

	total := len(conversations)
	if len(conversations) > listLimit {
		conversations = conversations[:listLimit]
	}
	return &ConversationList{
		Conversations: conversations,
		Total:         total,
		LastUpdated:   time.Now().UTC(),
	}, nil
}

// SessionDetail returns the full transcript of one session.
func (s *Service) SessionDetail(ctx context.Context, sessionID string) (*SessionDetail, error) {
	if s.store == nil {
		return nil, fmt.Errorf("conversation log %w", source.ErrNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "conversation.session_detail")
	defer span.End()

	start := time.Now()
	messages, err := s.store.FetchSessionMessages(ctx, sessionID)
	s.metrics.ObserveFetch(SourceName, err != nil, time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("conversation: session %s: %w", sessionID, err)
	}

	detail := &SessionDetail{
		SessionID: sessionID,
		Messages:  make([]SessionMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		detail.Messages = append(detail.Messages, SessionMessage{
			ID:      msg.ID,
			Type:    msg.Role,
			Content: msg.Text,
		})
	}
	detail.TotalMessages = len(detail.Messages)
	return detail, nil
}

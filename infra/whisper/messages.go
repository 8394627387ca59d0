package whisper

import (
	"context"
	"fmt"
	"strconv"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/infra/normalize"
)

// messageService implements app.MessageService using the WhisperNet API.
type messageService struct {
	client *Client
}

// NewMessageService creates a MessageService backed by the REST API.
func NewMessageService(client *Client) *messageService {
	return &messageService{client: client}
}

func (s *messageService) ListMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	v, err := s.client.Resolve(ctx, IntentListMessages, Params{
		"limit": strconv.Itoa(limit),
		"sort":  string(app.SortNewest),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("listing whispers: %w", err)
	}
	msgs, err := normalize.Messages(v)
	if err != nil {
		return nil, fmt.Errorf("listing whispers: %w", err)
	}
	return msgs, nil
}

func (s *messageService) SearchMessages(ctx context.Context, term string, limit int) ([]domain.Message, error) {
	v, err := s.client.Resolve(ctx, IntentSearchMessages, Params{
		"q":     term,
		"limit": strconv.Itoa(limit),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("searching whispers: %w", err)
	}
	msgs, err := normalize.Messages(v)
	if err != nil {
		return nil, fmt.Errorf("searching whispers: %w", err)
	}
	return msgs, nil
}

func (s *messageService) CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error) {
	draft, err := draft.Validate()
	if err != nil {
		return domain.Message{}, err
	}
	tags := draft.Tags
	if tags == nil {
		tags = []string{}
	}
	v, err := s.client.Resolve(ctx, IntentCreateMessage, nil, map[string]any{
		"content":     draft.Content,
		"tags":        tags,
		"mode":        draft.Mode,
		"is_approved": draft.InitialModeration(),
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("posting whisper: %w", err)
	}
	raw, err := normalize.Object(v, "message", "post")
	if err != nil {
		return domain.Message{}, fmt.Errorf("posting whisper: %w", err)
	}
	if !normalize.HasID(raw) {
		return domain.Message{}, fmt.Errorf("posting whisper: %w: response has no id", domain.ErrParse)
	}
	msg := normalize.Message(raw)
	if _, ok := raw["mode"]; !ok {
		msg.Mode = draft.Mode
	}
	if _, ok := raw["is_approved"]; !ok {
		msg.Status = draft.InitialModeration()
	}
	if msg.Content == "" {
		msg.Content = draft.Content
	}
	if len(msg.Tags) == 0 {
		msg.Tags = draft.Tags
	}
	return msg, nil
}

func (s *messageService) LikeMessage(ctx context.Context, id string, like bool) (app.LikeResult, error) {
	v, err := s.client.Resolve(ctx, IntentLikeMessage, Params{"id": id}, map[string]any{"like": like})
	if err != nil {
		return app.LikeResult{}, fmt.Errorf("liking whisper: %w", err)
	}
	n, ok := normalize.LikeCount(v)
	return app.LikeResult{LikesCount: n, Authoritative: ok}, nil
}

func (s *messageService) ReportMessage(ctx context.Context, id, reason string) error {
	if reason == "" {
		reason = "user_report"
	}
	if _, err := s.client.Resolve(ctx, IntentReportMessage, Params{"id": id}, map[string]any{"reason": reason}); err != nil {
		return fmt.Errorf("reporting whisper: %w", err)
	}
	return nil
}

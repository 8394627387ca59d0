package whisper

import (
	"context"
	"fmt"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/infra/normalize"
)

// commentService implements app.CommentService using the WhisperNet API.
type commentService struct {
	client *Client
}

// NewCommentService creates a CommentService backed by the REST API.
func NewCommentService(client *Client) *commentService {
	return &commentService{client: client}
}

func (s *commentService) ListComments(ctx context.Context, messageID string) ([]domain.Comment, error) {
	v, err := s.client.Resolve(ctx, IntentListComments, Params{"post": messageID}, nil)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}
	comments, err := normalize.Comments(v)
	if err != nil {
		return nil, fmt.Errorf("loading comments: %w", err)
	}
	for i := range comments {
		if comments[i].MessageID == "" {
			comments[i].MessageID = messageID
		}
	}
	return comments, nil
}

func (s *commentService) CreateComment(ctx context.Context, draft domain.CommentDraft) (domain.Comment, error) {
	draft, err := draft.Validate()
	if err != nil {
		return domain.Comment{}, err
	}
	body := map[string]any{
		"content": draft.Content,
		"post_id": draft.MessageID,
	}
	if draft.ParentID != "" {
		body["parent_id"] = draft.ParentID
	} else {
		body["parent_id"] = nil
	}
	v, err := s.client.Resolve(ctx, IntentCreateComment, Params{"post": draft.MessageID}, body)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("posting comment: %w", err)
	}
	raw, err := normalize.Object(v, "comment")
	if err != nil {
		return domain.Comment{}, fmt.Errorf("posting comment: %w", err)
	}
	if !normalize.HasID(raw) {
		return domain.Comment{}, fmt.Errorf("posting comment: %w: response has no id", domain.ErrParse)
	}
	c := normalize.Comment(raw)
	if c.MessageID == "" {
		c.MessageID = draft.MessageID
	}
	if c.ParentID == "" {
		c.ParentID = draft.ParentID
	}
	if c.Content == "" {
		c.Content = draft.Content
	}
	return c, nil
}

func (s *commentService) LikeComment(ctx context.Context, id string, like bool) (app.LikeResult, error) {
	v, err := s.client.Resolve(ctx, IntentLikeComment, Params{"id": id}, map[string]any{"like": like})
	if err != nil {
		return app.LikeResult{}, fmt.Errorf("liking comment: %w", err)
	}
	n, ok := normalize.LikeCount(v)
	return app.LikeResult{LikesCount: n, Authoritative: ok}, nil
}

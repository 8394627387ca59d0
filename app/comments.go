package app

import (
	"context"

	"github.com/CrestNiraj12/whispernet/domain"
)

// CommentService reads and writes the reply tree of a whisper.
type CommentService interface {
	// ListComments returns the top-level comments of a whisper with nested replies.
	ListComments(ctx context.Context, messageID string) ([]domain.Comment, error)

	// CreateComment posts a comment, or a reply when draft.ParentID is set.
	CreateComment(ctx context.Context, draft domain.CommentDraft) (domain.Comment, error)

	// LikeComment records like (true) or unlike (false) intent.
	LikeComment(ctx context.Context, id string, like bool) (LikeResult, error)
}

package app

import (
	"context"

	"github.com/CrestNiraj12/whispernet/domain"
)

// SortOrder is the ordering of the feed.
type SortOrder string

const (
	SortNewest    SortOrder = "-created_date"
	SortMostLiked SortOrder = "-likes_count"
)

// LikeResult is the server's answer to a like toggle.
type LikeResult struct {
	// LikesCount is only meaningful when Authoritative is set.
	LikesCount    int
	Authoritative bool
}

// MessageService lists, publishes and reacts to whispers.
type MessageService interface {
	// ListMessages returns the newest whispers, at most limit.
	ListMessages(ctx context.Context, limit int) ([]domain.Message, error)

	// SearchMessages returns whispers matching term.
	SearchMessages(ctx context.Context, term string, limit int) ([]domain.Message, error)

	// CreateMessage publishes a validated draft.
	CreateMessage(ctx context.Context, draft domain.MessageDraft) (domain.Message, error)

	// LikeMessage records like (true) or unlike (false) intent.
	LikeMessage(ctx context.Context, id string, like bool) (LikeResult, error)

	// ReportMessage flags a whisper for moderation.
	ReportMessage(ctx context.Context, id, reason string) error
}

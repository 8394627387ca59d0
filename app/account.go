package app

import (
	"context"

	"github.com/CrestNiraj12/whispernet/domain"
)

// AccountService provides identity, profile and leaderboard data.
type AccountService interface {
	// CurrentProfile returns the profile of the authenticated user.
	CurrentProfile(ctx context.Context) (domain.Profile, error)

	// Profiles resolves display profiles for the given user IDs.
	// Missing users are simply absent from the result.
	Profiles(ctx context.Context, userIDs []string) (map[string]domain.Profile, error)

	// Leaderboard returns ranking rows, highest score first.
	Leaderboard(ctx context.Context) ([]domain.RankingEntry, error)
}

// Snapshots keeps the last successfully loaded dataset per load kind.
type Snapshots interface {
	Save(ctx context.Context, kind, key string, v any) error
	Load(ctx context.Context, kind, key string, v any) (bool, error)
}

// FallbackData is the bundled dataset shown when neither the backend nor a
// snapshot can serve a load.
type FallbackData interface {
	Messages() []domain.Message
	Comments(messageID string) []domain.Comment
	Rankings() []domain.RankingEntry
}

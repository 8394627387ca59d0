package whisper

import (
	"time"

	"github.com/CrestNiraj12/whispernet/domain"
)

// Fallback is the bundled dataset shown when the backend is unreachable and
// no snapshot exists. Timestamps are relative to the moment of the call.
type Fallback struct {
	now func() time.Time
}

// NewFallback returns the bundled dataset.
func NewFallback() *Fallback {
	return &Fallback{now: time.Now}
}

// DefaultProfile is the identity used by offline demos.
var DefaultProfile = domain.Profile{UserID: "user1", DisplayName: "KindPanda"}

func (f *Fallback) Messages() []domain.Message {
	now := f.now()
	return []domain.Message{
		{
			ID:            "1",
			UserID:        "user1",
			Author:        "KindPanda",
			WhisperID:     domain.WhisperLabel(1),
			Content:       "Remember: every small act of kindness creates a ripple effect. Today, hold the door for someone, smile at a stranger, or simply listen. You never know whose day you might change!",
			Mode:          domain.ModePositive,
			Status:        domain.ModerationApproved,
			Tags:          []string{"kindness", "motivation"},
			LikesCount:    24,
			CommentsCount: 5,
			CreatedAt:     now.Add(-time.Hour),
		},
		{
			ID:            "2",
			UserID:        "user2",
			Author:        "BraveDolphin",
			WhisperID:     domain.WhisperLabel(2),
			Content:       "Just finished my first 5K run! Six months ago I couldn't run for 2 minutes. Progress isn't always visible day-to-day, but looking back, the change is incredible. Keep going!",
			Mode:          domain.ModePositive,
			Status:        domain.ModerationApproved,
			Tags:          []string{"fitness", "progress"},
			LikesCount:    45,
			CommentsCount: 12,
			CreatedAt:     now.Add(-2 * time.Hour),
		},
		{
			ID:            "3",
			UserID:        "user3",
			Author:        "GentleOwl",
			WhisperID:     domain.WhisperLabel(3),
			Content:       "Hot take: pineapple on pizza is actually amazing and I'm tired of pretending it's not",
			Mode:          domain.ModeUnhinged,
			Status:        domain.ModerationApproved,
			Tags:          []string{"unpopular-opinion", "food"},
			LikesCount:    67,
			CommentsCount: 34,
			CreatedAt:     now.Add(-3 * time.Hour),
		},
	}
}

func (f *Fallback) Comments(messageID string) []domain.Comment {
	now := f.now()
	return []domain.Comment{
		{
			ID:         "c1",
			MessageID:  messageID,
			Author:     "HappyFox",
			Content:    "This is so inspiring! Thank you for sharing",
			LikesCount: 5,
			CreatedAt:  now.Add(-30 * time.Minute),
		},
		{
			ID:         "c2",
			MessageID:  messageID,
			Author:     "CalmRabbit",
			Content:    "Needed to hear this today!",
			LikesCount: 3,
			CreatedAt:  now.Add(-time.Hour),
		},
	}
}

// Rankings derives the leaderboard from the bundled whispers.
func (f *Fallback) Rankings() []domain.RankingEntry {
	return domain.DeriveRankings(f.Messages())
}

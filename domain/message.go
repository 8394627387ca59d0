package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the character limit of a whisper.
const MaxMessageLength = 280

// Mode is the display mode a whisper was posted in.
type Mode string

const (
	ModePositive Mode = "positive"
	ModeUnhinged Mode = "unhinged"
)

// Moderation is the review state of a whisper.
type Moderation string

const (
	ModerationPending  Moderation = "pending"
	ModerationApproved Moderation = "approved"
	ModerationRejected Moderation = "rejected"
)

// Message is a single whisper.
type Message struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	Author        string     `json:"username"`
	WhisperID     string     `json:"whisper_id"`
	Content       string     `json:"content"`
	Mode          Mode       `json:"mode"`
	Status        Moderation `json:"is_approved"`
	Tags          []string   `json:"tags"`
	LikesCount    int        `json:"likes_count"`
	CommentsCount int        `json:"comments_count"`
	CreatedAt     time.Time  `json:"created_date"`

	// Client-only state, never sent or persisted.
	Liked    bool `json:"-"`
	Reported bool `json:"-"`
	Unsynced bool `json:"-"`
}

// EntityID implements the cache key contract.
func (m Message) EntityID() string { return m.ID }

// IsUnhinged reports whether the whisper is only shown in incognito mode.
func (m Message) IsUnhinged() bool { return m.Mode == ModeUnhinged }

// MessageDraft is the user input for a new whisper.
type MessageDraft struct {
	Content string
	Tags    []string
	Mode    Mode
}

// Validate trims the draft, normalizes its tags and checks the limits.
func (d MessageDraft) Validate() (MessageDraft, error) {
	d.Content = strings.TrimSpace(d.Content)
	if d.Content == "" {
		return d, ErrEmptyContent
	}
	if utf8.RuneCountInString(d.Content) > MaxMessageLength {
		return d, ErrContentTooLong
	}
	tags, err := NormalizeTags(d.Tags)
	if err != nil {
		return d, err
	}
	d.Tags = tags
	if d.Mode != ModeUnhinged {
		d.Mode = ModePositive
	}
	return d, nil
}

// InitialModeration is the status a freshly posted whisper starts with.
// Unhinged posts skip review; positive ones wait for a moderator.
func (d MessageDraft) InitialModeration() Moderation {
	if d.Mode == ModeUnhinged {
		return ModerationApproved
	}
	return ModerationPending
}

// WhisperLabel formats the public counter label of a whisper.
func WhisperLabel(n int) string {
	return fmt.Sprintf("Whispering #%04d", n)
}

// AdjustLikes applies a ±1 like delta, floored at zero.
func AdjustLikes(count int, liked bool) int {
	if liked {
		return count + 1
	}
	if count <= 0 {
		return 0
	}
	return count - 1
}

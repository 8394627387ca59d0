package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MaxCommentLength is the character limit of a comment or reply.
	MaxCommentLength = 500

	// TempIDPrefix marks identifiers minted locally for unconfirmed comments.
	TempIDPrefix = "temp-"

	// AnonymousAuthor is shown when no author name could be resolved.
	AnonymousAuthor = "Anonymous"
)

// Comment is a node in a message's reply tree.
type Comment struct {
	ID         string    `json:"id"`
	MessageID  string    `json:"post_id,omitempty"`
	ParentID   string    `json:"parent_id,omitempty"`
	Author     string    `json:"username"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_date"`
	Replies    []Comment `json:"replies"`

	Liked    bool `json:"-"`
	Unsynced bool `json:"-"`
}

// EntityID implements the cache key contract.
func (c Comment) EntityID() string { return c.ID }

// IsTemporary reports whether the comment has no confirmed server identifier.
func (c Comment) IsTemporary() bool { return IsTempID(c.ID) }

// IsTempID reports whether id was minted locally.
func IsTempID(id string) bool { return strings.HasPrefix(id, TempIDPrefix) }

// CommentDraft is the payload of a create-comment request.
type CommentDraft struct {
	MessageID string
	ParentID  string
	Content   string
}

// Validate trims the draft content and checks its length.
func (d CommentDraft) Validate() (CommentDraft, error) {
	d.Content = strings.TrimSpace(d.Content)
	if d.Content == "" {
		return d, ErrEmptyContent
	}
	if utf8.RuneCountInString(d.Content) > MaxCommentLength {
		return d, ErrContentTooLong
	}
	return d, nil
}

// CountComments returns the number of nodes in a comment forest.
func CountComments(tree []Comment) int {
	n := 0
	for _, c := range tree {
		n += 1 + CountComments(c.Replies)
	}
	return n
}

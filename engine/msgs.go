package engine

import (
	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/lifecycle"
)

// Source is where the data of a load came from.
type Source int

const (
	SourceServer Source = iota
	SourceSnapshot
	SourceFallback
	SourceLocal
)

func (s Source) String() string {
	switch s {
	case SourceServer:
		return "server"
	case SourceSnapshot:
		return "snapshot"
	case SourceFallback:
		return "offline"
	case SourceLocal:
		return "local"
	default:
		return "unknown"
	}
}

// Outcome reports what handling a message did to an engine.
type Outcome struct {
	// Handled is set when the message belonged to the engine, including
	// stale results that were dropped.
	Handled bool

	// Changed is set when the cache was modified.
	Changed bool

	// Err is a failure the user should hear about. Cancellation never
	// appears here.
	Err error

	// Advisory marks Err as non-blocking: data is still shown, just not
	// fresh from the server.
	Advisory bool

	Source Source
}

// Load results. Err is set only when nothing at all could be shown; a
// degraded load carries the failure in Advisory instead.

type FeedLoadedMsg struct {
	Ticket   lifecycle.Ticket
	Messages []domain.Message
	Source   Source
	Advisory error
	Err      error
}

type SearchLoadedMsg struct {
	Ticket   lifecycle.Ticket
	Term     string
	Messages []domain.Message
	Source   Source
	Advisory error
	Err      error
}

type ProfilesResolvedMsg struct {
	Ticket   lifecycle.Ticket
	Profiles map[string]domain.Profile
	Err      error
}

type CommentsLoadedMsg struct {
	Ticket    lifecycle.Ticket
	MessageID string
	Comments  []domain.Comment
	Source    Source
	Advisory  error
	Err       error
}

type RankingsLoadedMsg struct {
	Ticket   lifecycle.Ticket
	Entries  []domain.RankingEntry
	Source   Source
	Advisory error
	Err      error
}

type IdentityLoadedMsg struct {
	Profile domain.Profile
	Err     error
}

// Mutation results.

type MessageLikedMsg struct {
	Pending *Pending
	ID      string
	Result  app.LikeResult
	Err     error
}

type CommentLikedMsg struct {
	Pending   *Pending
	MessageID string
	ID        string
	Result    app.LikeResult
	Err       error
}

type CommentCreatedMsg struct {
	Pending   *Pending
	MessageID string
	TempID    string
	ParentID  string
	Comment   domain.Comment
	Err       error
}

type ReportedMsg struct {
	Pending *Pending
	ID      string
	Err     error
}

type MessageCreatedMsg struct {
	Draft   domain.MessageDraft
	Message domain.Message
	Err     error
}

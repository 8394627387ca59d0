package engine

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/lifecycle"
	"github.com/CrestNiraj12/whispernet/store"
)

// ThreadDeps are the collaborators of a Thread.
type ThreadDeps struct {
	Comments  app.CommentService
	Snapshots app.Snapshots    // optional
	Fallback  app.FallbackData // optional
	Session   *app.Session
	Lifecycle *lifecycle.Controller
}

// Thread owns the comment tree of one whisper.
type Thread struct {
	deps      ThreadDeps
	messageID string
	life      *lifecycle.Controller
	ledger    *Ledger
	cache     *store.Thread
	orphans   []domain.Comment
	source    Source
	now       func() time.Time
}

// NewThread creates the engine for the comments of messageID.
func NewThread(messageID string, deps ThreadDeps) *Thread {
	if deps.Lifecycle == nil {
		deps.Lifecycle = lifecycle.New(context.Background())
	}
	if deps.Session == nil {
		deps.Session = app.NewSession()
	}
	return &Thread{
		deps:      deps,
		messageID: messageID,
		life:      deps.Lifecycle,
		ledger:    NewLedger(),
		cache:     store.NewThread(messageID),
		now:       time.Now,
	}
}

// MessageID is the whisper the thread belongs to.
func (t *Thread) MessageID() string { return t.messageID }

// Rows returns the comments in display order.
func (t *Thread) Rows() []store.Row { return t.cache.Rows() }

// Find returns the comment id.
func (t *Thread) Find(id string) (domain.Comment, bool) { return t.cache.Find(id) }

// Count returns the number of comments including replies.
func (t *Thread) Count() int { return t.cache.Count() }

// Orphans are unsynced drafts whose parent disappeared on reload.
func (t *Thread) Orphans() []domain.Comment { return t.orphans }

// Source is where the current comments came from.
func (t *Thread) Source() Source { return t.source }

// Ledger exposes pending changes.
func (t *Thread) Ledger() *Ledger { return t.ledger }

func (t *Thread) loadKind() lifecycle.Kind {
	return lifecycle.Kind("comments:" + t.messageID)
}

// Load fetches the comments, superseding any load still running.
func (t *Thread) Load() tea.Cmd {
	tk := t.life.Begin(t.loadKind())
	svc, snaps, id := t.deps.Comments, t.deps.Snapshots, t.messageID
	var fallback []backup[[]domain.Comment]
	if fb := t.deps.Fallback; fb != nil {
		fallback = append(fallback, backup[[]domain.Comment]{source: SourceFallback, get: func() ([]domain.Comment, bool) {
			return fb.Comments(id), true
		}})
	}
	return func() tea.Msg {
		res := degradingLoad(tk.Ctx, snaps, snapComments, id, func(ctx context.Context) ([]domain.Comment, error) {
			return svc.ListComments(ctx, id)
		}, fallback...)
		return CommentsLoadedMsg{Ticket: tk, MessageID: id, Comments: res.data, Source: res.source, Advisory: res.advisory, Err: res.err}
	}
}

// Update handles the messages that belong to this thread.
func (t *Thread) Update(msg tea.Msg) (Outcome, tea.Cmd) {
	switch msg := msg.(type) {
	case CommentsLoadedMsg:
		if msg.MessageID != t.messageID {
			return Outcome{}, nil
		}
		return t.handleLoaded(msg), nil
	case CommentCreatedMsg:
		if msg.MessageID != t.messageID {
			return Outcome{}, nil
		}
		return t.handleCreated(msg), nil
	case CommentLikedMsg:
		if msg.MessageID != t.messageID {
			return Outcome{}, nil
		}
		return t.handleLiked(msg), nil
	}
	return Outcome{}, nil
}

func (t *Thread) handleLoaded(msg CommentsLoadedMsg) Outcome {
	if !t.life.Finish(msg.Ticket) || domain.IsCancelled(msg.Err) {
		return Outcome{Handled: true}
	}
	if msg.Err != nil {
		return Outcome{Handled: true, Err: msg.Err}
	}

	drafts := append(t.cache.Drafts(), t.orphans...)
	liked := t.likedState()
	t.cache.ReplaceAll(msg.Comments)
	t.orphans = nil
	for id, l := range liked {
		t.cache.Update(id, func(c *domain.Comment) {
			c.Liked = l.liked
			if l.inFlight {
				c.LikesCount = l.count
			}
		})
	}
	t.restoreDrafts(drafts)
	t.source = msg.Source

	out := Outcome{Handled: true, Changed: true, Source: msg.Source}
	if msg.Advisory != nil {
		out.Err, out.Advisory = msg.Advisory, true
	}
	return out
}

type likeState struct {
	liked    bool
	inFlight bool
	count    int
}

func (t *Thread) likedState() map[string]likeState {
	out := make(map[string]likeState)
	store.Walk(t.cache.Roots(), func(c domain.Comment, _ int) bool {
		inFlight := t.ledger.InFlight(likeKey("comment", c.ID))
		if c.Liked || inFlight {
			out[c.ID] = likeState{liked: c.Liked, inFlight: inFlight, count: c.LikesCount}
		}
		return true
	})
	return out
}

// restoreDrafts puts local comments back after a reload. Top-level drafts go
// first in their previous order; replies go back under their parent.
func (t *Thread) restoreDrafts(drafts []domain.Comment) {
	var roots []domain.Comment
	for _, d := range drafts {
		if t.cache.Contains(d.ID) {
			continue
		}
		if d.ParentID == "" {
			roots = append(roots, d)
			continue
		}
		if !t.cache.InsertReply(d.ParentID, d) {
			t.orphans = append(t.orphans, d)
		}
	}
	for i := len(roots) - 1; i >= 0; i-- {
		t.cache.Prepend(roots[i])
	}
}

// Submit posts a comment, or a reply when parentID is set. The comment shows
// immediately under a temporary id. A reply to a comment that is not in the
// thread is refused and leaves the tree untouched.
func (t *Thread) Submit(content, parentID string) (tea.Cmd, error) {
	profile, err := t.deps.Session.RequireIdentity()
	if err != nil {
		return nil, err
	}
	draft, err := domain.CommentDraft{MessageID: t.messageID, ParentID: parentID, Content: content}.Validate()
	if err != nil {
		return nil, err
	}
	if parentID != "" {
		parent, ok := t.cache.Find(parentID)
		if !ok {
			return nil, domain.ErrParentNotFound
		}
		if parent.IsTemporary() {
			return nil, domain.ErrNotSynced
		}
	}

	temp := domain.Comment{
		ID:        domain.TempIDPrefix + uuid.NewString(),
		MessageID: t.messageID,
		ParentID:  parentID,
		Author:    profile.Name(),
		Content:   draft.Content,
		CreatedAt: t.now(),
	}
	kind := KindCreateComment
	if parentID != "" {
		kind = KindCreateReply
	}
	p, ok := t.ledger.Speculate(createKey(temp.ID), temp.ID, kind, Delta{
		Apply: func() {
			if parentID == "" {
				t.cache.Prepend(temp)
				return
			}
			t.cache.InsertReply(parentID, temp)
		},
		Revert: t.markUnsynced(temp.ID, true),
	})
	if !ok {
		return nil, domain.ErrInFlight
	}
	return t.send(p, temp.ID, draft), nil
}

// Retry sends an unsynced draft again under the same temporary id.
func (t *Thread) Retry(tempID string) (tea.Cmd, error) {
	c, ok := t.cache.Find(tempID)
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	if !c.IsTemporary() || !c.Unsynced {
		return nil, nil
	}
	if _, err := t.deps.Session.RequireIdentity(); err != nil {
		return nil, err
	}
	draft, err := domain.CommentDraft{MessageID: t.messageID, ParentID: c.ParentID, Content: c.Content}.Validate()
	if err != nil {
		return nil, err
	}
	kind := KindCreateComment
	if c.ParentID != "" {
		kind = KindCreateReply
	}
	p, ok := t.ledger.Speculate(createKey(tempID), tempID, kind, Delta{
		Apply:  t.markUnsynced(tempID, false),
		Revert: t.markUnsynced(tempID, true),
	})
	if !ok {
		return nil, domain.ErrInFlight
	}
	return t.send(p, tempID, draft), nil
}

func (t *Thread) markUnsynced(id string, unsynced bool) func() {
	return func() {
		t.cache.Update(id, func(c *domain.Comment) { c.Unsynced = unsynced })
	}
}

func (t *Thread) send(p *Pending, tempID string, draft domain.CommentDraft) tea.Cmd {
	ctx, svc := t.life.Context(), t.deps.Comments
	return func() tea.Msg {
		c, err := svc.CreateComment(ctx, draft)
		return CommentCreatedMsg{Pending: p, MessageID: draft.MessageID, TempID: tempID, ParentID: draft.ParentID, Comment: c, Err: err}
	}
}

func (t *Thread) handleCreated(msg CommentCreatedMsg) Outcome {
	if msg.Err != nil {
		if !t.ledger.Rollback(msg.Pending) {
			return Outcome{Handled: true}
		}
		if domain.IsCancelled(msg.Err) {
			return Outcome{Handled: true, Changed: true}
		}
		log.Warn().Err(msg.Err).Str("temp_id", msg.TempID).Msg("comment not delivered, kept as unsynced draft")
		return Outcome{Handled: true, Changed: true, Err: fmt.Errorf("comment not posted: %w", msg.Err)}
	}
	committed := t.ledger.Commit(msg.Pending, func() {
		t.reconcile(msg)
	})
	return Outcome{Handled: true, Changed: committed}
}

// reconcile swaps the temporary node for the confirmed one in place. When
// the confirmed comment is already in the tree, for instance because a
// reload brought it in first, the temporary node is only removed.
func (t *Thread) reconcile(msg CommentCreatedMsg) {
	temp, hasTemp := t.cache.Find(msg.TempID)
	if !hasTemp {
		temp = t.orphan(msg.TempID)
	}
	confirmed := msg.Comment
	confirmed.Unsynced = false
	if confirmed.MessageID == "" {
		confirmed.MessageID = t.messageID
	}
	if confirmed.ParentID == "" {
		confirmed.ParentID = msg.ParentID
	}
	if confirmed.Author == "" || confirmed.Author == domain.AnonymousAuthor {
		confirmed.Author = temp.Author
	}
	if confirmed.Content == "" {
		confirmed.Content = temp.Content
	}

	if confirmed.ID != msg.TempID && t.cache.Contains(confirmed.ID) {
		if msg.ParentID != "" {
			t.cache.RemoveChild(msg.ParentID, msg.TempID)
		} else {
			t.cache.Remove(msg.TempID)
		}
		return
	}
	if hasTemp {
		t.cache.ReplaceNode(msg.TempID, confirmed)
		return
	}
	switch {
	case msg.ParentID == "":
		t.cache.Prepend(confirmed)
	case !t.cache.InsertReply(msg.ParentID, confirmed):
		log.Warn().Str("id", confirmed.ID).Msg("confirmed reply has no parent in view")
	}
}

func (t *Thread) orphan(id string) domain.Comment {
	for i, o := range t.orphans {
		if o.ID == id {
			t.orphans = append(t.orphans[:i], t.orphans[i+1:]...)
			return o
		}
	}
	return domain.Comment{}
}

// ToggleLike flips the liked state of a comment and sends the intent.
func (t *Thread) ToggleLike(id string) (tea.Cmd, error) {
	c, ok := t.cache.Find(id)
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	if c.IsTemporary() {
		return nil, domain.ErrNotSynced
	}
	liked := !c.Liked
	set := func(flag bool, count int) func() {
		return func() {
			t.cache.Update(id, func(n *domain.Comment) {
				n.Liked = flag
				n.LikesCount = count
			})
		}
	}
	p, ok := t.ledger.Speculate(likeKey("comment", id), id, likeKind(liked), Delta{
		Apply:  set(liked, domain.AdjustLikes(c.LikesCount, liked)),
		Revert: set(c.Liked, c.LikesCount),
	})
	if !ok {
		return nil, domain.ErrInFlight
	}
	ctx, svc, msgID := t.life.Context(), t.deps.Comments, t.messageID
	return func() tea.Msg {
		res, err := svc.LikeComment(ctx, id, liked)
		return CommentLikedMsg{Pending: p, MessageID: msgID, ID: id, Result: res, Err: err}
	}, nil
}

func (t *Thread) handleLiked(msg CommentLikedMsg) Outcome {
	if msg.Err != nil {
		if !t.ledger.Rollback(msg.Pending) {
			return Outcome{Handled: true}
		}
		if domain.IsCancelled(msg.Err) {
			return Outcome{Handled: true, Changed: true}
		}
		log.Warn().Err(msg.Err).Str("id", msg.ID).Msg("comment like failed, rolled back")
		return Outcome{Handled: true, Changed: true, Err: fmt.Errorf("like not saved: %w", msg.Err)}
	}
	committed := t.ledger.Commit(msg.Pending, func() {
		if msg.Result.Authoritative {
			count := max(msg.Result.LikesCount, 0)
			t.cache.Update(msg.ID, func(c *domain.Comment) { c.LikesCount = count })
		}
	})
	return Outcome{Handled: true, Changed: committed}
}

// Close cancels every outstanding request of the thread view.
func (t *Thread) Close() {
	t.life.Close()
	t.ledger.Reset()
}

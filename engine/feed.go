package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/lifecycle"
	"github.com/CrestNiraj12/whispernet/store"
)

const (
	feedKind     lifecycle.Kind = "feed"
	searchKind   lifecycle.Kind = "search"
	profilesKind lifecycle.Kind = "profiles"

	// TrendingSize is the number of whispers shown as trending.
	TrendingSize = 5
)

// ErrReportPending marks a report that is recorded locally but did not reach
// the server. The whisper keeps its reported marker and is flagged unsynced.
var ErrReportPending = errors.New("report saved locally but not delivered")

// FeedDeps are the collaborators of a Feed.
type FeedDeps struct {
	Messages  app.MessageService
	Accounts  app.AccountService // optional, resolves author names
	Snapshots app.Snapshots      // optional
	Fallback  app.FallbackData   // optional
	Session   *app.Session
	Lifecycle *lifecycle.Controller
	Limit     int
	Debounce  time.Duration
}

// Feed owns the whisper cache of the feed and search views.
type Feed struct {
	deps    FeedDeps
	life    *lifecycle.Controller
	ledger  *Ledger
	cache   *store.Collection[domain.Message]
	results *store.Collection[domain.Message]
	names   map[string]string

	source       Source
	query        string
	tag          string
	searchSource Source
}

// NewFeed creates a feed engine. A nil Lifecycle gets a background-scoped one.
func NewFeed(deps FeedDeps) *Feed {
	if deps.Lifecycle == nil {
		deps.Lifecycle = lifecycle.New(context.Background())
	}
	if deps.Session == nil {
		deps.Session = app.NewSession()
	}
	if deps.Limit <= 0 {
		deps.Limit = 50
	}
	if deps.Debounce <= 0 {
		deps.Debounce = lifecycle.DefaultDebounce
	}
	return &Feed{
		deps:    deps,
		life:    deps.Lifecycle,
		ledger:  NewLedger(),
		cache:   store.NewCollection[domain.Message](nil),
		results: store.NewCollection[domain.Message](nil),
		names:   make(map[string]string),
	}
}

// Lifecycle exposes the controller of the view, for child views.
func (f *Feed) Lifecycle() *lifecycle.Controller { return f.life }

// Ledger exposes pending changes, mainly for status display.
func (f *Feed) Ledger() *Ledger { return f.ledger }

// LikePending reports whether a like toggle of the whisper is unsettled.
func (f *Feed) LikePending(id string) bool { return f.ledger.InFlight(likeKey("message", id)) }

// Source is where the current feed content came from.
func (f *Feed) Source() Source { return f.source }

// Get returns the cached whisper id from the feed or the search results.
func (f *Feed) Get(id string) (domain.Message, bool) {
	if m, ok := f.cache.Get(id); ok {
		return m, true
	}
	return f.results.Get(id)
}

// All returns every cached whisper, unfiltered, in load order.
func (f *Feed) All() []domain.Message { return f.cache.All() }

// Load fetches the feed, degrading to the snapshot or bundled data on failure.
func (f *Feed) Load() tea.Cmd {
	t := f.life.Begin(feedKind)
	svc, snaps, limit := f.deps.Messages, f.deps.Snapshots, f.deps.Limit
	var fallback []backup[[]domain.Message]
	if fb := f.deps.Fallback; fb != nil {
		fallback = append(fallback, backup[[]domain.Message]{source: SourceFallback, get: func() ([]domain.Message, bool) {
			return fb.Messages(), true
		}})
	}
	return func() tea.Msg {
		res := degradingLoad(t.Ctx, snaps, snapFeed, "", func(ctx context.Context) ([]domain.Message, error) {
			return svc.ListMessages(ctx, limit)
		}, fallback...)
		return FeedLoadedMsg{Ticket: t, Messages: res.data, Source: res.source, Advisory: res.advisory, Err: res.err}
	}
}

// Update handles the messages that belong to the feed.
func (f *Feed) Update(msg tea.Msg) (Outcome, tea.Cmd) {
	switch msg := msg.(type) {
	case FeedLoadedMsg:
		return f.handleLoaded(msg)
	case ProfilesResolvedMsg:
		return f.handleProfiles(msg), nil
	case lifecycle.DebouncedMsg:
		if msg.Kind != searchKind {
			return Outcome{}, nil
		}
		if !f.life.Due(msg) {
			return Outcome{Handled: true}, nil
		}
		return Outcome{Handled: true}, f.runSearch()
	case SearchLoadedMsg:
		return f.handleSearch(msg), nil
	case MessageLikedMsg:
		return f.handleLiked(msg), nil
	case ReportedMsg:
		return f.handleReported(msg), nil
	case MessageCreatedMsg:
		return f.handleCreated(msg), nil
	case CommentCreatedMsg:
		if msg.Err == nil && msg.Pending != nil {
			changed := f.AdjustCommentCount(msg.MessageID, 1)
			return Outcome{Handled: true, Changed: changed}, nil
		}
	}
	return Outcome{}, nil
}

func (f *Feed) handleLoaded(msg FeedLoadedMsg) (Outcome, tea.Cmd) {
	if !f.life.Finish(msg.Ticket) || domain.IsCancelled(msg.Err) {
		return Outcome{Handled: true}, nil
	}
	if msg.Err != nil {
		return Outcome{Handled: true, Err: msg.Err}, nil
	}

	f.cache.ReplaceAll(f.mergeLocal(msg.Messages))
	f.source = msg.Source
	out := Outcome{Handled: true, Changed: true, Source: msg.Source}
	if msg.Advisory != nil {
		out.Err, out.Advisory = msg.Advisory, true
	}
	if msg.Source == SourceServer {
		return out, f.resolveProfiles()
	}
	return out, nil
}

// mergeLocal carries client-only state over a fresh load: liked and
// reported markers, in-flight like counts and resolved author names.
func (f *Feed) mergeLocal(incoming []domain.Message) []domain.Message {
	out := make([]domain.Message, len(incoming))
	for i, m := range incoming {
		if prev, ok := f.cache.Get(m.ID); ok {
			m.Liked = prev.Liked
			m.Reported = m.Reported || prev.Reported
			m.Unsynced = prev.Unsynced
			if f.ledger.InFlight(likeKey("message", m.ID)) {
				m.LikesCount = prev.LikesCount
			}
		}
		if name, ok := f.names[m.UserID]; ok && m.UserID != "" {
			m.Author = name
		}
		out[i] = m
	}
	return out
}

func (f *Feed) resolveProfiles() tea.Cmd {
	accounts := f.deps.Accounts
	if accounts == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	for _, m := range f.cache.All() {
		if m.UserID == "" {
			continue
		}
		if _, ok := seen[m.UserID]; ok {
			continue
		}
		seen[m.UserID] = struct{}{}
		ids = append(ids, m.UserID)
	}
	if len(ids) == 0 {
		return nil
	}
	t := f.life.Begin(profilesKind)
	return func() tea.Msg {
		profiles, err := accounts.Profiles(t.Ctx, ids)
		return ProfilesResolvedMsg{Ticket: t, Profiles: profiles, Err: err}
	}
}

func (f *Feed) handleProfiles(msg ProfilesResolvedMsg) Outcome {
	if !f.life.Finish(msg.Ticket) {
		return Outcome{Handled: true}
	}
	if msg.Err != nil && !domain.IsCancelled(msg.Err) {
		log.Warn().Err(msg.Err).Msg("profile resolution failed")
	}
	changed := false
	for id, p := range msg.Profiles {
		name := p.DisplayName
		if name == "" {
			name = p.Username
		}
		if name == "" {
			continue
		}
		f.names[id] = name
	}
	rename := func(m *domain.Message) {
		if name, ok := f.names[m.UserID]; ok && m.Author != name {
			m.Author = name
			changed = true
		}
	}
	for _, m := range f.cache.All() {
		f.cache.Upsert(m.ID, rename)
	}
	for _, m := range f.results.All() {
		f.results.Upsert(m.ID, rename)
	}
	return Outcome{Handled: true, Changed: changed}
}

// Visible returns the whispers the feed shows: unhinged ones only in
// incognito mode, rejected ones never, ordered by sort.
func (f *Feed) Visible(order app.SortOrder) []domain.Message {
	return f.visible(f.cache.All(), order)
}

func (f *Feed) visible(all []domain.Message, order app.SortOrder) []domain.Message {
	incognito := f.deps.Session.Incognito()
	out := make([]domain.Message, 0, len(all))
	for _, m := range all {
		if m.Status == domain.ModerationRejected {
			continue
		}
		if m.IsUnhinged() && !incognito {
			continue
		}
		out = append(out, m)
	}
	SortMessages(out, order)
	return out
}

// SortMessages orders whispers in place. Ties keep their order.
func SortMessages(msgs []domain.Message, order app.SortOrder) {
	switch order {
	case app.SortMostLiked:
		sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].LikesCount > msgs[j].LikesCount })
	case app.SortNewest:
		sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt.After(msgs[j].CreatedAt) })
	}
}

// Trending returns the most liked visible whispers.
func (f *Feed) Trending() []domain.Message {
	top := f.Visible(app.SortMostLiked)
	if len(top) > TrendingSize {
		top = top[:TrendingSize]
	}
	return top
}

// Tags returns every tag of the visible whispers, sorted.
func (f *Feed) Tags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, m := range f.Visible("") {
		for _, t := range m.Tags {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// AdjustCommentCount changes the comment count of a cached whisper.
func (f *Feed) AdjustCommentCount(messageID string, delta int) bool {
	bump := func(m *domain.Message) {
		m.CommentsCount += delta
		if m.CommentsCount < 0 {
			m.CommentsCount = 0
		}
	}
	a := f.cache.Upsert(messageID, bump)
	b := f.results.Upsert(messageID, bump)
	return a || b
}

// ToggleLike flips the liked state of a whisper and sends the intent.
// A toggle while the previous one is unsettled returns ErrInFlight and does
// nothing.
func (f *Feed) ToggleLike(id string) (tea.Cmd, error) {
	cur, ok := f.Get(id)
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	prevFeed, inFeed := f.cache.Get(id)
	prevRes, inRes := f.results.Get(id)
	liked := !cur.Liked

	set := func(c *store.Collection[domain.Message], present, flag bool, count int) {
		if !present {
			return
		}
		c.Upsert(id, func(m *domain.Message) {
			m.Liked = flag
			m.LikesCount = count
		})
	}
	p, ok := f.ledger.Speculate(likeKey("message", id), id, likeKind(liked), Delta{
		Apply: func() {
			set(f.cache, inFeed, liked, domain.AdjustLikes(prevFeed.LikesCount, liked))
			set(f.results, inRes, liked, domain.AdjustLikes(prevRes.LikesCount, liked))
		},
		Revert: func() {
			set(f.cache, inFeed, prevFeed.Liked, prevFeed.LikesCount)
			set(f.results, inRes, prevRes.Liked, prevRes.LikesCount)
		},
	})
	if !ok {
		return nil, domain.ErrInFlight
	}

	ctx, svc := f.life.Context(), f.deps.Messages
	return func() tea.Msg {
		res, err := svc.LikeMessage(ctx, id, liked)
		return MessageLikedMsg{Pending: p, ID: id, Result: res, Err: err}
	}, nil
}

func (f *Feed) handleLiked(msg MessageLikedMsg) Outcome {
	if msg.Err != nil {
		if !f.ledger.Rollback(msg.Pending) {
			return Outcome{Handled: true}
		}
		if domain.IsCancelled(msg.Err) {
			return Outcome{Handled: true, Changed: true}
		}
		log.Warn().Err(msg.Err).Str("id", msg.ID).Msg("like failed, rolled back")
		return Outcome{Handled: true, Changed: true, Err: fmt.Errorf("like not saved: %w", msg.Err)}
	}
	committed := f.ledger.Commit(msg.Pending, func() {
		if !msg.Result.Authoritative {
			return
		}
		count := msg.Result.LikesCount
		if count < 0 {
			count = 0
		}
		apply := func(m *domain.Message) { m.LikesCount = count }
		f.cache.Upsert(msg.ID, apply)
		f.results.Upsert(msg.ID, apply)
	})
	return Outcome{Handled: true, Changed: committed}
}

// Report flags a whisper. The reported marker shows immediately and stays
// even when delivery fails; a failed report is marked unsynced and can be
// sent again.
func (f *Feed) Report(id string) (tea.Cmd, error) {
	cur, ok := f.Get(id)
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	if cur.Reported && !cur.Unsynced {
		return nil, nil
	}
	mark := func(reported, unsynced bool) func() {
		return func() {
			patch := func(m *domain.Message) {
				m.Reported = reported
				m.Unsynced = unsynced
			}
			f.cache.Upsert(id, patch)
			f.results.Upsert(id, patch)
		}
	}
	p, ok := f.ledger.Speculate(reportKey(id), id, KindReport, Delta{
		Apply:  mark(true, false),
		Revert: mark(true, true),
	})
	if !ok {
		return nil, domain.ErrInFlight
	}
	ctx, svc := f.life.Context(), f.deps.Messages
	return func() tea.Msg {
		err := svc.ReportMessage(ctx, id, "user_report")
		return ReportedMsg{Pending: p, ID: id, Err: err}
	}, nil
}

func (f *Feed) handleReported(msg ReportedMsg) Outcome {
	if msg.Err == nil {
		return Outcome{Handled: true, Changed: f.ledger.Commit(msg.Pending, nil)}
	}
	if !f.ledger.Rollback(msg.Pending) {
		return Outcome{Handled: true}
	}
	if domain.IsCancelled(msg.Err) {
		return Outcome{Handled: true, Changed: true}
	}
	log.Warn().Err(msg.Err).Str("id", msg.ID).Msg("report not delivered")
	return Outcome{Handled: true, Changed: true, Err: fmt.Errorf("%w: %w", ErrReportPending, msg.Err)}
}

// CreateMessage publishes a whisper. #hashtags in content become tags and
// incognito mode posts in unhinged mode. The whisper appears once the
// server confirms it.
func (f *Feed) CreateMessage(content string) (tea.Cmd, error) {
	if _, err := f.deps.Session.RequireIdentity(); err != nil {
		return nil, err
	}
	text, tags := domain.SplitContentAndTags(content)
	mode := domain.ModePositive
	if f.deps.Session.Incognito() {
		mode = domain.ModeUnhinged
	}
	draft, err := domain.MessageDraft{Content: text, Tags: tags, Mode: mode}.Validate()
	if err != nil {
		return nil, err
	}
	ctx, svc := f.life.Context(), f.deps.Messages
	return func() tea.Msg {
		m, err := svc.CreateMessage(ctx, draft)
		return MessageCreatedMsg{Draft: draft, Message: m, Err: err}
	}, nil
}

func (f *Feed) handleCreated(msg MessageCreatedMsg) Outcome {
	if domain.IsCancelled(msg.Err) {
		return Outcome{Handled: true}
	}
	if msg.Err != nil {
		return Outcome{Handled: true, Err: fmt.Errorf("whisper not posted: %w", msg.Err)}
	}
	m := msg.Message
	if p, ok := f.deps.Session.Identity(); ok {
		if m.UserID == "" {
			m.UserID = p.UserID
		}
		if m.Author == "" || m.Author == domain.AnonymousAuthor {
			m.Author = p.Name()
		}
	}
	if m.WhisperID == "" {
		m.WhisperID = domain.WhisperLabel(f.cache.Len() + 1)
	}
	f.cache.Prepend(m)
	return Outcome{Handled: true, Changed: true, Source: SourceServer}
}

// Close cancels every outstanding request of the view.
func (f *Feed) Close() {
	f.life.Close()
	f.ledger.Reset()
}

// Query returns the current search term.
func (f *Feed) Query() string { return f.query }

// Tag returns the current tag filter.
func (f *Feed) Tag() string { return f.tag }

// SearchSource is where the current search results came from.
func (f *Feed) SearchSource() Source { return f.searchSource }

// SetQuery records the search term and restarts the debounce window. An
// empty term clears the results and cancels any outstanding search.
func (f *Feed) SetQuery(term string) tea.Cmd {
	f.query = strings.TrimSpace(term)
	f.tag = ""
	if f.query == "" {
		f.life.Cancel(searchKind)
		f.results.ReplaceAll(nil)
		return nil
	}
	return f.life.Debounce(searchKind, f.deps.Debounce)
}

// SearchNow starts the search for the current term without waiting.
func (f *Feed) SearchNow() tea.Cmd {
	if f.query == "" {
		return nil
	}
	return f.runSearch()
}

func (f *Feed) runSearch() tea.Cmd {
	t := f.life.Begin(searchKind)
	term, limit, svc := f.query, f.deps.Limit, f.deps.Messages
	local := f.cache.All()
	return func() tea.Msg {
		msgs, err := svc.SearchMessages(t.Ctx, term, limit)
		switch {
		case err == nil:
			return SearchLoadedMsg{Ticket: t, Term: term, Messages: msgs, Source: SourceServer}
		case domain.IsCancelled(err) || t.Ctx.Err() != nil:
			return SearchLoadedMsg{Ticket: t, Term: term, Err: cancelledErr(err)}
		default:
			return SearchLoadedMsg{Ticket: t, Term: term, Messages: FilterMessages(local, term), Source: SourceLocal, Advisory: err}
		}
	}
}

func (f *Feed) handleSearch(msg SearchLoadedMsg) Outcome {
	if !f.life.Finish(msg.Ticket) || domain.IsCancelled(msg.Err) || msg.Term != f.query {
		return Outcome{Handled: true}
	}
	if msg.Err != nil {
		return Outcome{Handled: true, Err: msg.Err}
	}
	f.results.ReplaceAll(f.mergeLocal(msg.Messages))
	f.searchSource = msg.Source
	out := Outcome{Handled: true, Changed: true, Source: msg.Source}
	if msg.Advisory != nil {
		log.Warn().Err(msg.Advisory).Str("term", msg.Term).Msg("search degraded to local filter")
		out.Err, out.Advisory = msg.Advisory, true
	}
	return out
}

// FilterTag shows the cached whispers carrying tag, cancelling any search.
func (f *Feed) FilterTag(tag string) {
	f.life.Cancel(searchKind)
	f.query = ""
	f.tag = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
	var out []domain.Message
	for _, m := range f.cache.All() {
		for _, t := range m.Tags {
			if t == f.tag {
				out = append(out, m)
				break
			}
		}
	}
	f.results.ReplaceAll(out)
	f.searchSource = SourceLocal
}

// Results returns the visible search results.
func (f *Feed) Results(order app.SortOrder) []domain.Message {
	return f.visible(f.results.All(), order)
}

// FilterMessages matches term against content, author and tags, ignoring case.
func FilterMessages(msgs []domain.Message, term string) []domain.Message {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []domain.Message
	for _, m := range msgs {
		if matches(m, term) {
			out = append(out, m)
		}
	}
	return out
}

func matches(m domain.Message, term string) bool {
	if strings.Contains(strings.ToLower(m.Content), term) || strings.Contains(strings.ToLower(m.Author), term) {
		return true
	}
	bare := strings.TrimPrefix(term, "#")
	for _, t := range m.Tags {
		if strings.Contains(t, bare) {
			return true
		}
	}
	return false
}

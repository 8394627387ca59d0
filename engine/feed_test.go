package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/lifecycle"
)

func seedMessages() []domain.Message {
	now := time.Now()
	return []domain.Message{
		{ID: "1", UserID: "u1", Author: "KindPanda", Mode: domain.ModePositive, Status: domain.ModerationApproved, LikesCount: 24, Tags: []string{"kindness"}, CreatedAt: now.Add(-time.Hour)},
		{ID: "2", UserID: "u2", Author: "BraveDolphin", Mode: domain.ModePositive, Status: domain.ModerationApproved, LikesCount: 45, Tags: []string{"fitness"}, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "3", UserID: "u3", Author: "GentleOwl", Mode: domain.ModeUnhinged, Status: domain.ModerationApproved, LikesCount: 67, Tags: []string{"food"}, CreatedAt: now.Add(-3 * time.Hour)},
	}
}

func newLoadedFeed(t *testing.T, svc *fakeMessages) *Feed {
	t.Helper()
	if svc.list == nil {
		svc.list = func(context.Context, int) ([]domain.Message, error) { return seedMessages(), nil }
	}
	f := NewFeed(FeedDeps{Messages: svc, Session: signedIn(), Debounce: time.Millisecond})
	out, _ := f.Update(f.Load()())
	require.True(t, out.Handled)
	require.NoError(t, out.Err)
	return f
}

func run(t *testing.T, cmd tea.Cmd, err error) tea.Msg {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, cmd)
	return cmd()
}

func TestToggleLike_SuccessSequenceTracksServerCount(t *testing.T) {
	server := 24
	svc := &fakeMessages{like: func(_ context.Context, _ string, like bool) (app.LikeResult, error) {
		if like {
			server++
		} else {
			server--
		}
		return app.LikeResult{LikesCount: server, Authoritative: true}, nil
	}}
	f := newLoadedFeed(t, svc)

	for i := 0; i < 5; i++ {
		cmd, err := f.ToggleLike("1")
		msg := run(t, cmd, err)
		out, _ := f.Update(msg)
		require.NoError(t, out.Err)
	}
	m, _ := f.Get("1")
	assert.True(t, m.Liked)
	assert.Equal(t, 25, m.LikesCount)
	assert.Equal(t, 0, f.Ledger().Len())
}

func TestToggleLike_ServerCountWins(t *testing.T) {
	svc := &fakeMessages{like: func(context.Context, string, bool) (app.LikeResult, error) {
		return app.LikeResult{LikesCount: 100, Authoritative: true}, nil
	}}
	f := newLoadedFeed(t, svc)

	cmd, err := f.ToggleLike("2")
	require.NoError(t, err)
	m, _ := f.Get("2")
	assert.Equal(t, 46, m.LikesCount, "optimistic +1 before settlement")

	f.Update(cmd())
	m, _ = f.Get("2")
	assert.Equal(t, 100, m.LikesCount)
	assert.True(t, m.Liked)
}

func TestToggleLike_FailureRestoresExactState(t *testing.T) {
	svc := &fakeMessages{like: func(context.Context, string, bool) (app.LikeResult, error) {
		return app.LikeResult{}, rejected(500)
	}}
	f := newLoadedFeed(t, svc)
	before, _ := f.Get("1")

	cmd, err := f.ToggleLike("1")
	require.NoError(t, err)
	during, _ := f.Get("1")
	assert.True(t, during.Liked)
	assert.Equal(t, before.LikesCount+1, during.LikesCount)

	out, _ := f.Update(cmd())
	require.Error(t, out.Err)
	assert.ErrorIs(t, out.Err, domain.ErrServerRejected)
	after, _ := f.Get("1")
	assert.Equal(t, before.Liked, after.Liked)
	assert.Equal(t, before.LikesCount, after.LikesCount)
}

func TestToggleLike_UnlikeNeverNegative(t *testing.T) {
	svc := &fakeMessages{
		list: func(context.Context, int) ([]domain.Message, error) {
			return []domain.Message{{ID: "z", Status: domain.ModerationApproved}}, nil
		},
		like: func(context.Context, string, bool) (app.LikeResult, error) { return app.LikeResult{}, nil },
	}
	f := newLoadedFeed(t, svc)
	f.cache.Upsert("z", func(m *domain.Message) { m.Liked = true })

	cmd, err := f.ToggleLike("z")
	run(t, cmd, err)
	m, _ := f.Get("z")
	assert.Equal(t, 0, m.LikesCount)
	assert.False(t, m.Liked)
}

func TestToggleLike_ReentrantCallIgnored(t *testing.T) {
	calls := 0
	svc := &fakeMessages{like: func(context.Context, string, bool) (app.LikeResult, error) {
		calls++
		return app.LikeResult{}, nil
	}}
	f := newLoadedFeed(t, svc)

	first, err := f.ToggleLike("1")
	require.NoError(t, err)
	second, err := f.ToggleLike("1")
	assert.ErrorIs(t, err, domain.ErrInFlight)
	assert.Nil(t, second)

	m, _ := f.Get("1")
	assert.Equal(t, 25, m.LikesCount, "second toggle must not stack")

	other, err := f.ToggleLike("2")
	require.NoError(t, err, "distinct entities are independent")

	f.Update(first())
	f.Update(other())
	assert.Equal(t, 2, calls)
	_, err = f.ToggleLike("1")
	assert.NoError(t, err, "settled entity accepts a new toggle")
}

func TestToggleLike_UnknownEntity(t *testing.T) {
	f := newLoadedFeed(t, &fakeMessages{})
	_, err := f.ToggleLike("nope")
	assert.ErrorIs(t, err, domain.ErrUnknownEntity)
}

func TestLoad_DegradesToSnapshotThenFallback(t *testing.T) {
	snaps := newMemSnapshots()
	fail := false
	svc := &fakeMessages{list: func(context.Context, int) ([]domain.Message, error) {
		if fail {
			return nil, networkErr()
		}
		return seedMessages()[:1], nil
	}}
	fb := staticFallback{messages: seedMessages()}
	f := NewFeed(FeedDeps{Messages: svc, Snapshots: snaps, Fallback: fb, Session: signedIn()})

	out, _ := f.Update(f.Load()())
	require.NoError(t, out.Err)
	assert.Equal(t, SourceServer, out.Source)

	fail = true
	out, _ = f.Update(f.Load()())
	assert.True(t, out.Advisory)
	assert.ErrorIs(t, out.Err, domain.ErrNetwork)
	assert.Equal(t, SourceSnapshot, out.Source)
	assert.Len(t, f.All(), 1)

	noSnap := NewFeed(FeedDeps{Messages: svc, Fallback: fb, Session: signedIn()})
	out, _ = noSnap.Update(noSnap.Load()())
	assert.True(t, out.Advisory)
	assert.Equal(t, SourceFallback, out.Source)
	assert.Len(t, noSnap.All(), 3)
}

func TestLoad_StaleResponseDiscarded(t *testing.T) {
	n := 0
	svc := &fakeMessages{list: func(context.Context, int) ([]domain.Message, error) {
		n++
		if n == 1 {
			return []domain.Message{{ID: "old"}}, nil
		}
		return []domain.Message{{ID: "new"}}, nil
	}}
	f := NewFeed(FeedDeps{Messages: svc, Session: signedIn()})

	first := f.Load()
	second := f.Load()
	oldMsg := first()
	newMsg := second()

	f.Update(newMsg)
	out, _ := f.Update(oldMsg)
	assert.True(t, out.Handled)
	assert.False(t, out.Changed)
	_, ok := f.Get("new")
	assert.True(t, ok)
	_, ok = f.Get("old")
	assert.False(t, ok)
}

func TestClose_DiscardsLateResults(t *testing.T) {
	svc := &fakeMessages{list: func(ctx context.Context, _ int) ([]domain.Message, error) {
		return seedMessages(), nil
	}}
	f := NewFeed(FeedDeps{Messages: svc, Session: signedIn()})
	cmd := f.Load()
	f.Close()

	out, _ := f.Update(cmd())
	assert.True(t, out.Handled)
	assert.NoError(t, out.Err)
	assert.Empty(t, f.All())
}

func TestReload_KeepsInFlightLikeAndReportedMarker(t *testing.T) {
	svc := &fakeMessages{
		like:   func(context.Context, string, bool) (app.LikeResult, error) { return app.LikeResult{}, nil },
		report: func(context.Context, string, string) error { return nil },
	}
	f := newLoadedFeed(t, svc)

	_, err := f.ToggleLike("1")
	require.NoError(t, err)
	reportCmd, err := f.Report("2")
	require.NoError(t, err)
	f.Update(reportCmd())

	f.Update(f.Load()())
	m1, _ := f.Get("1")
	assert.True(t, m1.Liked)
	assert.Equal(t, 25, m1.LikesCount)
	m2, _ := f.Get("2")
	assert.True(t, m2.Reported)
}

func TestReport_FailureKeepsMarkerAndMarksUnsynced(t *testing.T) {
	attempts := 0
	svc := &fakeMessages{report: func(context.Context, string, string) error {
		attempts++
		if attempts == 1 {
			return networkErr()
		}
		return nil
	}}
	f := newLoadedFeed(t, svc)

	cmd, err := f.Report("1")
	require.NoError(t, err)
	m, _ := f.Get("1")
	assert.True(t, m.Reported, "marker shows before settlement")

	out, _ := f.Update(cmd())
	assert.ErrorIs(t, out.Err, ErrReportPending)
	assert.ErrorIs(t, out.Err, domain.ErrNetwork)
	m, _ = f.Get("1")
	assert.True(t, m.Reported)
	assert.True(t, m.Unsynced)

	cmd, err = f.Report("1")
	msg := run(t, cmd, err)
	out, _ = f.Update(msg)
	require.NoError(t, out.Err)
	m, _ = f.Get("1")
	assert.True(t, m.Reported)
	assert.False(t, m.Unsynced)

	cmd, err = f.Report("1")
	assert.NoError(t, err)
	assert.Nil(t, cmd, "delivered reports are not sent twice")
}

func TestVisible_IncognitoAndSort(t *testing.T) {
	f := newLoadedFeed(t, &fakeMessages{})

	ids := func(ms []domain.Message) []string {
		var out []string
		for _, m := range ms {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2"}, ids(f.Visible(app.SortNewest)))
	assert.Equal(t, []string{"2", "1"}, ids(f.Visible(app.SortMostLiked)))

	f.deps.Session.SetIncognito(true)
	assert.Equal(t, []string{"3", "2", "1"}, ids(f.Visible(app.SortMostLiked)))
	assert.Equal(t, []string{"3", "2", "1"}, ids(f.Trending()))
	assert.Equal(t, []string{"fitness", "food", "kindness"}, f.Tags())
}

func TestProfiles_RenameAuthors(t *testing.T) {
	svc := &fakeMessages{}
	svc.list = func(context.Context, int) ([]domain.Message, error) { return seedMessages(), nil }
	accounts := &fakeAccounts{profiles: map[string]domain.Profile{"u2": {UserID: "u2", DisplayName: "Dolphin Prime"}}}
	f := NewFeed(FeedDeps{Messages: svc, Accounts: accounts, Session: signedIn()})

	_, follow := f.Update(f.Load()())
	require.NotNil(t, follow)
	out, _ := f.Update(follow())
	assert.True(t, out.Changed)
	m, _ := f.Get("2")
	assert.Equal(t, "Dolphin Prime", m.Author)

	f.Update(f.Load()())
	m, _ = f.Get("2")
	assert.Equal(t, "Dolphin Prime", m.Author, "resolved names survive reloads")
}

func TestSearch_SecondQueryCancelsFirst(t *testing.T) {
	svc := &fakeMessages{search: func(_ context.Context, term string, _ int) ([]domain.Message, error) {
		return []domain.Message{{ID: "hit-" + term, Status: domain.ModerationApproved}}, nil
	}}
	f := newLoadedFeed(t, svc)

	f.SetQuery("kind")
	first := f.SearchNow()
	f.SetQuery("kindness")
	second := f.SearchNow()

	firstMsg := first().(SearchLoadedMsg)
	secondMsg := second().(SearchLoadedMsg)
	assert.Error(t, firstMsg.Ticket.Ctx.Err(), "first search must be cancelled")

	out, _ := f.Update(secondMsg)
	assert.True(t, out.Changed)
	out, _ = f.Update(firstMsg)
	assert.False(t, out.Changed)

	res := f.Results("")
	require.Len(t, res, 1)
	assert.Equal(t, "hit-kindness", res[0].ID)
}

func TestSearch_DebounceCollapsesToFinalInput(t *testing.T) {
	var terms []string
	svc := &fakeMessages{search: func(_ context.Context, term string, _ int) ([]domain.Message, error) {
		terms = append(terms, term)
		return nil, nil
	}}
	f := newLoadedFeed(t, svc)

	var ticks []tea.Cmd
	for _, q := range []string{"k", "ki", "kin"} {
		ticks = append(ticks, f.SetQuery(q))
	}
	for _, tick := range ticks {
		_, cmd := f.Update(tick())
		if cmd != nil {
			f.Update(cmd())
		}
	}
	assert.Equal(t, []string{"kin"}, terms)
}

func TestSearch_FailureFiltersLocally(t *testing.T) {
	svc := &fakeMessages{search: func(context.Context, string, int) ([]domain.Message, error) {
		return nil, rejected(404)
	}}
	f := newLoadedFeed(t, svc)

	f.SetQuery("#fit")
	out, _ := f.Update(f.SearchNow()())
	assert.True(t, out.Advisory)
	assert.Equal(t, SourceLocal, f.SearchSource())
	res := f.Results("")
	require.Len(t, res, 1)
	assert.Equal(t, "2", res[0].ID)
}

func TestSearch_EmptyQueryClearsAndCancels(t *testing.T) {
	svc := &fakeMessages{search: func(context.Context, string, int) ([]domain.Message, error) {
		return []domain.Message{{ID: "x", Status: domain.ModerationApproved}}, nil
	}}
	f := newLoadedFeed(t, svc)
	f.SetQuery("x")
	cmd := f.SearchNow()
	assert.Nil(t, f.SetQuery("  "))

	out, _ := f.Update(cmd())
	assert.False(t, out.Changed)
	assert.Empty(t, f.Results(""))
}

func TestFilterTag(t *testing.T) {
	f := newLoadedFeed(t, &fakeMessages{})
	f.FilterTag("#Fitness")
	res := f.Results("")
	require.Len(t, res, 1)
	assert.Equal(t, "2", res[0].ID)
	assert.Equal(t, "fitness", f.Tag())
}

func TestCreateMessage_RequiresIdentityAndPrepends(t *testing.T) {
	var got domain.MessageDraft
	svc := &fakeMessages{create: func(_ context.Context, d domain.MessageDraft) (domain.Message, error) {
		got = d
		return domain.Message{ID: "new", Content: d.Content, Mode: d.Mode, Status: d.InitialModeration(), Author: domain.AnonymousAuthor}, nil
	}}
	f := newLoadedFeed(t, svc)

	anon := NewFeed(FeedDeps{Messages: svc})
	_, err := anon.CreateMessage("hello")
	assert.ErrorIs(t, err, domain.ErrNoIdentity)

	_, err = f.CreateMessage("   ")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	f.deps.Session.SetIncognito(true)
	cmd, err := f.CreateMessage("pineapple forever #Food #hot")
	msg := run(t, cmd, err)
	out, _ := f.Update(msg)
	require.NoError(t, out.Err)

	assert.Equal(t, "pineapple forever", got.Content)
	assert.Equal(t, []string{"food", "hot"}, got.Tags)
	assert.Equal(t, domain.ModeUnhinged, got.Mode)
	first := f.Visible("")[0]
	assert.Equal(t, "new", first.ID)
	assert.Equal(t, "KindPanda", first.Author)
	assert.Equal(t, domain.ModerationApproved, first.Status)
}

func TestCreateMessage_FailureSurfacesError(t *testing.T) {
	svc := &fakeMessages{create: func(context.Context, domain.MessageDraft) (domain.Message, error) {
		return domain.Message{}, rejected(422)
	}}
	f := newLoadedFeed(t, svc)
	cmd, err := f.CreateMessage("hello")
	out, _ := f.Update(run(t, cmd, err))
	var rej *domain.RejectionError
	assert.True(t, errors.As(out.Err, &rej))
	assert.Len(t, f.All(), 3)
}

func TestCommentCreated_BumpsCommentCount(t *testing.T) {
	f := newLoadedFeed(t, &fakeMessages{})
	out, _ := f.Update(CommentCreatedMsg{Pending: &Pending{}, MessageID: "1"})
	assert.True(t, out.Changed)
	m, _ := f.Get("1")
	assert.Equal(t, 1, m.CommentsCount)

	out, _ = f.Update(CommentCreatedMsg{Pending: &Pending{}, MessageID: "1", Err: networkErr()})
	assert.False(t, out.Handled)
}

func TestFeed_IgnoresForeignDebounce(t *testing.T) {
	f := newLoadedFeed(t, &fakeMessages{})
	out, cmd := f.Update(lifecycle.DebouncedMsg{Kind: "other", Seq: 1})
	assert.False(t, out.Handled)
	assert.Nil(t, cmd)
}

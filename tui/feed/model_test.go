package feed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/tui/compose"
)

type stubMessages struct {
	msgs    []domain.Message
	listErr error
	likeErr error
}

func (s stubMessages) ListMessages(context.Context, int) ([]domain.Message, error) {
	return s.msgs, s.listErr
}
func (s stubMessages) SearchMessages(context.Context, string, int) ([]domain.Message, error) {
	return nil, nil
}
func (s stubMessages) CreateMessage(_ context.Context, d domain.MessageDraft) (domain.Message, error) {
	return domain.Message{ID: "new", Content: d.Content, Mode: d.Mode, Status: d.InitialModeration()}, nil
}
func (s stubMessages) LikeMessage(context.Context, string, bool) (app.LikeResult, error) {
	return app.LikeResult{}, s.likeErr
}
func (s stubMessages) ReportMessage(context.Context, string, string) error { return nil }

type stubComments struct{}

func (stubComments) ListComments(context.Context, string) ([]domain.Comment, error) {
	return []domain.Comment{{ID: "c1", Author: "HappyFox", Content: "hi"}}, nil
}
func (stubComments) CreateComment(_ context.Context, d domain.CommentDraft) (domain.Comment, error) {
	return domain.Comment{ID: "srv1", Content: d.Content}, nil
}
func (stubComments) LikeComment(context.Context, string, bool) (app.LikeResult, error) {
	return app.LikeResult{}, nil
}

func makeMessage(id string, likes int, age time.Duration) domain.Message {
	return domain.Message{
		ID:         id,
		UserID:     "u" + id,
		Author:     "Author" + id,
		Content:    "hello " + id,
		Mode:       domain.ModePositive,
		Status:     domain.ModerationApproved,
		LikesCount: likes,
		CreatedAt:  time.Now().Add(-age),
	}
}

func newModel(t *testing.T, svc stubMessages) Model {
	t.Helper()
	session := app.NewSession()
	session.SetIdentity(domain.Profile{UserID: "me", DisplayName: "KindPanda"})
	f := engine.NewFeed(engine.FeedDeps{Messages: svc, Session: session})
	m := New(Deps{Feed: f, Comments: stubComments{}, Session: session})
	m, _ = m.Update(f.Load()())
	return m
}

func press(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFeed_LoadShowsVisibleWhispers(t *testing.T) {
	svc := stubMessages{msgs: []domain.Message{makeMessage("1", 1, time.Hour), makeMessage("2", 9, 2*time.Hour)}}
	m := newModel(t, svc)
	if m.Loading() {
		t.Fatalf("loading should end after the feed arrives")
	}
	if got := len(m.Items()); got != 2 {
		t.Fatalf("expected 2 whispers, got %d", got)
	}
	if !strings.Contains(m.View(), "hello 1") {
		t.Fatalf("view should render whisper content")
	}
}

func TestFeed_SortToggleEmitsPrefs(t *testing.T) {
	svc := stubMessages{msgs: []domain.Message{makeMessage("1", 1, time.Hour), makeMessage("2", 9, 2*time.Hour)}}
	m := newModel(t, svc)
	if sel, _ := m.Selected(); sel.ID != "1" {
		t.Fatalf("newest first expected, got %s", sel.ID)
	}
	m, cmd := m.Update(press("s"))
	if sel, _ := m.Selected(); sel.ID != "2" {
		t.Fatalf("most liked first expected, got %s", sel.ID)
	}
	prefs, ok := cmd().(PrefsChangedMsg)
	if !ok || prefs.Sort != app.SortMostLiked {
		t.Fatalf("expected prefs change, got %#v", prefs)
	}
}

func TestFeed_LikeShowsImmediatelyAndRollsBackOnFailure(t *testing.T) {
	svc := stubMessages{msgs: []domain.Message{makeMessage("1", 3, time.Hour)}, likeErr: &domain.RejectionError{Status: 500}}
	m := newModel(t, svc)

	m, cmd := m.Update(press("l"))
	if sel, _ := m.Selected(); !sel.Liked || sel.LikesCount != 4 {
		t.Fatalf("like should apply before the server answers: %#v", sel)
	}
	m, _ = m.Update(cmd())
	if sel, _ := m.Selected(); sel.Liked || sel.LikesCount != 3 {
		t.Fatalf("failed like should roll back: %#v", sel)
	}
	if m.Err() == nil {
		t.Fatalf("failure should be shown")
	}
}

func TestFeed_DoubleLikeWhileSavingIsIgnored(t *testing.T) {
	m := newModel(t, stubMessages{msgs: []domain.Message{makeMessage("1", 3, time.Hour)}})
	m, _ = m.Update(press("l"))
	m, cmd := m.Update(press("l"))
	if cmd != nil {
		t.Fatalf("second toggle must not send anything")
	}
	if m.Err() != nil {
		t.Fatalf("repeat toggle should be ignored quietly, got %v", m.Err())
	}
	if sel, _ := m.Selected(); !sel.Liked || sel.LikesCount != 4 {
		t.Fatalf("first toggle should stand: %#v", sel)
	}
}

func TestFeed_OfflineLoadShowsAdvisory(t *testing.T) {
	svc := stubMessages{listErr: domain.ErrNetwork}
	session := app.NewSession()
	f := engine.NewFeed(engine.FeedDeps{Messages: svc, Session: session, Fallback: fallbackData{}})
	m := New(Deps{Feed: f, Session: session})
	m, _ = m.Update(f.Load()())

	if len(m.Items()) != 1 {
		t.Fatalf("fallback whispers should show")
	}
	if m.Err() != nil {
		t.Fatalf("degraded load is advisory, not an error: %v", m.Err())
	}
	if !strings.Contains(m.View(), "offline") {
		t.Fatalf("view should say the data is offline")
	}
}

type fallbackData struct{}

func (fallbackData) Messages() []domain.Message {
	return []domain.Message{makeMessage("fb", 0, time.Hour)}
}
func (fallbackData) Comments(string) []domain.Comment { return nil }
func (fallbackData) Rankings() []domain.RankingEntry { return nil }

func TestFeed_AnonymousComposeRefused(t *testing.T) {
	session := app.NewSession()
	f := engine.NewFeed(engine.FeedDeps{Messages: stubMessages{}, Session: session})
	m := New(Deps{Feed: f, Session: session})
	m, cmd := m.Update(press("p"))
	if cmd != nil {
		t.Fatalf("anonymous users cannot compose")
	}
	if !errors.Is(m.Err(), domain.ErrNoIdentity) {
		t.Fatalf("expected identity error, got %v", m.Err())
	}
}

func TestFeed_ThreadReplyFlow(t *testing.T) {
	m := newModel(t, stubMessages{msgs: []domain.Message{makeMessage("1", 0, time.Hour)}})

	m, cmd := m.Update(press("enter"))
	if !m.InDetail() {
		t.Fatalf("enter should open the thread")
	}
	m, _ = m.Update(cmd())
	m, _ = m.Update(press("j"))

	_, cmd = m.Update(press("C"))
	req, ok := cmd().(ComposeMsg)
	if !ok || !req.Inline || req.Target.ParentID != "c1" || req.Target.MessageID != "1" {
		t.Fatalf("expected inline reply to c1, got %#v", req)
	}

	m, cmd = m.Submit(compose.DoneMsg{Content: "welcome", Target: req.Target})
	if cmd == nil {
		t.Fatalf("submit should send the reply")
	}
	if !strings.Contains(m.View(), "sending...") {
		t.Fatalf("draft should render as sending")
	}
	m, _ = m.Update(cmd())
	if strings.Contains(m.View(), "sending...") {
		t.Fatalf("confirmed reply should no longer be pending")
	}
	if sel, _ := m.feed.Get("1"); sel.CommentsCount != 1 {
		t.Fatalf("comment count should bump, got %d", sel.CommentsCount)
	}

	m, _ = m.Update(press("esc"))
	if m.InDetail() {
		t.Fatalf("esc should close the thread")
	}
}

func TestFeed_SearchTypingDebounces(t *testing.T) {
	m := newModel(t, stubMessages{msgs: []domain.Message{makeMessage("1", 0, time.Hour)}})
	m, _ = m.Update(press("/"))
	if !m.Typing() {
		t.Fatalf("search key should focus the input")
	}
	m, cmd := m.Update(press("q"))
	if !m.Typing() || cmd == nil {
		t.Fatalf("q while typing is input, not quit")
	}
	if m.feed.Query() != "q" {
		t.Fatalf("query should follow input, got %q", m.feed.Query())
	}
	m, _ = m.Update(press("esc"))
	if m.Typing() {
		t.Fatalf("esc should leave the input")
	}
}

func TestFeed_IncognitoRevealsUnhinged(t *testing.T) {
	unhinged := makeMessage("u", 0, time.Hour)
	unhinged.Mode = domain.ModeUnhinged
	m := newModel(t, stubMessages{msgs: []domain.Message{makeMessage("1", 0, time.Hour), unhinged}})
	if len(m.Items()) != 1 {
		t.Fatalf("unhinged whispers are hidden by default")
	}
	m, cmd := m.Update(press("i"))
	if len(m.Items()) != 2 {
		t.Fatalf("incognito should reveal unhinged whispers")
	}
	if prefs := cmd().(PrefsChangedMsg); !prefs.Incognito {
		t.Fatalf("incognito should be persisted")
	}
}

package engine

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
)

type fakeMessages struct {
	list   func(ctx context.Context, limit int) ([]domain.Message, error)
	search func(ctx context.Context, term string, limit int) ([]domain.Message, error)
	create func(ctx context.Context, d domain.MessageDraft) (domain.Message, error)
	like   func(ctx context.Context, id string, like bool) (app.LikeResult, error)
	report func(ctx context.Context, id, reason string) error
}

func (f *fakeMessages) ListMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	return f.list(ctx, limit)
}

func (f *fakeMessages) SearchMessages(ctx context.Context, term string, limit int) ([]domain.Message, error) {
	return f.search(ctx, term, limit)
}

func (f *fakeMessages) CreateMessage(ctx context.Context, d domain.MessageDraft) (domain.Message, error) {
	return f.create(ctx, d)
}

func (f *fakeMessages) LikeMessage(ctx context.Context, id string, like bool) (app.LikeResult, error) {
	return f.like(ctx, id, like)
}

func (f *fakeMessages) ReportMessage(ctx context.Context, id, reason string) error {
	return f.report(ctx, id, reason)
}

type fakeComments struct {
	list   func(ctx context.Context, messageID string) ([]domain.Comment, error)
	create func(ctx context.Context, d domain.CommentDraft) (domain.Comment, error)
	like   func(ctx context.Context, id string, like bool) (app.LikeResult, error)
	calls  int
}

func (f *fakeComments) ListComments(ctx context.Context, messageID string) ([]domain.Comment, error) {
	return f.list(ctx, messageID)
}

func (f *fakeComments) CreateComment(ctx context.Context, d domain.CommentDraft) (domain.Comment, error) {
	f.calls++
	return f.create(ctx, d)
}

func (f *fakeComments) LikeComment(ctx context.Context, id string, like bool) (app.LikeResult, error) {
	return f.like(ctx, id, like)
}

type fakeAccounts struct {
	profiles    map[string]domain.Profile
	leaderboard func(ctx context.Context) ([]domain.RankingEntry, error)
}

func (f *fakeAccounts) CurrentProfile(context.Context) (domain.Profile, error) {
	return domain.Profile{UserID: "me", DisplayName: "KindPanda"}, nil
}

func (f *fakeAccounts) Profiles(_ context.Context, ids []string) (map[string]domain.Profile, error) {
	out := map[string]domain.Profile{}
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (f *fakeAccounts) Leaderboard(ctx context.Context) ([]domain.RankingEntry, error) {
	return f.leaderboard(ctx)
}

// memSnapshots is an in-memory app.Snapshots.
type memSnapshots struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSnapshots() *memSnapshots {
	return &memSnapshots{data: map[string][]byte{}}
}

func (m *memSnapshots) Save(_ context.Context, kind, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[kind+"/"+key] = b
	return nil
}

func (m *memSnapshots) Load(_ context.Context, kind, key string, v any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[kind+"/"+key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, v)
}

type staticFallback struct {
	messages []domain.Message
	comments []domain.Comment
	rankings []domain.RankingEntry
}

func (s staticFallback) Messages() []domain.Message       { return s.messages }
func (s staticFallback) Comments(string) []domain.Comment { return s.comments }
func (s staticFallback) Rankings() []domain.RankingEntry  { return s.rankings }

func signedIn() *app.Session {
	s := app.NewSession()
	s.SetIdentity(domain.Profile{UserID: "me", DisplayName: "KindPanda"})
	return s
}

func networkErr() error {
	return domain.ErrNetwork
}

func rejected(status int) error {
	return &domain.RejectionError{Status: status}
}

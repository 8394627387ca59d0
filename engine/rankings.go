package engine

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/lifecycle"
	"github.com/CrestNiraj12/whispernet/store"
)

const rankingsKind lifecycle.Kind = "rankings"

// RankingsDeps are the collaborators of Rankings.
type RankingsDeps struct {
	Accounts  app.AccountService
	Snapshots app.Snapshots    // optional
	Fallback  app.FallbackData // optional
	Lifecycle *lifecycle.Controller

	// Local returns the whispers to derive rankings from when neither the
	// server nor a snapshot can serve them. Called on the update loop.
	Local func() []domain.Message
}

// Rankings owns the leaderboard cache.
type Rankings struct {
	deps   RankingsDeps
	life   *lifecycle.Controller
	cache  *store.Collection[domain.RankingEntry]
	source Source
}

// NewRankings creates the leaderboard engine.
func NewRankings(deps RankingsDeps) *Rankings {
	if deps.Lifecycle == nil {
		deps.Lifecycle = lifecycle.New(context.Background())
	}
	return &Rankings{
		deps:  deps,
		life:  deps.Lifecycle,
		cache: store.NewCollection[domain.RankingEntry](nil),
	}
}

// Entries returns the leaderboard, highest score first.
func (r *Rankings) Entries() []domain.RankingEntry { return r.cache.All() }

// Source is where the current leaderboard came from.
func (r *Rankings) Source() Source { return r.source }

// Load fetches the leaderboard. On failure it falls back to the snapshot,
// then to rankings derived from the cached feed, then to bundled data.
func (r *Rankings) Load() tea.Cmd {
	t := r.life.Begin(rankingsKind)
	svc, snaps := r.deps.Accounts, r.deps.Snapshots

	var backups []backup[[]domain.RankingEntry]
	if r.deps.Local != nil {
		if derived := domain.DeriveRankings(r.deps.Local()); len(derived) > 0 {
			backups = append(backups, backup[[]domain.RankingEntry]{source: SourceLocal, get: func() ([]domain.RankingEntry, bool) {
				return derived, true
			}})
		}
	}
	if fb := r.deps.Fallback; fb != nil {
		backups = append(backups, backup[[]domain.RankingEntry]{source: SourceFallback, get: func() ([]domain.RankingEntry, bool) {
			return fb.Rankings(), true
		}})
	}
	return func() tea.Msg {
		res := degradingLoad(t.Ctx, snaps, snapRankings, "", svc.Leaderboard, backups...)
		return RankingsLoadedMsg{Ticket: t, Entries: res.data, Source: res.source, Advisory: res.advisory, Err: res.err}
	}
}

// Update handles RankingsLoadedMsg.
func (r *Rankings) Update(msg tea.Msg) (Outcome, tea.Cmd) {
	loaded, ok := msg.(RankingsLoadedMsg)
	if !ok {
		return Outcome{}, nil
	}
	if !r.life.Finish(loaded.Ticket) || domain.IsCancelled(loaded.Err) {
		return Outcome{Handled: true}, nil
	}
	if loaded.Err != nil {
		return Outcome{Handled: true, Err: loaded.Err}, nil
	}
	entries := make([]domain.RankingEntry, len(loaded.Entries))
	copy(entries, loaded.Entries)
	for i := range entries {
		entries[i].Badge = domain.BadgeForScore(entries[i].Score)
	}
	domain.SortRankings(entries)
	r.cache.ReplaceAll(entries)
	r.source = loaded.Source

	out := Outcome{Handled: true, Changed: true, Source: loaded.Source}
	if loaded.Advisory != nil {
		out.Err, out.Advisory = loaded.Advisory, true
	}
	return out, nil
}

// Close cancels the outstanding load.
func (r *Rankings) Close() { r.life.Close() }

// LoadIdentity fetches the signed-in profile.
func LoadIdentity(ctx context.Context, accounts app.AccountService) tea.Cmd {
	return func() tea.Msg {
		p, err := accounts.CurrentProfile(ctx)
		return IdentityLoadedMsg{Profile: p, Err: err}
	}
}

// ApplyIdentity installs a loaded profile on the session. A failed lookup
// leaves the session anonymous and is returned for display.
func ApplyIdentity(s *app.Session, msg IdentityLoadedMsg) error {
	if msg.Err != nil {
		if domain.IsCancelled(msg.Err) {
			return nil
		}
		return msg.Err
	}
	s.SetIdentity(msg.Profile)
	return nil
}

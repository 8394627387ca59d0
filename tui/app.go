package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/infra/config"
	"github.com/CrestNiraj12/whispernet/tui/common"
	"github.com/CrestNiraj12/whispernet/tui/compose"
	"github.com/CrestNiraj12/whispernet/tui/feed"
	"github.com/CrestNiraj12/whispernet/tui/rankings"
)

// Deps holds all dependencies the TUI needs. Plain struct, not a DI container.
type Deps struct {
	Feed      *engine.Feed
	Rankings  *engine.Rankings
	Comments  app.CommentService
	Accounts  app.AccountService
	Snapshots app.Snapshots
	Fallback  app.FallbackData
	Session   *app.Session
	Editor    compose.Editor
	UIState   config.UIState
	StatePath string // empty disables persisting preferences
}

type activeView int

const (
	feedView activeView = iota
	rankingsView
	composeView
)

// App is the root Bubble Tea model. It routes between sub-views.
type App struct {
	deps     Deps
	active   activeView
	feed     feed.Model
	rankings rankings.Model
	compose  compose.Model
	keys     common.KeyMap
	status   string
}

// NewApp creates the root model with all dependencies wired.
func NewApp(deps Deps) App {
	if deps.Session == nil {
		deps.Session = app.NewSession()
	}
	me := ""
	if p, ok := deps.Session.Identity(); ok {
		me = p.UserID
	}
	return App{
		deps:   deps,
		active: feedView,
		feed: feed.New(feed.Deps{
			Feed:      deps.Feed,
			Comments:  deps.Comments,
			Snapshots: deps.Snapshots,
			Fallback:  deps.Fallback,
			Session:   deps.Session,
			Sort:      app.SortOrder(deps.UIState.FeedSort),
		}),
		rankings: rankings.New(deps.Rankings, me),
		keys:     common.DefaultKeyMap(),
	}
}

// Init starts the feed and resolves the signed-in identity.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{a.feed.Init()}
	if a.deps.Accounts != nil {
		if tok, _ := a.deps.Session.AccessToken(); tok != "" {
			cmds = append(cmds, engine.LoadIdentity(a.deps.Feed.Lifecycle().Context(), a.deps.Accounts))
		}
	}
	return tea.Batch(cmds...)
}

// Update handles messages and routes to the active sub-model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, a.keys.ForceQuit) {
			return a.quit()
		}
		if a.active == feedView && key.Matches(msg, a.keys.Quit) && !a.feed.Modal() {
			return a.quit()
		}
		a.status = ""

	case tea.WindowSizeMsg:
		var c1, c2 tea.Cmd
		a.feed, c1 = a.feed.Update(msg)
		a.rankings, c2 = a.rankings.Update(msg)
		return a, tea.Batch(c1, c2)

	case spinner.TickMsg:
		var c1, c2 tea.Cmd
		a.feed, c1 = a.feed.Update(msg)
		a.rankings, c2 = a.rankings.Update(msg)
		return a, tea.Batch(c1, c2)

	case engine.IdentityLoadedMsg:
		if err := engine.ApplyIdentity(a.deps.Session, msg); err != nil {
			log.Warn().Err(err).Msg("identity lookup failed, continuing anonymously")
			a.status = "Signed out: browsing anonymously."
			return a, nil
		}
		if p, ok := a.deps.Session.Identity(); ok {
			a.rankings = a.rankings.Highlight(p.UserID)
		}
		return a, nil

	case engine.RankingsLoadedMsg:
		var cmd tea.Cmd
		a.rankings, cmd = a.rankings.Update(msg)
		return a, cmd

	case feed.ComposeMsg:
		a.active = composeView
		a.status = ""
		incognito := a.deps.Session.Incognito()
		if msg.Inline || a.deps.Editor == nil {
			a.compose = compose.NewInlineWithContent(msg.Target, incognito, msg.Content)
		} else {
			a.compose = compose.NewEditor(a.deps.Editor, msg.Target, incognito)
		}
		return a, a.compose.Init()

	case compose.DoneMsg:
		a.active = feedView
		var cmd tea.Cmd
		a.feed, cmd = a.feed.Submit(msg)
		return a, cmd

	case feed.OpenRankingsMsg:
		a.active = rankingsView
		var cmd tea.Cmd
		a.rankings, cmd = a.rankings.Open()
		return a, cmd

	case rankings.BackMsg:
		a.active = feedView
		return a, nil

	case feed.PrefsChangedMsg:
		a.deps.UIState.Incognito = msg.Incognito
		a.deps.UIState.FeedSort = string(msg.Sort)
		return a, a.savePrefs()

	case prefsSavedMsg:
		if msg.err != nil {
			a.status = "Could not save preferences: " + msg.err.Error()
		}
		return a, nil
	}

	switch a.active {
	case composeView:
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			a.compose, cmd = a.compose.Update(msg)
			return a, cmd
		}
		// Results of in-flight requests still belong to the feed.
		var c1, c2 tea.Cmd
		a.compose, c1 = a.compose.Update(msg)
		a.feed, c2 = a.feed.Update(msg)
		return a, tea.Batch(c1, c2)
	case rankingsView:
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			a.rankings, cmd = a.rankings.Update(msg)
			return a, cmd
		}
	}

	var cmd tea.Cmd
	a.feed, cmd = a.feed.Update(msg)
	return a, cmd
}

type prefsSavedMsg struct{ err error }

func (a App) savePrefs() tea.Cmd {
	path, st := a.deps.StatePath, a.deps.UIState
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		return prefsSavedMsg{err: config.SaveUIState(path, st)}
	}
}

func (a App) quit() (tea.Model, tea.Cmd) {
	a.feed.Close()
	if a.deps.Rankings != nil {
		a.deps.Rankings.Close()
	}
	return a, tea.Quit
}

// View renders the active sub-model.
func (a App) View() string {
	var s string
	switch a.active {
	case feedView:
		s = a.feed.View()
	case rankingsView:
		s = a.rankings.View()
	case composeView:
		s = a.compose.View()
	}
	if a.status != "" {
		s += "\n" + common.StatusBarStyle.Render(a.status)
	}
	return s
}

// Close cancels outstanding work, for exits that bypass the quit key.
func (a App) Close() {
	a.feed.Close()
	if a.deps.Rankings != nil {
		a.deps.Rankings.Close()
	}
}

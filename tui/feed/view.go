package feed

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/CrestNiraj12/whispernet/app"
	"github.com/CrestNiraj12/whispernet/domain"
	"github.com/CrestNiraj12/whispernet/engine"
	"github.com/CrestNiraj12/whispernet/store"
	"github.com/CrestNiraj12/whispernet/tui/common"
)

// cardHeight is the rendered height of one whisper card, borders included.
const cardHeight = 6

// View renders the feed, or the open thread.
func (m Model) View() string {
	if m.showAllHints {
		return m.renderKeyDialog()
	}
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	if m.detail != nil {
		b.WriteString(m.renderDetail())
	} else {
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
		if m.tab == tabSearch {
			b.WriteString(m.renderSearchBar())
			b.WriteString("\n")
		}
		b.WriteString(m.renderList())
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.helpView())
	return b.String()
}

func (m Model) renderHeader() string {
	title := common.AppTitleStyle.Render("WhisperNet")
	tagline := common.TaglineStyle.Render("<whisper something kind>")
	line := title + tagline
	if m.deps.Session.Incognito() {
		line += "  " + common.IncognitoStyle.Render("incognito")
	}
	if p, ok := m.deps.Session.Identity(); ok {
		line += "  " + pseudonymStyle(p.Name(), true).Render(p.Name())
	} else {
		line += "  " + common.TimestampStyle.Render("anonymous")
	}
	if src := m.feed.Source(); src != engine.SourceServer && !m.loading {
		line += "  " + common.WarningStyle.Render("["+src.String()+"]")
	}
	return line
}

func (m Model) renderTabs() string {
	parts := make([]string, 0, tabCount)
	for t := tabFeed; t < tabCount; t++ {
		style := common.TabInactiveStyle
		if t == m.tab {
			style = common.TabActiveStyle
		}
		parts = append(parts, style.Render(t.String()))
	}
	sortLabel := "newest"
	if m.order == app.SortMostLiked {
		sortLabel = "most liked"
	}
	parts = append(parts, common.TimestampStyle.Render("sort: "+sortLabel))
	return " " + strings.Join(parts, " ")
}

func (m Model) renderSearchBar() string {
	var b strings.Builder
	b.WriteString(" " + m.search.View())
	switch {
	case m.feed.Tag() != "":
		b.WriteString("  " + tagCapStyle.Render("#"+m.feed.Tag()))
	case m.feed.Query() != "" && m.feed.SearchSource() == engine.SourceLocal:
		b.WriteString("  " + common.WarningStyle.Render("(local results)"))
	}
	return b.String()
}

func (m Model) renderList() string {
	if m.loading && len(m.feed.All()) == 0 {
		return fmt.Sprintf("\n %s Loading whispers...\n", m.spinner.View())
	}
	items := m.Items()
	if len(items) == 0 {
		return "\n" + common.TimestampStyle.Render(" "+m.emptyText()) + "\n"
	}

	width := max(m.width-4, 30)
	end := min(m.start+m.cardsPerPage(), len(items))
	var b strings.Builder
	for i := m.start; i < end; i++ {
		b.WriteString(m.renderCard(items[i], i == m.cursor, width))
		b.WriteString("\n")
	}
	if len(items) > end || m.start > 0 {
		b.WriteString(common.TimestampStyle.Render(fmt.Sprintf(" %d/%d", m.cursor+1, len(items))))
		b.WriteString("\n")
	}
	if m.tab == tabTrending {
		if tags := m.feed.Tags(); len(tags) > 0 {
			b.WriteString(" " + renderCompactTags(tags, 8) + "\n")
		}
	}
	return b.String()
}

func (m Model) emptyText() string {
	switch {
	case m.tab == tabSearch && m.feed.Query() == "" && m.feed.Tag() == "":
		return "Type / to search, or t to browse tags."
	case m.tab == tabSearch:
		return "No whispers match."
	default:
		return "No whispers yet. Press p to share one."
	}
}

func (m Model) isOwn(msg domain.Message) bool {
	p, ok := m.deps.Session.Identity()
	return ok && msg.UserID != "" && msg.UserID == p.UserID
}

func (m Model) renderCard(msg domain.Message, selected bool, width int) string {
	style := common.UnselectedStyle
	if selected {
		style = common.SelectedStyle
	}
	inner := max(width-4, 20)

	head := pseudonymStyle(msg.Author, m.isOwn(msg)).Render(msg.Author) + " " +
		common.TimestampStyle.Render(common.TimeAgo(msg.CreatedAt, m.now()))
	head += m.markers(msg)

	content := common.ContentStyle.Render(preview(msg.Content, inner))
	foot := m.counts(msg)
	if tags := renderCompactTags(msg.Tags, 3); tags != "" {
		foot += "  " + tags
	}
	body := strings.Join([]string{head, content, foot}, "\n")
	return style.Width(width).Render(fitCard(body, inner, cardHeight-2))
}

func (m Model) markers(msg domain.Message) string {
	var out []string
	if msg.IsUnhinged() {
		out = append(out, common.IncognitoStyle.Render("unhinged"))
	}
	if msg.Status == domain.ModerationPending {
		out = append(out, common.PendingStyle.Render("awaiting moderation"))
	}
	if msg.Reported {
		label := "reported"
		if msg.Unsynced {
			label = "report not sent"
			out = append(out, common.UnsyncedStyle.Render(label))
		} else {
			out = append(out, common.TimestampStyle.Render(label))
		}
	}
	if len(out) == 0 {
		return ""
	}
	return "  " + strings.Join(out, " · ")
}

func (m Model) counts(msg domain.Message) string {
	heart := "♡"
	if msg.Liked {
		heart = lipgloss.NewStyle().Foreground(lipgloss.Color("#ED8796")).Render("♥")
	}
	s := fmt.Sprintf("%s %d  💬 %d", heart, msg.LikesCount, msg.CommentsCount)
	if m.feed.LikePending(msg.ID) {
		s += " " + common.PendingStyle.Render("saving")
	}
	return s
}

func (m Model) renderDetail() string {
	d := m.detail
	msg, ok := m.detailMessage()
	if !ok {
		msg = domain.Message{ID: d.messageID, Author: domain.AnonymousAuthor}
	}
	width := max(m.width-4, 30)
	inner := max(width-4, 20)

	var card strings.Builder
	card.WriteString(pseudonymStyle(msg.Author, m.isOwn(msg)).Render(msg.Author))
	card.WriteString(" " + common.TimestampStyle.Render(common.TimeAgo(msg.CreatedAt, m.now())))
	card.WriteString(m.markers(msg) + "\n\n")
	card.WriteString(common.ContentStyle.Width(inner).Render(msg.Content) + "\n\n")
	if tags := renderAllTags(msg.Tags); tags != "" {
		card.WriteString(tags + "\n")
	}
	card.WriteString(m.counts(msg))

	style := common.UnselectedStyle
	if d.cursor == 0 {
		style = common.SelectedStyle
	}
	var b strings.Builder
	b.WriteString(style.Width(width).Render(card.String()))
	b.WriteString("\n")

	rows := d.rows()
	header := common.Plural(d.thread.Count(), "comment")
	if src := d.thread.Source(); src != engine.SourceServer && !d.loading {
		header += "  " + common.WarningStyle.Render("["+src.String()+"]")
	}
	b.WriteString(" " + common.TimestampStyle.Render(header) + "\n")
	if d.loading && len(rows) == 0 {
		b.WriteString(fmt.Sprintf(" %s Loading comments...\n", m.spinner.View()))
	}
	for i, row := range rows {
		b.WriteString(m.renderComment(row, d.cursor == i+1, inner))
		b.WriteString("\n")
	}
	if orphans := d.thread.Orphans(); len(orphans) > 0 {
		b.WriteString(" " + common.UnsyncedStyle.Render(common.Plural(len(orphans), "draft")+" lost their parent comment") + "\n")
	}
	return b.String()
}

func (m Model) renderComment(row store.Row, selected bool, width int) string {
	c := row.Comment
	indent := strings.Repeat("  ", row.Depth)
	cursor := "  "
	if selected {
		cursor = common.SuccessStyle.Render("›") + " "
	}
	own := false
	if p, ok := m.deps.Session.Identity(); ok {
		own = c.Author == p.Name()
	}

	head := pseudonymStyle(c.Author, own).Render(c.Author) + " " +
		common.TimestampStyle.Render(common.TimeAgo(c.CreatedAt, m.now()))
	heart := "♡"
	if c.Liked {
		heart = "♥"
	}
	head += fmt.Sprintf("  %s %d", heart, c.LikesCount)
	switch {
	case c.Unsynced:
		head += "  " + common.UnsyncedStyle.Render("not sent · R to retry")
	case c.IsTemporary():
		head += "  " + common.PendingStyle.Render("sending...")
	}

	textWidth := max(width-len(indent)-2, 12)
	text := common.ContentStyle.Width(textWidth).Render(c.Content)
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = indent + "  " + lines[i]
	}
	return cursor + indent + head + "\n" + strings.Join(lines, "\n")
}

func (m Model) renderStatus() string {
	var lines []string
	if m.notice != "" {
		lines = append(lines, common.WarningStyle.Render(" "+m.notice))
	}
	switch {
	case m.err != nil:
		lines = append(lines, common.ErrorStyle.Render(" Error: "+m.err.Error()))
	case m.status != "":
		lines = append(lines, common.SuccessStyle.Render(" "+m.status))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}

func (m Model) helpView() string {
	var items []string
	switch {
	case m.typing:
		items = []string{"enter: search now", "esc: done"}
	case m.detail != nil:
		items = []string{"j/k: focus", "l: like", "c/C: comment", "R: retry", "r: refresh", "esc: back", "?: all keys"}
	default:
		items = []string{"j/k: focus", "enter: thread", "p/P: whisper", "l: like", "/: search", "tab: switch", "q: quit", "?: all keys"}
	}
	wrapWidth := max(m.width-2, 16)
	return common.StatusBarStyle.Width(wrapWidth).Render("  " + strings.Join(items, " • "))
}

func (m Model) renderKeyDialog() string {
	k := m.keys
	bindings := []struct{ keys, desc string }{
		{k.Up.Help().Key + "/" + k.Down.Help().Key, "move focus"},
		{k.Top.Help().Key, "jump to top"},
		{k.Enter.Help().Key, "open thread"},
		{k.Back.Help().Key, "back"},
		{k.NextTab.Help().Key, "next tab (feed, trending, search)"},
		{k.NewEditor.Help().Key + "/" + k.NewInline.Help().Key, "new whisper ($EDITOR / inline)"},
		{k.Reply.Help().Key + "/" + k.ReplyInline.Help().Key, "comment or reply to the focused comment"},
		{k.Like.Help().Key, "like / unlike"},
		{k.Report.Help().Key, "report whisper"},
		{k.Retry.Help().Key, "resend an unsynced comment"},
		{k.Search.Help().Key, "search"},
		{k.Tags.Help().Key, "filter by next tag"},
		{k.Sort.Help().Key, "toggle sort"},
		{k.Incognito.Help().Key, "toggle incognito"},
		{k.Rankings.Help().Key, "kindness rankings"},
		{k.Refresh.Help().Key, "refresh"},
		{k.Quit.Help().Key, "quit"},
	}
	var b strings.Builder
	b.WriteString(common.AppTitleStyle.Render("Keys") + "\n\n")
	for _, kb := range bindings {
		b.WriteString(fmt.Sprintf("  %-14s %s\n", kb.keys, kb.desc))
	}
	b.WriteString(common.StatusBarStyle.Render("  ?/esc: close"))
	return b.String()
}

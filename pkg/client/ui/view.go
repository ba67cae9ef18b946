package ui

import (
	"strings"

	"github.com/76creates/stickers/flexbox"
	"github.com/charmbracelet/lipgloss"

	"github.com/aeolun/clicklite/pkg/clickup"
	"github.com/aeolun/clicklite/pkg/client"
	"github.com/aeolun/clicklite/pkg/markdown"
)

const inputHeight = 3 // text line plus border

// View renders the current view
func (m Model) View() string {
	// Don't render until we have dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	if top := m.modalStack.Top(); top != nil {
		return top.Render(m.width, m.height)
	}

	// Header and footer take one line each
	layout := flexbox.NewHorizontal(m.width, m.height-2)

	sidebarStyle := SidebarPaneStyle
	if m.currentView == ViewChannelList {
		sidebarStyle = SidebarFocusedPaneStyle
	}

	sidebarCol := layout.NewColumn().AddCells(
		flexbox.NewCell(1, 1).
			SetStyle(sidebarStyle).
			SetContent(m.renderSidebar()),
	)
	chatCol := layout.NewColumn().AddCells(
		flexbox.NewCell(3, 1).
			SetStyle(ChatPaneStyle).
			SetContent(m.renderChatPane()),
	)
	layout.AddColumns([]*flexbox.Column{sidebarCol, chatCol})

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		layout.Render(),
		m.renderFooter(),
	)
}

// sidebarWidth matches the 1:3 column ratio of the layout
func (m Model) sidebarWidth() int {
	return m.width / 4
}

// bubbleWidth is the wrap width of a single message
func (m Model) bubbleWidth() int {
	w := m.chatViewport.Width * 3 / 4
	if w < 20 {
		w = min(20, m.chatViewport.Width)
	}
	return max(1, w)
}

// resize fits the viewport, input and renderer to the window
func (m *Model) resize() {
	chatWidth := m.width - m.sidebarWidth()

	// Pane border and padding take 4 columns; header, footer, pane border,
	// chat title and the input box take the rest of the rows
	m.chatViewport.Width = max(10, chatWidth-4)
	m.chatViewport.Height = max(1, m.height-2-2-1-inputHeight)

	// Leave room for the prompt, the cursor and the input box padding
	m.input.Width = max(1, m.chatViewport.Width-8)
	m.renderer.setWidth(m.bubbleWidth())

	m.rebuildChat(m.chatViewport.AtBottom())
}

// rebuildChat re-renders the message list into the viewport
func (m *Model) rebuildChat(toBottom bool) {
	m.chatViewport.SetContent(m.buildChatMessages())
	if toBottom {
		m.chatViewport.GotoBottom()
	}
}

// renderHeader renders the header
func (m Model) renderHeader() string {
	title := "clicklite"
	if m.opts.Version != "" {
		title += " " + m.opts.Version
	}
	left := HeaderStyle.Render(title) + MutedTextStyle.Render(SafeUsername(m.user))

	statusStyle := StatusStyle
	if m.statusIsError {
		statusStyle = StatusErrorStyle
	}
	room := max(0, m.width-lipgloss.Width(left)-2)
	right := statusStyle.Render(client.Truncate(m.status, room))

	spacer := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return left + spacer + right
}

// renderFooter renders the shortcuts available right now
func (m Model) renderFooter() string {
	shortcuts := m.commands.GenerateFooter(int(m.currentView), m.modalStack.TopType(), &m)
	// FooterStyle pads one column on each side
	return FooterStyle.Render(client.Truncate(shortcuts, m.width-2))
}

// renderSidebar renders the channel list
func (m Model) renderSidebar() string {
	inner := max(1, m.sidebarWidth()-4)

	lines := []string{
		SidebarTitleStyle.Render("Chats"),
		MutedTextStyle.Render(client.Truncate(SafeUsername(m.user), inner)),
		"",
	}

	switch {
	case m.loadingChannels && len(m.channels) == 0:
		lines = append(lines, MutedTextStyle.Render(m.spinner.View()+" Loading chats…"))
	case len(m.channels) == 0:
		lines = append(lines, MutedTextStyle.Render("(no chats)"))
	default:
		active := m.CurrentChannelID()
		for i, ch := range m.channels {
			lines = append(lines, m.formatChannelItem(ch, i == m.channelCursor, ch.ID == active, inner))
		}
	}

	return strings.Join(lines, "\n")
}

func (m Model) formatChannelItem(ch clickup.Channel, selected, active bool, width int) string {
	dot := ""
	if m.unread[ch.ID] {
		dot = " ●"
	}

	name := client.Truncate(ch.IconPrefix()+ch.DisplayName(), width-2-lipgloss.Width(dot))

	var item string
	switch {
	case selected:
		item = SelectedItemStyle.Render("▶ " + name)
	case active:
		item = ActiveItemStyle.Render("  " + name)
	default:
		item = UnselectedItemStyle.Render("  " + name)
	}
	return item + UnreadDotStyle.Render(dot)
}

// renderChatPane renders the open channel: title, messages and input
func (m Model) renderChatPane() string {
	ch, ok := m.session.Channel()
	if !ok {
		return m.renderWelcome()
	}

	title := ChatTitleStyle.Render(client.Truncate(ch.IconPrefix()+ch.DisplayName(), m.chatViewport.Width))

	var body string
	if m.session.Loading() && len(m.session.VisibleMessages()) == 0 {
		body = lipgloss.NewStyle().
			Height(m.chatViewport.Height).
			Render(MutedTextStyle.Render(m.spinner.View() + " Loading messages…"))
	} else {
		body = m.chatViewport.View()
	}

	inputStyle := InputBlurredStyle
	if m.currentView == ViewChat {
		inputStyle = InputFocusedStyle
	}
	input := inputStyle.Width(max(1, m.chatViewport.Width-2)).Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, title, body, input)
}

func (m Model) renderWelcome() string {
	lines := []string{
		ChatTitleStyle.Render("Welcome to clicklite!"),
		"",
	}
	if m.initState == InitStateUnconfigured || m.loader == nil {
		lines = append(lines,
			RenderError(m.status),
			"",
			"Set CLICKUP_ACCESS_TOKEN and CLICKUP_WORKSPACE_ID in your",
			"environment or in a .env file, then restart.",
		)
	} else {
		lines = append(lines,
			"Select a chat from the list on the left and press [Enter].",
			"",
			"Press [Tab] to switch between the list and the message box.",
			"Press [?] or [F1] for help.",
		)
	}
	return lipgloss.NewStyle().PaddingLeft(1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// buildChatMessages builds the message list for the viewport
func (m Model) buildChatMessages() string {
	if !m.HasCurrentChannel() {
		return ""
	}

	messages := m.session.VisibleMessages()
	if len(messages) == 0 {
		if m.session.Loading() {
			return ""
		}
		return MutedTextStyle.Render("This is the beginning of the conversation.")
	}

	blocks := make([]string, 0, len(messages))
	for _, msg := range messages {
		blocks = append(blocks, m.formatChatMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

// formatChatMessage renders one message bubble. Own messages sit on the
// right; pending ones are dimmed until the server confirms them.
func (m Model) formatChatMessage(msg clickup.Message) string {
	own := msg.Pending || m.session.IsOwn(msg)

	nameStyle := MessageAuthorStyle
	if own {
		nameStyle = MessageOwnAuthorStyle
	}
	header := nameStyle.Render(m.directory.AuthorName(msg))

	var body string
	if msg.Pending {
		header += "  " + MessagePendingStyle.Render("Sending...")
		body = MessagePendingStyle.Width(m.bubbleWidth()).Render(markdown.Normalize(msg.DisplayContent()))
	} else {
		if m.opts.ShowTimestamps {
			if ts := client.FormatTimestamp(msg.CreatedAt(), m.opts.TimestampFormat); ts != "" {
				header += "  " + MessageTimeStyle.Render(ts)
			}
		}
		body = m.renderer.Render(msg.ID, msg.DisplayContent())
	}

	if !own {
		return lipgloss.JoinVertical(lipgloss.Left, header, body)
	}
	block := lipgloss.JoinVertical(lipgloss.Right, header, body)
	return lipgloss.PlaceHorizontal(m.chatViewport.Width, lipgloss.Right, block)
}

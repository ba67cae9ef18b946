package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aeolun/clicklite/pkg/chat"
	"github.com/aeolun/clicklite/pkg/clickup"
	"github.com/aeolun/clicklite/pkg/client"
	"github.com/aeolun/clicklite/pkg/client/ui/modal"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.chatViewport, cmd = m.chatViewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case userLoadedMsg:
		return m.handleUserLoaded(msg)

	case teamLoadedMsg:
		if msg.err != nil {
			m.logger.Debug("team member lookup failed", zap.Error(msg.err))
			return m, nil
		}
		m.directory = chat.NewDirectory(msg.users)
		m.rebuildChat(false)
		return m, nil

	case avatarLoadedMsg:
		m.handleAvatarLoaded(msg)
		return m, nil

	case channelsLoadedMsg:
		return m.handleChannelsLoaded(msg)

	case historyLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case refreshLoadedMsg:
		return m.handleRefreshLoaded(msg)

	case sendCompletedMsg:
		return m.handleSendCompleted(msg)

	case refreshTickMsg:
		cmds := []tea.Cmd{refreshTickCmd(m.opts.RefreshInterval)}
		if m.loader != nil {
			if ticket, ok := m.session.BeginRefresh(); ok {
				cmds = append(cmds, m.fetchRefresh(ticket))
			}
		}
		return m, tea.Batch(cmds...)
	}

	// Anything else (cursor blinks) belongs to the input
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeyPress dispatches registered commands first, then the open
// modal, then the message input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if cmd := m.commands.GetCommand(msg.String(), int(m.currentView), m.modalStack.TopType(), &m); cmd != nil && cmd.Execute != nil {
		result, teaCmd := cmd.Execute(&m)
		return *result.(*Model), teaCmd
	}

	if !m.modalStack.IsEmpty() {
		_, cmd := m.modalStack.HandleKey(msg)
		return m, cmd
	}

	if m.currentView == ViewChat {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleUserLoaded(msg userLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.initState = InitStateDisconnected
		m.user = nil
		m.setError("Connection failed: " + msg.err.Error())
		m.logger.Warn("current user request failed", zap.Error(msg.err))
		return m, nil
	}

	user := msg.user
	m.user = &user
	m.session.SetUser(user.IDString(), user.DisplayName())
	if err := m.state.SetUserID(&user.ID); err != nil {
		m.logger.Debug("failed to store user id", zap.Error(err))
	}
	m.setStatus("Connected as " + user.DisplayName())
	m.logger.Info("connected", zap.Uint64("user_id", user.ID))

	var cmds []tea.Cmd
	if m.opts.WorkspaceID != 0 {
		cmds = append(cmds, m.fetchTeam())
	}
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		cmds = append(cmds, m.fetchAvatar(*user.ProfilePicture))
	}
	cmds = append(cmds, m.startChannelLoad())

	return m, tea.Batch(cmds...)
}

func (m *Model) handleAvatarLoaded(msg avatarLoadedMsg) {
	if msg.err != nil {
		m.logger.Debug("avatar download failed", zap.Error(msg.err))
		return
	}
	path, err := client.SaveAvatar(m.state.GetStateDir(), msg.data)
	if err != nil {
		m.logger.Debug("avatar not saved", zap.Error(err))
		return
	}
	m.notifier.SetIcon(path)
}

// reconnect retries the current user fetch after a failure
func (m *Model) reconnect() tea.Cmd {
	if m.api == nil {
		return nil
	}
	m.initState = InitStateConnecting
	m.setStatus("Connecting to ClickUp…")
	return m.fetchUser()
}

// startChannelLoad requests the channel list unless one is already loading
func (m *Model) startChannelLoad() tea.Cmd {
	if m.loadingChannels {
		return nil
	}
	if m.loader == nil {
		m.setError(startupMessage(m.opts.StartupError))
		return nil
	}

	m.loadingChannels = true
	if m.initState != InitStateReady {
		m.initState = InitStateLoadingChannels
	}
	m.setStatus("Loading chats…")

	var currentUserID *uint64
	if m.user != nil {
		id := m.user.ID
		currentUserID = &id
	}
	return m.fetchChannels(currentUserID)
}

func (m Model) handleChannelsLoaded(msg channelsLoadedMsg) (tea.Model, tea.Cmd) {
	m.loadingChannels = false
	if !msg.result.OK() {
		m.setError("Error: " + msg.result.Err.Error())
		m.logger.Warn("channel list failed", zap.Error(msg.result.Err), zap.Stringer("kind", msg.result.Kind()))
		return m, nil
	}

	m.initState = InitStateReady
	m.channels = msg.result.Value
	m.setStatus("Ready")
	m.updateUnread()

	if m.channelCursor >= len(m.channels) {
		m.channelCursor = max(0, len(m.channels)-1)
	}

	if !m.HasCurrentChannel() {
		if last := m.state.GetLastChannel(); last != "" {
			for i, ch := range m.channels {
				if ch.ID == last {
					return m, m.selectChannel(i)
				}
			}
		}
	}
	return m, nil
}

// updateUnread marks channels with activity after their stored read time.
// Channels that were never opened have no baseline and are left unmarked.
func (m *Model) updateUnread() {
	active := m.CurrentChannelID()
	for _, ch := range m.channels {
		if ch.ID == active || ch.LatestCommentAt == nil {
			delete(m.unread, ch.ID)
			continue
		}
		readAt, err := m.state.GetReadState(ch.ID)
		if err != nil {
			m.logger.Debug("read state lookup failed", zap.String("channel", ch.ID), zap.Error(err))
			continue
		}
		if readAt.IsZero() {
			delete(m.unread, ch.ID)
			continue
		}
		m.unread[ch.ID] = *ch.LatestCommentAt > readAt.UnixMilli()
	}
}

func (m *Model) markRead(channelID string) {
	if err := m.state.UpdateReadState(channelID, time.Now()); err != nil {
		m.logger.Debug("failed to store read state", zap.String("channel", channelID), zap.Error(err))
	}
	delete(m.unread, channelID)
}

// selectChannel opens the channel at index i and starts loading its history
func (m *Model) selectChannel(i int) tea.Cmd {
	if i < 0 || i >= len(m.channels) || m.loader == nil {
		return nil
	}

	ch := m.channels[i]
	m.channelCursor = i
	ticket, ok := m.session.SelectChannel(ch)

	m.seen = make(map[string]struct{})
	m.renderer.reset()
	m.markRead(ch.ID)
	if err := m.state.SetLastChannel(ch.ID); err != nil {
		m.logger.Debug("failed to store last channel", zap.Error(err))
	}
	m.input.Placeholder = "Message " + ch.IconPrefix() + ch.DisplayName()
	m.rebuildChat(true)

	focus := m.focusChat()
	if !ok {
		return focus
	}
	return tea.Batch(focus, m.fetchHistory(ticket))
}

// reloadChat re-runs the full load for the open channel
func (m *Model) reloadChat() tea.Cmd {
	if m.loader == nil {
		return nil
	}
	ticket, ok := m.session.BeginLoad()
	if !ok {
		return nil
	}
	return m.fetchHistory(ticket)
}

func (m Model) handleHistoryLoaded(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	applied, err := m.session.ApplyHistory(msg.result)
	if err != nil {
		m.setError("Error: " + err.Error())
		m.logger.Warn("history load failed",
			zap.String("channel", msg.result.Ticket.ChannelID),
			zap.Stringer("kind", clickup.KindOf(err)),
			zap.Error(err))
	}
	if !applied {
		// The loading placeholder may have to go even when nothing changed
		m.rebuildChat(false)
		return m, nil
	}

	m.markSeen(m.session.Confirmed())
	m.markRead(msg.result.Ticket.ChannelID)
	m.rebuildChat(true)
	return m, nil
}

func (m Model) handleRefreshLoaded(msg refreshLoadedMsg) (tea.Model, tea.Cmd) {
	// Without a baseline every message would look new
	baseline := m.session.Synced()
	if !m.session.ApplyRefresh(msg.result) {
		if err := msg.result.Messages.Err; err != nil {
			m.logger.Debug("silent refresh failed", zap.String("channel", msg.result.Ticket.ChannelID), zap.Error(err))
		}
		return m, nil
	}

	var incoming []clickup.Message
	if baseline {
		incoming = m.unseenIncoming(m.session.Confirmed())
	}
	m.markSeen(m.session.Confirmed())
	m.markRead(msg.result.Ticket.ChannelID)
	m.rebuildChat(false)

	if len(incoming) == 0 {
		return m, nil
	}
	title, body := m.incomingNotification(incoming)
	return m, m.notify(title, body, false)
}

// unseenIncoming returns messages from other people that were not shown yet
func (m Model) unseenIncoming(messages []clickup.Message) []clickup.Message {
	var out []clickup.Message
	for _, msg := range messages {
		if _, ok := m.seen[msg.ID]; ok {
			continue
		}
		if m.session.IsOwn(msg) {
			continue
		}
		out = append(out, msg)
	}
	return out
}

func (m *Model) markSeen(messages []clickup.Message) {
	for _, msg := range messages {
		m.seen[msg.ID] = struct{}{}
	}
}

func (m Model) incomingNotification(incoming []clickup.Message) (string, string) {
	ch, _ := m.session.Channel()
	title := ch.IconPrefix() + ch.DisplayName()
	if len(incoming) == 1 {
		msg := incoming[0]
		return title, m.directory.AuthorName(msg) + ": " + client.Truncate(msg.DisplayContent(), 120)
	}
	return title, fmt.Sprintf("%d new messages", len(incoming))
}

// sendInput posts the input text optimistically. The input is cleared
// even when there is nothing to send.
func (m *Model) sendInput() tea.Cmd {
	content := m.input.Value()
	m.input.Reset()

	if m.loader == nil {
		return nil
	}
	pending, ok := m.session.Send(content)
	if !ok {
		return nil
	}
	m.rebuildChat(true)
	return m.performSend(pending)
}

func (m Model) handleSendCompleted(msg sendCompletedMsg) (tea.Model, tea.Cmd) {
	applied, err := m.session.ApplySend(msg.result)

	var cmd tea.Cmd
	if err != nil {
		m.setError("Error: " + err.Error())
		m.logger.Warn("send failed",
			zap.String("channel", msg.result.Pending.Ticket.ChannelID),
			zap.String("temp_id", msg.result.Pending.TempID),
			zap.Error(err))
		cmd = m.notify("Message not sent", client.Truncate(msg.result.Pending.Content, 120), true)
	}

	if applied {
		if msg.result.Message.OK() {
			m.seen[msg.result.Message.Value.ID] = struct{}{}
		}
		m.rebuildChat(true)
	}
	return m, cmd
}

func (m *Model) focusChat() tea.Cmd {
	m.currentView = ViewChat
	return m.input.Focus()
}

func (m *Model) focusChannelList() {
	m.currentView = ViewChannelList
	m.input.Blur()
}

func (m *Model) openHelp() {
	help := m.commands.GenerateHelp(int(m.currentView), modal.ModalNone, m)
	m.modalStack.Push(modal.NewHelpModal(help))
}

func (m *Model) scrollChat(key tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	m.chatViewport, cmd = m.chatViewport.Update(key)
	return cmd
}

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aeolun/clicklite/pkg/chat"
	"github.com/aeolun/clicklite/pkg/clickup"
	"github.com/aeolun/clicklite/pkg/client"
	"github.com/aeolun/clicklite/pkg/client/ui/commands"
	"github.com/aeolun/clicklite/pkg/client/ui/modal"
)

const defaultRefreshInterval = 5 * time.Second

// API is the part of the ClickUp client the UI talks to
type API interface {
	chat.Transport
	CurrentUser(ctx context.Context) (clickup.User, error)
	TeamMembers(ctx context.Context, workspaceID uint64) ([]clickup.User, error)
	FetchAvatar(ctx context.Context, pictureURL string) ([]byte, error)
}

// Options configure the UI. Zero values fall back to defaults.
type Options struct {
	Version         string
	WorkspaceID     uint64
	RefreshInterval time.Duration
	ShowTimestamps  bool
	TimestampFormat string // "relative" or "absolute"
	MarkdownStyle   string // "auto", "dark", "light" or "notty"

	// StartupError is a credential problem shown on the status line.
	// A nil API or a zero WorkspaceID should come with one.
	StartupError error
}

// Model represents the application state
type Model struct {
	// Backends
	api      API
	loader   *chat.Loader // nil without a workspace
	session  *chat.Session
	state    client.StateInterface
	notifier client.Notifier
	logger   *zap.Logger
	opts     Options

	// ctx is cancelled on quit so in-flight requests stop
	ctx    context.Context
	cancel context.CancelFunc

	// Current view and modals
	initState   InitState
	currentView ViewState
	modalStack  modal.ModalStack

	// Workspace state
	user            *clickup.User
	directory       chat.Directory
	channels        []clickup.Channel
	channelCursor   int
	loadingChannels bool
	unread          map[string]bool

	// seen holds the ids of messages already shown in the open channel
	seen map[string]struct{}

	// UI state
	width        int
	height       int
	chatViewport viewport.Model
	input        textinput.Model
	spinner      spinner.Model
	renderer     *messageRenderer

	// Status line
	status        string
	statusIsError bool

	// Command system
	commands *commands.Registry
}

// NewModel creates the application model. api may be nil when no token is
// configured; the UI then only shows opts.StartupError.
func NewModel(api API, state client.StateInterface, notifier client.Notifier, logger *zap.Logger, opts Options) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = client.NopNotifier{}
	}
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = defaultRefreshInterval
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	ti := textinput.New()
	ti.Prompt = "› "
	ti.Placeholder = "Select a chat to start messaging"

	m := Model{
		api:          api,
		session:      chat.NewSession(),
		state:        state,
		notifier:     notifier,
		logger:       logger,
		opts:         opts,
		ctx:          ctx,
		cancel:       cancel,
		currentView:  ViewChannelList,
		modalStack:   modal.ModalStack{},
		unread:       make(map[string]bool),
		seen:         make(map[string]struct{}),
		chatViewport: viewport.New(0, 0),
		input:        ti,
		spinner:      s,
		renderer:     newMessageRenderer(opts.MarkdownStyle),
	}

	if api != nil && opts.WorkspaceID != 0 {
		m.loader = chat.NewLoader(api, opts.WorkspaceID, logger)
	}

	if api == nil {
		m.initState = InitStateUnconfigured
		m.setError(startupMessage(opts.StartupError))
	} else {
		m.initState = InitStateConnecting
		m.setStatus("Connecting to ClickUp…")
	}

	m.commands = commands.NewRegistry()
	m.registerCommands()

	return m
}

func startupMessage(err error) string {
	if err == nil {
		return "Not configured"
	}
	return err.Error()
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusIsError = false
}

func (m *Model) setError(s string) {
	m.status = s
	m.statusIsError = true
}

// registerCommands sets up all keyboard commands
func (m *Model) registerCommands() {
	// === Global Commands ===

	m.commands.Register(commands.NewCommand().
		Keys("ctrl+c").
		Help("Quit from anywhere").
		Global().
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			model.cancel()
			return model, tea.Quit
		}).
		HideInFooter().
		Priority(999).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("tab").
		Name("Switch").
		Help("Switch between the chat list and the message box").
		Global().
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			model := i.(*Model)
			return model.currentView == ViewChat || model.HasCurrentChannel()
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			if model.currentView == ViewChat {
				model.focusChannelList()
				return model, nil
			}
			return model, model.focusChat()
		}).
		Priority(10).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("ctrl+r").
		Name("Reload").
		Help("Reload the open chat from the server").
		Global().
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			return i.(*Model).HasCurrentChannel()
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.reloadChat()
		}).
		Priority(50).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("pgup").
		Name("Scroll").
		Help("Scroll messages up a page").
		Global().
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			return i.(*Model).HasCurrentChannel()
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.scrollChat(tea.KeyMsg{Type: tea.KeyPgUp})
		}).
		Priority(60).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("pgdown").
		Help("Scroll messages down a page").
		Global().
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			return i.(*Model).HasCurrentChannel()
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.scrollChat(tea.KeyMsg{Type: tea.KeyPgDown})
		}).
		HideInFooter().
		Priority(61).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("f1").
		Help("Show keyboard shortcuts").
		Global().
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			model.openHelp()
			return model, nil
		}).
		HideInFooter().
		Priority(950).
		Build())

	// === Channel list commands ===

	m.commands.Register(commands.NewCommand().
		Keys("up", "k").
		Name("Navigate").
		Help("Previous chat").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			if model.channelCursor > 0 {
				model.channelCursor--
			}
			return model, nil
		}).
		Priority(20).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("down", "j").
		Help("Next chat").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			if model.channelCursor < len(model.channels)-1 {
				model.channelCursor++
			}
			return model, nil
		}).
		HideInFooter().
		Priority(21).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("enter").
		Name("Open").
		Help("Open the selected chat").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			return len(i.(*Model).channels) > 0
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.selectChannel(model.channelCursor)
		}).
		Priority(30).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("r").
		Name("Refresh").
		Help("Reload the chat list, or retry connecting").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			model := i.(*Model)
			if model.loadingChannels {
				return false
			}
			return model.initState.Connected() || model.initState == InitStateDisconnected
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			if model.initState == InitStateDisconnected {
				return model, model.reconnect()
			}
			return model, model.startChannelLoad()
		}).
		Priority(70).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("?").
		Name("Help").
		Help("Show keyboard shortcuts").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			model.openHelp()
			return model, nil
		}).
		Priority(900).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("q").
		Name("Quit").
		Help("Quit the application").
		InViews(int(ViewChannelList)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			model.cancel()
			return model, tea.Quit
		}).
		Priority(910).
		Build())

	// === Chat commands ===

	m.commands.Register(commands.NewCommand().
		Keys("enter").
		Name("Send").
		Help("Send the message").
		InViews(int(ViewChat)).
		InModals(modal.ModalNone).
		When(func(i interface{}) bool {
			return i.(*Model).HasCurrentChannel()
		}).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.sendInput()
		}).
		Priority(20).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("up").
		Help("Scroll messages up a line").
		InViews(int(ViewChat)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.scrollChat(tea.KeyMsg{Type: tea.KeyUp})
		}).
		HideInFooter().
		Priority(62).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("down").
		Help("Scroll messages down a line").
		InViews(int(ViewChat)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			return model, model.scrollChat(tea.KeyMsg{Type: tea.KeyDown})
		}).
		HideInFooter().
		Priority(63).
		Build())

	m.commands.Register(commands.NewCommand().
		Keys("esc").
		Name("Back").
		Help("Return to the chat list").
		InViews(int(ViewChat)).
		InModals(modal.ModalNone).
		Do(func(i interface{}) (interface{}, tea.Cmd) {
			model := i.(*Model)
			model.focusChannelList()
			return model, nil
		}).
		Priority(80).
		Build())
}

// Messages produced by commands

type userLoadedMsg struct {
	user clickup.User
	err  error
}

type teamLoadedMsg struct {
	users []clickup.User
	err   error
}

type avatarLoadedMsg struct {
	data []byte
	err  error
}

type channelsLoadedMsg struct {
	result chat.Result[[]clickup.Channel]
}

type historyLoadedMsg struct {
	result chat.HistoryResult
}

type refreshLoadedMsg struct {
	result chat.HistoryResult
}

type sendCompletedMsg struct {
	result chat.SendResult
}

// refreshTickMsg is sent every refresh interval
type refreshTickMsg time.Time

// Init starts the refresh timer and, when a token is configured, the user fetch
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spinner.Tick,
		refreshTickCmd(m.opts.RefreshInterval),
	}
	if m.api != nil {
		cmds = append(cmds, m.fetchUser())
	}
	return tea.Batch(cmds...)
}

func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

func (m Model) fetchUser() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		user, err := api.CurrentUser(ctx)
		return userLoadedMsg{user: user, err: err}
	}
}

func (m Model) fetchTeam() tea.Cmd {
	api, ctx, ws := m.api, m.ctx, m.opts.WorkspaceID
	return func() tea.Msg {
		users, err := api.TeamMembers(ctx, ws)
		return teamLoadedMsg{users: users, err: err}
	}
}

func (m Model) fetchAvatar(pictureURL string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		data, err := api.FetchAvatar(ctx, pictureURL)
		return avatarLoadedMsg{data: data, err: err}
	}
}

func (m Model) fetchChannels(currentUserID *uint64) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		return channelsLoadedMsg{result: loader.LoadChannels(ctx, currentUserID)}
	}
}

func (m Model) fetchHistory(ticket chat.Ticket) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		return historyLoadedMsg{result: loader.FetchHistory(ctx, ticket)}
	}
}

func (m Model) fetchRefresh(ticket chat.Ticket) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		return refreshLoadedMsg{result: loader.FetchHistory(ctx, ticket)}
	}
}

func (m Model) performSend(p chat.PendingSend) tea.Cmd {
	loader, ctx := m.loader, m.ctx
	return func() tea.Msg {
		return sendCompletedMsg{result: loader.PerformSend(ctx, p)}
	}
}

// notify shows a desktop notification off the UI loop
func (m Model) notify(title, body string, alert bool) tea.Cmd {
	n := m.notifier
	return func() tea.Msg {
		if alert {
			_ = n.Alert(title, body)
		} else {
			_ = n.Notify(title, body)
		}
		return nil
	}
}

package ui

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeolun/clicklite/pkg/chat"
	"github.com/aeolun/clicklite/pkg/clickup"
	"github.com/aeolun/clicklite/pkg/client"
)

const testWorkspaceID = 9001

// fakeAPI serves canned ClickUp responses
type fakeAPI struct {
	mu sync.Mutex

	user     clickup.User
	userErr  error
	team     []clickup.User
	channels []clickup.Channel
	messages map[string][]clickup.Message
	sent     clickup.Message
	sendErr  error

	sendCalls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:     clickup.User{ID: 42, Username: "alice"},
		messages: make(map[string][]clickup.Message),
	}
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (clickup.User, error) {
	return f.user, f.userErr
}

func (f *fakeAPI) TeamMembers(ctx context.Context, workspaceID uint64) ([]clickup.User, error) {
	return f.team, nil
}

func (f *fakeAPI) FetchAvatar(ctx context.Context, pictureURL string) ([]byte, error) {
	return nil, errors.New("no avatars here")
}

func (f *fakeAPI) ListChannels(ctx context.Context, workspaceID uint64) ([]clickup.Channel, error) {
	return f.channels, nil
}

func (f *fakeAPI) ListChannelMembers(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Member, error) {
	return nil, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Message, error) {
	return f.messages[channelID], nil
}

func (f *fakeAPI) SendMessage(ctx context.Context, workspaceID uint64, channelID, content string) (clickup.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, content)
	return f.sent, f.sendErr
}

// recordingNotifier remembers what would have been shown
type recordingNotifier struct {
	mu     sync.Mutex
	notes  []string
	alerts []string
}

func (n *recordingNotifier) Notify(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, title+"|"+message)
	return nil
}

func (n *recordingNotifier) Alert(title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, title+"|"+message)
	return nil
}

func (n *recordingNotifier) SetIcon(path string) {}

func ptr[T any](v T) *T { return &v }

func testChannel(id, name, typ string) clickup.Channel {
	return clickup.Channel{ID: id, Name: ptr(name), Type: typ}
}

func testMessage(id, content, userID string) clickup.Message {
	return clickup.Message{ID: id, Content: ptr(content), UserID: ptr(userID)}
}

// NewTestModel builds a model backed by a fake API and an in-memory state
func NewTestModel() Model {
	return newTestModelWith(newFakeAPI(), client.NewMockState())
}

func newTestModelWith(api API, state client.StateInterface) Model {
	return NewModel(api, state, client.NopNotifier{}, nil, Options{
		Version:         "test",
		WorkspaceID:     testWorkspaceID,
		ShowTimestamps:  true,
		TimestampFormat: "absolute",
		MarkdownStyle:   "notty",
	})
}

// SetupTestModelWithDimensions returns a test model that has seen a window size
func SetupTestModelWithDimensions(width, height int) Model {
	m := NewTestModel()
	next, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return next.(Model)
}

// withChannels feeds a successful channel list into m
func withChannels(m Model, channels ...clickup.Channel) Model {
	next, _ := m.Update(channelsLoadedMsg{result: chat.Success(channels)})
	return next.(Model)
}

// openChannel selects channel i through the keyboard and returns the ticket
// of the load it started
func openChannel(m Model, i int) (Model, chat.Ticket) {
	m.channelCursor = i
	m.currentView = ViewChannelList
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	return m, chat.Ticket{ChannelID: m.CurrentChannelID(), Generation: m.session.Generation()}
}

func applyHistory(m Model, ticket chat.Ticket, messages ...clickup.Message) Model {
	next, _ := m.Update(historyLoadedMsg{result: chat.HistoryResult{
		Ticket:   ticket,
		Messages: chat.Success(messages),
	}})
	return next.(Model)
}

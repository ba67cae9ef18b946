package chat

import (
	"context"
	"sync"

	"github.com/aeolun/clicklite/pkg/clickup"
)

// fakeTransport serves canned responses and records calls
type fakeTransport struct {
	mu sync.Mutex

	channels    []clickup.Channel
	channelsErr error
	members     map[string][]clickup.Member
	membersErr  error
	messages    map[string][]clickup.Message
	messagesErr error
	sent        clickup.Message
	sendErr     error

	memberCalls []string
	sendCalls   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		members:  make(map[string][]clickup.Member),
		messages: make(map[string][]clickup.Message),
	}
}

func (f *fakeTransport) ListChannels(ctx context.Context, workspaceID uint64) ([]clickup.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channelsErr != nil {
		return nil, f.channelsErr
	}
	return append([]clickup.Channel(nil), f.channels...), nil
}

func (f *fakeTransport) ListChannelMembers(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.memberCalls = append(f.memberCalls, channelID)
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[channelID], nil
}

func (f *fakeTransport) ListMessages(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.messagesErr != nil {
		return nil, f.messagesErr
	}
	return append([]clickup.Message(nil), f.messages[channelID]...), nil
}

func (f *fakeTransport) SendMessage(ctx context.Context, workspaceID uint64, channelID, content string) (clickup.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendCalls = append(f.sendCalls, content)
	if f.sendErr != nil {
		return clickup.Message{}, f.sendErr
	}
	return f.sent, nil
}

func ptr[T any](v T) *T { return &v }

func msg(id, content, userID string) clickup.Message {
	m := clickup.Message{ID: id, Content: ptr(content)}
	if userID != "" {
		m.UserID = ptr(userID)
	}
	return m
}

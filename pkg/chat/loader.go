package chat

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/aeolun/clicklite/pkg/clickup"
)

// unknownCreatorID is what Message.CreatorID reports when no author is known
const unknownCreatorID = "0"

// Transport is the subset of the ClickUp API the chat engine needs
type Transport interface {
	ListChannels(ctx context.Context, workspaceID uint64) ([]clickup.Channel, error)
	ListChannelMembers(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Member, error)
	ListMessages(ctx context.Context, workspaceID uint64, channelID string) ([]clickup.Message, error)
	SendMessage(ctx context.Context, workspaceID uint64, channelID, content string) (clickup.Message, error)
}

// Loader runs the network side of the engine. It holds no message state and
// is safe to use from several goroutines.
type Loader struct {
	transport   Transport
	workspaceID uint64
	logger      *zap.Logger
}

func NewLoader(transport Transport, workspaceID uint64, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{transport: transport, workspaceID: workspaceID, logger: logger}
}

// FetchHistory loads the newest page of a channel, oldest first, with
// creator details filled in where the API left them out
func (l *Loader) FetchHistory(ctx context.Context, ticket Ticket) HistoryResult {
	messages, err := l.transport.ListMessages(ctx, l.workspaceID, ticket.ChannelID)
	if err != nil {
		return HistoryResult{Ticket: ticket, Messages: Failure[[]clickup.Message](err)}
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	messages = l.EnrichCreators(ctx, ticket.ChannelID, messages)

	return HistoryResult{Ticket: ticket, Messages: Success(messages)}
}

// EnrichCreators attaches member details to messages whose creator has no
// username or email. Member lookup failures are ignored.
func (l *Loader) EnrichCreators(ctx context.Context, channelID string, messages []clickup.Message) []clickup.Message {
	needed := false
	for _, m := range messages {
		if !m.HasCreatorIdentity() {
			needed = true
			break
		}
	}
	if !needed {
		return messages
	}

	members, err := l.transport.ListChannelMembers(ctx, l.workspaceID, channelID)
	if err != nil {
		l.logger.Debug("member lookup failed", zap.String("channel", channelID), zap.Error(err))
		return messages
	}

	byID := make(map[string]clickup.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	for i := range messages {
		if messages[i].HasCreatorIdentity() {
			continue
		}
		id := messages[i].CreatorID()
		if id == unknownCreatorID {
			continue
		}
		if member, ok := byID[id]; ok {
			messages[i].Creator = &clickup.Creator{
				ID:       member.ID,
				Username: member.Username,
				Email:    member.Email,
			}
		}
	}
	return messages
}

// PerformSend posts an optimistic message
func (l *Loader) PerformSend(ctx context.Context, p PendingSend) SendResult {
	msg, err := l.transport.SendMessage(ctx, l.workspaceID, p.Ticket.ChannelID, p.Content)
	if err != nil {
		return SendResult{Pending: p, Message: Failure[clickup.Message](err)}
	}
	return SendResult{Pending: p, Message: Success(msg)}
}

// LoadChannels lists the followed channels and names unnamed DMs after the
// other participants
func (l *Loader) LoadChannels(ctx context.Context, currentUserID *uint64) Result[[]clickup.Channel] {
	channels, err := l.transport.ListChannels(ctx, l.workspaceID)
	if err != nil {
		return Failure[[]clickup.Channel](err)
	}

	for i := range channels {
		ch := &channels[i]
		if !ch.IsDirect() || ch.Name != nil {
			continue
		}

		members, err := l.transport.ListChannelMembers(ctx, l.workspaceID, ch.ID)
		if err != nil {
			l.logger.Debug("dm member lookup failed", zap.String("channel", ch.ID), zap.Error(err))
			continue
		}

		var names []string
		for _, m := range members {
			if currentUserID != nil {
				if id, err := strconv.ParseUint(m.ID, 10, 64); err == nil && id == *currentUserID {
					continue
				}
			}
			if m.Username != nil {
				names = append(names, *m.Username)
			}
		}
		if len(names) > 0 {
			name := strings.Join(names, ", ")
			ch.Name = &name
		}
	}

	return Success(channels)
}

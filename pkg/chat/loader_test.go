package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeolun/clicklite/pkg/clickup"
)

func TestFetchHistoryReversesToOldestFirst(t *testing.T) {
	transport := newFakeTransport()
	transport.messages["c1"] = []clickup.Message{
		withCreator(msg("m3", "c", "1"), "ann"),
		withCreator(msg("m2", "b", "1"), "ann"),
		withCreator(msg("m1", "a", "1"), "ann"),
	}
	loader := NewLoader(transport, 9, nil)

	ticket := Ticket{ChannelID: "c1", Generation: 3}
	result := loader.FetchHistory(context.Background(), ticket)

	require.True(t, result.Messages.OK())
	assert.Equal(t, ticket, result.Ticket)
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(result.Messages.Value))
	assert.Empty(t, transport.memberCalls, "no member lookup when every creator is known")
}

func TestFetchHistoryFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.messagesErr = &clickup.Error{Kind: clickup.KindParse, Op: "list messages", Err: errors.New("bad")}
	loader := NewLoader(transport, 9, nil)

	result := loader.FetchHistory(context.Background(), Ticket{ChannelID: "c1", Generation: 1})
	assert.False(t, result.Messages.OK())
	assert.Equal(t, clickup.KindParse, result.Messages.Kind())
}

func TestEnrichCreators(t *testing.T) {
	transport := newFakeTransport()
	transport.members["c1"] = []clickup.Member{
		{ID: "1", Username: ptr("ann")},
		{ID: "2", Email: ptr("bob@example.com")},
	}
	loader := NewLoader(transport, 9, nil)

	bare := clickup.Message{ID: "m4", Content: ptr("d"), Creator: &clickup.Creator{ID: "2"}}
	messages := []clickup.Message{
		msg("m1", "a", "1"),
		withCreator(msg("m2", "b", "1"), "kept"),
		msg("m3", "c", ""),
		bare,
		msg("m5", "e", "99"),
	}

	got := loader.EnrichCreators(context.Background(), "c1", messages)

	assert.Equal(t, "ann", got[0].CreatorName())
	assert.Nil(t, got[0].Creator.ProfilePicture)
	assert.Equal(t, "kept", got[1].CreatorName(), "existing identity is not overwritten")
	assert.Equal(t, "Unknown User", got[2].CreatorName(), "unknown author is skipped")
	assert.Equal(t, "bob@example.com", got[3].CreatorName())
	assert.Equal(t, "Unknown User", got[4].CreatorName(), "non-member is left alone")
	assert.Equal(t, []string{"c1"}, transport.memberCalls, "members are fetched once")
}

func TestEnrichCreatorsIgnoresMemberFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.membersErr = errors.New("forbidden")
	loader := NewLoader(transport, 9, nil)

	got := loader.EnrichCreators(context.Background(), "c1", []clickup.Message{msg("m1", "a", "1")})
	require.Len(t, got, 1)
	assert.Equal(t, "Unknown User", got[0].CreatorName())
}

func TestPerformSend(t *testing.T) {
	transport := newFakeTransport()
	transport.sent = msg("X", "hello", "42")
	loader := NewLoader(transport, 9, nil)

	p := PendingSend{Ticket: Ticket{ChannelID: "c1", Generation: 1}, TempID: "pending_1", Content: "hello"}
	result := loader.PerformSend(context.Background(), p)

	require.True(t, result.Message.OK())
	assert.Equal(t, "X", result.Message.Value.ID)
	assert.Equal(t, p, result.Pending)
	assert.Equal(t, []string{"hello"}, transport.sendCalls)

	transport.sendErr = errors.New("offline")
	result = loader.PerformSend(context.Background(), p)
	assert.False(t, result.Message.OK())
	assert.Equal(t, "pending_1", result.Pending.TempID)
}

func TestLoadChannelsNamesDirectMessages(t *testing.T) {
	transport := newFakeTransport()
	transport.channels = []clickup.Channel{
		{ID: "c1", Name: ptr("general"), Type: "CHANNEL"},
		{ID: "d1", Type: "DM"},
		{ID: "d2", Type: "DM"},
		{ID: "d3", Type: "DM", Name: ptr("")},
	}
	transport.members["d1"] = []clickup.Member{
		{ID: "42", Username: ptr("me")},
		{ID: "7", Username: ptr("bob")},
		{ID: "8", Username: ptr("cat")},
		{ID: "9"},
	}
	transport.members["d2"] = []clickup.Member{{ID: "42", Username: ptr("me")}}
	loader := NewLoader(transport, 9, nil)

	me := uint64(42)
	result := loader.LoadChannels(context.Background(), &me)
	require.True(t, result.OK())

	channels := result.Value
	require.Len(t, channels, 4)
	assert.Equal(t, "general", channels[0].DisplayName())
	assert.Equal(t, "bob, cat", channels[1].DisplayName())
	assert.Equal(t, "Direct Message", channels[2].DisplayName(), "only self in the DM")
	assert.Equal(t, "Direct Message", channels[3].DisplayName())
	assert.Equal(t, []string{"d1", "d2"}, transport.memberCalls)
}

func TestLoadChannelsWithoutCurrentUser(t *testing.T) {
	transport := newFakeTransport()
	transport.channels = []clickup.Channel{{ID: "d1", Type: "DM"}}
	transport.members["d1"] = []clickup.Member{{ID: "42", Username: ptr("me")}, {ID: "7", Username: ptr("bob")}}
	loader := NewLoader(transport, 9, nil)

	result := loader.LoadChannels(context.Background(), nil)
	require.True(t, result.OK())
	assert.Equal(t, "me, bob", result.Value[0].DisplayName())
}

func TestLoadChannelsFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.channelsErr = &clickup.Error{Kind: clickup.KindNetwork, Op: "list channels", Status: 401, Body: "unauthorized"}
	loader := NewLoader(transport, 9, nil)

	result := loader.LoadChannels(context.Background(), nil)
	assert.False(t, result.OK())
	assert.Equal(t, clickup.KindNetwork, result.Kind())
}

func TestDirectoryAuthorName(t *testing.T) {
	dir := NewDirectory([]clickup.User{
		{ID: 7, Username: "bob"},
		{ID: 8, Email: "cat@example.com"},
	})

	assert.Equal(t, 2, dir.Len())
	assert.Equal(t, "bob", dir.AuthorName(msg("m1", "x", "7")))
	assert.Equal(t, "cat@example.com", dir.AuthorName(msg("m2", "x", "8")))
	assert.Equal(t, "Unknown User", dir.AuthorName(msg("m3", "x", "9")))
	assert.Equal(t, "ann", dir.AuthorName(withCreator(msg("m4", "x", "7"), "ann")))

	_, ok := dir.Lookup("7")
	assert.True(t, ok)
}

func withCreator(m clickup.Message, username string) clickup.Message {
	m.Creator = &clickup.Creator{ID: m.CreatorID(), Username: ptr(username)}
	return m
}

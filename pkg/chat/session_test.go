package chat

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/aeolun/clicklite/pkg/clickup"
)

var general = clickup.Channel{ID: "c1", Name: ptr("general"), Type: "CHANNEL"}
var random = clickup.Channel{ID: "c2", Name: ptr("random"), Type: "CHANNEL"}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession()
	s.SetUser("42", "ann")
	fixed := time.UnixMilli(1700000000000)
	s.now = func() time.Time { return fixed }
	return s
}

func history(ticket Ticket, msgs ...clickup.Message) HistoryResult {
	return HistoryResult{Ticket: ticket, Messages: Success(msgs)}
}

func ids(msgs []clickup.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestSelectChannelStartsLoad(t *testing.T) {
	s := newTestSession(t)

	ticket, ok := s.SelectChannel(general)
	require.True(t, ok)
	assert.Equal(t, Ticket{ChannelID: "c1", Generation: 1}, ticket)
	assert.True(t, s.Loading())

	_, again := s.BeginLoad()
	assert.False(t, again, "second load must wait for the first")

	applied, err := s.ApplyHistory(history(ticket, msg("m1", "hi", "7")))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"m1"}, ids(s.VisibleMessages()))

	_, ok = s.BeginLoad()
	assert.True(t, ok)
}

func TestBeginLoadWithoutChannel(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.BeginLoad()
	assert.False(t, ok)
	_, ok = s.BeginRefresh()
	assert.False(t, ok)
}

func TestSelectChannelDiscardsStaleResults(t *testing.T) {
	s := newTestSession(t)

	oldLoad, _ := s.SelectChannel(general)
	oldRefresh, _ := s.BeginRefresh()
	_, ok := s.Send("draft for general")
	require.True(t, ok)

	newLoad, ok := s.SelectChannel(random)
	require.True(t, ok, "switching channel must not be blocked by the old load")
	assert.Empty(t, s.VisibleMessages())
	assert.Empty(t, s.PendingIDs())

	applied, err := s.ApplyHistory(history(oldLoad, msg("g1", "old", "7")))
	assert.False(t, applied)
	assert.NoError(t, err)
	assert.False(t, s.ApplyRefresh(history(oldRefresh, msg("g2", "old", "7"))))
	assert.Empty(t, s.VisibleMessages())
	assert.True(t, s.Loading(), "stale result must not clear the new load")

	applied, err = s.ApplyHistory(history(newLoad, msg("r1", "new", "7")))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"r1"}, ids(s.VisibleMessages()))
}

func TestReselectSameChannelBumpsGeneration(t *testing.T) {
	s := newTestSession(t)
	first, _ := s.SelectChannel(general)
	second, _ := s.SelectChannel(general)

	assert.NotEqual(t, first, second)
	applied, _ := s.ApplyHistory(history(first, msg("m1", "x", "")))
	assert.False(t, applied)
}

func TestApplyHistoryFailureKeepsState(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket, msg("m1", "hi", "7")))

	ticket, ok := s.BeginLoad()
	require.True(t, ok)
	boom := errors.New("boom")
	applied, err := s.ApplyHistory(HistoryResult{Ticket: ticket, Messages: Failure[[]clickup.Message](boom)})

	assert.False(t, applied)
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.Loading())
	assert.Equal(t, []string{"m1"}, ids(s.VisibleMessages()))
}

func TestSendAppendsPendingMessage(t *testing.T) {
	s := newTestSession(t)
	s.SelectChannel(general)
	before := len(s.VisibleMessages())

	p, ok := s.Send("  hello  ")
	require.True(t, ok)

	pendingIDs := s.PendingIDs()
	require.Len(t, pendingIDs, 1)
	assert.Regexp(t, regexp.MustCompile(`^pending_\d+$`), pendingIDs[0])
	assert.Equal(t, p.TempID, pendingIDs[0])

	visible := s.VisibleMessages()
	require.Len(t, visible, before+1)
	last := visible[len(visible)-1]
	assert.True(t, last.Pending)
	assert.Equal(t, "hello", last.DisplayContent())
	assert.Equal(t, "42", last.CreatorID())
	assert.Equal(t, "ann", last.CreatorName())
	assert.True(t, s.IsOwn(last))
}

func TestSendNoop(t *testing.T) {
	s := newTestSession(t)
	_, ok := s.Send("hello")
	assert.False(t, ok, "no channel selected")

	s.SelectChannel(general)
	_, ok = s.Send(" \n\t ")
	assert.False(t, ok, "blank content")
	assert.Empty(t, s.VisibleMessages())
}

func TestSendDefaultsIdentity(t *testing.T) {
	s := NewSession()
	s.SelectChannel(general)

	p, ok := s.Send("hi")
	require.True(t, ok)
	assert.Equal(t, "0", p.UserID)
	assert.Equal(t, "You", p.UserName)
	assert.Equal(t, "You", s.Pending()[0].CreatorName())
}

func TestTempIDsAreUniqueWithinOneMillisecond(t *testing.T) {
	s := newTestSession(t)
	s.SelectChannel(general)

	a, _ := s.Send("one")
	b, _ := s.Send("two")
	c, _ := s.Send("three")

	assert.Equal(t, "pending_1700000000000", a.TempID)
	assert.Equal(t, "pending_1700000000001", b.TempID)
	assert.Equal(t, "pending_1700000000002", c.TempID)
	assert.Len(t, s.PendingIDs(), 3)
}

func TestApplySendSuccess(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket, msg("m1", "earlier", "7")))

	p, _ := s.Send("hello")
	applied, err := s.ApplySend(SendResult{Pending: p, Message: Success(msg("X", "hello", ""))})
	require.NoError(t, err)
	assert.True(t, applied)

	assert.False(t, s.IsPending(p.TempID))
	assert.Empty(t, s.PendingIDs())
	visible := s.VisibleMessages()
	assert.Equal(t, []string{"m1", "X"}, ids(visible))

	sent := visible[1]
	assert.False(t, sent.Pending)
	require.NotNil(t, sent.Creator, "creator is synthesized from the sender")
	assert.Equal(t, "ann", sent.CreatorName())
	assert.Equal(t, "42", sent.CreatorID())
}

func TestApplySendKeepsServerCreator(t *testing.T) {
	s := newTestSession(t)
	s.SelectChannel(general)
	p, _ := s.Send("hello")

	reply := msg("X", "hello", "42")
	reply.Creator = &clickup.Creator{ID: "42", Username: ptr("ann.server")}
	_, err := s.ApplySend(SendResult{Pending: p, Message: Success(reply)})
	require.NoError(t, err)
	assert.Equal(t, "ann.server", s.Confirmed()[0].CreatorName())
}

func TestApplySendAfterRefreshDoesNotDuplicate(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket))

	p, _ := s.Send("hello")
	refresh, _ := s.BeginRefresh()
	require.True(t, s.ApplyRefresh(history(refresh, msg("X", "hello", "42"))))

	_, err := s.ApplySend(SendResult{Pending: p, Message: Success(msg("X", "hello", "42"))})
	require.NoError(t, err)

	visible := s.VisibleMessages()
	count := 0
	for _, m := range visible {
		if m.ID == "X" {
			count++
		}
		assert.NotEqual(t, p.TempID, m.ID)
	}
	assert.Equal(t, 1, count)
	assert.Empty(t, s.PendingIDs())
}

func TestApplySendFailureRollsBack(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket, msg("m1", "earlier", "7")))
	before := len(s.VisibleMessages())

	p, _ := s.Send("hello")
	boom := errors.New("offline")
	applied, err := s.ApplySend(SendResult{Pending: p, Message: Failure[clickup.Message](boom)})

	assert.True(t, applied)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.VisibleMessages(), before)
	assert.Empty(t, s.PendingIDs())
	assert.False(t, s.IsPending(p.TempID))
}

func TestApplySendStaleTicket(t *testing.T) {
	s := newTestSession(t)
	s.SelectChannel(general)
	p, _ := s.Send("hello")
	s.SelectChannel(random)

	applied, err := s.ApplySend(SendResult{Pending: p, Message: Success(msg("X", "hello", "42"))})
	assert.False(t, applied)
	assert.NoError(t, err)
	assert.Empty(t, s.VisibleMessages())

	boom := errors.New("offline")
	applied, err = s.ApplySend(SendResult{Pending: p, Message: Failure[clickup.Message](boom)})
	assert.False(t, applied)
	assert.ErrorIs(t, err, boom, "failure is still reported")
}

func TestRefreshPromotesPending(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket, msg("m1", "a", "7")))

	first, _ := s.Send("one")
	second, _ := s.Send("two")

	// the server already stored the first send under its temp id
	refresh, _ := s.BeginRefresh()
	promoted := msg(first.TempID, "one", "42")
	require.True(t, s.ApplyRefresh(history(refresh, msg("m1", "a", "7"), promoted)))

	assert.Equal(t, []string{second.TempID}, s.PendingIDs())
	assert.Equal(t, []string{"m1", first.TempID}, ids(s.Confirmed()))
	assert.Equal(t, []string{"m1", first.TempID, second.TempID}, ids(s.VisibleMessages()))
}

func TestRefreshFailureIsSilent(t *testing.T) {
	s := newTestSession(t)
	ticket, _ := s.SelectChannel(general)
	_, _ = s.ApplyHistory(history(ticket, msg("m1", "a", "7")))

	refresh, ok := s.BeginRefresh()
	require.True(t, ok)
	assert.False(t, s.ApplyRefresh(HistoryResult{Ticket: refresh, Messages: Failure[[]clickup.Message](errors.New("x"))}))
	assert.Equal(t, []string{"m1"}, ids(s.VisibleMessages()))
}

func TestRefreshAllowedDuringLoad(t *testing.T) {
	s := newTestSession(t)
	load, _ := s.SelectChannel(general)

	refresh, ok := s.BeginRefresh()
	require.True(t, ok)
	require.True(t, s.ApplyRefresh(history(refresh, msg("m1", "a", "7"))))
	assert.True(t, s.Loading(), "refresh does not end the load")

	applied, err := s.ApplyHistory(history(load, msg("m1", "a", "7"), msg("m2", "b", "7")))
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, []string{"m1", "m2"}, ids(s.VisibleMessages()))
}

func TestSyncedTracksFirstBatchPerSelection(t *testing.T) {
	s := newTestSession(t)
	load, _ := s.SelectChannel(general)
	assert.False(t, s.Synced())

	_, err := s.ApplyHistory(HistoryResult{Ticket: load, Messages: Failure[[]clickup.Message](errors.New("down"))})
	require.Error(t, err)
	assert.False(t, s.Synced(), "a failed load is not a baseline")

	refresh, _ := s.BeginRefresh()
	require.True(t, s.ApplyRefresh(history(refresh, msg("m1", "a", "7"))))
	assert.True(t, s.Synced())

	s.SelectChannel(random)
	assert.False(t, s.Synced())
}

func TestIsOwnRequiresKnownUser(t *testing.T) {
	s := NewSession()
	assert.False(t, s.IsOwn(msg("m", "x", "0")))
	s.SetUser("7", "bob")
	assert.True(t, s.IsOwn(msg("m", "x", "7")))
	assert.False(t, s.IsOwn(msg("m", "x", "8")))
}

// TestPendingIDsTrackPendingMessages checks that pending ids and pending
// messages stay in lock step through any mix of operations
func TestPendingIDsTrackPendingMessages(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewSession()
		clock := time.UnixMilli(1700000000000)
		s.now = func() time.Time { return clock }
		s.SelectChannel(general)

		var inflight []PendingSend
		serverSeq := 0

		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 4).Draw(t, "op") {
			case 0:
				if p, ok := s.Send("msg"); ok {
					inflight = append(inflight, p)
				}
			case 1:
				if len(inflight) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(inflight)-1).Draw(t, "ok")
				serverSeq++
				_, _ = s.ApplySend(SendResult{Pending: inflight[idx], Message: Success(msg("srv"+string(rune('a'+serverSeq%26)), "msg", "1"))})
				inflight = append(inflight[:idx], inflight[idx+1:]...)
			case 2:
				if len(inflight) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(inflight)-1).Draw(t, "fail")
				_, _ = s.ApplySend(SendResult{Pending: inflight[idx], Message: Failure[clickup.Message](errors.New("x"))})
				inflight = append(inflight[:idx], inflight[idx+1:]...)
			case 3:
				ticket, _ := s.BeginRefresh()
				batch := s.Confirmed()
				if len(inflight) > 0 && rapid.Bool().Draw(t, "promote") {
					batch = append(batch, msg(inflight[0].TempID, "msg", "1"))
				}
				s.ApplyRefresh(history(ticket, batch...))
			case 4:
				clock = clock.Add(time.Duration(rapid.IntRange(0, 2).Draw(t, "tick")) * time.Millisecond)
			}

			pending := s.Pending()
			if len(pending) != len(s.pendingIDs) {
				t.Fatalf("pending=%d ids=%d", len(pending), len(s.pendingIDs))
			}
			seen := make(map[string]bool)
			for _, m := range pending {
				if !s.IsPending(m.ID) {
					t.Fatalf("pending message %s has no id entry", m.ID)
				}
				if seen[m.ID] {
					t.Fatalf("duplicate pending id %s", m.ID)
				}
				seen[m.ID] = true
			}
			if len(s.VisibleMessages()) != len(s.Confirmed())+len(pending) {
				t.Fatalf("visible messages are not confirmed + pending")
			}
		}
	})
}

// Package chat holds the message state of the selected channel and merges
// server history with optimistic sends.
//
// A Session is owned by a single goroutine (the UI loop). Network work is done
// elsewhere by a Loader, whose results come back as values and are applied
// with the Apply methods. Every result carries the Ticket it was started
// with; results for a channel selection that is no longer current are dropped.
package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/aeolun/clicklite/pkg/clickup"
)

const (
	pendingPrefix   = "pending_"
	defaultUserID   = "0"
	defaultUserName = "You"
)

// Session is the state of the selected channel
type Session struct {
	channel    *clickup.Channel
	generation uint64

	confirmed  []clickup.Message // oldest first
	pending    []clickup.Message // insertion order
	pendingIDs map[string]struct{}

	// loading is true while a full load for the current generation is in flight
	loading bool
	// synced is true once a server batch was applied for the current generation
	synced bool

	userID   string
	userName string

	lastTempMillis int64
	now            func() time.Time
}

func NewSession() *Session {
	return &Session{
		pendingIDs: make(map[string]struct{}),
		now:        time.Now,
	}
}

// SetUser records the identity used for optimistic messages
func (s *Session) SetUser(id, name string) {
	s.userID = id
	s.userName = name
}

func (s *Session) UserID() string {
	if s.userID == "" {
		return defaultUserID
	}
	return s.userID
}

func (s *Session) UserName() string {
	if s.userName == "" {
		return defaultUserName
	}
	return s.userName
}

// IsOwn reports whether msg was written by the current user
func (s *Session) IsOwn(msg clickup.Message) bool {
	return s.userID != "" && msg.CreatorID() == s.userID
}

// Channel returns the active channel
func (s *Session) Channel() (clickup.Channel, bool) {
	if s.channel == nil {
		return clickup.Channel{}, false
	}
	return *s.channel, true
}

func (s *Session) Generation() uint64 {
	return s.generation
}

func (s *Session) Loading() bool {
	return s.loading
}

// Synced reports whether any server history has been applied since the
// channel was selected
func (s *Session) Synced() bool {
	return s.synced
}

func (s *Session) ticket() Ticket {
	return Ticket{ChannelID: s.channel.ID, Generation: s.generation}
}

func (s *Session) current(t Ticket) bool {
	return s.channel != nil && t.ChannelID == s.channel.ID && t.Generation == s.generation
}

// SelectChannel makes ch the active channel, drops all message state of the
// previous one and starts a full load
func (s *Session) SelectChannel(ch clickup.Channel) (Ticket, bool) {
	s.channel = &ch
	s.generation++
	s.confirmed = nil
	s.pending = nil
	s.pendingIDs = make(map[string]struct{})
	s.loading = false
	s.synced = false
	return s.BeginLoad()
}

// BeginLoad starts a full load unless no channel is selected or one is already running
func (s *Session) BeginLoad() (Ticket, bool) {
	if s.channel == nil || s.loading {
		return Ticket{}, false
	}
	s.loading = true
	return s.ticket(), true
}

// ApplyHistory applies a full load. A failure leaves the messages untouched
// and is returned for display.
func (s *Session) ApplyHistory(r HistoryResult) (bool, error) {
	if !s.current(r.Ticket) {
		return false, nil
	}
	s.loading = false
	if !r.Messages.OK() {
		return false, r.Messages.Err
	}
	s.replaceConfirmed(r.Messages.Value)
	return true, nil
}

// BeginRefresh starts a silent refresh. Refreshes may overlap with loads and sends.
func (s *Session) BeginRefresh() (Ticket, bool) {
	if s.channel == nil {
		return Ticket{}, false
	}
	return s.ticket(), true
}

// ApplyRefresh applies a silent refresh. Failures are dropped.
func (s *Session) ApplyRefresh(r HistoryResult) bool {
	if !s.current(r.Ticket) || !r.Messages.OK() {
		return false
	}
	s.replaceConfirmed(r.Messages.Value)
	return true
}

// replaceConfirmed swaps in a server batch and retires pending messages the
// server already has
func (s *Session) replaceConfirmed(batch []clickup.Message) {
	ids := make(map[string]struct{}, len(batch))
	for _, m := range batch {
		ids[m.ID] = struct{}{}
	}

	kept := s.pending[:0]
	for _, m := range s.pending {
		if _, ok := ids[m.ID]; ok {
			delete(s.pendingIDs, m.ID)
			continue
		}
		kept = append(kept, m)
	}
	s.pending = kept
	s.confirmed = batch
	s.synced = true
}

// Send appends an optimistic message. It is a no-op for blank content or
// when no channel is selected.
func (s *Session) Send(content string) (PendingSend, bool) {
	content = strings.TrimSpace(content)
	if content == "" || s.channel == nil {
		return PendingSend{}, false
	}

	millis := s.nextTempMillis()
	p := PendingSend{
		Ticket:   s.ticket(),
		TempID:   fmt.Sprintf("%s%d", pendingPrefix, millis),
		Content:  content,
		UserID:   s.UserID(),
		UserName: s.UserName(),
	}

	text := p.Content
	userID := p.UserID
	name := p.UserName
	s.pending = append(s.pending, clickup.Message{
		ID:      p.TempID,
		Content: &text,
		UserID:  &userID,
		Date:    &millis,
		Creator: &clickup.Creator{ID: userID, Username: &name},
		Pending: true,
	})
	s.pendingIDs[p.TempID] = struct{}{}
	return p, true
}

func (s *Session) nextTempMillis() int64 {
	millis := s.now().UnixMilli()
	if millis <= s.lastTempMillis {
		millis = s.lastTempMillis + 1
	}
	s.lastTempMillis = millis
	return millis
}

// ApplySend resolves an optimistic message. The pending copy is always
// removed; on success the server's copy is appended unless a refresh already
// brought it in. A failure is returned even when the ticket is outdated so
// the user learns the message was not sent.
func (s *Session) ApplySend(r SendResult) (bool, error) {
	if !s.current(r.Pending.Ticket) {
		return false, r.Message.Err
	}
	s.removePending(r.Pending.TempID)

	if !r.Message.OK() {
		return true, r.Message.Err
	}

	msg := r.Message.Value
	msg.Pending = false
	if msg.Creator == nil {
		name := r.Pending.UserName
		msg.Creator = &clickup.Creator{ID: r.Pending.UserID, Username: &name}
	}
	if !s.hasConfirmed(msg.ID) {
		s.confirmed = append(s.confirmed, msg)
	}
	return true, nil
}

func (s *Session) removePending(id string) {
	delete(s.pendingIDs, id)
	for i, m := range s.pending {
		if m.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

func (s *Session) hasConfirmed(id string) bool {
	for _, m := range s.confirmed {
		if m.ID == id {
			return true
		}
	}
	return false
}

// VisibleMessages returns confirmed history followed by pending messages
func (s *Session) VisibleMessages() []clickup.Message {
	out := make([]clickup.Message, 0, len(s.confirmed)+len(s.pending))
	out = append(out, s.confirmed...)
	return append(out, s.pending...)
}

func (s *Session) Confirmed() []clickup.Message {
	return append([]clickup.Message(nil), s.confirmed...)
}

func (s *Session) Pending() []clickup.Message {
	return append([]clickup.Message(nil), s.pending...)
}

// PendingIDs returns the temporary ids in send order
func (s *Session) PendingIDs() []string {
	ids := make([]string, 0, len(s.pending))
	for _, m := range s.pending {
		if _, ok := s.pendingIDs[m.ID]; ok {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// IsPending reports whether id is an unresolved temporary id
func (s *Session) IsPending(id string) bool {
	_, ok := s.pendingIDs[id]
	return ok
}

package clickup

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	placeholderNoContent = "[No content]"
	placeholderEmpty     = "[Empty message]"
	unknownCreatorName   = "Unknown User"
	unknownCreatorID     = "0"
)

// Channel is a chat channel or direct message conversation
type Channel struct {
	ID              string  `json:"id"`
	Name            *string `json:"name"`
	Type            string  `json:"type"`
	Visibility      *string `json:"visibility"`
	LatestCommentAt *int64  `json:"latest_comment_at"`
}

// DisplayName never returns an empty string
func (c Channel) DisplayName() string {
	if c.Name != nil && *c.Name != "" {
		return *c.Name
	}
	switch c.Type {
	case "DM":
		return "Direct Message"
	case "CHANNEL", "":
		return "Channel"
	default:
		return c.Type
	}
}

func (c Channel) IconPrefix() string {
	switch c.Type {
	case "DM":
		return "@"
	case "CHANNEL":
		return "#"
	default:
		return "•"
	}
}

// IsDirect reports whether the channel is a DM
func (c Channel) IsDirect() bool {
	return c.Type == "DM"
}

// Member is a participant of a channel
type Member struct {
	ID       string
	Username *string
	Email    *string
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID       flexString `json:"id"`
		Username *string    `json:"username"`
		Email    *string    `json:"email"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*m = Member{ID: string(wire.ID), Username: wire.Username, Email: wire.Email}
	return nil
}

// Creator is the author record embedded in a message
type Creator struct {
	ID             string
	Username       *string
	Email          *string
	ProfilePicture *string
}

func (c *Creator) UnmarshalJSON(data []byte) error {
	var wire struct {
		ID             flexString `json:"id"`
		Username       *string    `json:"username"`
		Email          *string    `json:"email"`
		ProfilePicture *string    `json:"profilePicture"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*c = Creator{
		ID:             string(wire.ID),
		Username:       wire.Username,
		Email:          wire.Email,
		ProfilePicture: wire.ProfilePicture,
	}
	return nil
}

// HasIdentity reports whether the creator carries a username or an email
func (c *Creator) HasIdentity() bool {
	return c != nil && (c.Username != nil || c.Email != nil)
}

// Message is a chat message, either confirmed by the server or pending locally
type Message struct {
	ID          string
	Content     *string
	PlainText   *string
	UserID      *string
	Date        *int64
	DateUpdated *int64
	Creator     *Creator
	DateCreated *string

	// Pending is set only on locally created messages awaiting confirmation
	Pending bool
}

type messageWire struct {
	ID             flexString  `json:"id"`
	Content        *string     `json:"content"`
	PlainText      *string     `json:"plain_text"`
	UserID         *flexString `json:"user_id"`
	UserIDCamel    *flexString `json:"userId"`
	CreatorID      *flexString `json:"creator_id"`
	CreatorIDCamel *flexString `json:"creatorId"`
	Date           *int64      `json:"date"`
	DateUpdated    *int64      `json:"date_updated"`
	Creator        *Creator    `json:"creator"`
	DateCreated    *flexString `json:"date_created"`
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var wire messageWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*m = Message{
		ID:          string(wire.ID),
		Content:     wire.Content,
		PlainText:   wire.PlainText,
		UserID:      firstFlex(wire.UserID, wire.UserIDCamel, wire.CreatorID, wire.CreatorIDCamel),
		Date:        wire.Date,
		DateUpdated: wire.DateUpdated,
		Creator:     wire.Creator,
		DateCreated: firstFlex(wire.DateCreated),
	}
	return nil
}

// DisplayContent returns the text to render for the message
func (m Message) DisplayContent() string {
	var text *string
	switch {
	case m.PlainText != nil:
		text = m.PlainText
	case m.Content != nil:
		text = m.Content
	default:
		return placeholderNoContent
	}
	if isEffectivelyEmpty(*text) {
		return placeholderEmpty
	}
	return *text
}

// CreatorID resolves the author id: explicit user id, then creator id, then "0"
func (m Message) CreatorID() string {
	if m.UserID != nil && *m.UserID != "" {
		return *m.UserID
	}
	if m.Creator != nil && m.Creator.ID != "" {
		return m.Creator.ID
	}
	return unknownCreatorID
}

// CreatorName returns the author's username or email, or "Unknown User"
func (m Message) CreatorName() string {
	if m.Creator != nil {
		if m.Creator.Username != nil && *m.Creator.Username != "" {
			return *m.Creator.Username
		}
		if m.Creator.Email != nil && *m.Creator.Email != "" {
			return *m.Creator.Email
		}
	}
	return unknownCreatorName
}

// HasCreatorIdentity reports whether the message can name its author without a lookup
func (m Message) HasCreatorIdentity() bool {
	return m.Creator.HasIdentity()
}

// CreatedAt returns the creation time, or the zero time when unknown
func (m Message) CreatedAt() time.Time {
	if m.Date != nil && *m.Date > 0 {
		return time.UnixMilli(*m.Date)
	}
	if m.DateCreated == nil {
		return time.Time{}
	}
	raw := strings.TrimSpace(*m.DateCreated)
	if millis, err := strconv.ParseInt(raw, 10, 64); err == nil && millis > 0 {
		return time.UnixMilli(millis)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

// User is the authenticated account or a team member
type User struct {
	ID             uint64  `json:"id"`
	Username       string  `json:"username"`
	Email          string  `json:"email"`
	ProfilePicture *string `json:"profilePicture"`
}

// DisplayName prefers the username over the email
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

func (u User) IDString() string {
	return strconv.FormatUint(u.ID, 10)
}

func isEffectivelyEmpty(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) && r != '\u00a0' {
			return false
		}
	}
	return true
}

// flexString decodes a JSON string or number into a string.
// Other JSON types decode to the empty string.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case string:
		*f = flexString(t)
	case json.Number:
		*f = flexString(t.String())
	default:
		*f = ""
	}
	return nil
}

func firstFlex(values ...*flexString) *string {
	for _, v := range values {
		if v != nil && *v != "" {
			s := string(*v)
			return &s
		}
	}
	return nil
}

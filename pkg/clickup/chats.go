package clickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

type channelsResponse struct {
	Data []Channel `json:"data"`
}

type membersResponse struct {
	Data []Member `json:"data"`
}

type messagesResponse struct {
	Data []Message `json:"data"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type sendMessageResponse struct {
	Data *Message `json:"data"`
}

func (c *Client) channelsURL(workspaceID uint64) string {
	return fmt.Sprintf("%s/workspaces/%d/chat/channels", c.baseV3URL, workspaceID)
}

func (c *Client) channelURL(workspaceID uint64, channelID string) string {
	return c.channelsURL(workspaceID) + "/" + url.PathEscape(channelID)
}

// ListChannels returns the chat channels the token's user follows
func (c *Client) ListChannels(ctx context.Context, workspaceID uint64) ([]Channel, error) {
	const op = "list channels"

	query := url.Values{}
	query.Set("limit", strconv.Itoa(c.channelPageSize))
	query.Set("is_follower", "true")
	query.Set("include_closed", "false")

	data, err := c.get(ctx, op, c.channelsURL(workspaceID)+"?"+query.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := decodeJSON[channelsResponse](c, op, data)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListChannelMembers returns the members of one channel
func (c *Client) ListChannelMembers(ctx context.Context, workspaceID uint64, channelID string) ([]Member, error) {
	const op = "list members"

	data, err := c.get(ctx, op, c.channelURL(workspaceID, channelID)+"/members")
	if err != nil {
		return nil, err
	}
	resp, err := decodeJSON[membersResponse](c, op, data)
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// ListMessages returns the newest page of messages, newest first as the API sends them
func (c *Client) ListMessages(ctx context.Context, workspaceID uint64, channelID string) ([]Message, error) {
	const op = "list messages"

	target := fmt.Sprintf("%s/messages?limit=%d", c.channelURL(workspaceID, channelID), MessagePageSize)
	data, err := c.get(ctx, op, target)
	if err != nil {
		return nil, err
	}

	messages, err := decodeMessages(data)
	if err != nil {
		return nil, c.fail(op, parseError(op, err))
	}
	return messages, nil
}

// decodeMessages accepts both {"data": [...]} and a bare array
func decodeMessages(data []byte) ([]Message, error) {
	var wrapped messagesResponse
	if err := json.Unmarshal(data, &wrapped); err == nil {
		return wrapped.Data, nil
	}

	var bare []Message
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}

	return nil, errors.New("failed to parse messages response")
}

// SendMessage posts content to a channel and returns the created message
func (c *Client) SendMessage(ctx context.Context, workspaceID uint64, channelID, content string) (Message, error) {
	const op = "send message"

	data, err := c.post(ctx, op, c.channelURL(workspaceID, channelID)+"/messages", sendMessageRequest{Content: content})
	if err != nil {
		return Message{}, err
	}
	resp, err := decodeJSON[sendMessageResponse](c, op, data)
	if err != nil {
		return Message{}, err
	}
	if resp.Data == nil {
		return Message{}, c.fail(op, parseError(op, errors.New("response has no data")))
	}
	return *resp.Data, nil
}

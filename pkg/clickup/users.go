package clickup

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type userResponse struct {
	User *User `json:"user"`
}

type teamResponse struct {
	Team struct {
		Members []struct {
			User User `json:"user"`
		} `json:"members"`
	} `json:"team"`
}

// CurrentUser returns the account the token belongs to
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	const op = "current user"

	data, err := c.get(ctx, op, c.baseV2URL+"/user")
	if err != nil {
		return User{}, err
	}
	resp, err := decodeJSON[userResponse](c, op, data)
	if err != nil {
		return User{}, err
	}
	if resp.User == nil {
		return User{}, c.fail(op, parseError(op, errors.New("response has no user")))
	}
	return *resp.User, nil
}

// TeamMembers returns every member of the workspace
func (c *Client) TeamMembers(ctx context.Context, workspaceID uint64) ([]User, error) {
	const op = "team members"

	data, err := c.get(ctx, op, fmt.Sprintf("%s/team/%d", c.baseV2URL, workspaceID))
	if err != nil {
		return nil, err
	}
	resp, err := decodeJSON[teamResponse](c, op, data)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(resp.Team.Members))
	for _, m := range resp.Team.Members {
		users = append(users, m.User)
	}
	return users, nil
}

// FetchAvatar downloads a profile picture. The URL is public so no token is sent.
func (c *Client) FetchAvatar(ctx context.Context, pictureURL string) ([]byte, error) {
	const op = "fetch avatar"

	pictureURL = strings.TrimSpace(pictureURL)
	if pictureURL == "" {
		return nil, c.fail(op, &Error{Kind: KindUnknown, Op: op, Err: errors.New("empty avatar url")})
	}
	return c.do(ctx, op, http.MethodGet, pictureURL, nil, false)
}

package slackapi

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// ChatPostMessage posts a message to a channel.
func (c *Client) ChatPostMessage(ctx context.Context, args Arguments) (any, error) {
	return c.Call(ctx, "chat.postMessage", args)
}

// RTMStart starts a real time messaging session.
func (c *Client) RTMStart(ctx context.Context, args Arguments) (any, error) {
	return c.Call(ctx, "rtm.start", args)
}

// OAuthAccess exchanges an OAuth code for an access token.
func (c *Client) OAuthAccess(ctx context.Context, args Arguments) (any, error) {
	return c.Call(ctx, "oauth.access", args)
}

// OAuthAccessAsObject is OAuthAccess decoded into a slack.OAuthResponse.
func (c *Client) OAuthAccessAsObject(ctx context.Context, args Arguments) (*slack.OAuthResponse, error) {
	resp, err := c.OAuthAccess(ctx, args)
	if err != nil {
		return nil, err
	}
	out := &slack.OAuthResponse{}
	if err := hydrate(resp, out); err != nil {
		return nil, errors.Wrap(err, "oauth.access")
	}
	return out, nil
}

// Test calls api.test, which only checks connectivity.
func (c *Client) Test(ctx context.Context) (any, error) {
	return c.Call(ctx, "api.test", nil)
}

// TeamInfo returns the "team" record, or an empty map when the response has none.
func (c *Client) TeamInfo(ctx context.Context) (map[string]any, error) {
	resp, err := c.Call(ctx, "team.info", nil)
	if err != nil {
		return nil, err
	}
	team, ok := field(resp, "team").(map[string]any)
	if !ok {
		return map[string]any{}, nil
	}
	return team, nil
}

// TeamInfoAsObject returns the team as a slack.TeamInfo, or nil when the
// response has none.
func (c *Client) TeamInfoAsObject(ctx context.Context) (*slack.TeamInfo, error) {
	team, err := c.TeamInfo(ctx)
	if err != nil || len(team) == 0 {
		return nil, err
	}
	out := &slack.TeamInfo{}
	if err := hydrate(team, out); err != nil {
		return nil, errors.Wrap(err, "team.info")
	}
	return out, nil
}

// UsersList returns the "members" list, or an empty list.
func (c *Client) UsersList(ctx context.Context) ([]any, error) {
	return c.list(ctx, "users.list", "members")
}

// UsersListAsObject is UsersList decoded into slack.User values.
func (c *Client) UsersListAsObject(ctx context.Context) ([]slack.User, error) {
	members, err := c.UsersList(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]slack.User, 0, len(members))
	if err := hydrate(members, &users); err != nil {
		return nil, errors.Wrap(err, "users.list")
	}
	return users, nil
}

// UserInfo returns the "user" record for args["user"], or nil when absent.
func (c *Client) UserInfo(ctx context.Context, args Arguments) (map[string]any, error) {
	resp, err := c.Call(ctx, "users.info", args)
	if err != nil {
		return nil, err
	}
	user, _ := field(resp, "user").(map[string]any)
	return user, nil
}

// UserInfoAsObject is UserInfo decoded into a slack.User.
func (c *Client) UserInfoAsObject(ctx context.Context, args Arguments) (*slack.User, error) {
	user, err := c.UserInfo(ctx, args)
	if err != nil || user == nil {
		return nil, err
	}
	out := &slack.User{}
	if err := hydrate(user, out); err != nil {
		return nil, errors.Wrap(err, "users.info")
	}
	return out, nil
}

// IMList returns the direct message channels, or an empty list.
func (c *Client) IMList(ctx context.Context) ([]any, error) {
	return c.list(ctx, "im.list", "ims")
}

// IMListAsObject returns the direct message channels keyed by channel id.
func (c *Client) IMListAsObject(ctx context.Context) (map[string]*slack.Conversation, error) {
	ims, err := c.IMList(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]*slack.Conversation, len(ims))
	for _, raw := range ims {
		im := &slack.Conversation{}
		if err := hydrate(raw, im); err != nil {
			return nil, errors.Wrap(err, "im.list")
		}
		out[im.ID] = im
	}
	return out, nil
}

func (c *Client) list(ctx context.Context, endpoint, key string) ([]any, error) {
	resp, err := c.Call(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	items, ok := field(resp, key).([]any)
	if !ok {
		return []any{}, nil
	}
	return items, nil
}

// field reads key from a decoded object; anything else yields nil.
func field(resp any, key string) any {
	obj, ok := resp.(map[string]any)
	if !ok {
		return nil
	}
	return obj[key]
}

// hydrate loads a decoded JSON fragment into one of the slack record types.
func hydrate(src, dst any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return errors.Wrap(err, "failed to re-encode response fragment")
	}
	return errors.Wrapf(json.Unmarshal(raw, dst), "failed to load %T", dst)
}

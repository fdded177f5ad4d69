package slackapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ffaiyaz23/botonomous/internal/config"
	"github.com/ffaiyaz23/botonomous/internal/mockapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	values map[string]string
	reads  map[string]int
	err    error
}

func newFakeConfig(values map[string]string) *fakeConfig {
	return &fakeConfig{values: values, reads: map[string]int{}}
}

func (f *fakeConfig) Get(key string) (string, error) {
	f.reads[key]++
	if f.err != nil {
		return "", f.err
	}
	return f.values[key], nil
}

func startMock(t *testing.T) (*mockapi.Server, string) {
	t.Helper()
	server, addr, err := mockapi.StartMockServer("127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })
	return server, mockapi.URL(addr)
}

func TestTokenFallbackIsCached(t *testing.T) {
	cfg := newFakeConfig(map[string]string{config.KeyBotUserToken: "xoxb-first"})
	c := New(cfg)

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "xoxb-first", tok)

	cfg.values[config.KeyBotUserToken] = "xoxb-second"
	tok, err = c.Token()
	require.NoError(t, err)
	assert.Equal(t, "xoxb-first", tok)
	assert.Equal(t, 1, cfg.reads[config.KeyBotUserToken])

	c.SetToken("xoxb-explicit")
	tok, err = c.Token()
	require.NoError(t, err)
	assert.Equal(t, "xoxb-explicit", tok)
}

func TestTokenSetEmptyIsNotReresolved(t *testing.T) {
	cfg := newFakeConfig(map[string]string{config.KeyBotUserToken: "xoxb-config"})
	c := New(cfg)
	c.SetToken("")

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "", tok)
	assert.Zero(t, cfg.reads[config.KeyBotUserToken])
}

func TestWithTokenSkipsConfig(t *testing.T) {
	cfg := newFakeConfig(map[string]string{config.KeyBotUserToken: "xoxb-config"})
	c := New(cfg, WithToken("xoxb-opt"))

	tok, err := c.Token()
	require.NoError(t, err)
	assert.Equal(t, "xoxb-opt", tok)
	assert.Zero(t, cfg.reads[config.KeyBotUserToken])
}

func TestDefaultArguments(t *testing.T) {
	cfg := newFakeConfig(map[string]string{
		config.KeyBotUserToken: "xoxb-1",
		config.KeyBotUsername:  "botonomous",
		config.KeyAsUser:       "true",
	})
	c := New(cfg)

	args, err := c.DefaultArguments()
	require.NoError(t, err)
	assert.Equal(t, Arguments{"token": "xoxb-1", "username": "botonomous", "as_user": "true"}, args)
}

func TestDefaultArgumentsConfigError(t *testing.T) {
	cfg := newFakeConfig(nil)
	cfg.err = errors.New("config store unreachable")
	c := New(cfg)

	_, err := c.DefaultArguments()
	assert.ErrorIs(t, err, cfg.err)
}

func TestEndpointSchema(t *testing.T) {
	c := New(newFakeConfig(nil))

	all := c.EndpointSchemas()
	assert.Len(t, all, 7)

	es, ok := c.EndpointSchema("users.info")
	require.True(t, ok)
	assert.Equal(t, []string{"token", "user"}, es.Required)
	assert.Empty(t, es.Optional)

	_, ok = c.EndpointSchema("unknown.endpoint")
	assert.False(t, ok)

	// returned copies don't alias the client's table
	all["users.info"] = EndpointSchema{}
	es, _ = c.EndpointSchema("users.info")
	assert.Equal(t, []string{"token", "user"}, es.Required)
}

func TestSetEndpointSchemas(t *testing.T) {
	c := New(newFakeConfig(nil))
	c.SetEndpointSchemas(Schema{"custom.thing": {Required: []string{"a"}, Optional: []string{"b"}}})

	_, ok := c.EndpointSchema("chat.postMessage")
	assert.False(t, ok)
	assert.Equal(t, Arguments{"a": 1, "b": 2}, c.FilterArguments("custom.thing", Arguments{"a": 1, "b": 2, "c": 3}))
}

func TestFilterArguments(t *testing.T) {
	c := New(newFakeConfig(nil))

	assert.Equal(t, Arguments{"token": "t"},
		c.FilterArguments("team.info", Arguments{"token": "t", "bogus": "x"}))
	assert.Equal(t, Arguments{"a": 1, "b": 2},
		c.FilterArguments("unknown.endpoint", Arguments{"a": 1, "b": 2}))
	assert.Equal(t, Arguments{"token": "t", "channel": "C1", "icon_emoji": ":robot:"},
		c.FilterArguments("chat.postMessage", Arguments{"token": "t", "channel": "C1", "icon_emoji": ":robot:", "user": "U1"}))
}

func TestCallValidatesRequiredArguments(t *testing.T) {
	_, base := startMock(t)
	withToken := New(newFakeConfig(map[string]string{config.KeyBotUserToken: "xoxb-1"}), WithBaseURL(base))
	noToken := New(newFakeConfig(nil), WithBaseURL(base))

	full := map[string]Arguments{
		"rtm.start":        {},
		"chat.postMessage": {"channel": "C1", "text": "hi"},
		"oauth.access":     {"client_id": "c", "client_secret": "s", "code": "x"},
		"team.info":        {},
		"im.list":          {},
		"users.list":       {},
		"users.info":       {"user": mockapi.UserID},
	}

	ctx := context.Background()
	for endpoint, es := range DefaultSchema() {
		_, err := withToken.Call(ctx, endpoint, full[endpoint])
		assert.NoError(t, err, endpoint)

		for _, field := range es.Required {
			args := Arguments{}
			for k, v := range full[endpoint] {
				if k != field {
					args[k] = v
				}
			}
			client := withToken
			if field == "token" {
				client = noToken
			}

			_, err := client.Call(ctx, endpoint, args)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "%s without %s", endpoint, field)
			assert.Equal(t, endpoint, verr.Endpoint)
			assert.Equal(t, field, verr.Field)
		}
	}
}

func TestCallNilValueIsMissing(t *testing.T) {
	c := New(newFakeConfig(nil), WithToken("t"), WithBaseURL("http://127.0.0.1:1/api/"))

	_, err := c.Call(context.Background(), "users.info", Arguments{"user": nil})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "user", verr.Field)
	assert.Contains(t, err.Error(), "user must be provided for users.info")
}

func TestCallDefaultsWinOnCollision(t *testing.T) {
	server, base := startMock(t)
	cfg := newFakeConfig(map[string]string{config.KeyBotUsername: "configured"})
	c := New(cfg, WithToken("xoxb-1"), WithBaseURL(base))

	_, err := c.ChatPostMessage(context.Background(), Arguments{
		"channel": "C1", "text": "hi", "username": "caller", "token": "caller-token",
	})
	require.NoError(t, err)

	form := server.LastForm("chat.postMessage")
	assert.Equal(t, "configured", form.Get("username"))
	assert.Equal(t, "xoxb-1", form.Get("token"))
}

func TestCallRoundTripsFilteredArguments(t *testing.T) {
	server, base := startMock(t)
	cfg := newFakeConfig(map[string]string{config.KeyAsUser: "true", config.KeyIconURL: "http://x/i.png"})
	c := New(cfg, WithToken("xoxb-1"), WithBaseURL(base))

	args := Arguments{
		"channel":      "C1",
		"text":         "hello & goodbye",
		"unfurl_links": false,
		"link_names":   1,
		"attachments":  []map[string]string{{"text": "att"}},
		"not_declared": "dropped",
	}
	_, err := c.ChatPostMessage(context.Background(), args)
	require.NoError(t, err)

	form := server.LastForm("chat.postMessage")
	got := map[string]string{}
	for k := range form {
		got[k] = form.Get(k)
	}
	assert.Equal(t, map[string]string{
		"token":        "xoxb-1",
		"channel":      "C1",
		"text":         "hello & goodbye",
		"unfurl_links": "0",
		"link_names":   "1",
		"attachments":  `[{"text":"att"}]`,
		"as_user":      "true",
		"icon_url":     "http://x/i.png",
	}, got)
}

func TestCallUnknownEndpointPassesEverything(t *testing.T) {
	server, base := startMock(t)
	c := New(newFakeConfig(nil), WithToken("xoxb-1"), WithBaseURL(base))

	resp, err := c.Call(context.Background(), "api.test", Arguments{"foo": "bar"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar", "token": "xoxb-1"}, field(resp, "args"))
	assert.Equal(t, "bar", server.LastForm("api.test").Get("foo"))
}

func TestCallSetsContentType(t *testing.T) {
	var gotType, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`[1,2]`))
	}))
	defer ts.Close()

	c := New(newFakeConfig(nil), WithToken("t"), WithBaseURL(ts.URL+"/api"))
	resp, err := c.Call(context.Background(), "api.test", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), float64(2)}, resp)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "/api/api.test", gotPath)
}

func TestCallResponseDecodeError(t *testing.T) {
	for _, body := range []string{"not json", `"just a string"`, "42", "null"} {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		c := New(newFakeConfig(nil), WithToken("t"), WithBaseURL(ts.URL))
		_, err := c.Test(context.Background())
		var derr *ResponseDecodeError
		assert.ErrorAs(t, err, &derr, body)
		ts.Close()
	}
}

func TestCallTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := ts.URL
	ts.Close()

	c := New(newFakeConfig(nil), WithToken("t"), WithBaseURL(base))
	_, err := c.Test(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.NotNil(t, terr.Unwrap())
	assert.Contains(t, err.Error(), "failed to send data to the Slack API")
}

func TestCallHTTPStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := New(newFakeConfig(nil), WithToken("t"), WithBaseURL(ts.URL))
	_, err := c.Test(context.Background())
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)
}

// internal/mockapi/server.go
package mockapi

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Fixture data served by the mock.
const (
	TeamID    = "T0001"
	TeamName  = "Botonomous"
	UserID    = "U0001"
	UserName  = "ada"
	RealName  = "Ada Lovelace"
	IMChannel = "D0001"
)

// Server is a mock of the Slack Web API served under /api/{method}.
type Server struct {
	*http.Server

	mu    sync.Mutex
	forms map[string]url.Values
}

// LastForm returns the form of the most recent request to method.
func (s *Server) LastForm(method string) url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.forms[method]
}

// URL returns the API root for a server listening on addr.
func URL(addr string) string {
	return "http://" + addr + "/api/"
}

// StartMockServer starts a mock API on the given address (e.g. ":0").
// It returns the server instance and the actual listening address.
func StartMockServer(addr string) (*Server, string, error) {
	s := &Server{forms: map[string]url.Values{}}

	r := mux.NewRouter()
	r.HandleFunc("/api/{method}", s.handle).Methods(http.MethodPost)
	s.Server = &http.Server{Handler: r}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "mock api listen on %q", addr)
	}
	go func() {
		zap.S().Infow("mock slack api listening", "address", ln.Addr().String())
		if err := s.Serve(ln); err != nil && err != http.ErrServerClosed {
			zap.S().Errorw("mock slack api stopped", "error", err)
		}
	}()

	return s, ln.Addr().String(), nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	method := mux.Vars(r)["method"]
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := r.PostForm

	s.mu.Lock()
	s.forms[method] = form
	s.mu.Unlock()

	writeJSON(w, respond(method, form))
}

func respond(method string, form url.Values) map[string]any {
	if method == "api.test" {
		args := map[string]any{}
		for k := range form {
			args[k] = form.Get(k)
		}
		return map[string]any{"ok": true, "args": args}
	}

	if method != "oauth.access" && form.Get("token") == "" {
		return fail("not_authed")
	}

	switch method {
	case "rtm.start":
		return map[string]any{"ok": true, "url": "wss://mock.invalid/websocket", "self": map[string]any{"id": UserID}}
	case "chat.postMessage":
		if form.Get("channel") == "" {
			return fail("channel_not_found")
		}
		ts := strconv.FormatInt(time.Now().UnixNano(), 10)
		return map[string]any{
			"ok":      true,
			"channel": form.Get("channel"),
			"ts":      ts[:10] + "." + ts[10:16],
			"message": map[string]any{"type": "message", "text": form.Get("text"), "user": UserID},
		}
	case "oauth.access":
		if form.Get("code") == "" {
			return fail("invalid_code")
		}
		return map[string]any{
			"ok":           true,
			"access_token": "xoxp-mock-" + form.Get("code"),
			"scope":        "bot,chat:write",
			"team_name":    TeamName,
			"team_id":      TeamID,
		}
	case "team.info":
		return map[string]any{"ok": true, "team": map[string]any{
			"id": TeamID, "name": TeamName, "domain": "botonomous", "email_domain": "example.com",
		}}
	case "users.list":
		return map[string]any{"ok": true, "members": []any{user(), bot()}}
	case "users.info":
		if form.Get("user") != UserID {
			return fail("user_not_found")
		}
		return map[string]any{"ok": true, "user": user()}
	case "im.list":
		return map[string]any{"ok": true, "ims": []any{
			map[string]any{"id": IMChannel, "is_im": true, "user": UserID, "created": 1500000000, "is_user_deleted": false},
		}}
	}
	return fail("unknown_method")
}

func user() map[string]any {
	return map[string]any{
		"id": UserID, "team_id": TeamID, "name": UserName, "real_name": RealName,
		"profile": map[string]any{"real_name": RealName, "display_name": UserName},
	}
}

func bot() map[string]any {
	return map[string]any{"id": "U0002", "team_id": TeamID, "name": "botonomous", "is_bot": true}
}

func fail(code string) map[string]any {
	return map[string]any{"ok": false, "error": code}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("write JSON error", "error", err)
	}
}

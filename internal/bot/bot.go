package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ffaiyaz23/botonomous/internal/slackapi"
	"github.com/ffaiyaz23/botonomous/internal/textutil"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const helpText = "Mention me with `help`, `who am I`, `team` or `users`. Anything else I echo back."

// API is the part of the Web API client the bot talks to.
type API interface {
	ChatPostMessage(ctx context.Context, args slackapi.Arguments) (any, error)
	UserInfoAsObject(ctx context.Context, args slackapi.Arguments) (*slack.User, error)
	TeamInfoAsObject(ctx context.Context) (*slack.TeamInfo, error)
	UsersList(ctx context.Context) ([]any, error)
}

// workItem is a single mention to answer.
type workItem struct {
	ctx     context.Context
	channel string
	ts      string
	user    string
	query   string
}

var tracer = otel.Tracer("botonomous/bot")

// Bot answers app mentions with a pool of workers.
type Bot struct {
	api       API
	workCh    chan workItem
	poolSize  int
	replyMode string
	wg        sync.WaitGroup
}

// New returns a bot; call Start before dispatching mentions to it.
func New(api API, poolSize int, replyMode string) *Bot {
	if poolSize < 1 {
		poolSize = 1
	}
	return &Bot{
		api:       api,
		workCh:    make(chan workItem, poolSize),
		poolSize:  poolSize,
		replyMode: replyMode,
	}
}

// AllowThreadReplies registers thread_ts as an optional chat.postMessage
// argument so thread replies survive argument filtering.
func AllowThreadReplies(c *slackapi.Client) {
	schema := c.EndpointSchemas()
	es := schema["chat.postMessage"]
	for _, f := range es.Optional {
		if f == "thread_ts" {
			return
		}
	}
	es.Optional = append(es.Optional, "thread_ts")
	schema["chat.postMessage"] = es
	c.SetEndpointSchemas(schema)
}

// Start fires up the worker pool.
func (b *Bot) Start() {
	for i := 0; i < b.poolSize; i++ {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.startWorker()
		}()
	}
}

// Stop closes the queue and waits for in-flight replies.
func (b *Bot) Stop() {
	close(b.workCh)
	b.wg.Wait()
}

// handleAppMention enqueues an AppMentionEvent with a tracing span.
func (b *Bot) handleAppMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	ctx, span := tracer.Start(ctx, "ProcessAppMention",
		trace.WithAttributes(
			attribute.String("slack.user_id", ev.User),
			attribute.String("slack.channel_id", ev.Channel),
		),
	)
	defer span.End()

	ts := ev.ThreadTimeStamp
	if ts == "" {
		ts = ev.TimeStamp
	}
	query := ParseAppMentionText(ev.Text)

	zap.S().Infow("enqueued mention",
		"trace_id", span.SpanContext().TraceID().String(),
		"span_id", span.SpanContext().SpanID().String(),
		"channel", ev.Channel,
		"ts", ts,
		"query", query,
	)

	// detach from the request so the reply outlives the HTTP handler
	ctx = trace.ContextWithSpanContext(context.Background(), span.SpanContext())
	b.workCh <- workItem{ctx: ctx, channel: ev.Channel, ts: ts, user: ev.User, query: query}
}

func (b *Bot) startWorker() {
	for wi := range b.workCh {
		ctx, span := tracer.Start(wi.ctx, "AnswerMention",
			trace.WithAttributes(attribute.String("slack.user_id", wi.user)),
		)

		text, err := b.Reply(ctx, wi.user, wi.query)
		if err != nil {
			span.RecordError(err)
			zap.S().Errorw("reply error", "error", err)
			text = "⚠ Something went wrong talking to Slack"
		}

		args := slackapi.Arguments{"channel": wi.channel, "text": text}
		if b.replyMode == "thread" {
			args["thread_ts"] = wi.ts
		}
		if _, err := b.api.ChatPostMessage(ctx, args); err != nil {
			span.RecordError(err)
			zap.S().Errorw("post reply error", "error", err, "channel", wi.channel)
		}
		span.End()
	}
}

// Reply picks the answer to a mention from user.
func (b *Bot) Reply(ctx context.Context, user, query string) (string, error) {
	q := strings.ToLower(query)
	switch {
	case q == "" || textutil.ContainsWord("help", q):
		return helpText, nil

	case textutil.IsWord1FollowedByWord2(q, "who", "i", "not"):
		u, err := b.api.UserInfoAsObject(ctx, slackapi.Arguments{"user": user})
		if err != nil {
			return "", errors.Wrap(err, "users.info")
		}
		if u == nil {
			return "I couldn't find you in this workspace.", nil
		}
		return fmt.Sprintf("You are %s (@%s).", u.RealName, u.Name), nil

	case textutil.ContainsWord("team", q):
		team, err := b.api.TeamInfoAsObject(ctx)
		if err != nil {
			return "", errors.Wrap(err, "team.info")
		}
		if team == nil {
			return "I don't know which team this is.", nil
		}
		return fmt.Sprintf("This is %s (%s.slack.com).", team.Name, team.Domain), nil

	case textutil.ContainsWord("users", q):
		members, err := b.api.UsersList(ctx)
		if err != nil {
			return "", errors.Wrap(err, "users.list")
		}
		return fmt.Sprintf("There are %d members in this workspace.", len(members)), nil
	}
	return "You said: " + query, nil
}

// EventsHandler returns an HTTP handler that:
// 1) verifies Slack signatures,
// 2) handles URLVerification challenges,
// 3) parses AppMention callbacks,
// 4) and dispatches them to the worker pool.
func EventsHandler(b *Bot, signingSecret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 1) read full body
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "read body error", http.StatusBadRequest)
			return
		}
		// 2) verify Slack signature
		verifier, err := slack.NewSecretsVerifier(r.Header, signingSecret)
		if err != nil {
			http.Error(w, "invalid signature headers", http.StatusUnauthorized)
			return
		}
		if _, err := verifier.Write(raw); err != nil {
			http.Error(w, "signature error", http.StatusInternalServerError)
			return
		}
		if err := verifier.Ensure(); err != nil {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
		// 3) parse event
		evt, err := slackevents.ParseEvent(raw, slackevents.OptionNoVerifyToken())
		if err != nil {
			http.Error(w, "parse event error", http.StatusBadRequest)
			return
		}
		// 4) URL verification handshake
		if evt.Type == slackevents.URLVerification {
			var ch slackevents.ChallengeResponse
			if err := json.Unmarshal(raw, &ch); err != nil {
				http.Error(w, "parse challenge error", http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(ch.Challenge))
			return
		}
		// 5) dispatch AppMentionEvent
		if evt.Type == slackevents.CallbackEvent {
			if ev, ok := evt.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
				b.handleAppMention(r.Context(), ev)
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}

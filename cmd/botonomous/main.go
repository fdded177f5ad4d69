package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/ffaiyaz23/botonomous/internal/bot"
	"github.com/ffaiyaz23/botonomous/internal/config"
	"github.com/ffaiyaz23/botonomous/internal/mockapi"
	"github.com/ffaiyaz23/botonomous/internal/otel"
	"github.com/ffaiyaz23/botonomous/internal/slackapi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	// 0) Load configuration
	cfg := config.Load()

	// 1) Initialize OpenTelemetry tracing
	ctx := context.Background()
	tp, err := otel.InitTracer(ctx, "botonomous")
	if err != nil {
		// cannot use zap.L() yet, no logger
		panic("failed to init OTEL: " + err.Error())
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	// 2) Initialize Zap logger and replace globals
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.SigningSecret == "" {
		zap.S().Fatal("SLACK_SIGNING_SECRET must be set")
	}

	// 3) Auto-start the mock Web API if SLACK_API_URL is "mock"
	opts := []slackapi.Option{}
	switch cfg.APIURL {
	case "":
	case "mock":
		server, addr, err := mockapi.StartMockServer("127.0.0.1:0")
		if err != nil {
			zap.S().Fatalw("mock api failed", "error", err)
		}
		defer server.Close()
		opts = append(opts, slackapi.WithBaseURL(mockapi.URL(addr)))
	default:
		opts = append(opts, slackapi.WithBaseURL(cfg.APIURL))
	}
	client := slackapi.New(cfg, opts...)
	if cfg.ReplyMode == "thread" {
		bot.AllowThreadReplies(client)
	}

	// 4) Connectivity check
	if _, err := client.Test(ctx); err != nil {
		zap.S().Fatalw("slack api unreachable", "error", err)
	}
	zap.S().Infow("slack api reachable", "reply_mode", cfg.ReplyMode)

	// 5) Worker pool
	poolSize, err := strconv.Atoi(cfg.WorkerPoolSize)
	if err != nil {
		zap.S().Fatalw("invalid WORKER_POOL_SIZE", "value", cfg.WorkerPoolSize, "error", err)
	}
	b := bot.New(client, poolSize, cfg.ReplyMode)
	b.Start()
	defer b.Stop()

	// 6) Wire up the Events API endpoint (instrumented with otelhttp)
	http.Handle("/events", otelhttp.NewHandler(bot.EventsHandler(b, cfg.SigningSecret), "SlackEvents"))

	// 7) Start HTTP server
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	zap.S().Infow("listening for Events API", "address", ":"+port+"/events")
	zap.S().Fatalw("HTTP server failed", "error", http.ListenAndServe(":"+port, nil))
}

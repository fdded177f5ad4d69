// internal/config/config.go
package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Keys understood by Config.Get.
const (
	KeyBotUserToken = "botUserToken"
	KeyBotUsername  = "botUsername"
	KeyAsUser       = "asUser"
	KeyIconURL      = "iconURL"
)

type Config struct {
	BotToken       string
	BotUsername    string
	AsUser         string
	IconURL        string
	SigningSecret  string
	APIURL         string // blank for slack.com, "mock" for the in-process mock
	ReplyMode      string // "channel" or "thread"
	WorkerPoolSize string
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		BotToken:       os.Getenv("SLACK_BOT_TOKEN"),
		BotUsername:    os.Getenv("SLACK_BOT_USERNAME"),
		AsUser:         os.Getenv("SLACK_AS_USER"),
		IconURL:        os.Getenv("SLACK_ICON_URL"),
		SigningSecret:  os.Getenv("SLACK_SIGNING_SECRET"),
		APIURL:         os.Getenv("SLACK_API_URL"),
		ReplyMode:      os.Getenv("SLACK_REPLY_MODE"),
		WorkerPoolSize: os.Getenv("WORKER_POOL_SIZE"),
	}
	if cfg.ReplyMode != "thread" {
		cfg.ReplyMode = "channel"
	}
	if cfg.WorkerPoolSize == "" {
		cfg.WorkerPoolSize = "10"
	}
	return cfg
}

// Get looks up one of the bot settings by its key name.
func (c Config) Get(key string) (string, error) {
	switch key {
	case KeyBotUserToken:
		return c.BotToken, nil
	case KeyBotUsername:
		return c.BotUsername, nil
	case KeyAsUser:
		return c.AsUser, nil
	case KeyIconURL:
		return c.IconURL, nil
	}
	return "", errors.Errorf("unknown config key %q", key)
}

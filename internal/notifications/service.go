package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ovtracker/internal/config"
	"ovtracker/internal/logging"
	"ovtracker/internal/render"
	"ovtracker/internal/services"
)

const partDelay = 300 * time.Millisecond

// Service defines the delivery surface used by the pipeline.
type Service interface {
	SendDigest(ctx context.Context, text string) error
}

// NewService builds a Telegram-backed service, or a no-op when the bot token
// or chat id is not configured.
func NewService(cfg *config.Config, logger *slog.Logger) Service {
	token := strings.TrimSpace(cfg.Telegram.BotToken)
	chatID := strings.TrimSpace(cfg.Telegram.ChatID)
	if token == "" || chatID == "" {
		return noopService{}
	}
	return &telegramService{
		token:     token,
		chatID:    chatID,
		endpoint:  cfg.Telegram.APIEndpoint,
		client:    &http.Client{Timeout: cfg.TelegramTimeout()},
		partDelay: partDelay,
		logger:    logging.NewComponentLogger(logger, "telegram"),
	}
}

type telegramService struct {
	token     string
	chatID    string
	endpoint  string
	client    *http.Client
	partDelay time.Duration
	logger    *slog.Logger

	api *tgbotapi.BotAPI
}

func (t *telegramService) SendDigest(ctx context.Context, text string) error {
	if t == nil {
		return nil
	}
	api, err := t.bot()
	if err != nil {
		return services.Wrap(services.ErrTransport, "notify", "connect bot", "telegram bot api unavailable", err)
	}

	logger := logging.WithContext(ctx, t.logger)
	parts := render.Split(text, render.MaxMessageLength)
	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return services.Wrap(services.ErrTransport, "notify", "send digest", "cancelled", err)
		}
		msg := t.message(part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		sent, err := api.Send(msg)
		if err != nil {
			return services.Wrap(services.ErrTransport, "notify", "send digest",
				fmt.Sprintf("part %d of %d", i+1, len(parts)), err)
		}
		logger.Debug("digest part sent",
			logging.Int("part", i+1),
			logging.Int("parts", len(parts)),
			logging.Int("message_id", sent.MessageID),
		)

		if i < len(parts)-1 && t.partDelay > 0 {
			select {
			case <-ctx.Done():
				return services.Wrap(services.ErrTransport, "notify", "send digest", "cancelled", ctx.Err())
			case <-time.After(t.partDelay):
			}
		}
	}
	logger.Info("digest delivered",
		logging.String(logging.FieldEventType, "digest_delivered"),
		logging.Int("parts", len(parts)),
	)
	return nil
}

// bot connects lazily; the Bot API client verifies the token on creation.
func (t *telegramService) bot() (*tgbotapi.BotAPI, error) {
	if t.api != nil {
		return t.api, nil
	}
	endpoint := t.endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithClient(t.token, endpoint, t.client)
	if err != nil {
		return nil, err
	}
	t.api = api
	return api, nil
}

func (t *telegramService) message(text string) tgbotapi.MessageConfig {
	if id, err := strconv.ParseInt(t.chatID, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	channel := t.chatID
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return tgbotapi.NewMessageToChannel(channel, text)
}

type noopService struct{}

func (noopService) SendDigest(context.Context, string) error { return nil }

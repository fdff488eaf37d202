package bot

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/prasetyo/checkin-bot/internal/config"
	"github.com/prasetyo/checkin-bot/internal/domain"
	"github.com/prasetyo/checkin-bot/internal/service"
)

const replyExpired = "Sesi check-in Anda kedaluwarsa. Gunakan /checkin untuk mulai lagi."

// Bot represents the Telegram bot
type Bot struct {
	api     *tgbotapi.BotAPI
	service *service.CheckinService
	config  *config.Config
	logger  *zap.Logger
	done    chan struct{}
}

// New creates a new Bot instance
func New(token string, service *service.CheckinService, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	return &Bot{
		api:     api,
		service: service,
		config:  cfg,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start starts polling for updates. It blocks until Stop is called.
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	// Background routine to expire idle sessions
	go b.expireSessionsRoutine()

	for update := range updates {
		if update.Message != nil {
			b.handleMessage(update.Message)
		}
	}

	return nil
}

// Stop stops the update poller and the expiry routine.
func (b *Bot) Stop() {
	close(b.done)
	b.api.StopReceivingUpdates()
}

// expireSessionsRoutine sweeps idle sessions once a minute and tells their
// owners the session is gone.
func (b *Bot) expireSessionsRoutine() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			expired, err := b.service.ExpireIdleSessions(b.config.SessionTTL)
			if err != nil {
				b.logger.Error("failed to expire sessions", zap.Error(err))
				continue
			}

			for _, ownerID := range expired {
				b.sendMessage(ownerID, replyExpired)
			}
		}
	}
}

// handleMessage handles one incoming message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	in := incomingFromMessage(message)
	if in == nil {
		return
	}

	reply, err := b.service.Dispatch(context.Background(), in)
	if err != nil {
		b.logger.Error("failed to dispatch message", zap.Error(err), zap.Int64("user_id", in.UserID))
	}

	if reply != "" {
		b.sendMessage(message.Chat.ID, reply)
	}
}

// incomingFromMessage normalizes a Telegram message into a domain.Incoming.
// Messages without a sender, or carrying a payload the bot has no use for
// (photos, stickers, ...), yield nil and are ignored.
func incomingFromMessage(message *tgbotapi.Message) *domain.Incoming {
	if message.From == nil {
		return nil
	}

	in := &domain.Incoming{
		UserID:      message.From.ID,
		Username:    message.From.UserName,
		DisplayName: message.From.FirstName,
	}
	if in.DisplayName == "" {
		in.DisplayName = message.From.UserName
	}

	switch {
	case message.IsCommand():
		in.Kind = domain.KindCommand
		in.Command = message.Command()
	case message.Location != nil:
		in.Kind = domain.KindLocation
		in.Latitude = message.Location.Latitude
		in.Longitude = message.Location.Longitude
	case message.Text != "":
		in.Kind = domain.KindText
		in.Text = message.Text
	default:
		return nil
	}

	return in
}

// sendMessage sends a simple text message
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message", zap.Error(err), zap.Int64("chat_id", chatID))
	}
}

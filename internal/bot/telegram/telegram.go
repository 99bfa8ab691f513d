// Package telegram adapts the conversation handler to the Telegram Bot API
// using long polling.
package telegram

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fueltrack/fueltrack-bot/internal/bot"
	"github.com/fueltrack/fueltrack-bot/internal/messages"
)

// Transport drives a Telegram bot over long polling and forwards every text
// message to the conversation handler.
type Transport struct {
	api     *tgbotapi.BotAPI
	handler *bot.Handler
	catalog *messages.Catalog
	logger  *log.Logger

	// Per-message handling deadline.
	timeout time.Duration
}

// Options tune the transport. Zero values select the defaults.
type Options struct {
	// HandleTimeout bounds one message's store round trips (default 15s).
	HandleTimeout time.Duration
	Debug         bool
}

// New authenticates against the Bot API with the given token.
func New(token string, handler *bot.Handler, catalog *messages.Catalog, logger *log.Logger, opts Options) (*Transport, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = opts.Debug
	if opts.HandleTimeout <= 0 {
		opts.HandleTimeout = 15 * time.Second
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[telegram] ", log.LstdFlags)
	}
	t := &Transport{
		api:     api,
		handler: handler,
		catalog: catalog,
		logger:  logger,
		timeout: opts.HandleTimeout,
	}
	return t, nil
}

// Username returns the authenticated bot account name.
func (t *Transport) Username() string {
	return t.api.Self.UserName
}

// Run polls for updates until ctx is cancelled.
func (t *Transport) Run(ctx context.Context, pollTimeout int) error {
	if pollTimeout <= 0 {
		pollTimeout = 30
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout

	updates := t.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Transport) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}

	hctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	reply := t.handler.HandleMessage(hctx, msg.From.ID, msg.From.FirstName, msg.Text)

	out := tgbotapi.NewMessage(msg.Chat.ID, reply.Text)
	out.ReplyMarkup = t.keyboard(reply.Keyboard)
	if _, err := t.api.Send(out); err != nil {
		t.logger.Printf("send reply chat=%d: %v", msg.Chat.ID, err)
	}
}

func (t *Transport) keyboard(k bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	switch k {
	case bot.KeyboardConfirm:
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(t.catalog.ButtonYes),
				tgbotapi.NewKeyboardButton(t.catalog.ButtonNo),
			),
		)
		kb.ResizeKeyboard = true
		kb.OneTimeKeyboard = true
		return kb
	default:
		kb := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(t.catalog.ButtonRefill),
				tgbotapi.NewKeyboardButton(t.catalog.ButtonStats),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(t.catalog.ButtonReset),
				tgbotapi.NewKeyboardButton(t.catalog.ButtonHelp),
			),
		)
		kb.ResizeKeyboard = true
		return kb
	}
}

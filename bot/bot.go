package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mark31d/NobleStarBurstLegacy/clock"
	"github.com/mark31d/NobleStarBurstLegacy/config"
	"github.com/mark31d/NobleStarBurstLegacy/content"
	"github.com/mark31d/NobleStarBurstLegacy/database"
	"github.com/mark31d/NobleStarBurstLegacy/logger"
)

// sender is the part of the Telegram API the bot uses
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot represents the Telegram bot
type Bot struct {
	api     sender
	updates func() tgbotapi.UpdatesChannel
	stop    func()
	store   database.Store
	catalog *content.Catalog
	clock   clock.Clock
	log     *logger.Logger

	// portraitDir holds <portrait>.png files; empty sends stories without images
	portraitDir string

	mu       sync.Mutex
	sessions map[int64]*session
}

const (
	cmdStart     = "start"
	cmdHelp      = "help"
	cmdArticles  = "articles"
	cmdFavorites = "favorites"
	cmdArtifacts = "artifacts"
	cmdSettings  = "settings"
	cmdArcade    = "arcade"
	cmdFacts     = "facts"
	cmdReset     = "reset"

	cbRead     = "read"
	cbAnswer   = "answer"
	cbFavorite = "fav"
	cbPuzzle   = "puzzle"
	cbRotate   = "rotate"
	cbHint     = "hint"
	cbSetting  = "set"
	cbReset    = "reset"
	cbPlay     = "play"
	cbCatch    = "catch"
	cbFact     = "fact"
)

// New creates a new bot instance
func New(cfg *config.Config, store database.Store, catalog *content.Catalog, log *logger.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.Debug

	b := newBot(botAPI, store, catalog, clock.Real{}, log)
	b.portraitDir = cfg.PortraitDir
	b.updates = func() tgbotapi.UpdatesChannel {
		u := tgbotapi.NewUpdate(0)
		u.Timeout = 60
		return botAPI.GetUpdatesChan(u)
	}
	b.stop = botAPI.StopReceivingUpdates
	log.Info("Authorized on account", "username", botAPI.Self.UserName)
	return b, nil
}

func newBot(api sender, store database.Store, catalog *content.Catalog, clk clock.Clock, log *logger.Logger) *Bot {
	return &Bot{
		api:      api,
		store:    store,
		catalog:  catalog,
		clock:    clk,
		log:      log.With("component", "bot"),
		sessions: make(map[int64]*session),
	}
}

// Start listens for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) {
	b.log.Info("Starting bot polling")
	updates := b.updates()

	go func() {
		<-ctx.Done()
		b.stop()
	}()

	for update := range updates {
		if ctx.Err() != nil {
			break
		}
		b.handleUpdate(ctx, update)
	}
	b.closeSessions()
	b.log.Info("Bot stopped")
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Recovered from panic in update handler", "panic", r)
		}
	}()
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	} else if update.Message != nil {
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) closeSessions() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, s := range b.sessions {
		s.close()
		delete(b.sessions, id)
	}
}

// parseCommand returns the command name of "/name@bot args" text
func parseCommand(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	fields := strings.Fields(text)
	name := strings.TrimPrefix(fields[0], "/")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name), name != ""
}

// parseCallback splits "verb:arg1:arg2" callback data
func parseCallback(data string) (string, []string) {
	parts := strings.Split(data, ":")
	return parts[0], parts[1:]
}

// sendMessage sends a text message, with an inline keyboard when markup
// has rows. It returns the message id, 0 on failure.
func (b *Bot) sendMessage(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil && len(markup.InlineKeyboard) > 0 {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		b.log.Warn("Error sending message", "chat", chatID, "error", err)
		return 0
	}
	return sent.MessageID
}

// editMessage replaces text and keyboard of an earlier message
func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	if markup != nil && len(markup.InlineKeyboard) > 0 {
		edit.ReplyMarkup = markup
	}
	if _, err := b.api.Send(edit); err != nil {
		b.log.Warn("Error editing message", "chat", chatID, "message", messageID, "error", err)
	}
}

// sendImage sends an image with caption. A missing or rejected image is
// only logged; the story text follows in its own message.
func (b *Bot) sendImage(chatID int64, imagePath, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(imagePath))
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		b.log.Warn("Error sending image", "chat", chatID, "path", imagePath, "error", err)
	}
}

// sendCallbackResponse answers a callback query with a short toast
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		b.log.Warn("Error sending callback response", "error", err)
	}
}

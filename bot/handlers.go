package bot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mark31d/NobleStarBurstLegacy/arcade"
	"github.com/mark31d/NobleStarBurstLegacy/models"
	"github.com/mark31d/NobleStarBurstLegacy/progression"
)

const helpText = `Commands:
/articles - Stories of the queens of Egypt
/favorites - Your favorite stories
/artifacts - Collected artifact pieces and puzzles
/arcade - Catch stars and unlock Egypt trivia
/facts - Trivia you have unlocked
/settings - Music, sounds and vibration
/reset - Delete all progress
/help - This message`

// handleMessage processes incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	b.log.Debug("Received message", "chat", chatID, "text", message.Text)

	cmd, ok := parseCommand(message.Text)
	if !ok {
		b.sendMessage(chatID, "Unknown command. Use /help to see what I can do.", nil)
		return
	}
	s := b.session(ctx, chatID)

	switch cmd {
	case cmdStart:
		b.handleStartCommand(ctx, s)
	case cmdHelp:
		b.sendMessage(chatID, helpText, nil)
	case cmdArticles:
		b.sendArticleList(s, b.catalog.Articles, "📚 Stories of the Queens")
	case cmdFavorites:
		b.handleFavoritesCommand(s)
	case cmdArtifacts:
		snap := s.state.Snapshot()
		var markup *tgbotapi.InlineKeyboardMarkup
		if len(snap.Pieces) > 0 {
			kb := artifactsKeyboard(snap)
			markup = &kb
		}
		b.sendMessage(chatID, artifactsText(snap, b.catalog), markup)
	case cmdSettings:
		kb := settingsKeyboard(s.state.Settings())
		b.sendMessage(chatID, "⚙️ Settings", &kb)
	case cmdArcade:
		b.sendArcade(ctx, s)
	case cmdFacts:
		b.sendMessage(chatID, factsText(s.arcade.UnlockedFacts(ctx)), nil)
	case cmdReset:
		kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Reset", cbReset+":confirm"),
		))
		b.sendMessage(chatID, "Are you sure you want to reset all data? This will clear all progress, favorites, and settings.", &kb)
	default:
		b.sendMessage(chatID, "Unknown command. Use /help to see what I can do.", nil)
	}
}

// handleStartCommand shows the onboarding once, then the help
func (b *Bot) handleStartCommand(ctx context.Context, s *session) {
	if !s.state.Snapshot().OnboardingSeen {
		var sb strings.Builder
		for _, slide := range b.catalog.Onboarding {
			fmt.Fprintf(&sb, "%s\n%s\n\n", slide.Title, slide.Body)
		}
		b.sendMessage(s.chatID, strings.TrimSpace(sb.String()), nil)
		s.state.MarkOnboardingSeen(ctx)
	}
	b.sendMessage(s.chatID, helpText, nil)
}

func (b *Bot) handleFavoritesCommand(s *session) {
	var favs []models.Article
	for _, a := range b.catalog.Articles {
		if s.state.IsFavorite(a.ID) {
			favs = append(favs, a)
		}
	}
	if len(favs) == 0 {
		b.sendMessage(s.chatID, "No favorites yet. Tap ☆ under a story to add it.", nil)
		return
	}
	b.sendArticleList(s, favs, "⭐ Favorites")
}

func (b *Bot) sendArticleList(s *session, articles []models.Article, title string) {
	kb := articlesKeyboard(articles, s.state.Snapshot())
	b.sendMessage(s.chatID, title, &kb)
}

func (b *Bot) sendArcade(ctx context.Context, s *session) {
	st := s.arcade.Status(ctx)
	kb := arcadeKeyboard(st)
	b.sendMessage(s.chatID, arcadeText(st), &kb)
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		b.sendCallbackResponse(callback.ID, "")
		return
	}
	b.log.Debug("Handling callback", "chat", callback.Message.Chat.ID, "data", callback.Data)
	s := b.session(ctx, callback.Message.Chat.ID)
	verb, args := parseCallback(callback.Data)

	var toast string
	switch verb {
	case cbRead:
		toast = b.onRead(ctx, s, args)
	case cbAnswer:
		toast = b.onAnswer(ctx, s, callback.Message.MessageID, args)
	case cbFavorite:
		toast = b.onFavorite(ctx, s, callback.Message.MessageID, args)
	case cbPuzzle:
		toast = b.onPuzzle(ctx, s, args)
	case cbRotate:
		toast = b.onRotate(ctx, s, args)
	case cbHint:
		s.state.MarkHintSeen(ctx)
		if p, msgID := s.openedPuzzle(); p != nil {
			kb := puzzleKeyboard(p, true)
			b.editMessage(s.chatID, msgID, puzzleText(p, true), &kb)
		}
	case cbSetting:
		toast = b.onSetting(ctx, s, callback.Message.MessageID, args)
	case cbReset:
		toast = b.onReset(ctx, s, callback.Message.MessageID)
	case cbPlay:
		toast = b.onPlay(ctx, s)
	case cbCatch:
		toast = b.onCatch(s, args)
	case cbFact:
		toast = b.onFact(ctx, s, callback.Message.MessageID)
	default:
		b.log.Warn("Invalid callback", "data", callback.Data)
	}
	b.sendCallbackResponse(callback.ID, toast)
}

func (b *Bot) onRead(ctx context.Context, s *session, args []string) string {
	if len(args) != 1 {
		return ""
	}
	a, ok := b.catalog.Article(args[0])
	if !ok {
		return "This story is no longer available."
	}
	fav := s.state.IsFavorite(a.ID)
	pos, _ := b.catalog.Index(a.ID)
	if b.portraitDir != "" {
		b.sendImage(s.chatID, filepath.Join(b.portraitDir, a.Portrait+".png"), a.Title+" "+a.Years)
	}
	b.sendMessage(s.chatID, articleText(a, pos, len(b.catalog.Articles), fav), nil)

	q := b.newQuiz(s, a)
	kb := quizKeyboard(a, q, fav)
	s.openQuiz(q, b.sendMessage(s.chatID, quizText(a, q), &kb))
	return ""
}

// newQuiz opens the article's quiz; when a cooldown ends the question
// message becomes answerable again.
func (b *Bot) newQuiz(s *session, a models.Article) *progression.Quiz {
	q := progression.OpenQuiz(s.state, a, b.clock, func() {
		q, msgID := s.currentQuiz(a.ID)
		if q == nil {
			return
		}
		kb := quizKeyboard(a, q, s.state.IsFavorite(a.ID))
		b.editMessage(s.chatID, msgID, quizText(a, q), &kb)
	})
	if c, ok := s.cooldown(a.ID); ok {
		q.Resume(c.selected, c.until)
	}
	return q
}

func (b *Bot) onAnswer(ctx context.Context, s *session, msgID int, args []string) string {
	if len(args) != 2 {
		return ""
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil {
		return ""
	}
	a, ok := b.catalog.Article(args[0])
	if !ok {
		return "This story is no longer available."
	}
	q, openID := s.currentQuiz(a.ID)
	if q == nil || openID != msgID {
		// a keyboard from an earlier view: the quiz moves to that message
		q = b.newQuiz(s, a)
		s.openQuiz(q, msgID)
	}

	out := q.Submit(ctx, idx)
	if !out.Accepted {
		switch {
		case out.Correct:
			return "You've already answered this one correctly."
		case q.CooldownActive():
			return "Try again in " + mmss(q.Remaining())
		}
		return ""
	}

	kb := quizKeyboard(a, q, s.state.IsFavorite(a.ID))
	b.editMessage(s.chatID, msgID, quizText(a, q), &kb)
	if out.Correct {
		names := make([]string, len(out.Unlocked))
		for i, p := range out.Unlocked {
			names[i] = p.String()
		}
		b.log.Info("Pieces unlocked", "chat", s.chatID, "article", a.ID, "pieces", names)
		return "Correct! New artifact pieces unlocked."
	}
	s.startCooldown(a.ID, out.Selected, out.CooldownUntil)
	return "Not quite. Try again in " + mmss(q.Remaining())
}

func (b *Bot) onFavorite(ctx context.Context, s *session, msgID int, args []string) string {
	if len(args) != 1 {
		return ""
	}
	a, ok := b.catalog.Article(args[0])
	if !ok {
		return ""
	}
	fav := s.state.ToggleFavorite(ctx, a.ID)
	if q, _ := s.currentQuiz(a.ID); q != nil {
		kb := quizKeyboard(a, q, fav)
		b.editMessage(s.chatID, msgID, quizText(a, q), &kb)
	}
	if fav {
		return "Added to favorites"
	}
	return "Removed from favorites"
}

func (b *Bot) onPuzzle(ctx context.Context, s *session, args []string) string {
	if len(args) != 1 {
		return ""
	}
	p, err := progression.OpenPuzzle(ctx, s.state, models.ArtifactID(args[0]), nil)
	switch {
	case errors.Is(err, progression.ErrPiecesMissing):
		b.sendMessage(s.chatID, "To start assembling the puzzle, you need to collect all the artifact pieces.\nRead every article and answer the questions correctly to unlock them.", nil)
		return ""
	case err != nil:
		return "Unknown artifact."
	}
	hint := s.state.Snapshot().HintSeen
	kb := puzzleKeyboard(p, hint)
	msgID := b.sendMessage(s.chatID, puzzleText(p, hint), &kb)
	s.openPuzzle(p, msgID)
	return ""
}

func (b *Bot) onRotate(ctx context.Context, s *session, args []string) string {
	if len(args) != 2 {
		return ""
	}
	cell, err := strconv.Atoi(args[1])
	if err != nil {
		return ""
	}
	p, msgID := s.currentPuzzle(args[0])
	if p == nil {
		return "Open the puzzle again from /artifacts."
	}
	if !p.Rotate(ctx, cell) {
		return ""
	}
	hint := s.state.Snapshot().HintSeen
	kb := puzzleKeyboard(p, hint)
	b.editMessage(s.chatID, msgID, puzzleText(p, hint), &kb)
	if p.Solved() {
		return "You've completed the artifact!"
	}
	return ""
}

func (b *Bot) onSetting(ctx context.Context, s *session, msgID int, args []string) string {
	if len(args) != 1 {
		return ""
	}
	next, err := s.state.ToggleSetting(ctx, args[0])
	if err != nil {
		b.log.Warn("Invalid setting", "name", args[0])
		return ""
	}
	kb := settingsKeyboard(next)
	b.editMessage(s.chatID, msgID, "⚙️ Settings", &kb)
	return ""
}

func (b *Bot) onReset(ctx context.Context, s *session, msgID int) string {
	if err := s.resetAll(ctx); err != nil {
		b.log.Error("Reset failed", "chat", s.chatID, "error", err)
		b.editMessage(s.chatID, msgID, "Failed to reset data. Please try again.", nil)
		return ""
	}
	b.editMessage(s.chatID, msgID, "All data has been reset successfully!", nil)
	return ""
}

func (b *Bot) onPlay(ctx context.Context, s *session) string {
	round, err := s.arcade.StartRound(ctx, func(res arcade.Result) {
		s.mu.Lock()
		msgID := s.roundMsgID
		s.mu.Unlock()
		b.editMessage(s.chatID, msgID, fmt.Sprintf("Round over! +%d★\nBalance: %d★", res.Reward, res.Stars), nil)
	})
	switch {
	case errors.Is(err, arcade.ErrCoolingDown):
		return "Next round in " + mmss(ceilSeconds(s.arcade.Status(ctx).CooldownLeft))
	case errors.Is(err, arcade.ErrRoundActive):
		return "A round is already running."
	case err != nil:
		return ""
	}
	kb := roundKeyboard(round)
	msgID := b.sendMessage(s.chatID, "Catch the falling stars! 20 seconds, go!", &kb)
	s.mu.Lock()
	s.roundMsgID = msgID
	s.mu.Unlock()
	return ""
}

func (b *Bot) onCatch(s *session, args []string) string {
	r := s.arcade.Round()
	if r == nil || len(args) != 1 || r.ID.String() != args[0] {
		return "This round is over."
	}
	if !r.Catch() {
		return "This round is over."
	}
	return fmt.Sprintf("★ %d", r.Score())
}

func (b *Bot) onFact(ctx context.Context, s *session, msgID int) string {
	fact, err := s.arcade.UnlockNextFact(ctx)
	switch {
	case errors.Is(err, arcade.ErrInsufficientStars):
		return fmt.Sprintf("You need %d★ to unlock the next fact.", s.arcade.Status(ctx).NextCost)
	case errors.Is(err, arcade.ErrAllFactsUnlocked):
		return "You have unlocked every fact!"
	case err != nil:
		b.log.Warn("Fact unlock failed", "chat", s.chatID, "error", err)
		return ""
	}
	st := s.arcade.Status(ctx)
	kb := arcadeKeyboard(st)
	b.editMessage(s.chatID, msgID, arcadeText(st), &kb)
	b.sendMessage(s.chatID, "📜 "+fact.Text, nil)
	return ""
}

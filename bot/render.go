package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mark31d/NobleStarBurstLegacy/arcade"
	"github.com/mark31d/NobleStarBurstLegacy/content"
	"github.com/mark31d/NobleStarBurstLegacy/models"
	"github.com/mark31d/NobleStarBurstLegacy/progression"
)

// arrows show a cell's rotation; an upright cell points up.
var arrows = map[int]string{0: "⬆️", 90: "➡️", 180: "⬇️", 270: "⬅️"}

// mmss formats whole seconds as a countdown
func mmss(sec int) string {
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

// ceilSeconds rounds a duration up to whole seconds
func ceilSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

// articleText renders the story; pos is its zero-based place in the catalog.
func articleText(a models.Article, pos, total int, fav bool) string {
	var sb strings.Builder
	star := ""
	if fav {
		star = " ⭐"
	}
	fmt.Fprintf(&sb, "📖 %d/%d\n%s %s%s\n\n", pos+1, total, a.Title, a.Years, star)
	sb.WriteString(strings.Join(a.Body, "\n\n"))
	return sb.String()
}

// quizText renders the question together with the state of the quiz.
func quizText(a models.Article, q *progression.Quiz) string {
	var sb strings.Builder
	sb.WriteString("❓ " + a.Question)
	sel := q.Selected()
	switch {
	case sel == a.Correct:
		fmt.Fprintf(&sb, "\n\n✅ %s\nYou've unlocked a piece of an ancient artifact.", a.Options[a.Correct])
	case q.CooldownActive():
		fmt.Fprintf(&sb, "\n\n❌ %s\nTry again in %s", a.Options[sel], mmss(q.Remaining()))
	}
	return sb.String()
}

// quizKeyboard offers the options only while the quiz accepts answers.
func quizKeyboard(a models.Article, q *progression.Quiz, fav bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if q.Selected() == progression.NoSelection {
		for i, opt := range a.Options {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(opt, fmt.Sprintf("%s:%s:%d", cbAnswer, a.ID, i)),
			))
		}
	}
	favLabel := "☆ Add to favorites"
	if fav {
		favLabel = "★ Remove from favorites"
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(favLabel, cbFavorite+":"+a.ID),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func articlesKeyboard(articles []models.Article, snap progression.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, a := range articles {
		label := a.Title + " " + a.Years
		if _, ok := snap.CorrectAnswers[a.ID]; ok {
			label = "✅ " + label
		}
		if _, ok := snap.Favorites[a.ID]; ok {
			label += " ⭐"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbRead+":"+a.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func artifactsText(snap progression.Snapshot, catalog *content.Catalog) string {
	if len(snap.Pieces) == 0 {
		return "Artifacts are locked.\nRead the stories and answer quiz questions to unlock pieces."
	}
	var sb strings.Builder
	sb.WriteString("🏺 Artifacts\n")
	for i, a := range progression.Artifacts {
		status := fmt.Sprintf("%d/%d pieces", snap.HaveCount(a), models.SlotsPerArtifact)
		if _, ok := snap.Solved[a]; ok {
			status = "solved ✨"
		} else if stories := missingStories(a, snap, catalog); len(stories) > 0 {
			status += " (read: " + strings.Join(stories, ", ") + ")"
		}
		fmt.Fprintf(&sb, "\nArtifact %d: %s", i+1, status)
	}
	return sb.String()
}

// missingStories names the stories whose quizzes unlock the artifact's
// missing pieces.
func missingStories(a models.ArtifactID, snap progression.Snapshot, catalog *content.Catalog) []string {
	var titles []string
	seen := make(map[string]bool)
	for _, p := range models.PiecesOf(a) {
		if _, ok := snap.Pieces[p]; ok {
			continue
		}
		id, ok := progression.SourceArticle(p)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if art, ok := catalog.Article(id); ok {
			titles = append(titles, art.Title)
		}
	}
	return titles
}

func artifactsKeyboard(snap progression.Snapshot) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for i, a := range progression.Artifacts {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", i+1), cbPuzzle+":"+string(a)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func puzzleText(p *progression.Puzzle, hintSeen bool) string {
	if p.Solved() {
		return "Congratulations!\nYou've completed the artifact!"
	}
	if !hintSeen {
		return "Tap an artifact piece to rotate it by 90°.\nTurn every piece upright to complete the artifact."
	}
	return "Rotate the pieces until every one points up."
}

// puzzleKeyboard lays the four cells out as a 2x2 grid.
func puzzleKeyboard(p *progression.Puzzle, hintSeen bool) tgbotapi.InlineKeyboardMarkup {
	rot := p.Rotations()
	cell := func(i int) tgbotapi.InlineKeyboardButton {
		label := arrows[rot[i]]
		if p.Solved() {
			label = "✨"
		}
		return tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s:%s:%d", cbRotate, p.Artifact(), i))
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(cell(0), cell(1)),
		tgbotapi.NewInlineKeyboardRow(cell(2), cell(3)),
	}
	if !hintSeen && !p.Solved() {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Got it", cbHint+":ok"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func settingsKeyboard(s models.Settings) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Music: "+onOff(s.Music), cbSetting+":music")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Sounds: "+onOff(s.Sounds), cbSetting+":sounds")),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Vibration: "+onOff(s.Vibration), cbSetting+":vibration")),
	)
}

func arcadeText(st arcade.Status) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "⭐ Balance: %d★\n", st.Stars)
	fmt.Fprintf(&sb, "📜 Egypt Trivia: %d/%d unlocked\n", st.FactsUnlocked, st.TotalFacts)
	switch {
	case st.RoundActive:
		sb.WriteString("\nA round is running.")
	case st.CooldownLeft > 0:
		fmt.Fprintf(&sb, "\nNext round in %s", mmss(ceilSeconds(st.CooldownLeft)))
	default:
		sb.WriteString("\nCatch as many stars as you can in 20 seconds!")
	}
	return sb.String()
}

func arcadeKeyboard(st arcade.Status) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if st.CooldownLeft == 0 && !st.RoundActive {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Play", cbPlay)))
	}
	if st.NextCost > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("Unlock next fact for %d★", st.NextCost), cbFact+":next")))
	}
	if len(rows) == 0 {
		return tgbotapi.NewInlineKeyboardMarkup()
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func roundKeyboard(r *arcade.Round) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Catch ★", cbCatch+":"+r.ID.String()),
	))
}

func factsText(facts []models.Fact) string {
	if len(facts) == 0 {
		return "Catch and spend stars to reveal fun facts about Ancient Egypt."
	}
	var sb strings.Builder
	for _, f := range facts {
		sb.WriteString("• " + f.Text + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

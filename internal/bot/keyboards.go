package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"deadline-intel/internal/model"
)

const (
	menuLabelDashboard = "📋 Dashboard"
	menuLabelList      = "📝 List"
	menuLabelAdd       = "➕ Add"
	menuLabelHelp      = "ℹ️ Help"

	menuLabelCancel = "❌ Cancel"
	menuLabelSkip   = "⏭ Skip"

	// keeps the inline list within Telegram's message size
	maxToggleButtons = 20
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelDashboard),
			tgbotapi.NewKeyboardButton(menuLabelList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelAdd),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuLabelCancel)),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSkip),
			tgbotapi.NewKeyboardButton(menuLabelCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// confirmInline asks to confirm action; the button carries "confirm:"+action.
func confirmInline(action string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes", cbConfirmPrefix+action),
			tgbotapi.NewInlineKeyboardButtonData("❌ No", cbCancel),
		),
	)
}

// toggleKeyboard has one button per item flipping its completion.
func toggleKeyboard(items []model.EnrichedItem) tgbotapi.InlineKeyboardMarkup {
	if len(items) > maxToggleButtons {
		items = items[:maxToggleButtons]
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(items))
	for _, it := range items {
		mark := "⬜"
		if it.Completed {
			mark = "✅"
		}
		label := mark + " " + shortTitle(it.Title, 32)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, cbTogglePrefix+it.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func isSkipInput(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "-", "skip", strings.ToLower(menuLabelSkip):
		return true
	default:
		return false
	}
}

func isCancelDialogInput(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "cancel", strings.ToLower(menuLabelCancel):
		return true
	default:
		return false
	}
}

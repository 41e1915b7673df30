package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramAPI is the subset of *tgbotapi.BotAPI used for reminders.
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Telegram delivers reminders as messages to the owner's chat.
//
// Permission is granted once the chat is reachable and denied when Telegram
// answers 403 (the user blocked the bot). Without a chat id it stays default.
type Telegram struct {
	api    TelegramAPI
	chatID int64

	mu         sync.Mutex
	permission Permission
}

func NewTelegram(api TelegramAPI, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

func (t *Telegram) Permission(context.Context) Permission {
	if t.api == nil {
		return PermissionUnsupported
	}
	if t.chatID == 0 {
		return PermissionDefault
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.permission != "" {
		return t.permission
	}
	_, err := t.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: t.chatID}})
	p := permissionFromError(err)
	if p != PermissionDefault {
		t.permission = p
	}
	return p
}

func (t *Telegram) RequestPermission(ctx context.Context) (Permission, error) {
	if t.api == nil {
		return PermissionUnsupported, nil
	}
	if t.chatID == 0 {
		return PermissionDefault, nil
	}

	msg := tgbotapi.NewMessage(t.chatID, "🔔 Deadline reminders are on.")
	_, err := t.api.Send(msg)
	p := permissionFromError(err)

	t.mu.Lock()
	if p != PermissionDefault {
		t.permission = p
	}
	t.mu.Unlock()

	if p == PermissionDefault {
		return p, fmt.Errorf("request permission: %w", err)
	}
	return p, nil
}

func (t *Telegram) Show(_ context.Context, r Reminder) error {
	if t.api == nil || t.chatID == 0 {
		return fmt.Errorf("telegram chat is not configured")
	}

	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(r.Title), html.EscapeString(r.Body)))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(msg); err != nil {
		if permissionFromError(err) == PermissionDenied {
			t.mu.Lock()
			t.permission = PermissionDenied
			t.mu.Unlock()
		}
		return fmt.Errorf("send reminder %s: %w", r.Tag, err)
	}
	return nil
}

// permissionFromError maps a Telegram API result onto a permission state.
// Transient failures map to default so they can be retried.
func permissionFromError(err error) Permission {
	if err == nil {
		return PermissionGranted
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
		return PermissionDenied
	}
	return PermissionDefault
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"deadline-intel/internal/model"
	"deadline-intel/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDate
	stageDescription
)

const (
	cbTogglePrefix  = "toggle:"
	cbDeletePrefix  = "delete:"
	cbConfirmPrefix = "confirm:"
	cbCancel        = "cancel"
	cbReset         = "reset"
)

type conversationState struct {
	stage conversationStage
	input service.CustomDeadlineInput
}

// API is the subset of *tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot serves the dashboard to a single owner chat.
type Bot struct {
	api           API
	ownerChatID   int64
	deadlines     *service.DeadlineService
	custom        *service.CustomService
	notifications *service.NotificationService
	report        service.Report
	log           *zap.Logger

	conversations map[int64]*conversationState
	mu            sync.Mutex
}

// NewAPI authorizes against Telegram with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return api, nil
}

func New(api API, ownerChatID int64, deadlines *service.DeadlineService, custom *service.CustomService, notifications *service.NotificationService, log *zap.Logger) *Bot {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bot{
		api:           api,
		ownerChatID:   ownerChatID,
		deadlines:     deadlines,
		custom:        custom,
		notifications: notifications,
		report:        service.HTMLReport(),
		log:           log,
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates", zap.Int64("owner", b.ownerChatID))

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		b.handleUpdate(ctx, update)
	}

	return ctx.Err()
}

// handleUpdate processes one update and then runs a reminder scan.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		if !b.fromOwner(update.CallbackQuery.Message) {
			return
		}
		err = b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if !b.fromOwner(update.Message) {
			if update.Message.Chat != nil {
				b.log.Warn("message from unknown chat ignored", zap.Int64("chat", update.Message.Chat.ID))
			}
			return
		}
		err = b.handleMessage(ctx, update.Message)
	default:
		return
	}
	if err != nil {
		b.log.Error("handle update", zap.Int("update", update.UpdateID), zap.Error(err))
	}

	b.Evaluate(ctx)
}

func (b *Bot) fromOwner(msg *tgbotapi.Message) bool {
	return msg != nil && msg.Chat != nil && msg.Chat.ID == b.ownerChatID
}

// Evaluate runs a reminder scan over the current pending items.
func (b *Bot) Evaluate(ctx context.Context) {
	snap := b.deadlines.Snapshot(ctx)
	if _, err := b.notifications.Scan(ctx, snap.Pending, snap.Today); err != nil {
		b.log.Error("reminder scan", zap.Error(err))
	}
}

// SendDigest pushes the dashboard to the owner and evaluates reminders.
func (b *Bot) SendDigest(ctx context.Context) error {
	snap := b.deadlines.Snapshot(ctx)
	if err := b.sendText(b.ownerChatID, b.report.Dashboard(snap, b.deadlines.Term())); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	b.Evaluate(ctx)
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.log.Debug("command", zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
		b.clearConversation(msg.From.ID)
		return b.handleCommand(ctx, msg)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /dashboard, /add or /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "dashboard":
		return b.handleDashboard(ctx, msg.Chat.ID)
	case "list":
		return b.handleList(ctx, msg)
	case "subjects":
		return b.sendText(msg.Chat.ID, b.report.Subjects(b.deadlines.Snapshot(ctx)))
	case "timeline":
		return b.sendText(msg.Chat.ID, b.report.Timeline(b.deadlines.Snapshot(ctx)))
	case "done":
		return b.handleDone(ctx, msg)
	case "add":
		return b.startAddConversation(msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "courses":
		return b.handleCourses(ctx, msg)
	case "reset":
		return b.sendWithReplyMarkup(msg.Chat.ID, "Clear all completions and the streak? Courses are kept.", confirmInline(cbReset))
	case "notify":
		return b.handleNotify(ctx, msg)
	case "lead":
		return b.handleLead(ctx, msg)
	case "cancel":
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}

	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your %s deadlines.</b>\n\n%s",
		escape(name), escape(b.deadlines.Term()), helpText)
	if err := b.sendText(msg.Chat.ID, text); err != nil {
		return err
	}

	if !b.deadlines.State(ctx).HasConfiguredCourses {
		return b.sendText(msg.Chat.ID, "First, pick your courses: <code>/courses MLP TDS</code>\n\n"+b.report.CourseList(nil))
	}
	return b.handleDashboard(ctx, msg.Chat.ID)
}

const helpText = "Commands:\n" +
	"• /dashboard — next critical item, stats and urgency zones\n" +
	"• /list [course|done] — pending items with buttons to tick them off\n" +
	"• /subjects — progress per course\n" +
	"• /timeline — crunch periods ahead\n" +
	"• /done &lt;id&gt; — toggle completion\n" +
	"• /add — add your own deadline\n" +
	"• /delete &lt;id&gt; — delete one of your deadlines\n" +
	"• /courses [codes] — show or set your courses\n" +
	"• /notify [on|off] — reminder settings\n" +
	"• /lead &lt;hours&gt; — remind 1, 6, 12, 24 or 48 hours ahead\n" +
	"• /reset — clear completions and streak\n" +
	"• /cancel — stop the current input"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Help</b>\n"+helpText)
}

func (b *Bot) handleDashboard(ctx context.Context, chatID int64) error {
	snap := b.deadlines.Snapshot(ctx)
	return b.sendText(chatID, b.report.Dashboard(snap, b.deadlines.Term()))
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	snap := b.deadlines.Snapshot(ctx)
	arg := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))

	title, items := "Pending", snap.Pending
	switch {
	case arg == "":
	case arg == "DONE":
		title, items = "Completed", snap.Completed
	default:
		subjects, err := model.ParseSubjects([]string{arg})
		if err != nil || len(subjects) == 0 {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Unknown course %s. See /courses.", escape(arg)))
		}
		title, items = subjects[0].Label(), snap.SubjectItems(subjects[0])
	}

	return b.sendItemList(msg.Chat.ID, title, items)
}

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Give the deadline id: <code>/done ga-mlp-w1</code>")
	}
	return b.toggle(ctx, msg.Chat.ID, id)
}

func (b *Bot) toggle(ctx context.Context, chatID int64, id string) error {
	completed, err := b.deadlines.Toggle(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrDeadlineNotFound) {
			return b.sendText(chatID, "Deadline not found.")
		}
		return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}

	title := id
	if d, ok := b.deadlines.Find(ctx, id); ok {
		title = d.Title
	}
	if completed {
		streak := b.deadlines.State(ctx).Streak
		return b.sendText(chatID, fmt.Sprintf("✅ «%s» done. 🔥 Streak %d", escape(title), streak))
	}
	return b.sendText(chatID, fmt.Sprintf("↩️ «%s» is pending again.", escape(title)))
}

func (b *Bot) startAddConversation(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New deadline.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		state.input.Title = text
		if err := state.input.Validate(); errors.Is(err, model.ErrTitleRequired) {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. What is it called?", cancelKeyboard())
		}
		state.stage = stageDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "⏰ When is it due? Use <code>2026-03-01</code>.", cancelKeyboard())
	case stageDate:
		date, err := model.ParseDate(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2026-03-01</code>.", cancelKeyboard())
		}
		state.input.Date = date
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description, or skip.", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		b.clearConversation(msg.From.ID)
		return b.finishAdd(ctx, msg.Chat.ID, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Start again with /add.")
	}
}

func (b *Bot) finishAdd(ctx context.Context, chatID int64, input service.CustomDeadlineInput) error {
	if err := input.Validate(); err != nil {
		return b.sendText(chatID, fmt.Sprintf("Not saved: %s", escape(err.Error())))
	}

	d, err := b.custom.Add(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not save: %s", escape(err.Error())))
	}

	var summary strings.Builder
	summary.WriteString("✅ <b>Deadline saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", escape(d.ID)))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(d.Title)))
	summary.WriteString(fmt.Sprintf("• <b>Due:</b> %s\n", d.Date.String()))
	if d.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(d.Description)))
	}
	return b.sendText(chatID, strings.TrimSpace(summary.String()))
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	if id == "" {
		return b.sendText(msg.Chat.ID, "Give the id of your deadline: <code>/delete custom-…</code>")
	}

	d, ok := b.deadlines.Find(ctx, id)
	if !ok || !d.IsCustom {
		return b.sendText(msg.Chat.ID, "Only your own deadlines can be deleted, and this one was not found.")
	}
	text := fmt.Sprintf("Delete «%s» (%s)?", escape(d.Title), d.Date.String())
	return b.sendWithReplyMarkup(msg.Chat.ID, text, confirmInline(cbDeletePrefix+id))
}

func (b *Bot) handleCourses(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		state := b.deadlines.State(ctx)
		return b.sendText(msg.Chat.ID, "📚 <b>Your courses</b>\nSet them with <code>/courses MLP TDS</code>\n"+b.report.CourseList(state.SelectedCourses))
	}

	subjects, err := model.ParseSubjects(args)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	if err := b.deadlines.SetSelectedCourses(ctx, subjects); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save: %s", escape(err.Error())))
	}
	b.log.Info("courses selected", zap.Int("count", len(subjects)))
	return b.handleDashboard(ctx, msg.Chat.ID)
}

func (b *Bot) handleNotify(ctx context.Context, msg *tgbotapi.Message) error {
	var (
		settings service.NotificationSettings
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(msg.CommandArguments())) {
	case "":
		settings = b.notifications.Settings(ctx)
	case "on":
		settings, err = b.notifications.SetEnabled(ctx, true)
	case "off":
		settings, err = b.notifications.SetEnabled(ctx, false)
	default:
		return b.sendText(msg.Chat.ID, "Use <code>/notify on</code> or <code>/notify off</code>.")
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Error: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, formatSettings(settings))
}

func (b *Bot) handleLead(ctx context.Context, msg *tgbotapi.Message) error {
	hours, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(msg.CommandArguments()), "h"))
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(model.ErrInvalidLeadHours.Error()))
	}
	if err := b.notifications.SetLeadHours(ctx, hours); err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	return b.sendText(msg.Chat.ID, formatSettings(b.notifications.Settings(ctx)))
}

func formatSettings(s service.NotificationSettings) string {
	state := "off"
	if s.Enabled {
		state = "on"
	}
	text := fmt.Sprintf("🔔 Reminders are <b>%s</b> · %dh ahead", state, s.LeadHours)
	if !s.CanEnable {
		text += "\n🚫 Notifications are blocked for this chat."
	}
	return text
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil {
		return nil
	}

	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		return b.toggle(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case data == cbConfirmPrefix+cbReset:
		if err := b.deadlines.Reset(ctx); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
		}
		return b.sendText(chatID, "🧹 Progress cleared.")
	case strings.HasPrefix(data, cbConfirmPrefix+cbDeletePrefix):
		id := strings.TrimPrefix(data, cbConfirmPrefix+cbDeletePrefix)
		if err := b.custom.Delete(ctx, id); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Error: %s", escape(err.Error())))
		}
		return b.sendText(chatID, "🗑 Deleted.")
	case data == cbCancel:
		return b.sendText(chatID, "⏪ Cancelled.")
	default:
		return nil
	}
}

func (b *Bot) sendItemList(chatID int64, title string, items []model.EnrichedItem) error {
	msg := tgbotapi.NewMessage(chatID, b.report.List(title, items))
	msg.ParseMode = tgbotapi.ModeHTML
	if len(items) > 0 {
		msg.ReplyMarkup = toggleKeyboard(items)
	}
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelDashboard):
		return true, b.handleDashboard(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelList):
		snap := b.deadlines.Snapshot(ctx)
		return true, b.sendItemList(msg.Chat.ID, "Pending", snap.Pending)
	case strings.ToLower(menuLabelAdd):
		return true, b.startAddConversation(msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

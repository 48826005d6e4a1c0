package telegram

import (
	"context"
	"errors"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/egware/erpagent/agent"
	logx "github.com/egware/erpagent/pkg/logger"
)

type Config struct {
	Token          string  `required:"true"`
	Debug          bool    `default:"false"`
	UpdateTimeout  int     `split_words:"true" default:"30"`
	AllowedChatIDs []int64 `split_words:"true"`
}

// Conversation handles one user turn end to end.
type Conversation interface {
	HandleMessage(ctx context.Context, threadID, text string) (agent.Reply, error)
}

// botAPI is the slice of tgbotapi.BotAPI the bot depends on; tests
// substitute a fake.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type Bot struct {
	cfg  Config
	api  botAPI
	conv Conversation
	log  zerolog.Logger

	mu      sync.Mutex
	threads map[int64]string
}

func New(cfg Config, conv Conversation) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if conv == nil {
		return nil, errors.New("telegram: conversation handler is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	api.Debug = cfg.Debug

	return newWithAPI(cfg, api, conv), nil
}

func newWithAPI(cfg Config, api botAPI, conv Conversation) *Bot {
	return &Bot{
		cfg:     cfg,
		api:     api,
		conv:    conv,
		log:     logx.Component("telegram"),
		threads: make(map[int64]string),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	updates := b.api.GetUpdatesChan(u)
	b.log.Info().Msg("telegram bot polling for updates")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate dispatches one update. The HTTP webhook route feeds
// decoded updates through here as well.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) allowed(chatID int64) bool {
	if len(b.cfg.AllowedChatIDs) == 0 {
		return true
	}
	for _, id := range b.cfg.AllowedChatIDs {
		if id == chatID {
			return true
		}
	}
	return false
}

func (b *Bot) threadFor(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.threads[userID]; ok {
		return id
	}
	id := uuid.NewString()
	b.threads[userID] = id
	return id
}

func (b *Bot) resetThread(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.threads[userID] = uuid.NewString()
}

const welcomeText = "Welcome to the Enterprise Agent System!\n\n" +
	"I can help you with:\n" +
	"- Contract management (/contracts)\n" +
	"- Human resources (/hr)\n" +
	"- System status (/status)\n\n" +
	"Just type your request and I'll route it to the right agent.\n\n" +
	"Use /new to start a fresh conversation."

const helpText = "*Available Commands:*\n\n" +
	"/start - Welcome message\n" +
	"/contracts - Contract management menu\n" +
	"/hr - Human resources menu\n" +
	"/status - Check system status\n" +
	"/new - Start new conversation\n" +
	"/help - Show this help\n\n" +
	"*Examples:*\n" +
	"- 'Show me expiring contracts'\n" +
	"- 'List employees in Engineering'\n" +
	"- 'What is our cash flow this month?'"

const statusText = "*System Status:* Operational\n\n" +
	"- Executive Agent: Active\n" +
	"- Contracts Agent: Active\n" +
	"- HR Agent: Active\n" +
	"- Finance Agent: Active\n" +
	"- Odoo ERP: Connected"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg.Chat.ID) {
		return
	}

	switch msg.Command() {
	case "start":
		b.sendText(msg.Chat.ID, welcomeText, "")
	case "help":
		b.sendText(msg.Chat.ID, helpText, tgbotapi.ModeMarkdown)
	case "status":
		b.sendText(msg.Chat.ID, statusText, tgbotapi.ModeMarkdown)
	case "new":
		b.resetThread(msg.From.ID)
		b.sendText(msg.Chat.ID, "Started a new conversation. How can I help you?", "")
	case "contracts":
		b.sendMenu(msg.Chat.ID, "Contract Management - Select an option:", [][]tgbotapi.InlineKeyboardButton{
			{
				tgbotapi.NewInlineKeyboardButtonData("Expiring Soon", "contracts_expiring"),
				tgbotapi.NewInlineKeyboardButtonData("All Contracts", "contracts_all"),
			},
			{
				tgbotapi.NewInlineKeyboardButtonData("Search", "contracts_search"),
				tgbotapi.NewInlineKeyboardButtonData("Summary", "contracts_summary"),
			},
		})
	case "hr":
		b.sendMenu(msg.Chat.ID, "HR Operations - Select an option:", [][]tgbotapi.InlineKeyboardButton{
			{
				tgbotapi.NewInlineKeyboardButtonData("Pending Leaves", "hr_leaves_pending"),
				tgbotapi.NewInlineKeyboardButtonData("Employees", "hr_employees"),
			},
			{
				tgbotapi.NewInlineKeyboardButtonData("Departments", "hr_departments"),
				tgbotapi.NewInlineKeyboardButtonData("Job Openings", "hr_jobs"),
			},
		})
	default:
		b.sendText(msg.Chat.ID, "Unknown command. Use /help to see what I can do.", "")
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.allowed(msg.Chat.ID) {
		return
	}

	typing := tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)
	if _, err := b.api.Request(typing); err != nil {
		b.log.Debug().Err(err).Msg("typing action failed")
	}

	reply, err := b.conv.HandleMessage(ctx, b.threadFor(msg.From.ID), msg.Text)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", msg.Chat.ID).Msg("turn failed")
		b.sendText(msg.Chat.ID, "Sorry, I encountered an error processing your request. "+
			"Please try again or use /new to start a fresh conversation.", "")
		return
	}
	b.sendText(msg.Chat.ID, reply.Text, "")
}

// callbackQueries maps inline button data to the natural-language
// request routed through the agents.
var callbackQueries = map[string]string{
	"contracts_expiring": "Show me contracts expiring in the next 30 days",
	"contracts_all":      "List all active contracts",
	"contracts_search":   "How can I search for contracts?",
	"contracts_summary":  "Give me a contract summary report",
	"hr_leaves_pending":  "Show pending leave requests",
	"hr_employees":       "List employees",
	"hr_departments":     "Show all departments",
	"hr_jobs":            "Show open job positions",
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Debug().Err(err).Msg("callback ack failed")
	}
	if query.Message == nil {
		return
	}
	chatID := query.Message.Chat.ID

	text, ok := callbackQueries[query.Data]
	if !ok {
		b.edit(chatID, query.Message.MessageID, "Unknown action: "+query.Data)
		return
	}

	b.edit(chatID, query.Message.MessageID, "Processing: "+text+"...")

	reply, err := b.conv.HandleMessage(ctx, b.threadFor(query.From.ID), text)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("callback turn failed")
		b.edit(chatID, query.Message.MessageID, "Sorry, I encountered an error. Please try again.")
		return
	}

	out := reply.Text
	if len([]rune(out)) > maxMessageLen {
		out = string([]rune(out)[:maxMessageLen])
	}
	b.edit(chatID, query.Message.MessageID, out)
}

// SendMessage delivers text to a chat, splitting anything over the
// transport cap into sequential messages.
func (b *Bot) SendMessage(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		if _, err := b.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendText(chatID int64, text, parseMode string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = parseMode
		if _, err := b.api.Send(msg); err != nil {
			b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send failed")
			return
		}
	}
}

func (b *Bot) sendMenu(chatID int64, text string, rows [][]tgbotapi.InlineKeyboardButton) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("send menu failed")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	if _, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("edit failed")
	}
}

// Package telegram serves the assistant in Telegram private chats. Each chat
// links a student ID with /link; plain text is answered by the dialogue
// engine as if it came over HTTP with that user_id.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ptit-hub/study-assistant/internal/infrastructure/external/telegram"
	"github.com/ptit-hub/study-assistant/pkg/pseudonym"
	"github.com/ptit-hub/study-assistant/pkg/ratelimit"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// RateLimitPerMinute caps messages per chat. 0 disables the limit.
	RateLimitPerMinute int
	RateLimitBurst     int

	// MaxConcurrent bounds how many chats are answered in parallel.
	// Messages within one chat are always answered in order.
	MaxConcurrent int

	// TurnTimeout bounds one dialogue turn.
	TurnTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		RateLimitPerMinute: 20,
		RateLimitBurst:     5,
		MaxConcurrent:      8,
		TurnTimeout:        45 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Chatter answers one turn for a user. An empty userID means no student is
// linked.
type Chatter interface {
	HandleChat(ctx context.Context, text, userID string) string
}

// Sender delivers replies. *telegram.Client satisfies it.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendTyping(ctx context.Context, chatID int64) error
}

// BotDependencies contains all dependencies for the bot.
type BotDependencies struct {
	Chat   Chatter
	Sender Sender

	// Links defaults to an in-memory store.
	Links LinkStore

	Logger *slog.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the Telegram front end.
type Bot struct {
	config  BotConfig
	chat    Chatter
	sender  Sender
	links   LinkStore
	limiter *ratelimit.Keyed[int64]
	logger  *slog.Logger
}

// NewBot creates a new Telegram bot.
func NewBot(config BotConfig, deps BotDependencies) *Bot {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Links == nil {
		deps.Links = NewMemoryLinks()
	}
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	if config.TurnTimeout <= 0 {
		config.TurnTimeout = DefaultBotConfig().TurnTimeout
	}

	b := &Bot{
		config: config,
		chat:   deps.Chat,
		sender: deps.Sender,
		links:  deps.Links,
		logger: deps.Logger.With("component", "telegram_bot"),
	}
	if config.RateLimitPerMinute > 0 {
		b.limiter = ratelimit.PerMinute[int64](config.RateLimitPerMinute, config.RateLimitBurst)
	}
	return b
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// HandleBatch answers a getUpdates batch. Chats are handled concurrently,
// messages of one chat sequentially so session continuation sees them in
// order. It returns when every message has been answered.
func (b *Bot) HandleBatch(ctx context.Context, updates []telegram.Update) {
	var order []int64
	byChat := make(map[int64][]*telegram.Message)
	for i := range updates {
		msg := updates[i].Message
		if msg == nil || msg.Chat == nil {
			continue
		}
		if _, seen := byChat[msg.Chat.ID]; !seen {
			order = append(order, msg.Chat.ID)
		}
		byChat[msg.Chat.ID] = append(byChat[msg.Chat.ID], msg)
	}

	var g errgroup.Group
	g.SetLimit(b.config.MaxConcurrent)
	for _, chatID := range order {
		msgs := byChat[chatID]
		g.Go(func() error {
			for _, msg := range msgs {
				b.handleMessage(ctx, msg)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// handleMessage processes a Telegram message. Panics are contained to the
// message that caused them.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	if msg.From == nil || msg.From.IsBot {
		return
	}

	chatID := msg.Chat.ID
	log := b.logger.With("chat", pseudonym.UserID(strconv.FormatInt(chatID, 10)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("panic recovered in telegram handler",
				"error", r,
				"stack", string(debug.Stack()),
			)
			b.reply(ctx, log, chatID, errorText)
		}
	}()

	if !telegram.IsPrivateChat(msg) {
		log.Debug("ignoring message outside a private chat", "chat_type", msg.Chat.Type)
		return
	}

	if b.limiter != nil && !b.limiter.Allow(chatID) {
		log.Info("telegram rate limit exceeded")
		b.reply(ctx, log, chatID, slowDownText)
		return
	}

	if command := telegram.ExtractCommand(msg); command != "" {
		b.handleCommand(ctx, log, chatID, command, telegram.ExtractCommandArgs(msg))
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		b.reply(ctx, log, chatID, textOnlyText)
		return
	}
	b.handleText(ctx, log, chatID, text)
}

// handleText runs one dialogue turn for the chat's linked student.
func (b *Bot) handleText(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	if err := b.sender.SendTyping(ctx, chatID); err != nil {
		log.Debug("typing indicator failed", "error", err)
	}

	studentID, _ := b.links.Get(chatID)

	turnCtx, cancel := context.WithTimeout(ctx, b.config.TurnTimeout)
	defer cancel()

	start := time.Now()
	answer := b.chat.HandleChat(turnCtx, text, studentID)
	log.Debug("telegram turn answered",
		"linked", studentID != "",
		"duration_ms", time.Since(start).Milliseconds(),
	)

	b.reply(ctx, log, chatID, answer)
}

// handleCommand processes a bot command.
func (b *Bot) handleCommand(ctx context.Context, log *slog.Logger, chatID int64, command, args string) {
	switch strings.ToLower(command) {
	case "start":
		b.reply(ctx, log, chatID, welcomeText)

	case "help":
		b.reply(ctx, log, chatID, helpText)

	case "link":
		id := strings.TrimSpace(args)
		if !validStudentID(id) {
			b.reply(ctx, log, chatID, linkUsageText)
			return
		}
		b.links.Set(chatID, id)
		log.Info("student linked", "student", pseudonym.UserID(id))
		b.reply(ctx, log, chatID, fmt.Sprintf("Linked student ID %s. Ask me anything about your records.", id))

	case "unlink":
		if b.links.Delete(chatID) {
			log.Info("student unlinked")
			b.reply(ctx, log, chatID, "Your student ID is no longer linked to this chat.")
			return
		}
		b.reply(ctx, log, chatID, notLinkedText)

	case "whoami":
		if id, ok := b.links.Get(chatID); ok {
			b.reply(ctx, log, chatID, "Linked student ID: "+id)
			return
		}
		b.reply(ctx, log, chatID, notLinkedText)

	default:
		b.reply(ctx, log, chatID, "Unknown command. Send /help to see what I can do.")
	}
}

// reply sends text. A chat that blocked the bot loses its link.
func (b *Bot) reply(ctx context.Context, log *slog.Logger, chatID int64, text string) {
	err := b.sender.SendText(ctx, chatID, text)
	switch {
	case err == nil:
	case telegram.IsBlocked(err):
		b.links.Delete(chatID)
		log.Info("bot blocked by user, link removed")
	case ctx.Err() != nil:
		log.Debug("reply abandoned on shutdown", "error", err)
	default:
		log.Error("failed to send reply", "error", err)
	}
}

var studentIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{2,31}$`)

func validStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// TEXTS
// ══════════════════════════════════════════════════════════════════════════════

const (
	welcomeText = "Hi! I answer questions about your academic records: GPA, credits, " +
		"debts, graduation progress, exams and deadlines.\n\n" +
		"Link your student ID first, for example:\n/link B21DCCN001\n\n" +
		"Then just ask, e.g. \"what is my GPA?\". Send /help for more."

	helpText = "Things you can ask:\n" +
		"- what is my GPA / my GPA in HK2\n" +
		"- how many credits do I have\n" +
		"- which courses do I still owe\n" +
		"- can I graduate on time\n" +
		"- my grade in Data Structures\n" +
		"- when is my exam / upcoming deadlines\n" +
		"- what am I strongest at\n\n" +
		"Commands:\n" +
		"/link <student id> - link your student ID\n" +
		"/unlink - forget the linked ID\n" +
		"/whoami - show the linked ID"

	linkUsageText = "Usage: /link <student id>, for example /link B21DCCN001"
	notLinkedText = "No student ID is linked. Use /link <student id> first."
	slowDownText  = "You're sending messages too quickly. Please wait a moment and try again."
	textOnlyText  = "I can only read text messages."
	errorText     = "Sorry, something went wrong while answering. Please try again."
)

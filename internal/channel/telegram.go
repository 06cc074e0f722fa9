package channel

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/stellarlinkco/planit/internal/bus"
	"github.com/stellarlinkco/planit/internal/config"
)

const (
	telegramChannelName = "telegram"

	// Telegram rejects messages over 4096 characters.
	telegramChunkSize = 4000
)

const telegramWelcome = "Hi! I'm PlanIT, your travel planning assistant.\n\n" +
	"Ask me about weather, budgets, attractions or local tips, or say " +
	"\"plan a 5 day trip to Lisbon\" for a full itinerary."

// TelegramBot is the part of the Bot API the channel uses.
type TelegramBot interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetSelf() tgbotapi.User
}

type tgBotWrapper struct {
	bot *tgbotapi.BotAPI
}

func (w *tgBotWrapper) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return w.bot.GetUpdatesChan(config)
}

func (w *tgBotWrapper) StopReceivingUpdates() {
	w.bot.StopReceivingUpdates()
}

func (w *tgBotWrapper) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return w.bot.Send(c)
}

func (w *tgBotWrapper) GetSelf() tgbotapi.User {
	return w.bot.Self
}

type BotFactory func(token, apiEndpoint string, client *http.Client) (TelegramBot, error)

var defaultBotFactory BotFactory = func(token, apiEndpoint string, client *http.Client) (TelegramBot, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, apiEndpoint, client)
	if err != nil {
		return nil, err
	}
	return &tgBotWrapper{bot: bot}, nil
}

type TelegramChannel struct {
	BaseChannel
	token      string
	bot        TelegramBot
	proxy      string
	cancel     context.CancelFunc
	botFactory BotFactory
}

func NewTelegramChannel(cfg config.TelegramConfig, b *bus.MessageBus) (*TelegramChannel, error) {
	return NewTelegramChannelWithFactory(cfg, b, defaultBotFactory)
}

func NewTelegramChannelWithFactory(cfg config.TelegramConfig, b *bus.MessageBus, factory BotFactory) (*TelegramChannel, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	return &TelegramChannel{
		BaseChannel: NewBaseChannel(telegramChannelName, b, cfg.AllowFrom),
		token:       cfg.Token,
		proxy:       cfg.Proxy,
		botFactory:  factory,
	}, nil
}

func (t *TelegramChannel) initBot() error {
	client := http.DefaultClient
	if t.proxy != "" {
		proxyURL, err := url.Parse(t.proxy)
		if err != nil {
			return fmt.Errorf("parse proxy url: %w", err)
		}
		client = &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
	}

	bot, err := t.botFactory(t.token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return fmt.Errorf("create telegram bot: %w", err)
	}
	t.bot = bot
	log.Printf("[telegram] authorized as @%s", bot.GetSelf().UserName)
	return nil
}

func (t *TelegramChannel) Start(ctx context.Context) error {
	if err := t.initBot(); err != nil {
		return err
	}

	ctx, t.cancel = context.WithCancel(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message == nil {
					continue
				}
				t.handleMessage(ctx, update.Message)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Printf("[telegram] polling started")
	return nil
}

func (t *TelegramChannel) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	senderID := strconv.FormatInt(msg.From.ID, 10)

	if !t.IsAllowed(senderID) {
		log.Printf("[telegram] rejected message from %s (%s)", senderID, msg.From.UserName)
		return
	}

	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			if err := t.Send(bus.OutboundMessage{Channel: telegramChannelName, ChatID: chatID, Content: telegramWelcome}); err != nil {
				log.Printf("[telegram] welcome to %s failed: %v", chatID, err)
			}
			return
		}
	}

	content := strings.TrimSpace(msg.Text)
	if content == "" {
		content = strings.TrimSpace(msg.Caption)
	}
	if content == "" {
		return
	}

	err := t.bus.PublishInbound(ctx, bus.InboundMessage{
		Channel:   telegramChannelName,
		SenderID:  senderID,
		ChatID:    chatID,
		Content:   content,
		Timestamp: time.Unix(int64(msg.Date), 0),
		Metadata: map[string]any{
			"username":   msg.From.UserName,
			"first_name": msg.From.FirstName,
			"message_id": msg.MessageID,
		},
	})
	if err != nil {
		log.Printf("[telegram] drop message from %s: %v", senderID, err)
	}
}

func (t *TelegramChannel) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.bot != nil {
		t.bot.StopReceivingUpdates()
	}
	log.Printf("[telegram] stopped")
	return nil
}

// SetBot replaces the bot client without going through the factory.
func (t *TelegramChannel) SetBot(bot TelegramBot) {
	t.bot = bot
}

// Send delivers msg as HTML, one chunk at a time. A chunk Telegram refuses
// to parse is resent as plain text.
func (t *TelegramChannel) Send(msg bus.OutboundMessage) error {
	if t.bot == nil {
		return fmt.Errorf("telegram bot not initialized")
	}

	chatID, err := strconv.ParseInt(msg.ChatID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", msg.ChatID, err)
	}

	for _, chunk := range splitMessage(msg.Content, telegramChunkSize) {
		tgMsg := tgbotapi.NewMessage(chatID, toTelegramHTML(chunk))
		tgMsg.ParseMode = tgbotapi.ModeHTML
		if _, err := t.bot.Send(tgMsg); err != nil {
			tgMsg.ParseMode = ""
			tgMsg.Text = chunk
			if _, err2 := t.bot.Send(tgMsg); err2 != nil {
				return fmt.Errorf("send telegram message: %w", err2)
			}
		}
	}
	return nil
}

// splitMessage cuts s into pieces of at most max bytes, preferring the last
// newline in each window and never splitting a UTF-8 sequence.
func splitMessage(s string, max int) []string {
	var chunks []string
	for len(s) > max {
		cut := strings.LastIndex(s[:max], "\n")
		if cut <= 0 {
			cut = max
			for cut > 0 && !utf8.RuneStart(s[cut]) {
				cut--
			}
			if cut == 0 {
				cut = max
			}
		}
		chunks = append(chunks, s[:cut])
		s = strings.TrimPrefix(s[cut:], "\n")
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}

// toTelegramHTML converts the markdown subset the assistant produces into
// Telegram HTML.
func toTelegramHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")

	for {
		start := strings.Index(s, "```")
		if start == -1 {
			break
		}
		end := strings.Index(s[start+3:], "```")
		if end == -1 {
			break
		}
		end += start + 3
		code := s[start+3 : end]
		// drop a language tag on the opening line
		if nl := strings.Index(code, "\n"); nl >= 0 {
			firstLine := strings.TrimSpace(code[:nl])
			if len(firstLine) > 0 && !strings.Contains(firstLine, " ") {
				code = code[nl+1:]
			}
		}
		s = s[:start] + "<pre>" + code + "</pre>" + s[end+3:]
	}

	s = replacePairs(s, "`", "<code>", "</code>")
	s = replacePairs(s, "**", "<b>", "</b>")
	s = replacePairs(s, "*", "<i>", "</i>")

	// headings become bold lines
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, "#")
		if len(trimmed) < len(line) && strings.HasPrefix(trimmed, " ") {
			lines[i] = "<b>" + strings.TrimSpace(trimmed) + "</b>"
		}
	}
	return strings.Join(lines, "\n")
}

func replacePairs(s, marker, open, close string) string {
	for {
		start := strings.Index(s, marker)
		if start == -1 {
			return s
		}
		end := strings.Index(s[start+len(marker):], marker)
		if end == -1 {
			return s
		}
		end += start + len(marker)
		s = s[:start] + open + s[start+len(marker):end] + close + s[end+len(marker):]
	}
}

// Package bot is the Telegram transport: it maps commands to dialogue
// flows and analytics queries, renders reply keyboards, and routes free
// text to the active session.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/analytics"
	"github.com/dmorales/ledgerbot/internal/config"
	"github.com/dmorales/ledgerbot/internal/dialog"
)

// sender is the slice of the Telegram API the bot uses. *tgbotapi.BotAPI
// satisfies it; tests substitute a recorder.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot wires the transport to the dialogue engine, the ledger and the
// analytics engine. A nil analyzer means analytics failed to load at
// startup; entry flows keep working and analytics commands explain the
// outage.
type Bot struct {
	api      sender
	engine   *dialog.Engine
	ledger   dialog.Recorder
	analyzer *analytics.Analyzer
	cfg      config.Config
	loc      *time.Location
	log      zerolog.Logger
}

func New(api sender, engine *dialog.Engine, ledger dialog.Recorder, analyzer *analytics.Analyzer, cfg config.Config, log zerolog.Logger) *Bot {
	return &Bot{
		api:      api,
		engine:   engine,
		ledger:   ledger,
		analyzer: analyzer,
		cfg:      cfg,
		loc:      cfg.Location(),
		log:      log,
	}
}

// Run consumes the update channel until ctx is cancelled.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("Update loop stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one inbound update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	userID := msg.From.ID
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.send(chatID, b.handleCommand(ctx, userID, msg.Command()))
		return
	}

	reply, handled := b.engine.HandleMessage(ctx, userID, msg.Text)
	if !handled {
		reply = dialog.Reply{Text: "I did not understand that. Use /help to see the available commands."}
	}
	b.send(chatID, reply)
}

const helpText = "LEDGER BOT\n\n" +
	"Data entry:\n" +
	"/sale: record a sale\n" +
	"/expense: record an expense\n" +
	"/dailyclose: record the day's close\n\n" +
	"Records:\n" +
	"/report: financial summary by period\n" +
	"/search: find, edit or delete a sale by invoice\n" +
	"/deletelast: delete the most recent record\n\n" +
	"Analytics:\n" +
	"/analysis: interactive Q&A over the history\n" +
	"/forecast: next month's sales forecast\n" +
	"/anomalies: unusual transactions\n" +
	"/trends: monthly evolution\n" +
	"/insights: plain-language observations\n\n" +
	"/status: bot status\n" +
	"/cancel: abort the current operation"

const analyticsDownText = "Analytics are unavailable: the historical data could not be loaded at startup.\n" +
	"Data entry and reports still work."

func (b *Bot) handleCommand(ctx context.Context, userID int64, command string) dialog.Reply {
	switch command {
	case "start", "help":
		return dialog.Reply{Text: helpText}
	case "cancel":
		return b.engine.Cancel(userID)
	case "status":
		return b.statusReply(userID)

	case "sale":
		return b.engine.StartFlow(ctx, userID, dialog.NewSaleFlow(b.ledger, b.loc, b.log))
	case "expense":
		return b.engine.StartFlow(ctx, userID, dialog.NewExpenseFlow(b.ledger, b.loc, b.cfg.ExpenseCategories, b.log))
	case "dailyclose":
		return b.engine.StartFlow(ctx, userID, dialog.NewDailyCloseFlow(b.ledger, b.loc, b.log))
	case "report":
		return b.engine.StartFlow(ctx, userID, dialog.NewReportFlow(b.ledger, b.loc, b.log))
	case "search":
		return b.engine.StartFlow(ctx, userID, dialog.NewSearchFlow(b.ledger, b.loc, b.log))
	case "deletelast":
		return b.engine.StartFlow(ctx, userID, dialog.NewDeleteLastFlow(b.ledger, b.log))

	case "analysis":
		// Authorization runs before the availability check so outsiders
		// learn nothing about the analytics state.
		if !b.cfg.Authorized(userID) {
			b.log.Warn().Int64("user_id", userID).Str("flow", "analysis").Msg("Unauthorized flow entry")
			return dialog.UnauthorizedReply
		}
		if b.analyzer == nil {
			return dialog.Reply{Text: analyticsDownText}
		}
		return b.engine.StartFlow(ctx, userID, dialog.NewAnalysisFlow(b.analyzer, b.log))
	case "forecast":
		return b.analyticsReply(userID, func() string { return b.analyzer.ForecastText() })
	case "anomalies":
		return b.analyticsReply(userID, func() string { return b.analyzer.AnomaliesText() })
	case "trends":
		return b.analyticsReply(userID, func() string { return b.analyzer.TrendText() })
	case "insights":
		return b.analyticsReply(userID, func() string { return b.analyzer.Insights() })
	}

	return dialog.Reply{Text: "Unknown command. Use /help to see the available commands."}
}

// analyticsReply gates the direct analytics commands on the same
// allow-list the flows use, then on analytics availability.
func (b *Bot) analyticsReply(userID int64, text func() string) dialog.Reply {
	if !b.cfg.Authorized(userID) {
		b.log.Warn().Int64("user_id", userID).Msg("Unauthorized analytics command")
		return dialog.UnauthorizedReply
	}
	if b.analyzer == nil {
		return dialog.Reply{Text: analyticsDownText}
	}
	return dialog.Reply{Text: text()}
}

func (b *Bot) statusReply(userID int64) dialog.Reply {
	if !b.cfg.Authorized(userID) {
		return dialog.UnauthorizedReply
	}
	text := "STATUS\n\nLedger: connected\n"
	if b.analyzer != nil {
		text += "Analytics: available\n"
	} else {
		text += "Analytics: unavailable\n"
	}
	if b.engine.Active(userID) {
		text += "You have an operation in progress; finish it or /cancel."
	} else {
		text += "No operation in progress."
	}
	return dialog.Reply{Text: text}
}

// send renders a dialogue reply as a Telegram message. A reply without
// a keyboard removes any keyboard left over from a previous prompt.
func (b *Bot) send(chatID int64, reply dialog.Reply) {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Keyboard) > 0 {
		rows := make([][]tgbotapi.KeyboardButton, 0, len(reply.Keyboard))
		for _, row := range reply.Keyboard {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, label := range row {
				buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, buttons)
		}
		keyboard := tgbotapi.NewReplyKeyboard(rows...)
		keyboard.OneTimeKeyboard = true
		msg.ReplyMarkup = keyboard
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Sending message failed")
	}
}

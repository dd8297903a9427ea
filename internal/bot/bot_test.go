package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales/ledgerbot/internal/config"
	"github.com/dmorales/ledgerbot/internal/dialog"
	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

type fakeAPI struct {
	sent []tgbotapi.MessageConfig
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		a.sent = append(a.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	require.NotEmpty(t, a.sent)
	return a.sent[len(a.sent)-1]
}

type nopRecorder struct{}

func (nopRecorder) AppendSale(context.Context, domain.Sale) error { return nil }

func (nopRecorder) AppendExpense(context.Context, domain.Expense) error { return nil }

func (nopRecorder) AppendDailyClose(context.Context, domain.DailyClose) error { return nil }
func (nopRecorder) FindSaleByInvoice(context.Context, string) (domain.Sale, error) {
	return domain.Sale{}, sheets.ErrNotFound
}
func (nopRecorder) LastSale(context.Context) (domain.Sale, error) {
	return domain.Sale{}, sheets.ErrNotFound
}
func (nopRecorder) LastExpense(context.Context) (domain.Expense, error) {
	return domain.Expense{}, sheets.ErrNotFound
}
func (nopRecorder) UpdateSale(context.Context, domain.Sale) error { return nil }

func (nopRecorder) DeleteRecord(context.Context, sheets.Table, int) error { return nil }
func (nopRecorder) Totals(context.Context, string, string) (sheets.Totals, error) {
	return sheets.Totals{}, nil
}

const authorizedUser int64 = 7

func newTestBot() (*Bot, *fakeAPI) {
	api := &fakeAPI{}
	cfg := config.Config{
		AuthorizedUsers:   []int64{authorizedUser},
		ExpenseCategories: config.DefaultExpenseCategories,
		Timezone:          "UTC",
	}
	engine := dialog.NewEngine(cfg.Authorized, zerolog.Nop())
	b := New(api, engine, nopRecorder{}, nil, cfg, zerolog.Nop())
	return b, api
}

func update(userID int64, text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: userID},
		Text: text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestHelpCommand(t *testing.T) {
	b, api := newTestBot()

	b.HandleUpdate(context.Background(), update(authorizedUser, "/help"))

	assert.Contains(t, api.last(t).Text, "/sale")
	assert.Contains(t, api.last(t).Text, "/forecast")
}

func TestSaleCommandStartsFlowAndRoutesFreeText(t *testing.T) {
	b, api := newTestBot()
	ctx := context.Background()

	b.HandleUpdate(ctx, update(authorizedUser, "/sale"))
	assert.Contains(t, api.last(t).Text, "SALE ENTRY")

	b.HandleUpdate(ctx, update(authorizedUser, "15/01/2025"))
	assert.Contains(t, api.last(t).Text, "Invoice")
}

func TestUnauthorizedUserIsRejected(t *testing.T) {
	b, api := newTestBot()

	b.HandleUpdate(context.Background(), update(999, "/sale"))

	assert.Equal(t, dialog.UnauthorizedReply.Text, api.last(t).Text)
}

func TestUnauthorizedAnalysisRevealsNothing(t *testing.T) {
	// The analyzer is nil here; an outsider must still get the plain
	// unauthorized reply, not the availability message.
	b, api := newTestBot()

	b.HandleUpdate(context.Background(), update(999, "/analysis"))

	assert.Equal(t, dialog.UnauthorizedReply.Text, api.last(t).Text)

	for _, cmd := range []string{"/forecast", "/anomalies", "/trends", "/insights"} {
		b.HandleUpdate(context.Background(), update(999, cmd))
		assert.Equal(t, dialog.UnauthorizedReply.Text, api.last(t).Text, cmd)
	}
}

func TestAnalyticsCommandsUnavailableWithoutAnalyzer(t *testing.T) {
	b, api := newTestBot()
	ctx := context.Background()

	for _, cmd := range []string{"/forecast", "/anomalies", "/trends", "/insights", "/analysis"} {
		b.HandleUpdate(ctx, update(authorizedUser, cmd))
		assert.Contains(t, api.last(t).Text, "unavailable", cmd)
	}
}

func TestFreeTextWithoutSession(t *testing.T) {
	b, api := newTestBot()

	b.HandleUpdate(context.Background(), update(authorizedUser, "hello there"))

	assert.Contains(t, api.last(t).Text, "/help")
}

func TestCancelCommand(t *testing.T) {
	b, api := newTestBot()
	ctx := context.Background()

	b.HandleUpdate(ctx, update(authorizedUser, "/sale"))
	b.HandleUpdate(ctx, update(authorizedUser, "/cancel"))

	assert.Contains(t, api.last(t).Text, "cancelled")

	// The old draft is gone; free text is no longer routed to a flow.
	b.HandleUpdate(ctx, update(authorizedUser, "15/01/2025"))
	assert.Contains(t, api.last(t).Text, "/help")
}

func TestKeyboardRendering(t *testing.T) {
	b, api := newTestBot()
	ctx := context.Background()

	// Walk a sale up to the payment method prompt, which has a keyboard.
	b.HandleUpdate(ctx, update(authorizedUser, "/sale"))
	b.HandleUpdate(ctx, update(authorizedUser, "15/01/2025"))
	b.HandleUpdate(ctx, update(authorizedUser, "A1"))
	b.HandleUpdate(ctx, update(authorizedUser, "-"))
	b.HandleUpdate(ctx, update(authorizedUser, "1000"))

	markup, ok := api.last(t).ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok, "payment prompt must carry a reply keyboard")
	require.NotEmpty(t, markup.Keyboard)
	assert.Equal(t, "Cash", markup.Keyboard[0][0].Text)

	// Prompts without options remove the keyboard again.
	b.HandleUpdate(ctx, update(authorizedUser, "Cash"))
	_, removed := api.last(t).ReplyMarkup.(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, removed)
}

func TestStatusCommand(t *testing.T) {
	b, api := newTestBot()
	ctx := context.Background()

	b.HandleUpdate(ctx, update(authorizedUser, "/status"))
	assert.Contains(t, api.last(t).Text, "Analytics: unavailable")
	assert.Contains(t, api.last(t).Text, "No operation in progress")

	b.HandleUpdate(ctx, update(authorizedUser, "/sale"))
	b.HandleUpdate(ctx, update(authorizedUser, "/status"))
	assert.Contains(t, api.last(t).Text, "operation in progress")
}

func TestUnknownCommand(t *testing.T) {
	b, api := newTestBot()

	b.HandleUpdate(context.Background(), update(authorizedUser, "/frobnicate"))

	assert.Contains(t, api.last(t).Text, "Unknown command")
}

func TestRunStopsOnContextCancel(t *testing.T) {
	b, _ := newTestBot()
	updates := make(chan tgbotapi.Update)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		b.Run(ctx, updates)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}
}

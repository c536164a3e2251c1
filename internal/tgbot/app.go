// Package tgbot connects the engine to the Telegram Bot API: it turns updates
// into engine events and engine replies into outgoing messages.
package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"olympiad-bot/internal/engine"
	"olympiad-bot/internal/util/slogx"
)

type Handler interface {
	Handle(ctx context.Context, ev engine.Event) ([]engine.Reply, error)
}

type Options struct {
	Workers  int
	SendRate float64 // messages per second
}

func (o *Options) FillDefaults() {
	if o.Workers <= 0 {
		o.Workers = 8
	}
	if o.SendRate <= 0 {
		o.SendRate = 25
	}
}

type App struct {
	bot     *tgbotapi.BotAPI
	handler Handler
	log     *slog.Logger
	limiter *rate.Limiter
	opts    Options
}

// Connect logs in with token and returns the API client.
func Connect(token string) (*tgbotapi.BotAPI, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	b.Debug = false
	return b, nil
}

func New(log *slog.Logger, bot *tgbotapi.BotAPI, h Handler, o Options) *App {
	o.FillDefaults()
	return &App{
		bot:     bot,
		handler: h,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(o.SendRate), 1),
		opts:    o,
	}
}

// Run polls for updates until ctx is done. Updates of one actor always land
// on the same worker, so they are handled in arrival order.
func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	a.log.Info("polling telegram", slog.String("bot", a.bot.Self.UserName), slog.Int("workers", a.opts.Workers))

	queues := make([]chan tgbotapi.Update, a.opts.Workers)
	var g errgroup.Group
	for i := range queues {
		q := make(chan tgbotapi.Update, 16)
		queues[i] = q
		g.Go(func() error {
			for upd := range q {
				a.process(ctx, upd)
			}
			return nil
		})
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		_ = g.Wait()
	}()

	return pump(ctx, updates, queues)
}

// ErrUpdatesClosed means Telegram polling stopped while the bot was still
// supposed to run.
var ErrUpdatesClosed = errors.New("updates channel closed")

func pump(ctx context.Context, updates <-chan tgbotapi.Update, queues []chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case upd, ok := <-updates:
			if !ok {
				return ErrUpdatesClosed
			}
			ev, _, ok := toEvent(upd)
			if !ok {
				continue
			}
			select {
			case queues[shard(ev.Actor, len(queues))] <- upd:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

func shard(actor int64, n int) int {
	return int(uint64(actor) % uint64(n))
}

// toEvent extracts the engine event and the chat to answer in. Updates the
// bot does not handle report false.
func toEvent(upd tgbotapi.Update) (engine.Event, int64, bool) {
	switch {
	case upd.Message != nil && upd.Message.From != nil && upd.Message.Chat != nil:
		m := upd.Message
		if m.IsCommand() {
			return engine.Command(m.From.ID, m.Command(), m.CommandArguments()), m.Chat.ID, true
		}
		if m.Text == "" {
			return engine.Event{}, 0, false
		}
		return engine.Text(m.From.ID, m.Text), m.Chat.ID, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.From != nil:
		q := upd.CallbackQuery
		chatID := q.From.ID
		if q.Message != nil && q.Message.Chat != nil {
			chatID = q.Message.Chat.ID
		}
		return engine.Button(q.From.ID, q.Data), chatID, true
	}
	return engine.Event{}, 0, false
}

func (a *App) process(ctx context.Context, upd tgbotapi.Update) {
	ev, chatID, ok := toEvent(upd)
	if !ok {
		return
	}
	log := a.log.With(slog.String("trace", uuid.NewString()), slogx.Actor(ev.Actor))
	defer func() {
		if r := recover(); r != nil {
			log.Error("handler panicked", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()
	log.Debug("event received", slog.String("kind", ev.Kind.String()))

	if upd.CallbackQuery != nil {
		if _, err := a.bot.Request(tgbotapi.NewCallback(upd.CallbackQuery.ID, "")); err != nil {
			log.Warn("could not answer callback", slogx.Err(err))
		}
	}

	replies, err := a.handler.Handle(ctx, ev)
	if err != nil {
		log.Error("handle event", slog.String("kind", ev.Kind.String()), slogx.Err(err))
	}
	for _, r := range replies {
		for _, c := range render(chatID, r) {
			if err := a.send(ctx, c); err != nil {
				log.Error("send reply", slogx.Err(err))
			}
		}
	}
}

func (a *App) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := a.bot.Send(c)
	return err
}

// render turns a reply into one or two outgoing messages: the document goes
// first, followed by the text if there is any.
func render(chatID int64, r engine.Reply) []tgbotapi.Chattable {
	var out []tgbotapi.Chattable
	if r.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Data})
		doc.Caption = r.Document.Caption
		out = append(out, doc)
	}
	if r.Text == "" {
		return out
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.HTML {
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
	}
	switch {
	case len(r.Buttons) > 0:
		msg.ReplyMarkup = inlineKeyboard(r.Buttons)
	case len(r.Menu) > 0:
		msg.ReplyMarkup = menuKeyboard(r.Menu)
	case r.RemoveMenu:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return append(out, msg)
}

func inlineKeyboard(rows [][]engine.InlineButton) tgbotapi.InlineKeyboardMarkup {
	kb := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		kb = append(kb, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func menuKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	kb := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			r = append(r, tgbotapi.NewKeyboardButton(label))
		}
		kb = append(kb, r)
	}
	m := tgbotapi.NewReplyKeyboard(kb...)
	m.ResizeKeyboard = true
	return m
}

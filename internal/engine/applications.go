package engine

import (
	"errors"
	"log/slog"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

func (e *Engine) showActiveOlympiads(t *turn, _ string) error {
	list, err := e.repo.ListActiveOlympiads(t.ctx, util.Day(e.now()))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		t.say("В данный момент нет доступных олимпиад")
		return nil
	}
	t.send(Reply{Text: "Выберите олимпиаду для подачи заявки:", Buttons: olympiadsKeyboard(list)})
	return nil
}

func (e *Engine) selectOlympiad(t *turn, data string) error {
	id, err := util.TokenID(data, tokOlympiad)
	if err != nil {
		return err
	}
	o, err := e.repo.GetOlympiad(t.ctx, id)
	if err != nil {
		return err
	}
	if err := e.save(t, flow.StartApplication(o.ID)); err != nil {
		return err
	}
	t.send(Reply{Text: olympiadView(o), Buttons: applyKeyboard()})
	return nil
}

func (e *Engine) confirmApplication(t *turn, _ string) error {
	s, ok, err := stateAs[flow.Application](e, t)
	if !ok || err != nil {
		return err
	}
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u == nil {
		if err := e.clear(t); err != nil {
			return err
		}
		t.say(msgNotRegistered)
		return nil
	}
	app, err := e.repo.CreateApplication(t.ctx, u.ID, s.OlympiadID, e.now())
	if errors.Is(err, storage.ErrDuplicate) {
		if err := e.clear(t); err != nil {
			return err
		}
		t.say("Вы уже подавали заявку на эту олимпиаду")
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("application created", slogx.Actor(t.actor), slog.Uint64("application", uint64(app.ID)))
	t.send(Reply{
		Text: "✅ Заявка успешно подана! Ожидайте подтверждения.",
		Menu: mainMenu(u.RoleName().Privileged()),
	})
	return nil
}

func (e *Engine) showMyApplications(t *turn, _ string) error {
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u == nil {
		t.say(msgNotRegistered)
		return nil
	}
	apps, err := e.repo.ListUserApplications(t.ctx, u.ID)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		t.say("У вас нет заявок")
		return nil
	}
	t.send(Reply{Text: myApplicationsView(apps), Buttons: myApplicationsKeyboard(apps)})
	return nil
}

// showMyApplication shows one of the actor's own applications with every
// comment left on it. Someone else's application reads as missing.
func (e *Engine) showMyApplication(t *turn, data string) error {
	id, err := util.TokenID(data, tokMyApp)
	if err != nil {
		return err
	}
	app, err := e.repo.GetApplication(t.ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && (app.User == nil || app.User.TelegramID != t.actor)) {
		t.say("Заявка не найдена")
		return nil
	}
	if err != nil {
		return err
	}
	t.say(applicationView(app, true))
	return nil
}

package engine

import (
	"fmt"
	"log/slog"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

// ---------- Pending queue ----------

func (e *Engine) showPendingApplications(t *turn, _ string) error {
	apps, err := e.repo.ListPendingApplications(t.ctx)
	if err != nil {
		return err
	}
	if len(apps) == 0 {
		t.say("Нет заявок, ожидающих модерации")
		return nil
	}
	t.send(Reply{Text: "Заявки, ожидающие модерации:", Buttons: applicationListKeyboard(tokAppID, apps)})
	return nil
}

func (e *Engine) showPendingApplication(t *turn, data string) error {
	id, err := util.TokenID(data, tokAppID)
	if err != nil {
		return err
	}
	app, err := e.repo.GetApplication(t.ctx, id)
	if err != nil {
		return err
	}
	t.send(Reply{Text: applicationView(app, false), Buttons: moderationKeyboard(app.ID)})
	return nil
}

func (e *Engine) startApprove(t *turn, data string) error {
	return e.startDecision(t, data, tokAppApprove, models.StatusApproved)
}

func (e *Engine) startReject(t *turn, data string) error {
	return e.startDecision(t, data, tokAppReject, models.StatusRejected)
}

func (e *Engine) startDecision(t *turn, data, prefix string, status models.StatusName) error {
	id, err := util.TokenID(data, prefix)
	if err != nil {
		return err
	}
	if _, err := e.repo.GetApplication(t.ctx, id); err != nil {
		return err
	}
	if err := e.save(t, flow.StartModeration(id, status)); err != nil {
		return err
	}
	t.send(Reply{
		Text:    "Введите сообщение для заявки (или нажмите «Пропустить»):",
		Buttons: skipCommentKeyboard(),
	})
	return nil
}

func decisionText(status models.StatusName, withComment bool) string {
	text := "✅ Заявка одобрена"
	if status == models.StatusRejected {
		text = "❌ Заявка отклонена"
	}
	if withComment {
		return text + " с комментарием!"
	}
	return text + "!"
}

func (e *Engine) skipComment(t *turn, _ string) error {
	s, ok, err := stateAs[flow.Moderation](e, t)
	if !ok || err != nil {
		return err
	}
	if err := e.repo.UpdateApplicationStatus(t.ctx, s.ApplicationID, s.Status); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("application reviewed", slogx.Actor(t.actor),
		slog.Uint64("application", uint64(s.ApplicationID)), slog.String("status", s.Status.Code()))
	t.say(decisionText(s.Status, false))
	return nil
}

func (e *Engine) moderationText(t *turn, s flow.Moderation, text string) error {
	comment, err := s.Comment(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	author, err := e.repo.GetUser(t.ctx, t.actor)
	if err != nil {
		return err
	}
	if err := e.repo.ReviewApplication(t.ctx, s.ApplicationID, s.Status, author.ID, comment, e.now()); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("application reviewed", slogx.Actor(t.actor),
		slog.Uint64("application", uint64(s.ApplicationID)), slog.String("status", s.Status.Code()))
	t.say(decisionText(s.Status, true))
	return nil
}

// ---------- Administration of a single application ----------

func (e *Engine) adminApplication(t *turn, id uint) error {
	app, err := e.repo.GetApplication(t.ctx, id)
	if err != nil {
		return err
	}
	t.send(Reply{
		Text:    applicationView(app, true),
		Buttons: adminApplicationKeyboard(app, e.gate.IsAdministrator(t.ctx, t.actor)),
	})
	return nil
}

func (e *Engine) showAdminApplication(t *turn, data string) error {
	id, err := util.TokenID(data, tokAdminAppCheck)
	if err != nil {
		return err
	}
	return e.adminApplication(t, id)
}

func (e *Engine) chooseAppStatus(t *turn, data string) error {
	id, err := util.TokenID(data, tokChangeAppStatus)
	if err != nil {
		return err
	}
	app, err := e.repo.GetApplication(t.ctx, id)
	if err != nil {
		return err
	}
	t.send(Reply{
		Text:    fmt.Sprintf("Текущий статус: %s\nВыберите новый статус:", app.StatusName()),
		Buttons: statusKeyboard(app),
	})
	return nil
}

func (e *Engine) setAppStatus(t *turn, data string) error {
	args, err := util.TokenArgs(data, tokSetAppStatus)
	if err != nil {
		return err
	}
	if len(args) != 2 {
		return fmt.Errorf("%w: %q: want id and status", util.ErrBadToken, data)
	}
	id, err := util.ParseID(args[0])
	if err != nil {
		return err
	}
	status, ok := models.StatusCodes[args[1]]
	if !ok {
		return fmt.Errorf("%w: unknown status %q", util.ErrBadToken, args[1])
	}
	if err := e.repo.UpdateApplicationStatus(t.ctx, id, status); err != nil {
		return err
	}
	e.log.Info("application status set", slogx.Actor(t.actor),
		slog.Uint64("application", uint64(id)), slog.String("status", args[1]))
	t.send(Reply{
		Text:    fmt.Sprintf("✅ Статус заявки изменен на «%s»", status),
		Buttons: [][]InlineButton{row(btn("↩️ К заявке", util.Token(tokAdminAppCheck, id)))},
	})
	return nil
}

func (e *Engine) deleteApplication(t *turn, data string) error {
	id, err := util.TokenID(data, tokDeleteApp)
	if err != nil {
		return err
	}
	app, err := e.repo.GetApplication(t.ctx, id)
	if err != nil {
		return err
	}
	if err := e.repo.DeleteApplication(t.ctx, id); err != nil {
		return err
	}
	e.log.Info("application deleted", slogx.Actor(t.actor), slog.Uint64("application", uint64(id)))
	t.send(Reply{
		Text:    "✅ Заявка успешно удалена",
		Buttons: [][]InlineButton{row(btn("↩️ Назад к заявкам", util.Token(tokBackToAppList, app.OlympiadID)))},
	})
	return nil
}

// ---------- Comment editing ----------

func (e *Engine) startCommentEdit(t *turn, data string) error {
	id, err := util.TokenID(data, tokEditAppMessage)
	if err != nil {
		return err
	}
	if _, err := e.repo.GetApplication(t.ctx, id); err != nil {
		return err
	}
	if err := e.save(t, flow.StartCommentEdit(id)); err != nil {
		return err
	}
	t.say(fmt.Sprintf("Введите новый комментарий к заявке #%d. Ваш предыдущий комментарий будет заменен:", id))
	return nil
}

func (e *Engine) commentEditText(t *turn, s flow.CommentEdit, text string) error {
	comment, err := s.Comment(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	author, err := e.repo.GetUser(t.ctx, t.actor)
	if err != nil {
		return err
	}
	if err := e.repo.ReplaceMessage(t.ctx, s.ApplicationID, author.ID, comment, e.now()); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	t.send(Reply{
		Text:    "✅ Комментарий сохранен",
		Buttons: [][]InlineButton{row(btn("↩️ К заявке", util.Token(tokAdminAppCheck, s.ApplicationID)))},
	})
	return nil
}

package engine

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

// ---------- Creation ----------

func (e *Engine) startOlympiadCreate(t *turn, _ string) error {
	return e.restartOlympiadCreate(t, "Введите название олимпиады:")
}

func (e *Engine) restartOlympiadCreate(t *turn, prompt string) error {
	if err := e.save(t, flow.StartOlympiadCreate()); err != nil {
		return err
	}
	t.say(prompt)
	return nil
}

func (e *Engine) createText(t *turn, s flow.OlympiadCreate, text string) error {
	next, err := s.Text(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	var subjects []models.Subject
	if next.Step == flow.CreateSubject {
		if subjects, err = e.repo.ListSubjects(t.ctx); err != nil {
			return err
		}
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	switch next.Step {
	case flow.CreateDescription:
		t.say("Введите описание олимпиады:")
	case flow.CreateOrganizer:
		t.say("Введите организатора олимпиады:")
	case flow.CreateStartDate:
		t.say("Введите дату начала олимпиады (в формате ГГГГ-ММ-ДД):")
	case flow.CreateEndDate:
		t.say("Введите дату окончания олимпиады (в формате ГГГГ-ММ-ДД):")
	case flow.CreateSubject:
		t.send(Reply{Text: "Выберите дисциплину:", Buttons: subjectsKeyboard(subjects)})
	}
	return nil
}

func (e *Engine) chooseSubject(t *turn, data string) error {
	s, ok, err := stateAs[flow.OlympiadCreate](e, t)
	if !ok || err != nil {
		return err
	}
	id, err := util.TokenID(data, tokSubject)
	if err != nil {
		return err
	}
	sub, err := e.repo.GetSubject(t.ctx, id)
	if err != nil {
		return err
	}
	next, err := s.ChooseSubject(*sub)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	t.send(Reply{Text: creationSummary(next), Buttons: confirmKeyboard()})
	return nil
}

func (e *Engine) commitOlympiad(t *turn, s flow.OlympiadCreate) error {
	o, err := s.Olympiad()
	if err != nil {
		t.say(msgStale)
		return nil
	}
	if err := e.repo.CreateOlympiad(t.ctx, &o); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("olympiad created", slogx.Actor(t.actor), slog.Uint64("olympiad", uint64(o.ID)))
	t.send(Reply{Text: "✅ Олимпиада успешно добавлена!", Menu: adminMenu()})
	return nil
}

// ---------- Listing ----------

func (e *Engine) showFirstOlympiadPage(t *turn, _ string) error {
	return e.olympiadPage(t, 1)
}

func (e *Engine) showOlympiadPage(t *turn, data string) error {
	page, err := util.TokenID(data, tokOlympiadsPage)
	if err != nil {
		return err
	}
	return e.olympiadPage(t, int(page))
}

func (e *Engine) olympiadPage(t *turn, page int) error {
	size := e.opts.PageSize
	list, total, err := e.repo.ListOlympiads(t.ctx, (page-1)*size, size)
	if err != nil {
		return err
	}
	if total == 0 {
		t.say("Список олимпиад пуст")
		return nil
	}
	pages := int((total + int64(size) - 1) / int64(size))
	if page > pages {
		// The list shrank since the button was drawn.
		page = pages
		if list, _, err = e.repo.ListOlympiads(t.ctx, (page-1)*size, size); err != nil {
			return err
		}
	}
	t.send(Reply{
		Text:    fmt.Sprintf("📋 Список олимпиад (страница %d из %d):", page, pages),
		Buttons: olympiadPageKeyboard(list, page, pages),
	})
	return nil
}

func (e *Engine) downloadLink(id uint) string {
	if e.opts.BaseURL == "" {
		return ""
	}
	sid := strconv.FormatUint(uint64(id), 10)
	token := util.HMACSHA256Hex(e.opts.ExportSecret, "export:"+sid)
	return e.opts.BaseURL + "/export/olympiad.xlsx?olympiad_id=" + sid + "&token=" + token
}

func (e *Engine) olympiadDetail(t *turn, id uint) error {
	o, err := e.repo.GetOlympiad(t.ctx, id)
	if err != nil {
		return err
	}
	t.send(Reply{
		Text:    olympiadAdminView(o, e.downloadLink(o.ID)),
		HTML:    true,
		Buttons: olympiadActionsKeyboard(o.ID),
	})
	return nil
}

func (e *Engine) showOlympiad(t *turn, data string) error {
	id, err := util.TokenID(data, tokViewOlympiad)
	if err != nil {
		return err
	}
	return e.olympiadDetail(t, id)
}

// showOlympiadApplications serves both the detail view button and the way
// back from a single application.
func (e *Engine) showOlympiadApplications(t *turn, data string) error {
	prefix := tokViewOlympiadApps
	if strings.HasPrefix(data, tokBackToAppList) {
		prefix = tokBackToAppList
	}
	id, err := util.TokenID(data, prefix)
	if err != nil {
		return err
	}
	o, err := e.repo.GetOlympiad(t.ctx, id)
	if err != nil {
		return err
	}
	apps, err := e.repo.ListOlympiadApplications(t.ctx, id)
	if err != nil {
		return err
	}
	back := row(btn("↩️ К олимпиаде", util.Token(tokViewOlympiad, id)))
	if len(apps) == 0 {
		t.send(Reply{Text: "На эту олимпиаду нет заявок", Buttons: [][]InlineButton{back}})
		return nil
	}
	t.send(Reply{
		Text:    fmt.Sprintf("Заявки на олимпиаду «%s»:", o.Title),
		Buttons: append(applicationListKeyboard(tokAdminAppCheck, apps), back),
	})
	return nil
}

// ---------- Editing ----------

func (e *Engine) startOlympiadEdit(t *turn, data string) error {
	id, err := util.TokenID(data, tokEditOlympiad)
	if err != nil {
		return err
	}
	if _, err := e.repo.GetOlympiad(t.ctx, id); err != nil {
		return err
	}
	if err := e.save(t, flow.StartOlympiadEdit(id)); err != nil {
		return err
	}
	t.send(Reply{Text: "Выберите поле для редактирования:", Buttons: editFieldsKeyboard()})
	return nil
}

func (e *Engine) chooseOlympiadField(t *turn, data string) error {
	s, ok, err := stateAs[flow.OlympiadEdit](e, t)
	if !ok || err != nil {
		return err
	}
	field, err := models.ParseOlympiadField(data[len(tokEditField):])
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrBadToken, err)
	}
	next, err := s.ChooseField(field)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	prompt := fmt.Sprintf("Введите новое значение поля «%s»:", olympiadFieldLabels[field])
	if field.IsDate() {
		prompt = fmt.Sprintf("Введите новое значение поля «%s» (в формате ГГГГ-ММ-ДД):", olympiadFieldLabels[field])
	}
	t.say(prompt)
	return nil
}

func (e *Engine) editOlympiadText(t *turn, s flow.OlympiadEdit, text string) error {
	v, err := s.Value(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.repo.UpdateOlympiadField(t.ctx, s.OlympiadID, v); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	t.say(fmt.Sprintf("✅ Поле «%s» успешно обновлено", olympiadFieldLabels[v.Field]))
	return e.olympiadDetail(t, s.OlympiadID)
}

func (e *Engine) cancelOlympiadEdit(t *turn, _ string) error {
	if _, ok, err := stateAs[flow.OlympiadEdit](e, t); !ok || err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	t.say("Редактирование отменено")
	return e.olympiadPage(t, 1)
}

// ---------- Deletion ----------

func (e *Engine) confirmDeleteOlympiad(t *turn, data string) error {
	id, err := util.TokenID(data, tokDeleteOlympiad)
	if err != nil {
		return err
	}
	o, err := e.repo.GetOlympiad(t.ctx, id)
	if err != nil {
		return err
	}
	t.send(Reply{
		Text:    fmt.Sprintf("Вы уверены, что хотите удалить олимпиаду «%s»? Все заявки на нее также будут удалены.", o.Title),
		Buttons: confirmDeleteOlympiadKeyboard(id),
	})
	return nil
}

func (e *Engine) deleteOlympiad(t *turn, data string) error {
	id, err := util.TokenID(data, tokConfirmDelete)
	if err != nil {
		return err
	}
	if err := e.repo.DeleteOlympiad(t.ctx, id); err != nil {
		return err
	}
	e.log.Info("olympiad deleted", slogx.Actor(t.actor), slog.Uint64("olympiad", uint64(id)))
	t.say("✅ Олимпиада успешно удалена")
	return e.olympiadPage(t, 1)
}

func (e *Engine) cancelDeleteOlympiad(t *turn, _ string) error {
	t.say("Удаление отменено")
	return nil
}

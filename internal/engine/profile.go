package engine

import (
	"fmt"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

// ---------- Profile editing ----------

func (e *Engine) startProfileEdit(t *turn, _ string) error {
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u == nil {
		t.say(msgNotRegistered)
		return nil
	}
	if err := e.save(t, flow.StartProfileEdit()); err != nil {
		return err
	}
	t.send(Reply{Text: profileView(u) + "\n\nЧто вы хотите изменить?", Buttons: profileFieldsKeyboard()})
	return nil
}

func (e *Engine) chooseProfileField(t *turn, data string) error {
	s, ok, err := stateAs[flow.ProfileEdit](e, t)
	if !ok || err != nil {
		return err
	}
	field, err := models.ParseProfileField(data[len(tokProfileField):])
	if err != nil {
		return fmt.Errorf("%w: %v", util.ErrBadToken, err)
	}
	next, err := s.ChooseField(field)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	if field == models.ProfileCategory {
		cats, err := e.repo.ListCategories(t.ctx)
		if err != nil {
			return err
		}
		if err := e.save(t, next); err != nil {
			return err
		}
		t.send(Reply{Text: "Выберите новую категорию:", Buttons: categoriesKeyboard(tokProfileCategory, cats)})
		return nil
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	prompt := fmt.Sprintf("Введите новое значение поля «%s»:", profileFieldLabels[field])
	if field == models.ProfileMiddleName {
		prompt = "Введите новое отчество (или «-», чтобы его убрать):"
	}
	t.say(prompt)
	return nil
}

func (e *Engine) chooseProfileCategory(t *turn, data string) error {
	s, ok, err := stateAs[flow.ProfileEdit](e, t)
	if !ok || err != nil {
		return err
	}
	if s.Step != flow.EditNewValue || s.Field != models.ProfileCategory {
		t.say(msgStale)
		return nil
	}
	id, err := util.TokenID(data, tokProfileCategory)
	if err != nil {
		return err
	}
	cat, err := e.repo.GetCategory(t.ctx, id)
	if err != nil {
		return err
	}
	if err := e.repo.UpdateUserCategory(t.ctx, t.actor, cat.ID); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	t.say(fmt.Sprintf("✅ Категория изменена на «%s»", cat.Name))
	return nil
}

func (e *Engine) profileText(t *turn, s flow.ProfileEdit, text string) error {
	v, err := s.Value(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.repo.UpdateUserName(t.ctx, t.actor, v); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	t.say(fmt.Sprintf("✅ Поле «%s» успешно обновлено", profileFieldLabels[v.Field]))
	return nil
}

func (e *Engine) cancelProfileEdit(t *turn, _ string) error {
	if err := e.clear(t); err != nil {
		return err
	}
	t.send(Reply{Text: "Редактирование профиля отменено", Menu: settingsMenu()})
	return nil
}

// ---------- Account deletion ----------

func (e *Engine) startAccountDelete(t *turn, _ string) error {
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u == nil {
		t.say(msgNotRegistered)
		return nil
	}
	if err := e.save(t, flow.StartAccountDelete()); err != nil {
		return err
	}
	t.send(Reply{
		Text: "⚠️ Вы уверены, что хотите удалить аккаунт?\n" +
			"Все ваши заявки и комментарии будут удалены без возможности восстановления.",
		Buttons: confirmDeleteAccountKeyboard(),
	})
	return nil
}

func (e *Engine) deleteAccount(t *turn, _ string) error {
	if _, ok, err := stateAs[flow.AccountDelete](e, t); !ok || err != nil {
		return err
	}
	if err := e.repo.DeleteUser(t.ctx, t.actor); err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("account deleted", slogx.Actor(t.actor))
	t.send(Reply{Text: "✅ Ваш аккаунт удален. Чтобы зарегистрироваться снова, нажмите /start", RemoveMenu: true})
	return nil
}

func (e *Engine) cancelAccountDelete(t *turn, _ string) error {
	if err := e.clear(t); err != nil {
		return err
	}
	t.send(Reply{Text: "Удаление аккаунта отменено", Menu: settingsMenu()})
	return nil
}

package engine

import (
	"errors"
	"fmt"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

// ---------- Commands ----------

func (e *Engine) onCommand(t *turn, name string) error {
	switch name {
	case "start":
		return e.start(t)
	case "help":
		return e.showHelp(t, "")
	case "status":
		return e.status(t)
	case "cancel":
		return e.cancel(t)
	case "delete_account":
		return e.startAccountDelete(t, "")
	default:
		t.say("Неизвестная команда. Список команд: /help")
		return nil
	}
}

// user returns the actor's record, or nil when the actor has not registered.
func (e *Engine) user(t *turn) (*models.User, error) {
	u, err := e.repo.GetUser(t.ctx, t.actor)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func (e *Engine) start(t *turn) error {
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u != nil {
		t.send(Reply{
			Text: fmt.Sprintf("С возвращением, %s!", u.FirstName),
			Menu: mainMenu(u.RoleName().Privileged()),
		})
		return nil
	}
	return e.startRegistration(t, "👋 Добро пожаловать! Для регистрации введите ваше имя:")
}

func (e *Engine) status(t *turn) error {
	if err := e.repo.Ping(t.ctx); err != nil {
		e.log.Warn("status check failed", slogx.Err(err))
		t.say("⚠️ Бот работает, но база данных недоступна.")
		return nil
	}
	t.say("✅ Бот работает, база данных доступна.")
	return nil
}

func (e *Engine) cancel(t *turn) error {
	if err := e.clear(t); err != nil {
		return err
	}
	t.send(Reply{
		Text: "Действие отменено.",
		Menu: mainMenu(e.gate.IsPrivileged(t.ctx, t.actor)),
	})
	return nil
}

// ---------- Menus ----------

func (e *Engine) showHelp(t *turn, _ string) error {
	t.say(helpText)
	return nil
}

func (e *Engine) showMainMenu(t *turn, _ string) error {
	t.send(Reply{Text: msgChooseAction, Menu: mainMenu(e.gate.IsPrivileged(t.ctx, t.actor))})
	return nil
}

func (e *Engine) showSettings(t *turn, _ string) error {
	t.send(Reply{Text: "⚙️ Настройки", Menu: settingsMenu()})
	return nil
}

func (e *Engine) showAdminPanel(t *turn, _ string) error {
	t.send(Reply{Text: "👑 Админ-панель", Menu: adminMenu()})
	return nil
}

func (e *Engine) showProfile(t *turn, _ string) error {
	u, err := e.user(t)
	if err != nil {
		return err
	}
	if u == nil {
		t.say(msgNotRegistered)
		return nil
	}
	t.say(profileView(u))
	return nil
}

// ---------- Registration ----------

func (e *Engine) startRegistration(t *turn, prompt string) error {
	if err := e.save(t, flow.StartRegistration()); err != nil {
		return err
	}
	t.say(prompt)
	return nil
}

func (e *Engine) registrationText(t *turn, s flow.Registration, text string) error {
	next, err := s.Text(text)
	if msg, ok := inputError(err); ok {
		t.say(msg)
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	switch next.Step {
	case flow.RegLastName:
		t.say("Отлично! Теперь введите вашу фамилию:")
	case flow.RegMiddleName:
		t.say("Введите ваше отчество (или «-», если его нет):")
	case flow.RegRole:
		t.send(Reply{Text: "Выберите вашу роль:", Buttons: roleKeyboard()})
	}
	return nil
}

func (e *Engine) chooseRole(t *turn, data string) error {
	s, ok, err := stateAs[flow.Registration](e, t)
	if !ok || err != nil {
		return err
	}
	args, err := util.TokenArgs(data, tokRole)
	if err != nil {
		return err
	}
	role, known := models.RoleCodes[args[0]]
	if len(args) != 1 || !known {
		return fmt.Errorf("%w: unknown role %q", util.ErrBadToken, data)
	}
	next, err := s.ChooseRole(role)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	cats, err := e.repo.ListCategories(t.ctx)
	if err != nil {
		return err
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	t.send(Reply{Text: "Выберите вашу категорию:", Buttons: categoriesKeyboard(tokCategory, cats)})
	return nil
}

func (e *Engine) chooseCategory(t *turn, data string) error {
	s, ok, err := stateAs[flow.Registration](e, t)
	if !ok || err != nil {
		return err
	}
	id, err := util.TokenID(data, tokCategory)
	if err != nil {
		return err
	}
	cat, err := e.repo.GetCategory(t.ctx, id)
	if err != nil {
		return err
	}
	next, err := s.ChooseCategory(*cat)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	if err := e.save(t, next); err != nil {
		return err
	}
	t.send(Reply{Text: registrationSummary(next), Buttons: confirmKeyboard()})
	return nil
}

func (e *Engine) commitRegistration(t *turn, s flow.Registration) error {
	nu, err := s.NewUser(t.actor)
	if err != nil {
		t.say(msgStale)
		return nil
	}
	u, err := e.repo.CreateUser(t.ctx, nu)
	if errors.Is(err, storage.ErrDuplicate) {
		if err := e.clear(t); err != nil {
			return err
		}
		t.say("Вы уже зарегистрированы. Нажмите /start")
		return nil
	}
	if err != nil {
		return err
	}
	if err := e.clear(t); err != nil {
		return err
	}
	e.log.Info("user registered", slogx.Actor(t.actor))
	t.say(fmt.Sprintf(
		"✅ Регистрация успешно завершена!\n\n"+
			"Добро пожаловать, %s!\n"+
			"Ваша роль: %s\n"+
			"Ваша категория: %s\n\n"+
			"Теперь вы можете использовать все возможности бота.",
		u.FirstName, u.RoleName(), u.CategoryName(),
	))
	t.send(Reply{Text: msgChooseAction, Menu: mainMenu(u.RoleName().Privileged())})
	return nil
}

// confirmYes and confirmNo serve both registration and olympiad creation.
func (e *Engine) confirmYes(t *turn, _ string) error {
	st, ok, err := e.load(t)
	if err != nil {
		return err
	}
	if ok {
		switch s := st.(type) {
		case flow.Registration:
			return e.commitRegistration(t, s)
		case flow.OlympiadCreate:
			return e.commitOlympiad(t, s)
		}
	}
	t.say(msgStale)
	return nil
}

func (e *Engine) confirmNo(t *turn, _ string) error {
	st, ok, err := e.load(t)
	if err != nil {
		return err
	}
	if ok {
		switch st.(type) {
		case flow.Registration:
			return e.startRegistration(t, "Регистрация отменена. Начнём заново!\n\nВведите ваше имя:")
		case flow.OlympiadCreate:
			return e.restartOlympiadCreate(t, "Создание олимпиады отменено. Начнём заново!\n\nВведите название олимпиады:")
		}
	}
	t.say(msgStale)
	return nil
}

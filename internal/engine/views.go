package engine

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
)

const (
	msgFailure       = "❌ Произошла ошибка. Действие отменено, попробуйте позже."
	msgNotFound      = "❌ Запись не найдена. Возможно, она была удалена. Действие отменено."
	msgDenied        = "Доступ запрещен!"
	msgAdminOnly     = "⛔ Это действие доступно только администратору."
	msgStale         = "⚠️ Это действие уже неактуально."
	msgUseButtons    = "Пожалуйста, воспользуйтесь кнопками в сообщении выше."
	msgUnknownInput  = "Не понимаю. Выберите действие в меню или нажмите /help."
	msgNotRegistered = "Вы еще не зарегистрированы. Нажмите /start"
	msgChooseAction  = "Выберите действие:"

	msgEmpty          = "❌ Значение не может быть пустым. Попробуйте еще раз:"
	msgTooLong        = "❌ Слишком длинное значение. Сократите его и попробуйте еще раз:"
	msgBadDate        = "❌ Неверный формат даты. Пожалуйста, введите дату в формате ГГГГ-ММ-ДД:"
	msgEndBeforeStart = "❌ Дата окончания не может быть раньше даты начала. Пожалуйста, введите корректную дату окончания:"

	helpText = "ℹ️ Помощь по боту:\n\n" +
		"• /start - Начать работу\n" +
		"• /help - Получить помощь\n" +
		"• /cancel - Отменить текущее действие\n" +
		"• /status - Проверить работу бота\n" +
		"• /delete_account - Удалить аккаунт\n" +
		"• 📋 Мои заявки - Просмотр ваших заявок\n" +
		"• 🏆 Доступные олимпиады - Список олимпиад\n" +
		"• ⚙️ Настройки - Настройки профиля\n" +
		"• 🏠 Главное меню - Вернуться в главное меню"
)

// inputError maps a validation failure to the re-prompt shown for it.
func inputError(err error) (string, bool) {
	switch {
	case errors.Is(err, flow.ErrEmpty):
		return msgEmpty, true
	case errors.Is(err, flow.ErrTooLong):
		return msgTooLong, true
	case errors.Is(err, flow.ErrBadDate):
		return msgBadDate, true
	case errors.Is(err, flow.ErrEndBeforeStart):
		return msgEndBeforeStart, true
	case errors.Is(err, flow.ErrUnexpected):
		return msgUseButtons, true
	}
	return "", false
}

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "не указано"
	}
	return *s
}

func profileView(u *models.User) string {
	return fmt.Sprintf(
		"👤 Ваш профиль:\n\n"+
			"Имя: %s\n"+
			"Фамилия: %s\n"+
			"Отчество: %s\n"+
			"🎭 Роль: %s\n"+
			"🏷️ Категория: %s",
		u.FirstName, u.LastName, orDash(u.MiddleName), u.RoleName(), u.CategoryName(),
	)
}

func registrationSummary(r flow.Registration) string {
	return fmt.Sprintf(
		"Проверьте ваши данные:\n\n"+
			"👤 Имя: %s\n"+
			"📖 Фамилия: %s\n"+
			"📝 Отчество: %s\n"+
			"🎭 Роль: %s\n"+
			"🏷️ Категория: %s",
		r.FirstName, r.LastName, orDash(r.MiddleName), roleLabels[r.Role], r.CategoryName,
	)
}

func creationSummary(c flow.OlympiadCreate) string {
	return fmt.Sprintf(
		"Проверьте данные олимпиады:\n\n"+
			"🏆 Название: %s\n"+
			"📝 Описание: %s\n"+
			"🏢 Организатор: %s\n"+
			"📅 Начало: %s\n"+
			"📅 Окончание: %s\n"+
			"📚 Дисциплина: %s",
		c.Title, c.Description, c.Organizer,
		util.FormatDate(c.StartDate), util.FormatDate(c.EndDate), c.SubjectTitle,
	)
}

func olympiadView(o *models.Olympiad) string {
	return fmt.Sprintf(
		"🏆 %s\n"+
			"📚 Дисциплина: %s\n"+
			"🏢 Организатор: %s\n"+
			"📅 Начало: %s\n"+
			"📅 Окончание: %s\n\n"+
			"%s",
		o.Title, o.SubjectTitle(), o.Organizer,
		util.FormatDate(o.StartDate), util.FormatDate(o.EndDate), o.Description,
	)
}

// olympiadAdminView is rendered as HTML.
func olympiadAdminView(o *models.Olympiad, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🏆 %s</b> (ID: %d)\n", html.EscapeString(o.Title), o.ID)
	fmt.Fprintf(&b, "📚 Дисциплина: %s\n", html.EscapeString(o.SubjectTitle()))
	fmt.Fprintf(&b, "🏢 Организатор: %s\n", html.EscapeString(o.Organizer))
	fmt.Fprintf(&b, "📅 %s - %s\n\n", util.FormatDate(o.StartDate), util.FormatDate(o.EndDate))
	b.WriteString(html.EscapeString(o.Description))
	if link != "" {
		fmt.Fprintf(&b, "\n\n📥 <a href=\"%s\">Скачать отчет</a>", html.EscapeString(link))
	}
	return b.String()
}

func applicantName(a *models.Application) string {
	if a.User == nil {
		return "-"
	}
	return a.User.FullName()
}

func olympiadTitle(a *models.Application) string {
	if a.Olympiad == nil {
		return "-"
	}
	return a.Olympiad.Title
}

func commentsView(b *strings.Builder, msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}
	b.WriteString("\n\n💬 Комментарии:")
	for _, m := range msgs {
		author := "-"
		if m.User != nil {
			author = m.User.FullName()
		}
		fmt.Fprintf(b, "\n%s, %s:\n%s", author, util.FormatDateTime(m.SentAt), m.Text)
	}
}

func applicationView(a *models.Application, withComments bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📝 Заявка #%d\n", a.ID)
	fmt.Fprintf(&b, "👤 Пользователь: %s\n", applicantName(a))
	fmt.Fprintf(&b, "📚 Олимпиада: %s\n", olympiadTitle(a))
	fmt.Fprintf(&b, "📅 Дата подачи: %s\n", util.FormatDateTime(a.CreatedAt))
	fmt.Fprintf(&b, "🔄 Статус: %s", a.StatusName())
	if withComments {
		commentsView(&b, a.Messages)
	}
	return b.String()
}

func myApplicationsView(apps []models.Application) string {
	var b strings.Builder
	b.WriteString("Ваши заявки:")
	for _, a := range apps {
		fmt.Fprintf(&b, "\n\n🏆 %s\n📅 %s\n🔄 Статус: %s",
			olympiadTitle(&a), util.FormatDateTime(a.CreatedAt), a.StatusName())
	}
	return b.String()
}

package engine

import (
	"fmt"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
)

// ---------- Menu labels ----------

const (
	labelProfile   = "👤 Профиль"
	labelMyApps    = "📋 Мои заявки"
	labelOlympiads = "🏆 Доступные олимпиады"
	labelSettings  = "⚙️ Настройки"
	labelHelp      = "ℹ️ Помощь"
	labelAdmin     = "👑 Админ-панель"

	labelEditProfile   = "✏️ Изменить профиль"
	labelDeleteAccount = "❌ Удалить аккаунт"
	labelMainMenu      = "🏠 Главное меню"

	labelAddOlympiad  = "➕ Добавить олимпиаду"
	labelOlympiadList = "📋 Список олимпиад"
	labelPendingApps  = "📝 Заявки на модерации"
	labelReports      = "📊 Отчеты"
)

func mainMenu(privileged bool) [][]string {
	rows := [][]string{
		{labelProfile},
		{labelMyApps, labelOlympiads},
		{labelSettings, labelHelp},
	}
	if privileged {
		rows = append(rows, []string{labelAdmin})
	}
	return rows
}

func settingsMenu() [][]string {
	return [][]string{
		{labelEditProfile, labelDeleteAccount},
		{labelMainMenu},
	}
}

func adminMenu() [][]string {
	return [][]string{
		{labelAddOlympiad, labelOlympiadList},
		{labelPendingApps, labelReports},
		{labelMainMenu},
	}
}

// ---------- Button tokens ----------

const (
	tokRole             = "role_"
	tokCategory         = "category_"
	tokConfirmYes       = "confirm_yes"
	tokConfirmNo        = "confirm_no"
	tokSubject          = "subject_"
	tokOlympiad         = "olympiad_"
	tokApplyConfirm     = "application_confirm"
	tokMyApp            = "myapp_"
	tokAppID            = "app_id_"
	tokAppApprove       = "app_approve_"
	tokAppReject        = "app_reject_"
	tokSkipComment      = "skip_comment"
	tokBackToPending    = "back_to_applications_moderation"
	tokOlympiadsPage    = "olympiads_page_"
	tokViewOlympiad     = "view_olympiad_"
	tokViewOlympiadApps = "view_olympiad_apps_"
	tokAdminAppCheck    = "app_admin_app_check_"
	tokChangeAppStatus  = "change_app_status_"
	tokSetAppStatus     = "set_app_status_"
	tokDeleteApp        = "delete_app_"
	tokEditAppMessage   = "app_msg_edit_"
	tokBackToAppList    = "back_to_applications_list_"
	tokEditOlympiad     = "edit_olympiad_"
	tokEditField        = "edit_field_"
	tokCancelEditField  = "cancel_editing_olymp_field"
	tokDeleteOlympiad   = "delete_olympiad_"
	tokConfirmDelete    = "confirm_delete_olympiad_"
	tokConfirmDeleteNo  = "confirm_delete_olympiad_no"
	tokBackToAdmin      = "back_to_admin_panel"
	tokBackToOlympiads  = "back_to_olympiads_list"
	tokReport           = "report_"
	tokProfileField     = "profile_field_"
	tokProfileCategory  = "profile_category_"
	tokProfileCancel    = "profile_cancel"
	tokDeleteYes        = "delete_yes"
	tokDeleteNo         = "delete_no"
)

func btn(text, data string) InlineButton {
	return InlineButton{Text: text, Data: data}
}

func row(b ...InlineButton) []InlineButton { return b }

var roleLabels = map[models.RoleName]string{
	models.RoleStudent:       "🎓 Студент",
	models.RoleModerator:     "👨‍🏫 Модератор",
	models.RoleAdministrator: "👑 Администратор",
}

func roleKeyboard() [][]InlineButton {
	var rows [][]InlineButton
	for _, r := range models.Roles {
		rows = append(rows, row(btn(roleLabels[r], tokRole+r.Code())))
	}
	return rows
}

func categoriesKeyboard(prefix string, cats []models.Category) [][]InlineButton {
	var rows [][]InlineButton
	for i := 0; i < len(cats); i += 2 {
		r := row(btn(cats[i].Name, util.Token(prefix, cats[i].ID)))
		if i+1 < len(cats) {
			r = append(r, btn(cats[i+1].Name, util.Token(prefix, cats[i+1].ID)))
		}
		rows = append(rows, r)
	}
	return rows
}

func confirmKeyboard() [][]InlineButton {
	return [][]InlineButton{
		row(btn("✅ Да, всё верно", tokConfirmYes)),
		row(btn("❌ Нет, начать заново", tokConfirmNo)),
	}
}

func subjectsKeyboard(subjects []models.Subject) [][]InlineButton {
	var rows [][]InlineButton
	for _, s := range subjects {
		rows = append(rows, row(btn(s.Title, util.Token(tokSubject, s.ID))))
	}
	return rows
}

func olympiadsKeyboard(olympiads []models.Olympiad) [][]InlineButton {
	var rows [][]InlineButton
	for _, o := range olympiads {
		rows = append(rows, row(btn(o.Title, util.Token(tokOlympiad, o.ID))))
	}
	return rows
}

func applyKeyboard() [][]InlineButton {
	return [][]InlineButton{row(btn("✅ Подать заявление", tokApplyConfirm))}
}

func myApplicationsKeyboard(apps []models.Application) [][]InlineButton {
	var rows [][]InlineButton
	for _, a := range apps {
		title := fmt.Sprintf("Заявка #%d", a.ID)
		if a.Olympiad != nil {
			title += " - " + a.Olympiad.Title
		}
		rows = append(rows, row(btn(title, util.Token(tokMyApp, a.ID))))
	}
	return rows
}

func applicationListKeyboard(prefix string, apps []models.Application) [][]InlineButton {
	var rows [][]InlineButton
	for _, a := range apps {
		title := fmt.Sprintf("Заявка #%d", a.ID)
		if a.User != nil {
			title += fmt.Sprintf(" - %s %s", a.User.FirstName, a.User.LastName)
		}
		rows = append(rows, row(btn(title, util.Token(prefix, a.ID))))
	}
	return rows
}

func moderationKeyboard(appID uint) [][]InlineButton {
	return [][]InlineButton{
		row(
			btn("✅ Одобрить", util.Token(tokAppApprove, appID)),
			btn("❌ Отклонить", util.Token(tokAppReject, appID)),
		),
		row(btn("↩️ Назад к списку", tokBackToPending)),
	}
}

func skipCommentKeyboard() [][]InlineButton {
	return [][]InlineButton{row(btn("⏭ Пропустить", tokSkipComment))}
}

func olympiadPageKeyboard(olympiads []models.Olympiad, page, pages int) [][]InlineButton {
	var rows [][]InlineButton
	for _, o := range olympiads {
		rows = append(rows, row(btn(o.Title, util.Token(tokViewOlympiad, o.ID))))
	}
	var nav []InlineButton
	if page > 1 {
		nav = append(nav, btn("⬅️ Назад", util.Token(tokOlympiadsPage, page-1)))
	}
	if page < pages {
		nav = append(nav, btn("Вперед ➡️", util.Token(tokOlympiadsPage, page+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	return append(rows, row(btn("↩️ В админ-панель", tokBackToAdmin)))
}

func olympiadActionsKeyboard(id uint) [][]InlineButton {
	return [][]InlineButton{
		row(
			btn("✏️ Редактировать", util.Token(tokEditOlympiad, id)),
			btn("📝 Заявки", util.Token(tokViewOlympiadApps, id)),
		),
		row(
			btn("📊 Отчет", util.Token(tokReport, id)),
			btn("🗑 Удалить", util.Token(tokDeleteOlympiad, id)),
		),
		row(btn("↩️ К списку олимпиад", tokBackToOlympiads)),
	}
}

var olympiadFieldLabels = map[models.OlympiadField]string{
	models.OlympiadTitle:       "Название",
	models.OlympiadDescription: "Описание",
	models.OlympiadOrganizer:   "Организатор",
	models.OlympiadStartDate:   "Дата начала",
	models.OlympiadEndDate:     "Дата окончания",
}

func editFieldsKeyboard() [][]InlineButton {
	var rows [][]InlineButton
	for _, f := range models.OlympiadFields {
		rows = append(rows, row(btn(olympiadFieldLabels[f], tokEditField+string(f))))
	}
	return append(rows, row(btn("❌ Отмена", tokCancelEditField)))
}

func confirmDeleteOlympiadKeyboard(id uint) [][]InlineButton {
	return [][]InlineButton{row(
		btn("✅ Да, удалить", util.Token(tokConfirmDelete, id)),
		btn("❌ Нет", tokConfirmDeleteNo),
	)}
}

func adminApplicationKeyboard(app *models.Application, administrator bool) [][]InlineButton {
	rows := [][]InlineButton{
		row(btn("🔄 Изменить статус", util.Token(tokChangeAppStatus, app.ID))),
		row(btn("💬 Комментарий", util.Token(tokEditAppMessage, app.ID))),
	}
	if administrator {
		rows = append(rows, row(btn("🗑 Удалить заявку", util.Token(tokDeleteApp, app.ID))))
	}
	return append(rows, row(btn("↩️ Назад к заявкам", util.Token(tokBackToAppList, app.OlympiadID))))
}

var statusIcons = map[models.StatusName]string{
	models.StatusPending:  "⏳",
	models.StatusApproved: "✅",
	models.StatusRejected: "❌",
}

func statusKeyboard(app *models.Application) [][]InlineButton {
	var rows [][]InlineButton
	for _, st := range models.Statuses {
		if st == app.StatusName() {
			continue
		}
		rows = append(rows, row(btn(statusIcons[st]+" "+string(st), util.Token(tokSetAppStatus, app.ID, st.Code()))))
	}
	return append(rows, row(btn("↩️ Назад", util.Token(tokAdminAppCheck, app.ID))))
}

func reportsKeyboard(olympiads []models.Olympiad) [][]InlineButton {
	var rows [][]InlineButton
	for _, o := range olympiads {
		rows = append(rows, row(btn("📊 "+o.Title, util.Token(tokReport, o.ID))))
	}
	return rows
}

var profileFieldLabels = map[models.ProfileField]string{
	models.ProfileFirstName:  "Имя",
	models.ProfileLastName:   "Фамилия",
	models.ProfileMiddleName: "Отчество",
	models.ProfileCategory:   "Категория",
}

func profileFieldsKeyboard() [][]InlineButton {
	var rows [][]InlineButton
	for _, f := range models.ProfileFields {
		rows = append(rows, row(btn(profileFieldLabels[f], tokProfileField+string(f))))
	}
	return append(rows, row(btn("❌ Отмена", tokProfileCancel)))
}

func confirmDeleteAccountKeyboard() [][]InlineButton {
	return [][]InlineButton{row(
		btn("✅ Да, удалить", tokDeleteYes),
		btn("❌ Нет, отменить", tokDeleteNo),
	)}
}

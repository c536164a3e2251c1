package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(slogx.Discard(), sqlite.Open("file::memory:?_foreign_keys=1"), Options{MaxOpenConns: 1})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := util.ParseDate(s)
	require.NoError(t, err)
	return d
}

func createUser(t *testing.T, s *Store, tgID int64, role models.RoleName) *models.User {
	t.Helper()
	ctx := context.Background()
	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	u, err := s.CreateUser(ctx, models.NewUser{
		TelegramID: tgID,
		FirstName:  "Иван",
		LastName:   "Петров",
		Role:       role,
		CategoryID: cats[0].ID,
	})
	require.NoError(t, err)
	return u
}

func createOlympiad(t *testing.T, s *Store, title, start, end string) *models.Olympiad {
	t.Helper()
	ctx := context.Background()
	subs, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, subs)
	o := &models.Olympiad{
		Title:     title,
		Organizer: "МГУ",
		StartDate: mustDate(t, start),
		EndDate:   mustDate(t, end),
		SubjectID: subs[0].ID,
	}
	require.NoError(t, s.CreateOlympiad(ctx, o))
	return o
}

func count(t *testing.T, s *Store, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestMigrateSeedsReference(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Second run must not duplicate anything.
	require.NoError(t, s.Migrate(ctx))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, len(models.DefaultCategories))

	subs, err := s.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, len(models.DefaultSubjects))

	assert.Equal(t, int64(len(models.Roles)), count(t, s, &models.Role{}, "1 = 1"))
	assert.Equal(t, int64(len(models.Statuses)), count(t, s, &models.ApplicationStatus{}, "1 = 1"))
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, 42)
	assert.True(t, errors.Is(err, ErrNotFound))

	u := createUser(t, s, 42, models.RoleModerator)
	assert.Equal(t, int64(42), u.TelegramID)
	assert.Equal(t, models.RoleModerator, u.RoleName())
	assert.Equal(t, "Петров Иван", u.FullName())

	_, err = s.CreateUser(ctx, models.NewUser{TelegramID: 42, FirstName: "X", Role: models.RoleStudent, CategoryID: 1})
	assert.True(t, errors.Is(err, ErrDuplicate))

	middle := "Сергеевич"
	require.NoError(t, s.UpdateUserName(ctx, 42, models.ProfileValue{Field: models.ProfileMiddleName, Text: &middle}))
	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.NoError(t, s.UpdateUserCategory(ctx, 42, cats[2].ID))

	u, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Петров Иван Сергеевич", u.FullName())
	assert.Equal(t, cats[2].Name, u.CategoryName())

	require.NoError(t, s.UpdateUserName(ctx, 42, models.ProfileValue{Field: models.ProfileMiddleName}))
	u, err = s.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, u.MiddleName)

	err = s.UpdateUserName(ctx, 43, models.ProfileValue{Field: models.ProfileFirstName, Text: &middle})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateUserUnknownCategory(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateUser(context.Background(), models.NewUser{
		TelegramID: 1, FirstName: "A", Role: models.RoleStudent, CategoryID: 9999,
	})
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int64(0), count(t, s, &models.User{}, "telegram_id = ?", 1))
}

func TestActiveOlympiads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	o := createOlympiad(t, s, "Summer Math", "2025-06-01", "2025-06-30")

	ids := func(day string) []uint {
		list, err := s.ListActiveOlympiads(ctx, mustDate(t, day))
		require.NoError(t, err)
		var res []uint
		for _, x := range list {
			res = append(res, x.ID)
		}
		return res
	}
	assert.Contains(t, ids("2025-06-01"), o.ID)
	assert.Contains(t, ids("2025-06-15"), o.ID)
	assert.Contains(t, ids("2025-06-30"), o.ID)
	assert.NotContains(t, ids("2025-05-31"), o.ID)
	assert.NotContains(t, ids("2025-07-01"), o.ID)

	got, err := s.GetOlympiad(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", got.StartDate.Format(util.DateLayout))
	assert.Equal(t, "2025-06-30", got.EndDate.Format(util.DateLayout))
	assert.NotEmpty(t, got.SubjectTitle())
}

func TestCreateOlympiadRejectsReversedDates(t *testing.T) {
	s := newTestStore(t)
	subs, err := s.ListSubjects(context.Background())
	require.NoError(t, err)
	err = s.CreateOlympiad(context.Background(), &models.Olympiad{
		Title:     "Bad",
		StartDate: mustDate(t, "2025-06-30"),
		EndDate:   mustDate(t, "2025-06-01"),
		SubjectID: subs[0].ID,
	})
	assert.Error(t, err)
	assert.Equal(t, int64(0), count(t, s, &models.Olympiad{}, "1 = 1"))
}

func TestListOlympiadsPaging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C"} {
		createOlympiad(t, s, title, "2025-01-01", "2025-01-02")
	}
	page, total, err := s.ListOlympiads(ctx, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 2)

	page, _, err = s.ListOlympiads(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestUpdateOlympiadField(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	o := createOlympiad(t, s, "Old", "2025-06-01", "2025-06-30")

	require.NoError(t, s.UpdateOlympiadField(ctx, o.ID, models.OlympiadValue{Field: models.OlympiadTitle, Text: "New"}))
	require.NoError(t, s.UpdateOlympiadField(ctx, o.ID, models.OlympiadValue{Field: models.OlympiadEndDate, Date: mustDate(t, "2025-07-15")}))

	got, err := s.GetOlympiad(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "2025-07-15", got.EndDate.Format(util.DateLayout))

	err = s.UpdateOlympiadField(ctx, o.ID+100, models.OlympiadValue{Field: models.OlympiadTitle, Text: "X"})
	assert.True(t, errors.Is(err, ErrNotFound))
	err = s.UpdateOlympiadField(ctx, o.ID, models.OlympiadValue{Field: "subject_id", Text: "1"})
	assert.Error(t, err)
}

func TestApplicationUniqueness(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1, models.RoleStudent)
	o := createOlympiad(t, s, "O", "2025-06-01", "2025-06-30")
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	app, err := s.CreateApplication(ctx, u.ID, o.ID, at)
	require.NoError(t, err)
	has, err := s.HasApplication(ctx, u.ID, o.ID)
	require.NoError(t, err)
	assert.True(t, has)

	_, err = s.CreateApplication(ctx, u.ID, o.ID, at)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.Equal(t, int64(1), count(t, s, &models.Application{}, "user_id = ?", u.ID))

	// The index holds even when the explicit check is bypassed.
	err = s.db.Create(&models.Application{UserID: u.ID, OlympiadID: o.ID, StatusID: app.StatusID, CreatedAt: at}).Error
	assert.True(t, errors.Is(translate(err), ErrDuplicate))

	_, err = s.CreateApplication(ctx, u.ID, o.ID+100, at)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApplicationStatusAndMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	student := createUser(t, s, 1, models.RoleStudent)
	mod1 := createUser(t, s, 2, models.RoleModerator)
	mod2 := createUser(t, s, 3, models.RoleAdministrator)
	o := createOlympiad(t, s, "O", "2025-06-01", "2025-06-30")
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	app, err := s.CreateApplication(ctx, student.ID, o.ID, at)
	require.NoError(t, err)

	pending, err := s.ListPendingApplications(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.StatusPending, pending[0].StatusName())

	require.NoError(t, s.UpdateApplicationStatus(ctx, app.ID, models.StatusApproved))
	pending, err = s.ListPendingApplications(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	require.NoError(t, s.CreateMessage(ctx, app.ID, mod1.ID, "first", at))
	require.NoError(t, s.CreateMessage(ctx, app.ID, mod2.ID, "other", at.Add(time.Minute)))
	require.NoError(t, s.CreateMessage(ctx, app.ID, mod1.ID, "second", at.Add(2*time.Minute)))
	require.NoError(t, s.ReplaceMessage(ctx, app.ID, mod1.ID, "edited", at.Add(3*time.Minute)))

	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.StatusName())
	var texts []string
	for _, m := range got.Messages {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"other", "edited"}, texts)

	mine, err := s.ListUserApplications(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "O", mine[0].Olympiad.Title)

	err = s.UpdateApplicationStatus(ctx, app.ID+100, models.StatusRejected)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReviewApplication(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1, models.RoleStudent)
	mod := createUser(t, s, 2, models.RoleModerator)
	o := createOlympiad(t, s, "O", "2025-06-01", "2025-06-30")
	app, err := s.CreateApplication(ctx, u.ID, o.ID, time.Now())
	require.NoError(t, err)

	require.NoError(t, s.ReviewApplication(ctx, app.ID, models.StatusRejected, mod.ID, "Поздно", time.Now()))
	got, err := s.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.StatusName())
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "Поздно", got.Messages[0].Text)
	assert.Equal(t, mod.ID, got.Messages[0].User.ID)

	err = s.ReviewApplication(ctx, app.ID+100, models.StatusApproved, mod.ID, "x", time.Now())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, int64(1), count(t, s, &models.Message{}, "1 = 1"))
}

func TestDeleteApplication(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1, models.RoleStudent)
	o := createOlympiad(t, s, "O", "2025-06-01", "2025-06-30")
	app, err := s.CreateApplication(ctx, u.ID, o.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateMessage(ctx, app.ID, u.ID, "hi", time.Now()))

	require.NoError(t, s.DeleteApplication(ctx, app.ID))
	assert.Equal(t, int64(0), count(t, s, &models.Message{}, "application_id = ?", app.ID))
	assert.True(t, errors.Is(s.DeleteApplication(ctx, app.ID), ErrNotFound))
}

func TestDeleteUserCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1, models.RoleStudent)
	mod := createUser(t, s, 2, models.RoleModerator)
	o := createOlympiad(t, s, "O", "2025-06-01", "2025-06-30")
	app, err := s.CreateApplication(ctx, u.ID, o.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateMessage(ctx, app.ID, mod.ID, "ok", time.Now()))

	require.NoError(t, s.DeleteUser(ctx, 1))

	assert.Equal(t, int64(0), count(t, s, &models.Application{}, "user_id = ?", u.ID))
	assert.Equal(t, int64(0), count(t, s, &models.Message{}, "application_id = ? OR user_id = ?", app.ID, u.ID))
	assert.Equal(t, int64(0), count(t, s, &models.UserRole{}, "user_id = ?", u.ID))
	assert.Equal(t, int64(0), count(t, s, &models.UserCategory{}, "user_id = ?", u.ID))
	assert.Equal(t, int64(0), count(t, s, &models.User{}, "id = ?", u.ID))

	_, err = s.GetUser(ctx, 2)
	assert.NoError(t, err)
	assert.True(t, errors.Is(s.DeleteUser(ctx, 1), ErrNotFound))
}

func TestDeleteOlympiadCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1, models.RoleStudent)
	keep := createOlympiad(t, s, "Keep", "2025-06-01", "2025-06-30")
	drop := createOlympiad(t, s, "Drop", "2025-06-01", "2025-06-30")

	a1, err := s.CreateApplication(ctx, u.ID, drop.ID, time.Now())
	require.NoError(t, err)
	a2, err := s.CreateApplication(ctx, u.ID, keep.ID, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.CreateMessage(ctx, a1.ID, u.ID, "x", time.Now()))
	require.NoError(t, s.CreateMessage(ctx, a2.ID, u.ID, "y", time.Now()))

	require.NoError(t, s.DeleteOlympiad(ctx, drop.ID))

	assert.Equal(t, int64(0), count(t, s, &models.Application{}, "olympiad_id = ?", drop.ID))
	assert.Equal(t, int64(0), count(t, s, &models.Message{}, "application_id = ?", a1.ID))
	assert.Equal(t, int64(1), count(t, s, &models.Message{}, "application_id = ?", a2.ID))
	_, err = s.GetOlympiad(ctx, drop.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(s.DeleteOlympiad(ctx, drop.ID), ErrNotFound))
}

func TestSeedDemo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	today := mustDate(t, "2025-06-15")
	require.NoError(t, s.SeedDemo(ctx, today))
	require.NoError(t, s.SeedDemo(ctx, today))

	admin, err := s.GetUser(ctx, 123456789)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdministrator, admin.RoleName())

	active, err := s.ListActiveOlympiads(ctx, today)
	require.NoError(t, err)
	assert.NotEmpty(t, active)
}

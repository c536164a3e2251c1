// Package engine drives the conversations: it loads the actor's flow state,
// routes the event to a handler and collects the replies.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"olympiad-bot/internal/flow"
	"olympiad-bot/internal/models"
	"olympiad-bot/internal/session"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

type Repository interface {
	Ping(ctx context.Context) error

	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	CreateUser(ctx context.Context, nu models.NewUser) (*models.User, error)
	UpdateUserName(ctx context.Context, telegramID int64, v models.ProfileValue) error
	UpdateUserCategory(ctx context.Context, telegramID int64, categoryID uint) error
	DeleteUser(ctx context.Context, telegramID int64) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	ListSubjects(ctx context.Context) ([]models.Subject, error)
	GetSubject(ctx context.Context, id uint) (*models.Subject, error)

	CreateOlympiad(ctx context.Context, o *models.Olympiad) error
	GetOlympiad(ctx context.Context, id uint) (*models.Olympiad, error)
	ListActiveOlympiads(ctx context.Context, day time.Time) ([]models.Olympiad, error)
	ListOlympiads(ctx context.Context, offset, limit int) ([]models.Olympiad, int64, error)
	UpdateOlympiadField(ctx context.Context, id uint, v models.OlympiadValue) error
	DeleteOlympiad(ctx context.Context, id uint) error

	CreateApplication(ctx context.Context, userID, olympiadID uint, at time.Time) (*models.Application, error)
	GetApplication(ctx context.Context, id uint) (*models.Application, error)
	ListUserApplications(ctx context.Context, userID uint) ([]models.Application, error)
	ListPendingApplications(ctx context.Context) ([]models.Application, error)
	ListOlympiadApplications(ctx context.Context, olympiadID uint) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uint, status models.StatusName) error
	ReviewApplication(ctx context.Context, id uint, status models.StatusName, authorID uint, comment string, at time.Time) error
	DeleteApplication(ctx context.Context, id uint) error
	ReplaceMessage(ctx context.Context, applicationID, authorID uint, text string, at time.Time) error
}

type Gate interface {
	IsPrivileged(ctx context.Context, actor int64) bool
	IsAdministrator(ctx context.Context, actor int64) bool
}

// Publisher copies a report table to an external spreadsheet and returns a
// link to it.
type Publisher interface {
	Publish(ctx context.Context, title string, rows [][]any) (string, error)
}

type Options struct {
	PageSize int `toml:"page-size"`

	// Signed download links are shown only when BaseURL is set.
	BaseURL      string `toml:"-"`
	ExportSecret string `toml:"-"`
}

func (o *Options) FillDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = 5
	}
}

type Deps struct {
	Repo      Repository
	Sessions  session.Store
	Gate      Gate
	Publisher Publisher // optional
	Log       *slog.Logger
	Now       func() time.Time
}

type Engine struct {
	repo      Repository
	sessions  session.Store
	gate      Gate
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
	opts      Options

	menu    map[string]route
	buttons []route
}

func New(d Deps, o Options) *Engine {
	o.FillDefaults()
	if d.Now == nil {
		d.Now = time.Now
	}
	e := &Engine{
		repo:      d.Repo,
		sessions:  d.Sessions,
		gate:      d.Gate,
		publisher: d.Publisher,
		log:       d.Log,
		now:       d.Now,
		opts:      o,
	}
	e.menu = e.menuRoutes()
	e.buttons = e.buttonRoutes()
	return e
}

// turn collects the replies produced while handling one event.
type turn struct {
	ctx     context.Context
	actor   int64
	replies []Reply
}

func (t *turn) say(text string) {
	t.replies = append(t.replies, Reply{Text: text})
}

func (t *turn) send(r Reply) {
	t.replies = append(t.replies, r)
}

// Handle processes one event to completion. The returned error is for logging
// only: whatever the actor should see is already among the replies.
func (e *Engine) Handle(ctx context.Context, ev Event) ([]Reply, error) {
	t := &turn{ctx: ctx, actor: ev.Actor}
	if err := e.route(t, ev); err != nil {
		return t.replies, e.classify(t, err)
	}
	return t.replies, nil
}

func (e *Engine) route(t *turn, ev Event) error {
	switch ev.Kind {
	case EventCommand:
		return e.onCommand(t, ev.Name)
	case EventText:
		if r, ok := e.menu[strings.TrimSpace(ev.Text)]; ok {
			return e.dispatch(t, r, ev.Text)
		}
		st, ok, err := e.load(t)
		if err != nil {
			return err
		}
		if !ok {
			t.send(Reply{Text: msgUnknownInput})
			return nil
		}
		return e.onStateText(t, st, ev.Text)
	case EventButton:
		for _, r := range e.buttons {
			if r.matches(ev.Data) {
				return e.dispatch(t, r, ev.Data)
			}
		}
		e.log.Debug("unknown button", slogx.Actor(t.actor), slog.String("data", ev.Data))
		return nil
	}
	return nil
}

// classify turns a handler failure into what the actor sees. Malformed tokens
// only fail the handler; a vanished record aborts the flow with a notice;
// anything else aborts it with a generic failure message.
func (e *Engine) classify(t *turn, err error) error {
	switch {
	case errors.Is(err, util.ErrBadToken):
		return err
	case errors.Is(err, storage.ErrNotFound):
		t.say(msgNotFound)
		e.reset(t)
		return nil
	default:
		t.say(msgFailure)
		e.reset(t)
		return err
	}
}

// ---------- Access ----------

type level int

const (
	levelOpen level = iota
	levelPrivileged
	levelAdministrator
)

type route struct {
	token  string
	prefix bool
	level  level
	// silent denials give no answer at all.
	silent bool
	handle func(t *turn, data string) error
}

func (r route) matches(data string) bool {
	if r.prefix {
		return strings.HasPrefix(data, r.token)
	}
	return data == r.token
}

func (e *Engine) dispatch(t *turn, r route, data string) error {
	if !e.allowed(t, r.level, r.silent) {
		return nil
	}
	return r.handle(t, data)
}

func (e *Engine) allowed(t *turn, l level, silent bool) bool {
	var ok bool
	switch l {
	case levelOpen:
		return true
	case levelPrivileged:
		ok = e.gate.IsPrivileged(t.ctx, t.actor)
	case levelAdministrator:
		ok = e.gate.IsAdministrator(t.ctx, t.actor)
	}
	if !ok {
		e.log.Info("access denied", slogx.Actor(t.actor))
		if !silent {
			if l == levelAdministrator {
				t.say(msgAdminOnly)
			} else {
				t.say(msgDenied)
			}
		}
	}
	return ok
}

// ---------- Session ----------

// load returns the actor's current flow state. A record that no longer
// decodes is dropped and treated as idle.
func (e *Engine) load(t *turn) (flow.State, bool, error) {
	rec, ok, err := e.sessions.Get(t.ctx, t.actor)
	if err != nil || !ok {
		return nil, false, err
	}
	st, err := flow.Decode(rec)
	if err != nil {
		e.log.Warn("dropping undecodable session", slogx.Actor(t.actor), slogx.Err(err))
		return nil, false, e.sessions.Clear(t.ctx, t.actor)
	}
	return st, true, nil
}

func (e *Engine) save(t *turn, st flow.State) error {
	rec, err := flow.Encode(st)
	if err != nil {
		return err
	}
	return e.sessions.Set(t.ctx, t.actor, rec)
}

func (e *Engine) clear(t *turn) error {
	return e.sessions.Clear(t.ctx, t.actor)
}

// reset clears the session on the failure path, where there is nobody left to
// return the error to.
func (e *Engine) reset(t *turn) {
	if err := e.clear(t); err != nil {
		e.log.Error("could not clear session", slogx.Actor(t.actor), slogx.Err(err))
	}
}

// stateAs loads the current state and checks it is a T. A mismatch means the
// button belongs to a flow that is already over.
func stateAs[T flow.State](e *Engine, t *turn) (T, bool, error) {
	var zero T
	st, ok, err := e.load(t)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		t.say(msgStale)
		return zero, false, nil
	}
	s, ok := st.(T)
	if !ok {
		t.say(msgStale)
		return zero, false, nil
	}
	return s, true, nil
}

func (e *Engine) onStateText(t *turn, st flow.State, text string) error {
	switch s := st.(type) {
	case flow.Registration:
		return e.registrationText(t, s, text)
	case flow.OlympiadCreate:
		return e.createText(t, s, text)
	case flow.OlympiadEdit:
		return e.editOlympiadText(t, s, text)
	case flow.Moderation:
		return e.moderationText(t, s, text)
	case flow.CommentEdit:
		return e.commentEditText(t, s, text)
	case flow.ProfileEdit:
		return e.profileText(t, s, text)
	default:
		t.say(msgUseButtons)
		return nil
	}
}

// ---------- Routing tables ----------

func (e *Engine) menuRoutes() map[string]route {
	routes := []route{
		{token: labelProfile, handle: e.showProfile},
		{token: labelMyApps, handle: e.showMyApplications},
		{token: labelOlympiads, handle: e.showActiveOlympiads},
		{token: labelSettings, handle: e.showSettings},
		{token: labelHelp, handle: e.showHelp},
		{token: labelMainMenu, handle: e.showMainMenu},
		{token: labelAdmin, level: levelPrivileged, handle: e.showAdminPanel},
		{token: labelEditProfile, handle: e.startProfileEdit},
		{token: labelDeleteAccount, handle: e.startAccountDelete},
		{token: labelAddOlympiad, level: levelPrivileged, silent: true, handle: e.startOlympiadCreate},
		{token: labelOlympiadList, level: levelPrivileged, silent: true, handle: e.showFirstOlympiadPage},
		{token: labelPendingApps, level: levelPrivileged, silent: true, handle: e.showPendingApplications},
		{token: labelReports, level: levelPrivileged, silent: true, handle: e.showReports},
	}
	m := make(map[string]route, len(routes))
	for _, r := range routes {
		m[r.token] = r
	}
	return m
}

// buttonRoutes is matched in order, so a prefix must come after every longer
// token it is a prefix of.
func (e *Engine) buttonRoutes() []route {
	exact := func(tok string, l level, h func(*turn, string) error) route {
		return route{token: tok, level: l, handle: h}
	}
	prefix := func(tok string, l level, h func(*turn, string) error) route {
		return route{token: tok, prefix: true, level: l, handle: h}
	}
	return []route{
		// registration and olympiad creation
		prefix(tokRole, levelOpen, e.chooseRole),
		prefix(tokCategory, levelOpen, e.chooseCategory),
		exact(tokConfirmYes, levelOpen, e.confirmYes),
		exact(tokConfirmNo, levelOpen, e.confirmNo),
		prefix(tokSubject, levelOpen, e.chooseSubject),

		// applicant
		prefix(tokOlympiad, levelOpen, e.selectOlympiad),
		exact(tokApplyConfirm, levelOpen, e.confirmApplication),
		prefix(tokMyApp, levelOpen, e.showMyApplication),

		// moderation
		prefix(tokAppID, levelPrivileged, e.showPendingApplication),
		prefix(tokAppApprove, levelPrivileged, e.startApprove),
		prefix(tokAppReject, levelPrivileged, e.startReject),
		exact(tokSkipComment, levelOpen, e.skipComment),
		exact(tokBackToPending, levelPrivileged, e.showPendingApplications),

		// olympiad administration
		prefix(tokOlympiadsPage, levelPrivileged, e.showOlympiadPage),
		prefix(tokViewOlympiadApps, levelPrivileged, e.showOlympiadApplications),
		prefix(tokViewOlympiad, levelPrivileged, e.showOlympiad),
		prefix(tokAdminAppCheck, levelPrivileged, e.showAdminApplication),
		prefix(tokChangeAppStatus, levelPrivileged, e.chooseAppStatus),
		prefix(tokSetAppStatus, levelPrivileged, e.setAppStatus),
		prefix(tokDeleteApp, levelAdministrator, e.deleteApplication),
		prefix(tokEditAppMessage, levelPrivileged, e.startCommentEdit),
		prefix(tokBackToAppList, levelPrivileged, e.showOlympiadApplications),
		prefix(tokEditOlympiad, levelPrivileged, e.startOlympiadEdit),
		prefix(tokEditField, levelOpen, e.chooseOlympiadField),
		exact(tokCancelEditField, levelOpen, e.cancelOlympiadEdit),
		exact(tokConfirmDeleteNo, levelPrivileged, e.cancelDeleteOlympiad),
		prefix(tokConfirmDelete, levelPrivileged, e.deleteOlympiad),
		prefix(tokDeleteOlympiad, levelPrivileged, e.confirmDeleteOlympiad),
		exact(tokBackToAdmin, levelPrivileged, e.showAdminPanel),
		exact(tokBackToOlympiads, levelPrivileged, e.showFirstOlympiadPage),
		prefix(tokReport, levelPrivileged, e.sendReport),

		// profile and account
		prefix(tokProfileField, levelOpen, e.chooseProfileField),
		prefix(tokProfileCategory, levelOpen, e.chooseProfileCategory),
		exact(tokProfileCancel, levelOpen, e.cancelProfileEdit),
		exact(tokDeleteYes, levelOpen, e.deleteAccount),
		exact(tokDeleteNo, levelOpen, e.cancelAccountDelete),
	}
}

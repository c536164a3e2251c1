// Package report turns the applications of one olympiad into a table that
// can be rendered as a workbook or pushed to a spreadsheet.
package report

import (
	"context"
	"fmt"
	"time"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/util"
)

type Row struct {
	ID          uint
	LastName    string
	FirstName   string
	MiddleName  string
	Status      string
	SubmittedAt time.Time
}

type Table struct {
	OlympiadID uint
	Title      string
	Organizer  string
	Subject    string
	StartDate  time.Time
	EndDate    time.Time
	Rows       []Row
}

var Header = []string{"ID заявки", "Фамилия", "Имя", "Отчество", "Статус", "Дата подачи"}

// Layout of Grid, 1-based like spreadsheet rows.
const (
	titleRow  = 1
	headerRow = 7
)

// Source is the part of the repository a report reads from.
type Source interface {
	GetOlympiad(ctx context.Context, id uint) (*models.Olympiad, error)
	ListOlympiadApplications(ctx context.Context, olympiadID uint) ([]models.Application, error)
}

// Load reads one olympiad with its applications and builds the table.
func Load(ctx context.Context, src Source, olympiadID uint) (Table, error) {
	o, err := src.GetOlympiad(ctx, olympiadID)
	if err != nil {
		return Table{}, err
	}
	apps, err := src.ListOlympiadApplications(ctx, olympiadID)
	if err != nil {
		return Table{}, err
	}
	return Build(*o, apps), nil
}

// Build needs applications with User and Status loaded.
func Build(o models.Olympiad, apps []models.Application) Table {
	t := Table{
		OlympiadID: o.ID,
		Title:      o.Title,
		Organizer:  o.Organizer,
		Subject:    o.SubjectTitle(),
		StartDate:  o.StartDate,
		EndDate:    o.EndDate,
		Rows:       make([]Row, 0, len(apps)),
	}
	for _, a := range apps {
		r := Row{ID: a.ID, Status: string(a.StatusName()), SubmittedAt: a.CreatedAt}
		if a.User != nil {
			r.LastName = a.User.LastName
			r.FirstName = a.User.FirstName
			if a.User.MiddleName != nil {
				r.MiddleName = *a.User.MiddleName
			}
		}
		t.Rows = append(t.Rows, r)
	}
	return t
}

func (t Table) Total() int { return len(t.Rows) }

func (t Table) Caption() string {
	return fmt.Sprintf("Отчет по заявкам на олимпиаду: %s", t.Title)
}

func (t Table) TotalLine() string {
	return fmt.Sprintf("Всего заявок: %d", t.Total())
}

// Grid lays the table out row by row: title, olympiad details, an empty
// line, the header, one line per application and the total.
func (t Table) Grid() [][]any {
	grid := [][]any{
		{t.Caption()},
		{"Организатор:", t.Organizer},
		{"Дисциплина:", t.Subject},
		{"Дата начала:", util.FormatDate(t.StartDate)},
		{"Дата окончания:", util.FormatDate(t.EndDate)},
		{},
	}
	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	grid = append(grid, header)
	for _, r := range t.Rows {
		grid = append(grid, []any{
			r.ID, r.LastName, r.FirstName, r.MiddleName, r.Status, util.FormatDateTime(r.SubmittedAt),
		})
	}
	return append(grid, []any{t.TotalLine()})
}

// FileName names the workbook after the olympiad and the generation time.
func FileName(olympiadID uint, at time.Time) string {
	return fmt.Sprintf("report_olympiad_%d_%s.xlsx", olympiadID, at.Format("20060102_150405"))
}

// SheetTitle names a spreadsheet tab for one export.
func SheetTitle(olympiadID uint, at time.Time) string {
	return fmt.Sprintf("olympiad-%d-%s", olympiadID, at.Format("20060102-150405"))
}

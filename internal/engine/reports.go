package engine

import (
	"context"
	"fmt"
	"log/slog"

	"olympiad-bot/internal/report"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

const reportListLimit = 50

func (e *Engine) showReports(t *turn, _ string) error {
	list, _, err := e.repo.ListOlympiads(t.ctx, 0, reportListLimit)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		t.say("Список олимпиад пуст")
		return nil
	}
	t.send(Reply{Text: "Выберите олимпиаду для формирования отчета:", Buttons: reportsKeyboard(list)})
	return nil
}

// Report collects the application table of one olympiad for the download
// endpoint.
func (e *Engine) Report(ctx context.Context, olympiadID uint) (report.Table, error) {
	return report.Load(ctx, e.repo, olympiadID)
}

func (e *Engine) sendReport(t *turn, data string) error {
	id, err := util.TokenID(data, tokReport)
	if err != nil {
		return err
	}
	table, err := e.Report(t.ctx, id)
	if err != nil {
		return err
	}
	body, err := report.RenderXLSX(table)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	now := e.now()
	t.send(Reply{
		Text: table.TotalLine(),
		Document: &Document{
			Name:    report.FileName(id, now),
			Data:    body,
			Caption: table.Caption(),
		},
	})
	e.log.Info("report sent", slogx.Actor(t.actor), slog.Uint64("olympiad", uint64(id)), slog.Int("rows", table.Total()))

	if e.publisher == nil {
		return nil
	}
	url, err := e.publisher.Publish(t.ctx, report.SheetTitle(id, now), table.Grid())
	if err != nil {
		e.log.Warn("could not publish report", slog.Uint64("olympiad", uint64(id)), slogx.Err(err))
		t.say("⚠️ Не удалось выгрузить отчет в Google Таблицы")
		return nil
	}
	t.say("📄 Отчет также доступен в Google Таблицах: " + url)
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"olympiad-bot/internal/access"
	"olympiad-bot/internal/engine"
	"olympiad-bot/internal/server"
	"olympiad-bot/internal/session"
	"olympiad-bot/internal/sheets"
	"olympiad-bot/internal/tgbot"
	"olympiad-bot/internal/util/slogx"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot and the HTTP server (default)",
	Args:  cobra.ExactArgs(0),
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	e, err := setup()
	if err != nil {
		return err
	}
	if err := e.cfg.RequireToken(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := e.log
	if err := e.openStore(e.cfg.DB.DegradedStart); err != nil {
		return err
	}
	defer e.store.Close()

	if err := e.store.Migrate(ctx); err != nil {
		if !e.cfg.DB.DegradedStart {
			return err
		}
		log.Error("database unavailable, starting degraded", slogx.Err(err))
	}

	var sessions session.Store
	if e.cfg.RedisURL != "" {
		client, err := session.OpenRedis(ctx, e.cfg.RedisURL)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
		sessions = session.NewRedisStore(client, e.cfg.SessionTTL)
		log.Info("sessions in redis")
	} else {
		sessions = session.NewMemoryStore(e.cfg.SessionTTL)
		log.Info("sessions in memory")
	}

	deps := engine.Deps{
		Repo:     e.store,
		Sessions: sessions,
		Gate:     access.NewChecker(log, e.store),
		Log:      log,
	}
	if e.cfg.SheetsEnabled() {
		sh, err := sheets.New(ctx, e.cfg.GoogleServiceAccountJSON, e.cfg.SpreadsheetID)
		if err != nil {
			return err
		}
		deps.Publisher = sh
	}
	eng := engine.New(deps, engine.Options{
		PageSize:     e.opts.PageSize,
		BaseURL:      e.cfg.BasePublicURL,
		ExportSecret: e.cfg.ExportSecret,
	})

	bot, err := tgbot.Connect(e.cfg.TelegramToken)
	if err != nil {
		return err
	}
	app := tgbot.New(log, bot, eng, tgbot.Options{
		Workers:  e.opts.Workers,
		SendRate: e.opts.SendRate,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.Run(gctx)
	})
	if e.cfg.HTTPAddr != "" {
		srv := server.New(log, server.Config{Addr: e.cfg.HTTPAddr, ExportSecret: e.cfg.ExportSecret}, e.store, eng)
		g.Go(func() error {
			log.Info("starting http server", slog.String("addr", e.cfg.HTTPAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("stopping http server")
			shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutCtx)
		})
	}

	err = g.Wait()
	log.Info("bye")
	return err
}

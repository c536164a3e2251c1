// Package server exposes the health check and signed report downloads over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"olympiad-bot/internal/report"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util"
	"olympiad-bot/internal/util/slogx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Reporter interface {
	Report(ctx context.Context, olympiadID uint) (report.Table, error)
}

type Config struct {
	Addr         string
	ExportSecret string
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	log      *slog.Logger
	db       Pinger
	reporter Reporter
	secret   string
	now      func() time.Time
}

func New(log *slog.Logger, cfg Config, db Pinger, reporter Reporter) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           Router(log, cfg.ExportSecret, db, reporter, time.Now),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func Router(log *slog.Logger, secret string, db Pinger, reporter Reporter, now func() time.Time) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	h := &handler{log: log, db: db, reporter: reporter, secret: secret, now: now}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests)
	r.GET("/healthz", h.health)
	r.GET("/export/olympiad.xlsx", h.exportOlympiad)
	return r
}

func (h *handler) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Debug("http request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("elapsed", time.Since(start)),
	)
}

func (h *handler) health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.log.Warn("health check failed", slogx.Err(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "db": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok"})
}

func (h *handler) exportOlympiad(c *gin.Context) {
	rawID := c.Query("olympiad_id")
	token := c.Query("token")
	if rawID == "" || token == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "olympiad_id and token required"})
		return
	}
	if !util.CheckHMAC(h.secret, "export:"+rawID, token) {
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "invalid token"})
		return
	}
	id, err := util.ParseID(rawID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid olympiad id"})
		return
	}

	table, err := h.reporter.Report(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "olympiad not found"})
		return
	}
	if err != nil {
		h.log.Error("could not build report", slog.Uint64("olympiad", uint64(id)), slogx.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	body, err := report.RenderXLSX(table)
	if err != nil {
		h.log.Error("could not render report", slog.Uint64("olympiad", uint64(id)), slogx.Err(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.FileName(id, h.now())))
	c.Data(http.StatusOK, xlsxContentType, body)
}

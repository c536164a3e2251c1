// Package access answers whether an actor may use the moderator tools.
package access

import (
	"context"
	"errors"
	"log/slog"

	"olympiad-bot/internal/models"
	"olympiad-bot/internal/storage"
	"olympiad-bot/internal/util/slogx"
)

type UserGetter interface {
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
}

// Checker reads the role from storage on every call.
type Checker struct {
	users UserGetter
	log   *slog.Logger
}

func NewChecker(log *slog.Logger, users UserGetter) *Checker {
	return &Checker{users: users, log: log}
}

func (c *Checker) role(ctx context.Context, actor int64) models.RoleName {
	u, err := c.users.GetUser(ctx, actor)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.log.Warn("could not look up role", slogx.Actor(actor), slogx.Err(err))
		}
		return ""
	}
	return u.RoleName()
}

// IsPrivileged reports whether the actor is a moderator or an administrator.
// Unknown actors and lookup failures count as not privileged.
func (c *Checker) IsPrivileged(ctx context.Context, actor int64) bool {
	return c.role(ctx, actor).Privileged()
}

func (c *Checker) IsAdministrator(ctx context.Context, actor int64) bool {
	return c.role(ctx, actor) == models.RoleAdministrator
}

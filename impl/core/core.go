package core

import (
	"context"
	"fmt"
	"log/slog"

	"doorcheck/entity"
	"doorcheck/lib/sl"
)

type AuthService interface {
	OperatorByToken(ctx context.Context, token string) (*entity.Operator, error)
}

type CheckInService interface {
	Resolve(ctx context.Context, op *entity.Operator, eventId, raw string) (*entity.Resolution, error)
	Commit(ctx context.Context, op *entity.Operator, registrationId string) (*entity.CommitResult, error)
	Admit(ctx context.Context, op *entity.Operator, eventId, raw string) (*entity.AdmitResult, error)
	Stats(ctx context.Context, op *entity.Operator, eventId string) (*entity.Stats, error)
}

type Core struct {
	checkin CheckInService
	auth    AuthService
	log     *slog.Logger
}

func New(checkin CheckInService, log *slog.Logger) *Core {
	if checkin == nil {
		panic("check-in service is nil")
	}
	return &Core{
		checkin: checkin,
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) AuthenticateByToken(ctx context.Context, token string) (*entity.Operator, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.OperatorByToken(ctx, token)
}

func (c *Core) ResolveTicket(ctx context.Context, op *entity.Operator, eventId, code string) (*entity.Resolution, error) {
	return c.checkin.Resolve(ctx, op, eventId, code)
}

func (c *Core) CommitCheckIn(ctx context.Context, op *entity.Operator, registrationId string) (*entity.CommitResult, error) {
	return c.checkin.Commit(ctx, op, registrationId)
}

func (c *Core) AdmitTicket(ctx context.Context, op *entity.Operator, eventId, code string) (*entity.AdmitResult, error) {
	return c.checkin.Admit(ctx, op, eventId, code)
}

func (c *Core) EventStats(ctx context.Context, op *entity.Operator, eventId string) (*entity.Stats, error) {
	if eventId == "" {
		return nil, fmt.Errorf("event id is empty")
	}
	return c.checkin.Stats(ctx, op, eventId)
}

package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"doorcheck/entity"
	"doorcheck/internal/http-server/handlers/errors"
	"doorcheck/lib/api/cont"
	"doorcheck/lib/api/response"
	"doorcheck/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Core interface {
	ResolveTicket(ctx context.Context, op *entity.Operator, eventId, code string) (*entity.Resolution, error)
	CommitCheckIn(ctx context.Context, op *entity.Operator, registrationId string) (*entity.CommitResult, error)
	AdmitTicket(ctx context.Context, op *entity.Operator, eventId, code string) (*entity.AdmitResult, error)
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	logger := log.With(
		sl.Module("http.handlers.checkin"),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
	if op := cont.GetOperator(r.Context()); op != nil {
		logger = logger.With(sl.Operator(op))
	}
	return logger
}

func bindCode(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	var req entity.CodeRequest
	if err := render.Bind(r, &req); err != nil {
		logger.Debug("bind request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
		return "", false
	}
	return req.Code, true
}

// Resolve looks a scanned code up and reports the admission decision without
// changing anything. A closed window is part of the answer, not an error.
func Resolve(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if handler == nil {
			logger.Error("check-in service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Check-in service not available"))
			return
		}

		eventId := chi.URLParam(r, "event")
		code, ok := bindCode(w, r, logger)
		if !ok {
			return
		}
		logger = logger.With(sl.Event(eventId))

		res, err := handler.ResolveTicket(r.Context(), cont.GetOperator(r.Context()), eventId, code)
		if err != nil {
			errors.Fail(w, r, logger, err)
			return
		}
		render.JSON(w, r, response.Ok(res))
	}
}

func Commit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if handler == nil {
			logger.Error("check-in service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Check-in service not available"))
			return
		}

		id := chi.URLParam(r, "id")
		logger = logger.With(sl.Registration(id))

		res, err := handler.CommitCheckIn(r.Context(), cont.GetOperator(r.Context()), id)
		if err != nil {
			errors.Fail(w, r, logger, err)
			return
		}
		if res.Outcome == entity.OutcomeNotFound {
			errors.Fail(w, r, logger, entity.ErrNotFound)
			return
		}
		render.JSON(w, r, response.Ok(res))
	}
}

// Admit resolves and commits in one call, for scanners without a confirmation step.
func Admit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		if handler == nil {
			logger.Error("check-in service not available")
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Check-in service not available"))
			return
		}

		eventId := chi.URLParam(r, "event")
		code, ok := bindCode(w, r, logger)
		if !ok {
			return
		}
		logger = logger.With(sl.Event(eventId))

		res, err := handler.AdmitTicket(r.Context(), cont.GetOperator(r.Context()), eventId, code)
		if err != nil {
			errors.Fail(w, r, logger, err)
			return
		}
		render.JSON(w, r, response.Ok(res))
	}
}
